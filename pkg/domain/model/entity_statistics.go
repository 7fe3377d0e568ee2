/*
 * @Description: 条目统计数据模型
 * @Author: 安知鱼
 * @Date: 2025-10-03 22:05:17
 * @LastEditTime: 2025-10-10 20:42:04
 * @LastEditors: 安知鱼
 */
package model

import (
	"sync/atomic"
	"time"
)

// entityMeta 条目元数据，整体替换以保证 title/category 读取时不会撕裂
type entityMeta struct {
	title    string
	category string
}

// EntityStatistics 单个条目的实时聚合记录。
//
// 一致性模型：每个字段的更新各自是原子的，但同一事件涉及的多个字段之间
// 没有整体原子性。并发读取可能看到"评分次数已加一、评分总和尚未加上"的中间状态，
// 这是为无锁高吞吐写入接受的弱一致性，不是缺陷。
type EntityStatistics struct {
	entityID int64
	meta     atomic.Pointer[entityMeta]

	viewCount     atomic.Int64
	downloadCount atomic.Int64
	purchaseCount atomic.Int64
	reviewCount   atomic.Int64
	ratingCount   atomic.Int64

	totalRevenueCents atomic.Int64
	ratingSum         atomic.Int64
	reviewLengthSum   atomic.Int64
	// 携带长度的评论数，作为平均评论长度的除数
	reviewsWithLength atomic.Int64

	uniqueViewers     *IDSet
	uniqueDownloaders *IDSet
	uniquePurchasers  *IDSet

	// nil 表示未设置
	firstSeenAt     atomic.Pointer[time.Time]
	lastViewedAt    atomic.Pointer[time.Time]
	lastPurchasedAt atomic.Pointer[time.Time]
}

// NewEntityStatistics 创建条目统计记录，元数据取自首次观察到它的事件
func NewEntityStatistics(entityID int64, title, category string) *EntityStatistics {
	e := &EntityStatistics{
		entityID:          entityID,
		uniqueViewers:     NewIDSet(),
		uniqueDownloaders: NewIDSet(),
		uniquePurchasers:  NewIDSet(),
	}
	e.meta.Store(&entityMeta{title: title, category: category})
	return e
}

func (e *EntityStatistics) EntityID() int64 { return e.entityID }

func (e *EntityStatistics) Title() string { return e.meta.Load().title }

func (e *EntityStatistics) Category() string { return e.meta.Load().category }

// UpdateMetadata 以最后一次写入为准覆盖非空的 title/category
func (e *EntityStatistics) UpdateMetadata(title, category string) {
	if title == "" && category == "" {
		return
	}
	for {
		old := e.meta.Load()
		next := &entityMeta{title: old.title, category: old.category}
		if title != "" {
			next.title = title
		}
		if category != "" {
			next.category = category
		}
		if *next == *old || e.meta.CompareAndSwap(old, next) {
			return
		}
	}
}

// RecordView 记录一次浏览；同一用户重复浏览只增加 viewCount，不扩大 uniqueViewers
func (e *EntityStatistics) RecordView(actorID *int64, at time.Time) {
	ts := &at
	e.viewCount.Add(1)
	if actorID != nil {
		e.uniqueViewers.Add(*actorID)
	}
	e.firstSeenAt.CompareAndSwap(nil, ts)
	e.lastViewedAt.Store(ts)
}

func (e *EntityStatistics) RecordDownload(actorID *int64) {
	e.downloadCount.Add(1)
	if actorID != nil {
		e.uniqueDownloaders.Add(*actorID)
	}
}

func (e *EntityStatistics) RecordPurchase(actorID *int64, amountCents int64, at time.Time) {
	e.purchaseCount.Add(1)
	if actorID != nil {
		e.uniquePurchasers.Add(*actorID)
	}
	addCents(&e.totalRevenueCents, amountCents)
	e.lastPurchasedAt.Store(&at)
}

// RecordReview length 为 nil 时只计数，不参与平均评论长度
func (e *EntityStatistics) RecordReview(length *int64) {
	e.reviewCount.Add(1)
	if length != nil {
		e.reviewLengthSum.Add(*length)
		e.reviewsWithLength.Add(1)
	}
}

// AdjustReviewLength 评论编辑不改变评论数，只修正长度总和
func (e *EntityStatistics) AdjustReviewLength(delta int64) {
	e.reviewLengthSum.Add(delta)
}

func (e *EntityStatistics) RecordRating(value int64) {
	e.ratingCount.Add(1)
	e.ratingSum.Add(value)
}

// AdjustRating 评分修改：评分总和加上新旧差值，评分次数不变
func (e *EntityStatistics) AdjustRating(oldValue, newValue int64) {
	e.ratingSum.Add(newValue - oldValue)
}

func (e *EntityStatistics) ViewCount() int64 { return e.viewCount.Load() }
func (e *EntityStatistics) DownloadCount() int64 { return e.downloadCount.Load() }
func (e *EntityStatistics) PurchaseCount() int64 { return e.purchaseCount.Load() }
func (e *EntityStatistics) ReviewCount() int64 { return e.reviewCount.Load() }
func (e *EntityStatistics) RatingCount() int64 { return e.ratingCount.Load() }
func (e *EntityStatistics) RatingSum() int64 { return e.ratingSum.Load() }
func (e *EntityStatistics) ReviewLengthSum() int64 { return e.reviewLengthSum.Load() }
func (e *EntityStatistics) ReviewsWithLength() int64 { return e.reviewsWithLength.Load() }
func (e *EntityStatistics) TotalRevenueCents() int64 { return e.totalRevenueCents.Load() }

func (e *EntityStatistics) UniqueViewers() *IDSet { return e.uniqueViewers }
func (e *EntityStatistics) UniqueDownloaders() *IDSet { return e.uniqueDownloaders }
func (e *EntityStatistics) UniquePurchasers() *IDSet { return e.uniquePurchasers }

// AverageRating 每次读取时由 ratingSum / ratingCount 现算，评分次数为 0 时返回 0
func (e *EntityStatistics) AverageRating() float64 {
	return SafeAverage(e.ratingSum.Load(), e.ratingCount.Load())
}

func (e *EntityStatistics) FirstSeenAt() *time.Time { return loadTime(&e.firstSeenAt) }
func (e *EntityStatistics) LastViewedAt() *time.Time { return loadTime(&e.lastViewedAt) }
func (e *EntityStatistics) LastPurchasedAt() *time.Time { return loadTime(&e.lastPurchasedAt) }

// SafeAverage 除数为 0 时返回 0，避免出现 NaN
func SafeAverage(sum, count int64) float64 {
	if count <= 0 {
		return 0
	}
	return float64(sum) / float64(count)
}

// loadTime 返回副本，调用方修改不会影响记录
func loadTime(p *atomic.Pointer[time.Time]) *time.Time {
	ts := p.Load()
	if ts == nil {
		return nil
	}
	t := ts.UTC()
	return &t
}
