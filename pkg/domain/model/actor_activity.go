/*
 * @Description: 用户活动数据模型
 * @Author: 安知鱼
 * @Date: 2025-10-11 14:44:22
 * @LastEditTime: 2025-10-18 18:51:29
 * @LastEditors: 安知鱼
 */
package model

import (
	"sync/atomic"
	"time"
)

// ActorActivity 单个用户的实时活动记录，一致性模型与 EntityStatistics 相同。
type ActorActivity struct {
	actorID int64

	itemsViewed     atomic.Int64
	itemsDownloaded atomic.Int64
	itemsPurchased  atomic.Int64
	reviewsCreated  atomic.Int64
	ratingsCreated  atomic.Int64
	totalSpentCents atomic.Int64

	viewedItems     *IDSet
	downloadedItems *IDSet
	purchasedItems  *IDSet

	firstActivityAt atomic.Pointer[time.Time]
	lastActivityAt  atomic.Pointer[time.Time]
}

func NewActorActivity(actorID int64) *ActorActivity {
	return &ActorActivity{
		actorID:         actorID,
		viewedItems:     NewIDSet(),
		downloadedItems: NewIDSet(),
		purchasedItems:  NewIDSet(),
	}
}

func (a *ActorActivity) ActorID() int64 { return a.actorID }

// Touch 首次活动时间只写一次，最后活动时间每个事件都覆盖
func (a *ActorActivity) Touch(at time.Time) {
	ts := &at
	a.firstActivityAt.CompareAndSwap(nil, ts)
	a.lastActivityAt.Store(ts)
}

func (a *ActorActivity) RecordView(entityID int64) {
	a.itemsViewed.Add(1)
	a.viewedItems.Add(entityID)
}

func (a *ActorActivity) RecordDownload(entityID int64) {
	a.itemsDownloaded.Add(1)
	a.downloadedItems.Add(entityID)
}

func (a *ActorActivity) RecordPurchase(entityID, amountCents int64) {
	a.itemsPurchased.Add(1)
	a.purchasedItems.Add(entityID)
	addCents(&a.totalSpentCents, amountCents)
}

func (a *ActorActivity) RecordReview() { a.reviewsCreated.Add(1) }

func (a *ActorActivity) RecordRating() { a.ratingsCreated.Add(1) }

func (a *ActorActivity) ItemsViewed() int64 { return a.itemsViewed.Load() }
func (a *ActorActivity) ItemsDownloaded() int64 { return a.itemsDownloaded.Load() }
func (a *ActorActivity) ItemsPurchased() int64 { return a.itemsPurchased.Load() }
func (a *ActorActivity) ReviewsCreated() int64 { return a.reviewsCreated.Load() }
func (a *ActorActivity) RatingsCreated() int64 { return a.ratingsCreated.Load() }
func (a *ActorActivity) TotalSpentCents() int64 { return a.totalSpentCents.Load() }

func (a *ActorActivity) ViewedItems() *IDSet { return a.viewedItems }
func (a *ActorActivity) DownloadedItems() *IDSet { return a.downloadedItems }
func (a *ActorActivity) PurchasedItems() *IDSet { return a.purchasedItems }

func (a *ActorActivity) FirstActivityAt() *time.Time { return loadTime(&a.firstActivityAt) }
func (a *ActorActivity) LastActivityAt() *time.Time { return loadTime(&a.lastActivityAt) }
