/*
 * @Description: 统计快照数据模型
 * @Author: 安知鱼
 * @Date: 2025-10-12 09:29:22
 * @LastEditTime: 2025-10-14 18:07:31
 * @LastEditors: 安知鱼
 */
package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// EntityStatisticsSnapshot 条目统计的不可变快照，字段值在读取时复制
type EntityStatisticsSnapshot struct {
	EntityID          int64           `json:"entity_id"`
	Title             string          `json:"title"`
	Category          string          `json:"category"`
	ViewCount         int64           `json:"view_count"`
	DownloadCount     int64           `json:"download_count"`
	PurchaseCount     int64           `json:"purchase_count"`
	ReviewCount       int64           `json:"review_count"`
	RatingCount       int64           `json:"rating_count"`
	RatingSum         int64           `json:"rating_sum"`
	AverageRating     float64         `json:"average_rating"`
	TotalRevenue      decimal.Decimal `json:"total_revenue"` // 以货币单位表示，由分精确换算
	ReviewLengthSum   int64           `json:"review_length_sum"`
	UniqueViewers     []int64         `json:"unique_viewers"`
	UniqueDownloaders []int64         `json:"unique_downloaders"`
	UniquePurchasers  []int64         `json:"unique_purchasers"`
	FirstSeenAt       *time.Time      `json:"first_seen_at"`
	LastViewedAt      *time.Time      `json:"last_viewed_at"`
	LastPurchasedAt   *time.Time      `json:"last_purchased_at"`
}

// NewEntityStatisticsSnapshot 逐字段复制当前值。记录可能仍在被并发修改，
// 因此快照只保证每个字段各自是某一时刻的值。
func NewEntityStatisticsSnapshot(e *EntityStatistics) *EntityStatisticsSnapshot {
	ratingCount := e.RatingCount()
	ratingSum := e.RatingSum()
	return &EntityStatisticsSnapshot{
		EntityID:          e.EntityID(),
		Title:             e.Title(),
		Category:          e.Category(),
		ViewCount:         e.ViewCount(),
		DownloadCount:     e.DownloadCount(),
		PurchaseCount:     e.PurchaseCount(),
		ReviewCount:       e.ReviewCount(),
		RatingCount:       ratingCount,
		RatingSum:         ratingSum,
		AverageRating:     SafeAverage(ratingSum, ratingCount),
		TotalRevenue:      CentsToAmount(e.TotalRevenueCents()),
		ReviewLengthSum:   e.ReviewLengthSum(),
		UniqueViewers:     e.UniqueViewers().Members(),
		UniqueDownloaders: e.UniqueDownloaders().Members(),
		UniquePurchasers:  e.UniquePurchasers().Members(),
		FirstSeenAt:       e.FirstSeenAt(),
		LastViewedAt:      e.LastViewedAt(),
		LastPurchasedAt:   e.LastPurchasedAt(),
	}
}

// ActorActivitySnapshot 用户活动的不可变快照
type ActorActivitySnapshot struct {
	ActorID         int64           `json:"actor_id"`
	ItemsViewed     int64           `json:"items_viewed"`
	ItemsDownloaded int64           `json:"items_downloaded"`
	ItemsPurchased  int64           `json:"items_purchased"`
	ReviewsCreated  int64           `json:"reviews_created"`
	RatingsCreated  int64           `json:"ratings_created"`
	TotalSpent      decimal.Decimal `json:"total_spent"`
	ViewedItems     []int64         `json:"viewed_items"`
	DownloadedItems []int64         `json:"downloaded_items"`
	PurchasedItems  []int64         `json:"purchased_items"`
	FirstActivityAt *time.Time      `json:"first_activity_at"`
	LastActivityAt  *time.Time      `json:"last_activity_at"`
}

func NewActorActivitySnapshot(a *ActorActivity) *ActorActivitySnapshot {
	return &ActorActivitySnapshot{
		ActorID:         a.ActorID(),
		ItemsViewed:     a.ItemsViewed(),
		ItemsDownloaded: a.ItemsDownloaded(),
		ItemsPurchased:  a.ItemsPurchased(),
		ReviewsCreated:  a.ReviewsCreated(),
		RatingsCreated:  a.RatingsCreated(),
		TotalSpent:      CentsToAmount(a.TotalSpentCents()),
		ViewedItems:     a.ViewedItems().Members(),
		DownloadedItems: a.DownloadedItems().Members(),
		PurchasedItems:  a.PurchasedItems().Members(),
		FirstActivityAt: a.FirstActivityAt(),
		LastActivityAt:  a.LastActivityAt(),
	}
}

// EntityRef 概览中引用的单个条目
type EntityRef struct {
	EntityID  int64  `json:"entity_id"`
	Title     string `json:"title"`
	ViewCount int64  `json:"view_count"`
}

// SystemOverview 全局概览，按需计算，不做存储
type SystemOverview struct {
	TotalEntities       int64           `json:"total_entities"`
	TotalActors         int64           `json:"total_actors"`
	TotalViews          int64           `json:"total_views"`
	TotalDownloads      int64           `json:"total_downloads"`
	TotalPurchases      int64           `json:"total_purchases"`
	TotalReviews        int64           `json:"total_reviews"`
	TotalRatings        int64           `json:"total_ratings"`
	TotalRevenue        decimal.Decimal `json:"total_revenue"`
	AverageRating       float64         `json:"average_rating"`
	AverageReviewLength float64         `json:"average_review_length"`
	MostViewed          *EntityRef      `json:"most_viewed"`        // 没有任何浏览时为空
	TopCategory         string          `json:"top_category"`       // 没有任何浏览时为空
	TopCategoryViews    int64           `json:"top_category_views"` // 该分类的浏览总数
	GeneratedAt         time.Time       `json:"generated_at"`
}

// SortKey 热门排行的排序字段
type SortKey string

const (
	SortByViews     SortKey = "views"
	SortByDownloads SortKey = "downloads"
	SortByPurchases SortKey = "purchases"
	SortByRevenue   SortKey = "revenue"
)

// DefaultSortKey 未指定排序字段时按浏览量排序
const DefaultSortKey = SortByViews

// ParseSortKey 解析排序字段，空字符串返回默认值
func ParseSortKey(raw string) (SortKey, error) {
	key := SortKey(strings.ToLower(strings.TrimSpace(raw)))
	switch key {
	case "":
		return DefaultSortKey, nil
	case SortByViews, SortByDownloads, SortByPurchases, SortByRevenue:
		return key, nil
	default:
		return "", fmt.Errorf("unknown sort key %q", raw)
	}
}

// RankedEntity 热门排行中的一项，Rank 从 1 开始
type RankedEntity struct {
	Rank          int             `json:"rank"`
	EntityID      int64           `json:"entity_id"`
	Title         string          `json:"title"`
	Category      string          `json:"category"`
	ViewCount     int64           `json:"view_count"`
	DownloadCount int64           `json:"download_count"`
	PurchaseCount int64           `json:"purchase_count"`
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
	AverageRating float64         `json:"average_rating"`
}

// PopularEntities 带排序字段的热门排行快照
type PopularEntities struct {
	SortKey SortKey         `json:"sort_key"`
	Limit   int             `json:"limit"`
	Items   []*RankedEntity `json:"items"`
}

// SnapshotKind 导出快照的种类
type SnapshotKind string

const (
	SnapshotKindEntityStatistics SnapshotKind = "entity_statistics"
	SnapshotKindSystemOverview   SnapshotKind = "system_overview"
	SnapshotKindPopularEntities  SnapshotKind = "popular_entities"
)

// SnapshotEnvelope 交给下游 sink 的快照信封
type SnapshotEnvelope struct {
	Kind         SnapshotKind `json:"kind"`
	GenerationID string       `json:"generation_id"` // 同一次 tick 产出的所有快照共享
	GeneratedAt  time.Time    `json:"generated_at"`
	Payload      any          `json:"payload"`
}

// LivenessStats 简单的存活计数
type LivenessStats struct {
	EventsProcessed int64         `json:"events_processed"`
	EventsFailed    int64         `json:"events_failed"`
	EntitiesTracked int64         `json:"entities_tracked"`
	ActorsTracked   int64         `json:"actors_tracked"`
	StartedAt       time.Time     `json:"started_at"`
	Uptime          time.Duration `json:"uptime"`
}
