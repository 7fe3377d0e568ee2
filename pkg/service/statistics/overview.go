/*
 * @Description:
 * @Author: 安知鱼
 * @Date: 2025-10-12 18:36:20
 * @LastEditTime: 2025-10-14 20:54:32
 * @LastEditors: 安知鱼
 */
package statistics

import (
	"time"

	"github.com/anzhiyu-c/anheyu-stats/pkg/domain/model"
)

func (p *eventProcessor) ComputeOverview() *model.SystemOverview {
	return BuildOverview(p.store.AllEntities(), p.store.ActorCount(), p.now())
}

// BuildOverview 对条目列表做一次遍历，汇总全局计数。
// 最多浏览的条目在浏览量相同时取 ID 较小者；热门分类在浏览总数相同时取名称字典序较小者。
// 分类为空的条目不参与分类排名；没有任何浏览时两者都为空。
// 平均评论长度只统计携带 review_length 的评论。
func BuildOverview(entities []*model.EntityStatistics, actorCount int64, now time.Time) *model.SystemOverview {
	overview := &model.SystemOverview{
		TotalEntities: int64(len(entities)),
		TotalActors:   actorCount,
		GeneratedAt:   now,
	}

	var (
		revenueCents    int64
		ratingSum       int64
		reviewLengthSum int64
		lengthReviews   int64
		categoryViews   = make(map[string]int64)
	)

	for _, e := range entities {
		views := e.ViewCount()
		overview.TotalViews += views
		overview.TotalDownloads += e.DownloadCount()
		overview.TotalPurchases += e.PurchaseCount()
		overview.TotalReviews += e.ReviewCount()
		overview.TotalRatings += e.RatingCount()
		revenueCents += e.TotalRevenueCents()
		ratingSum += e.RatingSum()
		reviewLengthSum += e.ReviewLengthSum()
		lengthReviews += e.ReviewsWithLength()

		if views > 0 && (overview.MostViewed == nil ||
			views > overview.MostViewed.ViewCount ||
			(views == overview.MostViewed.ViewCount && e.EntityID() < overview.MostViewed.EntityID)) {
			overview.MostViewed = &model.EntityRef{
				EntityID:  e.EntityID(),
				Title:     e.Title(),
				ViewCount: views,
			}
		}

		if category := e.Category(); category != "" {
			categoryViews[category] += views
		}
	}

	overview.TotalRevenue = model.CentsToAmount(revenueCents)
	overview.AverageRating = model.SafeAverage(ratingSum, overview.TotalRatings)
	overview.AverageReviewLength = model.SafeAverage(reviewLengthSum, lengthReviews)

	for category, views := range categoryViews {
		if views <= 0 {
			continue
		}
		if views > overview.TopCategoryViews ||
			(views == overview.TopCategoryViews && category < overview.TopCategory) {
			overview.TopCategory = category
			overview.TopCategoryViews = views
		}
	}

	return overview
}
