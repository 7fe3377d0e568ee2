package statistics

import (
	"cmp"
	"slices"

	"github.com/anzhiyu-c/anheyu-stats/pkg/domain/model"
)

// 热门排行条数
const (
	DefaultPopularLimit = 10
	MaxPopularLimit     = 100
)

// rankCandidate 排序前先把每个指标读一次，避免排序过程中数值变化导致比较不稳定
type rankCandidate struct {
	metric int64
	ranked *model.RankedEntity
}

// RankEntities 按排序字段降序取前 limit 个条目，数值相同时 ID 较小者在前，Rank 从 1 开始。
// limit <= 0 时返回全部。
func RankEntities(entities []*model.EntityStatistics, key model.SortKey, limit int) []*model.RankedEntity {
	candidates := make([]rankCandidate, 0, len(entities))
	for _, e := range entities {
		item := &model.RankedEntity{
			EntityID:      e.EntityID(),
			Title:         e.Title(),
			Category:      e.Category(),
			ViewCount:     e.ViewCount(),
			DownloadCount: e.DownloadCount(),
			PurchaseCount: e.PurchaseCount(),
			AverageRating: e.AverageRating(),
		}
		revenueCents := e.TotalRevenueCents()
		item.TotalRevenue = model.CentsToAmount(revenueCents)

		var metric int64
		switch key {
		case model.SortByDownloads:
			metric = item.DownloadCount
		case model.SortByPurchases:
			metric = item.PurchaseCount
		case model.SortByRevenue:
			metric = revenueCents
		default:
			metric = item.ViewCount
		}
		candidates = append(candidates, rankCandidate{metric: metric, ranked: item})
	}

	slices.SortFunc(candidates, func(a, b rankCandidate) int {
		if c := cmp.Compare(b.metric, a.metric); c != 0 {
			return c
		}
		return cmp.Compare(a.ranked.EntityID, b.ranked.EntityID)
	})

	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}

	out := make([]*model.RankedEntity, len(candidates))
	for i, c := range candidates {
		c.ranked.Rank = i + 1
		out[i] = c.ranked
	}
	return out
}

// NormalizePopularLimit 非正数取默认值，超出上限时截断
func NormalizePopularLimit(limit int) int {
	if limit <= 0 {
		return DefaultPopularLimit
	}
	return min(limit, MaxPopularLimit)
}
