/*
 * @Description: 统计查询服务
 * @Author: 安知鱼
 * @Date: 2025-10-20 19:43:47
 * @LastEditTime: 2025-10-24 16:57:55
 * @LastEditors: 安知鱼
 */
package statistics

import (
	"context"
	"fmt"
	"time"

	"github.com/anzhiyu-c/anheyu-stats/pkg/domain/model"
	"github.com/anzhiyu-c/anheyu-stats/pkg/domain/repository"
)

// QueryService 同步只读查询接口，供外部报表层使用
type QueryService interface {
	// 获取条目统计快照，未知 ID 返回 false
	GetEntityStatistics(ctx context.Context, entityID int64) (*model.EntityStatisticsSnapshot, bool)

	// 获取用户活动快照，未知 ID 返回 false
	GetActorActivity(ctx context.Context, actorID int64) (*model.ActorActivitySnapshot, bool)

	// 获取热门条目排行
	GetPopularEntities(ctx context.Context, limit int, sortKey string) (*model.PopularEntities, error)

	// 获取全局概览
	GetSystemOverview(ctx context.Context) *model.SystemOverview

	// 获取存活计数
	GetLiveness(ctx context.Context) *model.LivenessStats
}

type queryService struct {
	store     repository.StatisticsStore
	processor EventProcessor
	startedAt time.Time
	now       func() time.Time
}

// NewQueryService 创建查询服务，startedAt 为进程启动时间
func NewQueryService(store repository.StatisticsStore, processor EventProcessor, startedAt time.Time) QueryService {
	return &queryService{
		store:     store,
		processor: processor,
		startedAt: startedAt,
		now:       time.Now,
	}
}

func (s *queryService) GetEntityStatistics(_ context.Context, entityID int64) (*model.EntityStatisticsSnapshot, bool) {
	entity, ok := s.store.FindEntity(entityID)
	if !ok {
		return nil, false
	}
	return model.NewEntityStatisticsSnapshot(entity), true
}

func (s *queryService) GetActorActivity(_ context.Context, actorID int64) (*model.ActorActivitySnapshot, bool) {
	actor, ok := s.store.FindActor(actorID)
	if !ok {
		return nil, false
	}
	return model.NewActorActivitySnapshot(actor), true
}

func (s *queryService) GetPopularEntities(_ context.Context, limit int, sortKey string) (*model.PopularEntities, error) {
	key, err := model.ParseSortKey(sortKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSortKey, err)
	}
	limit = NormalizePopularLimit(limit)

	return &model.PopularEntities{
		SortKey: key,
		Limit:   limit,
		Items:   RankEntities(s.store.AllEntities(), key, limit),
	}, nil
}

func (s *queryService) GetSystemOverview(_ context.Context) *model.SystemOverview {
	return s.processor.ComputeOverview()
}

func (s *queryService) GetLiveness(_ context.Context) *model.LivenessStats {
	return &model.LivenessStats{
		EventsProcessed: s.processor.EventsProcessed(),
		EventsFailed:    s.processor.EventsFailed(),
		EntitiesTracked: s.store.EntityCount(),
		ActorsTracked:   s.store.ActorCount(),
		StartedAt:       s.startedAt,
		Uptime:          s.now().Sub(s.startedAt),
	}
}
