/*
 * @Description:
 * @Author: 安知鱼
 * @Date: 2025-10-14 21:20:29
 * @LastEditTime: 2025-10-21 14:19:15
 * @LastEditors: 安知鱼
 */
package memory

import (
	"cmp"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/anzhiyu-c/anheyu-stats/pkg/domain/model"
	"github.com/anzhiyu-c/anheyu-stats/pkg/domain/repository"
)

// memoryStatisticsStore 基于 sync.Map 的统计仓储实现。
// 只有 ID 到记录的映射需要同步，记录内部由各自的原子字段保护，
// 整个仓储没有全局锁，不同条目的写入互不阻塞。
type memoryStatisticsStore struct {
	entities sync.Map // int64 -> *model.EntityStatistics
	actors   sync.Map // int64 -> *model.ActorActivity

	entityCount atomic.Int64
	actorCount  atomic.Int64
}

// NewStatisticsStore 创建内存统计仓储实例。进程内只应构造一次并显式注入给各个使用者。
func NewStatisticsStore() repository.StatisticsStore {
	return &memoryStatisticsStore{}
}

func (s *memoryStatisticsStore) GetOrCreateEntity(entityID int64, defaultTitle, defaultCategory string) *model.EntityStatistics {
	// 快路径：已存在时不分配新记录
	if v, ok := s.entities.Load(entityID); ok {
		return v.(*model.EntityStatistics)
	}

	candidate := model.NewEntityStatistics(entityID, defaultTitle, defaultCategory)
	actual, loaded := s.entities.LoadOrStore(entityID, candidate)
	if !loaded {
		s.entityCount.Add(1)
	}
	return actual.(*model.EntityStatistics)
}

func (s *memoryStatisticsStore) GetOrCreateActor(actorID int64) *model.ActorActivity {
	if v, ok := s.actors.Load(actorID); ok {
		return v.(*model.ActorActivity)
	}

	actual, loaded := s.actors.LoadOrStore(actorID, model.NewActorActivity(actorID))
	if !loaded {
		s.actorCount.Add(1)
	}
	return actual.(*model.ActorActivity)
}

func (s *memoryStatisticsStore) FindEntity(entityID int64) (*model.EntityStatistics, bool) {
	v, ok := s.entities.Load(entityID)
	if !ok {
		return nil, false
	}
	return v.(*model.EntityStatistics), true
}

func (s *memoryStatisticsStore) FindActor(actorID int64) (*model.ActorActivity, bool) {
	v, ok := s.actors.Load(actorID)
	if !ok {
		return nil, false
	}
	return v.(*model.ActorActivity), true
}

func (s *memoryStatisticsStore) AllEntities() []*model.EntityStatistics {
	out := make([]*model.EntityStatistics, 0, s.entityCount.Load())
	s.entities.Range(func(_, value any) bool {
		out = append(out, value.(*model.EntityStatistics))
		return true
	})
	slices.SortFunc(out, func(a, b *model.EntityStatistics) int {
		return cmp.Compare(a.EntityID(), b.EntityID())
	})
	return out
}

func (s *memoryStatisticsStore) AllActors() []*model.ActorActivity {
	out := make([]*model.ActorActivity, 0, s.actorCount.Load())
	s.actors.Range(func(_, value any) bool {
		out = append(out, value.(*model.ActorActivity))
		return true
	})
	slices.SortFunc(out, func(a, b *model.ActorActivity) int {
		return cmp.Compare(a.ActorID(), b.ActorID())
	})
	return out
}

func (s *memoryStatisticsStore) EntityCount() int64 {
	return s.entityCount.Load()
}

func (s *memoryStatisticsStore) ActorCount() int64 {
	return s.actorCount.Load()
}
