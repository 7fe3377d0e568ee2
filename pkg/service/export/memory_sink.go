/*
 * @Description: 内存快照 sink（用于 Redis 不可用时的降级方案）
 * @Author: 安知鱼
 * @Date: 2025-10-18 13:56:08
 * @LastEditTime: 2025-10-24 22:35:17
 * @LastEditors: 安知鱼
 */
package export

import (
	"context"
	"sync"

	"github.com/anzhiyu-c/anheyu-stats/pkg/domain/model"
)

// MemorySink 只在进程内保留每种快照的最新一份，用于 Redis 不可用时的降级以及测试
type MemorySink struct {
	mu        sync.RWMutex
	latest    map[model.SnapshotKind]*model.SnapshotEnvelope
	published int64
}

func NewMemorySink() *MemorySink {
	return &MemorySink{latest: make(map[model.SnapshotKind]*model.SnapshotEnvelope)}
}

func (s *MemorySink) Publish(ctx context.Context, kind model.SnapshotKind, env *model.SnapshotEnvelope) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest[kind] = env
	s.published++
	return nil
}

// Latest 返回某种快照最近一次发布的信封
func (s *MemorySink) Latest(kind model.SnapshotKind) (*model.SnapshotEnvelope, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	env, ok := s.latest[kind]
	return env, ok
}

// Published 累计发布次数
func (s *MemorySink) Published() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.published
}
