/*
 * @Description: Redis 快照 sink
 * @Author: 安知鱼
 * @Date: 2025-10-14 14:43:56
 * @LastEditTime: 2025-10-20 12:09:05
 * @LastEditors: 安知鱼
 */
package export

import (
	"context"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"

	"github.com/anzhiyu-c/anheyu-stats/pkg/domain/model"
)

// DefaultKeyPrefix 未配置 Sink.KeyPrefix 时使用的键前缀
const DefaultKeyPrefix = "anheyu:stats:"

// RedisSink 把每种快照的最新一份写入 {prefix}snapshot:{kind}，
// 同时向 {prefix}snapshots 频道广播，供下游订阅。
type RedisSink struct {
	client *redis.Client
	prefix string
}

// NewRedisSink 通过依赖注入接收 Redis 客户端
func NewRedisSink(client *redis.Client, prefix string) *RedisSink {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &RedisSink{client: client, prefix: prefix}
}

// SnapshotKey 某种快照的存储键
func (s *RedisSink) SnapshotKey(kind model.SnapshotKind) string {
	return s.prefix + "snapshot:" + string(kind)
}

// Channel 快照广播频道
func (s *RedisSink) Channel() string {
	return s.prefix + "snapshots"
}

func (s *RedisSink) Publish(ctx context.Context, kind model.SnapshotKind, env *model.SnapshotEnvelope) error {
	data, err := sonic.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode %s snapshot: %w", kind, err)
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.SnapshotKey(kind), data, 0)
	pipe.Publish(ctx, s.Channel(), data)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("write %s snapshot to redis: %w", kind, err)
	}
	return nil
}
