package export

import (
	"context"

	"github.com/anzhiyu-c/anheyu-stats/pkg/domain/model"
)

// SnapshotSink 快照的下游消费者。Publish 收到的信封已是复制后的值，实现方可以自由持有。
type SnapshotSink interface {
	Publish(ctx context.Context, kind model.SnapshotKind, env *model.SnapshotEnvelope) error
}

// SinkType sink 实现类型
type SinkType string

const (
	SinkTypeRedis  SinkType = "redis"
	SinkTypeMemory SinkType = "memory"
)

// GetSinkType 获取当前使用的 sink 类型
func GetSinkType(sink SnapshotSink) SinkType {
	switch sink.(type) {
	case *RedisSink:
		return SinkTypeRedis
	default:
		return SinkTypeMemory
	}
}
