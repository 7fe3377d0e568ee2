/*
 * @Description: 智能快照 sink 工厂，自动选择 Redis 或内存
 * @Author: 安知鱼
 * @Date: 2025-10-06 11:14:42
 * @LastEditTime: 2025-10-09 09:31:53
 * @LastEditors: 安知鱼
 */
package export

import (
	"context"
	"log"

	"github.com/redis/go-redis/v9"
)

// NewSinkWithFallback 创建带有自动降级功能的快照 sink
// 如果 redisClient 为 nil 或 ping 失败，自动降级到内存 sink
func NewSinkWithFallback(ctx context.Context, redisClient *redis.Client, prefix string) SnapshotSink {
	if redisClient == nil {
		log.Println("🔄 使用内存快照 sink（Memory Sink）")
		return NewMemorySink()
	}

	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("⚠️  Redis 不可用: %v，降级到内存快照 sink", err)
		return NewMemorySink()
	}

	log.Println("✅ 使用 Redis 快照 sink")
	return NewRedisSink(redisClient, prefix)
}
