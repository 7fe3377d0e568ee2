/*
 * @Description:
 * @Author: 安知鱼
 * @Date: 2025-10-03 18:03:39
 * @LastEditTime: 2025-10-06 16:43:34
 * @LastEditors: 安知鱼
 */
package database

import (
	"context"
	"log"

	"github.com/redis/go-redis/v9"

	"github.com/anzhiyu-c/anheyu-stats/pkg/config"
)

// NewRedisClient 接收配置并返回 Redis 客户端或 nil（用于自动降级）
// 如果 Redis 未配置或连接失败，返回 nil 而不是 error，让上层决定是否降级到内存 sink
func NewRedisClient(ctx context.Context, cfg *config.Config) *redis.Client {
	redisAddr := cfg.GetString(config.KeyRedisAddr)
	if redisAddr == "" {
		log.Println("⚠️  Redis 地址未配置，快照将只保存在内存中")
		return nil
	}
	redisDB := cfg.GetInt(config.KeyRedisDB)

	rdb := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: cfg.GetString(config.KeyRedisPassword),
		DB:       redisDB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("⚠️  连接 Redis (%s, DB %d) 失败: %v，快照将只保存在内存中", redisAddr, redisDB, err)
		_ = rdb.Close()
		return nil
	}

	log.Printf("✅ 成功连接到 Redis (%s, DB %d)", redisAddr, redisDB)
	return rdb
}
