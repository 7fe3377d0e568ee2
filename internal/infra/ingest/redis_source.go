/*
 * @Description:
 * @Author: 安知鱼
 * @Date: 2025-10-04 18:36:40
 * @LastEditTime: 2025-10-07 14:06:35
 * @LastEditors: 安知鱼
 */
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/anzhiyu-c/anheyu-stats/internal/pkg/utils"
)

// RedisSource 订阅一个 Redis Pub/Sub 频道，每条消息是一条 JSON 事件
type RedisSource struct {
	Counters

	client    *redis.Client
	channel   string
	publisher Publisher
	logger    *slog.Logger
	throttled *utils.ThrottledLogger
	ready     chan struct{}
}

func NewRedisSource(client *redis.Client, channel string, publisher Publisher, logger *slog.Logger) *RedisSource {
	logger = logger.With("system", "ingest", "source", "redis", "channel", channel)
	return &RedisSource{
		client:    client,
		channel:   channel,
		publisher: publisher,
		logger:    logger,
		throttled: utils.NewThrottledLogger(logger, 5, 20),
		ready:     make(chan struct{}),
	}
}

func (s *RedisSource) Name() string { return "redis" }

// Ready 订阅确认后关闭
func (s *RedisSource) Ready() <-chan struct{} { return s.ready }

// Run 订阅频道直到 ctx 结束。Pub/Sub 不保证投递，断线期间的消息会丢失。
func (s *RedisSource) Run(ctx context.Context) error {
	sub := s.client.Subscribe(ctx, s.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("subscribe %s: %w", s.channel, err)
	}
	close(s.ready)
	s.logger.Info("Subscribed to event channel")

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			evt, err := DecodeEvent([]byte(msg.Payload))
			if err != nil {
				s.rejected.Add(1)
				s.throttled.Warn("Skipping undecodable event", slog.Any("error", err))
				continue
			}
			if err := s.publisher.Publish(ctx, evt); err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return fmt.Errorf("publish event: %w", err)
			}
			s.received.Add(1)
		}
	}
}
