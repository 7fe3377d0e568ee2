/*
 * @Description:
 * @Author: 安知鱼
 * @Date: 2025-10-16 23:21:46
 * @LastEditTime: 2025-10-23 13:38:04
 * @LastEditors: 安知鱼
 */
package utils

import (
	"log/slog"
	"sync/atomic"

	"golang.org/x/time/rate"
)

// ThrottledLogger 对同一类日志限速输出。超出速率的日志被计数而不输出，
// 下一条放行的日志会附带 suppressed 字段，说明期间被丢弃了多少条。
type ThrottledLogger struct {
	logger     *slog.Logger
	limiter    *rate.Limiter
	suppressed atomic.Int64
}

// NewThrottledLogger 创建一个限速日志器。
// perSecond 是每秒允许的日志条数，burst 是突发上限。如果 perSecond <= 0，则不限速。
func NewThrottledLogger(logger *slog.Logger, perSecond float64, burst int) *ThrottledLogger {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	if burst <= 0 {
		burst = 1
	}
	return &ThrottledLogger{
		logger:  logger,
		limiter: rate.NewLimiter(limit, burst),
	}
}

// Warn 在速率允许时输出一条 Warn 日志，返回是否实际输出
func (l *ThrottledLogger) Warn(msg string, args ...any) bool {
	return l.log(slog.LevelWarn, msg, args...)
}

// Error 在速率允许时输出一条 Error 日志，返回是否实际输出
func (l *ThrottledLogger) Error(msg string, args ...any) bool {
	return l.log(slog.LevelError, msg, args...)
}

// Suppressed 当前尚未报告的被丢弃日志条数
func (l *ThrottledLogger) Suppressed() int64 {
	return l.suppressed.Load()
}

func (l *ThrottledLogger) log(level slog.Level, msg string, args ...any) bool {
	if !l.limiter.Allow() {
		l.suppressed.Add(1)
		return false
	}
	if n := l.suppressed.Swap(0); n > 0 {
		args = append(args, slog.Int64("suppressed", n))
	}
	switch level {
	case slog.LevelError:
		l.logger.Error(msg, args...)
	default:
		l.logger.Warn(msg, args...)
	}
	return true
}
