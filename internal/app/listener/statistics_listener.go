/*
 * @Description: 监听所有交互事件，交给 EventProcessor 更新统计
 * @Author: 安知鱼
 * @Date: 2025-10-04 14:37:03
 * @LastEditTime: 2025-10-12 12:02:05
 * @LastEditors: 安知鱼
 */
package listener

import (
	"context"
	"errors"
	"log/slog"

	"github.com/anzhiyu-c/anheyu-stats/internal/pkg/event"
	"github.com/anzhiyu-c/anheyu-stats/internal/pkg/utils"
	"github.com/anzhiyu-c/anheyu-stats/pkg/domain/model"
	"github.com/anzhiyu-c/anheyu-stats/pkg/service/statistics"
)

// 处理失败日志的速率：每秒最多 5 条，突发 20 条
const (
	malformedLogsPerSecond = 5
	malformedLogBurst      = 20
)

// StatisticsListener 订阅总线上的所有交互事件，并交给 EventProcessor 处理。
// 类型未知的事件同样会被投递，由处理器拒绝并计入失败数。
type StatisticsListener struct {
	processor statistics.EventProcessor
	throttled *utils.ThrottledLogger
}

// NewStatisticsListener 是 StatisticsListener 的构造函数，创建时即完成订阅
func NewStatisticsListener(
	eventBus *event.EventBus,
	processor statistics.EventProcessor,
	logger *slog.Logger,
) *StatisticsListener {
	logger = logger.With("system", "statistics_listener")
	l := &StatisticsListener{
		processor: processor,
		throttled: utils.NewThrottledLogger(logger, malformedLogsPerSecond, malformedLogBurst),
	}
	eventBus.Subscribe(event.TopicAll, l.handleEvent)
	return l
}

func (l *StatisticsListener) handleEvent(ctx context.Context, evt *model.InteractionEvent) {
	err := l.processor.Apply(ctx, evt)
	if err == nil {
		return
	}

	if errors.Is(err, statistics.ErrMalformedEvent) {
		l.throttled.Warn("Rejected malformed event",
			slog.String("event_id", evt.EventID),
			slog.String("event_type", string(evt.EventType)),
			slog.Any("error", err),
		)
		return
	}
	l.throttled.Error("Failed to apply event",
		slog.String("event_id", evt.EventID),
		slog.Any("error", err),
	)
}
