// Package ingest 把外部传输上的原始事件解码后投递到事件总线
package ingest

import (
	"bytes"
	"context"
	"fmt"
	"sync/atomic"

	"github.com/bytedance/sonic"

	"github.com/anzhiyu-c/anheyu-stats/pkg/domain/model"
	"github.com/anzhiyu-c/anheyu-stats/pkg/service/statistics"
)

// Publisher 事件的下一跳，*event.EventBus 满足该接口
type Publisher interface {
	Publish(ctx context.Context, evt *model.InteractionEvent) error
}

// Source 一个事件来源，Run 阻塞直到来源耗尽或 ctx 结束
type Source interface {
	Name() string
	Run(ctx context.Context) error
	// 成功投递的事件数
	Received() int64
	// 解码失败被丢弃的事件数，不计入处理器的失败数
	Rejected() int64
}

// DecodeEvent 解码一条 JSON 事件。格式错误的输入返回包装了 ErrMalformedEvent 的错误。
func DecodeEvent(data []byte) (*model.InteractionEvent, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty payload", statistics.ErrMalformedEvent)
	}
	var evt model.InteractionEvent
	if err := sonic.Unmarshal(data, &evt); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", statistics.ErrMalformedEvent, err)
	}
	return &evt, nil
}

// Counters 来源级别的计数
type Counters struct {
	received atomic.Int64
	rejected atomic.Int64
}

// Received 成功解码并投递的事件数
func (c *Counters) Received() int64 { return c.received.Load() }

// Rejected 解码失败被丢弃的事件数
func (c *Counters) Rejected() int64 { return c.rejected.Load() }
