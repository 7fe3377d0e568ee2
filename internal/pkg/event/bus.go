/*
 * @Description: 一个带固定Worker池的异步交互事件总线
 * @Author: 安知鱼
 * @Date: 2025-10-06 20:49:15
 * @LastEditTime: 2025-10-07 18:19:33
 * @LastEditors: 安知鱼
 */

// Package event 提供一个带固定 Worker 池的异步交互事件总线
package event

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/anzhiyu-c/anheyu-stats/pkg/domain/model"
)

// Topic 即交互事件类型；TopicAll 订阅所有事件（包括类型未知的事件）
type Topic = model.EventType

const TopicAll Topic = "*"

var (
	// ErrBusClosed 总线已关闭，不再接受新事件
	ErrBusClosed = errors.New("event bus is closed")
	// ErrQueueFull 非阻塞发布时队列已满，事件被丢弃
	ErrQueueFull = errors.New("event bus queue is full")
)

var errNilEvent = errors.New("event bus: nil event")

// Handler 事件处理器，在 worker 的 goroutine 内执行
type Handler func(ctx context.Context, evt *model.InteractionEvent)

// 定义Worker池和通道的默认配置
const (
	DefaultWorkerCount = 4    // 默认启动4个后台Worker
	DefaultChannelSize = 1024 // 默认事件通道缓冲区大小
)

// Options 总线配置，零值取默认值
type Options struct {
	Workers   int
	QueueSize int
	Logger    *slog.Logger
}

// EventBus 实现了基于Worker池的异步事件总线
type EventBus struct {
	handlersMu sync.RWMutex
	handlers   map[Topic][]Handler

	// sendMu 保护 closed 与通道的关闭；发送方持读锁，Shutdown 持写锁
	sendMu sync.RWMutex
	closed bool

	eventChan chan *model.InteractionEvent
	wg        sync.WaitGroup
	logger    *slog.Logger
	dropped   atomic.Int64
}

// NewEventBus 创建并启动一个新的事件总线
func NewEventBus(opts Options) *EventBus {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkerCount
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultChannelSize
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}

	bus := &EventBus{
		handlers:  make(map[Topic][]Handler),
		eventChan: make(chan *model.InteractionEvent, opts.QueueSize),
		logger:    opts.Logger.With("system", "event_bus"),
	}
	bus.startWorkers(opts.Workers)
	return bus
}

// startWorkers 启动固定数量的后台worker
func (b *EventBus) startWorkers(count int) {
	for i := 0; i < count; i++ {
		b.wg.Add(1)
		go b.worker(i + 1)
	}
}

// worker 不断从通道中读取并处理事件，直到通道关闭且已排空
func (b *EventBus) worker(workerID int) {
	defer b.wg.Done()
	b.logger.Debug("Worker started", slog.Int("worker_id", workerID))

	for evt := range b.eventChan {
		b.dispatch(workerID, evt)
	}
	b.logger.Debug("Worker stopped", slog.Int("worker_id", workerID))
}

// dispatch 执行订阅了该事件的所有处理器；单个事件的 panic 不会终止 worker
func (b *EventBus) dispatch(workerID int, evt *model.InteractionEvent) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Event handler panicked",
				slog.Int("worker_id", workerID),
				slog.String("event_id", evt.EventID),
				slog.Any("panic", r),
				slog.String("stack_trace", string(debug.Stack())),
			)
		}
	}()

	topic := model.NormalizeEventType(string(evt.EventType))

	b.handlersMu.RLock()
	handlers := make([]Handler, 0, len(b.handlers[topic])+len(b.handlers[TopicAll]))
	handlers = append(handlers, b.handlers[topic]...)
	handlers = append(handlers, b.handlers[TopicAll]...)
	b.handlersMu.RUnlock()

	ctx := context.Background()
	for _, handler := range handlers {
		handler(ctx, evt)
	}
}

// Subscribe 订阅一个事件类型
func (b *EventBus) Subscribe(topic Topic, handler Handler) {
	b.handlersMu.Lock()
	defer b.handlersMu.Unlock()
	b.handlers[topic] = append(b.handlers[topic], handler)
}

// Publish 将事件放入队列；队列满时阻塞，直到有空位或 ctx 结束
func (b *EventBus) Publish(ctx context.Context, evt *model.InteractionEvent) error {
	if evt == nil {
		return errNilEvent
	}
	b.sendMu.RLock()
	defer b.sendMu.RUnlock()
	if b.closed {
		return ErrBusClosed
	}

	select {
	case b.eventChan <- evt:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryPublish 非阻塞发布，队列已满时丢弃事件并返回 ErrQueueFull
func (b *EventBus) TryPublish(evt *model.InteractionEvent) error {
	if evt == nil {
		return errNilEvent
	}
	b.sendMu.RLock()
	defer b.sendMu.RUnlock()
	if b.closed {
		return ErrBusClosed
	}

	select {
	case b.eventChan <- evt:
		return nil
	default:
		// 通道已满，说明后台处理不过来了
		b.dropped.Add(1)
		b.logger.Warn("Event channel is full, dropping event",
			slog.String("event_id", evt.EventID),
			slog.String("event_type", string(evt.EventType)),
		)
		return ErrQueueFull
	}
}

// DroppingPublisher 以 TryPublish 发布：队列满时丢弃并计数，不阻塞上游传输
type DroppingPublisher struct {
	bus *EventBus
}

// NewDroppingPublisher 包装总线，供不能承受背压的来源（如 Redis Pub/Sub）使用
func NewDroppingPublisher(bus *EventBus) *DroppingPublisher {
	return &DroppingPublisher{bus: bus}
}

// Publish 队列已满不算错误；总线关闭时返回 ErrBusClosed
func (p *DroppingPublisher) Publish(_ context.Context, evt *model.InteractionEvent) error {
	if err := p.bus.TryPublish(evt); err != nil && !errors.Is(err, ErrQueueFull) {
		return err
	}
	return nil
}

// Dropped 因队列已满被丢弃的事件数
func (b *EventBus) Dropped() int64 {
	return b.dropped.Load()
}

// Shutdown 停止接收新事件，并等待队列中以及正在处理的事件全部完成。可重复调用。
func (b *EventBus) Shutdown() {
	b.sendMu.Lock()
	if b.closed {
		b.sendMu.Unlock()
		b.wg.Wait()
		return
	}
	b.closed = true
	close(b.eventChan)
	b.sendMu.Unlock()

	b.logger.Info("Shutting down, draining queued events", slog.Int("pending", len(b.eventChan)))
	b.wg.Wait()
	b.logger.Info("All workers have stopped")
}
