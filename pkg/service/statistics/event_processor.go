/*
 * @Description: 交互事件处理器
 * @Author: 安知鱼
 * @Date: 2025-10-19 11:16:18
 * @LastEditTime: 2025-10-19 11:26:34
 * @LastEditors: 安知鱼
 */
package statistics

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/anzhiyu-c/anheyu-stats/pkg/domain/model"
	"github.com/anzhiyu-c/anheyu-stats/pkg/domain/repository"
)

// 评分取值范围
const (
	MinRatingValue = 1
	MaxRatingValue = 5
)

// EventProcessor 将交互事件应用到统计仓储。
// 每个事件要么完整生效，要么（校验失败时）完全不生效；单个事件失败不影响后续事件。
type EventProcessor interface {
	// 按事件类型分发
	Apply(ctx context.Context, evt *model.InteractionEvent) error

	RecordView(ctx context.Context, evt *model.InteractionEvent) error
	RecordDownload(ctx context.Context, evt *model.InteractionEvent) error
	RecordPurchase(ctx context.Context, evt *model.InteractionEvent) error
	RecordReviewCreated(ctx context.Context, evt *model.InteractionEvent) error
	RecordReviewUpdated(ctx context.Context, evt *model.InteractionEvent) error
	RecordRatingCreated(ctx context.Context, evt *model.InteractionEvent) error
	RecordRatingUpdated(ctx context.Context, evt *model.InteractionEvent) error

	// 计算全局概览，只读，可与写入并发执行，结果为尽力而为的视图
	ComputeOverview() *model.SystemOverview

	// 成功处理的事件数
	EventsProcessed() int64
	// 被拒绝的事件数
	EventsFailed() int64
}

type eventProcessor struct {
	store repository.StatisticsStore
	now   func() time.Time

	processed atomic.Int64
	failed    atomic.Int64
}

// NewEventProcessor 创建事件处理器，store 需由调用方显式注入
func NewEventProcessor(store repository.StatisticsStore) EventProcessor {
	return newEventProcessor(store, time.Now)
}

func newEventProcessor(store repository.StatisticsStore, now func() time.Time) *eventProcessor {
	if store == nil {
		panic("statistics: store cannot be nil")
	}
	return &eventProcessor{store: store, now: now}
}

func (p *eventProcessor) Apply(ctx context.Context, evt *model.InteractionEvent) error {
	if evt == nil {
		return p.reject(fmt.Errorf("%w: nil event", ErrMalformedEvent))
	}

	switch model.NormalizeEventType(string(evt.EventType)) {
	case model.EventTypeView:
		return p.RecordView(ctx, evt)
	case model.EventTypeDownload:
		return p.RecordDownload(ctx, evt)
	case model.EventTypePurchase:
		return p.RecordPurchase(ctx, evt)
	case model.EventTypeReviewCreated:
		return p.RecordReviewCreated(ctx, evt)
	case model.EventTypeReviewUpdated:
		return p.RecordReviewUpdated(ctx, evt)
	case model.EventTypeRatingCreated:
		return p.RecordRatingCreated(ctx, evt)
	case model.EventTypeRatingUpdated:
		return p.RecordRatingUpdated(ctx, evt)
	default:
		return p.reject(fmt.Errorf("%w: unknown event_type %q", ErrMalformedEvent, evt.EventType))
	}
}

func (p *eventProcessor) RecordView(_ context.Context, evt *model.InteractionEvent) error {
	if err := validateCommon(evt); err != nil {
		return p.reject(err)
	}

	entity := p.entityFor(evt)
	entity.RecordView(evt.ActorID, evt.Timestamp)
	if actor := p.actorFor(evt); actor != nil {
		actor.RecordView(entity.EntityID())
	}
	return p.accept()
}

func (p *eventProcessor) RecordDownload(_ context.Context, evt *model.InteractionEvent) error {
	if err := validateCommon(evt); err != nil {
		return p.reject(err)
	}

	entity := p.entityFor(evt)
	entity.RecordDownload(evt.ActorID)
	if actor := p.actorFor(evt); actor != nil {
		actor.RecordDownload(entity.EntityID())
	}
	return p.accept()
}

func (p *eventProcessor) RecordPurchase(_ context.Context, evt *model.InteractionEvent) error {
	if err := validateCommon(evt); err != nil {
		return p.reject(err)
	}
	if evt.AmountPaid == nil {
		return p.reject(fmt.Errorf("%w: purchase without amount_paid", ErrMalformedEvent))
	}
	if evt.AmountPaid.IsNegative() {
		return p.reject(fmt.Errorf("%w: negative amount_paid %s", ErrMalformedEvent, evt.AmountPaid.String()))
	}
	cents, err := model.AmountToCents(*evt.AmountPaid)
	if err != nil {
		return p.reject(fmt.Errorf("%w: amount_paid %s: %v", ErrMalformedEvent, evt.AmountPaid.String(), err))
	}

	entity := p.entityFor(evt)
	entity.RecordPurchase(evt.ActorID, cents, evt.Timestamp)
	if actor := p.actorFor(evt); actor != nil {
		actor.RecordPurchase(entity.EntityID(), cents)
	}
	return p.accept()
}

func (p *eventProcessor) RecordReviewCreated(_ context.Context, evt *model.InteractionEvent) error {
	if err := validateCommon(evt); err != nil {
		return p.reject(err)
	}
	if evt.ReviewLength != nil && *evt.ReviewLength < 0 {
		return p.reject(fmt.Errorf("%w: negative review_length", ErrMalformedEvent))
	}

	p.entityFor(evt).RecordReview(evt.ReviewLength)
	if actor := p.actorFor(evt); actor != nil {
		actor.RecordReview()
	}
	return p.accept()
}

// RecordReviewUpdated 评论数反映的是不同评论的数量而不是编辑次数，这里只修正长度
func (p *eventProcessor) RecordReviewUpdated(_ context.Context, evt *model.InteractionEvent) error {
	if err := validateCommon(evt); err != nil {
		return p.reject(err)
	}
	var delta int64
	if evt.OldReviewLength != nil || evt.NewReviewLength != nil {
		if evt.OldReviewLength == nil || evt.NewReviewLength == nil {
			return p.reject(fmt.Errorf("%w: review update needs both old_review_length and new_review_length", ErrMalformedEvent))
		}
		if *evt.OldReviewLength < 0 || *evt.NewReviewLength < 0 {
			return p.reject(fmt.Errorf("%w: negative review length", ErrMalformedEvent))
		}
		delta = *evt.NewReviewLength - *evt.OldReviewLength
	}

	p.entityFor(evt).AdjustReviewLength(delta)
	p.actorFor(evt)
	return p.accept()
}

func (p *eventProcessor) RecordRatingCreated(_ context.Context, evt *model.InteractionEvent) error {
	if err := validateCommon(evt); err != nil {
		return p.reject(err)
	}
	if err := validateRating("rating_value", evt.RatingValue); err != nil {
		return p.reject(err)
	}

	p.entityFor(evt).RecordRating(*evt.RatingValue)
	if actor := p.actorFor(evt); actor != nil {
		actor.RecordRating()
	}
	return p.accept()
}

func (p *eventProcessor) RecordRatingUpdated(_ context.Context, evt *model.InteractionEvent) error {
	if err := validateCommon(evt); err != nil {
		return p.reject(err)
	}
	if err := validateRating("old_rating_value", evt.OldRatingValue); err != nil {
		return p.reject(err)
	}
	if err := validateRating("new_rating_value", evt.NewRatingValue); err != nil {
		return p.reject(err)
	}

	p.entityFor(evt).AdjustRating(*evt.OldRatingValue, *evt.NewRatingValue)
	p.actorFor(evt)
	return p.accept()
}

func (p *eventProcessor) EventsProcessed() int64 { return p.processed.Load() }

func (p *eventProcessor) EventsFailed() int64 { return p.failed.Load() }

// entityFor 取得事件对应的条目记录，首次出现时以事件元数据创建，之后非空元数据覆盖旧值
func (p *eventProcessor) entityFor(evt *model.InteractionEvent) *model.EntityStatistics {
	entity := p.store.GetOrCreateEntity(*evt.EntityID, evt.Title, evt.Category)
	entity.UpdateMetadata(evt.Title, evt.Category)
	return entity
}

// actorFor 匿名事件返回 nil，不会创建用户记录
func (p *eventProcessor) actorFor(evt *model.InteractionEvent) *model.ActorActivity {
	if !evt.HasActor() {
		return nil
	}
	actor := p.store.GetOrCreateActor(*evt.ActorID)
	actor.Touch(evt.Timestamp)
	return actor
}

func (p *eventProcessor) accept() error {
	p.processed.Add(1)
	return nil
}

func (p *eventProcessor) reject(err error) error {
	p.failed.Add(1)
	return err
}

func validateCommon(evt *model.InteractionEvent) error {
	if evt == nil {
		return fmt.Errorf("%w: nil event", ErrMalformedEvent)
	}
	if evt.EntityID == nil {
		return fmt.Errorf("%w: missing entity_id", ErrMalformedEvent)
	}
	if *evt.EntityID <= 0 {
		return fmt.Errorf("%w: invalid entity_id %d", ErrMalformedEvent, *evt.EntityID)
	}
	if evt.ActorID != nil && *evt.ActorID <= 0 {
		return fmt.Errorf("%w: invalid actor_id %d", ErrMalformedEvent, *evt.ActorID)
	}
	if evt.Timestamp.IsZero() {
		return fmt.Errorf("%w: missing timestamp", ErrMalformedEvent)
	}
	return nil
}

func validateRating(field string, v *int64) error {
	if v == nil {
		return fmt.Errorf("%w: missing %s", ErrMalformedEvent, field)
	}
	if *v < MinRatingValue || *v > MaxRatingValue {
		return fmt.Errorf("%w: %s %d out of range [%d,%d]", ErrMalformedEvent, field, *v, MinRatingValue, MaxRatingValue)
	}
	return nil
}
