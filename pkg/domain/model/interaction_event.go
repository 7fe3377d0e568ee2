/*
 * @Description: 交互事件数据模型
 * @Author: 安知鱼
 * @Date: 2025-10-02 20:44:19
 * @LastEditTime: 2025-10-09 13:45:24
 * @LastEditors: 安知鱼
 */
package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// EventType 交互事件类型
type EventType string

const (
	EventTypeView          EventType = "view"
	EventTypeDownload      EventType = "download"
	EventTypePurchase      EventType = "purchase"
	EventTypeReviewCreated EventType = "review_created"
	EventTypeReviewUpdated EventType = "review_updated"
	EventTypeRatingCreated EventType = "rating_created"
	EventTypeRatingUpdated EventType = "rating_updated"
)

// AllEventTypes 列出了所有受支持的事件类型，顺序即订阅顺序
var AllEventTypes = []EventType{
	EventTypeView,
	EventTypeDownload,
	EventTypePurchase,
	EventTypeReviewCreated,
	EventTypeReviewUpdated,
	EventTypeRatingCreated,
	EventTypeRatingUpdated,
}

// NormalizeEventType 去除首尾空白并转为小写，"Rating-Created" 与 "rating_created" 视为同一类型
func NormalizeEventType(raw string) EventType {
	s := strings.ToLower(strings.TrimSpace(raw))
	return EventType(strings.ReplaceAll(s, "-", "_"))
}

// IsValid 判断是否为已知事件类型
func (t EventType) IsValid() bool {
	for _, known := range AllEventTypes {
		if t == known {
			return true
		}
	}
	return false
}

// InteractionEvent 是传输层投递给统计引擎的一条交互事件。
// 指针字段用于区分"未提供"与零值，校验在任何写入之前完成。
type InteractionEvent struct {
	EventID   string    `json:"event_id"`
	EventType EventType `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
	EntityID  *int64    `json:"entity_id"`
	ActorID   *int64    `json:"actor_id,omitempty"`

	// 条目元数据，非空时以最后一次写入为准
	Title    string `json:"title,omitempty"`
	Category string `json:"category,omitempty"`

	// purchase
	AmountPaid *decimal.Decimal `json:"amount_paid,omitempty"`

	// rating_created / rating_updated
	RatingValue    *int64 `json:"rating_value,omitempty"`
	OldRatingValue *int64 `json:"old_rating_value,omitempty"`
	NewRatingValue *int64 `json:"new_rating_value,omitempty"`

	// review_created / review_updated
	ReviewLength    *int64 `json:"review_length,omitempty"`
	OldReviewLength *int64 `json:"old_review_length,omitempty"`
	NewReviewLength *int64 `json:"new_review_length,omitempty"`
}

// HasActor 判断事件是否携带用户
func (e *InteractionEvent) HasActor() bool {
	return e.ActorID != nil
}
