package statistics

import "errors"

var (
	// ErrMalformedEvent 事件缺少必填字段或字段非法，事件被拒绝且不修改任何状态
	ErrMalformedEvent = errors.New("malformed event")

	// ErrInvalidSortKey 热门排行的排序字段不受支持
	ErrInvalidSortKey = errors.New("invalid sort key")
)
