/*
 * @Description:
 * @Author: 安知鱼
 * @Date: 2025-10-13 23:55:31
 * @LastEditTime: 2025-10-14 11:28:25
 * @LastEditors: 安知鱼
 */
package export

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/anzhiyu-c/anheyu-stats/pkg/domain/model"
	"github.com/anzhiyu-c/anheyu-stats/pkg/domain/repository"
	"github.com/anzhiyu-c/anheyu-stats/pkg/service/statistics"
)

// Options 导出参数
type Options struct {
	TopN    int
	SortKey model.SortKey
}

// Result 一次导出的结果摘要
type Result struct {
	GenerationID string
	GeneratedAt  time.Time
	Entities     int
	Published    []model.SnapshotKind
	Failed       []model.SnapshotKind
}

// Exporter 读取 store 生成各类快照并交给 sink
type Exporter interface {
	Export(ctx context.Context) (*Result, error)
}

type exporter struct {
	store repository.StatisticsStore
	sink  SnapshotSink
	opts  Options
	now   func() time.Time
	newID func() string
}

// NewExporter 创建快照导出器；TopN 非正数时取默认值，SortKey 为空时按浏览量排序
func NewExporter(store repository.StatisticsStore, sink SnapshotSink, opts Options) Exporter {
	if opts.TopN <= 0 {
		opts.TopN = statistics.DefaultPopularLimit
	}
	if opts.SortKey == "" {
		opts.SortKey = model.DefaultSortKey
	}
	return &exporter{
		store: store,
		sink:  sink,
		opts:  opts,
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
}

// Export 只遍历一次 store，三类快照都基于同一份条目列表构建。
// 某一类发布失败不影响其余种类，所有失败合并后返回，由调用方记录日志。
func (e *exporter) Export(ctx context.Context) (*Result, error) {
	generatedAt := e.now()
	entities := e.store.AllEntities()

	snapshots := make([]*model.EntityStatisticsSnapshot, len(entities))
	for i, entity := range entities {
		snapshots[i] = model.NewEntityStatisticsSnapshot(entity)
	}

	overview := statistics.BuildOverview(entities, e.store.ActorCount(), generatedAt)

	popular := &model.PopularEntities{
		SortKey: e.opts.SortKey,
		Limit:   e.opts.TopN,
		Items:   statistics.RankEntities(entities, e.opts.SortKey, e.opts.TopN),
	}

	result := &Result{
		GenerationID: e.newID(),
		GeneratedAt:  generatedAt,
		Entities:     len(entities),
	}

	batches := []struct {
		kind    model.SnapshotKind
		payload any
	}{
		{model.SnapshotKindEntityStatistics, snapshots},
		{model.SnapshotKindSystemOverview, overview},
		{model.SnapshotKindPopularEntities, popular},
	}

	var errs []error
	for _, b := range batches {
		env := &model.SnapshotEnvelope{
			Kind:         b.kind,
			GenerationID: result.GenerationID,
			GeneratedAt:  generatedAt,
			Payload:      b.payload,
		}
		if err := e.sink.Publish(ctx, b.kind, env); err != nil {
			result.Failed = append(result.Failed, b.kind)
			errs = append(errs, fmt.Errorf("publish %s: %w", b.kind, err))
			continue
		}
		result.Published = append(result.Published, b.kind)
	}

	return result, errors.Join(errs...)
}
