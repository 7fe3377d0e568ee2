/*
 * @Description: 统计快照定时导出任务
 * @Author: 安知鱼
 * @Date: 2025-10-14 15:04:15
 * @LastEditTime: 2025-10-15 17:27:03
 * @LastEditors: 安知鱼
 */
package task

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/anzhiyu-c/anheyu-stats/pkg/service/export"
)

// DefaultExportTimeout 单次导出的超时时间
const DefaultExportTimeout = 30 * time.Second

// SnapshotExportJob 每次触发时生成一代快照并交给 sink。
// 失败只记录日志，不在本次触发内重试，也不影响后续调度。
type SnapshotExportJob struct {
	exporter export.Exporter
	timeout  time.Duration
	logger   *slog.Logger

	state atomic.Int32
	last  atomic.Pointer[export.Result]
}

// NewSnapshotExportJob 创建快照导出任务，timeout 非正数时取默认值
func NewSnapshotExportJob(exporter export.Exporter, timeout time.Duration, logger *slog.Logger) *SnapshotExportJob {
	if timeout <= 0 {
		timeout = DefaultExportTimeout
	}
	return &SnapshotExportJob{
		exporter: exporter,
		timeout:  timeout,
		logger:   logger,
	}
}

// Name 返回任务名称
func (j *SnapshotExportJob) Name() string {
	return "SnapshotExportJob"
}

// Run 满足 cron.Job 接口
func (j *SnapshotExportJob) Run() {
	j.RunContext(context.Background())
}

// RunContext 执行一次导出。已有导出在运行时直接返回。
func (j *SnapshotExportJob) RunContext(ctx context.Context) {
	logger := LoggerFromContext(ctx, j.logger)

	if !j.state.CompareAndSwap(int32(JobStateIdle), int32(JobStateRunning)) {
		logger.Warn("上一次快照导出仍在进行，跳过本次触发")
		return
	}
	defer j.state.Store(int32(JobStateIdle))

	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	result, err := j.exporter.Export(ctx)
	if result != nil {
		j.last.Store(result)
	}
	if err != nil {
		attrs := []any{slog.Any("error", err)}
		if result != nil {
			attrs = append(attrs,
				slog.String("generation_id", result.GenerationID),
				slog.Any("failed_kinds", result.Failed),
			)
		}
		logger.Error("快照导出部分失败", attrs...)
		return
	}

	logger.Info("快照导出完成",
		slog.String("generation_id", result.GenerationID),
		slog.Int("entities", result.Entities),
		slog.Int("kinds", len(result.Published)),
	)
}

// State 当前运行状态
func (j *SnapshotExportJob) State() JobState {
	return JobState(j.state.Load())
}

// LastResult 最近一次导出的结果，尚未执行过时返回 nil
func (j *SnapshotExportJob) LastResult() *export.Result {
	return j.last.Load()
}
