/*
 * @Description:
 * @Author: 安知鱼
 * @Date: 2025-10-02 12:02:35
 * @LastEditTime: 2025-10-04 13:26:09
 * @LastEditors: 安知鱼
 */
package task

import (
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler 封装了 cron 实例，按固定间隔触发已注册的任务。
// 上一次执行尚未结束时，本次触发会被直接跳过，不会排队。
type Scheduler struct {
	cron     *cron.Cron
	logger   *slog.Logger
	interval time.Duration
}

// NewScheduler 创建调度器，interval 小于 1 秒时按 1 秒处理
func NewScheduler(interval time.Duration, logger *slog.Logger) *Scheduler {
	logger = logger.With("system", "cron")
	if interval < time.Second {
		interval = time.Second
	}

	c := cron.New(
		cron.WithLogger(cronLogger{logger: logger}),
		cron.WithChain(newJobChain(logger)...),
	)

	return &Scheduler{
		cron:     c,
		logger:   logger,
		interval: interval,
	}
}

// newJobChain 链的顺序：panic 恢复在最外层，跳过判断在日志之前，被跳过的触发不会产生执行日志。
// 日志包装在 Register 中最先套上。
func newJobChain(logger *slog.Logger) []cron.JobWrapper {
	return []cron.JobWrapper{
		NewPanicRecoveryWrapper(logger),
		keepName(cron.SkipIfStillRunning(cronLogger{logger: logger})),
	}
}

// Register 以固定间隔注册一个任务
func (s *Scheduler) Register(job Job) cron.EntryID {
	id := s.cron.Schedule(cron.Every(s.interval), NewLoggingWrapper(s.logger)(job))
	s.logger.Info("-> Successfully registered job",
		slog.String("job_name", job.Name()),
		slog.Duration("every", s.interval),
	)
	return id
}

// Interval 调度间隔
func (s *Scheduler) Interval() time.Duration {
	return s.interval
}

// Start 启动 cron 调度器
func (s *Scheduler) Start() {
	s.logger.Info("Cron scheduler started.")
	s.cron.Start()
}

// Stop 停止调度器，并等待正在运行的任务结束
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping cron scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Cron scheduler gracefully stopped.")
}
