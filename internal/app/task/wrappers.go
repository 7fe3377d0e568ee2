/*
 * @Description: 提供了用于 cron 任务的中间件（装饰器）。
 * @Author: 安知鱼
 * @Date: 2025-10-18 10:36:19
 * @LastEditTime: 2025-10-26 22:43:11
 * @LastEditors: 安知鱼
 */
package task

import (
	"context"
	"log/slog"
	"reflect"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// JobWrapper 是 cron.JobWrapper 的类型别名
type JobWrapper = cron.JobWrapper

type loggerKey struct{}

// WithLogger 把 logger 放入 ctx，供任务内部记录带 execution_id 的日志
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// LoggerFromContext 取出 ctx 中的 logger，没有时返回 fallback
func LoggerFromContext(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return logger
	}
	return fallback
}

// NewLoggingWrapper 记录每次执行的开始、结束与耗时，并为每次执行生成唯一的 execution_id。
// 实现了 ContextJob 的任务会通过 ctx 拿到同一个带 execution_id 的 logger。
func NewLoggingWrapper(logger *slog.Logger) JobWrapper {
	return func(j cron.Job) cron.Job {
		jobName := getJobName(j)
		return namedJob{name: jobName, run: func() {
			jobLogger := logger.With(
				slog.String("job_name", jobName),
				slog.String("execution_id", uuid.New().String()),
			)

			startTime := time.Now()
			jobLogger.Info("Job execution started")

			if cj, ok := j.(ContextJob); ok {
				cj.RunContext(WithLogger(context.Background(), jobLogger))
			} else {
				j.Run()
			}

			jobLogger.Info("Job execution finished", slog.Duration("duration", time.Since(startTime)))
		}}
	}
}

// NewPanicRecoveryWrapper 捕获任务中的 panic 并记录堆栈，不让单次执行拖垮调度器
func NewPanicRecoveryWrapper(logger *slog.Logger) JobWrapper {
	return func(j cron.Job) cron.Job {
		jobName := getJobName(j)
		return namedJob{name: jobName, run: func() {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("Job panicked",
						slog.String("job_name", jobName),
						slog.Any("panic", r),
						slog.String("stack_trace", string(debug.Stack())),
					)
				}
			}()

			j.Run()
		}}
	}
}

// namedJob 包装后的任务保留原任务名，外层包装器仍能取到 job_name
type namedJob struct {
	name string
	run  func()
}

func (j namedJob) Run()         { j.run() }
func (j namedJob) Name() string { return j.name }

// keepName 让 cron 自带的包装器（返回 cron.FuncJob）也保留原任务名
func keepName(wrapper cron.JobWrapper) JobWrapper {
	return func(j cron.Job) cron.Job {
		return namedJob{name: getJobName(j), run: wrapper(j).Run}
	}
}

// getJobName 优先使用任务自定义的 Name()，否则通过反射取结构体名称
func getJobName(j cron.Job) string {
	if named, ok := j.(interface{ Name() string }); ok {
		return named.Name()
	}

	jobType := reflect.TypeOf(j)
	if jobType.Kind() == reflect.Ptr {
		return jobType.Elem().String()
	}
	return jobType.String()
}

// cronLogger 让 cron 内部日志（例如跳过仍在运行的任务）也走 slog
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append(keysAndValues, slog.Any("error", err))...)
}
