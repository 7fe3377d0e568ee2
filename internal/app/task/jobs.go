/*
 * @Description:
 * @Author: 安知鱼
 * @Date: 2025-10-19 10:14:40
 * @LastEditTime: 2025-10-19 18:37:25
 * @LastEditors: 安知鱼
 */
package task

import "context"

// Job 与 cron.Job 接口兼容，并带有可读的名称
type Job interface {
	Run()
	Name() string
}

// ContextJob 由日志装饰器调用，ctx 中带有本次执行专属的 logger
type ContextJob interface {
	Job
	RunContext(ctx context.Context)
}

// JobState 任务运行状态：Idle -> Running -> Idle
type JobState int32

const (
	JobStateIdle JobState = iota
	JobStateRunning
)

func (s JobState) String() string {
	switch s {
	case JobStateRunning:
		return "running"
	default:
		return "idle"
	}
}
