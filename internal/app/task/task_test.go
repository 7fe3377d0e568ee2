package task

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/anzhiyu-c/anheyu-stats/pkg/domain/model"
	"github.com/anzhiyu-c/anheyu-stats/pkg/service/export"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeExporter 可控的导出器：block 非空时阻塞到 block 关闭
type fakeExporter struct {
	calls atomic.Int64
	block chan struct{}
	err   error
}

func (f *fakeExporter) Export(ctx context.Context) (*export.Result, error) {
	f.calls.Add(1)
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	result := &export.Result{GenerationID: "gen", Published: []model.SnapshotKind{model.SnapshotKindSystemOverview}}
	if f.err != nil {
		result.Failed = []model.SnapshotKind{model.SnapshotKindEntityStatistics}
	}
	return result, f.err
}

type countingJob struct{ runs atomic.Int64 }

func (j *countingJob) Run()         { j.runs.Add(1) }
func (j *countingJob) Name() string { return "CountingJob" }

type panickingJob struct{}

func (panickingJob) Run()         { panic("boom") }
func (panickingJob) Name() string { return "PanickingJob" }

type anonymousJob struct{}

func (anonymousJob) Run() {}

func TestGetJobName(t *testing.T) {
	if got := getJobName(&countingJob{}); got != "CountingJob" {
		t.Errorf("getJobName(named) = %q", got)
	}
	if got := getJobName(&anonymousJob{}); got != "task.anonymousJob" {
		t.Errorf("getJobName(pointer) = %q", got)
	}
	if got := getJobName(anonymousJob{}); got != "task.anonymousJob" {
		t.Errorf("getJobName(value) = %q", got)
	}
}

func TestPanicRecoveryWrapper(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	job := NewPanicRecoveryWrapper(logger)(cron.FuncJob(func() { panic("boom") }))
	job.Run()

	if !strings.Contains(buf.String(), "Job panicked") {
		t.Errorf("panic not logged: %s", buf.String())
	}
}

func TestPanicRecoveryWrapper_KeepsNameThroughChain(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	// 与 Scheduler 相同的包装顺序：恢复、跳过，最内层是日志
	job := cron.NewChain(newJobChain(logger)...).Then(NewLoggingWrapper(logger)(panickingJob{}))
	job.Run()

	out := buf.String()
	if !strings.Contains(out, "Job panicked") {
		t.Fatalf("panic not logged: %s", out)
	}
	if strings.Contains(out, "cron.FuncJob") || strings.Count(out, "job_name=PanickingJob") < 2 {
		t.Errorf("job name lost through the chain:\n%s", out)
	}
}

func TestLoggingWrapper_PassesExecutionLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	exporter := &fakeExporter{}
	job := NewSnapshotExportJob(exporter, time.Second, discardLogger())
	NewLoggingWrapper(logger)(job).Run()

	out := buf.String()
	if !strings.Contains(out, "job_name=SnapshotExportJob") {
		t.Errorf("job name missing: %s", out)
	}
	// 开始、完成以及任务自身的日志共享同一个 execution_id
	if got := strings.Count(out, "execution_id="); got != 3 {
		t.Errorf("execution_id appears %d times, want 3:\n%s", got, out)
	}
}

func TestSnapshotExportJob_Run(t *testing.T) {
	exporter := &fakeExporter{}
	job := NewSnapshotExportJob(exporter, time.Second, discardLogger())

	if job.LastResult() != nil {
		t.Error("LastResult should be nil before the first run")
	}
	job.Run()

	if exporter.calls.Load() != 1 {
		t.Errorf("Export calls = %d, want 1", exporter.calls.Load())
	}
	if job.State() != JobStateIdle {
		t.Errorf("State() = %s, want idle", job.State())
	}
	if res := job.LastResult(); res == nil || res.GenerationID != "gen" {
		t.Errorf("LastResult() = %+v", res)
	}
}

func TestSnapshotExportJob_FailureKeepsJobIdle(t *testing.T) {
	exporter := &fakeExporter{err: errors.New("sink down")}
	job := NewSnapshotExportJob(exporter, time.Second, discardLogger())

	job.Run()
	job.Run()

	if exporter.calls.Load() != 2 {
		t.Errorf("Export calls = %d, want 2", exporter.calls.Load())
	}
	if job.State() != JobStateIdle {
		t.Errorf("State() = %s, want idle", job.State())
	}
	if res := job.LastResult(); len(res.Failed) != 1 {
		t.Errorf("LastResult().Failed = %v", res.Failed)
	}
}

func TestSnapshotExportJob_SkipsOverlappingRun(t *testing.T) {
	exporter := &fakeExporter{block: make(chan struct{})}
	job := NewSnapshotExportJob(exporter, 5*time.Second, discardLogger())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		job.Run()
	}()

	deadline := time.Now().Add(2 * time.Second)
	for job.State() != JobStateRunning {
		if time.Now().After(deadline) {
			t.Fatal("job never entered running state")
		}
		time.Sleep(time.Millisecond)
	}

	job.Run()
	if exporter.calls.Load() != 1 {
		t.Errorf("overlapping Run called Export, calls = %d", exporter.calls.Load())
	}

	close(exporter.block)
	wg.Wait()
	if job.State() != JobStateIdle {
		t.Errorf("State() = %s, want idle", job.State())
	}
}

func TestSnapshotExportJob_Timeout(t *testing.T) {
	exporter := &fakeExporter{block: make(chan struct{})}
	job := NewSnapshotExportJob(exporter, 20*time.Millisecond, discardLogger())

	done := make(chan struct{})
	go func() {
		job.Run()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not honour the timeout")
	}
}

func TestScheduler_RunsAtInterval(t *testing.T) {
	s := NewScheduler(time.Second, discardLogger())
	job := &countingJob{}
	s.Register(job)
	s.Start()

	deadline := time.Now().Add(5 * time.Second)
	for job.runs.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	s.Stop()

	if got := job.runs.Load(); got < 2 {
		t.Errorf("job ran %d times in 5s, want at least 2", got)
	}
}

func TestNewScheduler_ClampsInterval(t *testing.T) {
	s := NewScheduler(10*time.Millisecond, discardLogger())
	if s.Interval() != time.Second {
		t.Errorf("Interval() = %v, want 1s", s.Interval())
	}
}
