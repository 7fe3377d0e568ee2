package server

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/anzhiyu-c/anheyu-stats/pkg/config"
	"github.com/anzhiyu-c/anheyu-stats/pkg/domain/model"
	"github.com/anzhiyu-c/anheyu-stats/pkg/service/export"
)

func writeConfig(t *testing.T, content string) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "conf.ini")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.NewConfigWithPath(path)
	if err != nil {
		t.Fatalf("NewConfigWithPath failed: %v", err)
	}
	return cfg
}

func TestApp_StdinToSnapshot(t *testing.T) {
	cfg := writeConfig(t, "[Scheduler]\nInterval = 3600\nTopN = 2\n[Ingest]\nSource = stdin\nWorkers = 2\n")

	input := strings.Join([]string{
		`{"event_type":"view","entity_id":1,"actor_id":10,"timestamp":"2025-03-01T08:00:00Z","category":"A"}`,
		`{"event_type":"view","entity_id":1,"actor_id":11,"timestamp":"2025-03-01T08:01:00Z"}`,
		`not json`,
		`{"event_type":"purchase","entity_id":1,"actor_id":10,"timestamp":"2025-03-01T08:02:00Z","amount_paid":"10.50"}`,
		`{"event_type":"rating_created","entity_id":2,"actor_id":11,"timestamp":"2025-03-01T08:03:00Z","rating_value":9}`,
	}, "\n")

	app, cleanup, err := NewAppWithConfig(cfg, Options{Input: strings.NewReader(input), LogOutput: io.Discard})
	if err != nil {
		t.Fatalf("NewAppWithConfig failed: %v", err)
	}
	defer cleanup()

	if export.GetSinkType(app.Sink()) != export.SinkTypeMemory {
		t.Fatalf("sink = %s, want memory without redis", export.GetSinkType(app.Sink()))
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	query := app.QueryService()
	deadline := time.Now().Add(5 * time.Second)
	for {
		live := query.GetLiveness(ctx)
		if live.EventsProcessed+live.EventsFailed == 4 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("events not processed in time: %+v", live)
		}
		time.Sleep(10 * time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run returned %v", err)
	}
	app.Stop()

	snap, ok := query.GetEntityStatistics(context.Background(), 1)
	if !ok {
		t.Fatal("entity 1 not tracked")
	}
	if snap.ViewCount != 2 || len(snap.UniqueViewers) != 2 || snap.TotalRevenue.StringFixed(2) != "10.50" {
		t.Errorf("entity 1 = %+v", snap)
	}
	if _, ok := query.GetEntityStatistics(context.Background(), 2); ok {
		t.Error("rejected rating must not create entity 2")
	}

	// Stop 会在排空事件后导出最后一代快照
	sink := app.Sink().(*export.MemorySink)
	env, ok := sink.Latest(model.SnapshotKindSystemOverview)
	if !ok {
		t.Fatal("final overview snapshot missing")
	}
	overview := env.Payload.(*model.SystemOverview)
	if overview.TotalViews != 2 || overview.TopCategory != "A" {
		t.Errorf("overview = views %d, top %q", overview.TotalViews, overview.TopCategory)
	}
	if live := query.GetLiveness(context.Background()); live.EventsFailed != 1 {
		t.Errorf("EventsFailed = %d, want 1", live.EventsFailed)
	}
	// 解码失败由来源计数，不进入处理器
	if src := app.Source(); src.Received() != 4 || src.Rejected() != 1 {
		t.Errorf("source received=%d rejected=%d, want 4/1", src.Received(), src.Rejected())
	}
}

func TestApp_DropWhenFullUsesNonBlockingPublisher(t *testing.T) {
	cfg := writeConfig(t, "[Ingest]\nSource = stdin\nWorkers = 1\nQueueSize = 1\nDropWhenFull = true\n")
	if !cfg.GetBool(config.KeyIngestDropWhenFull) {
		t.Fatal("DropWhenFull not loaded")
	}

	lines := make([]string, 0, 200)
	for i := 0; i < 200; i++ {
		lines = append(lines, `{"event_type":"view","entity_id":1,"timestamp":"2025-03-01T08:00:00Z"}`)
	}
	app, cleanup, err := NewAppWithConfig(cfg, Options{Input: strings.NewReader(strings.Join(lines, "\n")), LogOutput: io.Discard})
	if err != nil {
		t.Fatalf("NewAppWithConfig failed: %v", err)
	}
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	deadline := time.Now().Add(5 * time.Second)
	for app.Source().Received() < 200 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run returned %v", err)
	}
	app.Stop()

	// 每个事件要么被处理要么被丢弃，来源从不阻塞
	live := app.QueryService().GetLiveness(context.Background())
	if got := live.EventsProcessed + app.EventBus().Dropped(); got != 200 {
		t.Errorf("processed %d + dropped %d = %d, want 200", live.EventsProcessed, app.EventBus().Dropped(), got)
	}
}

func TestNewAppWithConfig_RejectsBadConfig(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"未知排序字段", "[Scheduler]\nSortKey = likes\n"},
		{"未知事件来源", "[Ingest]\nSource = kafka\n"},
		{"redis 来源但未配置 redis", "[Ingest]\nSource = redis\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := writeConfig(t, tt.content)
			if _, _, err := NewAppWithConfig(cfg, Options{LogOutput: io.Discard}); err == nil {
				t.Error("expected configuration error")
			}
		})
	}
}
