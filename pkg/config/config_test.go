package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewConfigWithPath_CreatesDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "conf.ini")

	cfg, err := NewConfigWithPath(path)
	if err != nil {
		t.Fatalf("NewConfigWithPath failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("default config file not created: %v", err)
	}

	tests := []struct {
		key  string
		want any
	}{
		{KeySchedulerTopN, 10},
		{KeyIngestWorkers, 4},
		{KeyIngestQueueSize, 1024},
		{KeySchedulerSortKey, "views"},
		{KeyIngestSource, "stdin"},
		{KeyRedisAddr, ""},
		{KeySinkKeyPrefix, "anheyu:stats:"},
	}
	for _, tt := range tests {
		var got any
		switch tt.want.(type) {
		case int:
			got = cfg.GetInt(tt.key)
		default:
			got = cfg.GetString(tt.key)
		}
		if got != tt.want {
			t.Errorf("%s = %v, want %v", tt.key, got, tt.want)
		}
	}
	if got := cfg.SchedulerInterval(); got != time.Minute {
		t.Errorf("SchedulerInterval() = %v, want 1m", got)
	}
}

func TestNewConfigWithPath_FileAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf.ini")
	content := `[System]
Debug = true

[Scheduler]
Interval = 5
SortKey = revenue

[Redis]
Addr = 127.0.0.1:6379
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ANHEYU_STATS_SCHEDULER_TOPN", "25")
	t.Setenv("ANHEYU_STATS_REDIS_ADDR", "redis:6380")

	cfg, err := NewConfigWithPath(path)
	if err != nil {
		t.Fatalf("NewConfigWithPath failed: %v", err)
	}

	if !cfg.GetBool(KeySystemDebug) {
		t.Error("System.Debug should be true")
	}
	if got := cfg.SchedulerInterval(); got != 5*time.Second {
		t.Errorf("SchedulerInterval() = %v, want 5s", got)
	}
	if got := cfg.GetString(KeySchedulerSortKey); got != "revenue" {
		t.Errorf("SortKey = %q, want revenue", got)
	}
	if got := cfg.GetInt(KeySchedulerTopN); got != 25 {
		t.Errorf("TopN = %d, want 25 from env", got)
	}
	if got := cfg.GetString(KeyRedisAddr); got != "redis:6380" {
		t.Errorf("Redis.Addr = %q, want env override", got)
	}
	if got := cfg.GetInt(KeyIngestWorkers); got != 4 {
		t.Errorf("Ingest.Workers = %d, want default 4", got)
	}
}

func TestNewConfigWithPath_NonPositiveIntervalFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf.ini")
	if err := os.WriteFile(path, []byte("[Scheduler]\nInterval = 0\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := NewConfigWithPath(path)
	if err != nil {
		t.Fatalf("NewConfigWithPath failed: %v", err)
	}
	if got := cfg.SchedulerInterval(); got != time.Minute {
		t.Errorf("SchedulerInterval() = %v, want 1m", got)
	}
}
