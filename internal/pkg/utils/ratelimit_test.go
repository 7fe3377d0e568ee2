package utils

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestThrottledLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	// 极低速率：只有突发额度内的日志会输出
	tl := NewThrottledLogger(logger, 0.0001, 2)

	emitted := 0
	for i := 0; i < 10; i++ {
		if tl.Warn("malformed event", slog.Int("i", i)) {
			emitted++
		}
	}

	if emitted != 2 {
		t.Errorf("emitted = %d, want 2", emitted)
	}
	if got := tl.Suppressed(); got != 8 {
		t.Errorf("Suppressed() = %d, want 8", got)
	}
	if lines := strings.Count(buf.String(), "\n"); lines != 2 {
		t.Errorf("log lines = %d, want 2", lines)
	}
}

func TestThrottledLogger_Unlimited(t *testing.T) {
	var buf bytes.Buffer
	tl := NewThrottledLogger(slog.New(slog.NewTextHandler(&buf, nil)), 0, 0)

	for i := 0; i < 100; i++ {
		if !tl.Error("boom") {
			t.Fatalf("log %d was throttled", i)
		}
	}
	if tl.Suppressed() != 0 {
		t.Errorf("Suppressed() = %d, want 0", tl.Suppressed())
	}
}
