package ingest

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/anzhiyu-c/anheyu-stats/internal/pkg/utils"
)

// maxLineSize 单行事件的最大字节数
const maxLineSize = 1 << 20

// LineSource 从 io.Reader 逐行读取 JSON 事件（NDJSON），典型用法是读取 stdin
type LineSource struct {
	Counters

	r         io.Reader
	publisher Publisher
	throttled *utils.ThrottledLogger
}

func NewLineSource(r io.Reader, publisher Publisher, logger *slog.Logger) *LineSource {
	logger = logger.With("system", "ingest", "source", "stdin")
	return &LineSource{
		r:         r,
		publisher: publisher,
		throttled: utils.NewThrottledLogger(logger, 5, 20),
	}
}

func (s *LineSource) Name() string { return "stdin" }

// Run 读到 EOF 时返回 nil。读取在独立的 goroutine 中进行，ctx 结束时 Run 立即返回，
// 不必等待阻塞中的 Read。
func (s *LineSource) Run(ctx context.Context) error {
	lines := make(chan []byte)
	readErr := make(chan error, 1)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(s.r)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
		for scanner.Scan() {
			// scanner 会复用底层缓冲区，交出去之前先复制
			line := append([]byte(nil), scanner.Bytes()...)
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	lineNo := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-readErr:
					if err != nil {
						return fmt.Errorf("read events: %w", err)
					}
				default:
				}
				return nil
			}
			lineNo++
			if len(line) == 0 {
				continue
			}
			if err := s.handleLine(ctx, lineNo, line); err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			}
		}
	}
}

func (s *LineSource) handleLine(ctx context.Context, lineNo int, line []byte) error {
	evt, err := DecodeEvent(line)
	if err != nil {
		s.rejected.Add(1)
		s.throttled.Warn("Skipping undecodable event", slog.Int("line", lineNo), slog.Any("error", err))
		return nil
	}
	if err := s.publisher.Publish(ctx, evt); err != nil {
		return fmt.Errorf("publish line %d: %w", lineNo, err)
	}
	s.received.Add(1)
	return nil
}
