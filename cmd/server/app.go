/*
 * @Description:
 * @Author: 安知鱼
 * @Date: 2025-10-11 11:25:41
 * @LastEditTime: 2025-10-18 10:52:34
 * @LastEditors: 安知鱼
 */
package server

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/anzhiyu-c/anheyu-stats/internal/app/listener"
	"github.com/anzhiyu-c/anheyu-stats/internal/app/task"
	"github.com/anzhiyu-c/anheyu-stats/internal/infra/ingest"
	"github.com/anzhiyu-c/anheyu-stats/internal/infra/persistence/database"
	"github.com/anzhiyu-c/anheyu-stats/internal/infra/persistence/memory"
	"github.com/anzhiyu-c/anheyu-stats/internal/pkg/event"
	"github.com/anzhiyu-c/anheyu-stats/internal/pkg/version"
	"github.com/anzhiyu-c/anheyu-stats/pkg/config"
	"github.com/anzhiyu-c/anheyu-stats/pkg/domain/model"
	"github.com/anzhiyu-c/anheyu-stats/pkg/service/export"
	"github.com/anzhiyu-c/anheyu-stats/pkg/service/statistics"
)

// 事件来源
const (
	SourceStdin = "stdin"
	SourceRedis = "redis"
	SourceNone  = "none"
)

// Options NewAppWithConfig 的可选依赖，零值使用默认实现
type Options struct {
	// Input stdin 来源读取的数据，默认 os.Stdin
	Input io.Reader
	// LogOutput 结构化日志输出，默认 os.Stdout
	LogOutput io.Writer
}

// App 结构体，用于封装应用的所有核心组件
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	appVersion string

	querySvc  statistics.QueryService
	eventBus  *event.EventBus
	sink      export.SnapshotSink
	exportJob *task.SnapshotExportJob
	scheduler *task.Scheduler
	source    ingest.Source
}

func (a *App) PrintBanner() {
	log.Println("--------------------------------------------------------")
	log.Printf(" Anheyu Stats: %s", version.GetVersionString())
	log.Printf(" 快照间隔: %s, 事件来源: %s, 快照 sink: %s",
		a.scheduler.Interval(), a.sourceName(), export.GetSinkType(a.sink))
	log.Println("--------------------------------------------------------")
}

// NewAppWithConfig 执行所有的初始化和依赖注入工作。
// 只有配置错误会导致失败；Redis 不可用时降级到内存 sink。
func NewAppWithConfig(cfg *config.Config, opts Options) (*App, func(), error) {
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.LogOutput == nil {
		opts.LogOutput = os.Stdout
	}

	// --- Phase 1: 校验配置 ---
	sortKey, err := model.ParseSortKey(cfg.GetString(config.KeySchedulerSortKey))
	if err != nil {
		return nil, nil, fmt.Errorf("配置 %s 无效: %w", config.KeySchedulerSortKey, err)
	}
	sourceName := strings.ToLower(strings.TrimSpace(cfg.GetString(config.KeyIngestSource)))
	switch sourceName {
	case SourceStdin, SourceRedis, SourceNone:
	default:
		return nil, nil, fmt.Errorf("配置 %s 无效: 未知的事件来源 %q", config.KeyIngestSource, sourceName)
	}

	level := slog.LevelInfo
	if cfg.GetBool(config.KeySystemDebug) {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(opts.LogOutput, &slog.HandlerOptions{Level: level}))

	// --- Phase 2: 基础设施 ---
	ctx := context.Background()
	redisClient := database.NewRedisClient(ctx, cfg)
	cleanup := func() {
		if redisClient != nil {
			_ = redisClient.Close()
		}
	}
	if sourceName == SourceRedis && redisClient == nil {
		cleanup()
		return nil, nil, fmt.Errorf("配置 %s=redis 需要可用的 Redis", config.KeyIngestSource)
	}

	// --- Phase 3: 统计引擎 ---
	startedAt := time.Now()
	store := memory.NewStatisticsStore()
	processor := statistics.NewEventProcessor(store)
	querySvc := statistics.NewQueryService(store, processor, startedAt)

	eventBus := event.NewEventBus(event.Options{
		Workers:   cfg.GetInt(config.KeyIngestWorkers),
		QueueSize: cfg.GetInt(config.KeyIngestQueueSize),
		Logger:    logger,
	})
	listener.NewStatisticsListener(eventBus, processor, logger)

	// --- Phase 4: 快照导出 ---
	sink := export.NewSinkWithFallback(ctx, redisClient, cfg.GetString(config.KeySinkKeyPrefix))
	exporter := export.NewExporter(store, sink, export.Options{
		TopN:    cfg.GetInt(config.KeySchedulerTopN),
		SortKey: sortKey,
	})
	exportJob := task.NewSnapshotExportJob(exporter, task.DefaultExportTimeout, logger.With("system", "cron"))
	scheduler := task.NewScheduler(cfg.SchedulerInterval(), logger)

	// --- Phase 5: 事件来源 ---
	var publisher ingest.Publisher = eventBus
	if cfg.GetBool(config.KeyIngestDropWhenFull) {
		publisher = event.NewDroppingPublisher(eventBus)
	}
	var source ingest.Source
	switch sourceName {
	case SourceStdin:
		source = ingest.NewLineSource(opts.Input, publisher, logger)
	case SourceRedis:
		source = ingest.NewRedisSource(redisClient, cfg.GetString(config.KeyIngestChannel), publisher, logger)
	}

	app := &App{
		cfg:        cfg,
		logger:     logger,
		appVersion: version.GetVersion(),
		querySvc:   querySvc,
		eventBus:   eventBus,
		sink:       sink,
		exportJob:  exportJob,
		scheduler:  scheduler,
		source:     source,
	}
	return app, cleanup, nil
}

func (a *App) Config() *config.Config {
	return a.cfg
}

// QueryService 返回同步查询接口
func (a *App) QueryService() statistics.QueryService {
	return a.querySvc
}

// EventBus 返回事件总线，外部传输层可直接向其发布事件
func (a *App) EventBus() *event.EventBus {
	return a.eventBus
}

// Sink 返回当前使用的快照 sink
func (a *App) Sink() export.SnapshotSink {
	return a.sink
}

// Source 返回事件来源，Ingest.Source=none 时为 nil
func (a *App) Source() ingest.Source {
	return a.source
}

// Version 返回应用的版本号
func (a *App) Version() string {
	return a.appVersion
}

func (a *App) sourceName() string {
	if a.source == nil {
		return SourceNone
	}
	return a.source.Name()
}

// Run 启动调度器和事件来源，阻塞到 ctx 结束或事件来源出错。
// stdin 读到 EOF 只代表来源结束，应用继续按间隔导出快照。
func (a *App) Run(ctx context.Context) error {
	a.scheduler.Register(a.exportJob)
	a.scheduler.Start()

	g, gctx := errgroup.WithContext(ctx)
	if a.source != nil {
		g.Go(func() error {
			if err := a.source.Run(gctx); err != nil {
				return fmt.Errorf("事件来源 %s 出错: %w", a.source.Name(), err)
			}
			a.logger.Info("事件来源已结束", slog.String("source", a.source.Name()))
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		return nil
	})

	a.logger.Info("应用程序启动成功", slog.String("version", a.appVersion))
	return g.Wait()
}

// Stop 停止接收事件并排空队列，停止调度器后再导出最后一代快照
func (a *App) Stop() {
	a.eventBus.Shutdown()
	a.scheduler.Stop()
	log.Println("任务调度器已停止。")

	a.exportJob.RunContext(context.Background())

	live := a.querySvc.GetLiveness(context.Background())
	attrs := []any{
		slog.Int64("events_processed", live.EventsProcessed),
		slog.Int64("events_failed", live.EventsFailed),
		slog.Int64("events_dropped", a.eventBus.Dropped()),
		slog.Int64("entities", live.EntitiesTracked),
		slog.Int64("actors", live.ActorsTracked),
		slog.Duration("uptime", live.Uptime),
	}
	if a.source != nil {
		attrs = append(attrs,
			slog.String("source", a.source.Name()),
			slog.Int64("ingest_received", a.source.Received()),
			slog.Int64("ingest_rejected", a.source.Rejected()),
		)
	}
	a.logger.Info("应用已停止", attrs...)
}
