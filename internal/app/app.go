// Package app wires configuration to the running pipeline: collectors,
// consumer groups, the enrichment scheduler, and the retention sweep.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"

	"trendstream/internal/ai"
	"trendstream/internal/bus"
	"trendstream/internal/collector"
	"trendstream/internal/config"
	"trendstream/internal/consumer"
	"trendstream/internal/dedupe"
	"trendstream/internal/enrich"
	"trendstream/internal/logging"
	"trendstream/internal/metric"
	"trendstream/internal/notify"
	"trendstream/internal/ports"
	"trendstream/internal/storage"
	"trendstream/internal/trend"
)

// dedupeBucket names the JetStream KV bucket for notification dedupe keys.
const dedupeBucket = "notify-dedupe"

// Application owns every long-running component and their shared resources.
type Application struct {
	cfg    config.Config
	logger *slog.Logger

	db        *sql.DB
	bus       *bus.JetStreamBus
	runners   []*collector.Runner
	scheduler *enrich.Scheduler
	cleanup   *enrich.Cleanup
	trends    *trend.Service
}

// New builds the application. It connects to Postgres and NATS, ensures the
// schema and stream exist, and wires all components; nothing starts running
// until Run.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := storage.EnsureSchema(ctx, db); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	jsBus, err := bus.Connect(ctx, cfg.Bus.URL, cfg.Bus.Stream, cfg.Bus.Subject,
		baseLogger.With("component", "bus"))
	if err != nil {
		return nil, fmt.Errorf("connect bus: %w", err)
	}

	kv, err := jsBus.KeyValue(ctx, dedupeBucket, cfg.Notifications.DedupeTTL.Std())
	if err != nil {
		return nil, fmt.Errorf("open dedupe bucket: %w", err)
	}

	metrics := metric.New(prometheus.NewRegistry())

	newsRepo := storage.NewNewsRepository(db)
	statsRepo := storage.NewStatsRepository(db)
	tagRepo := storage.NewTagRepository(db)
	subsRepo := storage.NewSubscriptionRepository(db)

	a := &Application{
		cfg:    cfg,
		logger: baseLogger,
		db:     db,
		bus:    jsBus,
	}

	// consumer groups
	store := consumer.NewStore(newsRepo, baseLogger.With("component", "consumer.store"), metrics)
	if err := jsBus.Subscribe(ctx, consumer.StoreGroup, store.Handle); err != nil {
		return nil, fmt.Errorf("subscribe store consumer: %w", err)
	}

	stats := consumer.NewStats(statsRepo, baseLogger.With("component", "consumer.stats"), metrics)
	if err := jsBus.Subscribe(ctx, consumer.StatsGroup, stats.Handle); err != nil {
		return nil, fmt.Errorf("subscribe stats consumer: %w", err)
	}

	notifier := notify.NewSender(
		notificationProvider(cfg.Notifications, baseLogger),
		cfg.Notifications.FromName,
		baseLogger.With("component", "notify"),
	)
	notifyConsumer := consumer.NewNotify(
		subsRepo,
		dedupe.NewKVStore(kv),
		notifier,
		cfg.Notifications.KeywordRefresh.Std(),
		cfg.Notifications.DedupeTTL.Std(),
		baseLogger.With("component", "consumer.notify"),
		metrics,
	)
	if err := jsBus.Subscribe(ctx, consumer.NotifyGroup, notifyConsumer.Handle); err != nil {
		return nil, fmt.Errorf("subscribe notification consumer: %w", err)
	}

	// collectors
	registry := collector.DefaultRegistry()
	httpClient := &http.Client{Timeout: 20 * time.Second}
	for _, src := range cfg.Sources {
		factory, err := registry.Resolve(src.Collector)
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", src.Name, err)
		}
		runner := collector.NewRunner(
			factory(src, httpClient),
			jsBus,
			src.Interval.Std(),
			baseLogger.With("component", "collector", "source", src.Name),
			metrics,
		)
		a.runners = append(a.runners, runner)
	}

	// enrichment
	a.scheduler = enrich.NewScheduler(
		newsRepo,
		tagRepo,
		analyzer(cfg.AI, baseLogger),
		cfg.AI.Interval.Std(),
		cfg.AI.BatchSize,
		baseLogger.With("component", "enrich"),
		metrics,
	)
	a.cleanup = enrich.NewCleanup(newsRepo, cfg.Retention.Days,
		baseLogger.With("component", "cleanup"))

	a.trends = trend.NewService(tagRepo, baseLogger.With("component", "trend"))

	return a, nil
}

// analyzer selects the AI backend. Unknown values fall back to Groq.
func analyzer(cfg config.AIConfig, logger *slog.Logger) ports.Analyzer {
	switch cfg.Provider {
	case "gemini":
		return ai.NewGemini(cfg.Gemini, logger.With("component", "ai.gemini"))
	case "ollama":
		return ai.NewOllama(cfg.Ollama, logger.With("component", "ai.ollama"))
	case "groq":
		return ai.NewGroq(cfg.Groq, logger.With("component", "ai.groq"))
	default:
		logger.Warn("unknown ai provider, using groq", "provider", cfg.Provider)
		return ai.NewGroq(cfg.Groq, logger.With("component", "ai.groq"))
	}
}

// notificationProvider selects the delivery transport. Anything but an
// explicitly configured webhook stays on the mock recorder.
func notificationProvider(cfg config.NotificationConfig, logger *slog.Logger) notify.Provider {
	if cfg.Provider == "webhook" && cfg.WebhookURL != "" {
		return notify.NewWebhookProvider(cfg.WebhookURL, cfg.WebhookToken, cfg.FromName, nil)
	}
	return notify.NewMockProvider(logger.With("component", "notify.mock"))
}

// Run starts every loop and blocks until the context is canceled.
func (a *Application) Run(ctx context.Context) error {
	for _, runner := range a.runners {
		runner.Start(ctx)
	}
	a.scheduler.Start(ctx)
	a.cleanup.Start(ctx)

	a.logger.Info("trendstream running",
		"sources", len(a.runners),
		"ai_provider", a.cfg.AI.Provider,
		"batch_size", a.cfg.AI.BatchSize,
	)

	<-ctx.Done()
	a.shutdown()
	return nil
}

// Trends exposes the trend read path for embedding callers.
func (a *Application) Trends() *trend.Service {
	return a.trends
}

func (a *Application) shutdown() {
	a.bus.Close()
	if err := a.db.Close(); err != nil {
		a.logger.Warn("close database", "error", err)
	}
	a.logger.Info("trendstream stopped")
}
