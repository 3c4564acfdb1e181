package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"InsightDigest/internal/config"
	"InsightDigest/internal/delivery"
	"InsightDigest/internal/infrastructure/email"
	"InsightDigest/internal/infrastructure/llm"
	"InsightDigest/internal/infrastructure/scheduler"
	"InsightDigest/internal/infrastructure/source"
	"InsightDigest/internal/infrastructure/storage"
	"InsightDigest/internal/infrastructure/telegram"
	"InsightDigest/internal/logging"
	"InsightDigest/internal/ports"
	"InsightDigest/internal/scanner"
	"InsightDigest/internal/usecase"
)

// Application wires configuration to storage, use cases and lifecycle
// orchestration.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	store    *storage.Store
	pipeline *usecase.Pipeline
}

// New builds a runnable application instance. The store is opened eagerly
// so a broken database path fails here instead of mid-run.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	store, err := storage.Open(cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("open storage at %s: %w", cfg.Storage.Path, err)
	}

	scanners := scanner.NewRegistry()
	scanners.Register(source.NewAPIScanner(nil))
	scanners.Register(source.NewListScanner(nil))

	var chatClient ports.ChatClient
	if cfg.Analyzer.APIKey != "" {
		chatClient = llm.NewClient(cfg.Analyzer)
	}

	plugins := delivery.NewRegistry()
	plugins.Register(email.New(nil))
	plugins.Register(telegram.New(nil))

	rawItems := store.RawItems()
	insights := store.Insights()

	fetcher := usecase.NewFetcher(scanners, rawItems, cfg.Sources, baseLogger.With("component", "fetcher"))
	analyzer := usecase.NewAnalyzer(rawItems, insights, chatClient, cfg.Analyzer, baseLogger.With("component", "analyzer"))
	pipeline := usecase.NewPipeline(fetcher, analyzer, plugins, insights, rawItems, cfg.Delivery, baseLogger.With("component", "pipeline"))

	return &Application{
		cfg:      cfg,
		logger:   baseLogger,
		store:    store,
		pipeline: pipeline,
	}, nil
}

// RunOnce performs a single pipeline execution.
func (a *Application) RunOnce(ctx context.Context) (usecase.Report, error) {
	return a.pipeline.Run(ctx)
}

// RunScheduled blocks, running the pipeline on the configured interval
// until the context is cancelled. The first run starts immediately.
func (a *Application) RunScheduled(ctx context.Context) error {
	s := scheduler.NewTickerScheduler(a.cfg.Scheduler.Interval.Std())

	if err := s.Start(ctx, func(t time.Time) {
		a.logger.Info("scheduled run starting", "at", t.UTC())
		if _, err := a.pipeline.Run(ctx); err != nil {
			a.logger.Error("scheduled run failed", "error", err)
		}
	}); err != nil {
		return err
	}

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.Stop(stopCtx)
}

// Store exposes the underlying database for read-only commands.
func (a *Application) Store() *storage.Store {
	return a.store
}

// Close releases held resources.
func (a *Application) Close() error {
	return a.store.Close()
}
