package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"UpdatesScanner/internal/api"
	"UpdatesScanner/internal/config"
	"UpdatesScanner/internal/feed"
	"UpdatesScanner/internal/infrastructure/bedrock"
	"UpdatesScanner/internal/infrastructure/blob"
	"UpdatesScanner/internal/infrastructure/scheduler"
	"UpdatesScanner/internal/infrastructure/storage"
	"UpdatesScanner/internal/logging"
	"UpdatesScanner/internal/ports"
	"UpdatesScanner/internal/usecase"
)

// Application wires configuration to the pipeline, the scheduler, and
// the read API. External service clients are constructed once here and
// shared read-only across pipeline invocations.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	store     *storage.SQLiteStore
	scheduler *usecase.Scheduler
	server    *http.Server
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	db, err := storage.Open(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	store := storage.NewSQLiteStore(db, cfg.Store.Table)

	source := feed.NewSource(cfg.Feed.URL, &http.Client{Timeout: cfg.Feed.Timeout.Std()})
	generator := bedrock.NewClient(cfg.Bedrock)

	var (
		images ports.ImageGenerator
		blobs  ports.BlobStore
	)
	if cfg.ImagesEnabled() {
		minioStore, err := blob.NewMinioStore(cfg.Blob)
		if err != nil {
			return nil, fmt.Errorf("blob store: %w", err)
		}
		images = generator
		blobs = minioStore
	}

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Source:          source,
		Store:           store,
		Summarizer:      generator,
		Images:          images,
		Blobs:           blobs,
		SiteBaseURL:     cfg.Site.BaseURL,
		GeneratedPrefix: cfg.Site.GeneratedPrefix,
		SummaryEnabled:  cfg.SummaryEnabled(),
		Logger:          logging.Component(baseLogger, "pipeline"),
	})

	readAPI := api.NewServer(store, logging.Component(baseLogger, "api"))
	server := &http.Server{
		Addr:              cfg.API.ListenAddr,
		Handler:           readAPI.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &Application{
		cfg:       cfg,
		logger:    baseLogger,
		store:     store,
		scheduler: usecase.NewScheduler(
			scheduler.NewIntervalScheduler(cfg.Scheduler.Interval.Std()),
			pipeline,
			logging.Component(baseLogger, "scheduler"),
		),
		server:    server,
	}, nil
}

// Run starts the recurring pipeline and serves the read API until the
// context is cancelled.
func (a *Application) Run(ctx context.Context) error {
	if err := a.store.Init(ctx); err != nil {
		return fmt.Errorf("init store: %w", err)
	}

	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer func() { _ = a.scheduler.Stop(context.Background()) }()

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("read api listening", "addr", a.server.Addr)
		errCh <- a.server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return a.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
