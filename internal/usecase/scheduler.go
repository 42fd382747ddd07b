package usecase

import (
	"context"
	"log/slog"
	"time"

	"UpdatesScanner/internal/ports"
)

// Scheduler wires the recurring trigger with the pipeline. Re-running on
// a schedule is also the only retry path for still-empty generated
// fields.
type Scheduler struct {
	driver   ports.Scheduler
	pipeline *Pipeline
	logger   *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring invocations.
func NewScheduler(driver ports.Scheduler, pipeline *Pipeline, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{driver: driver, pipeline: pipeline, logger: logger}
}

// Start registers the pipeline with the provided scheduler. A fatal
// pipeline error (unreachable feed, corrupt document) is the whole
// invocation's failure, so it is reported here; the next tick retries.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.pipeline == nil {
		return nil
	}

	job := func(time.Time) {
		if _, err := s.pipeline.Run(ctx); err != nil {
			s.logger.Error("pipeline invocation failed", "error", err)
		}
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
