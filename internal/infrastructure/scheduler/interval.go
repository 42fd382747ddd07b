package scheduler

import (
	"context"
	"sync"
	"time"

	"UpdatesScanner/internal/ports"
)

// IntervalScheduler triggers the job immediately and then on a fixed
// interval, standing in for the platform's scheduled invocations.
type IntervalScheduler struct {
	interval time.Duration
	stop     chan struct{}
	stopOnce sync.Once
	started  bool
}

var _ ports.Scheduler = (*IntervalScheduler)(nil)

// NewIntervalScheduler builds a scheduler with the configured period.
func NewIntervalScheduler(interval time.Duration) *IntervalScheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	return &IntervalScheduler{interval: interval, stop: make(chan struct{})}
}

// Start begins ticking. The first invocation runs right away so a fresh
// deployment populates the current week without waiting a full period.
func (s *IntervalScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil || s.started {
		return nil
	}
	s.started = true

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		job(time.Now())
		for {
			select {
			case t := <-ticker.C:
				job(t)
			case <-ctx.Done():
				return
			case <-s.stop:
				return
			}
		}
	}()

	return nil
}

// Stop halts the ticker goroutine. Safe to call more than once; the
// channel stays closed so the goroutine's select never sees a nil case.
func (s *IntervalScheduler) Stop(ctx context.Context) error {
	s.stopOnce.Do(func() { close(s.stop) })
	return nil
}
