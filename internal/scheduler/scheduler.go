package scheduler

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper is a periodic maintenance task, such as reaping stale ledger rows.
type Sweeper interface {
	Sweep(ctx context.Context) error
}

type Scheduler struct {
	name     string
	sweeper  Sweeper
	interval time.Duration
	timeout  time.Duration
	logger   *slog.Logger
}

// NewScheduler bounds each run by timeout. A zero timeout uses the interval.
func NewScheduler(name string, sweeper Sweeper, interval, timeout time.Duration, logger *slog.Logger) *Scheduler {
	if timeout <= 0 {
		timeout = interval
	}
	return &Scheduler{
		name:     name,
		sweeper:  sweeper,
		interval: interval,
		timeout:  timeout,
		logger:   logger.With("task", name),
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("scheduler started", "interval", s.interval)

	s.run(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.run(ctx)
		}
	}
}

func (s *Scheduler) run(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.sweeper.Sweep(runCtx); err != nil {
		s.logger.Error("scheduled run failed", "error", err)
	}
}
