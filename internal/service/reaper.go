package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Reaper fails ledger attempts left IN_PROGRESS by a process that died
// mid-run.
type Reaper struct {
	ledger     SyncLedger
	staleAfter time.Duration
	logger     *slog.Logger
	now        func() time.Time
}

func NewReaper(ledger SyncLedger, staleAfter time.Duration, logger *slog.Logger) *Reaper {
	return &Reaper{
		ledger:     ledger,
		staleAfter: staleAfter,
		logger:     logger.With("component", "reaper"),
		now:        time.Now,
	}
}

func (r *Reaper) Sweep(ctx context.Context) error {
	stats, err := r.ledger.ReapStale(ctx, r.now().Add(-r.staleAfter))
	if err != nil {
		return fmt.Errorf("reap stale attempts: %w", err)
	}

	if stats.Syncs > 0 || stats.Categorizations > 0 {
		r.logger.Warn("failed stale attempts",
			"syncs", stats.Syncs,
			"categorizations", stats.Categorizations,
		)
	}
	return nil
}
