package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
)

// CleanupWorker periodically purges ledger rows that have left the window.
// Admission queries always filter by window, so a missed run only costs disk.
type CleanupWorker struct {
	ledger   *UsageLedger
	interval time.Duration
	clock    clockwork.Clock
	logger   *slog.Logger
}

func NewCleanupWorker(ledger *UsageLedger, interval time.Duration, opts ...Option) *CleanupWorker {
	o := buildOptions(opts)

	return &CleanupWorker{
		ledger:   ledger,
		interval: interval,
		clock:    o.clock,
		logger:   o.logger,
	}
}

// Run purges once immediately and then on every tick until ctx is done
func (w *CleanupWorker) Run(ctx context.Context) {
	ticker := w.clock.NewTicker(w.interval)
	defer ticker.Stop()

	w.purge(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			w.purge(ctx)
		}
	}
}

func (w *CleanupWorker) purge(ctx context.Context) {
	n, err := w.ledger.PurgeExpired(ctx)
	if err != nil {
		w.logger.Error("ledger cleanup failed", "error", err)
		return
	}
	if n > 0 {
		w.logger.Info("ledger cleanup", "deleted", n)
	}
}
