package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aman-churiwal/weather-dashboard/internal/metrics"
	"github.com/aman-churiwal/weather-dashboard/internal/models"
	"github.com/aman-churiwal/weather-dashboard/internal/quota"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// UsageLedger is the append-only record of quota-consuming upstream calls.
// Every window query is computed from the injected clock.
type UsageLedger struct {
	hits    HitStore
	clock   clockwork.Clock
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewUsageLedger(hits HitStore, opts ...Option) *UsageLedger {
	o := buildOptions(opts)

	return &UsageLedger{
		hits:    hits,
		clock:   o.clock,
		logger:  o.logger,
		metrics: o.metrics,
	}
}

func (l *UsageLedger) Now() time.Time {
	return l.clock.Now().UTC()
}

func (l *UsageLedger) Record(ctx context.Context, userID uuid.UUID, endpoint models.Endpoint) (*models.APIHit, error) {
	if !endpoint.IsValid() {
		return nil, fmt.Errorf("unknown endpoint %q", endpoint)
	}

	hit := &models.APIHit{
		UserID:   userID,
		Endpoint: endpoint,
		HitAt:    l.Now(),
	}
	if err := l.hits.Create(ctx, hit); err != nil {
		return nil, fmt.Errorf("failed to record hit: %w", err)
	}

	l.metrics.IncrementHitsRecorded(string(endpoint))
	return hit, nil
}

// CountSince counts hits at or after since. A nil userID counts project-wide.
func (l *UsageLedger) CountSince(ctx context.Context, userID *uuid.UUID, since time.Time) (int64, error) {
	return l.hits.CountSince(ctx, userID, since.UTC())
}

// CountInWindow counts hits in the sliding window ending now
func (l *UsageLedger) CountInWindow(ctx context.Context, userID *uuid.UUID) (int64, error) {
	return l.CountSince(ctx, userID, quota.WindowStart(l.Now()))
}

// OldestSince returns the earliest hit at or after since, or nil
func (l *UsageLedger) OldestSince(ctx context.Context, userID uuid.UUID, since time.Time) (*models.APIHit, error) {
	return l.hits.FindOldestSince(ctx, userID, since.UTC())
}

// ExpiringSoon counts the user's hits that leave the window within the next
// hour. It is a display hint only.
func (l *UsageLedger) ExpiringSoon(ctx context.Context, userID uuid.UUID) (int64, error) {
	start := quota.WindowStart(l.Now())
	return l.hits.CountBetween(ctx, userID, start, start.Add(quota.ExpiringSoonHorizon))
}

func (l *UsageLedger) CountByEndpoint(ctx context.Context) (map[models.Endpoint]int64, error) {
	return l.hits.CountByEndpoint(ctx, quota.WindowStart(l.Now()))
}

func (l *UsageLedger) PurgeOlderThan(ctx context.Context, before time.Time) (int64, error) {
	n, err := l.hits.DeleteOlderThan(ctx, before.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to purge hits: %w", err)
	}

	l.metrics.AddHitsPurged(n)
	return n, nil
}

// PurgeExpired removes every hit that has left the sliding window
func (l *UsageLedger) PurgeExpired(ctx context.Context) (int64, error) {
	return l.PurgeOlderThan(ctx, quota.WindowStart(l.Now()))
}
