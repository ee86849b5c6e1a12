package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aman-churiwal/weather-dashboard/internal/metrics"
	"github.com/aman-churiwal/weather-dashboard/internal/quota"
	"github.com/google/uuid"
)

type Reason string

const (
	ReasonAllowed              Reason = "ALLOWED"
	ReasonProjectQuotaExceeded Reason = "PROJECT_QUOTA_EXCEEDED"
	ReasonUserQuotaExceeded    Reason = "USER_QUOTA_EXCEEDED"
	ReasonNoQuotaAssigned      Reason = "NO_QUOTA_ASSIGNED"
)

// Decision is the outcome of an admission check. Denials are ordinary
// values, not errors.
type Decision struct {
	Allowed              bool       `json:"allowed"`
	Reason               Reason     `json:"reason"`
	Used                 int64      `json:"used"`
	Limit                int64      `json:"limit"`
	Remaining            int64      `json:"remaining"`
	NextAvailableAt      *time.Time `json:"next_available_at,omitempty"`
	NextAvailableMessage string     `json:"next_available_message,omitempty"`
	HitsExpiringSoon     int64      `json:"hits_expiring_soon,omitempty"`
}

// RetryAfter is the wait until NextAvailableAt, or zero
func (d Decision) RetryAfter(now time.Time) time.Duration {
	if d.NextAvailableAt == nil {
		return 0
	}
	return max(d.NextAvailableAt.Sub(now), 0)
}

// SettingsSource exposes the current policy snapshot
type SettingsSource interface {
	Settings() quota.Settings
}

// AdmissionController runs the project check and then the user check against
// the sliding window. Concurrent checks for the same user are not serialized,
// so a burst at the limit can overshoot it slightly.
type AdmissionController struct {
	config  SettingsSource
	ledger  *UsageLedger
	limits  UserLimitStore
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewAdmissionController(config SettingsSource, ledger *UsageLedger, limits UserLimitStore, opts ...Option) *AdmissionController {
	o := buildOptions(opts)

	return &AdmissionController{
		config:  config,
		ledger:  ledger,
		limits:  limits,
		logger:  o.logger,
		metrics: o.metrics,
	}
}

// Check decides whether userID may make one more upstream call. A non-nil
// error means the ledger could not be read; the caller picks the fallback.
func (c *AdmissionController) Check(ctx context.Context, userID uuid.UUID) (Decision, error) {
	now := c.ledger.Now()
	windowStart := quota.WindowStart(now)
	policy := c.config.Settings().Policy()

	projectUsed, err := c.ledger.CountSince(ctx, nil, windowStart)
	if err != nil {
		return Decision{}, &InternalLedgerError{Op: "count project hits", Err: err}
	}

	projectCap := int64(policy.ProjectCap)
	if projectUsed >= projectCap {
		return c.deny(Decision{
			Reason: ReasonProjectQuotaExceeded,
			Used:   projectUsed,
			Limit:  projectCap,
		}, userID), nil
	}

	var limit int64
	userLimit, err := c.limits.FindByUserID(ctx, userID)
	if err != nil {
		return Decision{}, &InternalLedgerError{Op: "load user limit", Err: err}
	}
	if userLimit != nil {
		limit = int64(userLimit.DailyLimit)
	}

	if limit == 0 {
		return c.deny(Decision{Reason: ReasonNoQuotaAssigned}, userID), nil
	}

	userUsed, err := c.ledger.CountSince(ctx, &userID, windowStart)
	if err != nil {
		return Decision{}, &InternalLedgerError{Op: "count user hits", Err: err}
	}

	if userUsed < limit {
		d := Decision{
			Allowed:   true,
			Reason:    ReasonAllowed,
			Used:      userUsed,
			Limit:     limit,
			Remaining: limit - userUsed,
		}
		c.metrics.ObserveDecision(true, string(d.Reason))
		return d, nil
	}

	d := Decision{
		Reason: ReasonUserQuotaExceeded,
		Used:   userUsed,
		Limit:  limit,
	}
	c.addGuidance(ctx, &d, userID, now)

	return c.deny(d, userID), nil
}

// addGuidance fills in when the next slot frees up. Failures only cost the
// hint, never the decision.
func (c *AdmissionController) addGuidance(ctx context.Context, d *Decision, userID uuid.UUID, now time.Time) {
	oldest, err := c.ledger.OldestSince(ctx, userID, quota.WindowStart(now))
	if err != nil {
		c.logger.Warn("failed to load oldest hit", "user_id", userID, "error", err)
		return
	}

	next := now
	if oldest != nil {
		next = oldest.HitAt.UTC().Add(quota.Window)
	}
	d.NextAvailableAt = &next
	d.NextAvailableMessage = quota.NextAvailableMessage(next.Sub(now))

	expiring, err := c.ledger.ExpiringSoon(ctx, userID)
	if err != nil {
		c.logger.Warn("failed to count expiring hits", "user_id", userID, "error", err)
		return
	}
	d.HitsExpiringSoon = expiring
}

func (c *AdmissionController) deny(d Decision, userID uuid.UUID) Decision {
	d.Allowed = false
	d.Remaining = 0
	c.logger.Debug("admission denied", "user_id", userID, "reason", d.Reason, "used", d.Used, "limit", d.Limit)
	c.metrics.ObserveDecision(false, string(d.Reason))
	return d
}
