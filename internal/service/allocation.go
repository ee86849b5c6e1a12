package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aman-churiwal/weather-dashboard/internal/models"
	"github.com/aman-churiwal/weather-dashboard/internal/quota"
	"github.com/google/uuid"
)

// PoolStatus is the unassigned remainder of the assignable pool
type PoolStatus struct {
	AssignablePool int   `json:"assignable_pool"`
	TotalAssigned  int64 `json:"total_assigned"`
	Remaining      int64 `json:"remaining"`
}

// AllocationService guards the invariant that the sum of all daily limits
// never exceeds the assignable pool. All writes that could break it run
// under mu.
type AllocationService struct {
	mu     sync.Mutex
	config *ConfigService
	limits UserLimitStore
	logger *slog.Logger
}

func NewAllocationService(config *ConfigService, limits UserLimitStore, opts ...Option) *AllocationService {
	o := buildOptions(opts)

	return &AllocationService{
		config: config,
		limits: limits,
		logger: o.logger,
	}
}

// MaxAssignable is the highest daily limit userID could be given: the free
// headroom plus whatever the user already holds.
func (s *AllocationService) MaxAssignable(ctx context.Context, userID uuid.UUID) (int, error) {
	ceiling, _, err := s.maxAssignable(ctx, userID)
	return ceiling, err
}

func (s *AllocationService) maxAssignable(ctx context.Context, userID uuid.UUID) (int, int, error) {
	total, err := s.limits.SumDailyLimits(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to sum daily limits: %w", err)
	}

	current := 0
	existing, err := s.limits.FindByUserID(ctx, userID)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to load user limit: %w", err)
	}
	if existing != nil {
		current = existing.DailyLimit
	}

	pool := int64(s.config.Policy().AssignablePool)
	return int(pool - total + int64(current)), current, nil
}

// SetUserLimit replaces the user's daily limit. Raising it is bounded by
// MaxAssignable. Lowering is always accepted, even to a value still above
// MaxAssignable when the pool is already over-allocated (e.g. after a
// config change shrank it); rejecting that would block the admin from
// reducing the over-allocation.
func (s *AllocationService) SetUserLimit(ctx context.Context, userID uuid.UUID, dailyLimit int, adminID uuid.UUID) (*models.UserLimit, error) {
	if err := quota.CheckValue(quota.KeyDefaultUserLimit, dailyLimit); err != nil {
		return nil, newValidationError("daily_limit", "must be an integer between 0 and %d", quota.MaxValue)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	maxAssignable, current, err := s.maxAssignable(ctx, userID)
	if err != nil {
		return nil, err
	}

	if dailyLimit > maxAssignable && dailyLimit > current {
		return nil, &OverAllocationError{Requested: dailyLimit, MaxAssignable: max(maxAssignable, 0)}
	}

	var by *uuid.UUID
	if adminID != uuid.Nil {
		by = &adminID
	}

	limit, err := s.limits.Upsert(ctx, userID, dailyLimit, by)
	if err != nil {
		return nil, fmt.Errorf("failed to update user limit: %w", err)
	}

	s.logger.Info("user limit updated", "user_id", userID, "daily_limit", dailyLimit, "updated_by", adminID)
	return limit, nil
}

// ValidateConfigChange rejects a change that would shrink the assignable
// pool below the total already assigned. Keys that do not feed the pool
// always pass.
func (s *AllocationService) ValidateConfigChange(ctx context.Context, key quota.Key, value int) error {
	if !key.AffectsPool() {
		return nil
	}

	newPool := s.config.Settings().With(key, value).Policy().AssignablePool

	total, err := s.limits.SumDailyLimits(ctx)
	if err != nil {
		return fmt.Errorf("failed to sum daily limits: %w", err)
	}

	if int64(newPool) < total {
		return &PoolUnderAllocationError{
			Key:           string(key),
			Value:         value,
			NewPool:       newPool,
			TotalAssigned: total,
		}
	}
	return nil
}

// UpdateConfig validates and applies one settings change. It returns the
// stored entry and the policy computed after the change.
func (s *AllocationService) UpdateConfig(ctx context.Context, key, raw string, adminID uuid.UUID) (*models.AppConfig, quota.Policy, error) {
	k := quota.Key(key)
	v, err := quota.ParseValue(k, raw)
	if err != nil {
		return nil, quota.Policy{}, &ValidationError{Field: key, Message: err.Error()}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ValidateConfigChange(ctx, k, v); err != nil {
		return nil, quota.Policy{}, err
	}

	entry, err := s.config.set(ctx, k, v, adminID)
	if err != nil {
		return nil, quota.Policy{}, err
	}

	return entry, s.config.Policy(), nil
}

func (s *AllocationService) AssignableRemaining(ctx context.Context) (*PoolStatus, error) {
	total, err := s.limits.SumDailyLimits(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to sum daily limits: %w", err)
	}

	pool := s.config.Policy().AssignablePool
	return &PoolStatus{
		AssignablePool: pool,
		TotalAssigned:  total,
		Remaining:      max(int64(pool)-total, 0),
	}, nil
}

// GrantDefault computes the limit a new user starts with, the configured
// default clamped to the free headroom, and passes it to create while the
// allocation lock is held.
func (s *AllocationService) GrantDefault(ctx context.Context, create func(dailyLimit int) error) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	total, err := s.limits.SumDailyLimits(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to sum daily limits: %w", err)
	}

	settings := s.config.Settings()
	headroom := max(int64(settings.Policy().AssignablePool)-total, 0)
	grant := int(min(int64(settings.DefaultUserLimit), headroom))

	if grant < settings.DefaultUserLimit {
		s.logger.Warn("assignable pool exhausted, clamping default grant",
			"default_user_limit", settings.DefaultUserLimit, "granted", grant)
	}

	if err := create(grant); err != nil {
		return 0, err
	}
	return grant, nil
}
