package service

import (
	"context"
	"fmt"

	"github.com/aman-churiwal/weather-dashboard/internal/models"
	"github.com/aman-churiwal/weather-dashboard/internal/quota"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// maxConcurrentCounts bounds the ledger queries issued while listing users
const maxConcurrentCounts = 8

type UsageService struct {
	config     *ConfigService
	ledger     *UsageLedger
	limits     UserLimitStore
	users      UserStore
	allocation *AllocationService
}

func NewUsageService(config *ConfigService, ledger *UsageLedger, limits UserLimitStore, users UserStore, allocation *AllocationService) *UsageService {
	return &UsageService{
		config:     config,
		ledger:     ledger,
		limits:     limits,
		users:      users,
		allocation: allocation,
	}
}

// Holds the calling user's quota status
type QuotaStatus struct {
	Used           int64 `json:"used"`
	Limit          int64 `json:"limit"`
	Remaining      int64 `json:"remaining"`
	PercentageUsed int   `json:"percentage_used"`
}

// Holds project-wide usage over the sliding window
type ProjectStats struct {
	ProjectCap          int                       `json:"project_cap"`
	AssignablePool      int                       `json:"assignable_pool"`
	TotalAssigned       int64                     `json:"total_assigned"`
	RemainingAssignable int64                     `json:"remaining_assignable"`
	TotalHits24h        int64                     `json:"total_hits_24hr"`
	RemainingHits       int64                     `json:"remaining_hits"`
	PercentageUsed      int                       `json:"percentage_used"`
	HitsByEndpoint      map[models.Endpoint]int64 `json:"hits_by_endpoint"`
}

type UserUsage struct {
	ID         uuid.UUID `json:"id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	Role       string    `json:"role"`
	IsActive   bool      `json:"is_active"`
	DailyLimit int       `json:"daily_limit"`
	Used24h    int64     `json:"used_24hr"`
}

// Holds the admin view of one user's allocation
type UserQuotaDetail struct {
	UserID        uuid.UUID `json:"user_id"`
	Email         string    `json:"email"`
	Name          string    `json:"name"`
	CurrentLimit  int       `json:"current_limit"`
	MaxAssignable int       `json:"max_assignable"`
	QuotaStatus
}

func (s *UsageService) Status(ctx context.Context, userID uuid.UUID) (*QuotaStatus, error) {
	limit := 0
	userLimit, err := s.limits.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user limit: %w", err)
	}
	if userLimit != nil {
		limit = userLimit.DailyLimit
	}

	used, err := s.ledger.CountInWindow(ctx, &userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count hits: %w", err)
	}

	return newQuotaStatus(used, int64(limit)), nil
}

func newQuotaStatus(used, limit int64) *QuotaStatus {
	return &QuotaStatus{
		Used:           used,
		Limit:          limit,
		Remaining:      max(limit-used, 0),
		PercentageUsed: quota.PercentUsed(used, limit),
	}
}

func (s *UsageService) ProjectStats(ctx context.Context) (*ProjectStats, error) {
	policy := s.config.Policy()

	totalAssigned, err := s.limits.SumDailyLimits(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to sum daily limits: %w", err)
	}

	hits, err := s.ledger.CountInWindow(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to count hits: %w", err)
	}

	byEndpoint, err := s.ledger.CountByEndpoint(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count hits by endpoint: %w", err)
	}

	return &ProjectStats{
		ProjectCap:          policy.ProjectCap,
		AssignablePool:      policy.AssignablePool,
		TotalAssigned:       totalAssigned,
		RemainingAssignable: max(int64(policy.AssignablePool)-totalAssigned, 0),
		TotalHits24h:        hits,
		RemainingHits:       max(int64(policy.ProjectCap)-hits, 0),
		PercentageUsed:      quota.PercentUsed(hits, int64(policy.ProjectCap)),
		HitsByEndpoint:      byEndpoint,
	}, nil
}

// ListUsers returns every user with their limit and window usage
func (s *UsageService) ListUsers(ctx context.Context) ([]UserUsage, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	result := make([]UserUsage, len(users))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentCounts)
	for i := range users {
		i := i
		u := users[i]
		g.Go(func() error {
			used, err := s.ledger.CountInWindow(gctx, &u.ID)
			if err != nil {
				return fmt.Errorf("failed to count hits for %s: %w", u.ID, err)
			}

			usage := UserUsage{
				ID:       u.ID,
				Email:    u.Email,
				Name:     u.Name,
				Role:     u.Role,
				IsActive: u.IsActive,
				Used24h:  used,
			}
			if u.UserLimit != nil {
				usage.DailyLimit = u.UserLimit.DailyLimit
			}
			result[i] = usage
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *UsageService) UserQuota(ctx context.Context, userID uuid.UUID) (*UserQuotaDetail, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, &NotFoundError{Resource: "user"}
	}

	status, err := s.Status(ctx, userID)
	if err != nil {
		return nil, err
	}

	maxAssignable, err := s.allocation.MaxAssignable(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &UserQuotaDetail{
		UserID:        user.ID,
		Email:         user.Email,
		Name:          user.Name,
		CurrentLimit:  int(status.Limit),
		MaxAssignable: max(maxAssignable, 0),
		QuotaStatus:   *status,
	}, nil
}
