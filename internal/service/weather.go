package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/aman-churiwal/weather-dashboard/internal/metrics"
	"github.com/aman-churiwal/weather-dashboard/internal/models"
	"github.com/aman-churiwal/weather-dashboard/internal/weather"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// SearchCacheTTL is fixed; city lookups do not change with the weather
const SearchCacheTTL = 300 * time.Second

type Fetcher interface {
	Fetch(ctx context.Context, q weather.Query) (any, error)
}

// WeatherService performs the upstream half of a weather request, after the
// cache has missed and admission has allowed it.
type WeatherService struct {
	client  Fetcher
	ledger  *UsageLedger
	cache   *ResponseCache
	group   singleflight.Group
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewWeatherService(client Fetcher, ledger *UsageLedger, cache *ResponseCache, opts ...Option) *WeatherService {
	o := buildOptions(opts)

	return &WeatherService{
		client:  client,
		ledger:  ledger,
		cache:   cache,
		logger:  o.logger,
		metrics: o.metrics,
	}
}

// Fetch calls upstream for q, records one hit against userID and caches the
// response. Identical concurrent misses share a single upstream call, which
// is charged to the caller that made it. The shared call is detached from
// that caller's cancellation so other waiters still get the result; the
// client timeout bounds it.
func (s *WeatherService) Fetch(ctx context.Context, userID uuid.UUID, q weather.Query) (json.RawMessage, error) {
	key := q.CacheKey()
	shared := context.WithoutCancel(ctx)

	v, err, _ := s.group.Do(key, func() (any, error) {
		data, err := s.client.Fetch(shared, q)
		s.metrics.ObserveUpstream(string(q.Endpoint), err)
		if err != nil {
			return nil, err
		}

		raw, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s response: %w", q.Endpoint, err)
		}

		// A failed upstream call never reaches this point, so only
		// successful calls consume quota.
		if _, err := s.ledger.Record(shared, userID, q.Endpoint); err != nil {
			s.logger.Error("failed to record hit", "user_id", userID, "endpoint", q.Endpoint, "error", err)
		}

		if err := s.cache.SetWithTTL(shared, key, json.RawMessage(raw), s.ttl(q)); err != nil {
			s.logger.Warn("failed to cache response", "key", key, "error", err)
		}

		return json.RawMessage(raw), nil
	})
	if err != nil {
		return nil, err
	}

	return v.(json.RawMessage), nil
}

func (s *WeatherService) ttl(q weather.Query) time.Duration {
	if q.Endpoint == models.EndpointSearch {
		return SearchCacheTTL
	}
	return s.cache.config.Settings().CacheTTL()
}
