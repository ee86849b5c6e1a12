package weather

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aman-churiwal/weather-dashboard/internal/models"
)

const (
	MinForecastDays     = 1
	MaxForecastDays     = 3
	DefaultForecastDays = 3
	MaxHistoryDays      = 7
)

// Query is a validated request for upstream data
type Query struct {
	Endpoint models.Endpoint
	City     string
	Days     int
	Date     string // YYYY-MM-DD, history only
}

func (q Query) Validate(now time.Time) error {
	if !q.Endpoint.IsValid() {
		return fmt.Errorf("unknown endpoint %q", q.Endpoint)
	}

	city := strings.TrimSpace(q.City)
	if len(city) < 2 || len(city) > 100 {
		return errors.New("city must be between 2 and 100 characters")
	}

	switch q.Endpoint {
	case models.EndpointForecast:
		if q.Days < MinForecastDays || q.Days > MaxForecastDays {
			return fmt.Errorf("days must be between %d and %d", MinForecastDays, MaxForecastDays)
		}
	case models.EndpointHistory:
		date, err := time.Parse(time.DateOnly, q.Date)
		if err != nil {
			return errors.New("date must be formatted as YYYY-MM-DD")
		}
		today := now.UTC().Truncate(24 * time.Hour)
		if date.After(today) || date.Before(today.AddDate(0, 0, -MaxHistoryDays)) {
			return fmt.Errorf("date must be within the last %d days", MaxHistoryDays)
		}
	}

	return nil
}

// CacheKey normalizes the query so equivalent requests share one entry
func (q Query) CacheKey() string {
	city := strings.ToLower(strings.TrimSpace(q.City))

	switch q.Endpoint {
	case models.EndpointForecast:
		return fmt.Sprintf("%s:%s:%d", q.Endpoint, city, q.Days)
	case models.EndpointHistory:
		return fmt.Sprintf("%s:%s:%s", q.Endpoint, city, q.Date)
	default:
		return fmt.Sprintf("%s:%s", q.Endpoint, city)
	}
}
