package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/aman-churiwal/weather-dashboard/internal/circuitbreaker"
	"github.com/aman-churiwal/weather-dashboard/internal/models"
)

// ErrLocationNotFound is returned when the upstream cannot resolve the city
var ErrLocationNotFound = errors.New("no matching location found")

type UpstreamError struct {
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("weather api returned %d: %s", e.StatusCode, e.Message)
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	breaker    *circuitbreaker.CircuitBreaker
}

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	Breaker *circuitbreaker.CircuitBreaker
}

func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Breaker == nil {
		cfg.Breaker = circuitbreaker.New(circuitbreaker.Config{
			IsNeutral: IsNeutral,
		})
	}

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		breaker:    cfg.Breaker,
	}
}

// IsNeutral reports upstream errors caused by the caller's input rather than
// upstream health; the circuit breaker ignores them.
func IsNeutral(err error) bool {
	return errors.Is(err, ErrLocationNotFound)
}

// Fetch dispatches q to the matching upstream endpoint
func (c *Client) Fetch(ctx context.Context, q Query) (any, error) {
	switch q.Endpoint {
	case models.EndpointCurrent:
		return c.Current(ctx, q.City)
	case models.EndpointForecast:
		return c.Forecast(ctx, q.City, q.Days)
	case models.EndpointSearch:
		return c.Search(ctx, q.City)
	case models.EndpointHistory:
		return c.History(ctx, q.City, q.Date)
	default:
		return nil, fmt.Errorf("unknown endpoint %q", q.Endpoint)
	}
}

func (c *Client) Current(ctx context.Context, city string) (*CurrentReport, error) {
	var report CurrentReport
	err := c.get(ctx, "/current.json", url.Values{"q": {city}, "aqi": {"yes"}}, &report)
	if err != nil {
		return nil, err
	}
	return &report, nil
}

func (c *Client) Forecast(ctx context.Context, city string, days int) (*ForecastReport, error) {
	days = min(max(days, MinForecastDays), MaxForecastDays)

	var env forecastEnvelope
	params := url.Values{
		"q":      {city},
		"days":   {strconv.Itoa(days)},
		"aqi":    {"yes"},
		"alerts": {"yes"},
	}
	if err := c.get(ctx, "/forecast.json", params, &env); err != nil {
		return nil, err
	}

	report := &ForecastReport{
		Location: env.Location,
		Current:  env.Current,
		Forecast: env.Forecast.ForecastDay,
		Alerts:   []Alert{},
	}
	if env.Alerts != nil && env.Alerts.Alert != nil {
		report.Alerts = env.Alerts.Alert
	}

	return report, nil
}

func (c *Client) History(ctx context.Context, city, date string) (*HistoryReport, error) {
	var env forecastEnvelope
	if err := c.get(ctx, "/history.json", url.Values{"q": {city}, "dt": {date}}, &env); err != nil {
		return nil, err
	}

	return &HistoryReport{
		Location: env.Location,
		Forecast: env.Forecast.ForecastDay,
	}, nil
}

func (c *Client) Search(ctx context.Context, query string) ([]City, error) {
	cities := []City{}
	if err := c.get(ctx, "/search.json", url.Values{"q": {query}}, &cities); err != nil {
		return nil, err
	}
	return cities, nil
}

func (c *Client) BreakerMetrics() circuitbreaker.Metrics {
	return c.breaker.Metrics()
}

func (c *Client) ResetBreaker() {
	c.breaker.Reset()
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	params.Set("key", c.apiKey)
	endpoint := c.baseURL + path + "?" + params.Encode()

	return c.breaker.Call(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("weather api request failed: %w", err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
		if err != nil {
			return fmt.Errorf("failed to read weather api response: %w", err)
		}

		if resp.StatusCode != http.StatusOK {
			return decodeError(resp.StatusCode, body)
		}

		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("failed to decode weather api response: %w", err)
		}
		return nil
	})
}

func decodeError(status int, body []byte) error {
	var env errorEnvelope
	_ = json.Unmarshal(body, &env)

	// weatherapi answers 400 with code 1006 for unknown locations
	if status == http.StatusBadRequest {
		return ErrLocationNotFound
	}

	msg := env.Error.Message
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &UpstreamError{StatusCode: status, Message: msg}
}
