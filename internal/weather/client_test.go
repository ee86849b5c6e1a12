package weather

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aman-churiwal/weather-dashboard/internal/circuitbreaker"
	"github.com/aman-churiwal/weather-dashboard/internal/models"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const currentBody = `{
	"location": {"name": "Paris", "region": "Ile-de-France", "country": "France", "lat": 48.87, "lon": 2.33, "localtime": "2026-03-01 12:00"},
	"current": {"temp_c": 11.0, "temp_f": 51.8, "condition": {"text": "Sunny", "icon": "//cdn/113.png", "code": 1000}, "humidity": 60, "unused": true}
}`

const forecastBody = `{
	"location": {"name": "Paris", "country": "France"},
	"current": {"temp_c": 11.0},
	"forecast": {"forecastday": [
		{"date": "2026-03-01", "day": {"maxtemp_c": 14.0}, "astro": {"sunrise": "07:30 AM"}, "hour": [{"time": "2026-03-01 00:00", "temp_c": 8.0}]},
		{"date": "2026-03-02", "day": {"maxtemp_c": 15.0}, "astro": {}, "hour": []}
	]},
	"alerts": {"alert": []}
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := NewClient(Config{
		BaseURL: srv.URL + "/",
		APIKey:  "test-key",
		Timeout: 2 * time.Second,
		Breaker: circuitbreaker.New(circuitbreaker.Config{
			MaxFailures: 2,
			IsNeutral:   IsNeutral,
			Clock:       clockwork.NewFakeClock(),
		}),
	})
	return client, srv
}

func TestClient_Current(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/current.json", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		assert.Equal(t, "Paris", r.URL.Query().Get("q"))
		w.Write([]byte(currentBody))
	})

	report, err := client.Current(context.Background(), "Paris")
	require.NoError(t, err)
	assert.Equal(t, "Paris", report.Location.Name)
	assert.Equal(t, 11.0, report.Current.TempC)
	assert.Equal(t, "Sunny", report.Current.Condition.Text)
}

func TestClient_Forecast(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/forecast.json", r.URL.Path)
		assert.Equal(t, "3", r.URL.Query().Get("days"), "days are clamped to the free tier maximum")
		w.Write([]byte(forecastBody))
	})

	report, err := client.Forecast(context.Background(), "Paris", 7)
	require.NoError(t, err)
	require.Len(t, report.Forecast, 2)
	assert.Equal(t, 14.0, report.Forecast[0].Day.MaxTempC)
	assert.NotNil(t, report.Alerts)
}

func TestClient_FetchDispatch(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search.json", r.URL.Path)
		w.Write([]byte(`[{"id": 1, "name": "Paris", "country": "France"}]`))
	})

	out, err := client.Fetch(context.Background(), Query{Endpoint: models.EndpointSearch, City: "Par"})
	require.NoError(t, err)
	cities, ok := out.([]City)
	require.True(t, ok)
	require.Len(t, cities, 1)
	assert.Equal(t, "Paris", cities[0].Name)
}

func TestClient_Errors(t *testing.T) {
	t.Run("unknown location maps to not found and never trips the breaker", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error": {"code": 1006, "message": "No matching location found."}}`))
		})

		for i := 0; i < 3; i++ {
			_, err := client.Current(context.Background(), "Nowhere")
			assert.ErrorIs(t, err, ErrLocationNotFound)
		}
		assert.Equal(t, circuitbreaker.StateClosed, client.BreakerMetrics().State)
	})

	t.Run("server errors open the breaker", func(t *testing.T) {
		var calls atomic.Int32
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusBadGateway)
		})

		for i := 0; i < 2; i++ {
			_, err := client.Current(context.Background(), "Paris")
			var upstream *UpstreamError
			require.True(t, errors.As(err, &upstream))
			assert.Equal(t, http.StatusBadGateway, upstream.StatusCode)
		}

		_, err := client.Current(context.Background(), "Paris")
		assert.ErrorIs(t, err, circuitbreaker.ErrCircuitOpen)
		assert.Equal(t, int32(2), calls.Load())
	})
}

func TestQuery(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

	t.Run("cache keys are normalized", func(t *testing.T) {
		a := Query{Endpoint: models.EndpointCurrent, City: "  Paris "}
		b := Query{Endpoint: models.EndpointCurrent, City: "paris"}
		assert.Equal(t, a.CacheKey(), b.CacheKey())

		f := Query{Endpoint: models.EndpointForecast, City: "Paris", Days: 2}
		assert.Equal(t, "forecast:paris:2", f.CacheKey())
		assert.NotEqual(t, a.CacheKey(), f.CacheKey())
	})

	t.Run("validation", func(t *testing.T) {
		assert.NoError(t, Query{Endpoint: models.EndpointCurrent, City: "Paris"}.Validate(now))
		assert.Error(t, Query{Endpoint: models.EndpointCurrent, City: "P"}.Validate(now))
		assert.Error(t, Query{Endpoint: models.EndpointForecast, City: "Paris", Days: 4}.Validate(now))
		assert.Error(t, Query{Endpoint: "radar", City: "Paris"}.Validate(now))
		assert.NoError(t, Query{Endpoint: models.EndpointHistory, City: "Paris", Date: "2026-03-05"}.Validate(now))
		assert.Error(t, Query{Endpoint: models.EndpointHistory, City: "Paris", Date: "2026-02-01"}.Validate(now))
		assert.Error(t, Query{Endpoint: models.EndpointHistory, City: "Paris", Date: "2026-03-11"}.Validate(now))
		assert.Error(t, Query{Endpoint: models.EndpointHistory, City: "Paris", Date: "yesterday"}.Validate(now))
	})
}
