package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/aman-churiwal/weather-dashboard/internal/models"
	"github.com/aman-churiwal/weather-dashboard/internal/weather"
	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
)

// BindWeatherQuery parses and validates the query string for endpoint.
// It runs before the cache so invalid requests never reach it.
func BindWeatherQuery(endpoint models.Endpoint, clock clockwork.Clock) gin.HandlerFunc {
	return func(c *gin.Context) {
		q := weather.Query{Endpoint: endpoint}

		switch endpoint {
		case models.EndpointSearch:
			q.City = strings.TrimSpace(c.Query("q"))
		default:
			q.City = strings.TrimSpace(c.Query("city"))
		}

		if endpoint == models.EndpointForecast {
			q.Days = weather.DefaultForecastDays
			if raw := c.Query("days"); raw != "" {
				days, err := strconv.Atoi(raw)
				if err != nil {
					c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "days must be an integer"})
					return
				}
				q.Days = days
			}
		}

		if endpoint == models.EndpointHistory {
			q.Date = c.Query("date")
		}

		if err := q.Validate(clock.Now()); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		c.Set(KeyQuery, q)
		c.Next()
	}
}
