package service

import (
	"log/slog"

	"github.com/aman-churiwal/weather-dashboard/internal/metrics"
	"github.com/jonboulle/clockwork"
)

type options struct {
	logger  *slog.Logger
	clock   clockwork.Clock
	metrics *metrics.Metrics
}

// Option configures the services in this package. Not every service reads
// every option.
type Option func(*options)

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func WithClock(clock clockwork.Clock) Option {
	return func(o *options) {
		o.clock = clock
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

func buildOptions(opts []Option) options {
	o := options{
		logger: slog.Default(),
		clock:  clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
