package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	AdmissionDecisions *prometheus.CounterVec
	AdmissionFailOpen  prometheus.Counter
	CacheLookups       *prometheus.CounterVec
	UpstreamCalls      *prometheus.CounterVec
	HitsRecorded       *prometheus.CounterVec
	HitsPurged         prometheus.Counter
}

// New registers the collectors on reg. Pass prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		AdmissionDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "weather_admission_decisions_total",
			Help: "Quota admission decisions by outcome and reason",
		}, []string{"outcome", "reason"}),
		AdmissionFailOpen: factory.NewCounter(prometheus.CounterOpts{
			Name: "weather_admission_fail_open_total",
			Help: "Requests admitted because the usage ledger could not be read",
		}),
		CacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "weather_response_cache_lookups_total",
			Help: "Response cache lookups by result",
		}, []string{"result"}),
		UpstreamCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "weather_upstream_calls_total",
			Help: "Upstream weather API calls by endpoint and result",
		}, []string{"endpoint", "result"}),
		HitsRecorded: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "weather_ledger_hits_recorded_total",
			Help: "Quota-consuming hits appended to the usage ledger",
		}, []string{"endpoint"}),
		HitsPurged: factory.NewCounter(prometheus.CounterOpts{
			Name: "weather_ledger_hits_purged_total",
			Help: "Ledger rows removed by retention cleanup",
		}),
	}
}

// Observation methods are no-ops on a nil *Metrics.
func (m *Metrics) ObserveDecision(allowed bool, reason string) {
	if m == nil {
		return
	}
	outcome := "denied"
	if allowed {
		outcome = "allowed"
	}
	m.AdmissionDecisions.WithLabelValues(outcome, reason).Inc()
}

func (m *Metrics) IncrementFailOpen() {
	if m == nil {
		return
	}
	m.AdmissionFailOpen.Inc()
}

func (m *Metrics) ObserveCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveUpstream(endpoint string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.UpstreamCalls.WithLabelValues(endpoint, result).Inc()
}

func (m *Metrics) IncrementHitsRecorded(endpoint string) {
	if m == nil {
		return
	}
	m.HitsRecorded.WithLabelValues(endpoint).Inc()
}

func (m *Metrics) AddHitsPurged(n int64) {
	if m == nil {
		return
	}
	m.HitsPurged.Add(float64(n))
}
