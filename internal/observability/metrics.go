package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "weather_now"

// Metrics holds the Prometheus collectors for lookups, upstream calls and sessions.
type Metrics struct {
	// Lookups by flow={name,location} and outcome={success,failed,rejected,busy}.
	Lookups *prometheus.CounterVec

	GeocodeRequests  *prometheus.CounterVec   // labels: method={forward,reverse}, outcome={success,error,empty}
	GeocodeCache     *prometheus.CounterVec   // labels: method={forward,reverse}, result={hit,miss}
	ForecastRequests *prometheus.CounterVec   // labels: outcome={success,error,unavailable}
	UpstreamDuration *prometheus.HistogramVec // labels: upstream={geocode_forward,geocode_reverse,forecast}

	ActiveSessions  prometheus.Gauge
	SessionsEvicted prometheus.Counter
}

func newMetrics() *Metrics {
	return &Metrics{
		Lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lookups_total",
			Help:      "User-triggered weather lookups by flow and outcome.",
		}, []string{"flow", "outcome"}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      "Geocoding requests by method and outcome.",
		}, []string{"method", "outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by method and result.",
		}, []string{"method", "result"}),
		ForecastRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "forecast_requests_total",
			Help:      "Current-conditions requests by outcome.",
		}, []string{"outcome"}),
		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_duration_seconds",
			Help:      "Upstream HTTP request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"upstream"}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Sessions currently held in memory.",
		}),
		SessionsEvicted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_evicted_total",
			Help:      "Sessions dropped for idleness or capacity.",
		}),
	}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.Lookups,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.ForecastRequests,
		m.UpstreamDuration,
		m.ActiveSessions,
		m.SessionsEvicted,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics so tests can build as
// many as they need.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}
