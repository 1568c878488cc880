package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for a server instance. Each server
// carries its own registry so tests can start several servers in one process
// without duplicate registration panics.
type Metrics struct {
	registry *prometheus.Registry

	decisions     *prometheus.CounterVec
	checkDuration prometheus.Histogram
	wsClients     prometheus.Gauge
	liveKeys      prometheus.Gauge
}

// NewMetrics creates the collectors on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		decisions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "limitr_decisions_total",
				Help: "Total number of admission decisions",
			},
			[]string{"algorithm", "result"},
		),

		checkDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "limitr_check_duration_seconds",
				Help:    "Duration of admission checks in seconds",
				Buckets: prometheus.ExponentialBuckets(0.000001, 2, 15), // 1µs to 16ms
			},
		),

		wsClients: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "limitr_websocket_clients",
				Help: "Number of connected dashboard clients",
			},
		),

		liveKeys: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "limitr_live_keys",
				Help: "Number of keys with an active limiter",
			},
		),
	}
}

// RecordDecision records one admission decision.
func (m *Metrics) RecordDecision(algorithm string, allowed bool) {
	result := "allowed"
	if !allowed {
		result = "denied"
	}
	m.decisions.WithLabelValues(algorithm, result).Inc()
}

// RecordCheckDuration records how long an admission check took, in seconds.
func (m *Metrics) RecordCheckDuration(seconds float64) {
	m.checkDuration.Observe(seconds)
}

// SetWSClients updates the connected dashboard client gauge.
func (m *Metrics) SetWSClients(n int) {
	m.wsClients.Set(float64(n))
}

// SetLiveKeys updates the live key gauge.
func (m *Metrics) SetLiveKeys(n int) {
	m.liveKeys.Set(float64(n))
}

// Handler returns the scrape endpoint for this server's registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
