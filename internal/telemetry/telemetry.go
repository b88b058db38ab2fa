// Package telemetry wires Prometheus counters/histograms for ingestion,
// grounded on rcourtman-Pulse's cmd/pulse-agent/main.go promauto usage and
// exposed on /metrics via promhttp.Handler, same as that binary's mux wiring.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics implements internal/session.Metrics against real Prometheus
// collectors.
type Metrics struct {
	sessionDuration    prometheus.Histogram
	urInserted         prometheus.Counter
	urStatus           *prometheus.CounterVec
	capturableExecDurn prometheus.Histogram
}

// New registers every ingestion collector against reg. Pass
// prometheus.DefaultRegisterer in production; tests pass a fresh
// prometheus.NewRegistry() so repeated calls don't collide on metric names.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		sessionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "surveilr_ingest_session_duration_seconds",
			Help:    "Wall-clock duration of one ingestion session.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 16),
		}),
		urInserted: factory.NewCounter(prometheus.CounterOpts{
			Name: "surveilr_uniform_resources_inserted_total",
			Help: "Total uniform_resource rows inserted across all sessions.",
		}),
		urStatus: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "surveilr_ur_entry_status_total",
			Help: "Count of fs_path_entry/task rows by ur_status.",
		}, []string{"status"}),
		capturableExecDurn: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "surveilr_capturable_exec_duration_seconds",
			Help:    "Wall-clock duration of one capturable-executable invocation.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) ObserveSessionDuration(seconds float64) { m.sessionDuration.Observe(seconds) }
func (m *Metrics) IncUniformResourceInserted()             { m.urInserted.Inc() }
func (m *Metrics) ObserveCapturableExecDuration(seconds float64) {
	m.capturableExecDurn.Observe(seconds)
}

func (m *Metrics) IncURStatus(status string) {
	if status == "" {
		return
	}
	m.urStatus.WithLabelValues(status).Inc()
}

// Handler returns the standard promhttp handler for mounting at /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}
