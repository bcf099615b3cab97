// Package metrics exposes Prometheus instruments for the extraction
// pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager holds the service's Prometheus instruments. A nil Manager is a
// no-op so tests can skip registration entirely.
type Manager struct {
	extractions     *prometheus.CounterVec
	extractDuration prometheus.Histogram
	quotaDenied     prometheus.Counter
	ledgerErrors    prometheus.Counter
}

func NewManager(namespace string) *Manager {
	if namespace == "" {
		namespace = "shots"
	}
	return &Manager{
		extractions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extractions_total",
			Help:      "Extraction requests by winning provider and outcome.",
		}, []string{"provider", "outcome"}),
		extractDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "extract_duration_seconds",
			Help:      "End-to-end extraction latency.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 1.5, 2, 3, 5},
		}),
		quotaDenied: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quota_denied_total",
			Help:      "Requests rejected by the daily quota.",
		}),
		ledgerErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_errors_total",
			Help:      "Failed ledger appends after a successful extraction.",
		}),
	}
}

func (m *Manager) RecordExtraction(provider, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.extractions.WithLabelValues(provider, outcome).Inc()
	if elapsed > 0 {
		m.extractDuration.Observe(elapsed.Seconds())
	}
}

func (m *Manager) RecordQuotaDenied() {
	if m == nil {
		return
	}
	m.quotaDenied.Inc()
}

func (m *Manager) RecordLedgerError() {
	if m == nil {
		return
	}
	m.ledgerErrors.Inc()
}

// Handler serves the default registry for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
