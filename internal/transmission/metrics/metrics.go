package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the transmission pipeline.
type Metrics struct {
	// Push outcomes by result: "ok", "rejected", "error"
	PushOutcomes *prometheus.CounterVec

	// Movements accepted into transmission
	PushedMovements prometheus.Counter

	PushDuration prometheus.Histogram

	// Movements reconciled from the Registry
	PulledMovements prometheus.Counter

	// Per-movement pull mapping/persistence failures
	PullErrors prometheus.Counter

	PullDuration prometheus.Histogram
}

// New creates a new Metrics instance with all transmission metrics
// registered.
func New() *Metrics {
	return &Metrics{
		PushOutcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "rentrihub_push_outcomes_total",
			Help: "Total push submissions by outcome",
		}, []string{"outcome"}),

		PushedMovements: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rentrihub_pushed_movements_total",
			Help: "Total movements accepted into transmission",
		}),

		PushDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "rentrihub_push_duration_seconds",
			Help:    "Duration of push submissions including retries",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),

		PulledMovements: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rentrihub_pulled_movements_total",
			Help: "Total movements reconciled from the Registry",
		}),

		PullErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rentrihub_pull_errors_total",
			Help: "Total per-movement reconciliation failures",
		}),

		PullDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "rentrihub_pull_duration_seconds",
			Help:    "Duration of one register's pull reconciliation",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
	}
}

// ObservePush records a push outcome. Safe on a nil receiver so tests can
// run without a registry.
func (m *Metrics) ObservePush(outcome string, pushed int, start time.Time) {
	if m == nil {
		return
	}
	m.PushOutcomes.WithLabelValues(outcome).Inc()
	m.PushedMovements.Add(float64(pushed))
	m.PushDuration.Observe(time.Since(start).Seconds())
}

// ObservePull records a pull outcome. Safe on a nil receiver.
func (m *Metrics) ObservePull(pulled, failed int, start time.Time) {
	if m == nil {
		return
	}
	m.PulledMovements.Add(float64(pulled))
	m.PullErrors.Add(float64(failed))
	m.PullDuration.Observe(time.Since(start).Seconds())
}
