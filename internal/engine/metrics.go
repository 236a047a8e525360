package engine

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the engine's Prometheus instruments.
type Metrics struct {
	CyclesTotal          prometheus.Counter
	ControllersProcessed prometheus.Counter
	TranslationFailures  prometheus.Counter
	SinkPushes           prometheus.Counter
	SinkFailures         prometheus.Counter
	ControllersActive    prometheus.Gauge
	GroupsActive         prometheus.Gauge
	CycleDuration        prometheus.Histogram
}

// NewMetrics creates the engine's metric set and registers it with reg.
// A nil registerer yields working but unexported instruments, which is
// what tests and metric-less deployments use.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CyclesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "stockflow",
			Subsystem: "engine",
			Name:      "cycles_total",
			Help:      "Count of signal cycles run.",
		}),
		ControllersProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "stockflow",
			Subsystem: "engine",
			Name:      "controllers_processed_total",
			Help:      "Count of controllers swept across all signal cycles.",
		}),
		TranslationFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "stockflow",
			Subsystem: "engine",
			Name:      "translation_failures_total",
			Help:      "Count of controllers that failed signal translation or apply.",
		}),
		SinkPushes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "stockflow",
			Subsystem: "engine",
			Name:      "sink_pushes_total",
			Help:      "Count of successful group syncs to the downstream sink.",
		}),
		SinkFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "stockflow",
			Subsystem: "engine",
			Name:      "sink_failures_total",
			Help:      "Count of failed group syncs to the downstream sink.",
		}),
		ControllersActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "stockflow",
			Subsystem: "engine",
			Name:      "controllers_active",
			Help:      "Number of registered controllers.",
		}),
		GroupsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "stockflow",
			Subsystem: "engine",
			Name:      "groups_active",
			Help:      "Number of supply groups in the store.",
		}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "stockflow",
			Subsystem: "engine",
			Name:      "cycle_duration_seconds",
			Help:      "Wall time of a signal cycle.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.CyclesTotal,
			m.ControllersProcessed,
			m.TranslationFailures,
			m.SinkPushes,
			m.SinkFailures,
			m.ControllersActive,
			m.GroupsActive,
			m.CycleDuration,
		)
	}
	return m
}
