package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus instruments for the discovery pipeline.
type Metrics struct {
	FramesProcessed    *prometheus.CounterVec // label: kind={presence,disclosure}
	MalformedEvents    prometheus.Counter
	StationsTracked    prometheus.Gauge
	HiddenResolved     prometheus.Counter
	UnknownDisclosures prometheus.Counter

	ObservationsStored prometheus.Counter
	BatchFlushDuration prometheus.Histogram
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.FramesProcessed,
		m.MalformedEvents,
		m.StationsTracked,
		m.HiddenResolved,
		m.UnknownDisclosures,
		m.ObservationsStored,
		m.BatchFlushDuration,
	)
	return m
}

// NewMetricsForTesting creates Metrics without touching the default
// registry, avoiding "already registered" panics across tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		FramesProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wifi_observer",
			Name:      "frames_processed_total",
			Help:      "Decoded management frames applied to the engine, by frame kind.",
		}, []string{"kind"}),
		MalformedEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wifi_observer",
			Name:      "malformed_events_total",
			Help:      "Decoder events rejected for missing required fields.",
		}),
		StationsTracked: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "wifi_observer",
			Name:      "stations_tracked",
			Help:      "Unique stations currently tracked in the session.",
		}),
		HiddenResolved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wifi_observer",
			Name:      "hidden_resolved_total",
			Help:      "Concealed stations whose names were uncovered by disclosure frames.",
		}),
		UnknownDisclosures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wifi_observer",
			Name:      "unknown_disclosures_total",
			Help:      "Disclosure frames naming stations never seen before.",
		}),
		ObservationsStored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wifi_observer",
			Name:      "observations_stored_total",
			Help:      "Signal observations written to storage.",
		}),
		BatchFlushDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "wifi_observer",
			Name:      "batch_flush_duration_seconds",
			Help:      "Duration of a storage batch flush.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
	}
}
