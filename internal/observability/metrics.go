package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "precip_anomaly"

// Metrics holds the Prometheus counters, histograms, and gauges for the anomaly service.
type Metrics struct {
	Computations       *prometheus.CounterVec // labels: outcome={success,invalid,unavailable,error}
	ComputeDuration    prometheus.Histogram
	RowsScored         prometheus.Counter
	RowsDropped        prometheus.Counter
	RowsUndefined      *prometheus.CounterVec // labels: status={insufficient_window,insufficient_baseline_samples,undefined_anomaly}
	ObservationsLoaded prometheus.Gauge

	// Source fetch metrics.
	SourceFetches       *prometheus.CounterVec // labels: outcome={success,error}
	SourceFetchDuration prometheus.Histogram
	CacheLookups        *prometheus.CounterVec // labels: result={hit,miss,expired}
	DataReady           prometheus.Gauge

	// Kafka sink metrics.
	MessagesPublished prometheus.Counter
	PublishErrors     prometheus.Counter
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

// NewMetricsWith creates all service metrics and registers them with reg.
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	m := newMetrics()
	reg.MustRegister(
		m.Computations,
		m.ComputeDuration,
		m.RowsScored,
		m.RowsDropped,
		m.RowsUndefined,
		m.ObservationsLoaded,
		m.SourceFetches,
		m.SourceFetchDuration,
		m.CacheLookups,
		m.DataReady,
		m.MessagesPublished,
		m.PublishErrors,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		Computations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "computations_total",
			Help:      "Anomaly computations by outcome.",
		}, []string{"outcome"}),
		ComputeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "compute_duration_seconds",
			Help:      "Duration of one anomaly computation, including any source load.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		RowsScored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_scored_total",
			Help:      "Display-year rows returned by computations.",
		}),
		RowsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_dropped_total",
			Help:      "Display-year rows dropped because their day-of-year had no baseline group.",
		}),
		RowsUndefined: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_undefined_total",
			Help:      "Rows returned without a z-score, by status.",
		}, []string{"status"}),
		ObservationsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "observations_loaded",
			Help:      "Observations in the most recently loaded batch.",
		}),
		SourceFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_fetches_total",
			Help:      "HadUKP region file fetches by outcome.",
		}, []string{"outcome"}),
		SourceFetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "source_fetch_duration_seconds",
			Help:      "HadUKP region file fetch duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Observation cache lookups by result.",
		}, []string{"result"}),
		DataReady: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "data_ready",
			Help:      "1 once the full region set has been loaded, 0 otherwise.",
		}),
		MessagesPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_published_total",
			Help:      "Total messages written to the sink topic.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Total sink publish failures.",
		}),
	}
}
