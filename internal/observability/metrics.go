package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "wu_history"

// Metrics holds the Prometheus collectors for the proxy, the normalizer and
// the load lifecycle.
type Metrics struct {
	// Upstream metrics.
	UpstreamRequests *prometheus.CounterVec // labels: outcome={success,error,status}
	UpstreamDuration prometheus.Histogram
	CacheLookups     *prometheus.CounterVec // labels: result={hit,miss,expired}

	// Normalization metrics.
	ObservationsNormalized prometheus.Counter
	EmptyObservations      prometheus.Counter

	// Load lifecycle metrics.
	Loads          *prometheus.CounterVec // labels: outcome={done,error,rejected}
	LoadInProgress prometheus.Gauge

	// HTTP and sink metrics.
	HTTPRequests  *prometheus.CounterVec // labels: route, code
	SinkPublished prometheus.Counter
	SinkErrors    prometheus.Counter
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	return NewMetricsWithRegistry(prometheus.DefaultRegisterer)
}

// NewMetricsWithRegistry creates metrics and registers them with reg.
func NewMetricsWithRegistry(reg prometheus.Registerer) *Metrics {
	m := newMetrics()
	reg.MustRegister(
		m.UpstreamRequests,
		m.UpstreamDuration,
		m.CacheLookups,
		m.ObservationsNormalized,
		m.EmptyObservations,
		m.Loads,
		m.LoadInProgress,
		m.HTTPRequests,
		m.SinkPublished,
		m.SinkErrors,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Weather Underground history requests by outcome.",
		}, []string{"outcome"}),
		UpstreamDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_duration_seconds",
			Help:      "Weather Underground history request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "History response cache lookups by result.",
		}, []string{"result"}),
		ObservationsNormalized: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "observations_normalized_total",
			Help:      "Observations produced by the normalizer.",
		}),
		EmptyObservations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "observations_empty_total",
			Help:      "Normalized observations in which no quantity resolved.",
		}),
		Loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loads_total",
			Help:      "Dashboard load attempts by outcome.",
		}, []string{"outcome"}),
		LoadInProgress: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "load_in_progress",
			Help:      "1 while a dashboard load is in flight, 0 otherwise.",
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
		SinkPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sink_messages_published_total",
			Help:      "Normalized observations written to the Kafka sink.",
		}),
		SinkErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sink_errors_total",
			Help:      "Failed Kafka sink batches.",
		}),
	}
}
