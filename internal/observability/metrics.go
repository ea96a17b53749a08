package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "weatherd"

// Metrics holds the Prometheus counters, histograms, and gauges for the poll loop.
type Metrics struct {
	PollCycles      *prometheus.CounterVec // labels: outcome={success,partial,total_failure,publish_error,panic}
	PipelineRunning prometheus.Gauge

	// Upstream fetch metrics.
	FetchRequests *prometheus.CounterVec   // labels: section, outcome={success,status_error,decode_error,transport_error}
	FetchRetries  *prometheus.CounterVec   // labels: section
	FetchDuration *prometheus.HistogramVec // labels: section

	// Publication metrics.
	PublishDuration      prometheus.Histogram
	PublishErrors        prometheus.Counter
	MirrorErrors         *prometheus.CounterVec // labels: sink
	ArtifactBytes        prometheus.Gauge
	LastSuccessTimestamp prometheus.Gauge
}

// NewMetrics creates and registers all daemon metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		PollCycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_cycles_total",
			Help:      "Completed poll cycles by outcome.",
		}, []string{"outcome"}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 when the poll loop is active, 0 when shut down.",
		}),
		FetchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_requests_total",
			Help:      "Upstream section fetches by section and final outcome.",
		}, []string{"section", "outcome"}),
		FetchRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_retries_total",
			Help:      "Upstream request retries after transport errors.",
		}, []string{"section"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Duration of a section fetch including retries.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"section"}),
		PublishDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "publish_duration_seconds",
			Help:      "Duration of the atomic artifact write.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Failed artifact writes.",
		}),
		MirrorErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mirror_errors_total",
			Help:      "Failed best-effort mirror writes by sink.",
		}, []string{"sink"}),
		ArtifactBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "artifact_bytes",
			Help:      "Size of the last published artifact.",
		}),
		LastSuccessTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful publication.",
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.PollCycles,
		m.PipelineRunning,
		m.FetchRequests,
		m.FetchRetries,
		m.FetchDuration,
		m.PublishDuration,
		m.PublishErrors,
		m.MirrorErrors,
		m.ArtifactBytes,
		m.LastSuccessTimestamp,
	}
}
