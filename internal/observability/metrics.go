package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "propintel"

// Metrics holds the Prometheus collectors for analyses, provider calls and the batch worker.
type Metrics struct {
	// Analysis metrics.
	Analyses         *prometheus.CounterVec   // labels: outcome={complete,degraded,failed}
	AnalysisDuration prometheus.Histogram     // end to end
	ProviderRequests *prometheus.CounterVec   // labels: provider, outcome={success,degraded,unavailable}
	ProviderDuration *prometheus.HistogramVec // labels: provider
	Degradations     *prometheus.CounterVec   // labels: provider
	CountyCache      *prometheus.CounterVec   // labels: result={hit,miss}
	ProvidersEnabled *prometheus.GaugeVec     // labels: provider

	// Batch worker metrics.
	MessagesConsumed        prometheus.Counter
	MessagesProduced        prometheus.Counter
	MalformedRequests       prometheus.Counter
	WorkerRunning           prometheus.Gauge
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram
}

func newMetrics() *Metrics {
	return &Metrics{
		Analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_total",
			Help:      "Property analyses by outcome.",
		}, []string{"outcome"}),
		AnalysisDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_duration_seconds",
			Help:      "End-to-end duration of one property analysis.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30},
		}),
		ProviderRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_requests_total",
			Help:      "Provider adapter calls by provider and result status.",
		}, []string{"provider", "outcome"}),
		ProviderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_duration_seconds",
			Help:      "Provider adapter call duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		}, []string{"provider"}),
		Degradations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "degradations_total",
			Help:      "Optional report sections replaced by substitute data.",
		}, []string{"provider"}),
		CountyCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "county_cache_total",
			Help:      "County roster cache lookups by result.",
		}, []string{"result"}),
		ProvidersEnabled: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "provider_enabled",
			Help:      "1 when an optional provider is configured, 0 otherwise.",
		}, []string{"provider"}),
		MessagesConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_consumed_total",
			Help:      "Analysis requests read from the request topic.",
		}),
		MessagesProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_produced_total",
			Help:      "Analysis outcomes written to the report topic.",
		}),
		MalformedRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "malformed_requests_total",
			Help:      "Request messages skipped because they could not be decoded.",
		}),
		WorkerRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "worker_running",
			Help:      "1 when the batch worker is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_size",
			Help:      "Number of analysis requests per batch.",
			Buckets:   []float64{1, 2, 5, 10, 20, 50},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete read-analyze-write cycle.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.Analyses,
		m.AnalysisDuration,
		m.ProviderRequests,
		m.ProviderDuration,
		m.Degradations,
		m.CountyCache,
		m.ProvidersEnabled,
		m.MessagesConsumed,
		m.MessagesProduced,
		m.MalformedRequests,
		m.WorkerRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
	}
}

// NewMetrics creates all metrics and registers them with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics registered with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	m := newMetrics()
	prometheus.NewRegistry().MustRegister(m.collectors()...)
	return m
}

// ObserveProvider records one adapter call.
func (m *Metrics) ObserveProvider(provider, outcome string, elapsed time.Duration) {
	m.ProviderRequests.WithLabelValues(provider, outcome).Inc()
	m.ProviderDuration.WithLabelValues(provider).Observe(elapsed.Seconds())
}

// SetProviderEnabled flips the enabled gauge for a provider.
func (m *Metrics) SetProviderEnabled(provider string, enabled bool) {
	v := 0.0
	if enabled {
		v = 1
	}
	m.ProvidersEnabled.WithLabelValues(provider).Set(v)
}
