// Package metrics provides Prometheus metrics for the diagnostics service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager owns all Prometheus collectors for the service.
type Manager struct {
	namespace        string
	histogramBuckets []float64
	enabled          bool
	registry         *prometheus.Registry

	predictionsTotal  *prometheus.CounterVec
	predictionErrors  *prometheus.CounterVec
	inferenceDuration *prometheus.HistogramVec

	modelLoadDuration prometheus.Histogram
	artifactCacheSize prometheus.Gauge

	upstreamFetchErrors prometheus.Counter

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Global manager instance, backed by a custom registry so the default Go
// collectors never pollute scrape output.
//nolint:gochecknoglobals // singleton metrics manager and registry
var (
	globalManager  *Manager
	customRegistry = prometheus.NewRegistry()
)

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithRegistry(customRegistry))
}

// NewManager creates a metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "gridsight",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		registry:         prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(m)
	}

	factory := promauto.With(m.registry)

	m.predictionsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "predictions_total",
		Help:      "Diagnostic predictions served, by component and invocation mode.",
	}, []string{"component", "mode"})

	m.predictionErrors = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "prediction_errors_total",
		Help:      "Failed diagnostic predictions, by component.",
	}, []string{"component"})

	m.inferenceDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "inference_duration_seconds",
		Help:      "End to end pipeline latency per prediction.",
		Buckets:   m.histogramBuckets,
	}, []string{"component"})

	m.modelLoadDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "model_load_duration_seconds",
		Help:      "Cold artifact bundle load latency.",
		Buckets:   m.histogramBuckets,
	})

	m.artifactCacheSize = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "artifact_cache_size",
		Help:      "Loaded artifact bundles resident in the process cache.",
	})

	m.upstreamFetchErrors = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "upstream_fetch_errors_total",
		Help:      "Telemetry or asset metadata fetch failures.",
	})

	m.httpRequests = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests served, by endpoint and status class.",
	}, []string{"endpoint", "status"})

	m.httpRequestDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency, by endpoint.",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint"})

	return m
}

// RecordPrediction counts one served prediction.
func RecordPrediction(component, mode string) {
	if globalManager.enabled {
		globalManager.predictionsTotal.WithLabelValues(component, mode).Inc()
	}
}

// RecordPredictionError counts one failed prediction.
func RecordPredictionError(component string) {
	if globalManager.enabled {
		globalManager.predictionErrors.WithLabelValues(component).Inc()
	}
}

// ObserveInference records pipeline latency for a component.
func ObserveInference(component string, d time.Duration) {
	if globalManager.enabled {
		globalManager.inferenceDuration.WithLabelValues(component).Observe(d.Seconds())
	}
}

// ObserveModelLoad records a cold artifact load.
func ObserveModelLoad(d time.Duration) {
	if globalManager.enabled {
		globalManager.modelLoadDuration.Observe(d.Seconds())
	}
}

// SetArtifactCacheSize updates the resident bundle gauge.
func SetArtifactCacheSize(n int) {
	if globalManager.enabled {
		globalManager.artifactCacheSize.Set(float64(n))
	}
}

// RecordUpstreamFetchError counts one upstream fetch failure.
func RecordUpstreamFetchError() {
	if globalManager.enabled {
		globalManager.upstreamFetchErrors.Inc()
	}
}

// RecordHTTPRequest counts one HTTP request.
func RecordHTTPRequest(endpoint, status string) {
	if globalManager.enabled {
		globalManager.httpRequests.WithLabelValues(endpoint, status).Inc()
	}
}

// ObserveHTTPRequest records HTTP latency for an endpoint.
func ObserveHTTPRequest(endpoint string, d time.Duration) {
	if globalManager.enabled {
		globalManager.httpRequestDuration.WithLabelValues(endpoint).Observe(d.Seconds())
	}
}

// Handler exposes the custom registry for scraping.
func Handler() http.Handler {
	return promhttp.HandlerFor(customRegistry, promhttp.HandlerOpts{})
}
