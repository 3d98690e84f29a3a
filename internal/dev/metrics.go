package dev

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsConfig configures the dev server metrics.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "inactive").
	Namespace string

	// Subsystem is the metrics subsystem (default: "dev").
	Subsystem string

	// Buckets are the histogram buckets for build duration.
	Buckets []float64

	// Registry is the Prometheus registry to use. Defaults to a fresh
	// registry owned by the Metrics value.
	Registry *prometheus.Registry
}

// MetricsOption configures the dev server metrics.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry *prometheus.Registry) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

// Metrics holds the dev server's Prometheus collectors. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry      *prometheus.Registry
	requests      *prometheus.CounterVec
	builds        *prometheus.CounterVec
	buildDuration prometheus.Histogram
	reloadClients prometheus.Gauge
}

// NewMetrics registers the dev server collectors.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := MetricsConfig{
		Namespace: "inactive",
		Subsystem: "dev",
		Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30},
	}
	for _, opt := range opts {
		opt(&config)
	}
	if config.Registry == nil {
		config.Registry = prometheus.NewRegistry()
	}

	factory := promauto.With(config.Registry)
	return &Metrics{
		registry: config.Registry,

		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Subsystem: config.Subsystem,
			Name:      "requests_total",
			Help:      "Total number of HTTP requests served by the dev server",
		}, []string{"method", "code"}),

		builds: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Subsystem: config.Subsystem,
			Name:      "builds_total",
			Help:      "Total number of WebAssembly builds",
		}, []string{"result"}),

		buildDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: config.Namespace,
			Subsystem: config.Subsystem,
			Name:      "build_duration_seconds",
			Help:      "WebAssembly build duration in seconds",
			Buckets:   config.Buckets,
		}),

		reloadClients: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: config.Namespace,
			Subsystem: config.Subsystem,
			Name:      "reload_clients",
			Help:      "Number of browsers connected for live reload",
		}),
	}
}

// Handler serves the metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware counts requests by method and status code.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.requests.WithLabelValues(r.Method, strconv.Itoa(status)).Inc()
	})
}

// ObserveBuild records a finished build.
func (m *Metrics) ObserveBuild(success bool, d time.Duration) {
	if m == nil {
		return
	}
	result := "success"
	if !success {
		result = "failure"
	}
	m.builds.WithLabelValues(result).Inc()
	m.buildDuration.Observe(d.Seconds())
}

// SetReloadClients records the number of connected reload clients.
func (m *Metrics) SetReloadClients(n int) {
	if m == nil {
		return
	}
	m.reloadClients.Set(float64(n))
}
