package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	globalMetrics *Metrics
	globalMu      sync.RWMutex
)

// Metrics holds all Prometheus metrics for the widget backend
type Metrics struct {
	// Widget builder
	GenerationsTotal          *prometheus.CounterVec
	GenerationDurationSeconds prometheus.Histogram
	GenerationFramesTotal     *prometheus.CounterVec
	GenerationsActive         prometheus.Gauge

	// Sandbox and binding
	RendersTotal         *prometheus.CounterVec
	TemplateFetchesTotal *prometheus.CounterVec

	// API metrics
	APIRequestsTotal          *prometheus.CounterVec
	APIRequestDurationSeconds *prometheus.HistogramVec

	registry *prometheus.Registry
}

// New creates a new Metrics instance with all metrics registered
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		GenerationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hunteros_generations_total",
				Help: "Widget builder generations by outcome",
			},
			[]string{"outcome"},
		),
		GenerationDurationSeconds: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "hunteros_generation_duration_seconds",
				Help:    "Wall time of widget builder generations",
				Buckets: []float64{1, 2.5, 5, 10, 20, 40, 80, 160, 300},
			},
		),
		GenerationFramesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hunteros_generation_frames_total",
				Help: "Stream frames written by the widget builder",
			},
			[]string{"kind"},
		),
		GenerationsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "hunteros_generations_active",
				Help: "Generations currently streaming",
			},
		),
		RendersTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hunteros_sandbox_renders_total",
				Help: "Sandbox documents rendered by isolation mode",
			},
			[]string{"mode", "empty"},
		),
		TemplateFetchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hunteros_template_fetches_total",
				Help: "Live template lookups for bound widgets",
			},
			[]string{"result"},
		),
		APIRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hunteros_api_requests_total",
				Help: "Total number of API requests",
			},
			[]string{"method", "path", "status"},
		),
		APIRequestDurationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hunteros_api_request_duration_seconds",
				Help:    "API request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		registry: reg,
	}

	reg.MustRegister(
		m.GenerationsTotal,
		m.GenerationDurationSeconds,
		m.GenerationFramesTotal,
		m.GenerationsActive,
		m.RendersTotal,
		m.TemplateFetchesTotal,
		m.APIRequestsTotal,
		m.APIRequestDurationSeconds,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Init creates the global metrics instance
func Init() *Metrics {
	m := New()
	globalMu.Lock()
	globalMetrics = m
	globalMu.Unlock()
	return m
}

// Global returns the global metrics instance, nil before Init
func Global() *Metrics {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalMetrics
}

// Registry exposes the registry for tests and custom collectors
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordGeneration counts a finished generation
func RecordGeneration(outcome string, duration time.Duration) {
	if m := Global(); m != nil {
		m.GenerationsTotal.WithLabelValues(outcome).Inc()
		m.GenerationDurationSeconds.Observe(duration.Seconds())
	}
}

// GenerationStarted tracks the active gauge; call the returned func when done
func GenerationStarted() func() {
	m := Global()
	if m == nil {
		return func() {}
	}
	m.GenerationsActive.Inc()
	return m.GenerationsActive.Dec
}

// RecordFrame counts one written stream frame
func RecordFrame(kind string) {
	if m := Global(); m != nil {
		m.GenerationFramesTotal.WithLabelValues(kind).Inc()
	}
}

// RecordRender counts one sandbox document
func RecordRender(mode string, empty bool) {
	if m := Global(); m != nil {
		m.RendersTotal.WithLabelValues(mode, strconv.FormatBool(empty)).Inc()
	}
}

// RecordTemplateFetch counts a live template lookup by result
func RecordTemplateFetch(result string) {
	if m := Global(); m != nil {
		m.TemplateFetchesTotal.WithLabelValues(result).Inc()
	}
}

// GinMiddleware records request count and latency per route template
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		m := Global()
		if m == nil {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		// FullPath is the route pattern, which keeps label cardinality bounded
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())

		m.APIRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		m.APIRequestDurationSeconds.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}
