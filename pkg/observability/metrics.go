package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	// History metrics
	HistoryLookupsTotal   *prometheus.CounterVec
	HistoryLookupDuration *prometheus.HistogramVec
	HistoryCancelledTotal *prometheus.CounterVec
	HistorySectionsTotal  prometheus.Gauge
	HistoryLatencySeconds prometheus.Gauge
	HistoryWarmupsTotal   *prometheus.CounterVec

	// Cache metrics
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec
	CacheErrorsTotal *prometheus.CounterVec

	otel *OTelMetrics
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hearth_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hearth_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		HTTPResponseSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hearth_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 6),
			},
			[]string{"method", "route"},
		),

		HistoryLookupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hearth_history_lookups_total",
				Help: "Total number of section history lookups by outcome",
			},
			[]string{"outcome"},
		),
		HistoryLookupDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hearth_history_lookup_duration_seconds",
				Help:    "Time spent in the history source, excluding simulated latency",
				Buckets: []float64{.0001, .001, .01, .05, .1, .5, 1, 5},
			},
			[]string{"outcome"},
		),
		HistoryCancelledTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hearth_history_cancelled_total",
				Help: "Pending resolutions abandoned before delivery",
			},
			[]string{"reason"},
		),
		HistorySectionsTotal: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "hearth_history_sections",
				Help: "Number of sections in the loaded history table",
			},
		),
		HistoryLatencySeconds: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "hearth_history_latency_seconds",
				Help: "Configured simulated lookup latency",
			},
		),
		HistoryWarmupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hearth_history_warmups_total",
				Help: "Cache warm-up runs by status",
			},
			[]string{"status"},
		),

		CacheHitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hearth_cache_hits_total",
				Help: "Total number of cache hits",
			},
			[]string{"tier"},
		),
		CacheMissesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hearth_cache_misses_total",
				Help: "Total number of cache misses",
			},
			[]string{"tier"},
		),
		CacheErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hearth_cache_errors_total",
				Help: "Total number of cache backend errors",
			},
			[]string{"tier"},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPResponseSize,
		m.HistoryLookupsTotal,
		m.HistoryLookupDuration,
		m.HistoryCancelledTotal,
		m.HistorySectionsTotal,
		m.HistoryLatencySeconds,
		m.HistoryWarmupsTotal,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.CacheErrorsTotal,
	)

	return m
}

// AttachOTel mirrors history and cache recordings into OpenTelemetry instruments
func (m *Metrics) AttachOTel(o *OTelMetrics) {
	m.otel = o
}

// RecordLookup counts a history lookup; it satisfies history.Recorder
func (m *Metrics) RecordLookup(outcome string, duration time.Duration) {
	m.HistoryLookupsTotal.WithLabelValues(outcome).Inc()
	m.HistoryLookupDuration.WithLabelValues(outcome).Observe(duration.Seconds())
	if m.otel != nil {
		m.otel.RecordLookup(outcome, duration)
	}
}

// RecordCancelled counts an abandoned resolution; it satisfies history.Recorder
func (m *Metrics) RecordCancelled(reason string) {
	m.HistoryCancelledTotal.WithLabelValues(reason).Inc()
	if m.otel != nil {
		m.otel.RecordCancelled(reason)
	}
}

// CacheHit counts a hit in the given cache tier
func (m *Metrics) CacheHit(tier string) {
	m.CacheHitsTotal.WithLabelValues(tier).Inc()
	if m.otel != nil {
		m.otel.CacheHit(tier)
	}
}

// CacheMiss counts a miss in the given cache tier
func (m *Metrics) CacheMiss(tier string) {
	m.CacheMissesTotal.WithLabelValues(tier).Inc()
	if m.otel != nil {
		m.otel.CacheMiss(tier)
	}
}

// CacheError counts a backend failure in the given cache tier
func (m *Metrics) CacheError(tier string) {
	m.CacheErrorsTotal.WithLabelValues(tier).Inc()
	if m.otel != nil {
		m.otel.CacheError(tier)
	}
}

// SetTableInfo publishes the loaded table size and configured latency
func (m *Metrics) SetTableInfo(sections int, latency time.Duration) {
	m.HistorySectionsTotal.Set(float64(sections))
	m.HistoryLatencySeconds.Set(latency.Seconds())
}

// responseWriter wraps http.ResponseWriter to capture status code and size
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += n
	return n, err
}

// routeLabel prefers the mux route template so section ids don't explode label cardinality
func routeLabel(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tmpl, err := route.GetPathTemplate(); err == nil {
			return tmpl
		}
	}
	return "unmatched"
}

// HTTPMetricsMiddleware instruments HTTP requests with Prometheus metrics
func HTTPMetricsMiddleware(metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rw := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			next.ServeHTTP(rw, r)

			route := routeLabel(r)
			status := strconv.Itoa(rw.statusCode)
			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, route, status).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
			metrics.HTTPResponseSize.WithLabelValues(r.Method, route).Observe(float64(rw.bytesWritten))
		})
	}
}

// MetricsHandler serves the registry in the Prometheus exposition format
func MetricsHandler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
