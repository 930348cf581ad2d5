package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry
	service  string

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	cacheHitsTotal       *prometheus.CounterVec
	degradedTotal        *prometheus.CounterVec
	rateLimitDeniedTotal *prometheus.CounterVec
	retrievedDocs        *prometheus.HistogramVec
	generationDuration   *prometheus.HistogramVec
	llmTokensTotal       *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "paperrag",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "paperrag",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "paperrag",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	cacheHitsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "paperrag",
			Subsystem: "rag",
			Name:      "cache_total",
			Help:      "Answer cache lookups by outcome.",
		},
		[]string{"service", "outcome"},
	)
	degradedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "paperrag",
			Subsystem: "rag",
			Name:      "degraded_total",
			Help:      "Total degraded answers served.",
		},
		[]string{"service"},
	)
	rateLimitDeniedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "paperrag",
			Subsystem: "ratelimit",
			Name:      "denied_total",
			Help:      "Total requests denied by the rate limiter.",
		},
		[]string{"service", "operation"},
	)
	retrievedDocs := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "paperrag",
			Subsystem: "rag",
			Name:      "retrieved_documents",
			Help:      "Distribution of retrieved documents per request.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
		},
		[]string{"service"},
	)
	generationDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "paperrag",
			Subsystem: "llm",
			Name:      "generation_duration_seconds",
			Help:      "End-to-end generation duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service"},
	)
	llmTokensTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "paperrag",
			Subsystem: "llm",
			Name:      "tokens_total",
			Help:      "Total tokens reported by the completion provider.",
		},
		[]string{"service"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		cacheHitsTotal,
		degradedTotal,
		rateLimitDeniedTotal,
		retrievedDocs,
		generationDuration,
		llmTokensTotal,
	)

	return &HTTPServerMetrics{
		registry:             registry,
		service:              service,
		requestTotal:         requestTotal,
		requestDuration:      requestDuration,
		requestInFlight:      requestInFlight,
		cacheHitsTotal:       cacheHitsTotal,
		degradedTotal:        degradedTotal,
		rateLimitDeniedTotal: rateLimitDeniedTotal,
		retrievedDocs:        retrievedDocs,
		generationDuration:   generationDuration,
		llmTokensTotal:       llmTokensTotal,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			m.service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(m.service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/v1/papers/"):
		return "/v1/papers/{paper_id}"
	case strings.HasPrefix(path, "/v1/admin/ratelimit/"):
		return "/v1/admin/ratelimit/{user_id}"
	default:
		return path
	}
}

// Pipeline metric hooks, called from the use case layer.

func (m *HTTPServerMetrics) RateLimitDenied(operation string) {
	m.rateLimitDeniedTotal.WithLabelValues(m.service, operation).Inc()
}

func (m *HTTPServerMetrics) CacheHit() {
	m.cacheHitsTotal.WithLabelValues(m.service, "hit").Inc()
}

func (m *HTTPServerMetrics) CacheMiss() {
	m.cacheHitsTotal.WithLabelValues(m.service, "miss").Inc()
}

func (m *HTTPServerMetrics) Retrieved(count int) {
	m.retrievedDocs.WithLabelValues(m.service).Observe(float64(count))
}

func (m *HTTPServerMetrics) Generated(tokens int, seconds float64) {
	if tokens > 0 {
		m.llmTokensTotal.WithLabelValues(m.service).Add(float64(tokens))
	}
	m.generationDuration.WithLabelValues(m.service).Observe(seconds)
}

func (m *HTTPServerMetrics) Degraded() {
	m.degradedTotal.WithLabelValues(m.service).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}
