package httpadapter

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/akuzminsky/paperrag/internal/core/ports"
	"github.com/akuzminsky/paperrag/internal/infrastructure/resilience"
)

var nowUnix = func() int64 { return time.Now().Unix() }

// TrafficConfig tunes the process-level gates in front of the mux.
type TrafficConfig struct {
	RateLimitRPS     int
	RateLimitBurst   int
	MaxConcurrent    int
	BackpressureWait time.Duration
}

type Router struct {
	answers  ports.AnswerService
	search   ports.SearchService
	ingest   ports.PaperIngestor
	papers   ports.PaperReader
	cache    ports.AnswerCache
	limiter  ports.RateLimiter
	breakers *resilience.Registry
	metrics  interface{ Middleware(http.Handler) http.Handler }
	metricsH http.Handler
	logger   *slog.Logger
	traffic  TrafficConfig
}

type RouterOptions struct {
	Answers  ports.AnswerService
	Search   ports.SearchService
	Ingest   ports.PaperIngestor
	Papers   ports.PaperReader
	Cache    ports.AnswerCache
	Limiter  ports.RateLimiter
	Breakers *resilience.Registry
	Metrics  interface{ Middleware(http.Handler) http.Handler }
	MetricsH http.Handler
	Logger   *slog.Logger
	Traffic  TrafficConfig
}

func NewRouter(options RouterOptions) *Router {
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		answers:  options.Answers,
		search:   options.Search,
		ingest:   options.Ingest,
		papers:   options.Papers,
		cache:    options.Cache,
		limiter:  options.Limiter,
		breakers: options.Breakers,
		metrics:  options.Metrics,
		metricsH: options.MetricsH,
		logger:   logger,
		traffic:  options.Traffic,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", rt.healthz)
	if rt.metricsH != nil {
		mux.Handle("GET /metrics", rt.metricsH)
	}

	mux.HandleFunc("POST /v1/rag/query", rt.ragQuery)
	mux.HandleFunc("POST /v1/rag/stream", rt.ragStream)
	mux.HandleFunc("POST /v1/rag/batch", rt.ragBatch)
	mux.HandleFunc("GET /v1/rag/health", rt.ragHealth)
	mux.HandleFunc("GET /v1/rag/usage", rt.ragUsage)
	mux.HandleFunc("GET /v1/models", rt.listModels)

	mux.HandleFunc("POST /v1/search", rt.searchPapers)

	mux.HandleFunc("POST /v1/papers", rt.uploadPaper)
	mux.HandleFunc("GET /v1/papers/{paper_id}", rt.getPaperByID)

	mux.HandleFunc("POST /v1/admin/cache/clear", rt.adminCacheClear)
	mux.HandleFunc("GET /v1/admin/breakers", rt.adminBreakerStats)
	mux.HandleFunc("POST /v1/admin/breakers/reset", rt.adminBreakerReset)
	mux.HandleFunc("GET /v1/admin/ratelimit/{user_id}", rt.adminRateLimitState)
	mux.HandleFunc("POST /v1/admin/ratelimit/{user_id}/reset", rt.adminRateLimitReset)

	var handler http.Handler = mux
	handler = backpressureMiddleware(handler, rt.traffic.MaxConcurrent, rt.traffic.BackpressureWait)
	handler = rateLimitMiddleware(handler, rt.traffic.RateLimitRPS, rt.traffic.RateLimitBurst)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(handler)
	}
	handler = accessLogMiddleware(rt.logger, handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
