package httpadapter

import (
	"net/http"
	"strings"

	"github.com/akuzminsky/paperrag/internal/core/domain"
)

func (rt *Router) adminCacheClear(w http.ResponseWriter, r *http.Request) {
	if err := rt.cache.Clear(r.Context()); err != nil {
		rt.logger.Error("cache clear failed", "error", err)
		writeError(w, http.StatusInternalServerError, kindInternal, "cache clear failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func (rt *Router) adminBreakerStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"breakers": rt.breakers.Stats(),
	})
}

func (rt *Router) adminBreakerReset(w http.ResponseWriter, r *http.Request) {
	service := strings.TrimSpace(r.URL.Query().Get("service"))
	if service == "" {
		rt.breakers.ResetAll()
		writeJSON(w, http.StatusOK, map[string]string{"status": "reset", "scope": "all"})
		return
	}
	if _, ok := rt.breakers.Stats()[service]; !ok {
		writeError(w, http.StatusNotFound, kindNotFound, "unknown breaker: "+service)
		return
	}
	rt.breakers.Reset(service)
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset", "scope": service})
}

var rateLimitedOperations = []string{
	domain.OpSearch,
	domain.OpGenerate,
	domain.OpStream,
	domain.OpBatch,
}

func (rt *Router) adminRateLimitState(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, kindValidationFailed, "user id is required")
		return
	}

	state := make(map[string]domain.RateLimitInfo, len(rateLimitedOperations))
	for _, operation := range rateLimitedOperations {
		info, err := rt.limiter.Inspect(r.Context(), userID, operation)
		if err != nil {
			writeError(w, http.StatusServiceUnavailable, kindInternal, "rate limit store unavailable")
			return
		}
		state[operation] = info
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user_id":    userID,
		"operations": state,
	})
}

func (rt *Router) adminRateLimitReset(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, kindValidationFailed, "user id is required")
		return
	}

	for _, operation := range rateLimitedOperations {
		if err := rt.limiter.Reset(r.Context(), userID, operation); err != nil {
			writeError(w, http.StatusServiceUnavailable, kindInternal, "rate limit store unavailable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset", "user_id": userID})
}
