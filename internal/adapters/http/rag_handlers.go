package httpadapter

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/akuzminsky/paperrag/internal/core/domain"
)

type queryRequest struct {
	Query        string   `json:"query"`
	ContextLimit int      `json:"context_limit"`
	MaxTokens    int      `json:"max_tokens"`
	Temperature  *float64 `json:"temperature"`
	SearchMode   string   `json:"search_mode"`
}

// toDomain maps the wire request onto a domain query. Temperature is a
// pointer so an explicit 0 (a deterministic request) survives; only an
// omitted field takes the default.
func (req queryRequest) toDomain() domain.Query {
	temperature := domain.DefaultTemperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}
	return domain.Query{
		Text:         req.Query,
		ContextLimit: req.ContextLimit,
		MaxTokens:    req.MaxTokens,
		Temperature:  temperature,
		SearchMode:   domain.SearchMode(req.SearchMode),
	}
}

type answerResponse struct {
	*domain.Answer
	Timestamp time.Time `json:"timestamp"`
}

func (rt *Router) ragQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, kindValidationFailed, "invalid json body")
		return
	}

	answer, err := rt.answers.Generate(r.Context(), callerID(r), req.toDomain())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, answerResponse{Answer: answer, Timestamp: time.Now().UTC()})
}

func (rt *Router) ragStream(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, kindValidationFailed, "invalid json body")
		return
	}

	events, err := rt.answers.Stream(r.Context(), callerID(r), req.toDomain())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSSE(w, r, events)
}

type batchRequest struct {
	Queries []queryRequest `json:"queries"`
}

type batchResponse struct {
	*domain.BatchResult
	Timestamp time.Time `json:"timestamp"`
}

func (rt *Router) ragBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, kindValidationFailed, "invalid json body")
		return
	}

	queries := make([]domain.Query, len(req.Queries))
	for i, q := range req.Queries {
		queries[i] = q.toDomain()
	}

	result, err := rt.answers.GenerateBatch(r.Context(), callerID(r), queries)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, batchResponse{BatchResult: result, Timestamp: time.Now().UTC()})
}

type healthResponse struct {
	domain.HealthStatus
	Timestamp time.Time `json:"timestamp"`
}

func (rt *Router) ragHealth(w http.ResponseWriter, r *http.Request) {
	status := rt.answers.HealthStatus(r.Context())
	code := http.StatusOK
	if !status.OverallHealthy {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, healthResponse{HealthStatus: status, Timestamp: time.Now().UTC()})
}

func (rt *Router) ragUsage(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, rt.answers.UsageStats())
}

func (rt *Router) listModels(w http.ResponseWriter, r *http.Request) {
	models, err := rt.answers.ListModels(r.Context())
	if err != nil {
		// The catalog endpoint degrades to an empty list plus a marker.
		writeJSON(w, http.StatusOK, map[string]any{
			"models": []domain.ModelInfo{},
			"error":  "model catalog unavailable",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"models":        models,
		"default_model": rt.answers.DefaultModel(),
		"timestamp":     time.Now().UTC(),
	})
}
