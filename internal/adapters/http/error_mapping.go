package httpadapter

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/akuzminsky/paperrag/internal/core/domain"
)

// Stable error kinds exposed to clients. Handlers never leak raw error
// text for 5xx responses.
const (
	kindRateLimited       = "rate_limited"
	kindSearchUnavailable = "search_unavailable"
	kindValidationFailed  = "validation_failed"
	kindNotFound          = "not_found"
	kindInternal          = "internal_error"
)

func writeDomainError(w http.ResponseWriter, err error) {
	var rlErr *domain.RateLimitError
	if errors.As(err, &rlErr) {
		w.Header().Set("Retry-After", strconv.FormatInt(retryAfterSeconds(rlErr.Info), 10))
		writeJSON(w, http.StatusTooManyRequests, errorBody(kindRateLimited, err.Error(), rlErr.Info))
		return
	}

	switch {
	case domain.IsKind(err, domain.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, kindRateLimited, err.Error())
	case domain.IsKind(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, kindValidationFailed, err.Error())
	case domain.IsKind(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, kindValidationFailed, err.Error())
	case domain.IsKind(err, domain.ErrPaperNotFound):
		writeError(w, http.StatusNotFound, kindNotFound, err.Error())
	case domain.IsKind(err, domain.ErrSearchUnavailable):
		writeError(w, http.StatusServiceUnavailable, kindSearchUnavailable, "search backend is unavailable")
	case domain.IsKind(err, domain.ErrTemporary):
		writeError(w, http.StatusServiceUnavailable, kindInternal, "temporary backend failure")
	default:
		writeError(w, http.StatusInternalServerError, kindInternal, "internal error")
	}
}

func retryAfterSeconds(info domain.RateLimitInfo) int64 {
	now := nowUnix()
	if info.ResetTime > now {
		return info.ResetTime - now
	}
	return 1
}

func errorBody(kind, message string, details any) map[string]any {
	body := map[string]any{
		"error": message,
		"kind":  kind,
	}
	if details != nil {
		body["details"] = details
	}
	return body
}

func writeError(w http.ResponseWriter, status int, kind, message string) {
	writeJSON(w, status, errorBody(kind, message, nil))
}
