package domain

import (
	"errors"
	"strings"
)

type SearchMode string

const (
	SearchModeBM25   SearchMode = "bm25_only"
	SearchModeVector SearchMode = "vector_only"
	SearchModeHybrid SearchMode = "hybrid"
)

const (
	DefaultContextLimit = 5
	DefaultMaxTokens    = 1000
	DefaultTemperature  = 0.7
	MaxBatchQueries     = 10
)

// Query is an immutable per-request value; Normalize fills defaults so
// the cache fingerprint of an implicit and an explicit default agree.
// Temperature is left as given: 0 is a legitimate deterministic request,
// so the transport layer decides what an omitted temperature means.
type Query struct {
	Text         string     `json:"text"`
	ContextLimit int        `json:"context_limit"`
	MaxTokens    int        `json:"max_tokens"`
	Temperature  float64    `json:"temperature"`
	SearchMode   SearchMode `json:"search_mode"`
}

func (q Query) Normalize() Query {
	out := q
	out.Text = strings.TrimSpace(out.Text)
	if out.ContextLimit <= 0 {
		out.ContextLimit = DefaultContextLimit
	}
	if out.MaxTokens <= 0 {
		out.MaxTokens = DefaultMaxTokens
	}
	if out.SearchMode == "" {
		out.SearchMode = SearchModeHybrid
	}
	return out
}

func (q Query) Validate() error {
	if strings.TrimSpace(q.Text) == "" {
		return WrapError(ErrInvalidInput, "validate query", errors.New("query text is required"))
	}
	if q.Temperature < 0 || q.Temperature > 1 {
		return WrapError(ErrInvalidInput, "validate query", errors.New("temperature must be within [0,1]"))
	}
	switch q.SearchMode {
	case SearchModeBM25, SearchModeVector, SearchModeHybrid:
	default:
		return WrapError(ErrInvalidInput, "validate query", errors.New("unknown search mode"))
	}
	return nil
}
