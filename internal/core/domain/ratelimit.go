package domain

// Rate-limited operations known to the pipeline. The policy table in config
// may override limits per operation.
const (
	OpSearch   = "search"
	OpGenerate = "rag"
	OpStream   = "rag_stream"
	OpBatch    = "rag_batch"
)

type RateLimitInfo struct {
	CurrentCount  int   `json:"current_count"`
	Remaining     int   `json:"remaining"`
	ResetTime     int64 `json:"reset_time"`
	Limit         int   `json:"limit"`
	WindowSeconds int   `json:"window_seconds"`
}

type RateLimitDecision struct {
	Allowed bool          `json:"allowed"`
	Info    RateLimitInfo `json:"info"`
}
