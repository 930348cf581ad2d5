package domain

type SearchFilter struct {
	Category string
	Year     int
}

type RetrievedDocument struct {
	ID         string              `json:"id"`
	Title      string              `json:"title"`
	Abstract   string              `json:"abstract"`
	Authors    []string            `json:"authors"`
	Score      float64             `json:"score"`
	Highlights map[string][]string `json:"highlights,omitempty"`
}

// Answer is the terminal value of one pipeline invocation. Degraded answers
// keep their sources: retrieval succeeded even though generation did not.
type Answer struct {
	Query          string              `json:"query"`
	Text           string              `json:"answer"`
	Sources        []RetrievedDocument `json:"sources"`
	Confidence     float64             `json:"confidence"`
	TokensUsed     int                 `json:"tokens_used"`
	GenerationTime float64             `json:"generation_time"`
	Model          string              `json:"model"`
	ContextLength  int                 `json:"context_length"`
	Degraded       bool                `json:"degraded"`
}

// StreamEventType enumerates the framed events of a streaming generation.
type StreamEventType string

const (
	StreamEventChunk   StreamEventType = "chunk"
	StreamEventSources StreamEventType = "sources"
	StreamEventDone    StreamEventType = "done"
	StreamEventError   StreamEventType = "error"
)

type StreamEvent struct {
	Type       StreamEventType     `json:"type"`
	Chunk      string              `json:"chunk,omitempty"`
	Sources    []RetrievedDocument `json:"sources,omitempty"`
	TokensUsed int                 `json:"tokens_used,omitempty"`
	Confidence float64             `json:"confidence,omitempty"`
	Degraded   bool                `json:"degraded,omitempty"`
	Error      string              `json:"error,omitempty"`
}

type BatchResult struct {
	Results      []Answer `json:"results"`
	TotalQueries int      `json:"total_queries"`
	TotalTokens  int      `json:"total_tokens"`
	TotalTime    float64  `json:"total_time"`
}

type ModelInfo struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	ContextLength int    `json:"context_length,omitempty"`
}

// UsageStats are process-lifetime counters. Tracked=false distinguishes
// "nothing counted yet" from a genuine zero.
type UsageStats struct {
	TotalTokens   int64   `json:"total_tokens"`
	TotalCost     float64 `json:"total_cost"`
	RequestsCount int64   `json:"requests_count"`
	Tracked       bool    `json:"tracked"`
}

type ComponentStatus struct {
	Healthy bool   `json:"healthy"`
	Detail  string `json:"detail,omitempty"`
}

type HealthStatus struct {
	OverallHealthy bool                       `json:"overall_healthy"`
	Components     map[string]ComponentStatus `json:"components"`
}
