package domain

import "time"

type PaperStatus string

const (
	StatusUploaded   PaperStatus = "uploaded"
	StatusProcessing PaperStatus = "processing"
	StatusReady      PaperStatus = "ready"
	StatusFailed     PaperStatus = "failed"
)

type Paper struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Abstract    string      `json:"abstract,omitempty"`
	Authors     []string    `json:"authors"`
	Category    string      `json:"category,omitempty"`
	Year        int         `json:"year,omitempty"`
	Filename    string      `json:"filename"`
	MimeType    string      `json:"mime_type"`
	StoragePath string      `json:"storage_path"`
	Status      PaperStatus `json:"status"`
	Error       string      `json:"error,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// AuditEvent is the fire-and-forget analytics record emitted once per
// pipeline invocation. Emission failures never surface to the caller.
type AuditEvent struct {
	Operation  string    `json:"operation"`
	UserID     string    `json:"user_id"`
	Success    bool      `json:"success"`
	Degraded   bool      `json:"degraded"`
	CacheHit   bool      `json:"cache_hit"`
	TokensUsed int       `json:"tokens_used"`
	DurationMS float64   `json:"duration_ms"`
	Timestamp  time.Time `json:"timestamp"`
}
