package ports

import (
	"context"
	"io"
	"time"

	"github.com/akuzminsky/paperrag/internal/core/domain"
)

// PaperRepository persists and reads paper metadata.
type PaperRepository interface {
	Create(ctx context.Context, paper *domain.Paper) error
	GetByID(ctx context.Context, id string) (*domain.Paper, error)
	UpdateStatus(ctx context.Context, id string, status domain.PaperStatus, errMessage string) error
	SaveExtractedFields(ctx context.Context, id string, title, abstract string, authors []string) error
}

// ObjectStorage stores source paper files.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue publishes/consumes paper ingestion events.
type MessageQueue interface {
	PublishPaperIngested(ctx context.Context, paperID string) error
	SubscribePaperIngested(ctx context.Context, handler func(context.Context, string) error) error
}

// AuditSink accepts fire-and-forget analytics records.
type AuditSink interface {
	EmitAuditEvent(ctx context.Context, event domain.AuditEvent) error
}

// TextExtractor extracts plain text from a stored paper.
type TextExtractor interface {
	Extract(ctx context.Context, paper *domain.Paper) (string, error)
}

// Embedder builds vectors for chunks and query text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Chunker splits text into semantically usable chunks.
type Chunker interface {
	Split(text string) []string
}

// SearchIndex indexes paper chunks and serves the three retrieval legs.
// Hybrid fusion of the dense and sparse legs happens in the use case.
type SearchIndex interface {
	IndexChunks(ctx context.Context, paper *domain.Paper, chunks []string, vectors [][]float32) error
	SearchVector(ctx context.Context, queryVector []float32, limit int, filter domain.SearchFilter) ([]domain.RetrievedDocument, error)
	SearchLexical(ctx context.Context, queryText string, limit int, filter domain.SearchFilter) ([]domain.RetrievedDocument, error)
}

// GenerationOptions tune a single completion call.
type GenerationOptions struct {
	Model       string
	MaxTokens   int
	Temperature float64
}

type GenerationResult struct {
	Text       string
	TokensUsed int
	Model      string
}

// CompletionChunk is one unit of a streaming generation. The final chunk
// has Done=true and carries the aggregate token count.
type CompletionChunk struct {
	Text       string
	Done       bool
	TokensUsed int
	Err        error
}

// CompletionClient talks to the chat-completion provider.
type CompletionClient interface {
	Generate(ctx context.Context, prompt string, opts GenerationOptions) (GenerationResult, error)
	Stream(ctx context.Context, prompt string, opts GenerationOptions) (<-chan CompletionChunk, error)
	ListModels(ctx context.Context) ([]domain.ModelInfo, error)
	DefaultModel() string
	UsageStats() domain.UsageStats
}

// AnswerCache stores finished answers under the query fingerprint.
type AnswerCache interface {
	Get(ctx context.Context, fingerprint string) (*domain.Answer, bool, error)
	Set(ctx context.Context, fingerprint string, answer *domain.Answer, ttl time.Duration) error
	Clear(ctx context.Context) error
}

// RateLimiter is the per-(user, operation) fixed-window counter. Check
// atomically increments and decides; Reset clears a counter immediately.
type RateLimiter interface {
	Check(ctx context.Context, userID, operation string) (domain.RateLimitDecision, error)
	Inspect(ctx context.Context, userID, operation string) (domain.RateLimitInfo, error)
	Reset(ctx context.Context, userID, operation string) error
}

// HealthProber answers a cheap reachability question for one downstream.
type HealthProber interface {
	Probe(ctx context.Context) error
}
