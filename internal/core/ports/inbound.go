package ports

import (
	"context"
	"io"

	"github.com/akuzminsky/paperrag/internal/core/domain"
)

// PaperIngestor is the inbound contract for paper upload orchestration.
type PaperIngestor interface {
	Upload(ctx context.Context, filename, mimeType string, body io.Reader) (*domain.Paper, error)
}

// PaperProcessor is the inbound contract for asynchronous paper indexing.
type PaperProcessor interface {
	ProcessByID(ctx context.Context, paperID string) error
}

// PaperReader is the inbound read model for paper metadata/state.
type PaperReader interface {
	GetByID(ctx context.Context, id string) (*domain.Paper, error)
}

// AnswerService is the inbound contract for the RAG pipeline.
type AnswerService interface {
	Generate(ctx context.Context, userID string, query domain.Query) (*domain.Answer, error)
	GenerateBatch(ctx context.Context, userID string, queries []domain.Query) (*domain.BatchResult, error)
	Stream(ctx context.Context, userID string, query domain.Query) (<-chan domain.StreamEvent, error)
	ListModels(ctx context.Context) ([]domain.ModelInfo, error)
	DefaultModel() string
	UsageStats() domain.UsageStats
	HealthStatus(ctx context.Context) domain.HealthStatus
}

// SearchService is the inbound contract for retrieval without generation.
type SearchService interface {
	Search(ctx context.Context, userID string, query domain.Query, filter domain.SearchFilter) ([]domain.RetrievedDocument, error)
}
