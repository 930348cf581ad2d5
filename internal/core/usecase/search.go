package usecase

import (
	"context"
	"log/slog"

	"github.com/akuzminsky/paperrag/internal/core/domain"
	"github.com/akuzminsky/paperrag/internal/core/ports"
)

// SearchUseCase serves retrieval without generation: the same legs and
// fusion as the answer pipeline, behind its own rate-limit operation.
type SearchUseCase struct {
	limiter   ports.RateLimiter
	retriever retriever
	metrics   PipelineMetrics
	logger    *slog.Logger
}

func NewSearchUseCase(
	limiter ports.RateLimiter,
	embedder ports.Embedder,
	index ports.SearchIndex,
	rrfK int,
	metrics PipelineMetrics,
	logger *slog.Logger,
) *SearchUseCase {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SearchUseCase{
		limiter:   limiter,
		retriever: retriever{embedder: embedder, index: index, rrfK: rrfK},
		metrics:   metrics,
		logger:    logger,
	}
}

func (uc *SearchUseCase) Search(
	ctx context.Context,
	userID string,
	query domain.Query,
	filter domain.SearchFilter,
) ([]domain.RetrievedDocument, error) {
	query = query.Normalize()
	if err := query.Validate(); err != nil {
		return nil, err
	}

	decision, err := uc.limiter.Check(ctx, userID, domain.OpSearch)
	if err != nil {
		uc.logger.Warn("rate limiter unavailable, admitting search", "error", err)
	} else if !decision.Allowed {
		uc.metrics.RateLimitDenied(domain.OpSearch)
		return nil, &domain.RateLimitError{Info: decision.Info}
	}

	docs, err := uc.retriever.retrieve(ctx, query, filter)
	if err != nil {
		return nil, err
	}
	uc.metrics.Retrieved(len(docs))
	return docs, nil
}
