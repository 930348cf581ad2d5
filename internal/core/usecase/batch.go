package usecase

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/akuzminsky/paperrag/internal/core/domain"
)

// GenerateBatch fans the queries out with bounded concurrency and preserves
// input order in the results. One degraded entry never fails the batch;
// admission happens once for the batch as a whole.
func (uc *AnswerUseCase) GenerateBatch(ctx context.Context, userID string, queries []domain.Query) (*domain.BatchResult, error) {
	if len(queries) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "batch", fmt.Errorf("empty batch"))
	}
	if len(queries) > domain.MaxBatchQueries {
		return nil, domain.WrapError(domain.ErrInvalidInput, "batch",
			fmt.Errorf("%d queries exceed the batch maximum of %d", len(queries), domain.MaxBatchQueries))
	}
	for i, query := range queries {
		if err := query.Normalize().Validate(); err != nil {
			return nil, domain.WrapError(domain.ErrInvalidInput, "batch", fmt.Errorf("query %d: %w", i, err))
		}
	}

	ctx, cancel := context.WithTimeout(ctx, uc.opts.RequestTimeout)
	defer cancel()

	if err := uc.admit(ctx, userID, domain.OpBatch); err != nil {
		return nil, err
	}

	started := time.Now()
	results := make([]domain.Answer, len(queries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.opts.BatchConcurrency)
	for i, query := range queries {
		g.Go(func() error {
			answer, err := uc.generateOne(gctx, userID, query, domain.OpBatch)
			if err != nil {
				// Retrieval failures degrade the entry instead of the batch.
				uc.opts.Metrics.Degraded()
				results[i] = domain.Answer{
					Query:    query.Normalize().Text,
					Text:     "This query could not be answered: " + err.Error(),
					Sources:  []domain.RetrievedDocument{},
					Degraded: true,
				}
				return nil
			}
			results[i] = *answer
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	totalTokens := 0
	for _, answer := range results {
		totalTokens += answer.TokensUsed
	}
	return &domain.BatchResult{
		Results:      results,
		TotalQueries: len(queries),
		TotalTokens:  totalTokens,
		TotalTime:    time.Since(started).Seconds(),
	}, nil
}
