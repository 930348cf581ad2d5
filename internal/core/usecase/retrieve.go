package usecase

import (
	"context"
	"fmt"

	"github.com/akuzminsky/paperrag/internal/core/domain"
	"github.com/akuzminsky/paperrag/internal/core/ports"
)

// retriever runs the mode-dependent retrieval legs against the search index.
// The hybrid mode over-fetches each leg so fusion has material to rank.
type retriever struct {
	embedder ports.Embedder
	index    ports.SearchIndex
	rrfK     int
}

const hybridOverfetch = 3

func (r retriever) retrieve(
	ctx context.Context,
	query domain.Query,
	filter domain.SearchFilter,
) ([]domain.RetrievedDocument, error) {
	switch query.SearchMode {
	case domain.SearchModeBM25:
		docs, err := r.index.SearchLexical(ctx, query.Text, query.ContextLimit, filter)
		if err != nil {
			return nil, domain.WrapError(domain.ErrSearchUnavailable, "lexical search", err)
		}
		return dedupeByPaper(docs), nil

	case domain.SearchModeVector:
		vector, err := r.embedder.EmbedQuery(ctx, query.Text)
		if err != nil {
			return nil, domain.WrapError(domain.ErrSearchUnavailable, "embed query", err)
		}
		docs, err := r.index.SearchVector(ctx, vector, query.ContextLimit, filter)
		if err != nil {
			return nil, domain.WrapError(domain.ErrSearchUnavailable, "vector search", err)
		}
		return dedupeByPaper(docs), nil

	case domain.SearchModeHybrid:
		fetchLimit := query.ContextLimit * hybridOverfetch

		vector, err := r.embedder.EmbedQuery(ctx, query.Text)
		if err != nil {
			return nil, domain.WrapError(domain.ErrSearchUnavailable, "embed query", err)
		}
		semantic, err := r.index.SearchVector(ctx, vector, fetchLimit, filter)
		if err != nil {
			return nil, domain.WrapError(domain.ErrSearchUnavailable, "vector search", err)
		}
		lexical, err := r.index.SearchLexical(ctx, query.Text, fetchLimit, filter)
		if err != nil {
			return nil, domain.WrapError(domain.ErrSearchUnavailable, "lexical search", err)
		}

		fused := fuseCandidatesRRF(semantic, lexical, r.rrfK)
		return trimCandidates(fused, query.ContextLimit), nil

	default:
		return nil, domain.WrapError(domain.ErrInvalidInput, "retrieve", fmt.Errorf("unknown search mode %q", query.SearchMode))
	}
}
