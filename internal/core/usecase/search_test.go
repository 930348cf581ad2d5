package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/akuzminsky/paperrag/internal/core/domain"
)

func TestSearchLexicalModeSkipsEmbedding(t *testing.T) {
	embedder := &embedderFake{}
	index := &indexFake{lexicalDocs: rankedDocs(0.9)}
	uc := NewSearchUseCase(newLimiterFake(), embedder, index, 0, nil, nil)

	docs, err := uc.Search(context.Background(), "alice",
		domain.Query{Text: "transformers", SearchMode: domain.SearchModeBM25}, domain.SearchFilter{})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("docs = %d, want 1", len(docs))
	}
	if len(embedder.queries) != 0 {
		t.Error("bm25 mode must not embed the query")
	}
	if index.vectorCalls != 0 {
		t.Error("bm25 mode must not run the dense leg")
	}
}

func TestSearchHybridRunsBothLegs(t *testing.T) {
	index := &indexFake{
		vectorDocs:  rankedDocs(0.9),
		lexicalDocs: []domain.RetrievedDocument{{ID: "paper-9", Title: "Other"}},
	}
	uc := NewSearchUseCase(newLimiterFake(), &embedderFake{}, index, 0, nil, nil)

	docs, err := uc.Search(context.Background(), "alice",
		domain.Query{Text: "transformers"}, domain.SearchFilter{})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if index.vectorCalls != 1 || index.lexicalCalls != 1 {
		t.Errorf("legs ran vector=%d lexical=%d, want 1/1", index.vectorCalls, index.lexicalCalls)
	}
	if len(docs) != 2 {
		t.Errorf("fused docs = %d, want 2", len(docs))
	}
	// Hybrid over-fetches so fusion has material to rank.
	if index.vectorLimit != domain.DefaultContextLimit*hybridOverfetch {
		t.Errorf("leg limit = %d, want %d", index.vectorLimit, domain.DefaultContextLimit*hybridOverfetch)
	}
}

func TestSearchSingleLegDedupesChunkHits(t *testing.T) {
	index := &indexFake{
		vectorDocs: []domain.RetrievedDocument{
			{ID: "paper-1", Title: "Attention", Score: 0.9},
			{ID: "paper-1", Score: 0.8},
			{ID: "paper-2", Title: "Retrieval", Score: 0.7},
		},
	}
	uc := NewSearchUseCase(newLimiterFake(), &embedderFake{}, index, 0, nil, nil)

	docs, err := uc.Search(context.Background(), "alice",
		domain.Query{Text: "attention", SearchMode: domain.SearchModeVector}, domain.SearchFilter{})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("docs = %d, want one entry per paper", len(docs))
	}
	if docs[0].ID != "paper-1" || docs[0].Score != 0.9 {
		t.Errorf("top doc = %s score %f, want paper-1 with its best chunk score", docs[0].ID, docs[0].Score)
	}
	if docs[1].ID != "paper-2" {
		t.Errorf("second doc = %s, want paper-2", docs[1].ID)
	}
}

func TestSearchRateLimited(t *testing.T) {
	limiter := newLimiterFake()
	limiter.allowed = false
	uc := NewSearchUseCase(limiter, &embedderFake{}, &indexFake{}, 0, nil, nil)

	_, err := uc.Search(context.Background(), "alice", domain.Query{Text: "q"}, domain.SearchFilter{})
	if !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("err = %v, want ErrRateLimited", err)
	}
}

func TestSearchUnavailable(t *testing.T) {
	index := &indexFake{lexicalErr: errors.New("qdrant down")}
	uc := NewSearchUseCase(newLimiterFake(), &embedderFake{}, index, 0, nil, nil)

	_, err := uc.Search(context.Background(), "alice",
		domain.Query{Text: "q", SearchMode: domain.SearchModeBM25}, domain.SearchFilter{})
	if !errors.Is(err, domain.ErrSearchUnavailable) {
		t.Fatalf("err = %v, want ErrSearchUnavailable", err)
	}
}
