package usecase

import (
	"testing"

	"github.com/akuzminsky/paperrag/internal/core/domain"
)

func TestFuseCandidatesRRFDeduplicatesByPaper(t *testing.T) {
	semantic := []domain.RetrievedDocument{
		{ID: "a", Title: "A"},
		{ID: "b", Title: "B"},
	}
	lexical := []domain.RetrievedDocument{
		{ID: "b"},
		{ID: "c", Title: "C"},
	}

	fused := fuseCandidatesRRF(semantic, lexical, 60)
	if len(fused) != 3 {
		t.Fatalf("fused = %d papers, want 3", len(fused))
	}
	// b appears in both legs, so it must rank first.
	if fused[0].ID != "b" {
		t.Errorf("top paper = %s, want b", fused[0].ID)
	}
	if fused[0].Title != "B" {
		t.Errorf("dedup dropped the richer copy: title=%q", fused[0].Title)
	}
}

func TestFuseCandidatesRRFStableTieBreak(t *testing.T) {
	semantic := []domain.RetrievedDocument{{ID: "z"}}
	lexical := []domain.RetrievedDocument{{ID: "a"}}

	fused := fuseCandidatesRRF(semantic, lexical, 60)
	if len(fused) != 2 {
		t.Fatalf("fused = %d papers, want 2", len(fused))
	}
	// Equal RRF scores: ties break on id.
	if fused[0].ID != "a" || fused[1].ID != "z" {
		t.Errorf("tie break order = [%s %s], want [a z]", fused[0].ID, fused[1].ID)
	}
}

func TestDedupeByPaperKeepsBestChunk(t *testing.T) {
	docs := []domain.RetrievedDocument{
		{ID: "a", Title: "A", Score: 0.9, Highlights: map[string][]string{"text": {"intro"}}},
		{ID: "b", Score: 0.8},
		{ID: "a", Score: 0.7, Highlights: map[string][]string{"text": {"methods"}}},
	}

	deduped := dedupeByPaper(docs)
	if len(deduped) != 2 {
		t.Fatalf("deduped = %d papers, want 2", len(deduped))
	}
	if deduped[0].ID != "a" || deduped[1].ID != "b" {
		t.Fatalf("order = [%s %s], want [a b]", deduped[0].ID, deduped[1].ID)
	}
	if deduped[0].Score != 0.9 {
		t.Errorf("kept score = %f, want the best chunk's 0.9", deduped[0].Score)
	}
	if got := deduped[0].Highlights["text"]; len(got) != 2 {
		t.Errorf("merged highlights = %v, want both fragments", got)
	}
}

func TestMergingNeverMutatesRetrievedDocuments(t *testing.T) {
	semantic := []domain.RetrievedDocument{
		{ID: "a", Score: 0.9, Highlights: map[string][]string{"text": {"dense hit"}}},
	}
	lexical := []domain.RetrievedDocument{
		{ID: "a", Score: 0.5, Highlights: map[string][]string{"text": {"sparse hit"}}},
	}

	fused := fuseCandidatesRRF(semantic, lexical, 60)
	if got := fused[0].Highlights["text"]; len(got) != 2 {
		t.Fatalf("fused highlights = %v, want both fragments", got)
	}
	if got := semantic[0].Highlights["text"]; len(got) != 1 || got[0] != "dense hit" {
		t.Errorf("semantic input mutated: %v", got)
	}
	if got := lexical[0].Highlights["text"]; len(got) != 1 || got[0] != "sparse hit" {
		t.Errorf("lexical input mutated: %v", got)
	}

	chunks := []domain.RetrievedDocument{
		{ID: "a", Score: 0.9, Highlights: map[string][]string{"text": {"one"}}},
		{ID: "a", Score: 0.7, Highlights: map[string][]string{"text": {"two"}}},
	}
	_ = dedupeByPaper(chunks)
	if got := chunks[0].Highlights["text"]; len(got) != 1 {
		t.Errorf("dedupe mutated its input: %v", got)
	}
}

func TestTrimCandidates(t *testing.T) {
	docs := rankedDocs(0.9, 0.8, 0.7)
	if got := trimCandidates(docs, 2); len(got) != 2 {
		t.Errorf("trim to 2 returned %d", len(got))
	}
	if got := trimCandidates(docs, 0); len(got) != 3 {
		t.Errorf("trim with zero limit returned %d", len(got))
	}
	if got := trimCandidates(docs, 10); len(got) != 3 {
		t.Errorf("trim above length returned %d", len(got))
	}
}
