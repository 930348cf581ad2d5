package usecase

import (
	"math"
	"strings"
	"testing"

	"github.com/akuzminsky/paperrag/internal/core/domain"
)

func TestEstimateTokens(t *testing.T) {
	if got := estimateTokens(""); got != 0 {
		t.Errorf("empty = %d, want 0", got)
	}
	if got := estimateTokens("abcd"); got != 2 {
		t.Errorf("4 chars = %d, want 2", got)
	}
	if got := estimateTokens(strings.Repeat("x", 400)); got != 101 {
		t.Errorf("400 chars = %d, want 101", got)
	}
}

func TestAssembleContextWholeDocsOnly(t *testing.T) {
	big := domain.RetrievedDocument{ID: "big", Title: strings.Repeat("t", 4000)}
	small1 := domain.RetrievedDocument{ID: "s1", Title: "short one"}
	small2 := domain.RetrievedDocument{ID: "s2", Title: "short two"}

	// Window leaves roughly 300 tokens for context: big (~1000) cannot fit,
	// but the later small documents still can.
	selected := assembleContext([]domain.RetrievedDocument{big, small1, small2}, 1500, 1000)
	if len(selected) != 2 {
		t.Fatalf("selected = %d docs, want 2", len(selected))
	}
	if selected[0].ID != "s1" || selected[1].ID != "s2" {
		t.Errorf("selected order = [%s %s]", selected[0].ID, selected[1].ID)
	}
}

func TestAssembleContextNoBudget(t *testing.T) {
	docs := rankedDocs(0.9)
	if got := assembleContext(docs, 1000, 1000); got != nil {
		t.Errorf("expected nil with exhausted budget, got %d docs", len(got))
	}
}

func TestBuildAnswerPromptNumbersSources(t *testing.T) {
	prompt := buildAnswerPrompt("why attention?", rankedDocs(0.9, 0.8))
	if !strings.Contains(prompt, "[1] title=Paper 1") || !strings.Contains(prompt, "[2] title=Paper 2") {
		t.Errorf("prompt missing numbered markers:\n%s", prompt)
	}
	if !strings.Contains(prompt, "why attention?") {
		t.Error("prompt missing the question")
	}
}

func TestAnswerConfidence(t *testing.T) {
	if got := answerConfidence(rankedDocs(0.9), true); got != 0 {
		t.Errorf("degraded = %f, want 0", got)
	}
	if got := answerConfidence(nil, false); got != 0.1 {
		t.Errorf("no sources = %f, want 0.1", got)
	}
	got := answerConfidence(rankedDocs(1.5, -0.5), false)
	// Scores clamp to [0,1] before averaging: (1.0+0.0)/2 -> 0.6+0.4*0.5.
	if math.Abs(got-0.8) > 1e-9 {
		t.Errorf("clamped = %f, want 0.8", got)
	}
}
