package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/akuzminsky/paperrag/internal/core/domain"
	"github.com/akuzminsky/paperrag/internal/core/ports"
)

type limiterFake struct {
	mu      sync.Mutex
	allowed bool
	info    domain.RateLimitInfo
	err     error
	checks  []string
}

func newLimiterFake() *limiterFake {
	return &limiterFake{allowed: true}
}

func (f *limiterFake) Check(_ context.Context, userID, operation string) (domain.RateLimitDecision, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checks = append(f.checks, userID+"/"+operation)
	if f.err != nil {
		return domain.RateLimitDecision{}, f.err
	}
	return domain.RateLimitDecision{Allowed: f.allowed, Info: f.info}, nil
}

func (f *limiterFake) Inspect(context.Context, string, string) (domain.RateLimitInfo, error) {
	return f.info, nil
}

func (f *limiterFake) Reset(context.Context, string, string) error { return nil }

func (f *limiterFake) checkCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.checks)
}

type cacheFake struct {
	mu      sync.Mutex
	entries map[string]*domain.Answer
	getErr  error
	setErr  error
	sets    int
}

func newCacheFake() *cacheFake {
	return &cacheFake{entries: map[string]*domain.Answer{}}
}

func (f *cacheFake) Get(_ context.Context, fingerprint string) (*domain.Answer, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, false, f.getErr
	}
	answer, ok := f.entries[fingerprint]
	return answer, ok, nil
}

func (f *cacheFake) Set(_ context.Context, fingerprint string, answer *domain.Answer, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	f.entries[fingerprint] = answer
	f.sets++
	return nil
}

func (f *cacheFake) Clear(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = map[string]*domain.Answer{}
	return nil
}

func (f *cacheFake) setCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sets
}

type embedderFake struct {
	queries []string
	err     error
}

func (f *embedderFake) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{0.1, 0.2}
	}
	return out, nil
}

func (f *embedderFake) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	f.queries = append(f.queries, text)
	if f.err != nil {
		return nil, f.err
	}
	return []float32{0.1, 0.2}, nil
}

type indexFake struct {
	vectorDocs   []domain.RetrievedDocument
	lexicalDocs  []domain.RetrievedDocument
	vectorErr    error
	lexicalErr   error
	vectorCalls  int
	lexicalCalls int
	vectorLimit  int
	indexed      [][]string
	indexErr     error
}

func (f *indexFake) IndexChunks(_ context.Context, _ *domain.Paper, chunks []string, _ [][]float32) error {
	if f.indexErr != nil {
		return f.indexErr
	}
	f.indexed = append(f.indexed, chunks)
	return nil
}

func (f *indexFake) SearchVector(_ context.Context, _ []float32, limit int, _ domain.SearchFilter) ([]domain.RetrievedDocument, error) {
	f.vectorCalls++
	f.vectorLimit = limit
	if f.vectorErr != nil {
		return nil, f.vectorErr
	}
	return f.vectorDocs, nil
}

func (f *indexFake) SearchLexical(_ context.Context, _ string, _ int, _ domain.SearchFilter) ([]domain.RetrievedDocument, error) {
	f.lexicalCalls++
	if f.lexicalErr != nil {
		return nil, f.lexicalErr
	}
	return f.lexicalDocs, nil
}

type llmFake struct {
	mu           sync.Mutex
	text         string
	tokens       int
	err          error
	failContains string
	prompts      []string
	streamChunks []ports.CompletionChunk
	streamErr    error
	models       []domain.ModelInfo
	usage        domain.UsageStats
}

func (f *llmFake) Generate(_ context.Context, prompt string, _ ports.GenerationOptions) (ports.GenerationResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return ports.GenerationResult{}, f.err
	}
	if f.failContains != "" && strings.Contains(prompt, f.failContains) {
		return ports.GenerationResult{}, fmt.Errorf("generation failed")
	}
	return ports.GenerationResult{Text: f.text, TokensUsed: f.tokens, Model: "test-model"}, nil
}

func (f *llmFake) Stream(_ context.Context, prompt string, _ ports.GenerationOptions) (<-chan ports.CompletionChunk, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	if f.streamErr != nil {
		return nil, f.streamErr
	}
	out := make(chan ports.CompletionChunk, len(f.streamChunks))
	for _, chunk := range f.streamChunks {
		out <- chunk
	}
	close(out)
	return out, nil
}

func (f *llmFake) ListModels(context.Context) ([]domain.ModelInfo, error) {
	return f.models, nil
}

func (f *llmFake) DefaultModel() string { return "test-model" }

func (f *llmFake) UsageStats() domain.UsageStats { return f.usage }

type auditFake struct {
	events chan domain.AuditEvent
}

func newAuditFake() *auditFake {
	return &auditFake{events: make(chan domain.AuditEvent, 32)}
}

func (f *auditFake) EmitAuditEvent(_ context.Context, event domain.AuditEvent) error {
	f.events <- event
	return nil
}

type proberFake struct{ err error }

func (f *proberFake) Probe(context.Context) error { return f.err }

func rankedDocs(scores ...float64) []domain.RetrievedDocument {
	out := make([]domain.RetrievedDocument, len(scores))
	for i, score := range scores {
		out[i] = domain.RetrievedDocument{
			ID:    fmt.Sprintf("paper-%d", i+1),
			Title: fmt.Sprintf("Paper %d", i+1),
			Score: score,
		}
	}
	return out
}
