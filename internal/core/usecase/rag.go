package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/akuzminsky/paperrag/internal/core/domain"
	"github.com/akuzminsky/paperrag/internal/core/ports"
)

// PipelineMetrics receives pipeline-level counters. Implemented by the
// Prometheus recorder; a no-op stands in when metrics are disabled.
type PipelineMetrics interface {
	RateLimitDenied(operation string)
	CacheHit()
	CacheMiss()
	Retrieved(count int)
	Generated(tokens int, seconds float64)
	Degraded()
}

type noopMetrics struct{}

func (noopMetrics) RateLimitDenied(string) {}
func (noopMetrics) CacheHit()              {}
func (noopMetrics) CacheMiss()             {}
func (noopMetrics) Retrieved(int)          {}
func (noopMetrics) Generated(int, float64) {}
func (noopMetrics) Degraded()              {}

// AnswerOptions carry the tunables the pipeline needs beyond its ports.
type AnswerOptions struct {
	RequestTimeout   time.Duration
	CacheTTL         time.Duration
	ContextWindow    int
	BatchConcurrency int
	RRFRankConstant  int
	Model            string
	Metrics          PipelineMetrics
	Logger           *slog.Logger
}

func (o *AnswerOptions) normalize() {
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = 60 * time.Second
	}
	if o.CacheTTL <= 0 {
		o.CacheTTL = 30 * time.Minute
	}
	if o.ContextWindow <= 0 {
		o.ContextWindow = 8192
	}
	if o.BatchConcurrency <= 0 {
		o.BatchConcurrency = 4
	}
	if o.Metrics == nil {
		o.Metrics = noopMetrics{}
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// AnswerUseCase orchestrates the full question-answering pipeline:
// admission, cache, retrieval, context assembly, generation, audit.
type AnswerUseCase struct {
	limiter   ports.RateLimiter
	cache     ports.AnswerCache
	retriever retriever
	llm       ports.CompletionClient
	audit     ports.AuditSink
	probers   map[string]ports.HealthProber
	openOps   func() []string
	opts      AnswerOptions
}

func NewAnswerUseCase(
	limiter ports.RateLimiter,
	cache ports.AnswerCache,
	embedder ports.Embedder,
	index ports.SearchIndex,
	llm ports.CompletionClient,
	audit ports.AuditSink,
	probers map[string]ports.HealthProber,
	openOps func() []string,
	opts AnswerOptions,
) *AnswerUseCase {
	opts.normalize()
	if openOps == nil {
		openOps = func() []string { return nil }
	}
	return &AnswerUseCase{
		limiter:   limiter,
		cache:     cache,
		retriever: retriever{embedder: embedder, index: index, rrfK: opts.RRFRankConstant},
		llm:       llm,
		audit:     audit,
		probers:   probers,
		openOps:   openOps,
		opts:      opts,
	}
}

func (uc *AnswerUseCase) Generate(ctx context.Context, userID string, query domain.Query) (*domain.Answer, error) {
	ctx, cancel := context.WithTimeout(ctx, uc.opts.RequestTimeout)
	defer cancel()

	if err := uc.admit(ctx, userID, domain.OpGenerate); err != nil {
		return nil, err
	}
	return uc.generateOne(ctx, userID, query, domain.OpGenerate)
}

// generateOne runs the pipeline after admission. Batch entries and streams
// share it so rate limiting stays a per-request concern.
func (uc *AnswerUseCase) generateOne(ctx context.Context, userID string, query domain.Query, operation string) (*domain.Answer, error) {
	query = query.Normalize()
	if err := query.Validate(); err != nil {
		return nil, err
	}
	started := time.Now()

	fingerprint := queryFingerprint(query)
	if cached, ok := uc.lookupCache(ctx, fingerprint); ok {
		uc.opts.Metrics.CacheHit()
		uc.emitAudit(domain.AuditEvent{
			Operation:  operation,
			UserID:     userID,
			Success:    true,
			CacheHit:   true,
			TokensUsed: cached.TokensUsed,
			DurationMS: float64(time.Since(started).Microseconds()) / 1000,
			Timestamp:  time.Now().UTC(),
		})
		return cached, nil
	}
	uc.opts.Metrics.CacheMiss()

	sources, err := uc.retriever.retrieve(ctx, query, domain.SearchFilter{})
	if err != nil {
		return nil, err
	}
	uc.opts.Metrics.Retrieved(len(sources))

	contextDocs := assembleContext(sources, uc.opts.ContextWindow, query.MaxTokens)
	prompt := buildAnswerPrompt(query.Text, contextDocs)

	answer := uc.generateAnswer(ctx, query, prompt, sources, started)
	answer.ContextLength = len(contextDocs)

	uc.emitAudit(domain.AuditEvent{
		Operation:  operation,
		UserID:     userID,
		Success:    !answer.Degraded,
		Degraded:   answer.Degraded,
		TokensUsed: answer.TokensUsed,
		DurationMS: float64(time.Since(started).Microseconds()) / 1000,
		Timestamp:  time.Now().UTC(),
	})

	if !answer.Degraded {
		uc.storeCache(ctx, fingerprint, answer)
	}
	return answer, nil
}

// generateAnswer calls the provider and folds failures into a degraded
// Answer instead of an error: retrieval already succeeded, so the caller
// still gets the sources.
func (uc *AnswerUseCase) generateAnswer(
	ctx context.Context,
	query domain.Query,
	prompt string,
	sources []domain.RetrievedDocument,
	started time.Time,
) *domain.Answer {
	result, err := uc.llm.Generate(ctx, prompt, ports.GenerationOptions{
		Model:       uc.opts.Model,
		MaxTokens:   query.MaxTokens,
		Temperature: query.Temperature,
	})

	answer := &domain.Answer{
		Query:   query.Text,
		Sources: sources,
		Model:   result.Model,
	}
	if err != nil {
		uc.opts.Metrics.Degraded()
		uc.opts.Logger.Warn("generation failed, serving degraded answer",
			"error", err,
		)
		answer.Text = "Generation is temporarily unavailable. The retrieved papers below may still help."
		answer.Degraded = true
		answer.Confidence = answerConfidence(sources, true)
		answer.GenerationTime = time.Since(started).Seconds()
		return answer
	}

	answer.Text = result.Text
	answer.TokensUsed = result.TokensUsed
	answer.Confidence = answerConfidence(sources, false)
	answer.GenerationTime = time.Since(started).Seconds()
	uc.opts.Metrics.Generated(result.TokensUsed, answer.GenerationTime)
	return answer
}

func (uc *AnswerUseCase) admit(ctx context.Context, userID, operation string) error {
	decision, err := uc.limiter.Check(ctx, userID, operation)
	if err != nil {
		// A broken limiter must not take the API down with it.
		uc.opts.Logger.Warn("rate limiter unavailable, admitting request",
			"operation", operation,
			"error", err,
		)
		return nil
	}
	if !decision.Allowed {
		uc.opts.Metrics.RateLimitDenied(operation)
		return &domain.RateLimitError{Info: decision.Info}
	}
	return nil
}

func (uc *AnswerUseCase) lookupCache(ctx context.Context, fingerprint string) (*domain.Answer, bool) {
	answer, ok, err := uc.cache.Get(ctx, fingerprint)
	if err != nil {
		uc.opts.Logger.Warn("answer cache lookup failed", "error", err)
		return nil, false
	}
	return answer, ok
}

func (uc *AnswerUseCase) storeCache(ctx context.Context, fingerprint string, answer *domain.Answer) {
	if err := uc.cache.Set(ctx, fingerprint, answer, uc.opts.CacheTTL); err != nil {
		uc.opts.Logger.Warn("answer cache store failed", "error", err)
	}
}

// emitAudit is fire-and-forget: the event leaves on its own goroutine with
// a detached deadline so a slow sink never extends a request.
func (uc *AnswerUseCase) emitAudit(event domain.AuditEvent) {
	if uc.audit == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := uc.audit.EmitAuditEvent(ctx, event); err != nil {
			uc.opts.Logger.Warn("audit emission failed", "operation", event.Operation, "error", err)
		}
	}()
}

func (uc *AnswerUseCase) ListModels(ctx context.Context) ([]domain.ModelInfo, error) {
	return uc.llm.ListModels(ctx)
}

// DefaultModel is the model generation falls back to when a request does
// not name one.
func (uc *AnswerUseCase) DefaultModel() string {
	if uc.opts.Model != "" {
		return uc.opts.Model
	}
	return uc.llm.DefaultModel()
}

func (uc *AnswerUseCase) UsageStats() domain.UsageStats {
	return uc.llm.UsageStats()
}
