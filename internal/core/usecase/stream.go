package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/akuzminsky/paperrag/internal/core/domain"
	"github.com/akuzminsky/paperrag/internal/core/ports"
)

// Stream runs the same admission/cache/retrieval steps as Generate, then
// relays generation chunks as they arrive. The returned channel always
// terminates with a done event and is closed afterwards; cancelling ctx
// tears down the upstream generation.
func (uc *AnswerUseCase) Stream(ctx context.Context, userID string, query domain.Query) (<-chan domain.StreamEvent, error) {
	query = query.Normalize()
	if err := query.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, uc.opts.RequestTimeout)

	if err := uc.admit(ctx, userID, domain.OpStream); err != nil {
		cancel()
		return nil, err
	}

	started := time.Now()
	fingerprint := queryFingerprint(query)
	if cached, ok := uc.lookupCache(ctx, fingerprint); ok {
		uc.opts.Metrics.CacheHit()
		uc.emitAudit(domain.AuditEvent{
			Operation:  domain.OpStream,
			UserID:     userID,
			Success:    true,
			CacheHit:   true,
			TokensUsed: cached.TokensUsed,
			DurationMS: float64(time.Since(started).Microseconds()) / 1000,
			Timestamp:  time.Now().UTC(),
		})
		cancel()
		return replayAnswer(cached), nil
	}
	uc.opts.Metrics.CacheMiss()

	sources, err := uc.retriever.retrieve(ctx, query, domain.SearchFilter{})
	if err != nil {
		cancel()
		return nil, err
	}
	uc.opts.Metrics.Retrieved(len(sources))

	contextDocs := assembleContext(sources, uc.opts.ContextWindow, query.MaxTokens)
	prompt := buildAnswerPrompt(query.Text, contextDocs)

	upstream, err := uc.llm.Stream(ctx, prompt, ports.GenerationOptions{
		Model:       uc.opts.Model,
		MaxTokens:   query.MaxTokens,
		Temperature: query.Temperature,
	})
	if err != nil {
		// Generation never started; deliver the sources as a degraded stream.
		uc.opts.Metrics.Degraded()
		uc.opts.Logger.Warn("stream establishment failed, serving degraded stream", "error", err)
		uc.emitAudit(domain.AuditEvent{
			Operation:  domain.OpStream,
			UserID:     userID,
			Degraded:   true,
			DurationMS: float64(time.Since(started).Microseconds()) / 1000,
			Timestamp:  time.Now().UTC(),
		})
		cancel()
		return degradedStream(sources), nil
	}

	out := make(chan domain.StreamEvent, 8)
	go func() {
		defer cancel()
		defer close(out)

		var text strings.Builder
		tokens := 0
		degraded := false

		for chunk := range upstream {
			switch {
			case chunk.Err != nil:
				degraded = true
				uc.opts.Metrics.Degraded()
				uc.send(ctx, out, domain.StreamEvent{Type: domain.StreamEventError, Error: chunk.Err.Error()})
			case chunk.Done:
				tokens = chunk.TokensUsed
			default:
				text.WriteString(chunk.Text)
				if !uc.send(ctx, out, domain.StreamEvent{Type: domain.StreamEventChunk, Chunk: chunk.Text}) {
					return
				}
			}
		}

		confidence := answerConfidence(sources, degraded)
		uc.send(ctx, out, domain.StreamEvent{Type: domain.StreamEventSources, Sources: sources})
		uc.send(ctx, out, domain.StreamEvent{
			Type:       domain.StreamEventDone,
			TokensUsed: tokens,
			Confidence: confidence,
			Degraded:   degraded,
		})

		uc.emitAudit(domain.AuditEvent{
			Operation:  domain.OpStream,
			UserID:     userID,
			Success:    !degraded,
			Degraded:   degraded,
			TokensUsed: tokens,
			DurationMS: float64(time.Since(started).Microseconds()) / 1000,
			Timestamp:  time.Now().UTC(),
		})

		if !degraded && ctx.Err() == nil {
			uc.opts.Metrics.Generated(tokens, time.Since(started).Seconds())
			uc.storeCache(context.WithoutCancel(ctx), fingerprint, &domain.Answer{
				Query:          query.Text,
				Text:           text.String(),
				Sources:        sources,
				Confidence:     confidence,
				TokensUsed:     tokens,
				GenerationTime: time.Since(started).Seconds(),
				ContextLength:  len(contextDocs),
			})
		}
	}()
	return out, nil
}

func (uc *AnswerUseCase) send(ctx context.Context, out chan<- domain.StreamEvent, event domain.StreamEvent) bool {
	select {
	case out <- event:
		return true
	case <-ctx.Done():
		return false
	}
}

// replayAnswer turns a cached answer into the stream event sequence a live
// generation would have produced.
func replayAnswer(answer *domain.Answer) <-chan domain.StreamEvent {
	out := make(chan domain.StreamEvent, 3)
	out <- domain.StreamEvent{Type: domain.StreamEventChunk, Chunk: answer.Text}
	out <- domain.StreamEvent{Type: domain.StreamEventSources, Sources: answer.Sources}
	out <- domain.StreamEvent{
		Type:       domain.StreamEventDone,
		TokensUsed: answer.TokensUsed,
		Confidence: answer.Confidence,
	}
	close(out)
	return out
}

func degradedStream(sources []domain.RetrievedDocument) <-chan domain.StreamEvent {
	out := make(chan domain.StreamEvent, 3)
	out <- domain.StreamEvent{Type: domain.StreamEventError, Error: "generation temporarily unavailable"}
	out <- domain.StreamEvent{Type: domain.StreamEventSources, Sources: sources}
	out <- domain.StreamEvent{Type: domain.StreamEventDone, Degraded: true}
	close(out)
	return out
}
