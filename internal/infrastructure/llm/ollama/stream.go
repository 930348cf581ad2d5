package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/akuzminsky/paperrag/internal/core/ports"
)

// Stream opens a streaming completion and forwards NDJSON fragments as
// channel chunks. Establishment goes through the llm_stream breaker; the
// body read is bound to the caller's context, so cancellation unwinds the
// provider connection instead of leaking it.
func (c *Client) Stream(ctx context.Context, prompt string, opts ports.GenerationOptions) (<-chan ports.CompletionChunk, error) {
	model := opts.Model
	if model == "" {
		model = c.genModel
	}
	reqBody := map[string]any{
		"model":  model,
		"prompt": prompt,
		"stream": true,
		"options": map[string]any{
			"num_predict": opts.MaxTokens,
			"temperature": opts.Temperature,
		},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal stream request: %w", err)
	}

	var resp *http.Response
	err = c.executor.Execute(ctx, opStream, func(context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("create stream request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		r, err := c.streamClient.Do(req)
		if err != nil {
			return fmt.Errorf("ollama stream request: %w", err)
		}
		if r.StatusCode >= 300 {
			defer r.Body.Close()
			return statusError("stream", r)
		}
		resp = r
		return nil
	}, classifyOllamaError)
	if err != nil {
		return nil, wrapTemporaryIfNeeded("stream answer", err)
	}

	out := make(chan ports.CompletionChunk)
	go c.consumeStream(ctx, resp, out)
	return out, nil
}

func (c *Client) consumeStream(ctx context.Context, resp *http.Response, out chan<- ports.CompletionChunk) {
	defer close(out)
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var fragment struct {
			Response        string `json:"response"`
			Done            bool   `json:"done"`
			PromptEvalCount int    `json:"prompt_eval_count"`
			EvalCount       int    `json:"eval_count"`
		}
		if err := json.Unmarshal(line, &fragment); err != nil {
			c.emit(ctx, out, ports.CompletionChunk{Err: fmt.Errorf("decode stream fragment: %w", err)})
			return
		}

		if fragment.Done {
			tokens := fragment.PromptEvalCount + fragment.EvalCount
			c.recordUsage(tokens)
			c.emit(ctx, out, ports.CompletionChunk{Done: true, TokensUsed: tokens})
			return
		}
		if !c.emit(ctx, out, ports.CompletionChunk{Text: fragment.Response}) {
			return
		}
	}

	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		c.emit(ctx, out, ports.CompletionChunk{Err: fmt.Errorf("read stream: %w", err)})
	}
}

// emit delivers a chunk unless the consumer is gone; a false return means
// the caller cancelled and the producer must stop.
func (c *Client) emit(ctx context.Context, out chan<- ports.CompletionChunk, chunk ports.CompletionChunk) bool {
	select {
	case out <- chunk:
		return true
	case <-ctx.Done():
		return false
	}
}
