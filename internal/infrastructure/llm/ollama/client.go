package ollama

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/akuzminsky/paperrag/internal/core/domain"
	"github.com/akuzminsky/paperrag/internal/core/ports"
	"github.com/akuzminsky/paperrag/internal/infrastructure/resilience"
)

const (
	opGenerate = "llm_generate"
	opStream   = "llm_stream"
	opEmbed    = "llm_embed"
	opModels   = "llm_models"
)

type Client struct {
	baseURL    string
	genModel   string
	embedModel string
	costPer1K  float64

	httpClient *http.Client
	// No overall timeout: streamed bodies stay open for the whole generation.
	streamClient *http.Client

	executor *resilience.Executor

	usageMu       sync.Mutex
	totalTokens   int64
	totalCost     float64
	requestsCount int64
}

type Options struct {
	GenModel   string
	EmbedModel string
	CostPer1K  float64
	Executor   *resilience.Executor
}

func New(baseURL string, options Options) *Client {
	executor := options.Executor
	if executor == nil {
		executor = resilience.NewExecutor(resilience.DefaultConfig())
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		genModel:   options.GenModel,
		embedModel: options.EmbedModel,
		costPer1K:  options.CostPer1K,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		streamClient: &http.Client{
			Transport: &http.Transport{ResponseHeaderTimeout: 30 * time.Second},
		},
		executor: executor,
	}
}

// Generate performs a single non-streaming completion guarded by the
// llm_generate circuit breaker with classified retries.
func (c *Client) Generate(ctx context.Context, prompt string, opts ports.GenerationOptions) (ports.GenerationResult, error) {
	model := opts.Model
	if model == "" {
		model = c.genModel
	}
	reqBody := map[string]any{
		"model":  model,
		"prompt": prompt,
		"stream": false,
		"options": map[string]any{
			"num_predict": opts.MaxTokens,
			"temperature": opts.Temperature,
		},
	}

	var response struct {
		Response        string `json:"response"`
		PromptEvalCount int    `json:"prompt_eval_count"`
		EvalCount       int    `json:"eval_count"`
	}
	err := c.executor.Execute(ctx, opGenerate, func(callCtx context.Context) error {
		return c.postJSON(callCtx, "/api/generate", reqBody, &response, "generate")
	}, classifyOllamaError)
	if err != nil {
		return ports.GenerationResult{}, wrapTemporaryIfNeeded("generate answer", err)
	}

	tokens := response.PromptEvalCount + response.EvalCount
	c.recordUsage(tokens)

	return ports.GenerationResult{
		Text:       strings.TrimSpace(response.Response),
		TokensUsed: tokens,
		Model:      model,
	}, nil
}

// ListModels returns the provider catalog. Provider errors yield an empty
// catalog plus the error; callers must tolerate an empty list.
func (c *Client) ListModels(ctx context.Context) ([]domain.ModelInfo, error) {
	var response struct {
		Models []struct {
			Name    string `json:"name"`
			Model   string `json:"model"`
			Details struct {
				ParameterSize string `json:"parameter_size"`
			} `json:"details"`
		} `json:"models"`
	}
	err := c.executor.Execute(ctx, opModels, func(callCtx context.Context) error {
		return c.getJSON(callCtx, "/api/tags", &response, "models")
	}, classifyOllamaError)
	if err != nil {
		return []domain.ModelInfo{}, wrapTemporaryIfNeeded("list models", err)
	}

	out := make([]domain.ModelInfo, 0, len(response.Models))
	for _, m := range response.Models {
		id := m.Model
		if id == "" {
			id = m.Name
		}
		out = append(out, domain.ModelInfo{ID: id, Name: m.Name})
	}
	return out, nil
}

func (c *Client) UsageStats() domain.UsageStats {
	c.usageMu.Lock()
	defer c.usageMu.Unlock()
	return domain.UsageStats{
		TotalTokens:   c.totalTokens,
		TotalCost:     c.totalCost,
		RequestsCount: c.requestsCount,
		Tracked:       c.requestsCount > 0,
	}
}

func (c *Client) DefaultModel() string { return c.genModel }

func (c *Client) recordUsage(tokens int) {
	c.usageMu.Lock()
	defer c.usageMu.Unlock()
	c.totalTokens += int64(tokens)
	c.totalCost += float64(tokens) / 1000.0 * c.costPer1K
	c.requestsCount++
}

// Probe implements ports.HealthProber against the provider version endpoint.
func (c *Client) Probe(ctx context.Context) error {
	var response struct {
		Version string `json:"version"`
	}
	if err := c.getJSON(ctx, "/api/version", &response, "probe"); err != nil {
		return fmt.Errorf("ollama probe: %w", err)
	}
	return nil
}

type Embedder struct {
	client *Client
}

func NewEmbedder(client *Client) *Embedder {
	return &Embedder{client: client}
}

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	request := map[string]any{
		"model": e.client.embedModel,
		"input": texts,
	}

	var response struct {
		Embeddings [][]float32 `json:"embeddings"`
	}
	err := e.client.executor.Execute(ctx, opEmbed, func(callCtx context.Context) error {
		return e.client.postJSON(callCtx, "/api/embed", request, &response, "embed")
	}, classifyOllamaError)
	if err != nil {
		return nil, wrapTemporaryIfNeeded("embed", err)
	}
	return response.Embeddings, nil
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}
	return vectors[0], nil
}
