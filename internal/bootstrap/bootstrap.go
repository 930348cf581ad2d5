package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/akuzminsky/paperrag/internal/config"
	"github.com/akuzminsky/paperrag/internal/core/ports"
	"github.com/akuzminsky/paperrag/internal/core/usecase"
	"github.com/akuzminsky/paperrag/internal/infrastructure/chunking"
	"github.com/akuzminsky/paperrag/internal/infrastructure/extractor"
	"github.com/akuzminsky/paperrag/internal/infrastructure/extractor/pdftext"
	"github.com/akuzminsky/paperrag/internal/infrastructure/extractor/plaintext"
	"github.com/akuzminsky/paperrag/internal/infrastructure/llm/ollama"
	"github.com/akuzminsky/paperrag/internal/infrastructure/queue/nats"
	redisinfra "github.com/akuzminsky/paperrag/internal/infrastructure/redis"
	"github.com/akuzminsky/paperrag/internal/infrastructure/repository/postgres"
	"github.com/akuzminsky/paperrag/internal/infrastructure/resilience"
	"github.com/akuzminsky/paperrag/internal/infrastructure/storage/localfs"
	"github.com/akuzminsky/paperrag/internal/infrastructure/vector/qdrant"
	"github.com/akuzminsky/paperrag/internal/observability/logging"
)

type App struct {
	Config config.Config

	Queue    ports.MessageQueue
	Repo     ports.PaperRepository
	Cache    ports.AnswerCache
	Limiter  ports.RateLimiter
	Breakers *resilience.Registry

	IngestUC  ports.PaperIngestor
	ProcessUC ports.PaperProcessor
	AnswerUC  ports.AnswerService
	SearchUC  ports.SearchService

	closeFn func()
}

type Options struct {
	Metrics usecase.PipelineMetrics
	Logger  *slog.Logger
}

func New(ctx context.Context, cfg config.Config, options Options) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewPaperRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	queue, err := nats.New(cfg.NATSURL, cfg.NATSIngestSubject, cfg.NATSAuditSubject)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	redisClient, err := redisinfra.Open(ctx, redisinfra.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		queue.Close()
		_ = db.Close()
		return nil, fmt.Errorf("open redis: %w", err)
	}

	policies, err := loadLimiterPolicies(cfg.RateLimitPolicyFile)
	if err != nil {
		_ = redisClient.Close()
		queue.Close()
		_ = db.Close()
		return nil, fmt.Errorf("load rate limit policies: %w", err)
	}
	limiter := redisinfra.NewRateLimiter(redisClient, policies)
	answerCache := redisinfra.NewAnswerCache(redisClient, time.Duration(cfg.CacheTTLSeconds)*time.Second)

	// Retrieval gets a single retry so a transient search hiccup does not
	// double request latency; generation keeps the full retry budget.
	searchConfig := resilience.DefaultConfig()
	searchConfig.RetryMaxAttempts = 2
	searchExecutor := resilience.NewExecutor(searchConfig)
	llmExecutor := resilience.NewExecutor(resilience.DefaultConfig())
	registry := resilience.NewRegistry(searchExecutor, llmExecutor)

	ollamaClient := ollama.New(cfg.OllamaURL, ollama.Options{
		GenModel:   cfg.OllamaGenModel,
		EmbedModel: cfg.OllamaEmbedModel,
		CostPer1K:  cfg.OllamaCostPer1K,
		Executor:   llmExecutor,
	})
	embedder := ollama.NewEmbedder(ollamaClient)

	index := qdrant.New(cfg.QdrantURL, cfg.QdrantCollection, searchExecutor)
	chunker := chunking.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)
	textExtractor := extractor.NewMux(pdftext.NewExtractor(storage), plaintext.NewExtractor(storage))

	probers := map[string]ports.HealthProber{
		"search": index,
		"llm":    ollamaClient,
		"cache":  redisinfra.NewProber(redisClient),
	}

	answerUC := usecase.NewAnswerUseCase(limiter, answerCache, embedder, index, ollamaClient, queue, probers, registry.OpenOperations, usecase.AnswerOptions{
		RequestTimeout:   time.Duration(cfg.RAGRequestTimeout) * time.Second,
		CacheTTL:         time.Duration(cfg.CacheTTLSeconds) * time.Second,
		ContextWindow:    cfg.RAGContextWindow,
		BatchConcurrency: cfg.RAGBatchConcurrency,
		RRFRankConstant:  cfg.RAGFusionRRFK,
		Model:            cfg.OllamaGenModel,
		Metrics:          options.Metrics,
		Logger:           logging.ForComponent(options.Logger, "rag"),
	})
	searchUC := usecase.NewSearchUseCase(limiter, embedder, index, cfg.RAGFusionRRFK, options.Metrics, logging.ForComponent(options.Logger, "search"))
	ingestUC := usecase.NewIngestPaperUseCase(repo, storage, queue)
	processUC := usecase.NewProcessPaperUseCase(repo, textExtractor, chunker, embedder, index)

	return &App{
		Config: cfg,

		Queue:    queue,
		Repo:     repo,
		Cache:    answerCache,
		Limiter:  limiter,
		Breakers: registry,

		IngestUC:  ingestUC,
		ProcessUC: processUC,
		AnswerUC:  answerUC,
		SearchUC:  searchUC,

		closeFn: func() {
			queue.Close()
			_ = redisClient.Close()
			_ = db.Close()
		},
	}, nil
}

func loadLimiterPolicies(path string) (map[string]redisinfra.Policy, error) {
	loaded, err := config.LoadRateLimitPolicies(path)
	if err != nil {
		return nil, err
	}
	policies := make(map[string]redisinfra.Policy, len(loaded))
	for operation, policy := range loaded {
		policies[operation] = redisinfra.Policy{
			Limit:  policy.Limit,
			Window: policy.Window(),
		}
	}
	return policies, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
