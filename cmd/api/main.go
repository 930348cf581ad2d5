package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/akuzminsky/paperrag/internal/adapters/http"
	"github.com/akuzminsky/paperrag/internal/bootstrap"
	"github.com/akuzminsky/paperrag/internal/config"
	"github.com/akuzminsky/paperrag/internal/observability/logging"
	"github.com/akuzminsky/paperrag/internal/observability/metrics"
)

func main() {
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := logging.NewJSONLogger("paperrag-api", cfg.LogLevel)
	serverMetrics := metrics.NewHTTPServerMetrics("paperrag-api")

	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{
		Metrics: serverMetrics,
		Logger:  logger,
	})
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	router := httpadapter.NewRouter(httpadapter.RouterOptions{
		Answers:  app.AnswerUC,
		Search:   app.SearchUC,
		Ingest:   app.IngestUC,
		Papers:   app.Repo,
		Cache:    app.Cache,
		Limiter:  app.Limiter,
		Breakers: app.Breakers,
		Metrics:  serverMetrics,
		MetricsH: serverMetrics.Handler(),
		Logger:   logger,
		Traffic: httpadapter.TrafficConfig{
			RateLimitRPS:     cfg.APIRateLimitRPS,
			RateLimitBurst:   cfg.APIRateLimitBurst,
			MaxConcurrent:    cfg.APIMaxConcurrent,
			BackpressureWait: time.Duration(cfg.APIBackpressureWaitMS) * time.Millisecond,
		},
	})

	// Streaming responses stay open past any fixed write deadline, so
	// WriteTimeout stays unset; slow-client protection is left to
	// ReadTimeout and the per-request pipeline timeout.
	server := &http.Server{
		Addr:        ":" + cfg.APIPort,
		Handler:     router.Handler(),
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		logger.Info("api listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("api server error: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("api shutdown error", "error", err)
	}
}
