package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/akuzminsky/paperrag/internal/bootstrap"
	"github.com/akuzminsky/paperrag/internal/config"
	"github.com/akuzminsky/paperrag/internal/observability/logging"
	"github.com/akuzminsky/paperrag/internal/observability/metrics"
)

const serviceName = "paperrag-worker"

func main() {
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := logging.NewJSONLogger(serviceName, cfg.LogLevel)

	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{Logger: logger})
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics(serviceName)
	metricsServer := &http.Server{
		Addr:        ":" + cfg.WorkerMetricsPort,
		Handler:     workerMetrics.Handler(),
		ReadTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("worker metrics listening", "addr", metricsServer.Addr)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("worker metrics server error", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	logger.Info("worker subscribed", "subject", cfg.NATSIngestSubject)
	err = app.Queue.SubscribePaperIngested(ctx, func(handlerCtx context.Context, paperID string) error {
		if paper, lookupErr := app.Repo.GetByID(handlerCtx, paperID); lookupErr == nil {
			workerMetrics.ObserveQueueLag(serviceName, time.Since(paper.CreatedAt))
		}

		workerMetrics.StartPaper()
		started := time.Now()

		processCtx, cancel := context.WithTimeout(handlerCtx, 5*time.Minute)
		defer cancel()
		processErr := app.ProcessUC.ProcessByID(processCtx, paperID)

		workerMetrics.FinishPaper(serviceName, time.Since(started), processErr)
		return processErr
	})
	if err != nil {
		log.Fatalf("worker subscribe error: %v", err)
	}
}
