package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mkorchagin/dishchat/internal/bootstrap"
	"github.com/mkorchagin/dishchat/internal/config"
	"github.com/mkorchagin/dishchat/internal/core/domain"
	"github.com/mkorchagin/dishchat/internal/observability/logging"
	"github.com/mkorchagin/dishchat/internal/observability/metrics"
)

func main() {
	cfg := config.Load()
	slog.SetDefault(logging.New("worker", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics("worker")
	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: workerMetrics.Handler(),
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("worker_metrics_server_failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	slog.Info("worker_subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeItems(ctx, func(handlerCtx context.Context, item domain.FoodItem) error {
		workerMetrics.StartItem()
		start := time.Now()

		ingestCtx, cancel := context.WithTimeout(handlerCtx, 2*time.Minute)
		defer cancel()

		ingestErr := app.IngestUC.IngestItem(ingestCtx, item)
		workerMetrics.FinishItem("worker", time.Since(start), ingestErr)
		if ingestErr != nil {
			slog.Error("item_ingest_failed", "item", item.Name, "error", ingestErr)
		} else {
			slog.Info("item_ingested", "item", item.Name)
		}
		return ingestErr
	})
	if err != nil {
		slog.Error("worker_subscribe_failed", "error", err)
		os.Exit(1)
	}
}
