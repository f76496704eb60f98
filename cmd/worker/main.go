package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"classattend/internal/app"
	"classattend/internal/attendance"
	"classattend/internal/config"
	"classattend/internal/logging"
	"classattend/internal/worker"
)

// Worker consumes attendance events, repairs course counters and runs the nightly sweep.
func main() {
	cfg := config.Load()

	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend, err := app.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("backend init failed", zap.Error(err))
	}
	defer backend.Close(context.Background())

	if cfg.QueueBackend == "memory" {
		logger.Warn("in-memory queue is process local; events are handled by the api, only the scheduled sweep runs here")
	}

	rec := attendance.NewReconciler(backend.Records, backend.Roster, logger.Named("reconcile"))
	w := worker.New(rec, logger.Named("worker"))
	if err := w.Schedule(cfg.ReconcileSchedule); err != nil {
		logger.Fatal("scheduler init failed", zap.Error(err))
	}
	defer w.Stop()

	if cfg.MetricsEnabled {
		srv := &http.Server{
			Addr:              ":" + cfg.WorkerMetricsPort,
			Handler:           promhttp.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", zap.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	if err := w.Run(ctx, backend.Queue); err != nil {
		logger.Error("worker failed", zap.Error(err))
	}
}
