package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"classattend/internal/app"
	"classattend/internal/attendance"
	"classattend/internal/config"
	"classattend/internal/httpapi"
	"classattend/internal/logging"
	"classattend/internal/roster"
	"classattend/internal/worker"
)

func main() {
	cfg := config.Load()

	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg, logger); err != nil {
		logger.Fatal("http server failed", zap.Error(err))
	}
}

func runHTTP(cfg config.App, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend, err := app.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer backend.Close(context.Background())

	rosterSvc := roster.NewService(backend.Roster)
	attendanceSvc := attendance.NewService(backend.Records, backend.Roster, attendance.Options{
		Publisher:        backend.Queue,
		Logger:           logger.Named("attendance"),
		WarningThreshold: cfg.WarningThreshold,
	})

	// an in-memory queue is only visible to this process, so consume it here
	if cfg.QueueBackend == "memory" {
		rec := attendance.NewReconciler(backend.Records, backend.Roster, logger.Named("reconcile"))
		go func() {
			if err := worker.New(rec, logger.Named("worker")).Run(ctx, backend.Queue); err != nil {
				logger.Error("in-process worker failed", zap.Error(err))
			}
		}()
	}

	router := httpapi.NewRouter(httpapi.Deps{
		Attendance:     attendanceSvc,
		Roster:         rosterSvc,
		Logger:         logger,
		SigningKey:     cfg.JWTSigningKey,
		Issuer:         cfg.JWTIssuer,
		Limiter:        backend.Limiter(cfg),
		CORSOrigins:    cfg.CORSOrigins,
		MetricsEnabled: cfg.MetricsEnabled,
		Production:     cfg.Production(),
		Health:         backend.Health,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down server")

	// Give outstanding requests 10 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server forced shutdown", zap.Error(err))
	}
	logger.Info("server exited")
	return nil
}
