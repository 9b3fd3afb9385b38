package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/ibeloyar/laundry/internal/config"
	"github.com/ibeloyar/laundry/internal/pricing"
	"github.com/ibeloyar/laundry/internal/repository/pg"
	"github.com/ibeloyar/laundry/internal/service"
	"github.com/ibeloyar/laundry/pgk/logger"
	"github.com/ibeloyar/laundry/pgk/tracing"
	"go.uber.org/zap"

	httpController "github.com/ibeloyar/laundry/internal/controller/http"
)

const (
	serviceName     = "laundry"
	shutdownTimeout = 5 * time.Second
)

func Run(cfg config.Config, lg *zap.SugaredLogger) error {
	engine, err := pricing.NewEngine(cfg.Rates())
	if err != nil {
		return err
	}

	shutdownTracing, err := tracing.NewProvider(cfg.TracingEndpoint, serviceName, lg)
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}

	storage, err := pg.New(pg.Options{
		DatabaseURI:          cfg.DatabaseURI,
		BillingSystemAddress: cfg.BillingSystemAddress,
		ExportInterval:       cfg.ExportInterval,
	}, lg)
	if err != nil {
		return err
	}

	storage.RunBillingExport()

	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(logger.LoggingMiddleware(lg))
	router.Use(middleware.Recoverer)

	s := service.New(storage, engine, lg, cfg.QuotaRetryAttempts)

	handlers := httpController.New(s, storage, lg)
	router = httpController.InitRoutes(router, handlers, handlers)

	srv := &http.Server{
		Addr:    cfg.RunAddress,
		Handler: router,
	}

	signalCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lg.Infof("starting server on %s", cfg.RunAddress)

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Errorf("server ListenAndServe error: %v", err)
			serverErr <- err
		}
	}()

	select {
	case <-signalCtx.Done():
	case err := <-serverErr:
		storage.StopBillingExport()
		_ = storage.Shutdown()
		return err
	}

	lg.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown (server) error: %v", err)
	}

	storage.StopBillingExport()

	if err := storage.Shutdown(); err != nil {
		return fmt.Errorf("shutdown (repo) error: %v", err)
	}

	if err := shutdownTracing(ctx); err != nil {
		lg.Warnf("shutdown (tracing) error: %v", err)
	}

	lg.Info("server shutdown success")
	return nil
}
