package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/anortham/miller-embeddings/internal/config"
	"github.com/anortham/miller-embeddings/internal/httpapi"
	"github.com/anortham/miller-embeddings/internal/service"
	"github.com/anortham/miller-embeddings/internal/storage"
)

var version = "dev"

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	cfg := config.Load()
	logger.Info("starting embedding daemon",
		"version", version,
		"addr", cfg.HTTPAddr,
		"store", cfg.Store,
		"driver", storage.DriverName,
		"build_mode", storage.BuildMode,
	)

	svc, err := service.New(cfg, logger)
	if err != nil {
		logger.Error("service init failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := svc.Start(ctx); err != nil {
		logger.Error("pool startup failed", "error", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: httpapi.NewRouter(cfg, svc),
	}

	errChan := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.HTTPAddr)
		errChan <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
		}
	}

	// Stop accepting requests, then drain the pool and close the store.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.DrainTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown incomplete", "error", err)
	}
	if err := svc.Close(); err != nil {
		logger.Error("service shutdown failed", "error", err)
		os.Exit(1)
	}
	logger.Info("daemon stopped")
}
