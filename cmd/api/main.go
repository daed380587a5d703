package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sermon-rag/internal/app"
	"sermon-rag/internal/config"
	"sermon-rag/internal/http"
)

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := app.NewLogger(cfg, os.Stdout)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer func() {
		_ = a.Close()
	}()

	// Validate embedding client vector size (fail-fast)
	if err := a.ProbeEmbeddings(ctx); err != nil {
		log.Fatalf("Embedding provider check failed: %v", err)
	}
	slog.Info("Embedding client validated", "vector_size", cfg.EmbeddingSize, "model", cfg.EmbeddingModelName)

	router := http.NewRouter(&http.Deps{
		RAGService:     a.Service,
		DB:             a.DB,
		Mirror:         a.MirrorHealth(),
		CollectionName: cfg.QdrantCollection,
		RequestTimeout: cfg.Tuning.IngestTimeout + 30*time.Second,
	})

	addr := ":" + cfg.APIPort
	srv := &nethttp.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Graceful shutdown failed", "error", err)
		}
	}()

	slog.Info("Starting API server", "addr", addr, "mirror", cfg.MirrorEnabled())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
		log.Fatalf("API server failed: %v", err)
	}
	slog.Info("API server stopped")
}
