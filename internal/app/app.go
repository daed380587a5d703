// Package app wires configuration into the storage, embedding, ingestion and
// retrieval components shared by the API server and the CLI.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"

	"sermon-rag/internal/config"
	"sermon-rag/internal/embedding"
	"sermon-rag/internal/handlers"
	"sermon-rag/internal/indexer"
	"sermon-rag/internal/llm"
	"sermon-rag/internal/rag"
	"sermon-rag/internal/service"
	"sermon-rag/internal/storage"
	"sermon-rag/internal/throttle"
	"sermon-rag/internal/vectorstore"
)

// App holds the constructed components.
type App struct {
	Config     *config.Config
	DB         *sql.DB
	Chunks     *storage.ChunkRepo
	Embeddings *llm.EmbeddingsClient
	Embedder   *embedding.Embedder
	Mirror     *vectorstore.QdrantStore // nil when the mirror is disabled
	Pipeline   *indexer.Pipeline
	Searcher   *rag.Searcher
	Assembler  *rag.Assembler
	Service    service.RAGService
}

// NewLogger builds the slog logger described by cfg.
func NewLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// Build opens the database, runs migrations and constructs every component.
// The caller must Close the returned App.
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	dialect, err := storage.ParseDialect(cfg.DBDriver)
	if err != nil {
		return nil, err
	}

	db, err := storage.Open(dialect, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := storage.Migrate(db, dialect); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.InfoContext(ctx, "Database initialized", "driver", dialect)

	a := &App{
		Config: cfg,
		DB:     db,
		Chunks: storage.NewChunkRepo(db, dialect),
	}

	a.Embeddings = llm.NewEmbeddingsClient(
		cfg.EmbeddingBaseURL,
		cfg.EmbeddingAPIKey,
		cfg.EmbeddingModelName,
		cfg.EmbeddingSize,
		llm.WithTimeout(cfg.EmbeddingTimeout),
		llm.WithRateLimit(cfg.EmbeddingRPS),
	)
	a.Embedder = embedding.New(a.Embeddings)

	var mirror vectorstore.VectorStore
	if cfg.MirrorEnabled() {
		store, err := vectorstore.NewQdrantStore(cfg.QdrantURL, cfg.QdrantAPIKey)
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("failed to create Qdrant client: %w", err)
		}
		a.Mirror = store
		if err := store.EnsureCollection(ctx, cfg.QdrantCollection, cfg.EmbeddingSize); err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("failed to ensure Qdrant collection: %w", err)
		}
		mirror = store
		slog.InfoContext(ctx, "Qdrant collection ready", "collection", cfg.QdrantCollection, "vector_size", cfg.EmbeddingSize)
	}

	t := cfg.Tuning
	chunker := indexer.NewChunker(
		indexer.WithChunkSize(t.ChunkSize),
		indexer.WithOverlap(t.ChunkOverlap),
	)
	a.Pipeline = indexer.NewPipeline(a.Chunks, a.Embedder, chunker, mirror, indexer.Options{
		Budget:                    t.IngestTimeout,
		MaxFailuresWithoutSuccess: t.MaxChunkFailures,
		Throttle: throttle.Policy{
			Concurrency: 1,
			PauseEvery:  t.ThrottlePauseEvery,
			Pause:       t.ThrottlePause,
		},
		Collection: cfg.QdrantCollection,
	})

	floor := t.SimilarityFloor
	a.Searcher = rag.NewSearcher(a.Chunks, rag.SearchOptions{
		K:             t.SearchK,
		MinScore:      &floor,
		MaxCandidates: t.GlobalCandidateLimit,
	})
	a.Assembler = rag.NewAssembler(a.Embedder, a.Searcher, t.ContextK)

	a.Service = service.NewRAGService(a.Pipeline, a.Chunks, a.Chunks, a.Assembler, mirror, cfg.QdrantCollection)
	return a, nil
}

// ProbeEmbeddings embeds a fixed string and checks the vector size, so a
// misconfigured provider fails at startup rather than on first ingestion.
func (a *App) ProbeEmbeddings(ctx context.Context) error {
	vecs, err := a.Embeddings.EmbedTexts(ctx, []string{"test"})
	if err != nil {
		return fmt.Errorf("failed to validate embedding client: %w", err)
	}
	if len(vecs) == 0 || len(vecs[0]) != a.Config.EmbeddingSize {
		return fmt.Errorf("embedding vector size mismatch: expected %d", a.Config.EmbeddingSize)
	}
	return nil
}

// MirrorHealth returns the mirror as a health dependency, or nil when the
// mirror is disabled.
func (a *App) MirrorHealth() handlers.CollectionChecker {
	if a.Mirror == nil {
		return nil
	}
	return a.Mirror
}

// Close releases the mirror connection and the database.
func (a *App) Close() error {
	if a.Mirror != nil {
		if err := a.Mirror.Close(); err != nil {
			slog.Warn("failed to close Qdrant client", "error", err)
		}
	}
	return a.DB.Close()
}
