package indexer

import (
	"context"
	"time"

	"sermon-rag/internal/throttle"
)

// Embedder produces the vector of one chunk of text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// IngestInput is one document to ingest.
type IngestInput struct {
	OwnerID    int64
	DocumentID string
	Text       string
	SourceURL  string
}

// IngestResult reports a completed ingestion.
type IngestResult struct {
	DocumentID      string           `json:"document_id"`
	ChunksTotal     int              `json:"chunks_total"`
	ChunksAttempted int              `json:"chunks_attempted"`
	ChunksStored    int              `json:"chunks_stored"`
	ChunksFailed    int              `json:"chunks_failed"`
	ElapsedMs       int64            `json:"elapsed_ms"`
	TimedOut        bool             `json:"timed_out,omitempty"`
	ChunkStats      ChunkLengthStats `json:"chunk_length_stats"`
}

// Options tunes the ingestion pipeline. Zero fields take defaults.
type Options struct {
	// Budget is the wall-clock limit of the embed-and-store loop.
	Budget time.Duration
	// MaxFailuresWithoutSuccess trips the circuit breaker once exceeded with nothing stored.
	MaxFailuresWithoutSuccess int
	// DegradedRatio is the failed/total ratio above which ingestion is degraded.
	DegradedRatio float64
	// Throttle paces calls to the embedding provider.
	Throttle throttle.Policy
	// Collection is the vector mirror collection, if a mirror is configured.
	Collection string
}

// DefaultOptions returns the standard ingestion tuning.
func DefaultOptions() Options {
	return Options{
		Budget:                    60 * time.Second,
		MaxFailuresWithoutSuccess: 5,
		DegradedRatio:             0.5,
		Throttle:                  throttle.DefaultPolicy(),
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Budget <= 0 {
		o.Budget = d.Budget
	}
	if o.MaxFailuresWithoutSuccess <= 0 {
		o.MaxFailuresWithoutSuccess = d.MaxFailuresWithoutSuccess
	}
	if o.DegradedRatio <= 0 || o.DegradedRatio >= 1 {
		o.DegradedRatio = d.DegradedRatio
	}
	if o.Throttle == (throttle.Policy{}) {
		o.Throttle = d.Throttle
	}
	return o
}
