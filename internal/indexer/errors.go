package indexer

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrDocumentTooSmall is returned when cleaned text is shorter than MinSplitLength.
	ErrDocumentTooSmall = errors.New("document too small")
	// ErrChunkingProducedNothing is returned when the chunker yields no chunks.
	ErrChunkingProducedNothing = errors.New("chunking produced nothing")
	// ErrTooManyConsecutiveFailures is returned when chunks keep failing before any succeeds.
	ErrTooManyConsecutiveFailures = errors.New("too many consecutive failures")
	// ErrIngestionFailed is returned when no chunk was stored.
	ErrIngestionFailed = errors.New("ingestion failed")
	// ErrIngestionDegraded is returned when more than half of the chunks failed.
	ErrIngestionDegraded = errors.New("ingestion degraded")
)

// Phase names a step of the ingestion state machine.
type Phase string

const (
	PhaseValidate Phase = "validate"
	PhasePurge    Phase = "purge"
	PhaseChunk    Phase = "chunk"
	PhaseEmbed    Phase = "embed"
	PhaseFinalize Phase = "finalize"
)

// IngestionError reports which phase of an ingestion failed and how far it got.
type IngestionError struct {
	Phase      Phase
	DocumentID string
	Total      int
	Attempted  int
	Stored     int
	Failed     int
	Elapsed    time.Duration
	// LastChunkErr is the most recent per-chunk failure, if any.
	LastChunkErr error
	Err          error
}

func (e *IngestionError) Error() string {
	msg := fmt.Sprintf("ingest %s: %s phase: %v (chunks total=%d attempted=%d stored=%d failed=%d, %dms)",
		e.DocumentID, e.Phase, e.Err, e.Total, e.Attempted, e.Stored, e.Failed, e.Elapsed.Milliseconds())
	if e.LastChunkErr != nil {
		msg += fmt.Sprintf(": last chunk error: %v", e.LastChunkErr)
	}
	return msg
}

// Unwrap returns the sentinel or underlying error.
func (e *IngestionError) Unwrap() error {
	return e.Err
}
