package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"sermon-rag/internal/contextutil"
	"sermon-rag/internal/indexer"
	"sermon-rag/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// IngestionErrorResponse reports a failed ingestion with the phase and counts.
type IngestionErrorResponse struct {
	Error           string `json:"error"`
	Phase           string `json:"phase"`
	DocumentID      string `json:"document_id"`
	ChunksTotal     int    `json:"chunks_total"`
	ChunksAttempted int    `json:"chunks_attempted"`
	ChunksStored    int    `json:"chunks_stored"`
	ChunksFailed    int    `json:"chunks_failed"`
	ElapsedMs       int64  `json:"elapsed_ms"`
}

// IngestResponse is the result of indexing one document.
type IngestResponse struct {
	// "indexed" or "degraded"
	Status          string                    `json:"status"`
	DocumentID      string                    `json:"document_id"`
	ChunksTotal     int                       `json:"chunks_total"`
	ChunksAttempted int                       `json:"chunks_attempted"`
	ChunksStored    int                       `json:"chunks_stored"`
	ChunksFailed    int                       `json:"chunks_failed"`
	ElapsedMs       int64                     `json:"elapsed_ms"`
	TimedOut        bool                      `json:"timed_out,omitempty"`
	ChunkStats      *indexer.ChunkLengthStats `json:"chunk_stats,omitempty"`
}

func newIngestResponse(result indexer.IngestResult) IngestResponse {
	stats := result.ChunkStats
	return IngestResponse{
		Status:          "indexed",
		DocumentID:      result.DocumentID,
		ChunksTotal:     result.ChunksTotal,
		ChunksAttempted: result.ChunksAttempted,
		ChunksStored:    result.ChunksStored,
		ChunksFailed:    result.ChunksFailed,
		ElapsedMs:       result.ElapsedMs,
		TimedOut:        result.TimedOut,
		ChunkStats:      &stats,
	}
}

// degradedResponse converts an IngestionDegraded error into a partial-success response.
func degradedResponse(err error) (IngestResponse, bool) {
	var ierr *indexer.IngestionError
	if !errors.Is(err, indexer.ErrIngestionDegraded) || !errors.As(err, &ierr) {
		return IngestResponse{}, false
	}
	return IngestResponse{
		Status:          "degraded",
		DocumentID:      ierr.DocumentID,
		ChunksTotal:     ierr.Total,
		ChunksAttempted: ierr.Attempted,
		ChunksStored:    ierr.Stored,
		ChunksFailed:    ierr.Failed,
		ElapsedMs:       ierr.Elapsed.Milliseconds(),
	}, true
}

// statusFor maps service and ingestion errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, indexer.ErrDocumentTooSmall), errors.Is(err, indexer.ErrChunkingProducedNothing):
		return http.StatusUnprocessableEntity
	case errors.Is(err, indexer.ErrTooManyConsecutiveFailures):
		return http.StatusServiceUnavailable
	case errors.Is(err, indexer.ErrIngestionFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError logs err and writes the mapped status. Ingestion errors
// carry their phase and counts; internal errors hide the message.
func writeServiceError(ctx context.Context, w http.ResponseWriter, err error, defaultMsg string) {
	logger := contextutil.LoggerFromContext(ctx)
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(ctx, defaultMsg, "error", err, "status", status)
	} else {
		logger.WarnContext(ctx, defaultMsg, "error", err, "status", status)
	}

	var ierr *indexer.IngestionError
	if errors.As(err, &ierr) {
		writeJSON(ctx, w, status, IngestionErrorResponse{
			Error:           ierr.Err.Error(),
			Phase:           string(ierr.Phase),
			DocumentID:      ierr.DocumentID,
			ChunksTotal:     ierr.Total,
			ChunksAttempted: ierr.Attempted,
			ChunksStored:    ierr.Stored,
			ChunksFailed:    ierr.Failed,
			ElapsedMs:       ierr.Elapsed.Milliseconds(),
		})
		return
	}

	msg := defaultMsg
	if status < http.StatusInternalServerError {
		msg = err.Error()
	}
	writeError(w, status, msg)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error: message,
	})
}

func writeJSON(ctx context.Context, w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

// ownerIDParam reads the {ownerID} path parameter.
func ownerIDParam(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "ownerID")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, &service.ValidationError{Field: "owner_id", Message: "must be a positive integer"}
	}
	return id, nil
}
