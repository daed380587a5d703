package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"

	"sermon-rag/internal/contextutil"
	"sermon-rag/internal/extract"
	"sermon-rag/internal/indexer"
	"sermon-rag/internal/service"
)

const (
	// MaxUploadFiles is the most files accepted in one upload.
	MaxUploadFiles = 10
	// MaxUploadFileSize is the largest single file accepted, in bytes.
	MaxUploadFileSize  = 10 << 20
	maxMultipartMemory = 32 << 20
)

// DocumentHandler handles document indexing and deletion for an owner.
type DocumentHandler struct {
	ragService service.RAGService
}

// NewDocumentHandler creates a new DocumentHandler.
func NewDocumentHandler(ragService service.RAGService) *DocumentHandler {
	return &DocumentHandler{ragService: ragService}
}

// IngestRequest is the JSON payload for indexing raw text.
type IngestRequest struct {
	DocumentID string `json:"document_id,omitempty"`
	Text       string `json:"text"`
	SourceURL  string `json:"source_url,omitempty"`
}

// UploadResponse summarizes a multipart upload.
type UploadResponse struct {
	DocumentsProcessed int                 `json:"documents_processed"`
	Documents          []IngestResponse    `json:"documents"`
	Errors             []string            `json:"errors,omitempty"`
	Stats              *indexer.OwnerStats `json:"stats,omitempty"`
}

// DeleteResponse reports how many chunks a delete removed.
type DeleteResponse struct {
	DeletedChunks int `json:"deleted_chunks"`
}

// Ingest handles POST /api/v1/owners/{ownerID}/documents.
func (h *DocumentHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	ownerID, err := ownerIDParam(r)
	if err != nil {
		writeServiceError(ctx, w, err, "Invalid owner")
		return
	}

	var req IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.ragService.IngestDocument(ctx, service.IngestRequest{
		OwnerID:    ownerID,
		DocumentID: req.DocumentID,
		Text:       req.Text,
		SourceURL:  req.SourceURL,
	})
	if err != nil {
		if resp, ok := degradedResponse(err); ok {
			logger.WarnContext(ctx, "document indexed with degraded coverage", "document_id", resp.DocumentID, "chunks_failed", resp.ChunksFailed)
			writeJSON(ctx, w, http.StatusOK, resp)
			return
		}
		writeServiceError(ctx, w, err, "Failed to index document")
		return
	}

	writeJSON(ctx, w, http.StatusCreated, newIngestResponse(result))
}

// Upload handles POST /api/v1/owners/{ownerID}/documents/upload with up to
// MaxUploadFiles files in the "documents" form field. Each file is indexed on
// its own; per-file failures are reported without failing the others.
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	ownerID, err := ownerIDParam(r)
	if err != nil {
		writeServiceError(ctx, w, err, "Invalid owner")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadFiles*MaxUploadFileSize+maxMultipartMemory)
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		logger.WarnContext(ctx, "invalid multipart form", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	files := r.MultipartForm.File["documents"]
	switch {
	case len(files) == 0:
		writeError(w, http.StatusBadRequest, "No documents uploaded")
		return
	case len(files) > MaxUploadFiles:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("At most %d documents per upload", MaxUploadFiles))
		return
	}

	resp := UploadResponse{Documents: []IngestResponse{}}
	for _, fh := range files {
		doc, err := h.ingestFile(r, ownerID, fh)
		if err != nil {
			if degraded, ok := degradedResponse(err); ok {
				resp.DocumentsProcessed++
				resp.Documents = append(resp.Documents, degraded)
				continue
			}
			logger.WarnContext(ctx, "failed to index uploaded file", "filename", fh.Filename, "error", err)
			resp.Errors = append(resp.Errors, fmt.Sprintf("%s: %v", fh.Filename, err))
			continue
		}
		resp.DocumentsProcessed++
		resp.Documents = append(resp.Documents, doc)
	}

	if stats, err := h.ragService.OwnerStats(ctx, ownerID); err != nil {
		logger.WarnContext(ctx, "failed to load owner stats", "owner_id", ownerID, "error", err)
	} else {
		resp.Stats = &stats
	}

	status := http.StatusOK
	if resp.DocumentsProcessed == 0 {
		status = http.StatusUnprocessableEntity
	}
	logger.InfoContext(ctx, "upload processed", "owner_id", ownerID, "files", len(files), "processed", resp.DocumentsProcessed)
	writeJSON(ctx, w, status, resp)
}

func (h *DocumentHandler) ingestFile(r *http.Request, ownerID int64, fh *multipart.FileHeader) (IngestResponse, error) {
	if fh.Size > MaxUploadFileSize {
		return IngestResponse{}, errors.New("file too large")
	}

	f, err := fh.Open()
	if err != nil {
		return IngestResponse{}, fmt.Errorf("failed to open upload: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	content, err := io.ReadAll(io.LimitReader(f, MaxUploadFileSize))
	if err != nil {
		return IngestResponse{}, fmt.Errorf("failed to read upload: %w", err)
	}

	text, err := extract.PlainText(fh.Filename, content)
	if err != nil {
		return IngestResponse{}, err
	}

	result, err := h.ragService.IngestDocument(r.Context(), service.IngestRequest{
		OwnerID:   ownerID,
		Text:      text,
		SourceURL: fh.Filename,
	})
	if err != nil {
		return IngestResponse{}, err
	}
	return newIngestResponse(result), nil
}

// Delete handles DELETE /api/v1/owners/{ownerID}/documents/{documentID}.
func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ownerID, err := ownerIDParam(r)
	if err != nil {
		writeServiceError(ctx, w, err, "Invalid owner")
		return
	}

	n, err := h.ragService.DeleteDocument(ctx, ownerID, chi.URLParam(r, "documentID"))
	if err != nil {
		writeServiceError(ctx, w, err, "Failed to delete document")
		return
	}
	writeJSON(ctx, w, http.StatusOK, DeleteResponse{DeletedChunks: n})
}

// Clear handles DELETE /api/v1/owners/{ownerID}/documents.
func (h *DocumentHandler) Clear(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ownerID, err := ownerIDParam(r)
	if err != nil {
		writeServiceError(ctx, w, err, "Invalid owner")
		return
	}

	n, err := h.ragService.ClearOwner(ctx, ownerID)
	if err != nil {
		writeServiceError(ctx, w, err, "Failed to clear documents")
		return
	}
	writeJSON(ctx, w, http.StatusOK, DeleteResponse{DeletedChunks: n})
}

// Stats handles GET /api/v1/owners/{ownerID}/stats.
func (h *DocumentHandler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ownerID, err := ownerIDParam(r)
	if err != nil {
		writeServiceError(ctx, w, err, "Invalid owner")
		return
	}

	stats, err := h.ragService.OwnerStats(ctx, ownerID)
	if err != nil {
		writeServiceError(ctx, w, err, "Failed to load stats")
		return
	}
	writeJSON(ctx, w, http.StatusOK, stats)
}
