package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"sermon-rag/internal/service"
	"sermon-rag/internal/storage"
)

// AdminHandler exposes cross-owner document management.
type AdminHandler struct {
	ragService service.RAGService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(ragService service.RAGService) *AdminHandler {
	return &AdminHandler{ragService: ragService}
}

// DocumentListResponse lists every indexed document.
type DocumentListResponse struct {
	Documents []storage.DocumentSummary `json:"documents"`
	Total     int                       `json:"total"`
}

// List handles GET /api/v1/admin/documents.
func (h *AdminHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	docs, err := h.ragService.ListDocuments(ctx)
	if err != nil {
		writeServiceError(ctx, w, err, "Failed to list documents")
		return
	}
	if docs == nil {
		docs = []storage.DocumentSummary{}
	}
	writeJSON(ctx, w, http.StatusOK, DocumentListResponse{Documents: docs, Total: len(docs)})
}

// Delete handles DELETE /api/v1/admin/documents/{documentID}.
func (h *AdminHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	n, err := h.ragService.AdminDeleteDocument(ctx, chi.URLParam(r, "documentID"))
	if err != nil {
		writeServiceError(ctx, w, err, "Failed to delete document")
		return
	}
	writeJSON(ctx, w, http.StatusOK, DeleteResponse{DeletedChunks: n})
}
