package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"sermon-rag/internal/contextutil"
	"sermon-rag/internal/rag"
	"sermon-rag/internal/service"
)

// MaxContextK bounds the reference count a caller may request.
const MaxContextK = 50

// ContextHandler assembles retrieval context for a generation step.
type ContextHandler struct {
	ragService service.RAGService
}

// NewContextHandler creates a new ContextHandler.
func NewContextHandler(ragService service.RAGService) *ContextHandler {
	return &ContextHandler{ragService: ragService}
}

// ContextRequest is the JSON payload for POST /api/v1/context.
type ContextRequest struct {
	OwnerID          *int64 `json:"owner_id,omitempty"`
	Topic            string `json:"topic"`
	AuxiliaryContext string `json:"auxiliary_context,omitempty"`
	K                int    `json:"k,omitempty"`
}

// ContextResponse carries the formatted references, empty when nothing matched.
type ContextResponse struct {
	Context    string `json:"context"`
	HasContext bool   `json:"has_context"`
}

// ServeHTTP handles POST /api/v1/context. Retrieval failures are not errors:
// the response simply has an empty context.
func (h *ContextHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req ContextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if strings.TrimSpace(req.Topic) == "" && strings.TrimSpace(req.AuxiliaryContext) == "" {
		writeError(w, http.StatusBadRequest, "Topic or auxiliary_context is required")
		return
	}
	if req.K < 0 || req.K > MaxContextK {
		writeError(w, http.StatusBadRequest, "k must be between 0 and 50")
		return
	}
	if req.OwnerID != nil && *req.OwnerID <= 0 {
		writeError(w, http.StatusBadRequest, "owner_id must be a positive integer")
		return
	}

	out := h.ragService.BuildContext(ctx, rag.ContextRequest{
		OwnerID:          req.OwnerID,
		Topic:            req.Topic,
		AuxiliaryContext: req.AuxiliaryContext,
		K:                req.K,
	})
	writeJSON(ctx, w, http.StatusOK, ContextResponse{Context: out, HasContext: out != ""})
}
