package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/mock/gomock"

	"sermon-rag/internal/indexer"
	"sermon-rag/internal/service"
	"sermon-rag/internal/service/mocks"
)

// withURLParams attaches chi path parameters to a request.
func withURLParams(req *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestDocumentHandler_Ingest(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockService := mocks.NewMockRAGService(ctrl)

	mockService.EXPECT().
		IngestDocument(gomock.Any(), service.IngestRequest{OwnerID: 7, Text: "texto", SourceURL: "a.txt"}).
		Return(indexer.IngestResult{DocumentID: "doc_7_x", ChunksTotal: 5, ChunksAttempted: 5, ChunksStored: 5, ElapsedMs: 42}, nil)

	handler := NewDocumentHandler(mockService)
	body, _ := json.Marshal(IngestRequest{Text: "texto", SourceURL: "a.txt"})
	req := withURLParams(httptest.NewRequest(http.MethodPost, "/api/v1/owners/7/documents", bytes.NewReader(body)), map[string]string{"ownerID": "7"})
	w := httptest.NewRecorder()

	handler.Ingest(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("Ingest() status = %v, want %v; body %s", w.Code, http.StatusCreated, w.Body.String())
	}
	var resp IngestResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Status != "indexed" || resp.DocumentID != "doc_7_x" || resp.ChunksStored != 5 || resp.ElapsedMs != 42 {
		t.Errorf("Ingest() response = %+v", resp)
	}
}

func TestDocumentHandler_Ingest_BadRequests(t *testing.T) {
	tests := []struct {
		name    string
		ownerID string
		body    string
	}{
		{name: "non-numeric owner", ownerID: "abc", body: `{"text":"x"}`},
		{name: "zero owner", ownerID: "0", body: `{"text":"x"}`},
		{name: "invalid json", ownerID: "7", body: `{"text":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			handler := NewDocumentHandler(mocks.NewMockRAGService(ctrl))

			req := withURLParams(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body)), map[string]string{"ownerID": tt.ownerID})
			w := httptest.NewRecorder()
			handler.Ingest(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("Ingest() status = %v, want %v", w.Code, http.StatusBadRequest)
			}
		})
	}
}

func TestDocumentHandler_Ingest_ErrorMapping(t *testing.T) {
	ingestionErr := func(phase indexer.Phase, sentinel error, stored, failed int) error {
		return service.WrapError(&indexer.IngestionError{
			Phase: phase, DocumentID: "doc_7_x", Total: 10, Attempted: stored + failed,
			Stored: stored, Failed: failed, Elapsed: 1500 * time.Millisecond, Err: sentinel,
		}, "failed to ingest document")
	}

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantPhase  string
	}{
		{name: "validation", err: &service.ValidationError{Field: "text", Message: "cannot be empty"}, wantStatus: http.StatusBadRequest},
		{name: "too small", err: ingestionErr(indexer.PhaseValidate, indexer.ErrDocumentTooSmall, 0, 0), wantStatus: http.StatusUnprocessableEntity, wantPhase: "validate"},
		{name: "nothing chunked", err: ingestionErr(indexer.PhaseChunk, indexer.ErrChunkingProducedNothing, 0, 0), wantStatus: http.StatusUnprocessableEntity, wantPhase: "chunk"},
		{name: "provider down", err: ingestionErr(indexer.PhaseEmbed, indexer.ErrTooManyConsecutiveFailures, 0, 6), wantStatus: http.StatusServiceUnavailable, wantPhase: "embed"},
		{name: "nothing stored", err: ingestionErr(indexer.PhaseFinalize, indexer.ErrIngestionFailed, 0, 3), wantStatus: http.StatusBadGateway, wantPhase: "finalize"},
		{name: "purge failed", err: ingestionErr(indexer.PhasePurge, errors.New("locked"), 0, 0), wantStatus: http.StatusInternalServerError, wantPhase: "purge"},
		{name: "unexpected", err: errors.New("boom"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			mockService := mocks.NewMockRAGService(ctrl)
			mockService.EXPECT().IngestDocument(gomock.Any(), gomock.Any()).Return(indexer.IngestResult{}, tt.err)

			handler := NewDocumentHandler(mockService)
			req := withURLParams(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"text":"x"}`)), map[string]string{"ownerID": "7"})
			w := httptest.NewRecorder()
			handler.Ingest(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Ingest() status = %v, want %v", w.Code, tt.wantStatus)
			}
			if tt.wantPhase == "" {
				return
			}
			var resp IngestionErrorResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if resp.Phase != tt.wantPhase || resp.DocumentID != "doc_7_x" || resp.ChunksTotal != 10 || resp.ElapsedMs != 1500 {
				t.Errorf("Ingest() error response = %+v", resp)
			}
		})
	}
}

func TestDocumentHandler_Ingest_Degraded(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockService := mocks.NewMockRAGService(ctrl)
	mockService.EXPECT().IngestDocument(gomock.Any(), gomock.Any()).Return(indexer.IngestResult{}, &indexer.IngestionError{
		Phase: indexer.PhaseFinalize, DocumentID: "doc_7_x", Total: 5, Attempted: 5, Stored: 2, Failed: 3,
		Err: indexer.ErrIngestionDegraded,
	})

	handler := NewDocumentHandler(mockService)
	req := withURLParams(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"text":"x"}`)), map[string]string{"ownerID": "7"})
	w := httptest.NewRecorder()
	handler.Ingest(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Ingest() status = %v, want %v", w.Code, http.StatusOK)
	}
	var resp IngestResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Status != "degraded" || resp.ChunksStored != 2 || resp.ChunksFailed != 3 {
		t.Errorf("Ingest() response = %+v", resp)
	}
}

func multipartBody(t *testing.T, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, content := range files {
		fw, err := mw.CreateFormFile("documents", name)
		if err != nil {
			t.Fatalf("CreateFormFile() error = %v", err)
		}
		_, _ = fw.Write([]byte(content))
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("multipart Close() error = %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func TestDocumentHandler_Upload(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockService := mocks.NewMockRAGService(ctrl)

	mockService.EXPECT().
		IngestDocument(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req service.IngestRequest) (indexer.IngestResult, error) {
			if req.OwnerID != 3 || req.SourceURL != "sermao.md" {
				t.Errorf("IngestDocument() request = %+v", req)
			}
			if strings.Contains(req.Text, "#") {
				t.Errorf("markdown was not extracted: %q", req.Text)
			}
			return indexer.IngestResult{DocumentID: "doc_3_a", ChunksStored: 2, ChunksTotal: 2}, nil
		})
	mockService.EXPECT().OwnerStats(gomock.Any(), int64(3)).Return(indexer.OwnerStats{DocumentCount: 1, ChunkCount: 2}, nil)

	body, contentType := multipartBody(t, map[string]string{
		"sermao.md":  "# Título\n\nTexto do sermão.",
		"slides.pdf": "%PDF-1.4",
	})
	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", contentType)
	req = withURLParams(req, map[string]string{"ownerID": "3"})
	w := httptest.NewRecorder()

	NewDocumentHandler(mockService).Upload(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Upload() status = %v, want %v; body %s", w.Code, http.StatusOK, w.Body.String())
	}
	var resp UploadResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.DocumentsProcessed != 1 || len(resp.Documents) != 1 {
		t.Errorf("Upload() processed = %d", resp.DocumentsProcessed)
	}
	if len(resp.Errors) != 1 || !strings.Contains(resp.Errors[0], "slides.pdf") {
		t.Errorf("Upload() errors = %v", resp.Errors)
	}
	if resp.Stats == nil || resp.Stats.DocumentCount != 1 {
		t.Errorf("Upload() stats = %+v", resp.Stats)
	}
}

func TestDocumentHandler_Upload_Rejects(t *testing.T) {
	tooMany := make(map[string]string)
	for i := 0; i <= MaxUploadFiles; i++ {
		tooMany[fmt.Sprintf("f%d.txt", i)] = "x"
	}

	tests := []struct {
		name  string
		files map[string]string
	}{
		{name: "no files", files: map[string]string{}},
		{name: "too many files", files: tooMany},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			handler := NewDocumentHandler(mocks.NewMockRAGService(ctrl))

			body, contentType := multipartBody(t, tt.files)
			req := httptest.NewRequest(http.MethodPost, "/", body)
			req.Header.Set("Content-Type", contentType)
			req = withURLParams(req, map[string]string{"ownerID": "3"})
			w := httptest.NewRecorder()
			handler.Upload(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("Upload() status = %v, want %v", w.Code, http.StatusBadRequest)
			}
		})
	}
}

func TestDocumentHandler_Upload_NothingProcessed(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockService := mocks.NewMockRAGService(ctrl)
	mockService.EXPECT().IngestDocument(gomock.Any(), gomock.Any()).
		Return(indexer.IngestResult{}, &indexer.IngestionError{Phase: indexer.PhaseValidate, Err: indexer.ErrDocumentTooSmall})
	mockService.EXPECT().OwnerStats(gomock.Any(), int64(3)).Return(indexer.OwnerStats{}, nil)

	body, contentType := multipartBody(t, map[string]string{"curto.txt": "curto"})
	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", contentType)
	req = withURLParams(req, map[string]string{"ownerID": "3"})
	w := httptest.NewRecorder()

	NewDocumentHandler(mockService).Upload(w, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("Upload() status = %v, want %v", w.Code, http.StatusUnprocessableEntity)
	}
}

func TestDocumentHandler_Delete(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "deleted", wantStatus: http.StatusOK},
		{name: "not found", err: fmt.Errorf("document doc: %w", service.ErrNotFound), wantStatus: http.StatusNotFound},
		{name: "store error", err: errors.New("locked"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			mockService := mocks.NewMockRAGService(ctrl)
			mockService.EXPECT().DeleteDocument(gomock.Any(), int64(7), "doc").Return(4, tt.err)

			req := withURLParams(httptest.NewRequest(http.MethodDelete, "/", nil), map[string]string{"ownerID": "7", "documentID": "doc"})
			w := httptest.NewRecorder()
			NewDocumentHandler(mockService).Delete(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Delete() status = %v, want %v", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestDocumentHandler_ClearAndStats(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockService := mocks.NewMockRAGService(ctrl)
	mockService.EXPECT().ClearOwner(gomock.Any(), int64(7)).Return(12, nil)
	mockService.EXPECT().OwnerStats(gomock.Any(), int64(7)).Return(indexer.OwnerStats{DocumentCount: 2, ChunkCount: 9}, nil)

	handler := NewDocumentHandler(mockService)
	params := map[string]string{"ownerID": "7"}

	w := httptest.NewRecorder()
	handler.Clear(w, withURLParams(httptest.NewRequest(http.MethodDelete, "/", nil), params))
	var del DeleteResponse
	if err := json.NewDecoder(w.Body).Decode(&del); err != nil || del.DeletedChunks != 12 {
		t.Errorf("Clear() = %+v, %v", del, err)
	}

	w = httptest.NewRecorder()
	handler.Stats(w, withURLParams(httptest.NewRequest(http.MethodGet, "/", nil), params))
	var stats indexer.OwnerStats
	if err := json.NewDecoder(w.Body).Decode(&stats); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if stats.DocumentCount != 2 || stats.ChunkCount != 9 {
		t.Errorf("Stats() = %+v", stats)
	}
}
