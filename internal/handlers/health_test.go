package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type fakePinger struct{ err error }

func (f fakePinger) PingContext(context.Context) error { return f.err }

type fakeCollections struct {
	exists bool
	err    error
}

func (f fakeCollections) CollectionExists(context.Context, string) (bool, error) {
	return f.exists, f.err
}

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name        string
		db          Pinger
		mirror      CollectionChecker
		wantStatus  int
		wantHealth  string
		wantVectors string
	}{
		{
			name:        "healthy without mirror",
			db:          fakePinger{},
			wantStatus:  http.StatusOK,
			wantHealth:  "healthy",
			wantVectors: "disabled",
		},
		{
			name:        "healthy with mirror",
			db:          fakePinger{},
			mirror:      fakeCollections{exists: true},
			wantStatus:  http.StatusOK,
			wantHealth:  "healthy",
			wantVectors: "ok",
		},
		{
			name:        "mirror missing collection",
			db:          fakePinger{},
			mirror:      fakeCollections{exists: false},
			wantStatus:  http.StatusOK,
			wantHealth:  "degraded",
			wantVectors: "error",
		},
		{
			name:        "database down",
			db:          fakePinger{err: errors.New("closed")},
			mirror:      fakeCollections{err: errors.New("unreachable")},
			wantStatus:  http.StatusServiceUnavailable,
			wantHealth:  "unhealthy",
			wantVectors: "error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewHealthHandler(tt.db, tt.mirror, "sermons")
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))

			if w.Code != tt.wantStatus {
				t.Errorf("ServeHTTP() status = %v, want %v", w.Code, tt.wantStatus)
			}
			var resp HealthResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if resp.Status != tt.wantHealth {
				t.Errorf("Status = %q, want %q", resp.Status, tt.wantHealth)
			}
			if resp.Checks["vector_store"] != tt.wantVectors {
				t.Errorf("vector_store check = %q, want %q", resp.Checks["vector_store"], tt.wantVectors)
			}
		})
	}
}

func TestHealthHandler_MethodNotAllowed(t *testing.T) {
	w := httptest.NewRecorder()
	NewHealthHandler(fakePinger{}, nil, "").ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/health", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("ServeHTTP() status = %v, want %v", w.Code, http.StatusMethodNotAllowed)
	}
}
