package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"sermon-rag/internal/handlers"
	"sermon-rag/internal/service"
)

// DefaultRequestTimeout leaves headroom above the 60s ingestion budget.
// Uploads get MaxUploadFiles times this.
const DefaultRequestTimeout = 90 * time.Second

// Deps holds dependencies for the HTTP router.
type Deps struct {
	RAGService service.RAGService
	DB         handlers.Pinger
	// Mirror is nil when the vector mirror is disabled.
	Mirror         handlers.CollectionChecker
	CollectionName string
	RequestTimeout time.Duration
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	timeout := deps.RequestTimeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	// an upload indexes its files one after another, each with the full budget
	uploadTimeout := timeout * handlers.MaxUploadFiles

	r.Use(middleware.Recoverer)
	r.Use(RequestID)
	r.Use(LoggerMiddleware)
	r.Use(RequestLogger)
	r.Use(CORS)

	documentHandler := handlers.NewDocumentHandler(deps.RAGService)
	contextHandler := handlers.NewContextHandler(deps.RAGService)
	adminHandler := handlers.NewAdminHandler(deps.RAGService)
	healthHandler := handlers.NewHealthHandler(deps.DB, deps.Mirror, deps.CollectionName)

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(Timeout(timeout))

			r.Method(http.MethodGet, "/health", healthHandler)
			r.Method(http.MethodPost, "/v1/context", contextHandler)

			r.Get("/v1/owners/{ownerID}/stats", documentHandler.Stats)
			r.Post("/v1/owners/{ownerID}/documents", documentHandler.Ingest)
			r.Delete("/v1/owners/{ownerID}/documents", documentHandler.Clear)
			r.Delete("/v1/owners/{ownerID}/documents/{documentID}", documentHandler.Delete)

			r.Get("/v1/admin/documents", adminHandler.List)
			r.Delete("/v1/admin/documents/{documentID}", adminHandler.Delete)
		})

		r.With(Timeout(uploadTimeout)).Post("/v1/owners/{ownerID}/documents/upload", documentHandler.Upload)
	})

	return r
}
