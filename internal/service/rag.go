package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_rag_service.go -package=mocks -mock_names=RAGService=MockRAGService sermon-rag/internal/service RAGService

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"sermon-rag/internal/contextutil"
	"sermon-rag/internal/indexer"
	"sermon-rag/internal/rag"
	"sermon-rag/internal/storage"
	"sermon-rag/internal/vectorstore"
)

// Ingester runs the ingestion pipeline for one document.
type Ingester interface {
	IngestDocument(ctx context.Context, in indexer.IngestInput) (indexer.IngestResult, error)
}

// ContextBuilder assembles retrieval context. It never fails; no context is "".
type ContextBuilder interface {
	BuildContext(ctx context.Context, req rag.ContextRequest) string
}

// DocumentLister lists indexed documents across owners.
type DocumentLister interface {
	ListDocuments(ctx context.Context) ([]storage.DocumentSummary, error)
}

// IngestRequest asks to index a document for an owner.
type IngestRequest struct {
	OwnerID int64
	// DocumentID is generated when empty. An existing id is re-indexed.
	DocumentID string
	Text       string
	SourceURL  string
}

// RAGService is the entry point for indexing, deleting and retrieving owner documents.
type RAGService interface {
	// IngestDocument chunks, embeds and stores a document. On success the result
	// carries the document id that was used.
	IngestDocument(ctx context.Context, req IngestRequest) (indexer.IngestResult, error)
	// DeleteDocument removes an owner's document. Returns ErrNotFound when the owner has no such document.
	DeleteDocument(ctx context.Context, ownerID int64, documentID string) (int, error)
	// AdminDeleteDocument removes a document regardless of owner.
	AdminDeleteDocument(ctx context.Context, documentID string) (int, error)
	// ClearOwner removes every chunk of an owner.
	ClearOwner(ctx context.Context, ownerID int64) (int, error)
	OwnerStats(ctx context.Context, ownerID int64) (indexer.OwnerStats, error)
	ListDocuments(ctx context.Context) ([]storage.DocumentSummary, error)
	BuildContext(ctx context.Context, req rag.ContextRequest) string
}

type ragService struct {
	ingester   Ingester
	chunkStore storage.ChunkStore
	documents  DocumentLister
	contexts   ContextBuilder
	stats      *indexer.StatsReader
	mirror     vectorstore.VectorStore // optional
	collection string
}

// NewRAGService creates a RAGService. mirror may be nil.
func NewRAGService(
	ingester Ingester,
	chunkStore storage.ChunkStore,
	documents DocumentLister,
	contexts ContextBuilder,
	mirror vectorstore.VectorStore,
	collection string,
) RAGService {
	return &ragService{
		ingester:   ingester,
		chunkStore: chunkStore,
		documents:  documents,
		contexts:   contexts,
		stats:      indexer.NewStatsReader(chunkStore),
		mirror:     mirror,
		collection: collection,
	}
}

// NewDocumentID returns a fresh document id for an owner.
func NewDocumentID(ownerID int64) string {
	return fmt.Sprintf("doc_%d_%s", ownerID, uuid.NewString())
}

func validateOwner(ownerID int64) error {
	if ownerID <= 0 {
		return &ValidationError{Field: "owner_id", Message: "must be a positive integer"}
	}
	return nil
}

func (s *ragService) IngestDocument(ctx context.Context, req IngestRequest) (indexer.IngestResult, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if err := validateOwner(req.OwnerID); err != nil {
		return indexer.IngestResult{}, err
	}
	if strings.TrimSpace(req.Text) == "" {
		return indexer.IngestResult{}, &ValidationError{Field: "text", Message: "cannot be empty"}
	}

	documentID := strings.TrimSpace(req.DocumentID)
	if documentID == "" {
		documentID = NewDocumentID(req.OwnerID)
	} else {
		// re-indexing must not take over another owner's document
		existing, err := s.chunkStore.FindByDocumentID(ctx, documentID)
		if err != nil {
			return indexer.IngestResult{}, WrapError(err, "failed to look up document")
		}
		if len(existing) > 0 && existing[0].OwnerID != req.OwnerID {
			logger.WarnContext(ctx, "document id owned by another owner", "document_id", documentID, "owner_id", req.OwnerID)
			return indexer.IngestResult{}, &ValidationError{Field: "document_id", Message: "belongs to another owner"}
		}
	}

	result, err := s.ingester.IngestDocument(ctx, indexer.IngestInput{
		OwnerID:    req.OwnerID,
		DocumentID: documentID,
		Text:       req.Text,
		SourceURL:  req.SourceURL,
	})
	if err != nil {
		return indexer.IngestResult{}, WrapError(err, "failed to ingest document")
	}
	return result, nil
}

func (s *ragService) DeleteDocument(ctx context.Context, ownerID int64, documentID string) (int, error) {
	if err := validateOwner(ownerID); err != nil {
		return 0, err
	}
	if documentID == "" {
		return 0, &ValidationError{Field: "document_id", Message: "cannot be empty"}
	}

	chunks, err := s.chunkStore.FindByDocumentID(ctx, documentID)
	if err != nil {
		return 0, WrapError(err, "failed to look up document")
	}
	if len(chunks) == 0 || chunks[0].OwnerID != ownerID {
		return 0, fmt.Errorf("document %s: %w", documentID, ErrNotFound)
	}

	return s.deleteDocument(ctx, documentID, len(chunks))
}

func (s *ragService) AdminDeleteDocument(ctx context.Context, documentID string) (int, error) {
	if documentID == "" {
		return 0, &ValidationError{Field: "document_id", Message: "cannot be empty"}
	}

	chunks, err := s.chunkStore.FindByDocumentID(ctx, documentID)
	if err != nil {
		return 0, WrapError(err, "failed to look up document")
	}
	if len(chunks) == 0 {
		return 0, fmt.Errorf("document %s: %w", documentID, ErrNotFound)
	}

	return s.deleteDocument(ctx, documentID, len(chunks))
}

func (s *ragService) deleteDocument(ctx context.Context, documentID string, count int) (int, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if err := s.chunkStore.DeleteByDocumentID(ctx, documentID); err != nil {
		return 0, WrapError(err, "failed to delete document")
	}
	if s.mirror != nil {
		if err := s.mirror.DeleteByDocument(ctx, s.collection, documentID); err != nil {
			logger.WarnContext(ctx, "failed to delete mirrored document", "document_id", documentID, "error", err)
		}
	}

	logger.InfoContext(ctx, "document deleted", "document_id", documentID, "chunks", count)
	return count, nil
}

func (s *ragService) ClearOwner(ctx context.Context, ownerID int64) (int, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if err := validateOwner(ownerID); err != nil {
		return 0, err
	}

	chunks, err := s.chunkStore.FindByOwner(ctx, ownerID)
	if err != nil {
		return 0, WrapError(err, "failed to load owner chunks")
	}
	if err := s.chunkStore.DeleteByOwner(ctx, ownerID); err != nil {
		return 0, WrapError(err, "failed to delete owner chunks")
	}
	if s.mirror != nil {
		if err := s.mirror.DeleteByOwner(ctx, s.collection, ownerID); err != nil {
			logger.WarnContext(ctx, "failed to delete mirrored owner chunks", "owner_id", ownerID, "error", err)
		}
	}

	logger.InfoContext(ctx, "owner chunks cleared", "owner_id", ownerID, "chunks", len(chunks))
	return len(chunks), nil
}

func (s *ragService) OwnerStats(ctx context.Context, ownerID int64) (indexer.OwnerStats, error) {
	if err := validateOwner(ownerID); err != nil {
		return indexer.OwnerStats{}, err
	}
	stats, err := s.stats.OwnerStats(ctx, ownerID)
	if err != nil {
		return indexer.OwnerStats{}, WrapError(err, "failed to compute owner stats")
	}
	return stats, nil
}

func (s *ragService) ListDocuments(ctx context.Context) ([]storage.DocumentSummary, error) {
	docs, err := s.documents.ListDocuments(ctx)
	if err != nil {
		return nil, WrapError(err, "failed to list documents")
	}
	return docs, nil
}

func (s *ragService) BuildContext(ctx context.Context, req rag.ContextRequest) string {
	return s.contexts.BuildContext(ctx, req)
}
