package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_chunk_store.go -package=mocks sermon-rag/internal/storage ChunkStore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")
)

const timeLayout = "2006-01-02 15:04:05.000000"

// ChunkStore defines the interface for chunk storage operations.
type ChunkStore interface {
	// FindByDocumentID returns all chunks of a document, ordered by position.
	FindByDocumentID(ctx context.Context, documentID string) ([]*ChunkRecord, error)
	// DeleteByDocumentID removes all chunks of a document.
	DeleteByDocumentID(ctx context.Context, documentID string) error
	// Insert persists one chunk. An existing chunk with the same ID is replaced.
	Insert(ctx context.Context, chunk *ChunkRecord) error
	// FindByOwner returns all chunks belonging to an owner.
	FindByOwner(ctx context.Context, ownerID int64) ([]*ChunkRecord, error)
	// FindAll returns up to limit chunks across all owners, newest first.
	FindAll(ctx context.Context, limit int) ([]*ChunkRecord, error)
	// DeleteByOwner removes all chunks belonging to an owner.
	DeleteByOwner(ctx context.Context, ownerID int64) error
}

// ChunkRepo provides methods for chunk operations.
// It implements the ChunkStore interface.
type ChunkRepo struct {
	db      *sql.DB
	dialect Dialect
}

// NewChunkRepo creates a new ChunkRepo.
func NewChunkRepo(db *sql.DB, dialect Dialect) *ChunkRepo {
	return &ChunkRepo{db: db, dialect: dialect}
}

const chunkColumns = "id, document_id, owner_id, chunk_text, embedding_vector, source_url, ordinal_position, created_at"

// Insert persists one chunk. An existing chunk with the same ID is replaced.
func (r *ChunkRepo) Insert(ctx context.Context, chunk *ChunkRecord) error {
	raw := chunk.rawEmbedding
	if chunk.Embedding != nil || raw == "" {
		encoded, err := EncodeVector(chunk.Embedding)
		if err != nil {
			return fmt.Errorf("failed to insert chunk %s: %w", chunk.ID, err)
		}
		raw = encoded
	}

	createdAt := chunk.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	var sourceURL sql.NullString
	if chunk.SourceURL != "" {
		sourceURL = sql.NullString{String: chunk.SourceURL, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, rebind(r.dialect,
		`INSERT INTO rag_chunks (`+chunkColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			document_id = excluded.document_id,
			owner_id = excluded.owner_id,
			chunk_text = excluded.chunk_text,
			embedding_vector = excluded.embedding_vector,
			source_url = excluded.source_url,
			ordinal_position = excluded.ordinal_position,
			created_at = excluded.created_at`),
		chunk.ID, chunk.DocumentID, chunk.OwnerID, chunk.Text, raw, sourceURL, chunk.Position,
		createdAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to insert chunk: %w", err)
	}
	chunk.CreatedAt = createdAt
	return nil
}

// FindByDocumentID returns all chunks of a document, ordered by position.
// Returns an empty slice if the document has no chunks (not an error).
func (r *ChunkRepo) FindByDocumentID(ctx context.Context, documentID string) ([]*ChunkRecord, error) {
	return r.query(ctx,
		"SELECT "+chunkColumns+" FROM rag_chunks WHERE document_id = ? ORDER BY ordinal_position",
		documentID,
	)
}

// DeleteByDocumentID removes all chunks of a document.
func (r *ChunkRepo) DeleteByDocumentID(ctx context.Context, documentID string) error {
	_, err := r.db.ExecContext(ctx, rebind(r.dialect, "DELETE FROM rag_chunks WHERE document_id = ?"), documentID)
	if err != nil {
		return fmt.Errorf("failed to delete chunks by document: %w", err)
	}
	return nil
}

// FindByOwner returns all chunks belonging to an owner.
func (r *ChunkRepo) FindByOwner(ctx context.Context, ownerID int64) ([]*ChunkRecord, error) {
	return r.query(ctx,
		"SELECT "+chunkColumns+" FROM rag_chunks WHERE owner_id = ? ORDER BY document_id, ordinal_position",
		ownerID,
	)
}

// FindAll returns up to limit chunks across all owners, newest first.
// A non-positive limit returns no chunks.
func (r *ChunkRepo) FindAll(ctx context.Context, limit int) ([]*ChunkRecord, error) {
	if limit <= 0 {
		return []*ChunkRecord{}, nil
	}
	return r.query(ctx,
		"SELECT "+chunkColumns+" FROM rag_chunks ORDER BY created_at DESC, id LIMIT ?",
		limit,
	)
}

// DeleteByOwner removes all chunks belonging to an owner.
func (r *ChunkRepo) DeleteByOwner(ctx context.Context, ownerID int64) error {
	_, err := r.db.ExecContext(ctx, rebind(r.dialect, "DELETE FROM rag_chunks WHERE owner_id = ?"), ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete chunks by owner: %w", err)
	}
	return nil
}

// ListDocuments groups stored chunks by document, newest document first.
func (r *ChunkRepo) ListDocuments(ctx context.Context) ([]DocumentSummary, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT document_id, owner_id, source_url, created_at FROM rag_chunks",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	byID := make(map[string]*DocumentSummary)
	for rows.Next() {
		var (
			documentID string
			ownerID    int64
			sourceURL  sql.NullString
			createdAt  string
		)
		if err := rows.Scan(&documentID, &ownerID, &sourceURL, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan document row: %w", err)
		}
		ts, err := time.Parse(timeLayout, createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse created_at %q: %w", createdAt, err)
		}

		doc, ok := byID[documentID]
		if !ok {
			doc = &DocumentSummary{DocumentID: documentID, OwnerID: ownerID, CreatedAt: ts}
			byID[documentID] = doc
		}
		doc.ChunkCount++
		if doc.SourceURL == "" && sourceURL.Valid {
			doc.SourceURL = sourceURL.String
		}
		if ts.Before(doc.CreatedAt) {
			doc.CreatedAt = ts
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	docs := make([]DocumentSummary, 0, len(byID))
	for _, doc := range byID {
		docs = append(docs, *doc)
	}
	sort.Slice(docs, func(i, j int) bool {
		if docs[i].CreatedAt.Equal(docs[j].CreatedAt) {
			return docs[i].DocumentID < docs[j].DocumentID
		}
		return docs[i].CreatedAt.After(docs[j].CreatedAt)
	})
	return docs, nil
}

func (r *ChunkRepo) query(ctx context.Context, query string, args ...any) ([]*ChunkRecord, error) {
	rows, err := r.db.QueryContext(ctx, rebind(r.dialect, query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	chunks := []*ChunkRecord{}
	for rows.Next() {
		var (
			chunk     ChunkRecord
			sourceURL sql.NullString
			createdAt string
		)
		if err := rows.Scan(
			&chunk.ID, &chunk.DocumentID, &chunk.OwnerID, &chunk.Text,
			&chunk.rawEmbedding, &sourceURL, &chunk.Position, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		chunk.SourceURL = sourceURL.String
		// An unparsable timestamp only loses ordering information.
		if ts, err := time.Parse(timeLayout, createdAt); err == nil {
			chunk.CreatedAt = ts
		}
		chunks = append(chunks, &chunk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return chunks, nil
}
