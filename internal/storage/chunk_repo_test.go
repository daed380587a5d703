package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"
)

func newTestRepo(t *testing.T) *ChunkRepo {
	t.Helper()

	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})

	if err := Migrate(db, DialectSQLite); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	return NewChunkRepo(db, DialectSQLite)
}

func testChunk(documentID string, ownerID int64, position int) *ChunkRecord {
	return &ChunkRecord{
		ID:         fmt.Sprintf("%s_chunk_%d", documentID, position),
		DocumentID: documentID,
		OwnerID:    ownerID,
		Text:       fmt.Sprintf("chunk %d of %s", position, documentID),
		Embedding:  Vector{0.1, 0.2, float32(position)},
		Position:   position,
	}
}

func TestChunkRepo_InsertAndFindByDocumentID(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	// inserted out of order on purpose
	for _, pos := range []int{3, 1, 2} {
		chunk := testChunk("doc-a", 7, pos)
		if pos == 1 {
			chunk.SourceURL = "sermon.txt"
		}
		if err := repo.Insert(ctx, chunk); err != nil {
			t.Fatalf("Insert() error = %v", err)
		}
	}

	chunks, err := repo.FindByDocumentID(ctx, "doc-a")
	if err != nil {
		t.Fatalf("FindByDocumentID() error = %v", err)
	}
	if len(chunks) != 3 {
		t.Fatalf("FindByDocumentID() returned %d chunks, want 3", len(chunks))
	}

	for i, chunk := range chunks {
		if chunk.Position != i+1 {
			t.Errorf("chunks[%d].Position = %d, want %d", i, chunk.Position, i+1)
		}
		vec, err := chunk.Vector()
		if err != nil {
			t.Fatalf("Vector() error = %v", err)
		}
		if len(vec) != 3 || vec[2] != float32(i+1) {
			t.Errorf("chunks[%d] vector = %v", i, vec)
		}
		if chunk.CreatedAt.IsZero() {
			t.Errorf("chunks[%d].CreatedAt is zero", i)
		}
	}
	if chunks[0].SourceURL != "sermon.txt" {
		t.Errorf("SourceURL = %q, want sermon.txt", chunks[0].SourceURL)
	}
	if chunks[1].SourceURL != "" {
		t.Errorf("SourceURL = %q, want empty", chunks[1].SourceURL)
	}

	empty, err := repo.FindByDocumentID(ctx, "missing")
	if err != nil {
		t.Fatalf("FindByDocumentID() error = %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("FindByDocumentID(missing) returned %d chunks", len(empty))
	}
}

func TestChunkRepo_InsertReplacesSameID(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	first := testChunk("doc-a", 1, 1)
	if err := repo.Insert(ctx, first); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	second := testChunk("doc-a", 1, 1)
	second.Text = "replacement"
	if err := repo.Insert(ctx, second); err != nil {
		t.Fatalf("Insert() duplicate id error = %v", err)
	}

	chunks, err := repo.FindByDocumentID(ctx, "doc-a")
	if err != nil {
		t.Fatalf("FindByDocumentID() error = %v", err)
	}
	if len(chunks) != 1 || chunks[0].Text != "replacement" {
		t.Errorf("FindByDocumentID() = %+v, want single replaced chunk", chunks)
	}
}

func TestChunkRepo_DeleteByDocumentID(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for pos := 1; pos <= 2; pos++ {
		if err := repo.Insert(ctx, testChunk("doc-a", 1, pos)); err != nil {
			t.Fatalf("Insert() error = %v", err)
		}
	}
	if err := repo.Insert(ctx, testChunk("doc-b", 1, 1)); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	if err := repo.DeleteByDocumentID(ctx, "doc-a"); err != nil {
		t.Fatalf("DeleteByDocumentID() error = %v", err)
	}

	chunks, _ := repo.FindByDocumentID(ctx, "doc-a")
	if len(chunks) != 0 {
		t.Errorf("doc-a still has %d chunks", len(chunks))
	}
	chunks, _ = repo.FindByDocumentID(ctx, "doc-b")
	if len(chunks) != 1 {
		t.Errorf("doc-b has %d chunks, want 1", len(chunks))
	}

	// deleting a missing document is not an error
	if err := repo.DeleteByDocumentID(ctx, "missing"); err != nil {
		t.Errorf("DeleteByDocumentID(missing) error = %v", err)
	}
}

func TestChunkRepo_OwnerScope(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	inserts := []*ChunkRecord{
		testChunk("doc-a", 1, 1),
		testChunk("doc-a", 1, 2),
		testChunk("doc-b", 2, 1),
	}
	for _, c := range inserts {
		if err := repo.Insert(ctx, c); err != nil {
			t.Fatalf("Insert() error = %v", err)
		}
	}

	tests := []struct {
		name    string
		ownerID int64
		want    int
	}{
		{name: "owner with two chunks", ownerID: 1, want: 2},
		{name: "owner with one chunk", ownerID: 2, want: 1},
		{name: "owner without chunks", ownerID: 3, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks, err := repo.FindByOwner(ctx, tt.ownerID)
			if err != nil {
				t.Fatalf("FindByOwner() error = %v", err)
			}
			if len(chunks) != tt.want {
				t.Errorf("FindByOwner(%d) = %d chunks, want %d", tt.ownerID, len(chunks), tt.want)
			}
			for _, c := range chunks {
				if c.OwnerID != tt.ownerID {
					t.Errorf("FindByOwner(%d) returned chunk of owner %d", tt.ownerID, c.OwnerID)
				}
			}
		})
	}

	if err := repo.DeleteByOwner(ctx, 1); err != nil {
		t.Fatalf("DeleteByOwner() error = %v", err)
	}
	chunks, _ := repo.FindByOwner(ctx, 1)
	if len(chunks) != 0 {
		t.Errorf("owner 1 still has %d chunks", len(chunks))
	}
	chunks, _ = repo.FindByOwner(ctx, 2)
	if len(chunks) != 1 {
		t.Errorf("owner 2 has %d chunks, want 1", len(chunks))
	}
}

func TestChunkRepo_FindAll(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for pos := 1; pos <= 5; pos++ {
		c := testChunk("doc-a", int64(pos), pos)
		c.CreatedAt = base.Add(time.Duration(pos) * time.Minute)
		if err := repo.Insert(ctx, c); err != nil {
			t.Fatalf("Insert() error = %v", err)
		}
	}

	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{name: "limit below count", limit: 3, want: 3},
		{name: "limit above count", limit: 500, want: 5},
		{name: "zero limit", limit: 0, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks, err := repo.FindAll(ctx, tt.limit)
			if err != nil {
				t.Fatalf("FindAll() error = %v", err)
			}
			if len(chunks) != tt.want {
				t.Errorf("FindAll(%d) = %d chunks, want %d", tt.limit, len(chunks), tt.want)
			}
		})
	}

	chunks, _ := repo.FindAll(ctx, 1)
	if len(chunks) == 1 && chunks[0].Position != 5 {
		t.Errorf("FindAll(1) returned position %d, want newest (5)", chunks[0].Position)
	}
}

func TestChunkRepo_MalformedVectorIsolated(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	good := testChunk("doc-a", 1, 1)
	bad := testChunk("doc-a", 1, 2).WithRawEmbedding("[0.1, oops")
	for _, c := range []*ChunkRecord{good, bad} {
		if err := repo.Insert(ctx, c); err != nil {
			t.Fatalf("Insert() error = %v", err)
		}
	}

	chunks, err := repo.FindByOwner(ctx, 1)
	if err != nil {
		t.Fatalf("FindByOwner() should not fail on a malformed vector: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("FindByOwner() = %d chunks, want 2", len(chunks))
	}
	if _, err := chunks[0].Vector(); err != nil {
		t.Errorf("good chunk Vector() error = %v", err)
	}
	if _, err := chunks[1].Vector(); !errors.Is(err, ErrMalformedVector) {
		t.Errorf("bad chunk Vector() error = %v, want ErrMalformedVector", err)
	}
}

func TestChunkRepo_ListDocuments(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	older := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := older.Add(time.Hour)

	for pos := 1; pos <= 3; pos++ {
		c := testChunk("doc-old", 1, pos)
		c.CreatedAt = older
		c.SourceURL = "old.md"
		if err := repo.Insert(ctx, c); err != nil {
			t.Fatalf("Insert() error = %v", err)
		}
	}
	c := testChunk("doc-new", 2, 1)
	c.CreatedAt = newer
	if err := repo.Insert(ctx, c); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	docs, err := repo.ListDocuments(ctx)
	if err != nil {
		t.Fatalf("ListDocuments() error = %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("ListDocuments() = %d docs, want 2", len(docs))
	}
	if docs[0].DocumentID != "doc-new" || docs[0].ChunkCount != 1 || docs[0].OwnerID != 2 {
		t.Errorf("docs[0] = %+v", docs[0])
	}
	if docs[1].DocumentID != "doc-old" || docs[1].ChunkCount != 3 || docs[1].SourceURL != "old.md" {
		t.Errorf("docs[1] = %+v", docs[1])
	}
	if !docs[1].CreatedAt.Equal(older) {
		t.Errorf("docs[1].CreatedAt = %v, want %v", docs[1].CreatedAt, older)
	}
}
