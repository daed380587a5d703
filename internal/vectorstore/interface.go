package vectorstore

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_vector_store.go -package=mocks sermon-rag/internal/vectorstore VectorStore

import (
	"context"

	"github.com/google/uuid"
)

// Payload keys written alongside every mirrored chunk.
const (
	KeyChunkID    = "chunk_id"
	KeyDocumentID = "document_id"
	KeyOwnerID    = "owner_id"
	KeyPosition   = "ordinal_position"
	KeySourceURL  = "source_url"
)

// Point represents a vector point with metadata.
// ID is the chunk id; stores derive their own point identifiers from it.
type Point struct {
	ID   string
	Vec  []float32
	Meta map[string]any
}

// VectorStore mirrors stored chunks into an external vector database.
type VectorStore interface {
	// Upsert inserts or updates points in the collection.
	Upsert(ctx context.Context, collection string, points []Point) error
	// DeleteByDocument removes every point of a document.
	DeleteByDocument(ctx context.Context, collection string, documentID string) error
	// DeleteByOwner removes every point of an owner.
	DeleteByOwner(ctx context.Context, collection string, ownerID int64) error
}

// PointID maps a chunk id to a stable UUID, since Qdrant only accepts UUIDs or integers.
func PointID(chunkID string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("chunk:"+chunkID)).String()
}
