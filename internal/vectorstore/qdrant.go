package vectorstore

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/qdrant/go-client/qdrant"

	"sermon-rag/internal/contextutil"
)

// QdrantStore implements VectorStore using Qdrant.
type QdrantStore struct {
	client *qdrant.Client
}

// grpcEndpoint derives the gRPC host and port from a Qdrant HTTP URL.
// The gRPC port is the HTTP port + 1 (6334 when no port is given).
func grpcEndpoint(urlStr string) (host string, port int, useTLS bool, err error) {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return "", 0, false, fmt.Errorf("invalid Qdrant URL: %w", err)
	}

	host = parsedURL.Hostname()
	if host == "" {
		host = "localhost"
	}

	port = 6334
	if parsedURL.Port() != "" {
		httpPort, err := strconv.Atoi(parsedURL.Port())
		if err == nil {
			port = httpPort + 1
		}
	}

	return host, port, parsedURL.Scheme == "https", nil
}

// NewQdrantStore creates a new Qdrant vector store client.
// urlStr should be in the format "http://host:port" (e.g., "http://localhost:6333").
func NewQdrantStore(urlStr, apiKey string) (*QdrantStore, error) {
	host, port, useTLS, err := grpcEndpoint(urlStr)
	if err != nil {
		return nil, err
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: apiKey,
		UseTLS: useTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Qdrant client: %w", err)
	}

	return &QdrantStore{
		client: client,
	}, nil
}

// Close releases the gRPC connection.
func (s *QdrantStore) Close() error {
	return s.client.Close()
}

// Upsert inserts or updates points in the collection.
func (s *QdrantStore) Upsert(ctx context.Context, collection string, points []Point) error {
	logger := contextutil.LoggerFromContext(ctx)

	if len(points) == 0 {
		return nil
	}

	qdrantPoints := make([]*qdrant.PointStruct, 0, len(points))
	for _, point := range points {
		meta := make(map[string]any, len(point.Meta)+1)
		for k, v := range point.Meta {
			meta[k] = v
		}
		meta[KeyChunkID] = point.ID

		qdrantPoints = append(qdrantPoints, &qdrant.PointStruct{
			Id:      qdrant.NewID(PointID(point.ID)),
			Vectors: qdrant.NewVectors(point.Vec...),
			Payload: qdrant.NewValueMap(meta),
		})
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collection,
		Points:         qdrantPoints,
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to upsert points", "collection", collection, "count", len(points), "error", err)
		return fmt.Errorf("failed to upsert points: %w", err)
	}

	logger.DebugContext(ctx, "upserted points", "collection", collection, "count", len(points))
	return nil
}

// DeleteByDocument removes every point whose payload document_id matches.
func (s *QdrantStore) DeleteByDocument(ctx context.Context, collection string, documentID string) error {
	return s.deleteWhere(ctx, collection, qdrant.NewMatchKeyword(KeyDocumentID, documentID))
}

// DeleteByOwner removes every point whose payload owner_id matches.
func (s *QdrantStore) DeleteByOwner(ctx context.Context, collection string, ownerID int64) error {
	return s.deleteWhere(ctx, collection, qdrant.NewMatchInt(KeyOwnerID, ownerID))
}

func (s *QdrantStore) deleteWhere(ctx context.Context, collection string, cond *qdrant.Condition) error {
	logger := contextutil.LoggerFromContext(ctx)

	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: collection,
		Points: qdrant.NewPointsSelectorFilter(&qdrant.Filter{
			Must: []*qdrant.Condition{cond},
		}),
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to delete points", "collection", collection, "error", err)
		return fmt.Errorf("failed to delete points: %w", err)
	}

	logger.DebugContext(ctx, "deleted points", "collection", collection)
	return nil
}

// CollectionExists checks if a collection exists.
func (s *QdrantStore) CollectionExists(ctx context.Context, collection string) (bool, error) {
	exists, err := s.client.CollectionExists(ctx, collection)
	if err != nil {
		return false, fmt.Errorf("failed to check collection existence: %w", err)
	}
	return exists, nil
}

// EnsureCollection ensures a collection exists with the specified vector size.
// An existing collection must have the same vector size.
func (s *QdrantStore) EnsureCollection(ctx context.Context, collection string, vectorSize int) error {
	logger := contextutil.LoggerFromContext(ctx)

	exists, err := s.CollectionExists(ctx, collection)
	if err != nil {
		return err
	}

	if !exists {
		logger.InfoContext(ctx, "creating collection", "collection", collection, "vector_size", vectorSize)
		err := s.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: collection,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     uint64(vectorSize),
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			return fmt.Errorf("failed to create collection: %w", err)
		}
		return s.ensurePayloadIndexes(ctx, collection)
	}

	info, err := s.client.GetCollectionInfo(ctx, collection)
	if err != nil {
		return fmt.Errorf("failed to get collection info: %w", err)
	}

	actualSize := vectorSizeOf(info)
	if actualSize == 0 {
		return fmt.Errorf("could not determine collection vector size")
	}
	if actualSize != vectorSize {
		return fmt.Errorf("collection vector size mismatch: expected %d, got %d", vectorSize, actualSize)
	}

	logger.InfoContext(ctx, "collection validated", "collection", collection, "vector_size", vectorSize)
	return nil
}

// ensurePayloadIndexes indexes the fields deletes filter on.
func (s *QdrantStore) ensurePayloadIndexes(ctx context.Context, collection string) error {
	indexes := []struct {
		field string
		typ   qdrant.FieldType
	}{
		{field: KeyDocumentID, typ: qdrant.FieldType_FieldTypeKeyword},
		{field: KeyOwnerID, typ: qdrant.FieldType_FieldTypeInteger},
	}
	for _, idx := range indexes {
		_, err := s.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
			CollectionName: collection,
			FieldName:      idx.field,
			FieldType:      qdrant.PtrOf(idx.typ),
		})
		if err != nil {
			return fmt.Errorf("failed to index payload field %s: %w", idx.field, err)
		}
	}
	return nil
}

func vectorSizeOf(info *qdrant.CollectionInfo) int {
	if info == nil || info.Config == nil || info.Config.Params == nil {
		return 0
	}
	vectorsConfig := info.Config.Params.GetVectorsConfig()
	if vectorsConfig == nil {
		return 0
	}
	params := vectorsConfig.GetParams()
	if params == nil {
		return 0
	}
	return int(params.Size)
}
