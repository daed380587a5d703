package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrMalformedVector is returned when a stored embedding cannot be decoded.
var ErrMalformedVector = errors.New("malformed embedding vector")

// Vector is a dense embedding.
type Vector []float32

// EncodeVector serializes a vector as a JSON array of numbers.
func EncodeVector(v Vector) (string, error) {
	for i, f := range v {
		if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
			return "", fmt.Errorf("%w: non-finite value at index %d", ErrMalformedVector, i)
		}
	}
	if v == nil {
		v = Vector{}
	}
	b, err := json.Marshal([]float32(v))
	if err != nil {
		return "", fmt.Errorf("failed to encode vector: %w", err)
	}
	return string(b), nil
}

// DecodeVector parses a JSON array of numbers. An empty array is malformed.
func DecodeVector(raw string) (Vector, error) {
	var v []float32
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedVector, err)
	}
	if len(v) == 0 {
		return nil, fmt.Errorf("%w: empty", ErrMalformedVector)
	}
	return v, nil
}

// ChunkRecord is one stored chunk.
// ID is "{DocumentID}_chunk_{Position}" and Position is 1-based.
type ChunkRecord struct {
	ID         string
	DocumentID string
	OwnerID    int64
	Text       string
	Embedding  Vector
	SourceURL  string // empty when unknown
	Position   int
	CreatedAt  time.Time

	// rawEmbedding holds the stored form for records read from the database.
	rawEmbedding string
}

// Vector returns the chunk's embedding, decoding the stored form on first use.
// Records with an undecodable vector return ErrMalformedVector.
func (c *ChunkRecord) Vector() (Vector, error) {
	if c.Embedding != nil {
		return c.Embedding, nil
	}
	v, err := DecodeVector(c.rawEmbedding)
	if err != nil {
		return nil, fmt.Errorf("chunk %s: %w", c.ID, err)
	}
	c.Embedding = v
	return v, nil
}

// WithRawEmbedding sets the stored form of the embedding, as read from the database.
// It exists for stores and tests that hand out records without a decoded vector.
func (c *ChunkRecord) WithRawEmbedding(raw string) *ChunkRecord {
	c.Embedding = nil
	c.rawEmbedding = raw
	return c
}

// DocumentSummary groups the chunks of one document.
type DocumentSummary struct {
	DocumentID string    `json:"document_id"`
	OwnerID    int64     `json:"owner_id"`
	SourceURL  string    `json:"source_url,omitempty"`
	ChunkCount int       `json:"chunk_count"`
	CreatedAt  time.Time `json:"created_at"`
}
