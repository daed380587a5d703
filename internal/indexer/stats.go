package indexer

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"sermon-rag/internal/storage"
)

// OwnerStats summarizes what an owner has indexed.
type OwnerStats struct {
	DocumentCount int `json:"document_count"`
	ChunkCount    int `json:"chunk_count"`
}

// ChunkLengthStats describes the character lengths of a document's chunks.
type ChunkLengthStats struct {
	Min  int     `json:"min"`
	Max  int     `json:"max"`
	Mean float64 `json:"mean"`
	P95  int     `json:"p95"`
}

// DocumentIDFromChunkID strips the "_chunk_N" suffix from a chunk id.
// Ids without the suffix are returned unchanged.
func DocumentIDFromChunkID(chunkID string) string {
	i := strings.LastIndex(chunkID, "_chunk_")
	if i < 0 {
		return chunkID
	}
	if _, err := strconv.Atoi(chunkID[i+len("_chunk_"):]); err != nil {
		return chunkID
	}
	return chunkID[:i]
}

// OwnerStatsFromChunks counts chunks and the distinct documents they belong to.
func OwnerStatsFromChunks(chunks []*storage.ChunkRecord) OwnerStats {
	docs := make(map[string]struct{}, len(chunks))
	for _, c := range chunks {
		docs[DocumentIDFromChunkID(c.ID)] = struct{}{}
	}
	return OwnerStats{DocumentCount: len(docs), ChunkCount: len(chunks)}
}

// StatsReader answers stats queries against a chunk store.
type StatsReader struct {
	chunkStore storage.ChunkStore
}

// NewStatsReader creates a StatsReader.
func NewStatsReader(chunkStore storage.ChunkStore) *StatsReader {
	return &StatsReader{chunkStore: chunkStore}
}

// OwnerStats returns the document and chunk counts of an owner.
func (r *StatsReader) OwnerStats(ctx context.Context, ownerID int64) (OwnerStats, error) {
	chunks, err := r.chunkStore.FindByOwner(ctx, ownerID)
	if err != nil {
		return OwnerStats{}, fmt.Errorf("failed to load owner chunks: %w", err)
	}
	return OwnerStatsFromChunks(chunks), nil
}

// computeLengthStats computes min, max, mean and p95 of chunk lengths in characters.
func computeLengthStats(chunks []string) ChunkLengthStats {
	if len(chunks) == 0 {
		return ChunkLengthStats{}
	}

	sorted := make([]int, len(chunks))
	sum := 0
	for i, c := range chunks {
		sorted[i] = runeLen(c)
		sum += sorted[i]
	}
	sort.Ints(sorted)

	p95Index := int(math.Ceil(float64(len(sorted))*0.95)) - 1
	if p95Index < 0 {
		p95Index = 0
	}

	mean := float64(sum) / float64(len(sorted))
	return ChunkLengthStats{
		Min:  sorted[0],
		Max:  sorted[len(sorted)-1],
		Mean: math.Round(mean*100) / 100,
		P95:  sorted[p95Index],
	}
}
