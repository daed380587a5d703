// Package rag ranks stored chunks against a query and assembles retrieval context.
package rag

import (
	"context"
	"fmt"
	"math"
	"sort"

	"sermon-rag/internal/contextutil"
	"sermon-rag/internal/storage"
)

const (
	// DefaultSearchK is the result count used when a request does not set one.
	DefaultSearchK = 5
	// DefaultMinScore is the similarity floor; only scores strictly above it are kept.
	DefaultMinScore = 0.3
	// DefaultMaxCandidates bounds the full scan used when no owner scope is given.
	DefaultMaxCandidates = 500
)

// CosineSimilarity returns dot(a,b) / (|a| |b|).
// Vectors of different length, empty vectors and zero vectors score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	// rounding can push parallel vectors slightly past 1
	return math.Max(-1, math.Min(1, sim))
}

// SearchOptions configures a Searcher. Zero values fall back to the defaults.
type SearchOptions struct {
	K             int
	MinScore      *float64
	MaxCandidates int
}

// SearchRequest is a similarity query.
type SearchRequest struct {
	// OwnerID scopes the search to one owner's chunks. Nil searches globally.
	OwnerID *int64
	Vector  []float32
	// K overrides the default result count when positive.
	K int
	// MinScore overrides the default similarity floor.
	MinScore *float64
}

// Match is a ranked chunk.
type Match struct {
	ChunkID    string  `json:"chunk_id"`
	DocumentID string  `json:"document_id"`
	Text       string  `json:"text"`
	Score      float64 `json:"score"`
	SourceURL  string  `json:"source_url,omitempty"`
	Position   int     `json:"position"`
}

// Searcher ranks chunks by brute-force cosine similarity.
type Searcher struct {
	chunkStore    storage.ChunkStore
	k             int
	minScore      float64
	maxCandidates int
}

// NewSearcher creates a Searcher over chunkStore.
func NewSearcher(chunkStore storage.ChunkStore, opts SearchOptions) *Searcher {
	s := &Searcher{
		chunkStore:    chunkStore,
		k:             DefaultSearchK,
		minScore:      DefaultMinScore,
		maxCandidates: DefaultMaxCandidates,
	}
	if opts.K > 0 {
		s.k = opts.K
	}
	if opts.MinScore != nil {
		s.minScore = *opts.MinScore
	}
	if opts.MaxCandidates > 0 {
		s.maxCandidates = opts.MaxCandidates
	}
	return s
}

// Search returns up to K chunks scoring above the floor, best first.
// Ties keep the order the store returned them in. Chunks whose stored vector
// cannot be decoded are skipped. No match is an empty result, not an error.
func (s *Searcher) Search(ctx context.Context, req SearchRequest) ([]Match, error) {
	logger := contextutil.LoggerFromContext(ctx)

	k := s.k
	if req.K > 0 {
		k = req.K
	}
	floor := s.minScore
	if req.MinScore != nil {
		floor = *req.MinScore
	}

	var (
		candidates []*storage.ChunkRecord
		err        error
	)
	if req.OwnerID != nil {
		candidates, err = s.chunkStore.FindByOwner(ctx, *req.OwnerID)
	} else {
		candidates, err = s.chunkStore.FindAll(ctx, s.maxCandidates)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load candidate chunks: %w", err)
	}

	matches := make([]Match, 0, len(candidates))
	skipped := 0
	for _, c := range candidates {
		vec, err := c.Vector()
		if err != nil {
			skipped++
			logger.WarnContext(ctx, "skipping chunk with unreadable vector", "chunk_id", c.ID, "error", err)
			continue
		}
		score := CosineSimilarity(req.Vector, vec)
		if score <= floor {
			continue
		}
		matches = append(matches, Match{
			ChunkID:    c.ID,
			DocumentID: c.DocumentID,
			Text:       c.Text,
			Score:      score,
			SourceURL:  c.SourceURL,
			Position:   c.Position,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > k {
		matches = matches[:k]
	}

	logger.DebugContext(ctx, "similarity search completed",
		"candidates", len(candidates),
		"skipped", skipped,
		"results", len(matches),
		"k", k,
		"min_score", floor,
	)
	return matches, nil
}
