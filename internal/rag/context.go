package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"sermon-rag/internal/contextutil"
)

// DefaultContextK is the number of references assembled when a request does not set one.
const DefaultContextK = 8

// ErrEmptyQuery is returned by Retrieve when topic and auxiliary context are both blank.
var ErrEmptyQuery = errors.New("empty query")

// QueryEmbedder embeds a query string.
type QueryEmbedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// ContextRequest asks for the evidence relevant to a topic.
type ContextRequest struct {
	// OwnerID scopes retrieval to one owner. Nil searches every owner.
	OwnerID          *int64 `json:"owner_id,omitempty"`
	Topic            string `json:"topic"`
	AuxiliaryContext string `json:"auxiliary_context,omitempty"`
	K                int    `json:"k,omitempty"`
}

// Query joins the trimmed topic and auxiliary context with a space.
func (r ContextRequest) Query() string {
	parts := make([]string, 0, 2)
	for _, s := range []string{r.Topic, r.AuxiliaryContext} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

// Assembler turns a topic into a formatted block of retrieved chunks.
type Assembler struct {
	embedder QueryEmbedder
	searcher *Searcher
	k        int
}

// NewAssembler creates an Assembler. k <= 0 uses DefaultContextK.
func NewAssembler(embedder QueryEmbedder, searcher *Searcher, k int) *Assembler {
	if k <= 0 {
		k = DefaultContextK
	}
	return &Assembler{embedder: embedder, searcher: searcher, k: k}
}

// Retrieve embeds the request's query and searches for matching chunks.
func (a *Assembler) Retrieve(ctx context.Context, req ContextRequest) ([]Match, error) {
	query := req.Query()
	if query == "" {
		return nil, ErrEmptyQuery
	}

	vec, err := a.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	k := a.k
	if req.K > 0 {
		k = req.K
	}
	return a.searcher.Search(ctx, SearchRequest{OwnerID: req.OwnerID, Vector: vec, K: k})
}

// BuildContext returns the retrieved chunks formatted as numbered references,
// or "" when nothing relevant was found. Retrieval failures are logged and
// also yield "", so callers can always proceed without augmentation.
func (a *Assembler) BuildContext(ctx context.Context, req ContextRequest) string {
	logger := contextutil.LoggerFromContext(ctx)

	matches, err := a.Retrieve(ctx, req)
	if err != nil {
		logger.WarnContext(ctx, "context retrieval failed", "error", err)
		return ""
	}
	if len(matches) == 0 {
		logger.InfoContext(ctx, "no context found", "topic", req.Topic)
		return ""
	}

	out := FormatReferences(matches)
	logger.InfoContext(ctx, "context assembled",
		"references", len(matches),
		"top_score", matches[0].Score,
		"context_length", len(out),
	)
	return out
}

// FormatReferences renders matches as "[Referência n] text" blocks separated by a blank line.
func FormatReferences(matches []Match) string {
	var b strings.Builder
	for i, m := range matches {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[Referência %d] %s", i+1, m.Text)
	}
	return b.String()
}
