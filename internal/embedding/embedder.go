// Package embedding turns chunk text into vectors through a pluggable provider.
package embedding

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_provider.go -package=mocks sermon-rag/internal/embedding Provider

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	// MinInputLength is the shortest normalized input accepted, in characters.
	MinInputLength = 10
	// MaxInputLength is where normalized input is truncated, in characters.
	MaxInputLength = 8000
)

var (
	// ErrEmbeddingInputTooShort is returned for inputs shorter than MinInputLength.
	ErrEmbeddingInputTooShort = errors.New("embedding input too short")
	// ErrEmbeddingProvider marks failures reported by the provider.
	ErrEmbeddingProvider = errors.New("embedding provider error")
)

// ProviderError wraps a failure of the underlying embedding provider.
type ProviderError struct {
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("embedding provider error: %v", e.Err)
}

// Unwrap returns the provider's error.
func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Is reports ErrEmbeddingProvider as a match.
func (e *ProviderError) Is(target error) bool {
	return target == ErrEmbeddingProvider
}

// Provider produces a vector for one piece of text.
type Provider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Embedder validates and normalizes text before handing it to a Provider.
// It does not retry and does not cache.
type Embedder struct {
	provider Provider
}

// New creates an Embedder backed by provider.
func New(provider Provider) *Embedder {
	return &Embedder{provider: provider}
}

// Embed normalizes whitespace, rejects inputs shorter than MinInputLength,
// truncates to MaxInputLength and asks the provider for a vector.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	normalized := Normalize(text)

	n := utf8.RuneCountInString(normalized)
	if n < MinInputLength {
		return nil, fmt.Errorf("%w: %d characters, need %d", ErrEmbeddingInputTooShort, n, MinInputLength)
	}
	if n > MaxInputLength {
		normalized = truncateRunes(normalized, MaxInputLength)
	}

	vec, err := e.provider.Embed(ctx, normalized)
	if err != nil {
		return nil, &ProviderError{Err: err}
	}
	if len(vec) == 0 {
		return nil, &ProviderError{Err: errors.New("empty vector returned")}
	}
	return vec, nil
}

// Normalize collapses every whitespace run into a single space and trims the ends.
func Normalize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

func truncateRunes(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
