package domain

import (
	"context"
	"fmt"
	"unicode/utf8"
)

// KeyPrefix namespaces every key ideahub writes to the shared store.
const KeyPrefix = "ideahub:"

// DefaultMaxInputChars caps text sent to a vectorizer.
const DefaultMaxInputChars = 2000

// Embedder is the shared text vectorization contract between layers.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// HealthChecker verifies embedding provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbeddingResult carries the embedding vector and token usage through the decorator chain.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// TruncatingEmbedder caps the input at maxChars runes before delegating.
// Remote vectorizers reject overly long inputs, so every chain ends with one.
type TruncatingEmbedder struct {
	inner    Embedder
	maxChars int
}

// NewTruncatingEmbedder creates a decorator that truncates input text.
// maxChars <= 0 selects DefaultMaxInputChars.
func NewTruncatingEmbedder(inner Embedder, maxChars int) *TruncatingEmbedder {
	if maxChars <= 0 {
		maxChars = DefaultMaxInputChars
	}
	return &TruncatingEmbedder{inner: inner, maxChars: maxChars}
}

// Embed truncates text and delegates to the inner embedder.
func (e *TruncatingEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	result, err := e.inner.Embed(ctx, Truncate(text, e.maxChars))
	if err != nil {
		return EmbeddingResult{}, fmt.Errorf("truncated embed: %w", err)
	}
	return result, nil
}

// HealthCheck proxies to the inner embedder when it supports health checks.
func (e *TruncatingEmbedder) HealthCheck(ctx context.Context) error {
	if hc, ok := e.inner.(HealthChecker); ok {
		return hc.HealthCheck(ctx) //nolint:wrapcheck // transparent proxy
	}
	return nil
}

// Truncate returns at most maxChars runes of s.
func Truncate(s string, maxChars int) string {
	if maxChars <= 0 || utf8.RuneCountInString(s) <= maxChars {
		return s
	}
	n := 0
	for i := range s {
		if n == maxChars {
			return s[:i]
		}
		n++
	}
	return s
}

// DimensionCheckedEmbedder rejects vectors whose length differs from the configured model dimension.
type DimensionCheckedEmbedder struct {
	inner      Embedder
	dimensions int
}

// NewDimensionCheckedEmbedder creates the decorator. dimensions <= 0 disables the check.
func NewDimensionCheckedEmbedder(inner Embedder, dimensions int) *DimensionCheckedEmbedder {
	return &DimensionCheckedEmbedder{inner: inner, dimensions: dimensions}
}

// Embed delegates and validates the returned vector length.
func (e *DimensionCheckedEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	result, err := e.inner.Embed(ctx, text)
	if err != nil {
		return EmbeddingResult{}, err //nolint:wrapcheck // already wrapped by inner layers
	}
	if len(result.Embedding) == 0 {
		return EmbeddingResult{}, fmt.Errorf("vectorizer returned no vector: %w", ErrMissingEmbedding)
	}
	if e.dimensions > 0 && len(result.Embedding) != e.dimensions {
		return EmbeddingResult{}, fmt.Errorf("vectorizer returned %d dims, want %d: %w",
			len(result.Embedding), e.dimensions, ErrDimensionMismatch)
	}
	return result, nil
}

// HealthCheck proxies to the inner embedder when it supports health checks.
func (e *DimensionCheckedEmbedder) HealthCheck(ctx context.Context) error {
	if hc, ok := e.inner.(HealthChecker); ok {
		return hc.HealthCheck(ctx) //nolint:wrapcheck // transparent proxy
	}
	return nil
}
