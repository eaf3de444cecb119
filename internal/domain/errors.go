package domain

import "errors"

var (
	// ErrNotFound signals a missing idea.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput signals a request that fails validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrMissingEmbedding signals that a required vector is absent.
	// It is a precondition failure, never a stand-in for "zero matches".
	ErrMissingEmbedding = errors.New("missing embedding")
	// ErrDimensionMismatch signals vectors of different length.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	// ErrUpstreamUnavailable signals a vectorizer, LLM or ranking store failure.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrTagParse signals model output without a parseable JSON array of tags.
	ErrTagParse = errors.New("tag parse error")
	// ErrTaggerUnconfigured signals that no LLM key is configured for tag or name suggestion.
	ErrTaggerUnconfigured = errors.New("tag suggestion is not configured")
)
