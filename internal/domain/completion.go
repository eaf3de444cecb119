package domain

import "context"

// CompletionRequest is a single-turn chat completion.
type CompletionRequest struct {
	// Operation labels the request in logs and metrics ("extract_tags", "group_name").
	Operation   string
	System      string
	User        string
	Temperature float32
	MaxTokens   int
}

// Completer produces text from a language model.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}
