package health

import "context"

// DBPinger checks idea store availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker checks vectorizer availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}

// LLMStatus reports whether the chat model used for tags and group names is wired.
type LLMStatus interface {
	Configured() bool
}
