package idea

import (
	"context"

	"github.com/kailas-cloud/ideahub/internal/domain"
	domidea "github.com/kailas-cloud/ideahub/internal/domain/idea"
	"github.com/kailas-cloud/ideahub/internal/realtime"
	"github.com/kailas-cloud/ideahub/internal/usecase/match"
)

// Repository defines the storage contract for ideas.
type Repository interface {
	Create(ctx context.Context, i domidea.Idea) (domidea.Idea, error)
	Get(ctx context.Context, id string) (domidea.Idea, error)
	List(ctx context.Context, limit int, viewer string) ([]domidea.Idea, error)
	UpdateTags(ctx context.Context, id string, tags []string) (domidea.Idea, error)
}

// Embedder vectorizes idea text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Matcher runs the match orchestrator.
type Matcher interface {
	Match(ctx context.Context, req match.Request) match.Decision
	Abort(ctx context.Context, err error) match.Decision
}

// Tagger suggests tags for an idea.
type Tagger interface {
	Suggest(ctx context.Context, title, content string) ([]string, error)
}

// Publisher emits realtime events.
type Publisher interface {
	Publish(ctx context.Context, ev realtime.Event) error
}
