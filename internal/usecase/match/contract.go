package match

import (
	"context"

	"github.com/kailas-cloud/ideahub/internal/domain"
	domidea "github.com/kailas-cloud/ideahub/internal/domain/idea"
	repoidea "github.com/kailas-cloud/ideahub/internal/repository/idea"
)

// Embedder vectorizes submission text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// IdeaLister returns every stored idea that carries a vector.
type IdeaLister interface {
	ListWithVectors(ctx context.Context) ([]domidea.Idea, error)
}

// SimilarSearcher is the store-side ranking RPC.
type SimilarSearcher interface {
	SearchSimilar(ctx context.Context, q repoidea.SimilarQuery) ([]domidea.Idea, error)
}
