package match

import (
	"context"
	"time"

	"github.com/kailas-cloud/ideahub/internal/domain"
	domidea "github.com/kailas-cloud/ideahub/internal/domain/idea"
	"github.com/kailas-cloud/ideahub/internal/domain/similarity"
	repoidea "github.com/kailas-cloud/ideahub/internal/repository/idea"
)

type mockEmbedder struct {
	embedFn func(ctx context.Context, text string) (domain.EmbeddingResult, error)
	calls   int
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	m.calls++
	return m.embedFn(ctx, text)
}

func fixedEmbedder(v []float32) *mockEmbedder {
	return &mockEmbedder{embedFn: func(context.Context, string) (domain.EmbeddingResult, error) {
		return domain.EmbeddingResult{Embedding: v}, nil
	}}
}

type mockLister struct {
	listFn func(ctx context.Context) ([]domidea.Idea, error)
}

func (m *mockLister) ListWithVectors(ctx context.Context) ([]domidea.Idea, error) {
	return m.listFn(ctx)
}

type mockSearcher struct {
	searchFn func(ctx context.Context, q repoidea.SimilarQuery) ([]domidea.Idea, error)
	last     repoidea.SimilarQuery
}

func (m *mockSearcher) SearchSimilar(ctx context.Context, q repoidea.SimilarQuery) ([]domidea.Idea, error) {
	m.last = q
	return m.searchFn(ctx, q)
}

type mockSource struct {
	rankFn func(ctx context.Context, query []float32, q Query) ([]similarity.Candidate, error)
	last   Query
	vector []float32
}

func (m *mockSource) Rank(ctx context.Context, query []float32, q Query) ([]similarity.Candidate, error) {
	m.last = q
	m.vector = query
	return m.rankFn(ctx, query, q)
}

var epoch = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func stored(id, author string, vec ...float32) domidea.Idea {
	return domidea.Reconstruct(id, "title "+id, "content "+id, nil, []string{author}, true, epoch, vec)
}
