package idea

import (
	"context"
	"sync"
	"time"

	"github.com/kailas-cloud/ideahub/internal/domain"
	domidea "github.com/kailas-cloud/ideahub/internal/domain/idea"
	"github.com/kailas-cloud/ideahub/internal/realtime"
	"github.com/kailas-cloud/ideahub/internal/usecase/match"
)

type mockRepo struct {
	createFn     func(ctx context.Context, i domidea.Idea) (domidea.Idea, error)
	getFn        func(ctx context.Context, id string) (domidea.Idea, error)
	listFn       func(ctx context.Context, limit int, viewer string) ([]domidea.Idea, error)
	updateTagsFn func(ctx context.Context, id string, tags []string) (domidea.Idea, error)
}

func (m *mockRepo) Create(ctx context.Context, i domidea.Idea) (domidea.Idea, error) {
	return m.createFn(ctx, i)
}

func (m *mockRepo) Get(ctx context.Context, id string) (domidea.Idea, error) {
	return m.getFn(ctx, id)
}

func (m *mockRepo) List(ctx context.Context, limit int, viewer string) ([]domidea.Idea, error) {
	return m.listFn(ctx, limit, viewer)
}

func (m *mockRepo) UpdateTags(ctx context.Context, id string, tags []string) (domidea.Idea, error) {
	return m.updateTagsFn(ctx, id, tags)
}

type mockEmbedder struct {
	embedFn func(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	return m.embedFn(ctx, text)
}

type mockMatcher struct {
	mu      sync.Mutex
	matchFn func(ctx context.Context, req match.Request) match.Decision
	reqs    []match.Request
	aborted []error
}

func (m *mockMatcher) Match(ctx context.Context, req match.Request) match.Decision {
	m.mu.Lock()
	m.reqs = append(m.reqs, req)
	m.mu.Unlock()
	return m.matchFn(ctx, req)
}

func (m *mockMatcher) Abort(_ context.Context, err error) match.Decision {
	m.mu.Lock()
	m.aborted = append(m.aborted, err)
	m.mu.Unlock()
	return match.Decision{Kind: match.Aborted, Err: err}
}

type mockTagger struct {
	suggestFn func(ctx context.Context, title, content string) ([]string, error)
}

func (m *mockTagger) Suggest(ctx context.Context, title, content string) ([]string, error) {
	return m.suggestFn(ctx, title, content)
}

type mockPublisher struct {
	mu     sync.Mutex
	events []realtime.Event
	err    error
}

func (m *mockPublisher) Publish(_ context.Context, ev realtime.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return m.err
}

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func storedIdea(id string, vec []float32) domidea.Idea {
	return domidea.Reconstruct(id, "Solar kiosk", "Charge phones with sunlight", []string{"energy"},
		[]string{"alice"}, true, fixedNow, vec)
}

func newTestService(repo *mockRepo, emb *mockEmbedder, m *mockMatcher, tg *mockTagger, pub *mockPublisher) *Service {
	s := New(repo, emb, m, tg, pub, nopLogger())
	s.now = func() time.Time { return fixedNow }
	s.newID = func() string { return "prov-1" }
	return s
}
