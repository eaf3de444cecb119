package idea

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ideahub/internal/domain"
	domidea "github.com/kailas-cloud/ideahub/internal/domain/idea"
	"github.com/kailas-cloud/ideahub/internal/domain/similarity"
	"github.com/kailas-cloud/ideahub/internal/domain/submission"
	"github.com/kailas-cloud/ideahub/internal/realtime"
	"github.com/kailas-cloud/ideahub/internal/usecase/match"
)

func nopLogger() *zap.Logger { return zap.NewNop() }

func okEmbedder(v []float32) *mockEmbedder {
	return &mockEmbedder{embedFn: func(context.Context, string) (domain.EmbeddingResult, error) {
		return domain.EmbeddingResult{Embedding: v}, nil
	}}
}

func committingRepo() *mockRepo {
	return &mockRepo{createFn: func(_ context.Context, i domidea.Idea) (domidea.Idea, error) {
		return i.WithID("srv-1"), nil
	}}
}

func singleMatch() *mockMatcher {
	return &mockMatcher{matchFn: func(context.Context, match.Request) match.Decision {
		return match.Decision{
			Kind:       match.SingleMatch,
			Candidates: []similarity.Candidate{{Idea: storedIdea("other", []float32{1, 0}), Score: 0.9}},
			Threshold:  0.8,
		}
	}}
}

var draft = Draft{Title: " Solar kiosk ", Content: "Charge phones", Tags: []string{"energy"}, AuthorID: "alice", Public: true}

func TestSubmit_CommitsAndMatches(t *testing.T) {
	var embedded string
	emb := &mockEmbedder{embedFn: func(_ context.Context, text string) (domain.EmbeddingResult, error) {
		embedded = text
		return domain.EmbeddingResult{Embedding: []float32{1, 0}}, nil
	}}
	var persisted domidea.Idea
	repo := &mockRepo{createFn: func(_ context.Context, i domidea.Idea) (domidea.Idea, error) {
		persisted = i
		return i.WithID("srv-1"), nil
	}}
	m := singleMatch()
	pub := &mockPublisher{}
	svc := newTestService(repo, emb, m, nil, pub)

	res, err := svc.Submit(context.Background(), draft)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if embedded != "Solar kiosk Charge phones energy" {
		t.Errorf("embedded text = %q", embedded)
	}
	if !persisted.HasVector() {
		t.Error("idea persisted without its vector")
	}
	if res.Outcome.Status() != submission.Committed || res.Outcome.ID() != "srv-1" || res.Outcome.ProvisionalID() != "prov-1" {
		t.Errorf("outcome = %+v", res.Outcome)
	}
	if res.Idea.ID() != "srv-1" {
		t.Errorf("idea id = %q", res.Idea.ID())
	}
	if res.Decision.Kind != match.SingleMatch {
		t.Errorf("decision = %s", res.Decision.Kind)
	}

	req := m.reqs[0]
	if req.ExcludeIdeaID != "prov-1" || len(req.Vector) != 2 || req.AuthorIDs[0] != "alice" {
		t.Errorf("match request = %+v", req)
	}
	if len(pub.events) != 1 || pub.events[0].Type != realtime.IdeaCreated || pub.events[0].IdeaID != "srv-1" {
		t.Errorf("events = %+v", pub.events)
	}
}

func TestSubmit_EmbedFailureAbortsMatchButCommits(t *testing.T) {
	emb := &mockEmbedder{embedFn: func(context.Context, string) (domain.EmbeddingResult, error) {
		return domain.EmbeddingResult{}, domain.ErrUpstreamUnavailable
	}}
	var persisted domidea.Idea
	repo := &mockRepo{createFn: func(_ context.Context, i domidea.Idea) (domidea.Idea, error) {
		persisted = i
		return i.WithID("srv-2"), nil
	}}
	m := &mockMatcher{matchFn: func(context.Context, match.Request) match.Decision {
		t.Fatal("matcher must not run without a vector")
		return match.Decision{}
	}}
	svc := newTestService(repo, emb, m, nil, &mockPublisher{})

	res, err := svc.Submit(context.Background(), draft)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Decision.Kind != match.Aborted || !errors.Is(res.Decision.Err, domain.ErrUpstreamUnavailable) {
		t.Errorf("decision = %+v", res.Decision)
	}
	if res.Outcome.Status() != submission.Committed {
		t.Errorf("status = %s", res.Outcome.Status())
	}
	if persisted.HasVector() {
		t.Error("idea must be persisted without a vector")
	}
}

func TestSubmit_EmbedTimeout(t *testing.T) {
	emb := &mockEmbedder{embedFn: func(ctx context.Context, _ string) (domain.EmbeddingResult, error) {
		<-ctx.Done()
		return domain.EmbeddingResult{}, ctx.Err()
	}}
	svc := newTestService(committingRepo(), emb, singleMatch(), nil, &mockPublisher{}).
		WithEmbedTimeout(20 * time.Millisecond)

	res, err := svc.Submit(context.Background(), draft)
	if err != nil {
		t.Fatal(err)
	}
	if res.Decision.Kind != match.Aborted || !errors.Is(res.Decision.Err, context.DeadlineExceeded) {
		t.Errorf("decision = %+v", res.Decision)
	}
	if res.Outcome.Status() != submission.Committed {
		t.Errorf("status = %s", res.Outcome.Status())
	}
}

func TestSubmit_PersistFailureRollsBackButMatches(t *testing.T) {
	boom := errors.New("store down")
	repo := &mockRepo{createFn: func(context.Context, domidea.Idea) (domidea.Idea, error) {
		return domidea.Idea{}, boom
	}}
	pub := &mockPublisher{}
	svc := newTestService(repo, okEmbedder([]float32{1, 0}), singleMatch(), nil, pub)

	res, err := svc.Submit(context.Background(), draft)
	if err != nil {
		t.Fatalf("persistence failure must not be returned: %v", err)
	}
	if res.Outcome.Status() != submission.RolledBack || !errors.Is(res.Outcome.Err(), boom) {
		t.Errorf("outcome = %+v", res.Outcome)
	}
	if res.Outcome.ID() != "prov-1" || res.Idea.ID() != "prov-1" {
		t.Errorf("rolled back idea should keep the provisional id, got %q", res.Idea.ID())
	}
	if res.Decision.Kind != match.SingleMatch {
		t.Errorf("decision = %s", res.Decision.Kind)
	}
	if len(pub.events) != 0 {
		t.Errorf("rolled back idea must not be published: %+v", pub.events)
	}
}

func TestSubmit_PublishFailureIsLogged(t *testing.T) {
	pub := &mockPublisher{err: errors.New("no broker")}
	svc := newTestService(committingRepo(), okEmbedder([]float32{1}), singleMatch(), nil, pub)

	res, err := svc.Submit(context.Background(), draft)
	if err != nil || res.Outcome.Status() != submission.Committed {
		t.Fatalf("got %+v, %v", res.Outcome, err)
	}
}

func TestSubmit_Validation(t *testing.T) {
	tests := []struct {
		name  string
		draft Draft
	}{
		{"no title", Draft{Content: "c", AuthorID: "a"}},
		{"no content", Draft{Title: "t", AuthorID: "a"}},
		{"no author", Draft{Title: "t", Content: "c"}},
		{"long title", Draft{Title: strings.Repeat("x", 201), Content: "c", AuthorID: "a"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			emb := &mockEmbedder{embedFn: func(context.Context, string) (domain.EmbeddingResult, error) {
				t.Fatal("invalid drafts must not be embedded")
				return domain.EmbeddingResult{}, nil
			}}
			svc := newTestService(&mockRepo{}, emb, &mockMatcher{}, nil, &mockPublisher{})

			if _, err := svc.Submit(context.Background(), tc.draft); !errors.Is(err, domain.ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestGet_NotFound(t *testing.T) {
	repo := &mockRepo{getFn: func(context.Context, string) (domidea.Idea, error) {
		return domidea.Idea{}, domain.ErrNotFound
	}}
	svc := newTestService(repo, nil, nil, nil, nil)

	if _, err := svc.Get(context.Background(), "x", ""); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGet_PrivateVisibleToAuthorsOnly(t *testing.T) {
	private := domidea.Reconstruct("p1", "Secret plan", "Do not share", nil,
		[]string{"alice", "bob"}, false, fixedNow, nil)
	repo := &mockRepo{getFn: func(context.Context, string) (domidea.Idea, error) { return private, nil }}
	svc := newTestService(repo, nil, nil, nil, nil)

	tests := []struct {
		viewer  string
		visible bool
	}{
		{"alice", true},
		{"bob", true},
		{"mallory", false},
		{"", false},
	}
	for _, tc := range tests {
		got, err := svc.Get(context.Background(), "p1", tc.viewer)
		if tc.visible {
			if err != nil || got.ID() != "p1" {
				t.Errorf("viewer %q: got %v, %v", tc.viewer, got.ID(), err)
			}
			continue
		}
		if !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("viewer %q: expected ErrNotFound, got %v", tc.viewer, err)
		}
	}
}

func TestList_ClampsLimit(t *testing.T) {
	var gotLimit int
	var gotViewer string
	repo := &mockRepo{listFn: func(_ context.Context, limit int, viewer string) ([]domidea.Idea, error) {
		gotLimit, gotViewer = limit, viewer
		return nil, nil
	}}
	svc := newTestService(repo, nil, nil, nil, nil)

	for _, tc := range []struct{ in, want int }{{0, 50}, {10, 10}, {1000, 200}} {
		if _, err := svc.List(context.Background(), tc.in, "bob"); err != nil {
			t.Fatal(err)
		}
		if gotLimit != tc.want || gotViewer != "bob" {
			t.Errorf("List(%d) queried limit=%d viewer=%q", tc.in, gotLimit, gotViewer)
		}
	}
}

func TestRetagWithSuggestions(t *testing.T) {
	repo := &mockRepo{
		getFn: func(context.Context, string) (domidea.Idea, error) { return storedIdea("i1", nil), nil },
		updateTagsFn: func(_ context.Context, id string, tags []string) (domidea.Idea, error) {
			return storedIdea(id, nil).WithTags(tags), nil
		},
	}
	tg := &mockTagger{suggestFn: func(_ context.Context, title, _ string) ([]string, error) {
		if title != "Solar kiosk" {
			t.Errorf("title = %q", title)
		}
		return []string{"solar", "retail"}, nil
	}}
	pub := &mockPublisher{}
	svc := newTestService(repo, nil, nil, tg, pub)

	got, err := svc.RetagWithSuggestions(context.Background(), "i1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Join(got.Tags(), ",") != "solar,retail" {
		t.Errorf("tags = %v", got.Tags())
	}
	if len(pub.events) != 1 || pub.events[0].Type != realtime.IdeaUpdated {
		t.Errorf("events = %+v", pub.events)
	}
}

func TestRetagWithSuggestions_PrivateEventWithoutPayload(t *testing.T) {
	private := domidea.Reconstruct("p1", "Secret plan", "Do not share", nil,
		[]string{"alice"}, false, fixedNow, nil)
	repo := &mockRepo{
		getFn: func(context.Context, string) (domidea.Idea, error) { return private, nil },
		updateTagsFn: func(_ context.Context, _ string, tags []string) (domidea.Idea, error) {
			return private.WithTags(tags), nil
		},
	}
	tg := &mockTagger{suggestFn: func(context.Context, string, string) ([]string, error) {
		return []string{"stealth"}, nil
	}}
	pub := &mockPublisher{}
	svc := newTestService(repo, nil, nil, tg, pub)

	if _, err := svc.RetagWithSuggestions(context.Background(), "p1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pub.events) != 1 || pub.events[0].IdeaID != "p1" || pub.events[0].Idea != nil {
		t.Errorf("events = %+v", pub.events)
	}
}

func TestRetagWithSuggestions_TaggerError(t *testing.T) {
	repo := &mockRepo{getFn: func(context.Context, string) (domidea.Idea, error) { return storedIdea("i1", nil), nil }}
	tg := &mockTagger{suggestFn: func(context.Context, string, string) ([]string, error) {
		return nil, domain.ErrTagParse
	}}
	svc := newTestService(repo, nil, nil, tg, &mockPublisher{})

	if _, err := svc.RetagWithSuggestions(context.Background(), "i1"); !errors.Is(err, domain.ErrTagParse) {
		t.Fatalf("expected ErrTagParse, got %v", err)
	}
}

func TestMatchExisting(t *testing.T) {
	repo := &mockRepo{getFn: func(context.Context, string) (domidea.Idea, error) {
		return storedIdea("i1", []float32{1, 0}), nil
	}}
	m := singleMatch()
	svc := newTestService(repo, nil, m, nil, nil)

	th := 0.6
	d, err := svc.MatchExisting(context.Background(), "i1", &th)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Kind != match.SingleMatch {
		t.Errorf("kind = %s", d.Kind)
	}
	req := m.reqs[0]
	if req.ExcludeIdeaID != "i1" || *req.Threshold != 0.6 || len(req.Vector) != 2 {
		t.Errorf("request = %+v", req)
	}
}

func TestMatchExisting_Errors(t *testing.T) {
	repo := &mockRepo{getFn: func(context.Context, string) (domidea.Idea, error) {
		return domidea.Idea{}, domain.ErrNotFound
	}}
	svc := newTestService(repo, nil, singleMatch(), nil, nil)

	if _, err := svc.MatchExisting(context.Background(), "missing", nil); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	bad := -2.0
	if _, err := svc.MatchExisting(context.Background(), "i1", &bad); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}
