package match

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ideahub/internal/domain"
	domidea "github.com/kailas-cloud/ideahub/internal/domain/idea"
	"github.com/kailas-cloud/ideahub/internal/domain/similarity"
	"github.com/kailas-cloud/ideahub/internal/metrics"
)

func candidates(n int) []similarity.Candidate {
	out := make([]similarity.Candidate, n)
	for i := range out {
		out[i] = similarity.Candidate{Idea: stored("c", "other", 1), Score: 0.9}
	}
	return out
}

func TestClassify_Boundaries(t *testing.T) {
	tests := []struct {
		n    int
		want Kind
	}{
		{0, NoMatch},
		{1, SingleMatch},
		{2, MultiMatch},
		{7, MultiMatch},
	}
	for _, tc := range tests {
		if got := Classify(candidates(tc.n)); got != tc.want {
			t.Errorf("Classify(%d) = %s, want %s", tc.n, got, tc.want)
		}
	}
}

func TestMatch_EmbedsTextAndClassifies(t *testing.T) {
	emb := fixedEmbedder([]float32{1, 0})
	src := &mockSource{rankFn: func(context.Context, []float32, Query) ([]similarity.Candidate, error) {
		return candidates(1), nil
	}}
	svc := New(emb, src, Config{Threshold: 0.8, Limit: 10}, zap.NewNop())

	before := testutil.ToFloat64(metrics.MatchDecisionsTotal.WithLabelValues("single_match"))
	d := svc.Match(context.Background(), Request{Text: "solar kiosk", AuthorIDs: []string{"alice"}, ExcludeIdeaID: "p1"})

	if d.Kind != SingleMatch || d.Err != nil {
		t.Fatalf("decision = %+v", d)
	}
	if emb.calls != 1 {
		t.Errorf("embed calls = %d, want 1", emb.calls)
	}
	if src.last.Threshold != 0.8 || src.last.ExcludeIdeaID != "p1" || src.last.Limit != 10 {
		t.Errorf("query = %+v", src.last)
	}
	if len(src.last.ExcludeAuthors) != 1 || src.last.ExcludeAuthors[0] != "alice" {
		t.Errorf("exclude authors = %v", src.last.ExcludeAuthors)
	}
	after := testutil.ToFloat64(metrics.MatchDecisionsTotal.WithLabelValues("single_match"))
	if after-before != 1 {
		t.Errorf("single_match counter delta = %v", after-before)
	}
}

func TestMatch_UsesSuppliedVector(t *testing.T) {
	emb := &mockEmbedder{embedFn: func(context.Context, string) (domain.EmbeddingResult, error) {
		t.Fatal("embedder must not be called when a vector is supplied")
		return domain.EmbeddingResult{}, nil
	}}
	src := &mockSource{rankFn: func(context.Context, []float32, Query) ([]similarity.Candidate, error) {
		return nil, nil
	}}
	svc := New(emb, src, Config{Threshold: 0.8}, zap.NewNop())

	d := svc.Match(context.Background(), Request{Text: "x", Vector: []float32{0, 1}})
	if d.Kind != NoMatch {
		t.Fatalf("kind = %s", d.Kind)
	}
	if len(src.vector) != 2 || src.vector[1] != 1 {
		t.Errorf("ranked with %v", src.vector)
	}
}

func TestMatch_ThresholdOverride(t *testing.T) {
	src := &mockSource{rankFn: func(context.Context, []float32, Query) ([]similarity.Candidate, error) {
		return candidates(3), nil
	}}
	svc := New(fixedEmbedder([]float32{1}), src, Config{Threshold: 0.8}, zap.NewNop())

	override := 0.5
	d := svc.Match(context.Background(), Request{Text: "x", Threshold: &override})
	if d.Kind != MultiMatch || d.Threshold != 0.5 || src.last.Threshold != 0.5 {
		t.Fatalf("decision = %+v, query = %+v", d, src.last)
	}
}

func TestMatch_InvalidThresholdAborts(t *testing.T) {
	src := &mockSource{rankFn: func(context.Context, []float32, Query) ([]similarity.Candidate, error) {
		t.Fatal("source must not be queried")
		return nil, nil
	}}
	svc := New(fixedEmbedder([]float32{1}), src, Config{Threshold: 0.8}, zap.NewNop())

	for _, bad := range []float64{1.5, -1.01, math.NaN()} {
		d := svc.Match(context.Background(), Request{Text: "x", Threshold: &bad})
		if d.Kind != Aborted || !errors.Is(d.Err, domain.ErrInvalidInput) {
			t.Fatalf("threshold %v: decision = %+v", bad, d)
		}
	}
}

func TestValidateThreshold(t *testing.T) {
	for _, ok := range []float64{-1, 0, 0.8, 1} {
		if err := ValidateThreshold(ok); err != nil {
			t.Errorf("ValidateThreshold(%v) = %v", ok, err)
		}
	}
	for _, bad := range []float64{math.NaN(), math.Inf(1), math.Inf(-1), 1.0001} {
		if err := ValidateThreshold(bad); !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("ValidateThreshold(%v) = %v, want ErrInvalidInput", bad, err)
		}
	}
}

func TestMatch_EmbedFailureAborts(t *testing.T) {
	emb := &mockEmbedder{embedFn: func(context.Context, string) (domain.EmbeddingResult, error) {
		return domain.EmbeddingResult{}, domain.ErrUpstreamUnavailable
	}}
	src := &mockSource{rankFn: func(context.Context, []float32, Query) ([]similarity.Candidate, error) {
		t.Fatal("source must not be queried")
		return nil, nil
	}}
	svc := New(emb, src, Config{Threshold: 0.8}, zap.NewNop())

	before := testutil.ToFloat64(metrics.MatchDecisionsTotal.WithLabelValues("aborted"))
	d := svc.Match(context.Background(), Request{Text: "x"})
	if d.Kind != Aborted || !errors.Is(d.Err, domain.ErrUpstreamUnavailable) {
		t.Fatalf("decision = %+v", d)
	}
	if d.Candidates != nil {
		t.Error("aborted decision must carry no candidates")
	}
	after := testutil.ToFloat64(metrics.MatchDecisionsTotal.WithLabelValues("aborted"))
	if after-before != 1 {
		t.Errorf("aborted counter delta = %v", after-before)
	}
}

func TestMatch_SourceFailureAborts(t *testing.T) {
	for _, sentinel := range []error{domain.ErrUpstreamUnavailable, domain.ErrDimensionMismatch, domain.ErrMissingEmbedding} {
		src := &mockSource{rankFn: func(context.Context, []float32, Query) ([]similarity.Candidate, error) {
			return nil, sentinel
		}}
		svc := New(fixedEmbedder([]float32{1}), src, Config{Threshold: 0.8}, zap.NewNop())

		d := svc.Match(context.Background(), Request{Text: "x"})
		if d.Kind != Aborted || !errors.Is(d.Err, sentinel) {
			t.Errorf("%v: decision = %+v", sentinel, d)
		}
	}
}

func TestMatch_EndToEndWithLocalSource(t *testing.T) {
	ideas := []domidea.Idea{
		stored("own", "alice", 1, 0),
		stored("near", "bob", 0.95, 0.05),
		stored("far", "carol", 0, 1),
	}
	svc := New(fixedEmbedder([]float32{1, 0}), NewStaticSource(ideas), Config{Threshold: 0.8}, zap.NewNop())

	d := svc.Match(context.Background(), Request{Text: "x", AuthorIDs: []string{"alice"}})
	if d.Kind != SingleMatch {
		t.Fatalf("kind = %s", d.Kind)
	}
	if d.Candidates[0].Idea.ID() != "near" {
		t.Errorf("matched %s", d.Candidates[0].Idea.ID())
	}
}

func TestMatch_EndToEndRanksSeveralAuthors(t *testing.T) {
	// Scores against [1, 0]: b ~0.85, c ~0.82, d 0.
	ideas := []domidea.Idea{
		stored("a", "alice", 1, 0),
		stored("c", "carol", 0.82, 0.5724),
		stored("b", "bob", 0.85, 0.5268),
		stored("d", "dave", 0, 1),
	}
	svc := New(fixedEmbedder([]float32{1, 0}), NewStaticSource(ideas), Config{Threshold: 0.8}, zap.NewNop())

	d := svc.Match(context.Background(), Request{Text: "x", AuthorIDs: []string{"alice"}})
	if d.Kind != MultiMatch {
		t.Fatalf("kind = %s", d.Kind)
	}
	if len(d.Candidates) != 2 {
		t.Fatalf("candidates = %d, want 2", len(d.Candidates))
	}
	if d.Candidates[0].Idea.ID() != "b" || d.Candidates[1].Idea.ID() != "c" {
		t.Errorf("order = %s, %s", d.Candidates[0].Idea.ID(), d.Candidates[1].Idea.ID())
	}
	if d.Candidates[0].Score < d.Candidates[1].Score {
		t.Errorf("scores not descending: %v < %v", d.Candidates[0].Score, d.Candidates[1].Score)
	}
}

func TestKind_JSON(t *testing.T) {
	b, err := MultiMatch.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `"multi_match"` {
		t.Errorf("got %s", b)
	}
}

func TestAbort_UsesConfiguredThreshold(t *testing.T) {
	svc := New(fixedEmbedder(nil), NewStaticSource(nil), Config{Threshold: 0.7}, zap.NewNop())

	d := svc.Abort(context.Background(), domain.ErrUpstreamUnavailable)
	if d.Kind != Aborted || d.Threshold != 0.7 || !errors.Is(d.Err, domain.ErrUpstreamUnavailable) {
		t.Fatalf("decision = %+v", d)
	}
}
