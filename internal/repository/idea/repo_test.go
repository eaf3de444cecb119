package idea

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/kailas-cloud/ideahub/internal/db"
	"github.com/kailas-cloud/ideahub/internal/domain"
)

const storedDoc = `{"id":"srv-1","title":"Solar kiosk","content":"Charge phones with sunlight",` +
	`"tags":["energy"],"authors":["alice"],"visibility":"public","created_at":1772366400000,"vector":[0.1,0.2,0.3]}`

// --- EnsureIndex ---

func TestEnsureIndex_Schema(t *testing.T) {
	repo, ms := newTestRepo(t)

	var got *db.IndexDefinition
	ms.createIndexFn = func(_ context.Context, def *db.IndexDefinition) error {
		got = def
		return nil
	}

	if err := repo.EnsureIndex(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Name != "ideahub:ideas:idx" || got.Prefix != "ideahub:idea:" {
		t.Errorf("unexpected index: %+v", got)
	}
	vec := got.Fields[len(got.Fields)-1]
	if vec.Kind != db.FieldVector || vec.Vector != (db.HNSW{Dim: 3, M: 16, EFConstruct: 200}) {
		t.Errorf("vector field = %+v", vec)
	}
	if created := got.Fields[len(got.Fields)-2]; created.Alias != "created_at" || !created.Sortable {
		t.Errorf("created_at field = %+v", created)
	}
}

func TestEnsureIndex_AlreadyExists(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.createIndexFn = func(context.Context, *db.IndexDefinition) error { return db.ErrIndexExists }

	if err := repo.EnsureIndex(context.Background()); err != nil {
		t.Fatalf("existing index should not be an error: %v", err)
	}
}

func TestEnsureIndex_Error(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.createIndexFn = func(context.Context, *db.IndexDefinition) error { return errors.New("module not loaded") }

	if err := repo.EnsureIndex(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

// --- Create / Get ---

func TestCreate_AssignsIDAndStoresDocument(t *testing.T) {
	repo, ms := newTestRepo(t)

	var stored map[string]any
	ms.jsonSetFn = func(_ context.Context, key, path string, data []byte) error {
		if key != "ideahub:idea:srv-1" || path != "$" {
			t.Errorf("unexpected key/path %s %s", key, path)
		}
		return json.Unmarshal(data, &stored)
	}

	got, err := repo.Create(context.Background(), testIdea(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID() != "srv-1" {
		t.Errorf("ID = %q", got.ID())
	}
	if stored["visibility"] != "public" || stored["created_at"].(float64) != 1772366400000 {
		t.Errorf("unexpected document: %v", stored)
	}
	if len(stored["vector"].([]any)) != 3 {
		t.Errorf("vector not stored: %v", stored["vector"])
	}
}

func TestCreate_WithoutVectorOmitsField(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.jsonSetFn = func(_ context.Context, _, _ string, data []byte) error {
		var m map[string]any
		_ = json.Unmarshal(data, &m)
		if _, ok := m["vector"]; ok {
			t.Error("vector should be omitted when absent")
		}
		return nil
	}

	if _, err := repo.Create(context.Background(), testIdea(t).WithVector(nil)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCreate_StoreError(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.jsonSetFn = func(context.Context, string, string, []byte) error { return errors.New("OOM") }

	if _, err := repo.Create(context.Background(), testIdea(t)); err == nil {
		t.Fatal("expected error")
	}
}

func TestGet_Found(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.jsonGetFn = func(_ context.Context, key string) ([]byte, error) {
		if key != "ideahub:idea:srv-1" {
			t.Errorf("key = %s", key)
		}
		return []byte(storedDoc), nil
	}

	got, err := repo.Get(context.Background(), "srv-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Title() != "Solar kiosk" || !got.Public() || !got.HasAuthor("alice") {
		t.Errorf("unexpected idea: %+v", got)
	}
	if !got.CreatedAt().Equal(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("created_at = %v", got.CreatedAt())
	}
	if !reflect.DeepEqual(got.Vector(), []float32{0.1, 0.2, 0.3}) {
		t.Errorf("vector = %v", got.Vector())
	}
}

func TestGet_ArrayForm(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.jsonGetFn = func(context.Context, string) ([]byte, error) {
		return []byte("[" + storedDoc + "]"), nil
	}

	got, err := repo.Get(context.Background(), "srv-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID() != "srv-1" {
		t.Errorf("ID = %q", got.ID())
	}
}

func TestGet_NotFound(t *testing.T) {
	repo, _ := newTestRepo(t)

	_, err := repo.Get(context.Background(), "missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// --- List ---

func TestList_ViewerSeesOwnPrivateIdeas(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.searchListFn = func(_ context.Context, q *db.ListQuery) (*db.SearchResult, error) {
		if q.SortBy != "created_at" || !q.Descending || q.Limit != 10 {
			t.Errorf("unexpected list query: %+v", q)
		}
		if len(q.Filter.Should) != 2 || q.Filter.Should[1] != db.TagIs("authors", "bob") {
			t.Errorf("unexpected filter: %+v", q.Filter)
		}
		return &db.SearchResult{Total: 1, Entries: []db.SearchEntry{
			{Key: "ideahub:idea:srv-1", Fields: map[string]string{"$": storedDoc}},
		}}, nil
	}

	got, err := repo.List(context.Background(), 10, "bob")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ID() != "srv-1" {
		t.Fatalf("unexpected ideas: %+v", got)
	}
}

func TestList_AnonymousOnlyPublic(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.searchListFn = func(_ context.Context, q *db.ListQuery) (*db.SearchResult, error) {
		if len(q.Filter.Must) != 1 || q.Filter.Must[0] != db.TagIs("visibility", "public") {
			t.Errorf("unexpected filter: %+v", q.Filter)
		}
		return &db.SearchResult{}, nil
	}

	if _, err := repo.List(context.Background(), 5, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// --- UpdateTags ---

func TestUpdateTags(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.jsonGetFn = func(context.Context, string) ([]byte, error) { return []byte(storedDoc), nil }

	var path, body string
	ms.jsonSetFn = func(_ context.Context, _, p string, data []byte) error {
		path, body = p, string(data)
		return nil
	}

	got, err := repo.UpdateTags(context.Background(), "srv-1", []string{"solar", " solar ", "hardware"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != "$.tags" || body != `["solar","hardware"]` {
		t.Errorf("JSON.SET %s %s", path, body)
	}
	if !reflect.DeepEqual(got.Tags(), []string{"solar", "hardware"}) {
		t.Errorf("tags = %v", got.Tags())
	}
}

func TestUpdateTags_NotFound(t *testing.T) {
	repo, _ := newTestRepo(t)
	if _, err := repo.UpdateTags(context.Background(), "missing", []string{"x"}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// --- ListWithVectors ---

func TestListWithVectors_PagesAndSkipsUnembedded(t *testing.T) {
	repo, ms := newTestRepo(t)

	noVector := `{"id":"nv","title":"t","content":"c","authors":["x"],"visibility":"public","created_at":0}`
	calls := 0
	ms.searchListFn = func(_ context.Context, q *db.ListQuery) (*db.SearchResult, error) {
		calls++
		entries := make([]db.SearchEntry, 0, pageSize)
		n := pageSize
		if q.Offset > 0 {
			n = 2
		}
		for i := 0; i < n; i++ {
			doc := storedDoc
			if i == 0 {
				doc = noVector
			}
			entries = append(entries, db.SearchEntry{Key: "k", Fields: map[string]string{"$": doc}})
		}
		return &db.SearchResult{Total: pageSize + 2, Entries: entries}, nil
	}

	got, err := repo.ListWithVectors(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 pages, got %d", calls)
	}
	if len(got) != pageSize+2-2 {
		t.Errorf("expected %d ideas with vectors, got %d", pageSize, len(got))
	}
}

// --- SearchSimilar ---

func TestSearchSimilar_QueryShapeAndThreshold(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.searchKNNFn = func(_ context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
		if q.K != 20 || q.IndexName != "ideahub:ideas:idx" {
			t.Errorf("unexpected knn query: %+v", q)
		}
		want := []db.Condition{db.TagIs("authors", "alice"), db.TagIs("id", "tmp-1")}
		if !reflect.DeepEqual(q.Filter.MustNot, want) {
			t.Errorf("must_not = %+v", q.Filter.MustNot)
		}
		return &db.SearchResult{Total: 2, Entries: []db.SearchEntry{
			{Key: "a", Score: 0.93, Fields: map[string]string{"$": storedDoc}},
			{Key: "b", Score: 0.42, Fields: map[string]string{"$": storedDoc}},
		}}, nil
	}

	got, err := repo.SearchSimilar(context.Background(), SimilarQuery{
		Vector:         []float32{1, 0, 0},
		Threshold:      0.8,
		Count:          20,
		ExcludeAuthors: []string{"alice"},
		ExcludeIdeaID:  "tmp-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Score() != 0.93 {
		t.Fatalf("expected one hit at 0.93, got %+v", got)
	}
}

func TestSearchSimilar_MissingVector(t *testing.T) {
	repo, _ := newTestRepo(t)
	_, err := repo.SearchSimilar(context.Background(), SimilarQuery{Count: 5})
	if !errors.Is(err, domain.ErrMissingEmbedding) {
		t.Fatalf("expected ErrMissingEmbedding, got %v", err)
	}
}

func TestSearchSimilar_StoreError(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.searchKNNFn = func(context.Context, *db.KNNQuery) (*db.SearchResult, error) {
		return nil, errors.New("timeout")
	}
	if _, err := repo.SearchSimilar(context.Background(), SimilarQuery{Vector: []float32{1}, Count: 1}); err == nil {
		t.Fatal("expected error")
	}
}
