// Package idea stores ideas as JSON documents in Redis and serves the
// similarity RPC through an HNSW vector index.
package idea

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/kailas-cloud/ideahub/internal/db"
	"github.com/kailas-cloud/ideahub/internal/domain"
	domidea "github.com/kailas-cloud/ideahub/internal/domain/idea"
)

const (
	keyPrefix = domain.KeyPrefix + "idea:"
	indexName = domain.KeyPrefix + "ideas:idx"
	pageSize  = 500

	hnswM           = 16
	hnswEFConstruct = 200
)

// store is the consumer interface for ideas (ISP).
type store interface {
	JSONSet(ctx context.Context, key, path string, data []byte) error
	JSONGet(ctx context.Context, key string) ([]byte, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchList(ctx context.Context, q *db.ListQuery) (*db.SearchResult, error)
}

// SimilarQuery is the input of the ranking RPC.
type SimilarQuery struct {
	Vector         []float32
	Threshold      float64
	Count          int
	ExcludeAuthors []string
	ExcludeIdeaID  string
}

// Repo implements the idea repository on db.Store.
type Repo struct {
	store store
	dims  int
	newID func() string
}

// New creates an idea repository; dims is the embedding dimension of the vector index.
func New(s store, dims int) *Repo {
	return &Repo{store: s, dims: dims, newID: uuid.NewString}
}

// EnsureIndex creates the search index if it does not exist yet.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	def, err := db.NewJSONIndex(indexName, keyPrefix).
		Tag("$.id", "id").
		Tag("$.authors[*]", "authors").
		Tag("$.tags[*]", "tags").
		Tag("$.visibility", "visibility").
		SortableNumeric("$.created_at", "created_at").
		Vector("$.vector", "vector", db.HNSW{Dim: r.dims, M: hnswM, EFConstruct: hnswEFConstruct}).
		Build()
	if err != nil {
		return fmt.Errorf("build index: %w", err)
	}

	if err := r.store.CreateIndex(ctx, def); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			return nil
		}
		return fmt.Errorf("create index %s: %w", indexName, err)
	}
	return nil
}

// Create persists a new idea under a freshly assigned ID and returns the stored idea.
func (r *Repo) Create(ctx context.Context, i domidea.Idea) (domidea.Idea, error) {
	stored := i.WithID(r.newID())
	if err := r.put(ctx, stored); err != nil {
		return domidea.Idea{}, err
	}
	return stored, nil
}

// Get returns an idea by ID.
func (r *Repo) Get(ctx context.Context, id string) (domidea.Idea, error) {
	raw, err := r.store.JSONGet(ctx, keyPrefix+id)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domidea.Idea{}, fmt.Errorf("idea %s: %w", id, domain.ErrNotFound)
		}
		return domidea.Idea{}, fmt.Errorf("json.get %s: %w", id, err)
	}
	return parseDoc(string(raw))
}

// List returns up to limit ideas, newest first. With a viewer, private ideas
// of that viewer are included; without one only public ideas are listed.
func (r *Repo) List(ctx context.Context, limit int, viewer string) ([]domidea.Idea, error) {
	f := db.Filter{Must: []db.Condition{db.TagIs("visibility", visibilityPublic)}}
	if viewer != "" {
		f = db.Filter{Should: []db.Condition{
			db.TagIs("visibility", visibilityPublic),
			db.TagIs("authors", viewer),
		}}
	}

	res, err := r.store.SearchList(ctx, &db.ListQuery{
		IndexName:    indexName,
		Filter:       f,
		Limit:        limit,
		SortBy:       "created_at",
		Descending:   true,
		ReturnFields: []string{"$"},
	})
	if err != nil {
		return nil, fmt.Errorf("list ideas: %w", err)
	}
	return entriesToIdeas(res.Entries, false)
}

// UpdateTags rewrites the tags of an existing idea.
func (r *Repo) UpdateTags(ctx context.Context, id string, tags []string) (domidea.Idea, error) {
	current, err := r.Get(ctx, id)
	if err != nil {
		return domidea.Idea{}, err
	}
	updated := current.WithTags(tags)

	data, err := json.Marshal(toDoc(updated).Tags)
	if err != nil {
		return domidea.Idea{}, fmt.Errorf("marshal tags: %w", err)
	}
	if err := r.store.JSONSet(ctx, keyPrefix+id, "$.tags", data); err != nil {
		return domidea.Idea{}, fmt.Errorf("json.set %s tags: %w", id, err)
	}
	return updated, nil
}

// ListWithVectors returns every stored idea that carries an embedding.
func (r *Repo) ListWithVectors(ctx context.Context) ([]domidea.Idea, error) {
	var out []domidea.Idea
	for offset := 0; ; offset += pageSize {
		res, err := r.store.SearchList(ctx, &db.ListQuery{
			IndexName:    indexName,
			Offset:       offset,
			Limit:        pageSize,
			ReturnFields: []string{"$"},
		})
		if err != nil {
			return nil, fmt.Errorf("list ideas with vectors: %w", err)
		}
		page, err := entriesToIdeas(res.Entries, true)
		if err != nil {
			return nil, err
		}
		out = append(out, page...)
		if len(res.Entries) < pageSize || offset+pageSize >= res.Total {
			return out, nil
		}
	}
}

// SearchSimilar runs a KNN query for the closest ideas not written by the
// excluded authors, keeping hits at or above the threshold in score order.
func (r *Repo) SearchSimilar(ctx context.Context, q SimilarQuery) ([]domidea.Idea, error) {
	if len(q.Vector) == 0 {
		return nil, fmt.Errorf("similar query: %w", domain.ErrMissingEmbedding)
	}

	var f db.Filter
	for _, a := range q.ExcludeAuthors {
		if a != "" {
			f.MustNot = append(f.MustNot, db.TagIs("authors", a))
		}
	}
	if q.ExcludeIdeaID != "" {
		f.MustNot = append(f.MustNot, db.TagIs("id", q.ExcludeIdeaID))
	}

	res, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    indexName,
		VectorField:  "vector",
		Filter:       f,
		Vector:       q.Vector,
		K:            q.Count,
		ReturnFields: []string{"$"},
	})
	if err != nil {
		return nil, fmt.Errorf("search similar: %w", err)
	}

	out := make([]domidea.Idea, 0, len(res.Entries))
	for _, e := range res.Entries {
		if e.Score < q.Threshold {
			continue
		}
		i, err := parseDoc(e.Fields["$"])
		if err != nil {
			return nil, fmt.Errorf("entry %s: %w", e.Key, err)
		}
		out = append(out, i.WithScore(e.Score))
	}
	return out, nil
}

func (r *Repo) put(ctx context.Context, i domidea.Idea) error {
	data, err := json.Marshal(toDoc(i))
	if err != nil {
		return fmt.Errorf("marshal idea: %w", err)
	}
	key := keyPrefix + i.ID()
	if err := r.store.JSONSet(ctx, key, "$", data); err != nil {
		return fmt.Errorf("json.set %s: %w", key, err)
	}
	return nil
}

func entriesToIdeas(entries []db.SearchEntry, vectorsOnly bool) ([]domidea.Idea, error) {
	out := make([]domidea.Idea, 0, len(entries))
	for _, e := range entries {
		i, err := parseDoc(e.Fields["$"])
		if err != nil {
			return nil, fmt.Errorf("entry %s: %w", e.Key, err)
		}
		if vectorsOnly && !i.HasVector() {
			continue
		}
		out = append(out, i)
	}
	return out, nil
}
