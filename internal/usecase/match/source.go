package match

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/ideahub/internal/domain"
	domidea "github.com/kailas-cloud/ideahub/internal/domain/idea"
	"github.com/kailas-cloud/ideahub/internal/domain/similarity"
	repoidea "github.com/kailas-cloud/ideahub/internal/repository/idea"
)

// Query carries the ranking constraints passed to a CandidateSource.
type Query struct {
	Threshold      float64
	ExcludeAuthors []string
	ExcludeIdeaID  string
	Limit          int
	Strict         bool
}

func (q Query) options() similarity.Options {
	opts := similarity.Options{
		Threshold:      q.Threshold,
		ExcludeAuthors: q.ExcludeAuthors,
		Strict:         q.Strict,
		Limit:          q.Limit,
	}
	if q.ExcludeIdeaID != "" {
		opts.ExcludeIDs = []string{q.ExcludeIdeaID}
	}
	return opts
}

// CandidateSource ranks existing ideas against a query embedding.
type CandidateSource interface {
	Rank(ctx context.Context, query []float32, q Query) ([]similarity.Candidate, error)
}

// LocalListSource fetches all ideas and ranks them in process.
type LocalListSource struct {
	lister IdeaLister
	static []domidea.Idea
}

// NewLocalListSource ranks whatever the lister returns on each call.
func NewLocalListSource(lister IdeaLister) *LocalListSource {
	return &LocalListSource{lister: lister}
}

// NewStaticSource ranks a pre-fetched candidate set.
func NewStaticSource(ideas []domidea.Idea) *LocalListSource {
	return &LocalListSource{static: ideas}
}

// Rank implements CandidateSource.
func (s *LocalListSource) Rank(ctx context.Context, query []float32, q Query) ([]similarity.Candidate, error) {
	ideas := s.static
	if s.lister != nil {
		var err error
		ideas, err = s.lister.ListWithVectors(ctx)
		if err != nil {
			return nil, fmt.Errorf("list candidates: %w", err)
		}
	}

	ranked, err := similarity.Rank(query, ideas, q.options())
	if err != nil {
		return nil, fmt.Errorf("rank candidates: %w", err)
	}
	return ranked, nil
}

// RemoteRankedSource asks the store for the top-K nearest ideas and re-applies
// the ranking rules to its answer.
type RemoteRankedSource struct {
	searcher SimilarSearcher
	count    int
}

// NewRemoteRankedSource creates a source that fetches at most count candidates per query.
func NewRemoteRankedSource(searcher SimilarSearcher, count int) *RemoteRankedSource {
	if count <= 0 {
		count = 20
	}
	return &RemoteRankedSource{searcher: searcher, count: count}
}

// Rank implements CandidateSource.
func (s *RemoteRankedSource) Rank(ctx context.Context, query []float32, q Query) ([]similarity.Candidate, error) {
	if len(query) == 0 {
		return nil, fmt.Errorf("remote rank: %w", domain.ErrMissingEmbedding)
	}

	ideas, err := s.searcher.SearchSimilar(ctx, repoidea.SimilarQuery{
		Vector:         query,
		Threshold:      q.Threshold,
		Count:          s.count,
		ExcludeAuthors: q.ExcludeAuthors,
		ExcludeIdeaID:  q.ExcludeIdeaID,
	})
	if err != nil {
		return nil, fmt.Errorf("search similar: %w: %w", err, domain.ErrUpstreamUnavailable)
	}

	ranked, err := similarity.Rank(query, ideas, q.options())
	if err != nil {
		return nil, fmt.Errorf("rank remote candidates: %w", err)
	}
	return ranked, nil
}
