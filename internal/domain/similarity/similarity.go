// Package similarity ranks ideas against a query embedding by cosine similarity.
//
// All functions are pure: they read their inputs and return new values.
package similarity

import (
	"fmt"
	"math"
	"sort"

	"github.com/kailas-cloud/ideahub/internal/domain"
	"github.com/kailas-cloud/ideahub/internal/domain/idea"
)

// Candidate pairs an existing idea with its similarity to the query.
type Candidate struct {
	Idea  idea.Idea
	Score float64
}

// Options controls Rank.
type Options struct {
	// Threshold is the minimum score a candidate needs to be kept.
	Threshold float64
	// ExcludeAuthors drops any candidate written by one of these authors, whatever its score.
	ExcludeAuthors []string
	// ExcludeIDs drops candidates by idea ID (the submitted idea itself).
	ExcludeIDs []string
	// Strict fails the whole ranking on a dimension mismatch instead of skipping the candidate.
	Strict bool
	// Limit truncates the sorted result; 0 keeps everything.
	Limit int
}

// Cosine returns dot(a,b) / (|a|*|b|).
// Zero-magnitude vectors and vectors of different length score 0.
func Cosine(a, b []float32) float64 {
	s, err := CosineStrict(a, b)
	if err != nil {
		return 0
	}
	return s
}

// CosineStrict is Cosine that reports a length mismatch as domain.ErrDimensionMismatch.
func CosineStrict(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%d vs %d: %w", len(a), len(b), domain.ErrDimensionMismatch)
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}

	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}

// Rank scores every eligible candidate against query and returns those at or above
// the threshold, sorted by score descending with ties kept in input order.
//
// An empty query is a precondition failure (domain.ErrMissingEmbedding), never an empty result.
// Candidates without a vector are skipped.
func Rank(query []float32, candidates []idea.Idea, opts Options) ([]Candidate, error) {
	if len(query) == 0 {
		return nil, fmt.Errorf("rank query: %w", domain.ErrMissingEmbedding)
	}

	excludedIDs := make(map[string]struct{}, len(opts.ExcludeIDs))
	for _, id := range opts.ExcludeIDs {
		if id != "" {
			excludedIDs[id] = struct{}{}
		}
	}

	var out []Candidate
	for _, c := range candidates {
		if !c.HasVector() {
			continue
		}
		if _, skip := excludedIDs[c.ID()]; skip && c.ID() != "" {
			continue
		}
		if c.SharesAuthor(opts.ExcludeAuthors) {
			continue
		}

		score, err := CosineStrict(query, c.Vector())
		if err != nil {
			if opts.Strict {
				return nil, fmt.Errorf("candidate %s: %w", c.ID(), err)
			}
			continue
		}
		if score < opts.Threshold {
			continue
		}
		out = append(out, Candidate{Idea: c, Score: score})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })

	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}
