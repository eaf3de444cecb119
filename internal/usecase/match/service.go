// Package match turns a submission into a match decision: embed, rank, classify.
package match

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ideahub/internal/domain"
	logpkg "github.com/kailas-cloud/ideahub/internal/logger"
	"github.com/kailas-cloud/ideahub/internal/metrics"
)

// DefaultThreshold is used when the service is built without one.
const DefaultThreshold = 0.8

// Request is one matching run.
type Request struct {
	Text string
	// Vector, when set, must be the embedding of Text.
	Vector        []float32
	AuthorIDs     []string
	ExcludeIdeaID string
	// Threshold overrides the configured threshold when non-nil.
	Threshold *float64
}

// Config holds matching defaults.
type Config struct {
	Threshold float64
	Limit     int
	Strict    bool
}

// Service is the match orchestrator. It holds no per-request state.
type Service struct {
	embed  Embedder
	source CandidateSource
	cfg    Config
	logger *zap.Logger
}

// New creates the orchestrator.
func New(embed Embedder, source CandidateSource, cfg Config, logger *zap.Logger) *Service {
	return &Service{embed: embed, source: source, cfg: cfg, logger: logger}
}

// ValidateThreshold checks that t is a cosine similarity bound.
func ValidateThreshold(t float64) error {
	if math.IsNaN(t) || t < -1 || t > 1 {
		return fmt.Errorf("threshold %v outside [-1, 1]: %w", t, domain.ErrInvalidInput)
	}
	return nil
}

// Match embeds (if needed), ranks and classifies. It never returns an error:
// failures end in an Aborted decision.
func (s *Service) Match(ctx context.Context, req Request) Decision {
	threshold := s.cfg.Threshold
	if req.Threshold != nil {
		threshold = *req.Threshold
	}
	if err := ValidateThreshold(threshold); err != nil {
		return s.abort(ctx, threshold, err)
	}

	vector := req.Vector
	if len(vector) == 0 {
		res, err := s.embed.Embed(ctx, req.Text)
		if err != nil {
			return s.abort(ctx, threshold, fmt.Errorf("embed submission: %w", err))
		}
		vector = res.Embedding
	}

	candidates, err := s.source.Rank(ctx, vector, Query{
		Threshold:      threshold,
		ExcludeAuthors: req.AuthorIDs,
		ExcludeIdeaID:  req.ExcludeIdeaID,
		Limit:          s.cfg.Limit,
		Strict:         s.cfg.Strict,
	})
	if err != nil {
		return s.abort(ctx, threshold, err)
	}

	d := Decision{Kind: Classify(candidates), Candidates: candidates, Threshold: threshold}
	metrics.MatchDecisionsTotal.WithLabelValues(d.Kind.String()).Inc()
	metrics.MatchCandidates.Observe(float64(len(candidates)))

	logpkg.FromContext(ctx, s.logger).Debug("Match decided",
		zap.String("kind", d.Kind.String()),
		zap.Int("candidates", len(candidates)),
		zap.Float64("threshold", threshold),
	)
	return d
}

func (s *Service) abort(ctx context.Context, threshold float64, err error) Decision {
	log := logpkg.FromContext(ctx, s.logger)
	metrics.MatchDecisionsTotal.WithLabelValues(Aborted.String()).Inc()

	if errors.Is(err, domain.ErrMissingEmbedding) ||
		errors.Is(err, domain.ErrDimensionMismatch) ||
		errors.Is(err, domain.ErrInvalidInput) {
		log.Error("Matching precondition failed", zap.Error(err))
	} else {
		log.Warn("Matching aborted", zap.Error(err))
	}
	return Decision{Kind: Aborted, Threshold: threshold, Err: err}
}

// Abort records a matching run that could not start, e.g. because the
// submission could not be embedded upstream of the orchestrator.
func (s *Service) Abort(ctx context.Context, err error) Decision {
	return s.abort(ctx, s.cfg.Threshold, err)
}
