// Package idea implements idea submission and retrieval.
//
// Submission is a two-phase commit: the idea gets a provisional ID, then
// persistence and matching run side by side. The outcome of one never
// affects the other.
package idea

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ideahub/internal/domain"
	domidea "github.com/kailas-cloud/ideahub/internal/domain/idea"
	"github.com/kailas-cloud/ideahub/internal/domain/submission"
	logpkg "github.com/kailas-cloud/ideahub/internal/logger"
	"github.com/kailas-cloud/ideahub/internal/realtime"
	"github.com/kailas-cloud/ideahub/internal/usecase/match"
)

const (
	defaultEmbedTimeout = 15 * time.Second
	defaultPageSize     = 50
	maxPageSize         = 200
)

// Draft is a not yet validated idea submission.
type Draft struct {
	Title    string
	Content  string
	Tags     []string
	AuthorID string
	Public   bool
}

// SubmitResult reports both halves of a submission.
type SubmitResult struct {
	Idea     domidea.Idea
	Outcome  submission.Outcome
	Decision match.Decision
}

// Service handles idea submission, listing, and re-tagging.
type Service struct {
	repo         Repository
	embed        Embedder
	matcher      Matcher
	tagger       Tagger
	publisher    Publisher
	embedTimeout time.Duration
	now          func() time.Time
	newID        func() string
	logger       *zap.Logger
}

// New creates an idea service. A nil publisher disables realtime events.
func New(
	repo Repository, embed Embedder, matcher Matcher, tagger Tagger,
	publisher Publisher, logger *zap.Logger,
) *Service {
	if publisher == nil {
		publisher = realtime.NopPublisher{}
	}
	return &Service{
		repo:         repo,
		embed:        embed,
		matcher:      matcher,
		tagger:       tagger,
		publisher:    publisher,
		embedTimeout: defaultEmbedTimeout,
		now:          time.Now,
		newID:        uuid.NewString,
		logger:       logger,
	}
}

// WithEmbedTimeout bounds the embedding step of Submit.
func (s *Service) WithEmbedTimeout(d time.Duration) *Service {
	if d > 0 {
		s.embedTimeout = d
	}
	return s
}

// Submit validates, embeds, then persists and matches the idea concurrently.
// Only validation errors are returned; persistence failures show up as a
// RolledBack outcome and matching failures as an Aborted decision.
func (s *Service) Submit(ctx context.Context, d Draft) (SubmitResult, error) {
	i, err := domidea.New(d.Title, d.Content, d.Tags, []string{d.AuthorID}, d.Public, s.now())
	if err != nil {
		return SubmitResult{}, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}

	outcome := submission.Begin(s.newID())
	provisionalID := outcome.ProvisionalID()

	embedCtx, cancel := context.WithTimeout(ctx, s.embedTimeout)
	res, embedErr := s.embed.Embed(embedCtx, i.EmbeddingText())
	cancel()
	if embedErr == nil {
		i = i.WithVector(res.Embedding)
	}

	var (
		wg       sync.WaitGroup
		saved    domidea.Idea
		decision match.Decision
	)
	wg.Add(2)

	go func() {
		defer wg.Done()
		created, err := s.repo.Create(ctx, i)
		if err != nil {
			logpkg.FromContext(ctx, s.logger).Error("Idea persistence failed",
				zap.String("provisional_id", provisionalID), zap.Error(err))
			outcome = outcome.Rollback(fmt.Errorf("persist idea: %w", err))
			return
		}
		saved = created
		outcome = outcome.Commit(created.ID())
	}()

	go func() {
		defer wg.Done()
		if embedErr != nil {
			decision = s.matcher.Abort(ctx, fmt.Errorf("embed submission: %w", embedErr))
			return
		}
		decision = s.matcher.Match(ctx, match.Request{
			Text:          i.EmbeddingText(),
			Vector:        i.Vector(),
			AuthorIDs:     i.Authors(),
			ExcludeIdeaID: provisionalID,
		})
	}()

	wg.Wait()

	result := SubmitResult{Idea: i.WithID(outcome.ID()), Outcome: outcome, Decision: decision}
	if outcome.Status() == submission.Committed {
		result.Idea = saved
		s.publish(ctx, realtime.IdeaCreated, saved)
	}

	logpkg.FromContext(ctx, s.logger).Info("Idea submitted",
		zap.String("idea_id", outcome.ID()),
		zap.String("status", outcome.Status().String()),
		zap.String("match", decision.Kind.String()),
		zap.Int("candidates", len(decision.Candidates)),
	)
	return result, nil
}

// Get returns an idea by ID. A private idea is reported as not found
// unless viewer is one of its authors.
func (s *Service) Get(ctx context.Context, id, viewer string) (domidea.Idea, error) {
	i, err := s.repo.Get(ctx, id)
	if err != nil {
		return domidea.Idea{}, fmt.Errorf("get idea: %w", err)
	}
	if !i.VisibleTo(viewer) {
		return domidea.Idea{}, fmt.Errorf("get idea %s: %w", id, domain.ErrNotFound)
	}
	return i, nil
}

// List returns the newest ideas visible to viewer. Private ideas are
// included only for their authors; an empty viewer sees public ideas only.
func (s *Service) List(ctx context.Context, limit int, viewer string) ([]domidea.Idea, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	ideas, err := s.repo.List(ctx, limit, viewer)
	if err != nil {
		return nil, fmt.Errorf("list ideas: %w", err)
	}
	return ideas, nil
}

// RetagWithSuggestions replaces the tags of a stored idea with model suggestions.
func (s *Service) RetagWithSuggestions(ctx context.Context, id string) (domidea.Idea, error) {
	i, err := s.repo.Get(ctx, id)
	if err != nil {
		return domidea.Idea{}, fmt.Errorf("get idea: %w", err)
	}

	suggested, err := s.tagger.Suggest(ctx, i.Title(), i.Content())
	if err != nil {
		return domidea.Idea{}, fmt.Errorf("suggest tags: %w", err)
	}

	updated, err := s.repo.UpdateTags(ctx, id, suggested)
	if err != nil {
		return domidea.Idea{}, fmt.Errorf("update tags: %w", err)
	}
	s.publish(ctx, realtime.IdeaUpdated, updated)
	return updated, nil
}

// MatchExisting re-runs matching for a stored idea, excluding the idea itself.
// threshold overrides the configured one when non-nil.
func (s *Service) MatchExisting(ctx context.Context, id string, threshold *float64) (match.Decision, error) {
	if threshold != nil {
		if err := match.ValidateThreshold(*threshold); err != nil {
			return match.Decision{}, err
		}
	}

	i, err := s.repo.Get(ctx, id)
	if err != nil {
		return match.Decision{}, fmt.Errorf("get idea: %w", err)
	}

	return s.matcher.Match(ctx, match.Request{
		Text:          i.EmbeddingText(),
		Vector:        i.Vector(),
		AuthorIDs:     i.Authors(),
		ExcludeIdeaID: i.ID(),
		Threshold:     threshold,
	}), nil
}

func (s *Service) publish(ctx context.Context, typ string, i domidea.Idea) {
	if err := s.publisher.Publish(ctx, realtime.NewEvent(typ, i, s.now())); err != nil {
		logpkg.FromContext(ctx, s.logger).Warn("Realtime publish failed",
			zap.String("type", typ), zap.String("idea_id", i.ID()), zap.Error(err))
	}
}
