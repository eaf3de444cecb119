// Package embedding holds the embedder decorators shared by every use case
// that vectorizes text.
package embedding

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ideahub/internal/domain"
	logpkg "github.com/kailas-cloud/ideahub/internal/logger"
)

const defaultSlowAfter = 2 * time.Second

// Options describes the vectorizer behind an AccountingEmbedder.
type Options struct {
	Provider string
	Model    string
	// SlowAfter logs calls taking longer at warn level. Zero means 2s.
	SlowAfter time.Duration
}

// AccountingEmbedder charges tokens to the request's EmbeddingUsage and logs
// each call with the request id. Upstream metrics live in the transports.
type AccountingEmbedder struct {
	inner  domain.Embedder
	opts   Options
	logger *zap.Logger
	now    func() time.Time
}

// NewAccountingEmbedder wraps inner.
func NewAccountingEmbedder(inner domain.Embedder, opts Options, logger *zap.Logger) *AccountingEmbedder {
	if opts.SlowAfter <= 0 {
		opts.SlowAfter = defaultSlowAfter
	}
	return &AccountingEmbedder{
		inner:  inner,
		opts:   opts,
		logger: logger.With(zap.String("provider", opts.Provider), zap.String("model", opts.Model)),
		now:    time.Now,
	}
}

// Embed delegates to inner, charges the returned tokens to the request usage
// and logs calls slower than Options.SlowAfter at warn level.
func (a *AccountingEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	log := logpkg.FromContext(ctx, a.logger)
	began := a.now()

	res, err := a.inner.Embed(ctx, text)
	took := a.now().Sub(began)
	if err != nil {
		log.Error("Vectorizer call failed", zap.Duration("took", took), zap.Error(err))
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}

	domain.UsageFromContext(ctx).AddTokens(res.TotalTokens)

	fields := []zap.Field{
		zap.Duration("took", took),
		zap.Int("dimensions", len(res.Embedding)),
		zap.Int("tokens", res.TotalTokens),
	}
	if took >= a.opts.SlowAfter {
		log.Warn("Slow vectorizer call", fields...)
	} else {
		log.Debug("Vectorizer call", fields...)
	}
	return res, nil
}

// HealthCheck forwards to inner when it can check itself.
func (a *AccountingEmbedder) HealthCheck(ctx context.Context) error {
	hc, ok := a.inner.(domain.HealthChecker)
	if !ok {
		return nil
	}
	return hc.HealthCheck(ctx) //nolint:wrapcheck // transparent proxy
}
