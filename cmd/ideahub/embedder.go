package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ideahub/internal/config"
	"github.com/kailas-cloud/ideahub/internal/db"
	"github.com/kailas-cloud/ideahub/internal/domain"
	"github.com/kailas-cloud/ideahub/internal/metrics"
	"github.com/kailas-cloud/ideahub/internal/repository/embcache"
	"github.com/kailas-cloud/ideahub/internal/transport/httpembed"
	openaiTransport "github.com/kailas-cloud/ideahub/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/ideahub/internal/usecase/embedding"
)

// buildEmbedder assembles the decorator chain:
// provider -> cache -> accounting -> truncating -> dimension check.
func buildEmbedder(cfg config.EmbeddingConfig, cache db.Cache, logger *zap.Logger) domain.Embedder {
	timeout := time.Duration(cfg.TimeoutSec) * time.Second

	var base domain.Embedder
	switch cfg.Provider {
	case config.ProviderHTTP:
		base = httpembed.New(httpembed.Config{
			BaseURL: cfg.BaseURL,
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			Timeout: timeout,
			Logger:  logger,
		})
	default:
		dims := 0
		if cfg.RequestDimensions {
			dims = cfg.Dimensions
		}
		base = openaiTransport.NewEmbedder(&openaiTransport.Config{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: dims,
			Provider:   cfg.Provider,
			Timeout:    timeout,
			Logger:     logger,
		})
	}

	embedder := base
	if cfg.Cache.Enabled && cache != nil {
		embedder = embcache.New(base, cache, embcache.Config{
			Model: cfg.Model,
			Dims:  cfg.Dimensions,
			TTL:   time.Duration(cfg.Cache.TTLSec) * time.Second,
		}, metrics.EmbeddingCacheTotal, logger)
	}

	embedder = embeddinguc.NewAccountingEmbedder(embedder, embeddinguc.Options{
		Provider: cfg.Provider,
		Model:    cfg.Model,
	}, logger)
	embedder = domain.NewTruncatingEmbedder(embedder, cfg.MaxInputChars)

	logger.Info("Embedder created",
		zap.String("provider", cfg.Provider),
		zap.String("model", cfg.Model),
		zap.Int("dimensions", cfg.Dimensions),
		zap.Bool("cache", cfg.Cache.Enabled && cache != nil),
	)
	return domain.NewDimensionCheckedEmbedder(embedder, cfg.Dimensions)
}

// embeddingHealthChecker wraps domain.Embedder to implement health.EmbeddingChecker.
type embeddingHealthChecker struct {
	embedder domain.Embedder
}

func newEmbeddingHealthChecker(embedder domain.Embedder) *embeddingHealthChecker {
	return &embeddingHealthChecker{embedder: embedder}
}

func (h *embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := h.embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
}
