// Package embcache memoizes vectorizer output in Redis so resubmitted or
// re-matched ideas do not pay for a second embedding call.
package embcache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ideahub/internal/db"
	"github.com/kailas-cloud/ideahub/internal/domain"
)

const keyPrefix = domain.KeyPrefix + "emb_cache:"

// cache is the slice of db.Store the decorator uses (ISP).
type cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Config identifies what is cached and for how long.
type Config struct {
	Model string
	// Dims, when positive, turns cached vectors of another length into misses,
	// so changing the model dimension never serves stale vectors.
	Dims int
	// TTL <= 0 keeps entries forever.
	TTL time.Duration
}

// CachedEmbedder is a domain.Embedder decorator backed by a key-value cache.
type CachedEmbedder struct {
	inner   domain.Embedder
	cache   cache
	cfg     Config
	lookups *prometheus.CounterVec
	logger  *zap.Logger
}

// New wraps inner. lookups is a counter vec labelled "result" (hit, miss); nil disables counting.
func New(inner domain.Embedder, c cache, cfg Config, lookups *prometheus.CounterVec, logger *zap.Logger) *CachedEmbedder {
	return &CachedEmbedder{inner: inner, cache: c, cfg: cfg, lookups: lookups, logger: logger}
}

// Embed serves from the cache when possible. A hit reports zero tokens.
// Cache failures are logged and never fail the call.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	key := c.key(text)

	if vec, ok := c.lookup(ctx, key); ok {
		c.count("hit")
		return domain.EmbeddingResult{Embedding: vec}, nil
	}
	c.count("miss")

	result, err := c.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed text: %w", err)
	}
	if len(result.Embedding) > 0 {
		if err := c.cache.Set(ctx, key, encode(result.Embedding), c.cfg.TTL); err != nil {
			c.logger.Warn("Failed to cache embedding", zap.String("key", key), zap.Error(err))
		}
	}
	return result, nil
}

// HealthCheck proxies to the inner embedder when it supports health checks.
func (c *CachedEmbedder) HealthCheck(ctx context.Context) error {
	if hc, ok := c.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx) //nolint:wrapcheck // transparent proxy
	}
	return nil
}

func (c *CachedEmbedder) lookup(ctx context.Context, key string) ([]float32, bool) {
	data, err := c.cache.Get(ctx, key)
	switch {
	case errors.Is(err, db.ErrKeyNotFound):
		return nil, false
	case err != nil:
		c.logger.Warn("Failed to read cached embedding", zap.String("key", key), zap.Error(err))
		return nil, false
	}

	vec, err := decode(data)
	if err != nil {
		c.logger.Warn("Discarding corrupt cached embedding", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	if c.cfg.Dims > 0 && len(vec) != c.cfg.Dims {
		c.logger.Debug("Cached embedding has stale dimension",
			zap.String("key", key), zap.Int("got", len(vec)), zap.Int("want", c.cfg.Dims))
		return nil, false
	}
	return vec, true
}

func (c *CachedEmbedder) count(result string) {
	if c.lookups != nil {
		c.lookups.WithLabelValues(result).Inc()
	}
}

// key is prefix + model + sha256(text); the model is kept readable for manual flushing.
func (c *CachedEmbedder) key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return keyPrefix + c.cfg.Model + ":" + hex.EncodeToString(sum[:])
}

func encode(v []float32) []byte {
	buf := make([]byte, 0, 4*len(v))
	for _, f := range v {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
	}
	return buf
}

func decode(data []byte) ([]float32, error) {
	if len(data) == 0 || len(data)%4 != 0 {
		return nil, fmt.Errorf("cached embedding is %d bytes, not a float32 vector", len(data))
	}
	vec := make([]float32, len(data)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[4*i:]))
	}
	return vec, nil
}
