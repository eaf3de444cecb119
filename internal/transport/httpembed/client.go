// Package httpembed calls a remote vectorizer that speaks
// POST {base}/embedding {"text": ...} -> {"embedding": [...]}.
package httpembed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ideahub/internal/domain"
	logpkg "github.com/kailas-cloud/ideahub/internal/logger"
	"github.com/kailas-cloud/ideahub/internal/metrics"
)

const (
	provider     = "http"
	maxErrorBody = 512
	healthText   = "ping"
)

// Config holds the remote vectorizer settings.
type Config struct {
	BaseURL string
	APIKey  string // optional bearer token
	Model   string // label only
	Timeout time.Duration
	Logger  *zap.Logger
}

// Client implements domain.Embedder over the remote endpoint.
type Client struct {
	http    *http.Client
	baseURL string
	apiKey  string
	model   string
	logger  *zap.Logger
}

type embedRequest struct {
	Text string `json:"text"`
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
	Error     string    `json:"error,omitempty"`
}

// New creates the client.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		logger:  logger.With(zap.String("provider", provider), zap.String("model", cfg.Model)),
	}
}

// Embed implements domain.Embedder.
func (c *Client) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	body, err := json.Marshal(embedRequest{Text: text})
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embedding", bytes.NewReader(body))
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	call := metrics.StartVectorizerCall(provider, c.model)
	resp, err := c.http.Do(req)
	if err != nil {
		return c.fail(ctx, call, "transport", fmt.Errorf("embedding request: %w: %w", err, domain.ErrUpstreamUnavailable))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return c.fail(ctx, call, "http_status", fmt.Errorf("embedding endpoint returned %d: %s: %w",
			resp.StatusCode, strings.TrimSpace(string(msg)), domain.ErrUpstreamUnavailable))
	}

	var out embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return c.fail(ctx, call, "decode", fmt.Errorf("decode embedding response: %w: %w", err, domain.ErrUpstreamUnavailable))
	}
	if out.Error != "" {
		return c.fail(ctx, call, "api_error", fmt.Errorf("embedding endpoint: %s: %w", out.Error, domain.ErrUpstreamUnavailable))
	}
	if len(out.Embedding) == 0 {
		return c.fail(ctx, call, "empty", fmt.Errorf("embedding endpoint returned no vector: %w", domain.ErrUpstreamUnavailable))
	}

	call.OK(0, 0)
	return domain.EmbeddingResult{Embedding: out.Embedding}, nil
}

// HealthCheck embeds a one-word text; the endpoint exposes nothing cheaper.
func (c *Client) HealthCheck(ctx context.Context) error {
	if _, err := c.Embed(ctx, healthText); err != nil {
		return fmt.Errorf("vectorizer health: %w", err)
	}
	return nil
}

func (c *Client) fail(ctx context.Context, call metrics.VectorizerCall, reason string, err error) (domain.EmbeddingResult, error) {
	call.Failed(reason)
	logpkg.FromContext(ctx, c.logger).Warn("Remote vectorizer failed",
		zap.String("reason", reason), zap.String("url", c.baseURL), zap.Error(err))
	return domain.EmbeddingResult{}, err
}
