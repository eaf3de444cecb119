// Package openai adapts any OpenAI-compatible API (OpenAI, SiliconFlow, a local
// LM Studio or Ollama server) to the embedding and completion contracts.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ideahub/internal/domain"
)

const defaultTimeout = 30 * time.Second

// Config holds the provider settings shared by Embedder and Completer.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	// Dimensions is sent as the "dimensions" request field when > 0.
	// Only some embedding models accept it.
	Dimensions int
	User       string
	Provider   string
	// Timeout bounds one HTTP round trip. Zero means 30s.
	Timeout time.Duration
	Logger  *zap.Logger
}

func (cfg *Config) client() *openai.Client {
	cc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		cc.BaseURL = cfg.BaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	cc.HTTPClient = &http.Client{Timeout: timeout}
	return openai.NewClientWithConfig(cc)
}

func (cfg *Config) logger() *zap.Logger {
	if cfg.Logger == nil {
		return zap.NewNop()
	}
	return cfg.Logger
}

// upstreamError turns a go-openai failure into a message worth showing to a
// client, wrapped in domain.ErrUpstreamUnavailable.
func upstreamError(call string, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%s: upstream %d: %s: %w", call, apiErr.HTTPStatusCode, apiErr.Message, domain.ErrUpstreamUnavailable)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("%s: upstream %d: %s: %w", call, reqErr.HTTPStatusCode, bodyMessage(reqErr.Body), domain.ErrUpstreamUnavailable)
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w: %w", call, err, domain.ErrUpstreamUnavailable)
	}
	return fmt.Errorf("%s: request failed: %w", call, domain.ErrUpstreamUnavailable)
}

// bodyMessage pulls "detail" or "message" out of a non-standard JSON error
// body and falls back to the raw body.
func bodyMessage(body []byte) string {
	var parsed struct {
		Detail  string `json:"detail"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil {
		if parsed.Detail != "" {
			return parsed.Detail
		}
		if parsed.Message != "" {
			return parsed.Message
		}
	}
	return string(body)
}
