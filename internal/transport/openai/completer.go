package openai

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ideahub/internal/domain"
	"github.com/kailas-cloud/ideahub/internal/metrics"
)

// Completer is a chat completion client for the OpenAI-compatible API.
type Completer struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// NewCompleter creates a chat completion client. Dimensions and Provider in cfg are ignored.
func NewCompleter(cfg *Config) *Completer {
	return &Completer{
		client: cfg.client(),
		model:  cfg.Model,
		logger: cfg.logger(),
	}
}

// Complete implements domain.Completer and returns the first choice, trimmed.
func (c *Completer) Complete(ctx context.Context, req domain.CompletionRequest) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.System})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.User})

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	metrics.LLMRequestDuration.WithLabelValues(c.model, req.Operation).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.LLMRequestsTotal.WithLabelValues(c.model, req.Operation, "error").Inc()
		return "", upstreamError("completion", err)
	}
	if len(resp.Choices) == 0 {
		metrics.LLMRequestsTotal.WithLabelValues(c.model, req.Operation, "error").Inc()
		return "", fmt.Errorf("completion: empty response: %w", domain.ErrUpstreamUnavailable)
	}

	metrics.LLMRequestsTotal.WithLabelValues(c.model, req.Operation, "success").Inc()
	c.logger.Debug("Chat completion",
		zap.String("operation", req.Operation),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
		zap.Duration("duration", time.Since(start)),
	)
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
