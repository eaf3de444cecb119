package openai

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/kailas-cloud/ideahub/internal/domain"
	"github.com/kailas-cloud/ideahub/internal/metrics"
)

// Embedder calls POST /embeddings.
type Embedder struct {
	client   *openai.Client
	req      openai.EmbeddingRequest
	provider string
}

// NewEmbedder creates an embedding client for cfg.Model.
func NewEmbedder(cfg *Config) *Embedder {
	return &Embedder{
		client: cfg.client(),
		req: openai.EmbeddingRequest{
			Model:          openai.EmbeddingModel(cfg.Model),
			EncodingFormat: openai.EmbeddingEncodingFormatFloat,
			User:           cfg.User,
			Dimensions:     max(cfg.Dimensions, 0),
		},
		provider: cfg.Provider,
	}
}

// Embed vectorizes one text and reports the tokens the provider billed.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	req := e.req
	req.Input = []string{text}

	call := metrics.StartVectorizerCall(e.provider, string(req.Model))
	resp, err := e.client.CreateEmbeddings(ctx, req)
	if err != nil {
		call.Failed("api_error")
		return domain.EmbeddingResult{}, upstreamError("embedding", err)
	}
	if len(resp.Data) == 0 {
		call.Failed("empty_response")
		return domain.EmbeddingResult{}, fmt.Errorf("embedding: empty response: %w", domain.ErrUpstreamUnavailable)
	}
	call.OK(resp.Usage.PromptTokens, resp.Usage.TotalTokens)

	return domain.EmbeddingResult{
		Embedding:    resp.Data[0].Embedding,
		PromptTokens: resp.Usage.PromptTokens,
		TotalTokens:  resp.Usage.TotalTokens,
	}, nil
}

// HealthCheck lists models, which costs no tokens.
func (e *Embedder) HealthCheck(ctx context.Context) error {
	if _, err := e.client.ListModels(ctx); err != nil {
		return upstreamError("list models", err)
	}
	return nil
}
