// Package tagging suggests tags for an idea with a chat model.
package tagging

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ideahub/internal/domain"
	"github.com/kailas-cloud/ideahub/internal/domain/tags"
	logpkg "github.com/kailas-cloud/ideahub/internal/logger"
)

const (
	operation   = "extract_tags"
	temperature = 0.3
	maxTokens   = 100
)

// Service asks a Completer for tags and parses its answer.
type Service struct {
	llm      domain.Completer
	language string
	logger   *zap.Logger
}

// New creates the service. A nil completer makes every call fail with ErrTaggerUnconfigured.
func New(llm domain.Completer, language string, logger *zap.Logger) *Service {
	if language == "" {
		language = "English"
	}
	return &Service{llm: llm, language: language, logger: logger}
}

// Configured reports whether a completer is wired.
func (s *Service) Configured() bool { return s.llm != nil }

// Suggest returns up to five tags for the idea.
func (s *Service) Suggest(ctx context.Context, title, content string) ([]string, error) {
	title, content = strings.TrimSpace(title), strings.TrimSpace(content)
	if title == "" && content == "" {
		return nil, fmt.Errorf("title or content is required: %w", domain.ErrInvalidInput)
	}
	if s.llm == nil {
		return nil, domain.ErrTaggerUnconfigured
	}

	raw, err := s.llm.Complete(ctx, domain.CompletionRequest{
		Operation:   operation,
		System:      "You extract short, meaningful tags from text. Reply with a JSON array only.",
		User:        s.prompt(title, content),
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("tag completion: %w", err)
	}
	logpkg.FromContext(ctx, s.logger).Debug("Tag model output", zap.String("raw", raw))

	out, err := tags.ParseModelOutput(raw)
	if err != nil {
		return nil, fmt.Errorf("parse tags: %w", err)
	}
	return out, nil
}

func (s *Service) prompt(title, content string) string {
	if title == "" {
		title = "(none)"
	}
	if content == "" {
		content = "(none)"
	}

	var b strings.Builder
	b.WriteString("Extract 3-5 keyword tags from this idea.\n\n")
	fmt.Fprintf(&b, "Title: %s\nContent: %s\n\n", title, content)
	b.WriteString("Rules:\n")
	b.WriteString("1. Return only a JSON array, e.g. [\"tag1\", \"tag2\", \"tag3\"]\n")
	b.WriteString("2. Tags are concise and capture the core topic\n")
	fmt.Fprintf(&b, "3. Write the tags in %s\n", s.language)
	b.WriteString("4. No other text")
	return b.String()
}
