// Package group names a collaboration group formed from similar ideas.
package group

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ideahub/internal/domain"
	logpkg "github.com/kailas-cloud/ideahub/internal/logger"
)

const (
	operation    = "group_name"
	temperature  = 0.7
	maxTokens    = 50
	maxTitles    = 3
	fallbackName = "Idea Circle"
)

// Service suggests group names.
type Service struct {
	llm         domain.Completer
	defaultName string
	logger      *zap.Logger
}

// New creates the service. An empty defaultName selects "Idea Circle".
func New(llm domain.Completer, defaultName string, logger *zap.Logger) *Service {
	if defaultName == "" {
		defaultName = fallbackName
	}
	return &Service{llm: llm, defaultName: defaultName, logger: logger}
}

// SuggestName proposes a short name for the ideas with the given titles.
func (s *Service) SuggestName(ctx context.Context, titles []string) (string, error) {
	var picked []string
	for _, t := range titles {
		if t = strings.TrimSpace(t); t != "" {
			picked = append(picked, t)
		}
		if len(picked) == maxTitles {
			break
		}
	}
	if len(picked) == 0 {
		return "", fmt.Errorf("no idea titles provided: %w", domain.ErrInvalidInput)
	}
	if s.llm == nil {
		return "", domain.ErrTaggerUnconfigured
	}

	raw, err := s.llm.Complete(ctx, domain.CompletionRequest{
		Operation:   operation,
		System:      "You name creative teams with short, catchy names.",
		User:        prompt(picked),
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("group name completion: %w", err)
	}

	name := strings.Trim(strings.TrimSpace(raw), "\"'`“”")
	name = strings.TrimSpace(name)
	if name == "" {
		logpkg.FromContext(ctx, s.logger).Debug("Empty group name from model, using default")
		return s.defaultName, nil
	}
	return name, nil
}

func prompt(titles []string) string {
	var b strings.Builder
	b.WriteString("Suggest a name for a group formed around these similar ideas:\n\n")
	for i, t := range titles {
		fmt.Fprintf(&b, "Idea %d: %s\n", i+1, t)
	}
	b.WriteString("\nReturn only the name, 2-6 words, capturing the shared theme.")
	return b.String()
}
