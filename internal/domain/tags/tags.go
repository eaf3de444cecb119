// Package tags turns free-form language-model output into a clean tag list.
package tags

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/kailas-cloud/ideahub/internal/domain"
)

// MaxTags is the maximum number of tags kept from one model answer.
const MaxTags = 5

const maxRawInError = 120

var (
	arrayPattern = regexp.MustCompile(`(?s)\[.*\]`)
	fencePattern = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*(.*?)\\s*```$")
)

// ParseError is returned when no JSON array can be recovered from the model output.
type ParseError struct {
	Raw string
}

func (e *ParseError) Error() string {
	raw := e.Raw
	if r := []rune(raw); len(r) > maxRawInError {
		raw = string(r[:maxRawInError]) + "..."
	}
	return fmt.Sprintf("%s: %q", domain.ErrTagParse.Error(), raw)
}

func (e *ParseError) Unwrap() error { return domain.ErrTagParse }

// ParseModelOutput extracts tags from raw model output.
//
// The span from the first '[' to the last ']' is tried first, then the whole
// text. Non-string elements are dropped. The result is trimmed, deduplicated
// and capped at MaxTags. An array that filters down to nothing yields an empty
// non-nil slice.
func ParseModelOutput(raw string) ([]string, error) {
	text := stripFence(strings.TrimSpace(raw))

	if span := arrayPattern.FindString(text); span != "" {
		if items, ok := decodeArray(span); ok {
			return clean(items), nil
		}
	}
	if items, ok := decodeArray(text); ok {
		return clean(items), nil
	}
	return nil, &ParseError{Raw: raw}
}

func stripFence(s string) string {
	if m := fencePattern.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return s
}

func decodeArray(s string) ([]any, bool) {
	var items []any
	if err := json.Unmarshal([]byte(s), &items); err != nil {
		return nil, false
	}
	return items, items != nil
}

func clean(items []any) []string {
	out := make([]string, 0, MaxTags)
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		s, ok := it.(string)
		if !ok {
			continue
		}
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
		if len(out) == MaxTags {
			break
		}
	}
	return out
}
