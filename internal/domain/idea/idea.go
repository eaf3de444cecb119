package idea

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// MaxTitleRunes is the maximum title length.
	MaxTitleRunes = 200
	// MaxContentRunes is the maximum body length.
	MaxContentRunes = 10000
	// MaxTags is the maximum number of tags stored on an idea.
	MaxTags = 10
)

// Idea is the idea aggregate (immutable value object).
type Idea struct {
	id        string
	title     string
	content   string
	tags      []string
	authors   []string
	public    bool
	createdAt time.Time
	vector    []float32
	score     float64
}

// New validates and creates an Idea without an ID or vector.
// Title and content must be non-empty, at least one author is required.
// Tags are trimmed, deduplicated and capped at MaxTags.
func New(title, content string, tags, authors []string, public bool, createdAt time.Time) (Idea, error) {
	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)

	if title == "" {
		return Idea{}, fmt.Errorf("title is required")
	}
	if utf8.RuneCountInString(title) > MaxTitleRunes {
		return Idea{}, fmt.Errorf("title too long (max %d characters)", MaxTitleRunes)
	}
	if content == "" {
		return Idea{}, fmt.Errorf("content is required")
	}
	if utf8.RuneCountInString(content) > MaxContentRunes {
		return Idea{}, fmt.Errorf("content too long (max %d characters)", MaxContentRunes)
	}

	cleanAuthors := cleanList(authors, 0)
	if len(cleanAuthors) == 0 {
		return Idea{}, fmt.Errorf("at least one author is required")
	}

	return Idea{
		title:     title,
		content:   content,
		tags:      cleanList(tags, MaxTags),
		authors:   cleanAuthors,
		public:    public,
		createdAt: createdAt.UTC(),
	}, nil
}

// Reconstruct creates an Idea without validation (storage hydration).
func Reconstruct(
	id, title, content string, tags, authors []string,
	public bool, createdAt time.Time, vector []float32,
) Idea {
	return Idea{
		id: id, title: title, content: content, tags: tags, authors: authors,
		public: public, createdAt: createdAt, vector: vector,
	}
}

// ID returns the identifier; empty until persisted.
func (i Idea) ID() string { return i.id }

// Title returns the idea title.
func (i Idea) Title() string { return i.title }

// Content returns the idea body.
func (i Idea) Content() string { return i.content }

// Tags returns the tag list.
func (i Idea) Tags() []string { return i.tags }

// Authors returns the author identifiers.
func (i Idea) Authors() []string { return i.authors }

// Public reports whether the idea is visible to everyone.
func (i Idea) Public() bool { return i.public }

// CreatedAt returns the creation timestamp.
func (i Idea) CreatedAt() time.Time { return i.createdAt }

// Vector returns the embedding, nil when absent.
func (i Idea) Vector() []float32 { return i.vector }

// HasVector reports whether an embedding is stored.
func (i Idea) HasVector() bool { return len(i.vector) > 0 }

// Score is the similarity reported by a remote ranking query, 0 otherwise.
func (i Idea) Score() float64 { return i.score }

// HasAuthor reports whether author is one of the idea's authors.
func (i Idea) HasAuthor(author string) bool {
	for _, a := range i.authors {
		if a == author {
			return true
		}
	}
	return false
}

// SharesAuthor reports whether any of authors wrote this idea.
func (i Idea) SharesAuthor(authors []string) bool {
	for _, a := range authors {
		if i.HasAuthor(a) {
			return true
		}
	}
	return false
}

// VisibleTo reports whether viewer may see the idea.
func (i Idea) VisibleTo(viewer string) bool {
	return i.public || (viewer != "" && i.HasAuthor(viewer))
}

// EmbeddingText is the text vectorized for matching: title, content and tags.
func (i Idea) EmbeddingText() string {
	parts := []string{i.title, i.content}
	parts = append(parts, i.tags...)
	return strings.TrimSpace(strings.Join(parts, " "))
}

// WithID returns a copy carrying the server-assigned ID.
func (i Idea) WithID(id string) Idea {
	i.id = id
	return i
}

// WithVector returns a copy with the given vector set.
func (i Idea) WithVector(v []float32) Idea {
	i.vector = v
	return i
}

// WithTags returns a copy with cleaned replacement tags.
func (i Idea) WithTags(tags []string) Idea {
	i.tags = cleanList(tags, MaxTags)
	return i
}

// WithScore returns a copy annotated with a ranking score.
func (i Idea) WithScore(s float64) Idea {
	i.score = s
	return i
}

// cleanList trims, drops empties and duplicates, and caps at limit (0 = unlimited).
func cleanList(in []string, limit int) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}
