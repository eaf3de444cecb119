package idea

import (
	"encoding/json"
	"fmt"
	"time"

	domidea "github.com/kailas-cloud/ideahub/internal/domain/idea"
)

const (
	visibilityPublic  = "public"
	visibilityPrivate = "private"
)

// ideaDoc is the JSON document stored per idea.
type ideaDoc struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Tags       []string  `json:"tags"`
	Authors    []string  `json:"authors"`
	Visibility string    `json:"visibility"`
	CreatedAt  int64     `json:"created_at"` // unix millis
	Vector     []float32 `json:"vector,omitempty"`
}

func toDoc(i domidea.Idea) ideaDoc {
	vis := visibilityPrivate
	if i.Public() {
		vis = visibilityPublic
	}
	tags := i.Tags()
	if tags == nil {
		tags = []string{}
	}
	return ideaDoc{
		ID:         i.ID(),
		Title:      i.Title(),
		Content:    i.Content(),
		Tags:       tags,
		Authors:    i.Authors(),
		Visibility: vis,
		CreatedAt:  i.CreatedAt().UnixMilli(),
		Vector:     i.Vector(),
	}
}

func (d ideaDoc) toDomain() domidea.Idea {
	return domidea.Reconstruct(
		d.ID, d.Title, d.Content, d.Tags, d.Authors,
		d.Visibility == visibilityPublic,
		time.UnixMilli(d.CreatedAt).UTC(),
		d.Vector,
	)
}

// parseDoc decodes either a bare document or the one-element array JSON.GET returns for "$".
func parseDoc(raw string) (domidea.Idea, error) {
	if len(raw) > 0 && raw[0] == '[' {
		var docs []ideaDoc
		if err := json.Unmarshal([]byte(raw), &docs); err != nil {
			return domidea.Idea{}, fmt.Errorf("decode idea: %w", err)
		}
		if len(docs) == 0 {
			return domidea.Idea{}, fmt.Errorf("decode idea: empty result")
		}
		return docs[0].toDomain(), nil
	}

	var d ideaDoc
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return domidea.Idea{}, fmt.Errorf("decode idea: %w", err)
	}
	return d.toDomain(), nil
}
