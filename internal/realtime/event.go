// Package realtime fans idea events out to websocket clients across instances.
package realtime

import (
	"time"

	domidea "github.com/kailas-cloud/ideahub/internal/domain/idea"
)

// Event types.
const (
	IdeaCreated = "idea.created"
	IdeaUpdated = "idea.updated"
)

// DefaultChannel is the pub/sub channel events travel on.
const DefaultChannel = "ideahub:events"

// Event is one change notification.
type Event struct {
	Type      string       `json:"type"`
	IdeaID    string       `json:"idea_id"`
	Idea      *IdeaPayload `json:"idea,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

// IdeaPayload is the idea as clients see it. Vectors are never sent.
type IdeaPayload struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Tags      []string  `json:"tags"`
	Authors   []string  `json:"authors"`
	Public    bool      `json:"public"`
	CreatedAt time.Time `json:"created_at"`
}

// NewEvent builds an event for i stamped with now. Every connected client
// receives every event, so a private idea travels as its ID only.
func NewEvent(typ string, i domidea.Idea, now time.Time) Event {
	ev := Event{Type: typ, IdeaID: i.ID(), Timestamp: now.UTC()}
	if !i.Public() {
		return ev
	}
	ev.Idea = &IdeaPayload{
		ID:        i.ID(),
		Title:     i.Title(),
		Content:   i.Content(),
		Tags:      i.Tags(),
		Authors:   i.Authors(),
		Public:    true,
		CreatedAt: i.CreatedAt(),
	}
	return ev
}
