package chi

import (
	"time"

	domidea "github.com/kailas-cloud/ideahub/internal/domain/idea"
	"github.com/kailas-cloud/ideahub/internal/domain/submission"
	"github.com/kailas-cloud/ideahub/internal/usecase/match"
)

type submitIdeaRequest struct {
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Tags     []string `json:"tags"`
	AuthorID string   `json:"author_id"`
	Public   *bool    `json:"public"`
}

type matchRequest struct {
	Threshold *float64 `json:"threshold"`
}

type embeddingRequest struct {
	Text string `json:"text"`
}

type embeddingResponse struct {
	Embedding []float32 `json:"embedding"`
}

type extractTagsRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type extractTagsResponse struct {
	Tags []string `json:"tags"`
}

type groupNameRequest struct {
	Titles []string `json:"titles"`
}

type groupNameResponse struct {
	GroupName string `json:"group_name"`
}

type ideaResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Tags      []string  `json:"tags"`
	Authors   []string  `json:"authors"`
	Public    bool      `json:"public"`
	CreatedAt time.Time `json:"created_at"`
}

type ideaListResponse struct {
	Items []ideaResponse `json:"items"`
	Total int            `json:"total"`
}

type candidateResponse struct {
	Idea       ideaResponse `json:"idea"`
	Similarity float64      `json:"similarity"`
}

type decisionResponse struct {
	Kind       match.Kind          `json:"kind"`
	Threshold  float64             `json:"threshold"`
	Candidates []candidateResponse `json:"candidates"`
	Error      string              `json:"error,omitempty"`
}

type submissionResponse struct {
	Status        submission.Status `json:"status"`
	ID            string            `json:"id"`
	ProvisionalID string            `json:"provisional_id"`
	Error         string            `json:"error,omitempty"`
}

type submitIdeaResponse struct {
	Idea       ideaResponse       `json:"idea"`
	Submission submissionResponse `json:"submission"`
	Match      decisionResponse   `json:"match"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func ideaToResponse(i domidea.Idea) ideaResponse {
	tags := i.Tags()
	if tags == nil {
		tags = []string{}
	}
	return ideaResponse{
		ID:        i.ID(),
		Title:     i.Title(),
		Content:   i.Content(),
		Tags:      tags,
		Authors:   i.Authors(),
		Public:    i.Public(),
		CreatedAt: i.CreatedAt(),
	}
}

func decisionToResponse(d match.Decision) decisionResponse {
	resp := decisionResponse{
		Kind:       d.Kind,
		Threshold:  d.Threshold,
		Candidates: make([]candidateResponse, len(d.Candidates)),
	}
	for i, c := range d.Candidates {
		resp.Candidates[i] = candidateResponse{Idea: ideaToResponse(c.Idea), Similarity: c.Score}
	}
	if d.Err != nil {
		resp.Error = safeDomainMessage(d.Err)
	}
	return resp
}

func outcomeToResponse(o submission.Outcome) submissionResponse {
	resp := submissionResponse{
		Status:        o.Status(),
		ID:            o.ID(),
		ProvisionalID: o.ProvisionalID(),
	}
	if o.Err() != nil {
		resp.Error = safeDomainMessage(o.Err())
	}
	return resp
}
