package chi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ideahub/internal/domain"
	domidea "github.com/kailas-cloud/ideahub/internal/domain/idea"
	healthuc "github.com/kailas-cloud/ideahub/internal/usecase/health"
	ideauc "github.com/kailas-cloud/ideahub/internal/usecase/idea"
	"github.com/kailas-cloud/ideahub/internal/usecase/match"
)

const maxBodyBytes = 1 << 20

// IdeaService is the idea use case as the HTTP layer sees it.
type IdeaService interface {
	Submit(ctx context.Context, d ideauc.Draft) (ideauc.SubmitResult, error)
	Get(ctx context.Context, id, viewer string) (domidea.Idea, error)
	List(ctx context.Context, limit int, viewer string) ([]domidea.Idea, error)
	RetagWithSuggestions(ctx context.Context, id string) (domidea.Idea, error)
	MatchExisting(ctx context.Context, id string, threshold *float64) (match.Decision, error)
}

// TagSuggester suggests tags for free text.
type TagSuggester interface {
	Suggest(ctx context.Context, title, content string) ([]string, error)
}

// GroupNamer suggests a name for a group of ideas.
type GroupNamer interface {
	SuggestName(ctx context.Context, titles []string) (string, error)
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// Server holds the HTTP handlers.
type Server struct {
	ideas         IdeaService
	tagger        TagSuggester
	groups        GroupNamer
	embedder      domain.Embedder
	health        HealthChecker
	realtime      http.Handler
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. realtime may be nil to disable /ws.
func NewServer(
	ideas IdeaService,
	tagger TagSuggester,
	groups GroupNamer,
	embedder domain.Embedder,
	health HealthChecker,
	realtime http.Handler,
	logger *zap.Logger,
) *Server {
	return &Server{
		ideas:         ideas,
		tagger:        tagger,
		groups:        groups,
		embedder:      embedder,
		health:        health,
		realtime:      realtime,
		logger:        logger,
		errorHandlers: defaultErrorHandlers(),
	}
}

// OpsRoutes mounts the unauthenticated probe and scrape endpoints.
func (s *Server) OpsRoutes(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// Routes mounts the API endpoints.
func (s *Server) Routes(r chi.Router) {
	r.Route("/ideas", func(r chi.Router) {
		r.Post("/", s.SubmitIdea)
		r.Get("/", s.ListIdeas)
		r.Get("/{id}", s.GetIdea)
		r.Post("/{id}/match", s.MatchIdea)
		r.Post("/{id}/retag", s.RetagIdea)
	})

	r.Post("/embedding", s.Embed)
	r.Post("/extract-tags", s.ExtractTags)
	r.Post("/generate-group-name", s.GenerateGroupName)

	if s.realtime != nil {
		r.Get("/ws", s.realtime.ServeHTTP)
	}
}

// SubmitIdea handles POST /ideas.
func (s *Server) SubmitIdea(w http.ResponseWriter, r *http.Request) {
	var req submitIdeaRequest
	if !s.decode(w, r, &req) {
		return
	}

	public := true
	if req.Public != nil {
		public = *req.Public
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	res, err := s.ideas.Submit(ctx, ideauc.Draft{
		Title:    req.Title,
		Content:  req.Content,
		Tags:     req.Tags,
		AuthorID: req.AuthorID,
		Public:   public,
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusCreated, submitIdeaResponse{
		Idea:       ideaToResponse(res.Idea),
		Submission: outcomeToResponse(res.Outcome),
		Match:      decisionToResponse(res.Decision),
	})
}

// ListIdeas handles GET /ideas?limit=&viewer=.
func (s *Server) ListIdeas(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, CodeBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	ideas, err := s.ideas.List(r.Context(), limit, r.URL.Query().Get("viewer"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	items := make([]ideaResponse, len(ideas))
	for i, idea := range ideas {
		items[i] = ideaToResponse(idea)
	}
	writeJSON(w, http.StatusOK, ideaListResponse{Items: items, Total: len(items)})
}

// GetIdea handles GET /ideas/{id}. Private ideas need ?viewer= set to an author.
func (s *Server) GetIdea(w http.ResponseWriter, r *http.Request) {
	i, err := s.ideas.Get(r.Context(), chi.URLParam(r, "id"), r.URL.Query().Get("viewer"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ideaToResponse(i))
}

// MatchIdea handles POST /ideas/{id}/match.
func (s *Server) MatchIdea(w http.ResponseWriter, r *http.Request) {
	var req matchRequest
	if r.ContentLength != 0 && !s.decode(w, r, &req) {
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	d, err := s.ideas.MatchExisting(ctx, chi.URLParam(r, "id"), req.Threshold)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, decisionToResponse(d))
}

// RetagIdea handles POST /ideas/{id}/retag.
func (s *Server) RetagIdea(w http.ResponseWriter, r *http.Request) {
	i, err := s.ideas.RetagWithSuggestions(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ideaToResponse(i))
}

// Embed handles POST /embedding.
func (s *Server) Embed(w http.ResponseWriter, r *http.Request) {
	var req embeddingRequest
	if !s.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "text is required")
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	res, err := s.embedder.Embed(ctx, req.Text)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, embeddingResponse{Embedding: res.Embedding})
}

// ExtractTags handles POST /extract-tags.
func (s *Server) ExtractTags(w http.ResponseWriter, r *http.Request) {
	var req extractTagsRequest
	if !s.decode(w, r, &req) {
		return
	}

	tags, err := s.tagger.Suggest(r.Context(), req.Title, req.Content)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, extractTagsResponse{Tags: tags})
}

// GenerateGroupName handles POST /generate-group-name.
func (s *Server) GenerateGroupName(w http.ResponseWriter, r *http.Request) {
	var req groupNameRequest
	if !s.decode(w, r, &req) {
		return
	}

	name, err := s.groups.SuggestName(r.Context(), req.Titles)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, groupNameResponse{GroupName: name})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{Status: string(report.Status), Checks: checks})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func setEmbeddingHeaders(w http.ResponseWriter, usage *domain.EmbeddingUsage) {
	if usage != nil && usage.Used() {
		w.Header().Set("X-Embedding-Tokens", strconv.Itoa(usage.Tokens()))
	}
}
