package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ideahub/internal/domain"
	"github.com/kailas-cloud/ideahub/internal/domain/tags"
	logpkg "github.com/kailas-cloud/ideahub/internal/logger"
)

// ErrorCode is the machine-readable error code returned to clients.
type ErrorCode string

// Error codes.
const (
	CodeBadRequest        ErrorCode = "bad_request"
	CodeUnauthorized      ErrorCode = "unauthorized"
	CodeValidationFailed  ErrorCode = "validation_failed"
	CodeNotFound          ErrorCode = "not_found"
	CodeTagParseFailed    ErrorCode = "tag_parse_failed"
	CodeMissingEmbedding  ErrorCode = "missing_embedding"
	CodeDimensionMismatch ErrorCode = "dimension_mismatch"
	CodeUpstreamError     ErrorCode = "upstream_unavailable"
	CodeNotConfigured     ErrorCode = "not_configured"
	CodeInternalError     ErrorCode = "internal_error"
)

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

func defaultErrorHandlers() []errorHandler {
	return []errorHandler{
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, CodeNotFound),
		sentinelHandler(domain.ErrInvalidInput, http.StatusBadRequest, CodeValidationFailed),
		tagParseHandler,
		sentinelHandler(domain.ErrTaggerUnconfigured, http.StatusInternalServerError, CodeNotConfigured),
		sentinelHandler(domain.ErrMissingEmbedding, http.StatusUnprocessableEntity, CodeMissingEmbedding),
		sentinelHandler(domain.ErrDimensionMismatch, http.StatusUnprocessableEntity, CodeDimensionMismatch),
		sentinelHandler(domain.ErrUpstreamUnavailable, http.StatusBadGateway, CodeUpstreamError),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
// Validation errors carry user-facing detail and are passed through.
func safeDomainMessage(err error) string {
	if errors.Is(err, domain.ErrInvalidInput) {
		return err.Error()
	}
	sentinels := []error{
		domain.ErrNotFound,
		domain.ErrTagParse,
		domain.ErrTaggerUnconfigured,
		domain.ErrMissingEmbedding,
		domain.ErrDimensionMismatch,
		domain.ErrUpstreamUnavailable,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// tagParseHandler reports unparseable model output with a preview of what the model said.
func tagParseHandler(w http.ResponseWriter, err error, msg string) bool {
	if !errors.Is(err, domain.ErrTagParse) {
		return false
	}
	var pe *tags.ParseError
	if errors.As(err, &pe) {
		msg = pe.Error()
	}
	writeError(w, http.StatusUnprocessableEntity, CodeTagParseFailed, msg)
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logpkg.FromContext(r.Context(), s.logger)
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			log.Warn("domain error", zap.Error(err))
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
