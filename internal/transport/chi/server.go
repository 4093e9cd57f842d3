// Package chi exposes the query pipeline over HTTP.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/MichaelrKraft/leadspot-ai-sub001/internal/domain"
	"github.com/MichaelrKraft/leadspot-ai-sub001/internal/metrics"
	healthuc "github.com/MichaelrKraft/leadspot-ai-sub001/internal/usecase/health"
	queryuc "github.com/MichaelrKraft/leadspot-ai-sub001/internal/usecase/query"
)

// Error codes returned in JSON error bodies.
const (
	codeBadRequest          = "bad_request"
	codeValidationFailed    = "validation_failed"
	codeProviderUnavailable = "provider_unavailable"
	codeInternalError       = "internal_error"
	codeUnauthorized        = "unauthorized"
)

// queryService is the inbound contract served by this transport.
type queryService interface {
	ProcessQuery(ctx context.Context, req queryuc.Request) (*domain.QueryResult, error)
}

// healthService aggregates component probes for GET /health.
type healthService interface {
	Check(ctx context.Context) healthuc.Report
}

// Server handles the query API.
type Server struct {
	queries queryService
	health  healthService
	logger  *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(queries queryService, health healthService, logger *zap.Logger) *Server {
	return &Server{queries: queries, health: health, logger: logger}
}

// Router builds the chi mux with middleware, health, metrics, and the
// query endpoint.
func (s *Server) Router(apiKeys []string) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RealIP)
	r.Use(RequestIDMiddleware(s.logger))
	r.Use(metrics.Middleware())
	r.Use(chiMiddleware.Recoverer)
	r.Use(BearerAuthMiddleware(apiKeys))

	r.Get("/health", s.Health)
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/api/query", s.ProcessQuery)

	return r
}

// queryRequest is the POST /api/query body.
type queryRequest struct {
	QueryText      string `json:"query_text"`
	OrganizationID string `json:"organization_id"`
	MaxSources     int    `json:"max_sources"`
	UseCache       *bool  `json:"use_cache"`
}

// ProcessQuery handles POST /api/query.
func (s *Server) ProcessQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	useCache := true
	if req.UseCache != nil {
		useCache = *req.UseCache
	}

	result, err := s.queries.ProcessQuery(r.Context(), queryuc.Request{
		QueryText:      req.QueryText,
		OrganizationID: req.OrganizationID,
		MaxSources:     req.MaxSources,
		UseCache:       useCache,
	})
	if err != nil {
		s.handleQueryError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Health handles GET /health.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}

func (s *Server) handleQueryError(w http.ResponseWriter, r *http.Request, err error) {
	var pipeErr *domain.PipelineError
	stage := ""
	if errors.As(err, &pipeErr) {
		stage = pipeErr.Stage
	}

	switch {
	case errors.Is(err, domain.ErrInvalidQuery):
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
	case errors.Is(err, domain.ErrProviderUnavailable):
		writeError(w, http.StatusBadGateway, codeProviderUnavailable, err.Error())
	default:
		s.logger.Error("Query request failed",
			zap.String("stage", stage),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, codeInternalError, "Internal server error")
	}
}

// errorBody is the JSON error envelope.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Code: code, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
