package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/IvoRacious/TianGong-AI-LangServe/internal/domain"
	"github.com/IvoRacious/TianGong-AI-LangServe/internal/domain/passage"
	"github.com/IvoRacious/TianGong-AI-LangServe/internal/logger"
	academicuc "github.com/IvoRacious/TianGong-AI-LangServe/internal/usecase/academic"
	esguc "github.com/IvoRacious/TianGong-AI-LangServe/internal/usecase/esg"
	healthuc "github.com/IvoRacious/TianGong-AI-LangServe/internal/usecase/health"
)

// ESGSearcher runs the ESG retrieval pipeline.
type ESGSearcher interface {
	Search(ctx context.Context, req esguc.Request) ([]passage.Sourced, error)
}

// AcademicSearcher runs the academic retrieval pipeline.
type AcademicSearcher interface {
	Search(ctx context.Context, req academicuc.Request) ([]passage.Sourced, error)
}

// HealthChecker aggregates component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Server exposes the retrieval pipelines over HTTP.
type Server struct {
	esg      ESGSearcher
	academic AcademicSearcher
	health   HealthChecker
	logger   *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(esg ESGSearcher, academic AcademicSearcher, health HealthChecker, logger *zap.Logger) *Server {
	return &Server{esg: esg, academic: academic, health: health, logger: logger}
}

// Register mounts all routes on the router.
func (s *Server) Register(r chi.Router) {
	r.Post("/v1/search/esg", s.SearchESG)
	r.Post("/v1/search/academic", s.SearchAcademic)
	r.Get("/health", s.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
}

// searchESGRequest is the ESG search request body.
type searchESGRequest struct {
	Query  string   `json:"query"`
	TopK   int      `json:"top_k,omitempty"`
	DocIDs []string `json:"doc_ids,omitempty"`
}

// SearchESG handles POST /v1/search/esg.
func (s *Server) SearchESG(w http.ResponseWriter, r *http.Request) {
	var req searchESGRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "query is required")
		return
	}

	passages, err := s.esg.Search(r.Context(), esguc.Request{
		Query:  req.Query,
		TopK:   req.TopK,
		DocIDs: req.DocIDs,
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, passages)
}

// searchAcademicRequest is the academic search request body.
type searchAcademicRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k,omitempty"`
}

// SearchAcademic handles POST /v1/search/academic.
func (s *Server) SearchAcademic(w http.ResponseWriter, r *http.Request) {
	var req searchAcademicRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "query is required")
		return
	}

	passages, err := s.academic.Search(r.Context(), academicuc.Request{
		Query: req.Query,
		TopK:  req.TopK,
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, passages)
}

// healthResponse is the health report body.
type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Health handles GET /health.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for name, result := range report.Checks {
		checks[name] = string(result)
	}

	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, healthResponse{Status: string(report.Status), Checks: checks})
}

// handleDomainError maps sentinel errors to HTTP statuses. Upstream
// collaborator failures surface as 502 with the original error text.
func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	logger.FromContext(r.Context()).Error("search failed", zap.Error(err))

	switch {
	case errors.Is(err, domain.ErrEmptyQuery):
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
	case errors.Is(err, domain.ErrEmbeddingProviderError):
		writeError(w, http.StatusBadGateway, "embedding_provider_error", err.Error())
	case errors.Is(err, domain.ErrVectorIndexError):
		writeError(w, http.StatusBadGateway, "vector_index_error", err.Error())
	case errors.Is(err, domain.ErrMetadataStoreError):
		writeError(w, http.StatusBadGateway, "metadata_store_error", err.Error())
	case errors.Is(err, domain.ErrMalformedMetadata):
		writeError(w, http.StatusBadGateway, "malformed_metadata", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}
