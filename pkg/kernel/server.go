// Package kernel exposes the orchestration core over HTTP.
package kernel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/manthysbr/muse/internal/core/domain"
	"github.com/manthysbr/muse/internal/core/ports"
	"github.com/manthysbr/muse/internal/core/services"
)

const (
	maxBodyBytes    = 1 << 20
	maxRequestIDLen = 64

	headerBackend   = "X-Muse-Backend"
	headerRequestID = "X-Request-Id"
)

type Server struct {
	logger       *slog.Logger
	config       *domain.AppConfig
	orchestrator *services.Orchestrator
	registry     *services.BackendRegistry
	personas     *domain.PersonaCatalog
	probe        *services.BackendProbe
	audit        *services.RoutingAudit
	eventBus     *services.EventBus
	gatherer     prometheus.Gatherer
	openapi      *openapi3.T
	repo         ports.ProjectRepository
}

// NewServer wires the HTTP surface. gatherer may be nil, in which case
// /metrics is not mounted. The embedded OpenAPI document is validated here so
// a broken document fails startup rather than the first request.
func NewServer(
	logger *slog.Logger,
	config *domain.AppConfig,
	orchestrator *services.Orchestrator,
	registry *services.BackendRegistry,
	personas *domain.PersonaCatalog,
	probe *services.BackendProbe,
	audit *services.RoutingAudit,
	eventBus *services.EventBus,
	gatherer prometheus.Gatherer,
	repo ports.ProjectRepository,
) (*Server, error) {
	doc, err := loadOpenAPI(context.Background())
	if err != nil {
		return nil, err
	}
	return &Server{
		logger:       logger,
		config:       config,
		orchestrator: orchestrator,
		registry:     registry,
		personas:     personas,
		probe:        probe,
		audit:        audit,
		eventBus:     eventBus,
		gatherer:     gatherer,
		openapi:      doc,
		repo:         repo,
	}, nil
}

// Handler returns the http.Handler for the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// AI tasks
	mux.HandleFunc("POST /v1/ai/inspire", s.handleInspire)
	mux.HandleFunc("POST /v1/ai/synthesize", s.handleSynthesize)
	mux.HandleFunc("POST /v1/ai/critique", s.handleCritique)
	mux.HandleFunc("POST /v1/ai/refine-title", s.handleRefineTitle)

	// Projects
	mux.HandleFunc("GET /v1/projects", s.handleListProjects)
	mux.HandleFunc("POST /v1/projects", s.handleCreateProject)
	mux.HandleFunc("GET /v1/projects/{id}", s.handleGetProject)
	mux.HandleFunc("PUT /v1/projects/{id}", s.handleUpdateProject)
	mux.HandleFunc("DELETE /v1/projects/{id}", s.handleDeleteProject)

	// Routing observability
	mux.HandleFunc("GET /v1/routing/policy", s.handleRoutingPolicy)
	mux.HandleFunc("GET /v1/routing/attempts", s.handleRoutingAttempts)
	mux.HandleFunc("GET /v1/routing/events", s.handleRoutingEvents)

	mux.HandleFunc("GET /v1/personas", s.handleListPersonas)
	mux.HandleFunc("GET /v1/backends", s.handleListBackends)
	mux.HandleFunc("GET /v1/settings", s.handleGetSettings)
	mux.HandleFunc("GET /v1/health", s.handleHealth)
	mux.HandleFunc("GET /v1/openapi.json", s.handleOpenAPI)

	if s.gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return mux
}

// apiError is the error body for every endpoint.
type apiError struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

const codeNotFound = "NOT_FOUND"

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, apiError{Error: msg, Code: code})
}

// writeTaskError maps a core error onto status and code. Validation messages
// are always shown; backend detail is hidden in production.
func (s *Server) writeTaskError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, string(verr.Code), verr.Message)
	case errors.Is(err, domain.ErrAIServiceUnavailable):
		msg := err.Error()
		if s.config.Server.Production {
			msg = "AI service temporarily unavailable"
		}
		writeError(w, http.StatusServiceUnavailable, string(domain.CodeAIService), msg)
	case errors.Is(err, domain.ErrParseFailure):
		writeError(w, http.StatusBadGateway, string(domain.CodeParse), "could not parse AI response")
	default:
		s.logger.Error("request failed",
			"path", r.URL.Path,
			"request_id", services.RequestIDFromContext(r.Context()),
			"error", err)
		msg := err.Error()
		if s.config.Server.Production {
			msg = "internal server error"
		}
		writeError(w, http.StatusInternalServerError, string(domain.CodeInternal), msg)
	}
}

// decodeBody reads a JSON body of at most maxBodyBytes into dst.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return &domain.ValidationError{
			Code:    domain.CodeInvalidInput,
			Field:   "body",
			Message: fmt.Sprintf("invalid request body: %v", err),
		}
	}
	return nil
}

// requestID honours a caller-supplied X-Request-Id and otherwise mints one.
func requestID(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get(headerRequestID)); id != "" && len(id) <= maxRequestIDLen {
		return id
	}
	return uuid.New().String()
}
