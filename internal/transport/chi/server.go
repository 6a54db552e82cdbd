// Package chi exposes the render service over HTTP.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	gochi "github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/estemplate/internal/domain"
	"github.com/kailas-cloud/estemplate/internal/domain/mapping"
	"github.com/kailas-cloud/estemplate/internal/domain/schema"
	logpkg "github.com/kailas-cloud/estemplate/internal/logger"
	"github.com/kailas-cloud/estemplate/internal/metrics"
	healthuc "github.com/kailas-cloud/estemplate/internal/usecase/health"
	renderuc "github.com/kailas-cloud/estemplate/internal/usecase/render"
	"github.com/kailas-cloud/estemplate/internal/version"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server serves the HTTP API.
type Server struct {
	render        *renderuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(render *renderuc.Service, health *healthuc.Service, logger *zap.Logger) *Server {
	s := &Server{
		render: render,
		health: health,
		logger: logger,
	}
	// Order matters: the first matching sentinel decides the status.
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, ErrorCodeNotFound),
		sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest, ErrorCodeBadRequest),
		sentinelHandler(schema.ErrUnknownRole, http.StatusBadRequest, ErrorCodeUnknownRole),
		sentinelHandler(domain.ErrInvalidSchema, http.StatusUnprocessableEntity, ErrorCodeInvalidSchema),
		sentinelHandler(schema.ErrDuplicateField, http.StatusUnprocessableEntity, ErrorCodeInvalidSchema),
		sentinelHandler(schema.ErrUnresolvedAttribute, http.StatusUnprocessableEntity, ErrorCodeInvalidSchema),
		sentinelHandler(mapping.ErrRecursiveDocument, http.StatusUnprocessableEntity, ErrorCodeInvalidSchema),
		sentinelHandler(mapping.ErrReservedField, http.StatusUnprocessableEntity, ErrorCodeInvalidSchema),
		sentinelHandler(domain.ErrStoreDisabled, http.StatusNotImplemented, ErrorCodeStoreDisabled),
	}
	return s
}

// Routes registers all endpoints on r.
func (s *Server) Routes(r gochi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r gochi.Router) {
		r.Get("/documents", s.ListDocuments)
		r.Get("/documents/{name}/mapping", s.GetMapping)
		r.Get("/documents/{name}/template", s.GetTemplate)
		r.Post("/documents/{name}/templates", s.PublishTemplate)
		r.Post("/documents/{name}/templates/batch", s.PublishTemplates)

		r.Get("/templates", s.ListTemplates)
		r.Get("/templates/{template}", s.GetPublishedTemplate)
		r.Delete("/templates/{template}", s.DeletePublishedTemplate)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, ErrorCodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, ErrorCodeBadRequest, "method not allowed")
	})
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

	writeJSON(w, httpStatus, HealthResponse{
		Status:  string(report.Status),
		Version: version.Version,
		Checks:  checks,
	})
}

// Output formats for rendered documents.
const (
	formatJSON = "json"
	formatYAML = "yaml"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeYAML(w http.ResponseWriter, status int, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return err //nolint:wrapcheck // caller maps to internal error
	}
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(status)
	_, _ = w.Write(data)
	return nil
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
// The full error text is returned to the client.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, err.Error())
		return true
	}
}

// batchErrorCode classifies a per-role failure the way handleDomainError
// classifies a request failure.
func batchErrorCode(err error) ErrorCode {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return ErrorCodeNotFound
	case errors.Is(err, domain.ErrInvalidRequest):
		return ErrorCodeBadRequest
	case errors.Is(err, schema.ErrUnknownRole):
		return ErrorCodeUnknownRole
	case errors.Is(err, domain.ErrInvalidSchema),
		errors.Is(err, schema.ErrDuplicateField),
		errors.Is(err, schema.ErrUnresolvedAttribute),
		errors.Is(err, mapping.ErrRecursiveDocument),
		errors.Is(err, mapping.ErrReservedField):
		return ErrorCodeInvalidSchema
	default:
		return ErrorCodeInternalError
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logpkg.FromContextOr(r.Context(), s.logger)
	for _, h := range s.errorHandlers {
		if h(w, err) {
			log.Warn("domain error", zap.Error(err))
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}

// NewRouter builds the chi router with the standard middleware stack.
func NewRouter(s *Server, apiKeys []string) gochi.Router {
	r := gochi.NewRouter()
	r.Use(JSONRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(WideEventMiddleware(s.logger))
	r.Use(BearerAuthMiddleware(apiKeys))
	r.Use(metrics.Middleware())
	s.Routes(r)
	return r
}
