package chi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	gochi "github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/estemplate/internal/domain"
	logpkg "github.com/kailas-cloud/estemplate/internal/logger"
)

// ListDocuments handles GET /v1/documents.
func (s *Server) ListDocuments(w http.ResponseWriter, _ *http.Request) {
	docs := s.render.Documents()
	items := make([]DocumentResponse, len(docs))
	for i, d := range docs {
		items[i] = documentToResponse(d)
	}
	writeJSON(w, http.StatusOK, ListResponse[DocumentResponse]{Items: items})
}

// GetMapping handles GET /v1/documents/{name}/mapping.
func (s *Server) GetMapping(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	format, err := outputFormat(q.Get("format"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	timestamp := false
	if raw := q.Get("timestamp"); raw != "" {
		if timestamp, err = strconv.ParseBool(raw); err != nil {
			s.handleDomainError(w, r, fmt.Errorf("%w: timestamp must be a boolean", domain.ErrInvalidRequest))
			return
		}
	}

	m, err := s.render.Mapping(r.Context(), gochi.URLParam(r, "name"), q.Get("role"), timestamp)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	s.writeRendered(w, r, format, map[string]any{"properties": m})
}

// GetTemplate handles GET /v1/documents/{name}/template.
func (s *Server) GetTemplate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	format, err := outputFormat(q.Get("format"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	t, err := s.render.Template(r.Context(), gochi.URLParam(r, "name"), q.Get("title"), q.Get("role"), q.Get("doc_type"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	s.writeRendered(w, r, format, t)
}

// PublishTemplate handles POST /v1/documents/{name}/templates.
func (s *Server) PublishTemplate(w http.ResponseWriter, r *http.Request) {
	var req PublishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	pt, err := s.render.Publish(r.Context(), gochi.URLParam(r, "name"), req.Title, req.Role, req.DocType)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	w.Header().Set("Location", "/v1/templates/"+pt.Name)
	writeJSON(w, http.StatusCreated, publishedToResponse(pt, true))
}

// PublishTemplates handles POST /v1/documents/{name}/templates/batch.
func (s *Server) PublishTemplates(w http.ResponseWriter, r *http.Request) {
	var req BatchPublishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	results, err := s.render.PublishRoles(r.Context(), gochi.URLParam(r, "name"), req.Title, req.Roles, req.DocType)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	resp := BatchPublishResponse{Items: make([]BatchResultItem, len(results))}
	for i, res := range results {
		resp.Items[i] = batchResultToResponse(res)
		if res.OK() {
			resp.Succeeded++
		} else {
			resp.Failed++
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListTemplates handles GET /v1/templates.
func (s *Server) ListTemplates(w http.ResponseWriter, r *http.Request) {
	ts, err := s.render.ListPublished(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	items := make([]PublishedTemplateResponse, len(ts))
	for i, t := range ts {
		items[i] = publishedToResponse(t, false)
	}
	writeJSON(w, http.StatusOK, ListResponse[PublishedTemplateResponse]{Items: items})
}

// GetPublishedTemplate handles GET /v1/templates/{template}.
func (s *Server) GetPublishedTemplate(w http.ResponseWriter, r *http.Request) {
	t, err := s.render.Published(r.Context(), gochi.URLParam(r, "template"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.Header().Set("ETag", strconv.Quote(t.Checksum))
	writeJSON(w, http.StatusOK, publishedToResponse(t, true))
}

// DeletePublishedTemplate handles DELETE /v1/templates/{template}.
func (s *Server) DeletePublishedTemplate(w http.ResponseWriter, r *http.Request) {
	if err := s.render.Unpublish(r.Context(), gochi.URLParam(r, "template")); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func outputFormat(raw string) (string, error) {
	switch raw {
	case "", formatJSON:
		return formatJSON, nil
	case formatYAML:
		return formatYAML, nil
	default:
		return "", fmt.Errorf("%w: format must be %q or %q, got %q", domain.ErrInvalidRequest, formatJSON, formatYAML, raw)
	}
}

func (s *Server) writeRendered(w http.ResponseWriter, r *http.Request, format string, v any) {
	if format == formatJSON {
		writeJSON(w, http.StatusOK, v)
		return
	}
	if err := writeYAML(w, http.StatusOK, v); err != nil {
		logpkg.FromContextOr(r.Context(), s.logger).Error("yaml encode failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
	}
}
