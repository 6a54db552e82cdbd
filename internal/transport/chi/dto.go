package chi

import (
	"encoding/json"
	"time"

	"github.com/kailas-cloud/estemplate/internal/domain"
	"github.com/kailas-cloud/estemplate/internal/domain/batch"
	renderuc "github.com/kailas-cloud/estemplate/internal/usecase/render"
)

// ErrorCode is a machine-readable error class.
type ErrorCode string

// Error codes returned in ErrorResponse.
const (
	ErrorCodeBadRequest    ErrorCode = "bad_request"
	ErrorCodeUnauthorized  ErrorCode = "unauthorized"
	ErrorCodeUnknownRole   ErrorCode = "unknown_role"
	ErrorCodeNotFound      ErrorCode = "not_found"
	ErrorCodeInvalidSchema ErrorCode = "invalid_schema"
	ErrorCodeStoreDisabled ErrorCode = "store_disabled"
	ErrorCodeInternalError ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks"`
}

// DocumentResponse describes a catalog document.
type DocumentResponse struct {
	Name  string   `json:"name"`
	Roles []string `json:"roles"`
}

// PublishRequest is the body of POST /v1/documents/{name}/templates.
type PublishRequest struct {
	Title   string `json:"title"`
	Role    string `json:"role"`
	DocType string `json:"doc_type,omitempty"`
}

// BatchPublishRequest is the body of POST /v1/documents/{name}/templates/batch.
// Without roles every role the document declares is published.
type BatchPublishRequest struct {
	Title   string   `json:"title"`
	Roles   []string `json:"roles,omitempty"`
	DocType string   `json:"doc_type,omitempty"`
}

// BatchResultItem is the outcome for one role.
type BatchResultItem struct {
	Role     string                     `json:"role"`
	Status   string                     `json:"status"`
	Template *PublishedTemplateResponse `json:"template,omitempty"`
	Error    *ErrorResponse             `json:"error,omitempty"`
}

// BatchPublishResponse lists per-role outcomes.
type BatchPublishResponse struct {
	Items     []BatchResultItem `json:"items"`
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
}

// PublishedTemplateResponse describes a stored template.
type PublishedTemplateResponse struct {
	Name        string          `json:"name"`
	Document    string          `json:"document"`
	Title       string          `json:"title"`
	Role        string          `json:"role"`
	DocType     string          `json:"doc_type"`
	Checksum    string          `json:"checksum"`
	PublishedAt time.Time       `json:"published_at"`
	Template    json.RawMessage `json:"template,omitempty"`
}

// ListResponse wraps collection results.
type ListResponse[T any] struct {
	Items []T `json:"items"`
}

func documentToResponse(d renderuc.DocumentInfo) DocumentResponse {
	roles := make([]string, len(d.Roles))
	for i, r := range d.Roles {
		roles[i] = string(r)
	}
	return DocumentResponse{Name: d.Name, Roles: roles}
}

// publishedToResponse converts a stored template. The body is omitted in listings.
func publishedToResponse(t domain.PublishedTemplate, withBody bool) PublishedTemplateResponse {
	resp := PublishedTemplateResponse{
		Name:        t.Name,
		Document:    t.Document,
		Title:       t.Title,
		Role:        t.Role,
		DocType:     t.DocType,
		Checksum:    t.Checksum,
		PublishedAt: t.PublishedAt,
	}
	if withBody {
		resp.Template = t.Body
	}
	return resp
}

func batchResultToResponse(r batch.Result) BatchResultItem {
	item := BatchResultItem{
		Role:   r.Role(),
		Status: string(r.Status()),
	}
	if r.Err() != nil {
		code := batchErrorCode(r.Err())
		msg := r.Err().Error()
		if code == ErrorCodeInternalError {
			msg = "internal error"
		}
		item.Error = &ErrorResponse{Code: code, Message: msg}
		return item
	}
	tpl := publishedToResponse(r.Template(), false)
	item.Template = &tpl
	return item
}
