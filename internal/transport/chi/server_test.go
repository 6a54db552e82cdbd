package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/estemplate/internal/catalog"
	"github.com/kailas-cloud/estemplate/internal/db"
	"github.com/kailas-cloud/estemplate/internal/domain"
	"github.com/kailas-cloud/estemplate/internal/domain/batch"
	"github.com/kailas-cloud/estemplate/internal/domain/mapping"
	"github.com/kailas-cloud/estemplate/internal/domain/schema"
	"github.com/kailas-cloud/estemplate/internal/metrics"
	"github.com/kailas-cloud/estemplate/internal/repository/templatestore"
	healthuc "github.com/kailas-cloud/estemplate/internal/usecase/health"
	renderuc "github.com/kailas-cloud/estemplate/internal/usecase/render"
)

const testSchema = `
documents:
  - name: primitive_fields
    fields:
      - {name: single_str, type: string}
      - {name: text_data, type: text}
  - name: versioned
    roles: [v1-0-0, v2-0-0]
    fields:
      - {name: score, roles: [v1-0-0], type: number}
      - {name: score, roles: [v2-0-0], type: integer}
  - name: node
    fields:
      - {name: child, type: document, ref: node}
`

// memKV is an in-memory key-value store for the template repository.
type memKV struct {
	data map[string][]byte
}

func (m *memKV) Ping(context.Context) error { return nil }

func (m *memKV) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *memKV) Set(_ context.Context, key string, value []byte) error {
	m.data[key] = value
	return nil
}

func (m *memKV) SetMulti(_ context.Context, items []db.SetItem) error {
	for _, it := range items {
		m.data[it.Key] = it.Value
	}
	return nil
}

func (m *memKV) Del(_ context.Context, key string) error {
	if _, ok := m.data[key]; !ok {
		return db.ErrKeyNotFound
	}
	delete(m.data, key)
	return nil
}

func (m *memKV) Scan(_ context.Context, pattern string) ([]string, error) {
	var keys []string
	for k := range m.data {
		if ok, _ := path.Match(pattern, k); ok {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func newTestRouter(t *testing.T, withStore bool, apiKeys ...string) http.Handler {
	t.Helper()
	metrics.RegisterRenderMetrics()

	cat, err := catalog.Parse([]byte(testSchema))
	if err != nil {
		t.Fatalf("parse schema: %v", err)
	}

	var repo renderuc.Repository
	var pinger healthuc.DBPinger
	if withStore {
		kv := &memKV{data: map[string][]byte{}}
		repo = templatestore.New(kv, "test:", nil, zap.NewNop())
		pinger = kv
	}

	renderSvc := renderuc.New(cat, mapping.Default(), repo, zap.NewNop(),
		renderuc.WithClock(func() time.Time { return time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC) }))
	healthSvc := healthuc.New(pinger, cat)

	return NewRouter(NewServer(renderSvc, healthSvc, zap.NewNop()), apiKeys)
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, http.NoBody)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var e ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&e); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	return e
}

func TestHealth(t *testing.T) {
	h := newTestRouter(t, true)

	rr := do(t, h, "GET", "/health", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body)
	}
	var resp HealthResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != "ok" || resp.Checks["database"] != "ok" || resp.Checks["catalog"] != "ok" {
		t.Errorf("unexpected health: %+v", resp)
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestRouter(t, false)
	_ = do(t, h, "GET", "/v1/documents", "")

	rr := do(t, h, "GET", "/metrics", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "estemplate_http_requests_total") {
		t.Error("expected estemplate_http_requests_total in metrics output")
	}
}

func TestListDocuments(t *testing.T) {
	h := newTestRouter(t, false)

	rr := do(t, h, "GET", "/v1/documents", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var resp ListResponse[DocumentResponse]
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Items) != 3 || resp.Items[2].Name != "versioned" {
		t.Fatalf("unexpected documents: %+v", resp.Items)
	}
	if strings.Join(resp.Items[2].Roles, ",") != "v1-0-0,v2-0-0" {
		t.Errorf("unexpected roles: %v", resp.Items[2].Roles)
	}
}

func TestGetMapping(t *testing.T) {
	h := newTestRouter(t, false)

	rr := do(t, h, "GET", "/v1/documents/versioned/mapping?role=v1-0-0&timestamp=true", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body)
	}
	want := `{"properties":{"@timestamp":{"type":"date","format":"dateOptionalTime"},"score":{"type":"float"}}}`
	if got := strings.TrimSpace(rr.Body.String()); got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestGetMapping_Errors(t *testing.T) {
	h := newTestRouter(t, false)

	tests := []struct {
		name   string
		target string
		status int
		code   ErrorCode
	}{
		{"missing role", "/v1/documents/versioned/mapping", http.StatusBadRequest, ErrorCodeBadRequest},
		{"unknown role", "/v1/documents/versioned/mapping?role=v9", http.StatusBadRequest, ErrorCodeUnknownRole},
		{"unknown document", "/v1/documents/nope/mapping?role=v1", http.StatusNotFound, ErrorCodeNotFound},
		{"bad timestamp", "/v1/documents/versioned/mapping?role=v1-0-0&timestamp=maybe",
			http.StatusBadRequest, ErrorCodeBadRequest},
		{"bad format", "/v1/documents/versioned/mapping?role=v1-0-0&format=xml",
			http.StatusBadRequest, ErrorCodeBadRequest},
		{"recursive document", "/v1/documents/node/mapping?role=v1",
			http.StatusUnprocessableEntity, ErrorCodeInvalidSchema},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, h, "GET", tt.target, "")
			if rr.Code != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, rr.Code, rr.Body)
			}
			if e := decodeError(t, rr); e.Code != tt.code {
				t.Errorf("expected code %s, got %s", tt.code, e.Code)
			}
		})
	}
}

func TestGetTemplate_JSON(t *testing.T) {
	h := newTestRouter(t, false)

	rr := do(t, h, "GET", "/v1/documents/primitive_fields/template?title=logs&role=v1-0-0&doc_type=event", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body)
	}
	want := `{"template":"logs-template_v1_0_0-*","settings":{},"aliases":{"logs":{}},` +
		`"mappings":{"event":{"properties":{` +
		`"@timestamp":{"type":"date","format":"dateOptionalTime"},` +
		`"single_str":{"type":"string","index":"not_analyzed"},` +
		`"text_data":{"type":"string"}}}}}`
	if got := strings.TrimSpace(rr.Body.String()); got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestGetTemplate_YAML(t *testing.T) {
	h := newTestRouter(t, false)

	rr := do(t, h, "GET", "/v1/documents/primitive_fields/template?title=logs&role=v1&format=yaml", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/yaml" {
		t.Errorf("unexpected content type %q", ct)
	}

	var doc struct {
		Template string `yaml:"template"`
	}
	if err := yaml.Unmarshal(rr.Body.Bytes(), &doc); err != nil {
		t.Fatalf("invalid yaml: %v", err)
	}
	if doc.Template != "logs-template_v1-*" {
		t.Errorf("unexpected template %q", doc.Template)
	}
	body := rr.Body.String()
	if strings.Index(body, "@timestamp") > strings.Index(body, "single_str") {
		t.Errorf("expected @timestamp before single_str:\n%s", body)
	}
}

func TestGetTemplate_MissingTitle(t *testing.T) {
	h := newTestRouter(t, false)

	rr := do(t, h, "GET", "/v1/documents/primitive_fields/template?role=v1", "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestPublishedTemplateLifecycle(t *testing.T) {
	h := newTestRouter(t, true)

	rr := do(t, h, "POST", "/v1/documents/versioned/templates", `{"title":"metrics","role":"v2-0-0"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("publish: expected 201, got %d: %s", rr.Code, rr.Body)
	}
	var created PublishedTemplateResponse
	if err := json.NewDecoder(rr.Body).Decode(&created); err != nil {
		t.Fatal(err)
	}
	if created.Name != "metrics-template_v2_0_0-*" || created.Document != "versioned" {
		t.Fatalf("unexpected publish response: %+v", created)
	}
	if !strings.Contains(string(created.Template), `"score":{"type":"integer"}`) {
		t.Errorf("unexpected template body: %s", created.Template)
	}
	if loc := rr.Header().Get("Location"); loc != "/v1/templates/"+created.Name {
		t.Errorf("unexpected Location %q", loc)
	}

	rr = do(t, h, "GET", "/v1/templates", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", rr.Code)
	}
	var list ListResponse[PublishedTemplateResponse]
	if err := json.NewDecoder(rr.Body).Decode(&list); err != nil {
		t.Fatal(err)
	}
	if len(list.Items) != 1 || list.Items[0].Template != nil {
		t.Fatalf("expected one item without body, got %+v", list.Items)
	}

	rr = do(t, h, "GET", "/v1/templates/"+created.Name, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", rr.Code)
	}
	if etag := rr.Header().Get("ETag"); etag != `"`+created.Checksum+`"` {
		t.Errorf("unexpected ETag %q", etag)
	}

	rr = do(t, h, "DELETE", "/v1/templates/"+created.Name, "")
	if rr.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", rr.Code)
	}
	rr = do(t, h, "GET", "/v1/templates/"+created.Name, "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("get after delete: expected 404, got %d", rr.Code)
	}
}

func TestPublish_Errors(t *testing.T) {
	h := newTestRouter(t, true)

	tests := []struct {
		name   string
		target string
		body   string
		status int
	}{
		{"malformed body", "/v1/documents/versioned/templates", `{`, http.StatusBadRequest},
		{"missing title", "/v1/documents/versioned/templates", `{"role":"v1-0-0"}`, http.StatusBadRequest},
		{"unknown document", "/v1/documents/nope/templates", `{"title":"t","role":"v1"}`, http.StatusNotFound},
		{"unknown role", "/v1/documents/versioned/templates", `{"title":"t","role":"v3"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, h, "POST", tt.target, tt.body)
			if rr.Code != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, rr.Code, rr.Body)
			}
		})
	}
}

func TestPublishTemplates_Batch(t *testing.T) {
	h := newTestRouter(t, true)

	rr := do(t, h, "POST", "/v1/documents/versioned/templates/batch",
		`{"title":"metrics","roles":["v1-0-0","v2-0-0","v3-0-0"]}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body)
	}
	var resp BatchPublishResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Succeeded != 2 || resp.Failed != 1 || len(resp.Items) != 3 {
		t.Fatalf("unexpected counts: %+v", resp)
	}
	if it := resp.Items[0]; it.Status != "published" || it.Template == nil ||
		it.Template.Name != "metrics-template_v1_0_0-*" || it.Template.Template != nil {
		t.Errorf("v1-0-0: unexpected item %+v", it)
	}
	if it := resp.Items[2]; it.Status != "error" || it.Error == nil || it.Error.Code != ErrorCodeUnknownRole {
		t.Errorf("v3-0-0: unexpected item %+v", it)
	}

	// Declared roles are used when none are given; both are already stored.
	rr = do(t, h, "POST", "/v1/documents/versioned/templates/batch", `{"title":"metrics"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body)
	}
	resp = BatchPublishResponse{}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	for _, it := range resp.Items {
		if it.Status != "unchanged" {
			t.Errorf("role %s: status %s, want unchanged", it.Role, it.Status)
		}
	}

	rr = do(t, h, "GET", "/v1/templates", "")
	var list ListResponse[PublishedTemplateResponse]
	if err := json.NewDecoder(rr.Body).Decode(&list); err != nil {
		t.Fatal(err)
	}
	if len(list.Items) != 2 {
		t.Errorf("expected 2 stored templates, got %d", len(list.Items))
	}
}

func TestPublishTemplates_Errors(t *testing.T) {
	h := newTestRouter(t, true)

	tests := []struct {
		name   string
		target string
		body   string
		status int
	}{
		{"malformed body", "/v1/documents/versioned/templates/batch", `[`, http.StatusBadRequest},
		{"missing title", "/v1/documents/versioned/templates/batch", `{}`, http.StatusBadRequest},
		{"no declared roles", "/v1/documents/primitive_fields/templates/batch", `{"title":"t"}`, http.StatusBadRequest},
		{"duplicate roles", "/v1/documents/versioned/templates/batch",
			`{"title":"t","roles":["v1-0-0","v1-0-0"]}`, http.StatusBadRequest},
		{"unknown document", "/v1/documents/nope/templates/batch", `{"title":"t"}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, h, "POST", tt.target, tt.body)
			if rr.Code != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, rr.Code, rr.Body)
			}
		})
	}
}

func TestBatchErrorCode(t *testing.T) {
	tests := []struct {
		err  error
		want ErrorCode
	}{
		{domain.ErrNotFound, ErrorCodeNotFound},
		{fmt.Errorf("wrap: %w", domain.ErrInvalidRequest), ErrorCodeBadRequest},
		{schema.ErrUnknownRole, ErrorCodeUnknownRole},
		{mapping.ErrRecursiveDocument, ErrorCodeInvalidSchema},
		{mapping.ErrReservedField, ErrorCodeInvalidSchema},
		{errors.New("boom"), ErrorCodeInternalError},
	}
	for _, tt := range tests {
		if got := batchErrorCode(tt.err); got != tt.want {
			t.Errorf("batchErrorCode(%v) = %s, want %s", tt.err, got, tt.want)
		}
	}
}

func TestBatchResultToResponse_HidesInternalErrors(t *testing.T) {
	item := batchResultToResponse(batch.NewError("v1", errors.New("dial tcp 10.0.0.1:6379: refused")))
	if item.Error == nil || item.Error.Code != ErrorCodeInternalError || item.Error.Message != "internal error" {
		t.Errorf("unexpected item %+v", item)
	}
	if item.Template != nil {
		t.Error("failed item must not carry a template")
	}
}

func TestStoreDisabled(t *testing.T) {
	h := newTestRouter(t, false)

	for _, req := range []struct{ method, target, body string }{
		{"POST", "/v1/documents/versioned/templates", `{"title":"t","role":"v1-0-0"}`},
		{"POST", "/v1/documents/versioned/templates/batch", `{"title":"t"}`},
		{"GET", "/v1/templates", ""},
		{"GET", "/v1/templates/x", ""},
		{"DELETE", "/v1/templates/x", ""},
	} {
		rr := do(t, h, req.method, req.target, req.body)
		if rr.Code != http.StatusNotImplemented {
			t.Errorf("%s %s: expected 501, got %d", req.method, req.target, rr.Code)
			continue
		}
		if e := decodeError(t, rr); e.Code != ErrorCodeStoreDisabled {
			t.Errorf("%s %s: expected code %s, got %s", req.method, req.target, ErrorCodeStoreDisabled, e.Code)
		}
	}
}

func TestRouter_AuthAndNotFound(t *testing.T) {
	h := newTestRouter(t, false, "secret")

	if rr := do(t, h, "GET", "/v1/documents", ""); rr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", rr.Code)
	}
	if rr := do(t, h, "GET", "/health", ""); rr.Code != http.StatusOK {
		t.Errorf("expected health to bypass auth, got %d", rr.Code)
	}

	req := httptest.NewRequest("GET", "/v2/unknown", http.NoBody)
	req.Header.Set("Authorization", "Bearer secret")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown route, got %d", rr.Code)
	}
}

func TestJSONRecoverer(t *testing.T) {
	h := JSONRecoverer(zap.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/", http.NoBody))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	if e := decodeError(t, rr); e.Code != ErrorCodeInternalError {
		t.Errorf("unexpected code %s", e.Code)
	}
}
