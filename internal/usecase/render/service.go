// Package render turns catalog documents into Elasticsearch mappings and
// index templates and manages published templates.
package render

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/estemplate/internal/domain"
	"github.com/kailas-cloud/estemplate/internal/domain/batch"
	"github.com/kailas-cloud/estemplate/internal/domain/mapping"
	"github.com/kailas-cloud/estemplate/internal/domain/schema"
	logpkg "github.com/kailas-cloud/estemplate/internal/logger"
	"github.com/kailas-cloud/estemplate/internal/metrics"
)

// Operation labels for render metrics.
const (
	OpMapping      = "mapping"
	OpTemplate     = "template"
	OpPublish      = "publish"
	OpPublishBatch = "publish_batch"
)

// MaxBatchRoles caps the roles accepted by PublishRoles.
const MaxBatchRoles = 100

// DocumentInfo describes a catalog document.
type DocumentInfo struct {
	Name  string
	Roles []schema.Role
}

// Service renders catalog documents.
type Service struct {
	catalog  Catalog
	renderer *mapping.Renderer
	repo     Repository
	docType  string
	now      func() time.Time
	logger   *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithDocType sets the mapping type used when a request does not name one.
func WithDocType(docType string) Option {
	return func(s *Service) {
		if docType != "" {
			s.docType = docType
		}
	}
}

// WithClock overrides the publication timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates a render service. repo can be nil, which disables publishing.
func New(catalog Catalog, renderer *mapping.Renderer, repo Repository, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		catalog:  catalog,
		renderer: renderer,
		repo:     repo,
		docType:  mapping.DefaultDocType,
		now:      time.Now,
		logger:   logger,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Documents lists catalog documents sorted by name.
func (s *Service) Documents() []DocumentInfo {
	names := s.catalog.Names()
	out := make([]DocumentInfo, 0, len(names))
	for _, name := range names {
		doc, err := s.catalog.Get(name)
		if err != nil {
			continue
		}
		out = append(out, DocumentInfo{Name: name, Roles: doc.Roles()})
	}
	return out
}

// Mapping renders the properties mapping of a document under role.
func (s *Service) Mapping(ctx context.Context, name, role string, timestamp bool) (mapping.Mapping, error) {
	if role == "" {
		return nil, fmt.Errorf("%w: role is required", domain.ErrInvalidRequest)
	}
	doc, err := s.catalog.Get(name)
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}

	var opts []mapping.MappingOption
	if timestamp {
		opts = append(opts, mapping.WithTimestamp())
	}

	start := time.Now()
	m, err := s.renderer.RenderMapping(doc, schema.Role(role), opts...)
	s.observe(ctx, OpMapping, name, role, start, err)
	if err != nil {
		return nil, fmt.Errorf("render mapping: %w", err)
	}
	return m, nil
}

// Template renders an index template for a document under role.
func (s *Service) Template(ctx context.Context, name, title, role, docType string) (*mapping.Template, error) {
	doc, docType, err := s.prepare(name, title, role, docType)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	t, err := s.renderer.RenderTemplate(doc, title, schema.Role(role), mapping.WithDocType(docType))
	s.observe(ctx, OpTemplate, name, role, start, err)
	if err != nil {
		return nil, fmt.Errorf("render template: %w", err)
	}
	return t, nil
}

// prepare validates template parameters and resolves the document and doc type.
func (s *Service) prepare(name, title, role, docType string) (*schema.Document, string, error) {
	if title == "" {
		return nil, "", fmt.Errorf("%w: title is required", domain.ErrInvalidRequest)
	}
	if role == "" {
		return nil, "", fmt.Errorf("%w: role is required", domain.ErrInvalidRequest)
	}
	doc, err := s.catalog.Get(name)
	if err != nil {
		return nil, "", fmt.Errorf("get document: %w", err)
	}
	if docType == "" {
		docType = s.docType
	}
	return doc, docType, nil
}

// Publish renders an index template and stores it under its template name.
// Republishing an identical body keeps the existing record.
func (s *Service) Publish(ctx context.Context, name, title, role, docType string) (domain.PublishedTemplate, error) {
	if s.repo == nil {
		return domain.PublishedTemplate{}, domain.ErrStoreDisabled
	}
	doc, docType, err := s.prepare(name, title, role, docType)
	if err != nil {
		return domain.PublishedTemplate{}, err
	}

	start := time.Now()
	pt, err := s.publish(ctx, doc, title, role, docType)
	s.observe(ctx, OpPublish, name, role, start, err)
	return pt, err
}

func (s *Service) publish(
	ctx context.Context, doc *schema.Document, title, role, docType string,
) (domain.PublishedTemplate, error) {
	pt, changed, err := s.record(ctx, doc, title, role, docType)
	if err != nil {
		return domain.PublishedTemplate{}, err
	}
	if !changed {
		logpkg.FromContextOr(ctx, s.logger).Debug("Template unchanged", zap.String("template", pt.Name))
		return pt, nil
	}
	if err := s.repo.Save(ctx, pt); err != nil {
		return domain.PublishedTemplate{}, fmt.Errorf("save template: %w", err)
	}
	logpkg.FromContextOr(ctx, s.logger).Info("Template published",
		zap.String("template", pt.Name),
		zap.String("document", pt.Document),
		zap.String("role", role),
		zap.String("checksum", pt.Checksum),
	)
	return pt, nil
}

// record renders a template and compares it with the stored one. When the
// stored body matches, the stored record is returned and changed is false.
func (s *Service) record(
	ctx context.Context, doc *schema.Document, title, role, docType string,
) (pt domain.PublishedTemplate, changed bool, err error) {
	t, err := s.renderer.RenderTemplate(doc, title, schema.Role(role), mapping.WithDocType(docType))
	if err != nil {
		return domain.PublishedTemplate{}, false, fmt.Errorf("render template: %w", err)
	}
	body, err := json.Marshal(t)
	if err != nil {
		return domain.PublishedTemplate{}, false, fmt.Errorf("encode template: %w", err)
	}
	sum := checksum(body)

	existing, err := s.repo.Get(ctx, t.Template)
	switch {
	case err == nil && existing.Checksum == sum:
		return existing, false, nil
	case err != nil && !errors.Is(err, domain.ErrNotFound):
		return domain.PublishedTemplate{}, false, fmt.Errorf("get published template: %w", err)
	}

	return domain.PublishedTemplate{
		Name:        t.Template,
		Document:    doc.Name(),
		Title:       title,
		Role:        role,
		DocType:     docType,
		Checksum:    sum,
		PublishedAt: s.now().UTC(),
		Body:        body,
	}, true, nil
}

// PublishRoles publishes a document under several roles. Without roles it
// uses every role the document declares. Changed templates are written in one
// batch; each role gets its own result.
func (s *Service) PublishRoles(
	ctx context.Context, name, title string, roles []string, docType string,
) ([]batch.Result, error) {
	if s.repo == nil {
		return nil, domain.ErrStoreDisabled
	}
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", domain.ErrInvalidRequest)
	}
	doc, err := s.catalog.Get(name)
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	roles, err = batchRoles(doc, roles)
	if err != nil {
		return nil, err
	}
	if docType == "" {
		docType = s.docType
	}

	start := time.Now()
	results := make([]batch.Result, len(roles))
	var (
		pending []domain.PublishedTemplate
		slots   []int
	)
	for i, role := range roles {
		pt, changed, err := s.record(ctx, doc, title, role, docType)
		switch {
		case err != nil:
			results[i] = batch.NewError(role, err)
		case !changed:
			results[i] = batch.NewUnchanged(role, pt)
		default:
			pending = append(pending, pt)
			slots = append(slots, i)
		}
	}

	saveErr := s.repo.SaveMulti(ctx, pending)
	for j, i := range slots {
		if saveErr != nil {
			results[i] = batch.NewError(roles[i], fmt.Errorf("save template: %w", saveErr))
			continue
		}
		results[i] = batch.NewPublished(roles[i], pending[j])
	}

	var errs []error
	for _, r := range results {
		if r.Err() != nil {
			errs = append(errs, fmt.Errorf("role %q: %w", r.Role(), r.Err()))
		}
	}
	s.observe(ctx, OpPublishBatch, name, strings.Join(roles, ","), start, errors.Join(errs...))
	logpkg.FromContextOr(ctx, s.logger).Info("Templates published",
		zap.String("document", name),
		zap.Int("roles", len(roles)),
		zap.Int("written", len(pending)),
		zap.Int("failed", len(errs)),
	)
	return results, nil
}

// batchRoles validates the requested roles or falls back to the declared ones.
func batchRoles(doc *schema.Document, roles []string) ([]string, error) {
	if len(roles) == 0 {
		for _, r := range doc.Roles() {
			roles = append(roles, string(r))
		}
	}
	if len(roles) == 0 {
		return nil, fmt.Errorf("%w: roles are required for document %q without declared roles",
			domain.ErrInvalidRequest, doc.Name())
	}
	if len(roles) > MaxBatchRoles {
		return nil, fmt.Errorf("%w: at most %d roles per batch", domain.ErrInvalidRequest, MaxBatchRoles)
	}
	// Keyed by template name: roles differing only in '-' and '_' share one.
	seen := make(map[string]string, len(roles))
	for _, r := range roles {
		if r == "" {
			return nil, fmt.Errorf("%w: empty role", domain.ErrInvalidRequest)
		}
		key := mapping.TemplateName(doc.Name(), schema.Role(r))
		if prev, dup := seen[key]; dup {
			if prev == r {
				return nil, fmt.Errorf("%w: duplicate role %q", domain.ErrInvalidRequest, r)
			}
			return nil, fmt.Errorf("%w: roles %q and %q map to the same template name",
				domain.ErrInvalidRequest, prev, r)
		}
		seen[key] = r
	}
	return roles, nil
}

// Published returns a stored template by template name.
func (s *Service) Published(ctx context.Context, templateName string) (domain.PublishedTemplate, error) {
	if s.repo == nil {
		return domain.PublishedTemplate{}, domain.ErrStoreDisabled
	}
	t, err := s.repo.Get(ctx, templateName)
	if err != nil {
		return domain.PublishedTemplate{}, fmt.Errorf("get published template: %w", err)
	}
	return t, nil
}

// ListPublished returns all stored templates sorted by name.
func (s *Service) ListPublished(ctx context.Context) ([]domain.PublishedTemplate, error) {
	if s.repo == nil {
		return nil, domain.ErrStoreDisabled
	}
	ts, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list published templates: %w", err)
	}
	return ts, nil
}

// Unpublish removes a stored template.
func (s *Service) Unpublish(ctx context.Context, templateName string) error {
	if s.repo == nil {
		return domain.ErrStoreDisabled
	}
	if err := s.repo.Delete(ctx, templateName); err != nil {
		return fmt.Errorf("delete published template: %w", err)
	}
	logpkg.FromContextOr(ctx, s.logger).Info("Template unpublished", zap.String("template", templateName))
	return nil
}

func (s *Service) observe(ctx context.Context, op, name, role string, start time.Time, err error) {
	metrics.RenderDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.RenderTotal.WithLabelValues(op, metrics.StatusError).Inc()
		logpkg.FromContextOr(ctx, s.logger).Warn("Render failed",
			zap.String("operation", op),
			zap.String("document", name),
			zap.String("role", role),
			zap.Error(err),
		)
		return
	}
	metrics.RenderTotal.WithLabelValues(op, metrics.StatusOK).Inc()
}

func checksum(body []byte) string {
	h := sha256.Sum256(body)
	return hex.EncodeToString(h[:])
}
