package sdk

import (
	"context"
	"time"

	"github.com/kailas-cloud/estemplate/internal/domain"
	"github.com/kailas-cloud/estemplate/internal/domain/batch"
	"github.com/kailas-cloud/estemplate/internal/domain/mapping"
	renderuc "github.com/kailas-cloud/estemplate/internal/usecase/render"
)

type (
	// DocumentInfo names a catalog document and its declared roles.
	DocumentInfo = renderuc.DocumentInfo
	// PublishedTemplate is a stored rendering of a template.
	PublishedTemplate = domain.PublishedTemplate
	// Mapping is an ordered set of index properties.
	Mapping = mapping.Mapping
	// Template is a rendered index template.
	Template = mapping.Template
	// RoleResult is the outcome of publishing one role in PublishRoles.
	RoleResult = batch.Result
)

// Per-role publishing outcomes.
const (
	StatusPublished = batch.StatusPublished
	StatusUnchanged = batch.StatusUnchanged
	StatusError     = batch.StatusError
)

// CallOption adjusts a single render call.
type CallOption func(*callConfig)

type callConfig struct {
	timestamp bool
	docType   string
}

// Timestamp adds the "@timestamp" property to a bare mapping.
func Timestamp() CallOption {
	return func(c *callConfig) { c.timestamp = true }
}

// DocType overrides the client's mapping type name for one template.
func DocType(name string) CallOption {
	return func(c *callConfig) { c.docType = name }
}

func applyCallOptions(opts []CallOption) callConfig {
	var cfg callConfig
	for _, o := range opts {
		o(&cfg)
	}
	return cfg
}

// Documents lists the catalog documents sorted by name.
func (c *Client) Documents() []DocumentInfo {
	return c.renderSvc.Documents()
}

// Mapping renders the properties of a catalog document under role.
func (c *Client) Mapping(ctx context.Context, document, role string, opts ...CallOption) (m Mapping, err error) {
	start := time.Now()
	defer func() { c.obs.observe("mapping", start, err) }()

	cfg := applyCallOptions(opts)
	return c.renderSvc.Mapping(ctx, document, role, cfg.timestamp)
}

// Template renders a catalog document into an index template aliased to title.
func (c *Client) Template(ctx context.Context, document, title, role string, opts ...CallOption) (t *Template, err error) {
	start := time.Now()
	defer func() { c.obs.observe("template", start, err) }()

	cfg := applyCallOptions(opts)
	return c.renderSvc.Template(ctx, document, title, role, cfg.docType)
}

// Publish renders a template and stores it under its index name pattern.
// Republishing an unchanged template keeps the stored record.
func (c *Client) Publish(
	ctx context.Context, document, title, role string, opts ...CallOption,
) (rec PublishedTemplate, err error) {
	start := time.Now()
	defer func() { c.obs.observe("publish", start, err) }()

	cfg := applyCallOptions(opts)
	return c.renderSvc.Publish(ctx, document, title, role, cfg.docType)
}

// PublishRoles publishes a document under several roles, or under every
// declared role when roles is empty. Failures are reported per role; the
// returned error covers the request as a whole.
func (c *Client) PublishRoles(
	ctx context.Context, document, title string, roles []string, opts ...CallOption,
) (results []RoleResult, err error) {
	start := time.Now()
	defer func() { c.obs.observe("publish_roles", start, err) }()

	cfg := applyCallOptions(opts)
	return c.renderSvc.PublishRoles(ctx, document, title, roles, cfg.docType)
}

// Published returns a stored template by its name.
func (c *Client) Published(ctx context.Context, name string) (rec PublishedTemplate, err error) {
	start := time.Now()
	defer func() { c.obs.observe("published", start, err) }()

	return c.renderSvc.Published(ctx, name)
}

// ListPublished returns every stored template sorted by name.
func (c *Client) ListPublished(ctx context.Context) (recs []PublishedTemplate, err error) {
	start := time.Now()
	defer func() { c.obs.observe("list_published", start, err) }()

	return c.renderSvc.ListPublished(ctx)
}

// Unpublish deletes a stored template.
func (c *Client) Unpublish(ctx context.Context, name string) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("unpublish", start, err) }()

	return c.renderSvc.Unpublish(ctx, name)
}
