package mapping

import (
	"strings"

	"github.com/kailas-cloud/estemplate/internal/domain/schema"
)

// DefaultDocType is the mapping type name used when none is given.
const DefaultDocType = "content"

// Template is an index template. Field order is the encoding order.
type Template struct {
	Template string                    `json:"template" yaml:"template"`
	Settings map[string]any            `json:"settings" yaml:"settings"`
	Aliases  map[string]map[string]any `json:"aliases" yaml:"aliases"`
	Mappings map[string]TypeMapping    `json:"mappings" yaml:"mappings"`
}

// TypeMapping is the mapping block for one document type.
type TypeMapping struct {
	Properties Mapping `json:"properties" yaml:"properties"`
}

type mappingConfig struct {
	timestamp bool
}

// MappingOption configures RenderMapping.
type MappingOption func(*mappingConfig)

// WithTimestamp prepends a dateOptionalTime "@timestamp" property. A document
// field of the same name is then rejected with ErrReservedField.
func WithTimestamp() MappingOption {
	return func(c *mappingConfig) { c.timestamp = true }
}

// RenderMapping renders every field doc resolves under role, in resolved order.
func (r *Renderer) RenderMapping(doc schema.FieldSource, role schema.Role, opts ...MappingOption) (Mapping, error) {
	var cfg mappingConfig
	for _, o := range opts {
		o(&cfg)
	}
	return r.walk(role).mapping(doc, cfg.timestamp)
}

type templateConfig struct {
	docType string
}

// TemplateOption configures RenderTemplate.
type TemplateOption func(*templateConfig)

// WithDocType sets the mapping type name (default "content").
func WithDocType(docType string) TemplateOption {
	return func(c *templateConfig) {
		if docType != "" {
			c.docType = docType
		}
	}
}

// TemplateName returns the index name pattern for title and role. Dashes in
// the role become underscores; the title is used as is.
func TemplateName(title string, role schema.Role) string {
	return title + "-template_" + strings.ReplaceAll(string(role), "-", "_") + "-*"
}

// RenderTemplate renders doc under role into an index template aliased to
// title. The mapping always carries the "@timestamp" property.
func (r *Renderer) RenderTemplate(
	doc schema.FieldSource, title string, role schema.Role, opts ...TemplateOption,
) (*Template, error) {
	cfg := templateConfig{docType: DefaultDocType}
	for _, o := range opts {
		o(&cfg)
	}

	props, err := r.RenderMapping(doc, role, WithTimestamp())
	if err != nil {
		return nil, err
	}

	return &Template{
		Template: TemplateName(title, role),
		Settings: map[string]any{},
		Aliases:  map[string]map[string]any{title: {}},
		Mappings: map[string]TypeMapping{cfg.docType: {Properties: props}},
	}, nil
}
