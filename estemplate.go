// Package estemplate renders role-versioned document schemas into
// Elasticsearch index mappings and index templates.
//
// Documents are declared in Go (NewDocument, DocumentFor) or loaded from
// YAML (LoadCatalog) and rendered by an immutable Renderer. Default covers
// every built-in field kind; NewBuilder registers custom rules.
package estemplate

import (
	"github.com/kailas-cloud/estemplate/internal/catalog"
	"github.com/kailas-cloud/estemplate/internal/domain"
	"github.com/kailas-cloud/estemplate/internal/domain/mapping"
	"github.com/kailas-cloud/estemplate/internal/domain/schema"
)

// Schema model.
type (
	Role           = schema.Role
	Kind           = schema.Kind
	Field          = schema.Field
	Properties     = schema.Properties
	Matcher        = schema.Matcher
	Document       = schema.Document
	DocumentOption = schema.DocumentOption
	FieldSource    = schema.FieldSource
	ResolvedField  = schema.ResolvedField
	Scope          = schema.Scope
	ArrayField     = schema.ArrayField
	DictField      = schema.DictField
	DocumentField  = schema.DocumentField
)

// Var is a role-varying value; see Fixed.
type Var[T any] = schema.Var[T]

// Fixed returns a Var resolving to v under every role.
func Fixed[T any](v T) Var[T] { return schema.Fixed(v) }

// Rendering.
type (
	Renderer        = mapping.Renderer
	Builder         = mapping.Builder
	RenderFunc      = mapping.RenderFunc
	Walk            = mapping.Walk
	Property        = mapping.Property
	Mapping         = mapping.Mapping
	Template        = mapping.Template
	TypeMapping     = mapping.TypeMapping
	MappingOption   = mapping.MappingOption
	TemplateOption  = mapping.TemplateOption
	Catalog         = catalog.Catalog
	ReservedField   = mapping.ReservedFieldError
	RecursiveDoc    = mapping.RecursiveDocumentError
	UnsupportedType = mapping.UnsupportedFieldTypeError
)

// Field kinds.
const (
	KindString   = schema.KindString
	KindText     = schema.KindText
	KindInteger  = schema.KindInteger
	KindNumber   = schema.KindNumber
	KindBoolean  = schema.KindBoolean
	KindDateTime = schema.KindDateTime
	KindArray    = schema.KindArray
	KindDict     = schema.KindDict
	KindDocument = schema.KindDocument
)

// Errors.
var (
	ErrNotFound             = domain.ErrNotFound
	ErrInvalidSchema        = domain.ErrInvalidSchema
	ErrUnknownRole          = schema.ErrUnknownRole
	ErrDuplicateField       = schema.ErrDuplicateField
	ErrUnresolvedAttribute  = schema.ErrUnresolvedAttribute
	ErrUnsupportedFieldType = mapping.ErrUnsupportedFieldType
	ErrIncompleteRegistry   = mapping.ErrIncompleteRegistry
	ErrMalformedField       = mapping.ErrMalformedField
	ErrRecursiveDocument    = mapping.ErrRecursiveDocument
	ErrReservedField        = mapping.ErrReservedField
)

const (
	DefaultRole    = schema.DefaultRole
	DefaultDocType = mapping.DefaultDocType
	TimestampField = mapping.TimestampField
)

// Schema constructors.
var (
	NewDocument = schema.NewDocument
	WithRoles   = schema.WithRoles
	Exact       = schema.Exact
	Not         = schema.Not
	AllRoles    = schema.AllRoles
	String      = schema.String
	Text        = schema.Text
	Integer     = schema.Integer
	Number      = schema.Number
	Boolean     = schema.Boolean
	DateTime    = schema.DateTime
	Scalar      = schema.Scalar
	Array       = schema.Array
	Dict        = schema.Dict
	DictVar     = schema.DictVar
	Ref         = schema.Ref
	ParseKind   = schema.ParseKind
)

// Render options.
var (
	WithTimestamp = mapping.WithTimestamp
	WithDocType   = mapping.WithDocType
	TemplateName  = mapping.TemplateName
)

// Default returns the shared renderer with every built-in rule.
func Default() *Renderer { return mapping.Default() }

// NewBuilder starts an empty renderer registry.
func NewBuilder() *Builder { return mapping.NewBuilder() }

// DefaultBuilder starts a registry pre-filled with the built-in rules.
func DefaultBuilder() *Builder { return mapping.DefaultBuilder() }

// NewProperty starts a property of the given index type for custom rules.
func NewProperty(indexType string) Property { return mapping.NewProperty(indexType) }

// RenderTemplate renders doc with the default renderer.
func RenderTemplate(doc FieldSource, title string, role Role, opts ...TemplateOption) (*Template, error) {
	return mapping.Default().RenderTemplate(doc, title, role, opts...)
}

// RenderMapping renders the properties of doc with the default renderer.
func RenderMapping(doc FieldSource, role Role, opts ...MappingOption) (Mapping, error) {
	return mapping.Default().RenderMapping(doc, role, opts...)
}

// RenderProperty renders a single field with the default renderer.
func RenderProperty(f Field, role Role) (Property, error) {
	return mapping.Default().RenderProperty(f, role)
}

// NewCatalog builds a catalog from documents declared in Go.
func NewCatalog(docs ...*Document) (*Catalog, error) { return catalog.New(docs...) }

// LoadCatalog reads YAML schema files or directories.
func LoadCatalog(paths ...string) (*Catalog, error) { return catalog.Load(paths...) }

// ParseCatalog builds a catalog from in-memory YAML schema files.
func ParseCatalog(files ...[]byte) (*Catalog, error) { return catalog.Parse(files...) }
