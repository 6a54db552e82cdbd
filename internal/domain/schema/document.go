package schema

import (
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrUnknownRole signals a role the document does not declare.
	ErrUnknownRole = errors.New("unknown role")
	// ErrDuplicateField signals two fields resolving to the same name under one role.
	ErrDuplicateField = errors.New("duplicate field")
	// ErrUnresolvedAttribute signals a role-varying attribute with no value for the role.
	ErrUnresolvedAttribute = errors.New("unresolved attribute")
)

// ResolvedField is a field as it applies under a specific role.
type ResolvedField struct {
	Name  string
	Field Field
}

// FieldSource is the read side of a document: the fields applicable under a
// role, in declaration order.
type FieldSource interface {
	Name() string
	ResolveAndIterFields(role Role) ([]ResolvedField, error)
}

type declaration struct {
	name  string
	scope Matcher
	field Var[Field]
}

// Document is a named set of field declarations. Declarations are made during
// setup; once rendering starts a Document must not be modified.
type Document struct {
	name  string
	roles []Role
	decls []declaration
}

var _ FieldSource = (*Document)(nil)

// DocumentOption configures a Document.
type DocumentOption func(*Document)

// WithRoles restricts the document to the given roles. Resolving fields for
// any other role fails with ErrUnknownRole.
func WithRoles(roles ...Role) DocumentOption {
	return func(d *Document) {
		d.roles = append(d.roles, roles...)
	}
}

// NewDocument creates an empty document.
func NewDocument(name string, opts ...DocumentOption) *Document {
	d := &Document{name: name}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Name returns the document name.
func (d *Document) Name() string { return d.name }

// Roles returns the declared roles, or nil if any role is accepted.
func (d *Document) Roles() []Role { return slices.Clone(d.roles) }

// Declare adds a field present under every role.
func (d *Document) Declare(name string, f Field) *Document {
	return d.DeclareVar(name, Fixed(f))
}

// DeclareVar adds a field whose type varies by role. Roles the Var does not
// resolve for simply omit the field.
func (d *Document) DeclareVar(name string, v Var[Field]) *Document {
	d.decls = append(d.decls, declaration{name: name, field: v})
	return d
}

// Scope returns a declaration scope limited to roles accepted by m.
func (d *Document) Scope(m Matcher) *Scope {
	return &Scope{doc: d, match: m}
}

// ResolveAndIterFields returns the fields applicable under role in declaration order.
func (d *Document) ResolveAndIterFields(role Role) ([]ResolvedField, error) {
	if len(d.roles) > 0 && !slices.Contains(d.roles, role) {
		return nil, fmt.Errorf("document %q: %w %q", d.name, ErrUnknownRole, role)
	}

	out := make([]ResolvedField, 0, len(d.decls))
	seen := make(map[string]bool, len(d.decls))
	for _, decl := range d.decls {
		if decl.scope != nil && !decl.scope(role) {
			continue
		}
		f, _, ok := decl.field.Resolve(role)
		if !ok || f == nil {
			continue
		}
		if seen[decl.name] {
			return nil, fmt.Errorf("document %q: %w %q under role %q", d.name, ErrDuplicateField, decl.name, role)
		}
		seen[decl.name] = true
		out = append(out, ResolvedField{Name: decl.name, Field: f})
	}
	return out, nil
}

// Scope declares fields that only exist under matching roles.
type Scope struct {
	doc   *Document
	match Matcher
}

// Declare adds a field to the scope.
func (s *Scope) Declare(name string, f Field) *Scope {
	return s.DeclareVar(name, Fixed(f))
}

// DeclareVar adds a role-varying field to the scope.
func (s *Scope) DeclareVar(name string, v Var[Field]) *Scope {
	s.doc.decls = append(s.doc.decls, declaration{name: name, scope: s.match, field: v})
	return s
}
