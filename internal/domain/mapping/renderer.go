package mapping

import (
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"

	"github.com/kailas-cloud/estemplate/internal/domain/schema"
)

// RenderFunc renders one field of the kind it is registered for. Composite
// rules recurse through the Walk so the role and document path carry over.
type RenderFunc func(w *Walk, f schema.Field) (Property, error)

// Builder collects render rules. It is used during setup only; Build freezes
// the rules into a Renderer.
type Builder struct {
	rules map[schema.Kind]RenderFunc
}

// NewBuilder returns a builder with no rules.
func NewBuilder() *Builder {
	return &Builder{rules: make(map[schema.Kind]RenderFunc)}
}

// DefaultBuilder returns a builder with a rule for every built-in kind.
func DefaultBuilder() *Builder {
	return NewBuilder().
		Register(schema.KindString, renderString).
		Register(schema.KindText, renderText).
		Register(schema.KindInteger, renderInteger).
		Register(schema.KindNumber, renderNumber).
		Register(schema.KindBoolean, renderBoolean).
		Register(schema.KindDateTime, renderDateTime).
		Register(schema.KindArray, renderArray).
		Register(schema.KindDict, renderDict).
		Register(schema.KindDocument, renderDocument)
}

// Register sets the rule for kind, replacing any earlier one.
func (b *Builder) Register(kind schema.Kind, fn RenderFunc) *Builder {
	if fn == nil {
		panic(fmt.Sprintf("mapping: nil render func for kind %q", kind))
	}
	b.rules[kind] = fn
	return b
}

// Build checks that every built-in kind has a rule and returns an immutable
// Renderer. Later changes to the builder do not affect it.
func (b *Builder) Build() (*Renderer, error) {
	var missing []string
	for _, k := range schema.Kinds() {
		if _, ok := b.rules[k]; !ok {
			missing = append(missing, string(k))
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing %s", ErrIncompleteRegistry, strings.Join(missing, ", "))
	}
	return &Renderer{rules: maps.Clone(b.rules)}, nil
}

// MustBuild calls Build and panics on error.
func (b *Builder) MustBuild() *Renderer {
	r, err := b.Build()
	if err != nil {
		panic(err)
	}
	return r
}

// Renderer converts schema fields into index mapping properties. It holds no
// mutable state and is safe for concurrent use.
type Renderer struct {
	rules map[schema.Kind]RenderFunc
}

// Default returns a renderer with the built-in rules.
func Default() *Renderer {
	return DefaultBuilder().MustBuild()
}

// Kinds returns the registered kinds sorted by name.
func (r *Renderer) Kinds() []schema.Kind {
	return slices.Sorted(maps.Keys(r.rules))
}

// Supports reports whether kind has a rule.
func (r *Renderer) Supports(kind schema.Kind) bool {
	_, ok := r.rules[kind]
	return ok
}

// RenderProperty renders a single field under role.
func (r *Renderer) RenderProperty(f schema.Field, role schema.Role) (Property, error) {
	return r.walk(role).Property(f)
}

func (r *Renderer) walk(role schema.Role) *Walk {
	return &Walk{renderer: r, role: role}
}

// Walk is the state of one render call: the renderer, the role and the chain
// of documents entered so far.
type Walk struct {
	renderer *Renderer
	role     schema.Role
	docs     []schema.FieldSource
	path     []string // names of docs, for errors
}

// Role returns the role the call renders for.
func (w *Walk) Role() schema.Role { return w.role }

// Property renders f with the rule registered for its exact kind.
func (w *Walk) Property(f schema.Field) (Property, error) {
	if f == nil {
		return nil, fmt.Errorf("%w: nil field", ErrMalformedField)
	}
	fn, ok := w.renderer.rules[f.Kind()]
	if !ok {
		return nil, &UnsupportedFieldTypeError{Kind: f.Kind(), GoType: fmt.Sprintf("%T", f)}
	}
	return fn(w, f)
}

// Mapping renders every field doc resolves under the walk's role.
func (w *Walk) Mapping(doc schema.FieldSource) (Mapping, error) {
	return w.mapping(doc, false)
}

func (w *Walk) mapping(doc schema.FieldSource, timestamp bool) (Mapping, error) {
	name := doc.Name()
	if slices.ContainsFunc(w.docs, func(d schema.FieldSource) bool { return sameSource(d, doc) }) {
		return nil, &RecursiveDocumentError{Path: append(slices.Clone(w.path), name)}
	}

	fields, err := doc.ResolveAndIterFields(w.role)
	if err != nil {
		return nil, err
	}

	child := &Walk{
		renderer: w.renderer,
		role:     w.role,
		docs:     append(slices.Clip(w.docs), doc),
		path:     append(slices.Clip(w.path), name),
	}

	m := NewMapping()
	if timestamp {
		m.Set(TimestampField, timestampProperty())
	}
	for _, rf := range fields {
		if timestamp && rf.Name == TimestampField {
			return nil, &ReservedFieldError{Document: name, Field: rf.Name}
		}
		p, err := child.Property(rf.Field)
		if err != nil {
			return nil, err
		}
		m.Set(rf.Name, p)
	}
	return m, nil
}

// sameSource compares documents by identity. Sources of a non-comparable
// dynamic type fall back to comparing names.
func sameSource(a, b schema.FieldSource) bool {
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	if !ta.Comparable() {
		return a.Name() == b.Name()
	}
	return a == b
}
