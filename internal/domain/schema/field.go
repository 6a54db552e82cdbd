package schema

import "fmt"

// Kind identifies a field-type variant. Renderers dispatch on the exact kind,
// never on structural similarity between variants.
type Kind string

// Built-in field kinds.
const (
	KindString   Kind = "string"
	KindText     Kind = "text"
	KindInteger  Kind = "integer"
	KindNumber   Kind = "number"
	KindBoolean  Kind = "boolean"
	KindDateTime Kind = "datetime"
	KindArray    Kind = "array"
	KindDict     Kind = "dict"
	KindDocument Kind = "document"
)

var builtinKinds = []Kind{
	KindString, KindText, KindInteger, KindNumber, KindBoolean,
	KindDateTime, KindArray, KindDict, KindDocument,
}

// Kinds returns every built-in kind in a stable order.
func Kinds() []Kind {
	out := make([]Kind, len(builtinKinds))
	copy(out, builtinKinds)
	return out
}

// ParseKind maps a type name from a schema file to a built-in kind.
func ParseKind(s string) (Kind, error) {
	for _, k := range builtinKinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown field type %q", s)
}

// Field is a declared field type.
type Field interface {
	Kind() Kind
}

// Properties maps dict property names to their field types.
type Properties map[string]Field

type scalarField struct {
	kind Kind
}

func (f scalarField) Kind() Kind { return f.kind }

// String is an exact-match string.
func String() Field { return scalarField{kind: KindString} }

// Text is a string analyzed as free text by the search engine.
func Text() Field { return scalarField{kind: KindText} }

// Integer is a whole number.
func Integer() Field { return scalarField{kind: KindInteger} }

// Number is a floating point number.
func Number() Field { return scalarField{kind: KindNumber} }

// Boolean is a true/false flag.
func Boolean() Field { return scalarField{kind: KindBoolean} }

// DateTime is an ISO-8601 timestamp.
func DateTime() Field { return scalarField{kind: KindDateTime} }

// Scalar returns a structureless field of an arbitrary kind. It exists for
// extension kinds that carry no attributes of their own.
func Scalar(kind Kind) Field { return scalarField{kind: kind} }

// ArrayField holds a list of items of a single type.
type ArrayField struct {
	items Field
}

// Array declares a list of items.
func Array(items Field) *ArrayField { return &ArrayField{items: items} }

// Kind implements Field.
func (f *ArrayField) Kind() Kind { return KindArray }

// Items returns the item type.
func (f *ArrayField) Items() Field { return f.items }

// DictField is an inline sub-document whose property set may vary by role.
type DictField struct {
	properties Var[Properties]
}

// Dict declares an inline sub-document with the same properties under every role.
func Dict(props Properties) *DictField { return &DictField{properties: Fixed(props)} }

// DictVar declares an inline sub-document with role-varying properties.
func DictVar(props Var[Properties]) *DictField { return &DictField{properties: props} }

// Kind implements Field.
func (f *DictField) Kind() Kind { return KindDict }

// ResolveProperties resolves the properties attribute for role.
func (f *DictField) ResolveProperties(role Role) (Properties, Role, error) {
	props, resolved, ok := f.properties.Resolve(role)
	if !ok {
		return nil, "", fmt.Errorf("%w: properties under role %q", ErrUnresolvedAttribute, role)
	}
	return props, resolved, nil
}

// DocumentField embeds another document.
type DocumentField struct {
	target FieldSource
}

// Ref declares a field holding an instance of another document.
func Ref(doc FieldSource) *DocumentField { return &DocumentField{target: doc} }

// Kind implements Field.
func (f *DocumentField) Kind() Kind { return KindDocument }

// Target returns the referenced document.
func (f *DocumentField) Target() FieldSource { return f.target }
