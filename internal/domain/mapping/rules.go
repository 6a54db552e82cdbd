package mapping

import (
	"maps"
	"slices"

	"github.com/kailas-cloud/estemplate/internal/domain/schema"
)

type itemsField interface {
	Items() schema.Field
}

type propertiesField interface {
	ResolveProperties(role schema.Role) (schema.Properties, schema.Role, error)
}

type documentField interface {
	Target() schema.FieldSource
}

// renderString marks the value as a single opaque token so whole-value
// lookups and aggregations work on it.
func renderString(_ *Walk, _ schema.Field) (Property, error) {
	p := NewProperty(TypeString)
	p.Set(KeyIndex, IndexNotAnalyzed)
	return p, nil
}

func renderText(_ *Walk, _ schema.Field) (Property, error) {
	return NewProperty(TypeString), nil
}

func renderInteger(_ *Walk, _ schema.Field) (Property, error) {
	return NewProperty(TypeInteger), nil
}

func renderNumber(_ *Walk, _ schema.Field) (Property, error) {
	return NewProperty(TypeFloat), nil
}

func renderBoolean(_ *Walk, _ schema.Field) (Property, error) {
	return NewProperty(TypeBoolean), nil
}

func renderDateTime(_ *Walk, _ schema.Field) (Property, error) {
	return timestampProperty(), nil
}

// renderArray emits the item property: every index field is implicitly multi-valued.
func renderArray(w *Walk, f schema.Field) (Property, error) {
	af, ok := f.(itemsField)
	if !ok {
		return nil, malformed(f, "items")
	}
	return w.Property(af.Items())
}

func renderDict(w *Walk, f schema.Field) (Property, error) {
	df, ok := f.(propertiesField)
	if !ok {
		return nil, malformed(f, "properties")
	}
	props, _, err := df.ResolveProperties(w.Role())
	if err != nil {
		return nil, err
	}

	m := NewMapping()
	for _, name := range slices.Sorted(maps.Keys(props)) {
		p, err := w.Property(props[name])
		if err != nil {
			return nil, err
		}
		m.Set(name, p)
	}
	return nestedProperty(m), nil
}

func renderDocument(w *Walk, f schema.Field) (Property, error) {
	df, ok := f.(documentField)
	if !ok || df.Target() == nil {
		return nil, malformed(f, "target document")
	}
	m, err := w.Mapping(df.Target())
	if err != nil {
		return nil, err
	}
	return nestedProperty(m), nil
}
