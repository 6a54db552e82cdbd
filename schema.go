package estemplate

import (
	"fmt"
	"reflect"
	"strings"
	"time"
	"unicode"

	"github.com/kailas-cloud/estemplate/internal/domain"
	"github.com/kailas-cloud/estemplate/internal/domain/schema"
)

const tagKey = "estemplate"

var timeType = reflect.TypeFor[time.Time]()

// DocumentFor derives a document from the estemplate tags of struct T.
//
// The tag format is `estemplate:"name[,kind][,roles=r1|r2]"`. Untagged
// fields and fields tagged "-" are skipped. The kind is inferred from the
// Go type unless given: strings map to string, integers to integer, floats
// to number, bool to boolean, time.Time to datetime and slices to array.
// A nested struct becomes a reference to a document named after its type,
// or an inline dict with the "dict" kind. On slices the kind applies to
// the items.
func DocumentFor[T any](name string, opts ...DocumentOption) (*Document, error) {
	t := reflect.TypeFor[T]()
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("estemplate: %w: type %s is not a struct", domain.ErrInvalidSchema, t)
	}

	d := &deriver{docs: make(map[reflect.Type]*schema.Document)}
	doc := schema.NewDocument(name, opts...)
	d.docs[t] = doc
	if err := d.declare(doc, t); err != nil {
		return nil, err
	}
	return doc, nil
}

// MustDocumentFor is DocumentFor that panics on error.
func MustDocumentFor[T any](name string, opts ...DocumentOption) *Document {
	doc, err := DocumentFor[T](name, opts...)
	if err != nil {
		panic(err)
	}
	return doc
}

type fieldTag struct {
	name  string
	kind  schema.Kind
	roles []schema.Role
}

// parseTag splits a tag into the field name and its modifiers.
func parseTag(fieldName, tag string) (fieldTag, error) {
	parts := strings.Split(tag, ",")
	ft := fieldTag{name: parts[0]}
	if ft.name == "" {
		return fieldTag{}, fmt.Errorf("estemplate: %w: field %s has an empty name", domain.ErrInvalidSchema, fieldName)
	}
	for _, mod := range parts[1:] {
		if list, ok := strings.CutPrefix(mod, "roles="); ok {
			if ft.roles != nil || list == "" {
				return fieldTag{}, fmt.Errorf("estemplate: %w: bad roles on field %s", domain.ErrInvalidSchema, fieldName)
			}
			for r := range strings.SplitSeq(list, "|") {
				ft.roles = append(ft.roles, schema.Role(r))
			}
			continue
		}
		kind, err := schema.ParseKind(mod)
		if err != nil || ft.kind != "" {
			return fieldTag{}, fmt.Errorf("estemplate: %w: unknown modifier %q on field %s",
				domain.ErrInvalidSchema, mod, fieldName)
		}
		ft.kind = kind
	}
	return ft, nil
}

// deriver keeps one document per struct type so that repeated and
// self-referencing types share a single declaration.
type deriver struct {
	docs map[reflect.Type]*schema.Document
}

func (d *deriver) declare(doc *schema.Document, t reflect.Type) error {
	for i := range t.NumField() {
		sf := t.Field(i)
		tag := sf.Tag.Get(tagKey)
		if tag == "" || tag == "-" {
			continue
		}
		ft, err := parseTag(sf.Name, tag)
		if err != nil {
			return err
		}
		f, err := d.field(sf.Type, ft.kind, t.Name()+"."+sf.Name)
		if err != nil {
			return err
		}
		if ft.roles != nil {
			doc.Scope(schema.Exact(ft.roles...)).Declare(ft.name, f)
		} else {
			doc.Declare(ft.name, f)
		}
	}
	return nil
}

func (d *deriver) field(t reflect.Type, kind schema.Kind, path string) (schema.Field, error) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == timeType {
		return scalar(schema.KindDateTime, kind, path)
	}

	switch t.Kind() {
	case reflect.Slice, reflect.Array:
		if kind == schema.KindArray {
			kind = ""
		}
		items, err := d.field(t.Elem(), kind, path+"[]")
		if err != nil {
			return nil, err
		}
		return schema.Array(items), nil
	case reflect.Struct:
		switch kind {
		case "", schema.KindDocument:
			doc, err := d.document(t)
			if err != nil {
				return nil, err
			}
			return schema.Ref(doc), nil
		case schema.KindDict:
			props, err := d.properties(t, path)
			if err != nil {
				return nil, err
			}
			return schema.Dict(props), nil
		}
	case reflect.String:
		return scalar(schema.KindString, kind, path)
	case reflect.Bool:
		return scalar(schema.KindBoolean, kind, path)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return scalar(schema.KindInteger, kind, path)
	case reflect.Float32, reflect.Float64:
		return scalar(schema.KindNumber, kind, path)
	default:
		return nil, fmt.Errorf("estemplate: %w: %s: unsupported Go type %s", domain.ErrInvalidSchema, path, t)
	}
	return nil, fmt.Errorf("estemplate: %w: %s: kind %q does not fit %s", domain.ErrInvalidSchema, path, kind, t)
}

// document returns the document for a nested struct type, declaring it on
// first use.
func (d *deriver) document(t reflect.Type) (*schema.Document, error) {
	if doc, ok := d.docs[t]; ok {
		return doc, nil
	}
	if t.Name() == "" {
		return nil, fmt.Errorf("estemplate: %w: anonymous struct needs the dict kind", domain.ErrInvalidSchema)
	}
	doc := schema.NewDocument(snakeCase(t.Name()))
	d.docs[t] = doc
	if err := d.declare(doc, t); err != nil {
		return nil, err
	}
	return doc, nil
}

// properties collects the tagged fields of t as dict properties.
func (d *deriver) properties(t reflect.Type, path string) (schema.Properties, error) {
	props := make(schema.Properties)
	for i := range t.NumField() {
		sf := t.Field(i)
		tag := sf.Tag.Get(tagKey)
		if tag == "" || tag == "-" {
			continue
		}
		ft, err := parseTag(sf.Name, tag)
		if err != nil {
			return nil, err
		}
		if ft.roles != nil {
			return nil, fmt.Errorf("estemplate: %w: %s.%s: roles are not allowed on dict properties",
				domain.ErrInvalidSchema, path, sf.Name)
		}
		if _, dup := props[ft.name]; dup {
			return nil, fmt.Errorf("estemplate: %w: %s: duplicate property %q", domain.ErrInvalidSchema, path, ft.name)
		}
		f, err := d.field(sf.Type, ft.kind, path+"."+sf.Name)
		if err != nil {
			return nil, err
		}
		props[ft.name] = f
	}
	return props, nil
}

// scalar returns the inferred kind unless an explicit scalar kind overrides it.
func scalar(inferred, explicit schema.Kind, path string) (schema.Field, error) {
	switch explicit {
	case "":
		return schema.Scalar(inferred), nil
	case schema.KindString, schema.KindText, schema.KindInteger,
		schema.KindNumber, schema.KindBoolean, schema.KindDateTime:
		return schema.Scalar(explicit), nil
	}
	return nil, fmt.Errorf("estemplate: %w: %s: kind %q does not fit a %s value",
		domain.ErrInvalidSchema, path, explicit, inferred)
}

// snakeCase turns a Go type name such as GeoPoint into geo_point.
func snakeCase(s string) string {
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 && (unicode.IsLower(runes[i-1]) ||
				(i+1 < len(runes) && unicode.IsLower(runes[i+1]))) {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}
