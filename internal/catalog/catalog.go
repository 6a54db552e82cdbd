// Package catalog loads schema documents from YAML files.
package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/estemplate/internal/domain"
	"github.com/kailas-cloud/estemplate/internal/domain/schema"
)

// Catalog is a read-only set of documents addressed by name.
type Catalog struct {
	docs map[string]*schema.Document
}

// New builds a catalog from already constructed documents.
func New(docs ...*schema.Document) (*Catalog, error) {
	c := &Catalog{docs: make(map[string]*schema.Document, len(docs))}
	for _, d := range docs {
		if _, dup := c.docs[d.Name()]; dup {
			return nil, fmt.Errorf("%w: duplicate document %q", domain.ErrInvalidSchema, d.Name())
		}
		c.docs[d.Name()] = d
	}
	return c, nil
}

// Get returns the named document.
func (c *Catalog) Get(name string) (*schema.Document, error) {
	d, ok := c.docs[name]
	if !ok {
		return nil, fmt.Errorf("document %q: %w", name, domain.ErrNotFound)
	}
	return d, nil
}

// Names returns all document names sorted.
func (c *Catalog) Names() []string {
	return slices.Sorted(maps.Keys(c.docs))
}

// Len returns the number of documents.
func (c *Catalog) Len() int { return len(c.docs) }

type source struct {
	name string
	data []byte
}

// Load reads schema files. A directory contributes every *.yaml and *.yml
// file directly inside it. References may point to documents in any file.
func Load(paths ...string) (*Catalog, error) {
	var sources []source
	for _, p := range paths {
		files, err := expand(p)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			data, err := os.ReadFile(filepath.Clean(f))
			if err != nil {
				return nil, fmt.Errorf("read schema %s: %w", f, err)
			}
			sources = append(sources, source{name: f, data: data})
		}
	}
	return build(sources)
}

// Parse builds a catalog from in-memory schema files.
func Parse(files ...[]byte) (*Catalog, error) {
	sources := make([]source, len(files))
	for i, data := range files {
		sources[i] = source{name: fmt.Sprintf("<input %d>", i), data: data}
	}
	return build(sources)
}

func expand(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("schema path: %w", err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("read schema dir %s: %w", path, err)
	}
	var files []string
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if e.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		files = append(files, filepath.Join(path, e.Name()))
	}
	slices.Sort(files)
	return files, nil
}

func decode(src source) (fileSpec, error) {
	var spec fileSpec
	dec := yaml.NewDecoder(bytes.NewReader(src.data))
	dec.KnownFields(true)
	if err := dec.Decode(&spec); err != nil && !errors.Is(err, io.EOF) {
		return fileSpec{}, fmt.Errorf("%w: %s: %w", domain.ErrInvalidSchema, src.name, err)
	}
	return spec, nil
}

func build(sources []source) (*Catalog, error) {
	var specs []documentSpec
	for _, src := range sources {
		spec, err := decode(src)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec.Documents...)
	}

	// Documents are created up front so references can point forward or at
	// the document itself.
	docs := make([]*schema.Document, 0, len(specs))
	byName := make(map[string]*schema.Document, len(specs))
	for _, ds := range specs {
		if ds.Name == "" {
			return nil, fmt.Errorf("%w: document without name", domain.ErrInvalidSchema)
		}
		if _, dup := byName[ds.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate document %q", domain.ErrInvalidSchema, ds.Name)
		}
		var opts []schema.DocumentOption
		if len(ds.Roles) > 0 {
			opts = append(opts, schema.WithRoles(toRoles(ds.Roles)...))
		}
		d := schema.NewDocument(ds.Name, opts...)
		byName[ds.Name] = d
		docs = append(docs, d)
	}

	b := &fieldBuilder{docs: byName}
	for i, ds := range specs {
		if err := b.declare(docs[i], ds); err != nil {
			return nil, err
		}
	}

	return New(docs...)
}

type fieldBuilder struct {
	docs map[string]*schema.Document
}

func (b *fieldBuilder) declare(d *schema.Document, ds documentSpec) error {
	for i, fs := range ds.Fields {
		if fs.Name == "" {
			return fmt.Errorf("%w: document %q field #%d has no name", domain.ErrInvalidSchema, ds.Name, i)
		}
		path := ds.Name + "." + fs.Name
		f, err := b.field(fs, path, true)
		if err != nil {
			return err
		}
		if len(fs.Roles) > 0 {
			d.Scope(schema.Exact(toRoles(fs.Roles)...)).Declare(fs.Name, f)
		} else {
			d.Declare(fs.Name, f)
		}
	}
	return nil
}

// field builds fs. top marks a document field; items and properties are bare types.
func (b *fieldBuilder) field(fs fieldSpec, path string, top bool) (schema.Field, error) {
	if fs.Type == "" {
		return nil, fmt.Errorf("%w: %s: type is required", domain.ErrInvalidSchema, path)
	}
	kind, err := schema.ParseKind(fs.Type)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrInvalidSchema, path, err)
	}
	if err := checkAttributes(fs, kind, path, top); err != nil {
		return nil, err
	}

	switch kind {
	case schema.KindString:
		return schema.String(), nil
	case schema.KindText:
		return schema.Text(), nil
	case schema.KindInteger:
		return schema.Integer(), nil
	case schema.KindNumber:
		return schema.Number(), nil
	case schema.KindBoolean:
		return schema.Boolean(), nil
	case schema.KindDateTime:
		return schema.DateTime(), nil
	case schema.KindArray:
		if fs.Items == nil {
			return nil, fmt.Errorf("%w: %s: array requires items", domain.ErrInvalidSchema, path)
		}
		items, err := b.field(*fs.Items, path+"[]", false)
		if err != nil {
			return nil, err
		}
		return schema.Array(items), nil
	case schema.KindDict:
		return b.dict(fs, path)
	case schema.KindDocument:
		target, ok := b.docs[fs.Ref]
		if !ok {
			return nil, fmt.Errorf("%w: %s: unknown document %q", domain.ErrInvalidSchema, path, fs.Ref)
		}
		return schema.Ref(target), nil
	}
	return nil, fmt.Errorf("%w: %s: unhandled type %q", domain.ErrInvalidSchema, path, kind)
}

func (b *fieldBuilder) dict(fs fieldSpec, path string) (schema.Field, error) {
	if len(fs.Variants) == 0 {
		props, err := b.properties(fs.Properties, path)
		if err != nil {
			return nil, err
		}
		return schema.Dict(props), nil
	}

	v := schema.Var[schema.Properties]{}
	for i, vs := range fs.Variants {
		if len(vs.Roles) == 0 {
			return nil, fmt.Errorf("%w: %s: variant #%d has no roles", domain.ErrInvalidSchema, path, i)
		}
		props, err := b.properties(vs.Properties, path)
		if err != nil {
			return nil, err
		}
		v = v.When(schema.Exact(toRoles(vs.Roles)...), props)
	}
	return schema.DictVar(v), nil
}

func (b *fieldBuilder) properties(specs map[string]fieldSpec, path string) (schema.Properties, error) {
	props := make(schema.Properties, len(specs))
	for name, ps := range specs {
		f, err := b.field(ps, path+"."+name, false)
		if err != nil {
			return nil, err
		}
		props[name] = f
	}
	return props, nil
}

// checkAttributes rejects attributes that have no meaning for kind, and name
// or roles outside document fields.
func checkAttributes(fs fieldSpec, kind schema.Kind, path string, top bool) error {
	if !top {
		var misplaced []string
		if fs.Name != "" {
			misplaced = append(misplaced, "name")
		}
		if fs.Roles != nil {
			misplaced = append(misplaced, "roles")
		}
		if len(misplaced) > 0 {
			return fmt.Errorf("%w: %s: %s only allowed on document fields",
				domain.ErrInvalidSchema, path, strings.Join(misplaced, ", "))
		}
	}

	var extra []string
	if fs.Items != nil && kind != schema.KindArray {
		extra = append(extra, "items")
	}
	if fs.Properties != nil && kind != schema.KindDict {
		extra = append(extra, "properties")
	}
	if fs.Variants != nil && kind != schema.KindDict {
		extra = append(extra, "variants")
	}
	if fs.Properties != nil && fs.Variants != nil {
		extra = append(extra, "properties with variants")
	}
	if fs.Ref != "" && kind != schema.KindDocument {
		extra = append(extra, "ref")
	}
	if len(extra) > 0 {
		return fmt.Errorf("%w: %s: %s not allowed for type %q",
			domain.ErrInvalidSchema, path, strings.Join(extra, ", "), kind)
	}
	return nil
}

func toRoles(ss []string) []schema.Role {
	out := make([]schema.Role, len(ss))
	for i, s := range ss {
		out[i] = schema.Role(s)
	}
	return out
}
