package mapping

import (
	"encoding/json"
	"testing"

	"github.com/kailas-cloud/estemplate/internal/domain/schema"
)

const (
	roleV1 schema.Role = "v1-0-0"
	roleV2 schema.Role = "v2-0-0"
)

func primitiveFields() *schema.Document {
	return schema.NewDocument("primitive_fields").
		Declare("single_str", schema.String()).
		Declare("str_array", schema.Array(schema.String())).
		Declare("text_data", schema.Text()).
		Declare("text_array", schema.Array(schema.Text())).
		Declare("single_int", schema.Integer()).
		Declare("int_array", schema.Array(schema.Integer())).
		Declare("single_float", schema.Number()).
		Declare("float_array", schema.Array(schema.Number()))
}

func nestedDocuments() *schema.Document {
	prim := primitiveFields()
	dict := func() *schema.DictField {
		return schema.Dict(schema.Properties{
			"str_key": schema.String(),
			"int_key": schema.Integer(),
		})
	}
	return schema.NewDocument("nested_documents").
		Declare("single_doc", schema.Ref(prim)).
		Declare("doc_array", schema.Array(schema.Ref(prim))).
		Declare("single_dict", dict()).
		Declare("dict_array", schema.Array(dict()))
}

func multiversionDocument() *schema.Document {
	doc := schema.NewDocument("multiversion_document", schema.WithRoles(roleV1, roleV2))
	doc.Scope(schema.Exact(roleV1)).Declare("subfield", schema.Number())
	doc.Scope(schema.Exact(roleV2)).Declare("subfield", schema.Integer())
	return doc
}

const primitiveProperties = `"single_str":{"type":"string","index":"not_analyzed"},` +
	`"str_array":{"type":"string","index":"not_analyzed"},` +
	`"text_data":{"type":"string"},` +
	`"text_array":{"type":"string"},` +
	`"single_int":{"type":"integer"},` +
	`"int_array":{"type":"integer"},` +
	`"single_float":{"type":"float"},` +
	`"float_array":{"type":"float"}`

const timestampJSON = `"@timestamp":{"type":"date","format":"dateOptionalTime"}`

const dictProperties = `{"type":"nested","properties":{` +
	`"int_key":{"type":"integer"},` +
	`"str_key":{"type":"string","index":"not_analyzed"}}}`

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(b)
}

// stubSource is a FieldSource with canned results.
type stubSource struct {
	name   string
	fields []schema.ResolvedField
	err    error
	calls  []schema.Role
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) ResolveAndIterFields(role schema.Role) ([]schema.ResolvedField, error) {
	s.calls = append(s.calls, role)
	return s.fields, s.err
}

// bareField claims a kind without exposing the attributes its rule needs.
type bareField struct {
	kind schema.Kind
}

func (f bareField) Kind() schema.Kind { return f.kind }
