package mapping

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Property describes one index field. Keys are encoded in insertion order.
type Property = *orderedmap.OrderedMap[string, any]

// Mapping is a document's name -> Property set, encoded in resolved field order.
type Mapping = *orderedmap.OrderedMap[string, Property]

// Property keys and values understood by index-creation tooling. The spelling
// is part of the output contract.
const (
	KeyType       = "type"
	KeyIndex      = "index"
	KeyFormat     = "format"
	KeyProperties = "properties"

	TypeString  = "string"
	TypeInteger = "integer"
	TypeFloat   = "float"
	TypeBoolean = "boolean"
	TypeDate    = "date"
	TypeNested  = "nested"

	IndexNotAnalyzed       = "not_analyzed"
	FormatDateOptionalTime = "dateOptionalTime"
)

// TimestampField is the name of the property injected by WithTimestamp.
const TimestampField = "@timestamp"

// NewProperty starts a property of the given index type. Custom rules add
// further keys with Set.
func NewProperty(indexType string) Property {
	p := orderedmap.New[string, any]()
	p.Set(KeyType, indexType)
	return p
}

// NewMapping returns an empty mapping.
func NewMapping() Mapping {
	return orderedmap.New[string, Property]()
}

func nestedProperty(props Mapping) Property {
	p := NewProperty(TypeNested)
	p.Set(KeyProperties, props)
	return p
}

func timestampProperty() Property {
	p := NewProperty(TypeDate)
	p.Set(KeyFormat, FormatDateOptionalTime)
	return p
}
