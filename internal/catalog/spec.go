package catalog

// fileSpec is the top level of a schema file.
type fileSpec struct {
	Documents []documentSpec `yaml:"documents"`
}

type documentSpec struct {
	Name   string      `yaml:"name"`
	Roles  []string    `yaml:"roles"`
	Fields []fieldSpec `yaml:"fields"`
}

// fieldSpec describes a declared field or, for items and properties, a bare
// type. Name and Roles only apply to top-level document fields.
type fieldSpec struct {
	Name       string               `yaml:"name"`
	Roles      []string             `yaml:"roles"`
	Type       string               `yaml:"type"`
	Items      *fieldSpec           `yaml:"items"`
	Properties map[string]fieldSpec `yaml:"properties"`
	Variants   []variantSpec        `yaml:"variants"`
	Ref        string               `yaml:"ref"`
}

// variantSpec is one role-specific property set of a dict.
type variantSpec struct {
	Roles      []string             `yaml:"roles"`
	Properties map[string]fieldSpec `yaml:"properties"`
}
