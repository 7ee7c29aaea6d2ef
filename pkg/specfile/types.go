package specfile

// File is the root of a tools file.
type File struct {
	Tools []Definition `yaml:"tools"`
}

// Definition declares one tool.
type Definition struct {
	Name        string               `yaml:"name"`
	Description string               `yaml:"description"`
	Static      map[string]StaticDef `yaml:"static"`
	Fields      map[string]FieldDef  `yaml:"fields"`
}

// StaticDef declares an argument passed through without field validation.
type StaticDef struct {
	Description string `yaml:"description"`
	Required    bool   `yaml:"required"`
	Schema      any    `yaml:"schema"`
}

// FieldDef declares a dynamic field and its rules.
type FieldDef struct {
	Description  string   `yaml:"description"`
	Requires     []string `yaml:"requires"`
	InfluencedBy []string `yaml:"influenced_by"`

	// Required defaults to true.
	Required *bool `yaml:"required"`

	Normalize []string   `yaml:"normalize"`
	Schema    any        `yaml:"schema"`
	Allowed   []any      `yaml:"allowed"`
	Suggested []any      `yaml:"suggested"`
	Lookup    *LookupDef `yaml:"lookup"`
	Checks    []CheckDef `yaml:"checks"`
}

// IsRequired reports whether an absent value is rejected.
func (f FieldDef) IsRequired() bool {
	return f.Required == nil || *f.Required
}

// LookupDef reads candidate values from the database. Args name the
// fields whose values are bound to the query's placeholders, in order.
type LookupDef struct {
	Query      string   `yaml:"query"`
	Args       []string `yaml:"args"`
	Exhaustive bool     `yaml:"exhaustive"`
}

// CheckDef is a CEL expression over value and context that must hold.
type CheckDef struct {
	Expr    string `yaml:"expr"`
	Message string `yaml:"message"`
}
