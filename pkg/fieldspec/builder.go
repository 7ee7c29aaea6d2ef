package fieldspec

// FieldOption configures one field in a Builder.
type FieldOption func(*FieldSpec)

// Requires appends hard prerequisites.
func Requires(fields ...string) FieldOption {
	return func(fs *FieldSpec) {
		fs.Requires = append(fs.Requires, fields...)
	}
}

// InfluencedBy appends soft hints.
func InfluencedBy(fields ...string) FieldOption {
	return func(fs *FieldSpec) {
		fs.InfluencedBy = append(fs.InfluencedBy, fields...)
	}
}

// Describe sets the description.
func Describe(description string) FieldOption {
	return func(fs *FieldSpec) {
		fs.Description = description
	}
}

// Validate sets the validation function.
func Validate(fn ValidateFunc) FieldOption {
	return func(fs *FieldSpec) {
		fs.Validate = fn
	}
}

// Builder assembles a Spec field by field.
type Builder struct {
	fields map[string]FieldSpec
	opts   []Option
	err    error
}

// NewBuilder returns an empty Builder.
func NewBuilder(opts ...Option) *Builder {
	return &Builder{
		fields: make(map[string]FieldSpec),
		opts:   opts,
	}
}

// Field declares a field. Declaring the same name twice is an error reported
// by Build.
func (b *Builder) Field(name string, opts ...FieldOption) *Builder {
	if b.err != nil {
		return b
	}
	if _, exists := b.fields[name]; exists {
		b.err = &SpecError{Field: name, Message: "field declared more than once"}
		return b
	}

	var fs FieldSpec
	for _, opt := range opts {
		opt(&fs)
	}
	b.fields[name] = fs
	return b
}

// Build finalizes the declared fields.
func (b *Builder) Build() (*Spec, error) {
	if b.err != nil {
		return nil, b.err
	}
	return New(b.fields, b.opts...)
}
