package specfile

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"mercator-hq/parley/pkg/fieldspec"
	"mercator-hq/parley/pkg/fieldspec/graph"
	"mercator-hq/parley/pkg/rules"
	"mercator-hq/parley/pkg/tool"
)

// Deps carries what definitions need to become tools.
type Deps struct {
	// DB serves lookup rules. Definitions using lookup fail to build
	// without it.
	DB *sql.DB

	TieBreak      graph.TieBreak
	CallTimeout   time.Duration
	LookupRetries int
	LookupBackoff time.Duration

	// Middleware is applied to every built tool, first outermost.
	Middleware []tool.Middleware
}

// Build turns the definition into a tool.
func (d Definition) Build(deps Deps) (*tool.Tool, error) {
	fields := make(map[string]fieldspec.FieldSpec, len(d.Fields))
	for name, def := range d.Fields {
		for _, arg := range lookupArgs(def) {
			_, static := d.Static[arg]
			if !static && !slices.Contains(def.Requires, arg) {
				return nil, &BuildError{Tool: d.Name, Field: name,
					Cause: fmt.Errorf("lookup argument %q must be a static field or listed in requires", arg)}
			}
		}

		validate, err := def.validator(deps)
		if err != nil {
			return nil, &BuildError{Tool: d.Name, Field: name, Cause: err}
		}
		fields[name] = fieldspec.FieldSpec{
			Description:  def.Description,
			Requires:     def.Requires,
			InfluencedBy: def.InfluencedBy,
			Validate:     validate,
		}
	}

	spec, err := fieldspec.New(fields, fieldspec.WithTieBreak(deps.TieBreak))
	if err != nil {
		return nil, &BuildError{Tool: d.Name, Cause: err}
	}

	opts := []tool.Option{tool.WithCallTimeout(deps.CallTimeout), tool.WithMiddleware(deps.Middleware...)}
	for name, def := range d.Static {
		schema, err := jsonSchema(def.Schema)
		if err != nil {
			return nil, &BuildError{Tool: d.Name, Field: name, Cause: err}
		}
		opts = append(opts, tool.WithStatic(name, tool.StaticField{
			Description: def.Description,
			Required:    def.Required,
			Schema:      schema,
		}))
	}

	t, err := tool.New(d.Name, d.Description, spec, opts...)
	if err != nil {
		return nil, &BuildError{Tool: d.Name, Cause: err}
	}
	return t, nil
}

// BuildAll builds every definition.
func BuildAll(defs []Definition, deps Deps) ([]*tool.Tool, error) {
	tools := make([]*tool.Tool, 0, len(defs))
	for _, def := range defs {
		t, err := def.Build(deps)
		if err != nil {
			return nil, err
		}
		tools = append(tools, t)
	}
	return tools, nil
}

// LoadTools loads the file at path and builds its tools.
func LoadTools(path string, deps Deps) ([]*tool.Tool, error) {
	defs, err := Load(path)
	if err != nil {
		return nil, err
	}
	return BuildAll(defs, deps)
}

func (f FieldDef) validator(deps Deps) (fieldspec.ValidateFunc, error) {
	var steps []rules.Step

	if len(f.Normalize) > 0 {
		step, err := rules.Normalize(f.Normalize...)
		if err != nil {
			return nil, err
		}
		steps = append(steps, step)
	}

	if f.Schema != nil {
		doc, err := jsonSchema(f.Schema)
		if err != nil {
			return nil, err
		}
		step, err := rules.Schema(doc)
		if err != nil {
			return nil, err
		}
		steps = append(steps, step)
	}

	switch {
	case f.Allowed != nil:
		steps = append(steps, rules.OneOf(f.Allowed, true))
	case f.Suggested != nil:
		steps = append(steps, rules.OneOf(f.Suggested, false))
	case f.Lookup != nil:
		var opts []rules.LookupOption
		if deps.LookupRetries > 0 {
			opts = append(opts, rules.WithRetries(deps.LookupRetries, deps.LookupBackoff))
		}
		step, err := rules.Lookup(deps.DB, f.Lookup.Query, f.Lookup.Args, f.Lookup.Exhaustive, opts...)
		if err != nil {
			return nil, err
		}
		steps = append(steps, step)
	}

	for _, c := range f.Checks {
		step, err := rules.Check(c.Expr, c.Message)
		if err != nil {
			return nil, err
		}
		steps = append(steps, step)
	}

	return rules.Field(f.IsRequired(), steps...), nil
}

func lookupArgs(f FieldDef) []string {
	if f.Lookup == nil {
		return nil
	}
	return f.Lookup.Args
}

// jsonSchema re-encodes a schema decoded from YAML as JSON.
func jsonSchema(doc any) (json.RawMessage, error) {
	if doc == nil {
		return nil, nil
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("schema is not representable as JSON: %w", err)
	}
	return data, nil
}
