// Package schemagen produces JSON Schemas for tool arguments and call
// results. Input schemas are advertised to agents; the result schema
// documents the wire shape of feedback.CallResult.
package schemagen

import (
	"encoding/json"
	"fmt"

	"mercator-hq/parley/pkg/feedback"
	"mercator-hq/parley/pkg/tool"

	"github.com/invopop/jsonschema"
)

// Draft is the JSON Schema dialect of generated documents.
const Draft = "https://json-schema.org/draft/2020-12/schema"

// ExtraRequires is the schema keyword listing the fields a dynamic field
// depends on.
const ExtraRequires = "x-requires"

// InputSchema returns the schema of a tool's arguments. Static fields carry
// their declared schema and are required when declared so. Dynamic fields
// are always optional: an absent dynamic field is answered with feedback
// rather than refused.
func InputSchema(t *tool.Tool) (*jsonschema.Schema, error) {
	schema := &jsonschema.Schema{
		Version:     Draft,
		Type:        "object",
		Title:       t.Name(),
		Description: t.Description(),
		Properties:  jsonschema.NewProperties(),
	}

	for _, name := range t.StaticNames() {
		field, _ := t.Static(name)
		prop, err := staticProperty(field)
		if err != nil {
			return nil, fmt.Errorf("static field %q: %w", name, err)
		}
		schema.Properties.Set(name, objectSchema(prop))
		if field.Required {
			schema.Required = append(schema.Required, name)
		}
	}

	spec := t.Spec()
	for _, name := range spec.Order() {
		field, _ := spec.Field(name)
		prop := &jsonschema.Schema{Description: field.Description}
		if len(field.Requires) > 0 {
			prop.Extras = map[string]any{ExtraRequires: field.Requires}
		}
		schema.Properties.Set(name, objectSchema(prop))
	}

	return schema, nil
}

// objectSchema keeps prop encoding as a JSON object. invopop writes a Schema
// with no members as the boolean schema true, which many tool-schema
// consumers refuse; a non-nil Extras map makes it encode as {}.
func objectSchema(prop *jsonschema.Schema) *jsonschema.Schema {
	if prop.Extras == nil {
		prop.Extras = map[string]any{}
	}
	return prop
}

// InputSchemaJSON returns the encoded input schema of t.
func InputSchemaJSON(t *tool.Tool) (json.RawMessage, error) {
	schema, err := InputSchema(t)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("failed to encode input schema for %s: %w", t.Name(), err)
	}
	return data, nil
}

func staticProperty(field tool.StaticField) (*jsonschema.Schema, error) {
	prop := &jsonschema.Schema{}
	if len(field.Schema) > 0 {
		if err := json.Unmarshal(field.Schema, prop); err != nil {
			return nil, err
		}
	}
	if prop.Description == "" {
		prop.Description = field.Description
	}
	return prop, nil
}

// callResult mirrors the wire shape of feedback.CallResult for reflection.
type callResult struct {
	Status            feedback.Status          `json:"status" jsonschema:"enum=accepted,enum=rejected"`
	Value             map[string]any           `json:"value,omitempty" jsonschema:"description=Resolved arguments; present when accepted"`
	ValidationResults map[string]feedback.Wire `json:"validationResults,omitempty" jsonschema:"description=Per-field outcomes; present when rejected"`
}

// ResultSchema returns the schema of an encoded call result.
func ResultSchema() *jsonschema.Schema {
	r := &jsonschema.Reflector{
		DoNotReference: true,
		ExpandedStruct: true,
	}
	schema := r.Reflect(&callResult{})
	schema.Version = Draft
	schema.Title = "CallResult"
	return schema
}
