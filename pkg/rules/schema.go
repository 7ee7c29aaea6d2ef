package rules

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"

	"mercator-hq/parley/pkg/feedback"
	"mercator-hq/parley/pkg/fieldspec"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

var schemaSeq atomic.Uint64

// CompileSchema compiles a JSON Schema (draft 2020-12) document.
func CompileSchema(doc []byte) (*jsonschema.Schema, error) {
	url := fmt.Sprintf("mem://parley/schema/%d.json", schemaSeq.Add(1))

	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(url, bytes.NewReader(doc)); err != nil {
		return nil, &RuleError{Rule: "schema", Message: "invalid schema document", Cause: err}
	}
	compiled, err := c.Compile(url)
	if err != nil {
		return nil, &RuleError{Rule: "schema", Message: "schema does not compile", Cause: err}
	}
	return compiled, nil
}

// Schema returns a step that validates the value against a JSON Schema.
// Every leaf validation error becomes one problem.
func Schema(doc []byte) (Step, error) {
	compiled, err := CompileSchema(doc)
	if err != nil {
		return nil, err
	}
	return StepFunc(func(_ context.Context, value any, _ fieldspec.Context) (feedback.Outcome, error) {
		problems, err := SchemaProblems(compiled, value)
		if err != nil {
			return feedback.Outcome{}, err
		}
		if len(problems) > 0 {
			return feedback.Invalid(problems...), nil
		}
		return feedback.Valid(), nil
	}), nil
}

// MustSchema is like Schema but panics if the schema does not compile.
func MustSchema(doc string) Step {
	return must(Schema([]byte(doc)))
}

// SchemaProblems validates value against compiled and returns one message
// per failing leaf, sorted for stable output. The error is non-nil only when
// value cannot be represented as JSON.
func SchemaProblems(compiled *jsonschema.Schema, value any) ([]string, error) {
	doc, err := toJSONValue(value)
	if err != nil {
		return nil, err
	}

	err = compiled.Validate(doc)
	if err == nil {
		return nil, nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return nil, err
	}

	var problems []string
	collectLeaves(ve, &problems)
	sort.Strings(problems)
	return problems, nil
}

func collectLeaves(ve *jsonschema.ValidationError, out *[]string) {
	if len(ve.Causes) == 0 {
		loc := strings.TrimPrefix(ve.InstanceLocation, "/")
		if loc == "" {
			*out = append(*out, ve.Message)
		} else {
			*out = append(*out, loc+": "+ve.Message)
		}
		return
	}
	for _, cause := range ve.Causes {
		collectLeaves(cause, out)
	}
}

// toJSONValue converts a Go value to the generic form the validator expects,
// keeping number precision.
func toJSONValue(value any) (any, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("value is not JSON-encodable: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}
