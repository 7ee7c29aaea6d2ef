// Package langchain exposes tools to langchaingo agents.
package langchain

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"mercator-hq/parley/pkg/schemagen"
	"mercator-hq/parley/pkg/tool"

	"github.com/tmc/langchaingo/tools"
)

// Tool adapts a tool.Tool to langchaingo's tools.Tool. The agent passes the
// arguments as a JSON object and receives the encoded call result, accepted
// or rejected, so it can correct its arguments and retry.
type Tool struct {
	tool   *tool.Tool
	schema map[string]any
}

var _ tools.Tool = (*Tool)(nil)

// New wraps t.
func New(t *tool.Tool) (*Tool, error) {
	raw, err := schemagen.InputSchemaJSON(t)
	if err != nil {
		return nil, err
	}
	var schema map[string]any
	if err := json.Unmarshal(raw, &schema); err != nil {
		return nil, fmt.Errorf("failed to decode input schema: %w", err)
	}
	return &Tool{tool: t, schema: schema}, nil
}

// FromRegistry wraps every tool in reg.
func FromRegistry(reg *tool.Registry) ([]tools.Tool, error) {
	list := reg.List()
	out := make([]tools.Tool, 0, len(list))
	for _, t := range list {
		lt, err := New(t)
		if err != nil {
			return nil, fmt.Errorf("tool %s: %w", t.Name(), err)
		}
		out = append(out, lt)
	}
	return out, nil
}

// Name returns the tool name.
func (t *Tool) Name() string {
	return t.tool.Name()
}

// Description returns the tool description followed by a note on the
// expected input.
func (t *Tool) Description() string {
	var sb strings.Builder
	sb.WriteString(t.tool.Description())
	if sb.Len() > 0 {
		sb.WriteString(" ")
	}
	sb.WriteString("Input is a JSON object of arguments; the reply reports which arguments were rejected and why.")
	return sb.String()
}

// ParameterSchema returns the input schema for function-calling models.
func (t *Tool) ParameterSchema() map[string]any {
	return t.schema
}

// Call validates the JSON arguments in input and returns the encoded call
// result. Malformed input is an error; a rejection is not.
func (t *Tool) Call(ctx context.Context, input string) (string, error) {
	if strings.TrimSpace(input) == "" {
		input = "{}"
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(input), &args); err != nil {
		return "", fmt.Errorf("failed to parse tool arguments: %w", err)
	}

	result, err := t.tool.Invoke(ctx, args)
	if err != nil {
		return "", fmt.Errorf("failed to execute tool '%s': %w", t.tool.Name(), err)
	}
	return result.JSON()
}
