package fieldspec

import (
	"fmt"
	"sort"
)

// Context is the read-only set of values visible to a field validator: the
// fields it requires, any other dynamic fields already validated, and every
// static field.
type Context struct {
	values map[string]any
}

// NewContext wraps values. The map is copied.
func NewContext(values map[string]any) Context {
	c := Context{values: make(map[string]any, len(values))}
	for k, v := range values {
		c.values[k] = v
	}
	return c
}

// Get returns the value of a field and whether it is present.
func (c Context) Get(name string) (any, bool) {
	v, ok := c.values[name]
	return v, ok
}

// Has reports whether a field is present.
func (c Context) Has(name string) bool {
	_, ok := c.values[name]
	return ok
}

// String returns a field's value formatted as a string, or "" when absent.
func (c Context) String(name string) string {
	v, ok := c.values[name]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Keys returns the present field names, sorted.
func (c Context) Keys() []string {
	keys := make([]string, 0, len(c.values))
	for k := range c.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of present fields.
func (c Context) Len() int {
	return len(c.values)
}

// Map returns a copy of the context values.
func (c Context) Map() map[string]any {
	out := make(map[string]any, len(c.values))
	for k, v := range c.values {
		out[k] = v
	}
	return out
}
