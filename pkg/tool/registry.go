package tool

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"mercator-hq/parley/pkg/feedback"
)

// Registry is a thread-safe set of tools keyed by name.
type Registry struct {
	mu        sync.RWMutex
	tools     map[string]*Tool
	listeners []func([]*Tool)
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]*Tool)}
}

// Register adds a tool. Names must be unique.
func (r *Registry) Register(t *Tool) error {
	r.mu.Lock()
	if _, exists := r.tools[t.Name()]; exists {
		r.mu.Unlock()
		return &DuplicateError{Name: t.Name()}
	}
	r.tools[t.Name()] = t
	r.mu.Unlock()

	r.notify()
	return nil
}

// Replace swaps the whole tool set at once. On error the registry is left
// unchanged.
func (r *Registry) Replace(tools ...*Tool) error {
	next := make(map[string]*Tool, len(tools))
	for _, t := range tools {
		if _, exists := next[t.Name()]; exists {
			return &DuplicateError{Name: t.Name()}
		}
		next[t.Name()] = t
	}

	r.mu.Lock()
	r.tools = next
	r.mu.Unlock()

	r.notify()
	return nil
}

// Get returns the named tool.
func (r *Registry) Get(name string) (*Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return t, nil
}

// List returns all tools sorted by name.
func (r *Registry) List() []*Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Tool, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// OnChange registers fn to be called with the new tool list after every
// Register or Replace.
func (r *Registry) OnChange(fn func([]*Tool)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, fn)
}

// Invoke calls the named tool.
func (r *Registry) Invoke(ctx context.Context, name string, args map[string]any) (*feedback.CallResult, error) {
	t, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	return t.Invoke(ctx, args)
}

func (r *Registry) notify() {
	r.mu.RLock()
	listeners := make([]func([]*Tool), len(r.listeners))
	copy(listeners, r.listeners)
	r.mu.RUnlock()

	tools := r.List()
	for _, fn := range listeners {
		fn(tools)
	}
}
