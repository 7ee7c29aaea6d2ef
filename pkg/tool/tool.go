package tool

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync/atomic"
	"time"

	"mercator-hq/parley/pkg/feedback"
	"mercator-hq/parley/pkg/fieldspec"
	"mercator-hq/parley/pkg/validation"

	"github.com/google/uuid"
)

var (
	namePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)
	generations atomic.Uint64
)

// Tool is a validated, callable agent tool.
type Tool struct {
	name        string
	description string
	spec        *fieldspec.Spec
	engine      *validation.Engine
	static      map[string]StaticField
	callTimeout time.Duration
	middleware  []Middleware
	handler     Handler

	// generation identifies the definition; copies made by With share it.
	generation uint64
}

// Option configures a Tool.
type Option func(*Tool)

// WithStatic declares a static argument.
func WithStatic(name string, field StaticField) Option {
	return func(t *Tool) {
		t.static[name] = field
	}
}

// WithCallTimeout bounds the time spent validating one call.
func WithCallTimeout(d time.Duration) Option {
	return func(t *Tool) {
		t.callTimeout = d
	}
}

// WithMiddleware appends middleware. The first middleware is outermost.
func WithMiddleware(mws ...Middleware) Option {
	return func(t *Tool) {
		t.middleware = append(t.middleware, mws...)
	}
}

// New creates a tool over spec.
func New(name, description string, spec *fieldspec.Spec, opts ...Option) (*Tool, error) {
	if !namePattern.MatchString(name) {
		return nil, &DefinitionError{Tool: name, Message: "name must match " + namePattern.String()}
	}
	if spec == nil {
		return nil, &DefinitionError{Tool: name, Message: "field specification is nil"}
	}

	t := &Tool{
		name:        name,
		description: description,
		spec:        spec,
		engine:      validation.New(spec, validation.WithObserver(contextObserver{})),
		static:      make(map[string]StaticField),
		generation:  generations.Add(1),
	}
	for _, opt := range opts {
		opt(t)
	}

	for fieldName, field := range t.static {
		if spec.IsDynamic(fieldName) {
			return nil, &DefinitionError{Tool: name, Message: fmt.Sprintf("%q is declared both static and dynamic", fieldName)}
		}
		if err := field.compile(); err != nil {
			return nil, &DefinitionError{Tool: name, Message: fmt.Sprintf("static field %q", fieldName), Cause: err}
		}
		t.static[fieldName] = field
	}

	t.handler = chain(t.run, t.middleware)
	return t, nil
}

// MustNew is like New but panics on error.
func MustNew(name, description string, spec *fieldspec.Spec, opts ...Option) *Tool {
	t, err := New(name, description, spec, opts...)
	if err != nil {
		panic(err)
	}
	return t
}

// With returns a copy of the tool with additional outer middleware. The copy
// shares the engine and static definitions.
func (t *Tool) With(mws ...Middleware) *Tool {
	cp := *t
	cp.middleware = append(append([]Middleware(nil), mws...), t.middleware...)
	cp.handler = chain(cp.run, cp.middleware)
	return &cp
}

// Name returns the tool name.
func (t *Tool) Name() string { return t.name }

// Description returns the tool description.
func (t *Tool) Description() string { return t.description }

// Spec returns the field specification.
func (t *Tool) Spec() *fieldspec.Spec { return t.spec }

// CallTimeout returns the configured call timeout, zero if unbounded.
func (t *Tool) CallTimeout() time.Duration { return t.callTimeout }

// Invoke validates args and returns the call result. Validator failures are
// reported as rejections; the returned error is non-nil only if ctx was
// cancelled by the caller or middleware refused the call, for example over a
// call limit.
func (t *Tool) Invoke(ctx context.Context, args map[string]any) (*feedback.CallResult, error) {
	if args == nil {
		args = map[string]any{}
	}
	call := &Call{ID: uuid.NewString(), Tool: t, Args: args}

	result, err := t.handler(ctx, call)
	if err == nil {
		return result, nil
	}

	var verr *validation.ValidatorError
	if errors.As(err, &verr) {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return rejectFromError(verr), nil
	}
	return nil, err
}

func (t *Tool) run(ctx context.Context, call *Call) (*feedback.CallResult, error) {
	if failed := t.checkStatic(call.Args); failed != nil {
		return feedback.Rejected(failed), nil
	}

	if t.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.callTimeout)
		defer cancel()
	}
	return t.engine.Validate(ctx, call.Args)
}

func rejectFromError(verr *validation.ValidatorError) *feedback.CallResult {
	results := make(map[string]feedback.Outcome, len(verr.Results)+1)
	for k, v := range verr.Results {
		results[k] = v
	}
	results[verr.Field] = feedback.Invalidf("validation could not complete: %v", verr.Err)
	return feedback.Rejected(results)
}
