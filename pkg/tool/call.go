package tool

import (
	"context"

	"mercator-hq/parley/pkg/feedback"
)

// Call is one invocation of a tool.
type Call struct {
	// ID uniquely identifies the call in logs and traces.
	ID string

	// Tool is the tool being invoked.
	Tool *Tool

	// Args are the caller's arguments. Handlers must not modify them.
	Args map[string]any

	// Replayed is set when the result came from the idempotency cache.
	Replayed bool
}

// Handler runs a call. A non-nil error is a *validation.ValidatorError, a
// context error, or an error from middleware that refused the call.
type Handler func(ctx context.Context, call *Call) (*feedback.CallResult, error)

// Middleware decorates a Handler.
type Middleware func(next Handler) Handler

// chain applies middleware so that the first one listed is outermost.
func chain(h Handler, mws []Middleware) Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
