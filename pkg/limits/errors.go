package limits

import (
	"fmt"
	"time"
)

// Scopes of a limit.
const (
	ScopeTool   = "tool"
	ScopeClient = "client"
)

// LimitError is returned for calls refused by a call limit.
type LimitError struct {
	// Tool is the called tool.
	Tool string

	// Client is the authenticated client, if any.
	Client string

	// Scope is ScopeTool or ScopeClient.
	Scope string

	// Limit names the refusing limit, such as "requests_per_minute".
	Limit string

	// RetryAfter is how long until the call would be admitted. It is zero
	// for concurrency limits.
	RetryAfter time.Duration
}

// Error implements the error interface.
func (e *LimitError) Error() string {
	subject := "tool " + e.Tool
	if e.Scope == ScopeClient {
		subject = "client " + e.Client
	}
	if e.RetryAfter > 0 {
		return fmt.Sprintf("call limit exceeded for %s (%s), retry after %s", subject, e.Limit, e.RetryAfter.Round(time.Millisecond))
	}
	return fmt.Sprintf("call limit exceeded for %s (%s)", subject, e.Limit)
}
