package limits

import (
	"context"

	"mercator-hq/parley/pkg/feedback"
	"mercator-hq/parley/pkg/tool"
)

// Middleware refuses calls over their limits with a *LimitError.
func (m *Manager) Middleware() tool.Middleware {
	return func(next tool.Handler) tool.Handler {
		return func(ctx context.Context, call *tool.Call) (*feedback.CallResult, error) {
			release, err := m.Acquire(ctx, call.Tool.Name())
			if err != nil {
				return nil, err
			}
			defer release()
			return next(ctx, call)
		}
	}
}
