package rules

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"mercator-hq/parley/pkg/feedback"
	"mercator-hq/parley/pkg/fieldspec"

	"github.com/sethvargo/go-retry"
)

// LookupOption configures a lookup step.
type LookupOption func(*lookup)

// WithRetries retries failed queries up to n times with exponential backoff
// starting at base.
func WithRetries(n int, base time.Duration) LookupOption {
	return func(l *lookup) {
		l.retries = n
		l.backoff = base
	}
}

type lookup struct {
	db         *sql.DB
	query      string
	args       []string
	exhaustive bool
	retries    int
	backoff    time.Duration
}

// Lookup returns a step that loads the candidate values of a field from a
// single-column SQL query. args name context fields whose values are bound
// to the query's positional parameters in order. Matching follows OneOf.
func Lookup(db *sql.DB, query string, args []string, exhaustive bool, opts ...LookupOption) (Step, error) {
	if db == nil {
		return nil, &RuleError{Rule: "lookup", Message: "no database configured"}
	}
	if query == "" {
		return nil, &RuleError{Rule: "lookup", Message: "query is empty"}
	}
	l := &lookup{
		db:         db,
		query:      query,
		args:       args,
		exhaustive: exhaustive,
		backoff:    50 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// MustLookup is like Lookup but panics on a configuration error.
func MustLookup(db *sql.DB, query string, args []string, exhaustive bool, opts ...LookupOption) Step {
	return must(Lookup(db, query, args, exhaustive, opts...))
}

func (l *lookup) Apply(ctx context.Context, value any, fctx fieldspec.Context) (feedback.Outcome, error) {
	candidates, err := l.candidates(ctx, fctx)
	if err != nil {
		return feedback.Outcome{}, err
	}
	return matchOutcome(value, candidates, l.exhaustive), nil
}

func (l *lookup) Hint(ctx context.Context, fctx fieldspec.Context) (*feedback.ValueHint, error) {
	candidates, err := l.candidates(ctx, fctx)
	if err != nil {
		return nil, err
	}
	return &feedback.ValueHint{Values: candidates, Exhaustive: l.exhaustive}, nil
}

func (l *lookup) candidates(ctx context.Context, fctx fieldspec.Context) ([]any, error) {
	bound := make([]any, len(l.args))
	for i, name := range l.args {
		bound[i], _ = fctx.Get(name)
	}

	base := l.backoff
	if base <= 0 {
		base = time.Millisecond
	}
	backoff := retry.WithMaxRetries(uint64(max(l.retries, 0)), retry.NewExponential(base))

	var out []any
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		values, err := l.query1(ctx, bound)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			return retry.RetryableError(err)
		}
		out = values
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("lookup query failed: %w", err)
	}
	return out, nil
}

func (l *lookup) query1(ctx context.Context, args []any) ([]any, error) {
	rows, err := l.db.QueryContext(ctx, l.query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	values := []any{}
	for rows.Next() {
		var v any
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		if b, ok := v.([]byte); ok {
			v = string(b)
		}
		values = append(values, v)
	}
	return values, rows.Err()
}
