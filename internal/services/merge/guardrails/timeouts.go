// Package guardrails holds cross cutting safety helpers for merge runs
package guardrails

import (
	"context"
	"time"
)

// Timeouts is the budget bundle for one run.
// Zero values mean no extra timeout at that level
type Timeouts struct {
	// Run is the overall budget of a run
	Run time.Duration

	// Source caps fetching one source, all attempts included
	Source time.Duration

	// Publish caps pushing every artifact to every target
	Publish time.Duration

	// DB caps a single ledger or observation write
	DB time.Duration
}

// WithRun returns a context limited by the run budget without extending any parent deadline
func WithRun(parent context.Context, t Timeouts) (context.Context, context.CancelFunc) {
	return withChildTimeout(parent, t.Run)
}

// ForSource returns a sub context for one source fetch
func ForSource(parent context.Context, t Timeouts) (context.Context, context.CancelFunc) {
	return withChildTimeout(parent, t.Source)
}

// ForPublish returns a sub context for the publish phase
func ForPublish(parent context.Context, t Timeouts) (context.Context, context.CancelFunc) {
	return withChildTimeout(parent, t.Publish)
}

// ForDB returns a sub context for one store write
func ForDB(parent context.Context, t Timeouts) (context.Context, context.CancelFunc) {
	return withChildTimeout(parent, t.DB)
}

// Remaining returns the time until the deadline on ctx or zero when none is set or already expired
func Remaining(ctx context.Context) time.Duration {
	if dl, ok := ctx.Deadline(); ok {
		if d := time.Until(dl); d > 0 {
			return d
		}
	}
	return 0
}

// withChildTimeout picks the tighter of d and the parent remainder.
// A zero d returns a cancelable child inheriting the parent deadline
func withChildTimeout(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(parent)
	}
	if rem := Remaining(parent); rem > 0 && rem < d {
		return context.WithTimeout(parent, rem)
	}
	return context.WithTimeout(parent, d)
}
