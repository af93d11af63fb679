// Package ratelimit provides the guardrail rate-limit store: fixed-window
// quota counters per identifier with best-effort rollback support, plus the
// manager that resolves stores by name.
package ratelimit

import (
	"context"
	"time"
)

// Result is an immutable snapshot of one consumption attempt.
type Result struct {
	// Identifier is the consumption key the attempt was counted under.
	Identifier string `json:"identifier"`

	// LimitName is the declarative limit's name, stamped by the pipeline;
	// stores leave it empty.
	LimitName string `json:"limit_name,omitempty"`

	// CurrentCount is the window's count after the attempt.
	CurrentCount int `json:"current_count"`

	// Limit is the maximum allowed per window.
	Limit int `json:"limit"`

	// Window is the fixed interval the count accumulates over.
	Window time.Duration `json:"window"`

	// ResetTime is when the current window rolls over.
	ResetTime time.Time `json:"reset_time"`

	// RetryAfter is the time until the next slot frees up; zero when the
	// attempt was allowed.
	RetryAfter time.Duration `json:"retry_after,omitempty"`

	// Zone names the store that answered.
	Zone string `json:"zone"`

	// Allowed reports whether the consumption was accepted.
	Allowed bool `json:"allowed"`
}

// Remaining returns how many requests are left in the current window.
func (r Result) Remaining() int {
	if rem := r.Limit - r.CurrentCount; rem > 0 {
		return rem
	}
	return 0
}

// Store is the rate-limit backend contract. Implementations must be safe
// for concurrent use: the count check and increment of TryConsume run inside
// the store's own critical section.
type Store interface {
	// Name returns the backend name the store was registered under.
	Name() string

	// TryConsume advances or initializes the identifier's window when the
	// reset time has passed, then atomically decides allowed = count < limit
	// and increments the count before returning when allowed.
	TryConsume(ctx context.Context, identifier string, limit int, window time.Duration) (Result, error)

	// RollbackConsume decrements the identifier's count for the current
	// window only — a window that already rolled over is never decremented —
	// floored at zero.
	RollbackConsume(ctx context.Context, identifier string, window time.Duration) error

	// RemainingRequests is a read-only projection of the identifier's
	// remaining quota. It never mutates window state.
	RemainingRequests(ctx context.Context, identifier string, limit int, window time.Duration) (int, error)

	// Clear resets all tracked identifiers.
	Clear(ctx context.Context) error

	// Close releases store resources.
	Close() error
}
