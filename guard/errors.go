package guard

import (
	"fmt"

	"github.com/c360/guardrail/errors"
	"github.com/c360/guardrail/ratelimit"
)

// RateLimitExceededError reports a denied call together with the denying
// store's Result snapshot, so callers can surface limit, remaining window,
// and retry hints. It unwraps to errors.ErrRateLimitExceeded.
type RateLimitExceededError struct {
	Result ratelimit.Result
}

func (e *RateLimitExceededError) Error() string {
	name := e.Result.LimitName
	if name == "" {
		name = e.Result.Zone
	}
	return fmt.Sprintf("rate limit %q exceeded for %q: %d/%d in %s, retry after %s",
		name, e.Result.Identifier, e.Result.CurrentCount, e.Result.Limit,
		e.Result.Window, e.Result.RetryAfter)
}

func (e *RateLimitExceededError) Unwrap() error {
	return errors.ErrRateLimitExceeded
}
