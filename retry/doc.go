// Package retry provides simple exponential backoff retry logic for transient failures.
//
// # Overview
//
// This package offers a minimal retry mechanism with exponential backoff, used by the
// engine for best-effort compensation (quota rollback) and notification publishing
// where a failed attempt is worth a couple more tries before being swallowed.
//
// # Core Functions
//
//   - Do: Execute function with retry and exponential backoff
//   - DoWithResult: Execute function with retry, returns both result and error
//
// # Configuration Presets
//
//   - DefaultConfig(): 3 attempts, 100ms-5s delay (normal operations)
//   - Quick(): 10 attempts, 50ms-1s delay (hot paths)
//   - Persistent(): 30 attempts, 200ms-10s delay (critical resources)
//
// # Usage Examples
//
// Basic retry with defaults:
//
//	err := retry.Do(ctx, retry.DefaultConfig(), func() error {
//	    return store.RollbackConsume(ctx, id, window)
//	})
//
// Retry only selected errors:
//
//	cfg := retry.DefaultConfig()
//	cfg.ShouldRetry = func(err error) bool { return guardrailerrors.IsTransient(err) }
//	err := retry.Do(ctx, cfg, rollback)
//
// Mark an error as not worth retrying from inside the closure:
//
//	err := retry.Do(ctx, cfg, func() error {
//	    if badInput {
//	        return retry.NonRetryable(errors.New("bad identifier"))
//	    }
//	    return attempt()
//	})
//
// # Behavior
//
// Delays grow by Multiplier each attempt, capped at MaxDelay, with optional jitter
// (up to 25% of the base delay). Context cancellation is honored both between
// attempts and during backoff sleeps. The final error wraps the last attempt's
// error, so errors.Is / errors.As chains keep working.
package retry
