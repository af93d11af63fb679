// Package errors provides standardized error handling patterns for guardrail components.
//
// # Overview
//
// The errors package implements a three-class error classification system for the
// resource-control engine: Transient (temporary, retryable), Invalid (bad input,
// non-retryable), and Fatal (unrecoverable, stop processing).
//
// This classification enables intelligent error handling throughout the engine,
// allowing pipelines and stores to make informed decisions about retries, rollback
// compensation, and failure escalation without hardcoded error string matching.
//
// # Error Classification
//
// Errors are classified based on their type or content:
//
//   - Transient: rate-limit denials, timeouts, temporary unavailability (retry recommended)
//   - Invalid: bad keys, malformed limits, duplicate registrations (do not retry)
//   - Fatal: unresolvable backends, capacity exhaustion without a policy, bad configuration
//
// Classification integrates with Go's standard error handling, supporting
// errors.Is(), errors.As(), and wrapping chains.
//
// # Quick Start
//
// Use standard error variables for known conditions:
//
//	if _, ok := m.Lookup(name); !ok {
//	    return errors.ErrBackendNotFound
//	}
//
// Wrap errors with component context:
//
//	if err := store.Put(ctx, key, value, ttl); err != nil {
//	    return errors.Wrap(err, "CacheInterceptor", "Execute", "write-through")
//	}
//
// Check classification for compensation logic:
//
//	if err := store.RollbackConsume(ctx, id, window); err != nil {
//	    if errors.IsTransient(err) {
//	        // worth one more attempt before swallowing
//	    }
//	}
//
// # Error Wrapping Pattern
//
// All error wrapping follows the standardized format:
//
//	"component.method: action failed: <underlying error>"
//
// This keeps log lines greppable by component and operation while preserving the
// full unwrap chain for errors.Is / errors.As checks.
//
// # Integration with retry
//
// RetryConfig bridges classification into the retry package: ToRetryConfig()
// produces a retry.Config so callers can drive retry.Do with classified
// transient-only semantics.
package errors
