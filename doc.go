// Package guardrail provides a resource-control engine that guards method
// calls with declarative caching and rate limiting.
//
// # Philosophy: Guard the Call, Not the Code
//
// Guardrail sits between a caller and a protected method. The host wraps
// the call in an invocation descriptor, attaches a declarative spec, and
// the engine decides whether the method runs at all, whether its result
// comes from a cache instead, and how many times it may run per window.
// The protected code never sees any of it.
//
// Two symmetric pipelines share the same building blocks:
//
//   - Cache pipeline: invalidate-before, read-through probe, protected
//     call, write-through, miss completion, invalidate-after. A hit on
//     any backend short-circuits the call entirely.
//   - Rate-limit pipeline: every resolved limit store must accept the
//     call before it runs; a denial or a failed call triggers a
//     reverse-order compensating rollback of the stores that already
//     counted it.
//
// # Architecture
//
//	┌─────────────────────────────────────┐
//	│         guard (pipelines)           │  Spec decoding, gating,
//	│  CacheInterceptor  LimitInterceptor │  resolution, rollback
//	└─────────────────────────────────────┘
//	           ↓ resolves through
//	┌─────────────────────────────────────┐
//	│       cache.Manager / ratelimit     │  Named backends,
//	│            .Manager                 │  auto-create or fail-fast
//	└─────────────────────────────────────┘
//	           ↓ operates on
//	┌─────────────────────────────────────┐
//	│   cache.Store / ratelimit.Store     │  Per-store critical
//	│     (in-memory, mutex-guarded)      │  sections, lazy expiry
//	└─────────────────────────────────────┘
//
// Every store guards its own state; no lock ever spans two stores. That
// is why multi-store rate limiting compensates instead of committing: the
// pipeline consumes store by store and rolls back in reverse when a later
// store says no.
//
// # Engine Packages
//
// Pipelines:
//   - guard: cache and rate-limit interceptors, declarative specs,
//     backend resolution, error-handler policy, compensating rollback
//
// Stores:
//   - cache: Store interface, in-memory store, eviction policies
//     (FIFO/LRU/LFU), manager registry
//   - ratelimit: fixed-window Store interface, in-memory store, manager
//     registry
//
// Building blocks:
//   - invoke: invocation descriptor with an at-most-once Proceed
//   - key: deterministic cache-key generation and generator registry
//   - condition: composable gating predicates over invocations
//   - notify: cache and limit events, slog and NATS sinks, bounded
//     async dispatcher
//
// Infrastructure:
//   - config: property sources (maps, env, .env), engine settings
//   - metric: Prometheus registry and engine counters
//   - errors: classified errors (transient/invalid/fatal) and sentinels
//   - retry: exponential backoff with classification-aware predicates
//
// # Usage
//
// Guarding a lookup with a read-through cache:
//
//	settings := config.DefaultSettings()
//	manager := cache.NewManager(settings)
//	ci := guard.NewCacheInterceptor(manager, settings)
//
//	op := &guard.CacheOperation{
//	    Read: &guard.CacheSpec{Backends: []string{"users"}, TTL: 5 * time.Minute},
//	}
//	inv := invoke.NewInvocation(svc,
//	    invoke.Method{Receiver: "UserService", Name: "Load"},
//	    func(ctx context.Context) (any, error) { return svc.Load(ctx, id) },
//	    invoke.WithArgs(id))
//
//	result, err := ci.Execute(ctx, op, inv)
//
// Limiting the same call to 100 per minute per user:
//
//	limits := ratelimit.NewManager(settings)
//	li := guard.NewLimitInterceptor(limits, settings)
//
//	spec := &guard.LimitSpec{
//	    Backends: []string{"api"}, Name: "perUser",
//	    Limit: 100, Window: time.Minute,
//	}
//	result, err := li.Execute(ctx, spec, inv)
//
// A denied call returns a *guard.RateLimitExceededError carrying the
// denying store's Result: current count, limit, window, and retry-after.
//
// # Design Principles
//
// Observability is not optional:
//   - Every store collects statistics unconditionally
//   - Prometheus metrics and notification sinks are opt-in layers on top
//
// Failure isolation:
//   - One cache backend failing never aborts its siblings in the same step
//   - The error handler decides whether a backend failure aborts the call
//   - Rollback failures never mask the original outcome
//
// Determinism:
//   - Key generation is pure: same invocation, same key
//   - One generated key per call, shared by every pipeline step
package guardrail
