package guard

import (
	"context"

	"github.com/c360/guardrail/cache"
	"github.com/c360/guardrail/invoke"
	"github.com/c360/guardrail/ratelimit"
)

// Resource is a handle to a backend that participated in one guarded call,
// recorded on the operation context for rollback and logging.
type Resource struct {
	// Name is the backend's store name.
	Name string

	// Pipeline is the pipeline that resolved it, metric.PipelineCache or
	// metric.PipelineRateLimit.
	Pipeline string
}

// CacheResolver maps a cache spec to the concrete stores it targets.
// A named resolver registered on the interceptor fully replaces the
// default name-through-manager resolution for specs that reference it.
type CacheResolver interface {
	Resolve(ctx context.Context, spec *CacheSpec, inv *invoke.Invocation) ([]cache.Store, error)
}

// CacheResolverFunc adapts a function to CacheResolver.
type CacheResolverFunc func(ctx context.Context, spec *CacheSpec, inv *invoke.Invocation) ([]cache.Store, error)

func (f CacheResolverFunc) Resolve(ctx context.Context, spec *CacheSpec, inv *invoke.Invocation) ([]cache.Store, error) {
	return f(ctx, spec, inv)
}

// LimitResolver maps a limit spec to the concrete stores that must all
// accept the call.
type LimitResolver interface {
	Resolve(ctx context.Context, spec *LimitSpec, inv *invoke.Invocation) ([]ratelimit.Store, error)
}

// LimitResolverFunc adapts a function to LimitResolver.
type LimitResolverFunc func(ctx context.Context, spec *LimitSpec, inv *invoke.Invocation) ([]ratelimit.Store, error)

func (f LimitResolverFunc) Resolve(ctx context.Context, spec *LimitSpec, inv *invoke.Invocation) ([]ratelimit.Store, error) {
	return f(ctx, spec, inv)
}
