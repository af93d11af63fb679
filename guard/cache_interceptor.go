package guard

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"github.com/c360/guardrail/cache"
	"github.com/c360/guardrail/condition"
	"github.com/c360/guardrail/config"
	"github.com/c360/guardrail/errors"
	"github.com/c360/guardrail/invoke"
	"github.com/c360/guardrail/key"
	"github.com/c360/guardrail/metric"
)

// CacheInterceptor runs the cache pipeline around a guarded call:
// invalidate-before, read-through probe, the protected call itself,
// write-through, read-through miss completion, invalidate-after. The
// order is fixed; which steps fire depends on the CacheOperation.
type CacheInterceptor struct {
	manager    *cache.Manager
	managers   *registry[*cache.Manager]
	resolvers  *registry[CacheResolver]
	keyGens    *key.Registry
	defaultGen key.Generator
	handler    CacheErrorHandler
	logger     *slog.Logger
	core       *metric.Metrics
	settings   config.Settings
	dedup      *singleflight.Group
}

// CacheOption configures a CacheInterceptor.
type CacheOption func(*CacheInterceptor)

// WithCacheLogger sets the interceptor's logger.
func WithCacheLogger(logger *slog.Logger) CacheOption {
	return func(ci *CacheInterceptor) {
		ci.logger = logger
	}
}

// WithCacheErrorHandler replaces the default logging handler.
func WithCacheErrorHandler(handler CacheErrorHandler) CacheOption {
	return func(ci *CacheInterceptor) {
		ci.handler = handler
	}
}

// WithCacheMetrics wires pipeline counters into the metrics registry's
// core set.
func WithCacheMetrics(registry *metric.MetricsRegistry) CacheOption {
	return func(ci *CacheInterceptor) {
		if registry != nil {
			ci.core = registry.CoreMetrics()
		}
	}
}

// WithNamedCacheManager registers a manager override reachable through
// CacheSpec.Manager. Duplicate names keep the first registration.
func WithNamedCacheManager(name string, manager *cache.Manager) CacheOption {
	return func(ci *CacheInterceptor) {
		if err := ci.managers.register(name, manager); err != nil {
			ci.logger.Warn("cache manager registration skipped", "name", name, "error", err)
		}
	}
}

// WithCacheResolver registers a custom resolver reachable through
// CacheSpec.Resolver.
func WithCacheResolver(name string, resolver CacheResolver) CacheOption {
	return func(ci *CacheInterceptor) {
		if err := ci.resolvers.register(name, resolver); err != nil {
			ci.logger.Warn("cache resolver registration skipped", "name", name, "error", err)
		}
	}
}

// WithKeyGenerators sets the named generator registry shared with the host.
func WithKeyGenerators(registry *key.Registry) CacheOption {
	return func(ci *CacheInterceptor) {
		if registry != nil {
			ci.keyGens = registry
		}
	}
}

// WithDefaultKeyGenerator replaces the fallback generator used by specs
// that name none.
func WithDefaultKeyGenerator(gen key.Generator) CacheOption {
	return func(ci *CacheInterceptor) {
		if gen != nil {
			ci.defaultGen = gen
		}
	}
}

// WithLoadDeduplication collapses concurrent read-through misses for the
// same key into a single protected call; the other callers share its
// result. Off by default.
func WithLoadDeduplication() CacheOption {
	return func(ci *CacheInterceptor) {
		ci.dedup = &singleflight.Group{}
	}
}

// NewCacheInterceptor creates the cache pipeline over a default manager.
func NewCacheInterceptor(manager *cache.Manager, settings config.Settings, opts ...CacheOption) *CacheInterceptor {
	ci := &CacheInterceptor{
		manager:    manager,
		managers:   newRegistry[*cache.Manager](),
		resolvers:  newRegistry[CacheResolver](),
		keyGens:    key.NewRegistry(),
		defaultGen: key.NewDefaultGenerator(),
		logger:     slog.Default(),
		settings:   settings,
	}
	for _, opt := range opts {
		opt(ci)
	}
	if ci.handler == nil {
		ci.handler = NewLoggingErrorHandler(ci.logger)
	}
	return ci
}

// Execute runs the guarded call under op's cache policies. A read-through
// hit returns the cached value without invoking the protected method, but
// after-invocation invalidations still run. The protected method's error
// propagates unchanged and skips the result-dependent steps.
func (ci *CacheInterceptor) Execute(ctx context.Context, op *CacheOperation, inv *invoke.Invocation) (any, error) {
	if op == nil {
		return inv.Proceed(ctx)
	}
	octx := newCacheContext(inv)

	for i := range op.Invalidate {
		if !op.Invalidate[i].BeforeInvocation {
			continue
		}
		if err := ci.invalidate(ctx, &op.Invalidate[i], octx); err != nil {
			return nil, err
		}
	}

	var (
		readStores []cache.Store
		readKey    key.Key
		readActive bool
		hit        bool
		result     any
	)
	if op.Read != nil {
		pass, err := evaluateGate(ctx, op.Read.Unless, op.Read.Condition, inv)
		if err != nil {
			return nil, err
		}
		if pass {
			readActive = true
			readStores, err = ci.resolveStores(ctx, op.Read, octx)
			if err != nil {
				return nil, err
			}
			gen, err := ci.generatorFor(op.Read.KeyGenerator)
			if err != nil {
				return nil, err
			}
			readKey = octx.keyFor(op.Read.KeyGenerator, gen)

			hit, result, err = ci.probe(ctx, readStores, readKey, octx)
			if err != nil {
				return nil, err
			}
		} else {
			ci.recordCall(metric.OutcomeSkipped)
		}
	}

	// A hit skips only the result-dependent steps; invalidate-after still
	// runs at the end.
	if !hit {
		var err error
		result, err = ci.proceed(ctx, inv, readKey, readActive)
		if err != nil {
			ci.recordCall(metric.OutcomeError)
			return nil, err
		}
		octx.result = result

		for i := range op.Write {
			if err := ci.writeThrough(ctx, &op.Write[i], octx, result); err != nil {
				return nil, err
			}
		}

		if readActive && octx.miss {
			for _, st := range readStores {
				if err := st.Put(readKey, result, op.Read.TTL); err != nil {
					ci.recordBackendError(string(OpPut))
					if herr := ci.handler.Handle(ctx, OpPut, st.Name(), readKey, err); herr != nil {
						return nil, herr
					}
				}
			}
		}
	}

	for i := range op.Invalidate {
		if op.Invalidate[i].BeforeInvocation {
			continue
		}
		if err := ci.invalidate(ctx, &op.Invalidate[i], octx); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// probe walks the read stores in resolution order and stops at the first
// present entry. Backend failures go through the error handler; a swallowed
// failure reads like a miss on that store.
func (ci *CacheInterceptor) probe(ctx context.Context, stores []cache.Store, k key.Key, octx *cacheContext) (bool, any, error) {
	for _, st := range stores {
		entry, ok, err := st.Get(k)
		if err != nil {
			ci.recordBackendError(string(OpGet))
			if herr := ci.handler.Handle(ctx, OpGet, st.Name(), k, err); herr != nil {
				return false, nil, herr
			}
			continue
		}
		if ok {
			octx.hit = entry
			ci.recordCall(metric.OutcomeHit)
			return true, entry.Value, nil
		}
	}
	octx.miss = true
	ci.recordCall(metric.OutcomeMiss)
	return false, nil, nil
}

// proceed invokes the protected method, collapsing concurrent same-key
// misses when load deduplication is enabled.
func (ci *CacheInterceptor) proceed(ctx context.Context, inv *invoke.Invocation, k key.Key, readActive bool) (any, error) {
	if ci.dedup != nil && readActive && k != "" {
		result, err, _ := ci.dedup.Do(string(k), func() (any, error) {
			return inv.Proceed(ctx)
		})
		return result, err
	}
	return inv.Proceed(ctx)
}

// writeThrough applies one write policy: every resolved backend receives
// the produced result, failures isolated per backend.
func (ci *CacheInterceptor) writeThrough(ctx context.Context, spec *CacheSpec, octx *cacheContext, result any) error {
	pass, err := evaluateGate(ctx, spec.Unless, spec.Condition, octx.inv)
	if err != nil {
		return err
	}
	if !pass {
		return nil
	}

	stores, err := ci.resolveStores(ctx, spec, octx)
	if err != nil {
		return err
	}
	gen, err := ci.generatorFor(spec.KeyGenerator)
	if err != nil {
		return err
	}
	k := octx.keyFor(spec.KeyGenerator, gen)

	for _, st := range stores {
		if err := st.Put(k, result, spec.TTL); err != nil {
			ci.recordBackendError(string(OpPut))
			if herr := ci.handler.Handle(ctx, OpPut, st.Name(), k, err); herr != nil {
				return herr
			}
		}
	}
	return nil
}

// invalidate applies one invalidation policy, clearing whole backends or
// evicting the generated key.
func (ci *CacheInterceptor) invalidate(ctx context.Context, spec *InvalidateSpec, octx *cacheContext) error {
	pass, err := evaluateGate(ctx, spec.Unless, spec.Condition, octx.inv)
	if err != nil {
		return err
	}
	if !pass {
		return nil
	}

	stores, err := ci.resolveStores(ctx, &spec.CacheSpec, octx)
	if err != nil {
		return err
	}

	if spec.AllEntries {
		for _, st := range stores {
			if _, err := st.Clear(); err != nil {
				ci.recordBackendError(string(OpClear))
				if herr := ci.handler.Handle(ctx, OpClear, st.Name(), "", err); herr != nil {
					return herr
				}
			}
		}
		return nil
	}

	gen, err := ci.generatorFor(spec.KeyGenerator)
	if err != nil {
		return err
	}
	k := octx.keyFor(spec.KeyGenerator, gen)
	for _, st := range stores {
		if _, err := st.EvictIfPresent(k); err != nil {
			ci.recordBackendError(string(OpEvict))
			if herr := ci.handler.Handle(ctx, OpEvict, st.Name(), k, err); herr != nil {
				return herr
			}
		}
	}
	return nil
}

// resolveStores applies resolution precedence: named resolver override,
// then named manager override (all of its backends), then the declared
// names through the default manager. Unknown backends are skipped or
// propagated per the engine's strictness setting.
func (ci *CacheInterceptor) resolveStores(ctx context.Context, spec *CacheSpec, octx *cacheContext) ([]cache.Store, error) {
	if spec.Resolver != "" {
		resolver, ok := ci.resolvers.get(spec.Resolver)
		if !ok {
			return nil, errors.WrapInvalid(
				fmt.Errorf("cache resolver %q not among %v: %w",
					spec.Resolver, ci.resolvers.names(), errors.ErrResolverNotFound),
				"guard", "resolveStores", "resolver lookup")
		}
		stores, err := resolver.Resolve(ctx, spec, octx.inv)
		if err != nil {
			return nil, err
		}
		octx.recordResources(stores)
		return stores, nil
	}

	manager := ci.manager
	names := spec.Backends
	if spec.Manager != "" {
		override, ok := ci.managers.get(spec.Manager)
		if !ok {
			return nil, errors.WrapInvalid(
				fmt.Errorf("cache manager %q not among %v: %w",
					spec.Manager, ci.managers.names(), errors.ErrManagerNotFound),
				"guard", "resolveStores", "manager lookup")
		}
		manager = override
		names = override.StoreNames()
	}
	if len(names) == 0 {
		names = []string{""}
	}

	stores := make([]cache.Store, 0, len(names))
	for _, name := range names {
		st, err := manager.Store(name)
		if err != nil {
			if stderrors.Is(err, errors.ErrBackendNotFound) && !ci.settings.FailIfNotFound {
				ci.logger.Warn("skipping unresolved cache backend", "backend", name)
				continue
			}
			return nil, err
		}
		stores = append(stores, st)
	}
	octx.recordResources(stores)
	return stores, nil
}

func (ci *CacheInterceptor) generatorFor(name string) (key.Generator, error) {
	if name == "" {
		return ci.defaultGen, nil
	}
	gen, ok := ci.keyGens.Get(name)
	if !ok {
		return nil, errors.WrapInvalid(
			fmt.Errorf("key generator %q not registered: %w", name, errors.ErrInvalidConfig),
			"guard", "generatorFor", "generator lookup")
	}
	return gen, nil
}

func (ci *CacheInterceptor) recordCall(outcome string) {
	if ci.core != nil {
		ci.core.RecordGuardedCall(metric.PipelineCache, outcome)
	}
}

func (ci *CacheInterceptor) recordBackendError(operation string) {
	if ci.core != nil {
		ci.core.RecordBackendError(metric.PipelineCache, operation)
	}
}

// evaluateGate applies the unless-then-condition gating both pipelines
// share: unless true disables the policy, condition false disables it,
// evaluation errors abort the call.
func evaluateGate(ctx context.Context, unless, cond condition.Condition, inv *invoke.Invocation) (bool, error) {
	if unless != nil {
		skip, err := unless.Evaluate(ctx, inv)
		if err != nil {
			return false, errors.Wrap(err, "guard", "evaluateGate", "unless evaluation")
		}
		if skip {
			return false, nil
		}
	}
	if cond != nil {
		pass, err := cond.Evaluate(ctx, inv)
		if err != nil {
			return false, errors.Wrap(err, "guard", "evaluateGate", "condition evaluation")
		}
		return pass, nil
	}
	return true, nil
}
