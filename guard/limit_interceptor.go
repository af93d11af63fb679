package guard

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"

	"github.com/c360/guardrail/config"
	"github.com/c360/guardrail/errors"
	"github.com/c360/guardrail/invoke"
	"github.com/c360/guardrail/key"
	"github.com/c360/guardrail/metric"
	"github.com/c360/guardrail/ratelimit"
	"github.com/c360/guardrail/retry"
)

// LimitInterceptor runs the rate-limit pipeline around a guarded call.
// Every resolved store must accept the call before the protected method
// runs; a denial or a later failure triggers a reverse-order compensating
// rollback of the stores that already counted it. Without a transaction
// across stores the rollback is best-effort: failures are retried briefly,
// then logged and dropped.
type LimitInterceptor struct {
	manager    *ratelimit.Manager
	managers   *registry[*ratelimit.Manager]
	resolvers  *registry[LimitResolver]
	keyGens    *key.Registry
	defaultGen key.Generator
	logger     *slog.Logger
	core       *metric.Metrics
	settings   config.Settings
}

// LimitOption configures a LimitInterceptor.
type LimitOption func(*LimitInterceptor)

// WithLimitLogger sets the interceptor's logger.
func WithLimitLogger(logger *slog.Logger) LimitOption {
	return func(li *LimitInterceptor) {
		li.logger = logger
	}
}

// WithLimitMetrics wires pipeline counters into the metrics registry's
// core set.
func WithLimitMetrics(registry *metric.MetricsRegistry) LimitOption {
	return func(li *LimitInterceptor) {
		if registry != nil {
			li.core = registry.CoreMetrics()
		}
	}
}

// WithNamedLimitManager registers a manager override reachable through
// LimitSpec.Manager.
func WithNamedLimitManager(name string, manager *ratelimit.Manager) LimitOption {
	return func(li *LimitInterceptor) {
		if err := li.managers.register(name, manager); err != nil {
			li.logger.Warn("limit manager registration skipped", "name", name, "error", err)
		}
	}
}

// WithLimitResolver registers a custom resolver reachable through
// LimitSpec.Resolver.
func WithLimitResolver(name string, resolver LimitResolver) LimitOption {
	return func(li *LimitInterceptor) {
		if err := li.resolvers.register(name, resolver); err != nil {
			li.logger.Warn("limit resolver registration skipped", "name", name, "error", err)
		}
	}
}

// WithLimitKeyGenerators sets the named generator registry shared with
// the host.
func WithLimitKeyGenerators(registry *key.Registry) LimitOption {
	return func(li *LimitInterceptor) {
		if registry != nil {
			li.keyGens = registry
		}
	}
}

// WithDefaultLimitKeyGenerator replaces the fallback generator for specs
// that name none.
func WithDefaultLimitKeyGenerator(gen key.Generator) LimitOption {
	return func(li *LimitInterceptor) {
		if gen != nil {
			li.defaultGen = gen
		}
	}
}

// NewLimitInterceptor creates the rate-limit pipeline over a default
// manager.
func NewLimitInterceptor(manager *ratelimit.Manager, settings config.Settings, opts ...LimitOption) *LimitInterceptor {
	li := &LimitInterceptor{
		manager:    manager,
		managers:   newRegistry[*ratelimit.Manager](),
		resolvers:  newRegistry[LimitResolver](),
		keyGens:    key.NewRegistry(),
		defaultGen: key.NewDefaultGenerator(),
		logger:     slog.Default(),
		settings:   settings,
	}
	for _, opt := range opts {
		opt(li)
	}
	return li
}

// Execute runs the guarded call under the limit spec. A skipped gate
// proceeds unmetered. A denial rolls back already-accepted stores and
// either returns a RateLimitExceededError or, for silent specs, a nil
// result. A proceed error rolls back every accepted store and propagates
// the original error unchanged.
func (li *LimitInterceptor) Execute(ctx context.Context, spec *LimitSpec, inv *invoke.Invocation) (any, error) {
	if spec == nil {
		return inv.Proceed(ctx)
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	lctx := newLimitContext(inv)

	pass, err := evaluateGate(ctx, spec.Unless, spec.Condition, inv)
	if err != nil {
		return nil, err
	}
	if !pass {
		lctx.skipped = true
		li.recordCall(metric.OutcomeSkipped)
		return inv.Proceed(ctx)
	}

	stores, err := li.resolveStores(ctx, spec, lctx)
	if err != nil {
		return nil, err
	}
	gen, err := li.generatorFor(spec.KeyGenerator)
	if err != nil {
		return nil, err
	}
	lctx.identifier = gen.Generate(inv).String()

	for _, st := range stores {
		result, err := st.TryConsume(ctx, lctx.identifier, spec.Limit, spec.Window)
		if err != nil {
			li.recordBackendError("consume")
			li.rollback(ctx, spec, lctx, metric.RollbackOnFailure)
			return nil, err
		}
		if !result.Allowed {
			li.recordCall(metric.OutcomeDenied)
			li.rollback(ctx, spec, lctx, metric.RollbackOnDenial)
			result.LimitName = spec.Name
			if spec.SilentOnExceeded {
				li.logger.Debug("rate limit denied silently",
					"limit", spec.Name,
					"identifier", lctx.identifier,
					"store", st.Name())
				return nil, nil
			}
			return nil, &RateLimitExceededError{Result: result}
		}
		lctx.committed = append(lctx.committed, st)
	}
	li.recordCall(metric.OutcomeAllowed)

	result, err := inv.Proceed(ctx)
	if err != nil {
		li.rollback(ctx, spec, lctx, metric.RollbackOnFailure)
		return nil, err
	}
	return result, nil
}

// rollback walks the accepted stores in reverse, undoing each consumption
// with a short transient-retry budget. Failures are logged and dropped so
// they never mask the original outcome.
func (li *LimitInterceptor) rollback(ctx context.Context, spec *LimitSpec, lctx *limitContext, trigger string) {
	if len(lctx.committed) == 0 {
		return
	}

	// The original call's cancellation must not starve compensation.
	ctx = context.WithoutCancel(ctx)
	cfg := retry.Config{
		MaxAttempts:  li.settings.RollbackRetries,
		InitialDelay: li.settings.RollbackRetryInterval,
		MaxDelay:     li.settings.RollbackRetryInterval * 8,
		Multiplier:   2.0,
		ShouldRetry:  errors.IsTransient,
	}

	for i := len(lctx.committed) - 1; i >= 0; i-- {
		st := lctx.committed[i]
		err := retry.Do(ctx, cfg, func() error {
			return st.RollbackConsume(ctx, lctx.identifier, spec.Window)
		})
		li.recordRollback(trigger, err == nil)
		if err != nil {
			li.logger.Warn("rate limit rollback abandoned",
				"limit", spec.Name,
				"store", st.Name(),
				"identifier", lctx.identifier,
				"trigger", trigger,
				"error", err)
		}
	}
	lctx.committed = lctx.committed[:0]
}

// resolveStores applies the same precedence as the cache pipeline: named
// resolver, then named manager (all of its backends), then declared names
// through the default manager.
func (li *LimitInterceptor) resolveStores(ctx context.Context, spec *LimitSpec, lctx *limitContext) ([]ratelimit.Store, error) {
	if spec.Resolver != "" {
		resolver, ok := li.resolvers.get(spec.Resolver)
		if !ok {
			return nil, errors.WrapInvalid(
				fmt.Errorf("limit resolver %q not among %v: %w",
					spec.Resolver, li.resolvers.names(), errors.ErrResolverNotFound),
				"guard", "resolveStores", "resolver lookup")
		}
		stores, err := resolver.Resolve(ctx, spec, lctx.inv)
		if err != nil {
			return nil, err
		}
		lctx.recordResources(stores)
		return stores, nil
	}

	manager := li.manager
	names := spec.Backends
	if spec.Manager != "" {
		override, ok := li.managers.get(spec.Manager)
		if !ok {
			return nil, errors.WrapInvalid(
				fmt.Errorf("limit manager %q not among %v: %w",
					spec.Manager, li.managers.names(), errors.ErrManagerNotFound),
				"guard", "resolveStores", "manager lookup")
		}
		manager = override
		names = override.StoreNames()
	}
	if len(names) == 0 {
		names = []string{""}
	}

	stores := make([]ratelimit.Store, 0, len(names))
	for _, name := range names {
		st, err := manager.Store(name)
		if err != nil {
			if stderrors.Is(err, errors.ErrBackendNotFound) && !li.settings.FailIfNotFound {
				li.logger.Warn("skipping unresolved limit backend", "backend", name)
				continue
			}
			return nil, err
		}
		stores = append(stores, st)
	}
	lctx.recordResources(stores)
	return stores, nil
}

func (li *LimitInterceptor) generatorFor(name string) (key.Generator, error) {
	if name == "" {
		return li.defaultGen, nil
	}
	gen, ok := li.keyGens.Get(name)
	if !ok {
		return nil, errors.WrapInvalid(
			fmt.Errorf("key generator %q not registered: %w", name, errors.ErrInvalidConfig),
			"guard", "generatorFor", "generator lookup")
	}
	return gen, nil
}

func (li *LimitInterceptor) recordCall(outcome string) {
	if li.core != nil {
		li.core.RecordGuardedCall(metric.PipelineRateLimit, outcome)
	}
}

func (li *LimitInterceptor) recordBackendError(operation string) {
	if li.core != nil {
		li.core.RecordBackendError(metric.PipelineRateLimit, operation)
	}
}

func (li *LimitInterceptor) recordRollback(trigger string, ok bool) {
	if li.core != nil {
		li.core.RecordRollback(trigger, ok)
	}
}
