package cache

import (
	"time"

	"github.com/c360/guardrail/metric"
	"github.com/c360/guardrail/notify"
)

// Option configures a MemoryStore using the functional options pattern.
type Option func(*storeOptions)

// storeOptions holds internal configuration for store construction.
// Stats are ALWAYS collected; metrics and notifications are opt-in.
type storeOptions struct {
	maxEntries int
	policy     Policy
	defaultTTL time.Duration
	clock      func() time.Time
	sink       notify.Sink
	metricsReg *metric.MetricsRegistry
}

// WithMaxEntries bounds the store. Zero or negative means unbounded.
func WithMaxEntries(n int) Option {
	return func(o *storeOptions) {
		if n > 0 {
			o.maxEntries = n
		}
	}
}

// WithPolicy sets the eviction policy used at capacity. Without a policy a
// full store rejects new keys with a capacity error.
func WithPolicy(p Policy) Option {
	return func(o *storeOptions) {
		o.policy = p
	}
}

// WithDefaultTTL applies a TTL to entries written without an explicit one.
func WithDefaultTTL(ttl time.Duration) Option {
	return func(o *storeOptions) {
		if ttl > 0 {
			o.defaultTTL = ttl
		}
	}
}

// WithClock overrides the time source. Tests use this to exercise TTL and
// window behavior without sleeping.
func WithClock(clock func() time.Time) Option {
	return func(o *storeOptions) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithSink routes lifecycle notifications to the given sink. A nil sink
// disables emission without changing store behavior.
func WithSink(sink notify.Sink) Option {
	return func(o *storeOptions) {
		o.sink = sink
	}
}

// WithMetrics exposes the store's statistics as Prometheus metrics.
// If registry is nil, this option is ignored.
func WithMetrics(registry *metric.MetricsRegistry) Option {
	return func(o *storeOptions) {
		if registry != nil {
			o.metricsReg = registry
		}
	}
}

func applyOptions(options ...Option) *storeOptions {
	opts := &storeOptions{
		clock: time.Now,
	}
	for _, opt := range options {
		if opt != nil {
			opt(opts)
		}
	}
	return opts
}
