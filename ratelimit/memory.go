package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/c360/guardrail/errors"
	"github.com/c360/guardrail/metric"
	"github.com/c360/guardrail/notify"
)

// windowKey identifies one counter: the same identifier consumed under two
// different window lengths tracks independently.
type windowKey struct {
	identifier string
	window     time.Duration
}

// windowState is the mutable per-window counter.
type windowState struct {
	count     int
	resetTime time.Time
}

// Option configures a MemoryStore.
type Option func(*storeOptions)

type storeOptions struct {
	clock      func() time.Time
	sink       notify.Sink
	metricsReg *metric.MetricsRegistry
}

// WithClock overrides the time source for window arithmetic.
func WithClock(clock func() time.Time) Option {
	return func(o *storeOptions) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithSink routes allowed/denied/reset/clear notifications to the sink.
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

// MemoryStore is the in-memory fixed-window Store implementation. One mutex
// guards the window table, making the count check and increment of a
// consumption atomic within this store instance.
type MemoryStore struct {
	name string

	mu      sync.Mutex
	windows map[windowKey]*windowState

	clock   func() time.Time
	stats   *Statistics   // ALWAYS initialized
	metrics *storeMetrics // Optional, if metrics enabled
	sink    notify.Sink   // Optional
}

// NewMemoryStore creates a named in-memory rate-limit store.
func NewMemoryStore(name string, options ...Option) (*MemoryStore, error) {
	if name == "" {
		return nil, errors.WrapInvalid(
			fmt.Errorf("store name cannot be empty: %w", errors.ErrInvalidConfig),
			"ratelimit", "NewMemoryStore", "name validation")
	}

	opts := &storeOptions{clock: time.Now}
	for _, opt := range options {
		if opt != nil {
			opt(opts)
		}
	}

	var metrics *storeMetrics
	if opts.metricsReg != nil {
		var err error
		metrics, err = newStoreMetrics(opts.metricsReg, name)
		if err != nil {
			return nil, errors.WrapTransient(err, "ratelimit", "NewMemoryStore", "metrics registration")
		}
	}

	return &MemoryStore{
		name:    name,
		windows: make(map[windowKey]*windowState),
		clock:   opts.clock,
		stats:   NewStatistics(),
		metrics: metrics,
		sink:    opts.sink,
	}, nil
}

// Name returns the store name.
func (s *MemoryStore) Name() string { return s.name }

// TryConsume attempts one consumption for the identifier. The window is
// lazily advanced when its reset time has passed; the count check and
// increment happen in one critical section.
func (s *MemoryStore) TryConsume(
	ctx context.Context, identifier string, limit int, window time.Duration,
) (Result, error) {
	if err := validateArgs(identifier, limit, window); err != nil {
		return Result{}, err
	}

	var events []notify.LimitEvent

	s.mu.Lock()
	now := s.clock()
	k := windowKey{identifier: identifier, window: window}

	st, exists := s.windows[k]
	if !exists {
		st = &windowState{resetTime: now.Add(window)}
		s.windows[k] = st
		if s.metrics != nil {
			s.metrics.tracked.Set(float64(len(s.windows)))
		}
	} else if !now.Before(st.resetTime) {
		// Window rolled over: count restarts, reset time advances.
		st.count = 0
		st.resetTime = now.Add(window)
		s.stats.ResetWindow()
		if s.metrics != nil {
			s.metrics.resets.Inc()
		}
		events = append(events, notify.LimitEvent{
			Kind: notify.LimitReset, Store: s.name, Identifier: identifier,
			Window: window, ResetTime: st.resetTime,
		})
	}

	allowed := st.count < limit
	if allowed {
		st.count++
	}

	result := Result{
		Identifier:   identifier,
		CurrentCount: st.count,
		Limit:        limit,
		Window:       window,
		ResetTime:    st.resetTime,
		Zone:         s.name,
		Allowed:      allowed,
	}
	if !allowed {
		result.RetryAfter = st.resetTime.Sub(now)
	}

	if allowed {
		s.stats.Allow()
		if s.metrics != nil {
			s.metrics.allowed.Inc()
		}
		events = append(events, notify.LimitEvent{
			Kind: notify.LimitAllowed, Store: s.name, Identifier: identifier,
			CurrentCount: st.count, Limit: limit, Window: window, ResetTime: st.resetTime,
		})
	} else {
		s.stats.Deny()
		if s.metrics != nil {
			s.metrics.denied.Inc()
		}
		events = append(events, notify.LimitEvent{
			Kind: notify.LimitDenied, Store: s.name, Identifier: identifier,
			CurrentCount: st.count, Limit: limit, Window: window, ResetTime: st.resetTime,
		})
	}
	s.mu.Unlock()

	s.emit(ctx, events...)
	return result, nil
}

// RollbackConsume undoes one consumption for the current window. A window
// that already rolled over keeps its fresh count; the floor is zero.
func (s *MemoryStore) RollbackConsume(ctx context.Context, identifier string, window time.Duration) error {
	if identifier == "" {
		return errors.WrapInvalid(
			fmt.Errorf("identifier cannot be empty: %w", errors.ErrInvalidIdentifier),
			"ratelimit", "RollbackConsume", "identifier validation")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st, exists := s.windows[windowKey{identifier: identifier, window: window}]
	if !exists {
		return nil
	}
	now := s.clock()
	if !now.Before(st.resetTime) {
		// The incremented window already rolled over; nothing to undo.
		return nil
	}
	if st.count > 0 {
		st.count--
		s.stats.Rollback()
		if s.metrics != nil {
			s.metrics.rollbacks.Inc()
		}
	}
	return nil
}

// RemainingRequests projects the identifier's remaining quota without
// mutating window state.
func (s *MemoryStore) RemainingRequests(
	ctx context.Context, identifier string, limit int, window time.Duration,
) (int, error) {
	if err := validateArgs(identifier, limit, window); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	st, exists := s.windows[windowKey{identifier: identifier, window: window}]
	if !exists {
		return limit, nil
	}
	now := s.clock()
	if !now.Before(st.resetTime) {
		// Window elapsed; a fresh one would have the full quota.
		return limit, nil
	}
	if rem := limit - st.count; rem > 0 {
		return rem, nil
	}
	return 0, nil
}

// Clear resets all tracked identifiers.
func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.windows = make(map[windowKey]*windowState)
	if s.metrics != nil {
		s.metrics.tracked.Set(0)
	}
	s.mu.Unlock()

	s.emit(ctx, notify.LimitEvent{Kind: notify.LimitClear, Store: s.name})
	return nil
}

// Stats returns the store's always-on statistics.
func (s *MemoryStore) Stats() *Statistics { return s.stats }

// Close releases the window table.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	s.windows = make(map[windowKey]*windowState)
	s.mu.Unlock()
	return nil
}

// emit delivers notifications outside the store lock.
func (s *MemoryStore) emit(ctx context.Context, events ...notify.LimitEvent) {
	if s.sink == nil || len(events) == 0 {
		return
	}
	now := time.Now()
	for i := range events {
		events[i].Timestamp = now
		s.sink.OnLimitEvent(ctx, events[i])
	}
}

func validateArgs(identifier string, limit int, window time.Duration) error {
	if identifier == "" {
		return errors.WrapInvalid(
			fmt.Errorf("identifier cannot be empty: %w", errors.ErrInvalidIdentifier),
			"ratelimit", "TryConsume", "identifier validation")
	}
	if limit <= 0 {
		return errors.WrapInvalid(
			fmt.Errorf("limit %d must be positive: %w", limit, errors.ErrInvalidLimit),
			"ratelimit", "TryConsume", "limit validation")
	}
	if window <= 0 {
		return errors.WrapInvalid(
			fmt.Errorf("window %v must be positive: %w", window, errors.ErrInvalidWindow),
			"ratelimit", "TryConsume", "window validation")
	}
	return nil
}
