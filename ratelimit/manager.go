package ratelimit

import (
	"fmt"
	"sort"
	"sync"

	"github.com/c360/guardrail/config"
	"github.com/c360/guardrail/errors"
	"github.com/c360/guardrail/metric"
	"github.com/c360/guardrail/notify"
)

// Manager is the named registry of rate-limit stores, mirroring the cache
// manager's auto-create / fail-fast behavior.
type Manager struct {
	mu     sync.RWMutex
	stores map[string]Store

	settings   config.Settings
	sink       notify.Sink
	metricsReg *metric.MetricsRegistry
	core       *metric.Metrics
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithManagerSink routes notifications from auto-created stores to the sink.
func WithManagerSink(sink notify.Sink) ManagerOption {
	return func(m *Manager) {
		m.sink = sink
	}
}

// WithManagerMetrics enables Prometheus metrics on auto-created stores and
// keeps the engine's active-store gauge current.
func WithManagerMetrics(registry *metric.MetricsRegistry) ManagerOption {
	return func(m *Manager) {
		if registry != nil {
			m.metricsReg = registry
			m.core = registry.CoreMetrics()
		}
	}
}

// NewManager creates a store manager with the given engine settings.
func NewManager(settings config.Settings, opts ...ManagerOption) *Manager {
	m := &Manager{
		stores:   make(map[string]Store),
		settings: settings,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

// Register adds a pre-built store under its name. Duplicate names are
// rejected.
func (m *Manager) Register(store Store) error {
	if store == nil || store.Name() == "" {
		return errors.WrapInvalid(
			fmt.Errorf("store must have a name: %w", errors.ErrInvalidConfig),
			"ratelimit", "Register", "store validation")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.stores[store.Name()]; exists {
		return errors.WrapInvalid(
			fmt.Errorf("ratelimit store %q: %w", store.Name(), errors.ErrDuplicateBackend),
			"ratelimit", "Register", "duplicate registration")
	}
	m.stores[store.Name()] = store
	if m.core != nil {
		m.core.ActiveStores.WithLabelValues(metric.PipelineRateLimit).Inc()
	}
	return nil
}

// Store resolves a backend name to a store instance, auto-creating an
// in-memory store for unknown names when enabled.
func (m *Manager) Store(name string) (Store, error) {
	if name == "" {
		name = m.settings.DefaultBackend
	}

	m.mu.RLock()
	store, exists := m.stores[name]
	m.mu.RUnlock()
	if exists {
		return store, nil
	}

	if !m.settings.AutoCreateBackends {
		return nil, errors.WrapFatal(
			fmt.Errorf("ratelimit store %q: %w", name, errors.ErrBackendNotFound),
			"ratelimit", "Store", "backend resolution")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if store, exists := m.stores[name]; exists {
		return store, nil
	}

	var opts []Option
	if m.settings.NotificationsEnabled && m.sink != nil {
		opts = append(opts, WithSink(m.sink))
	}
	if m.settings.MetricsEnabled && m.metricsReg != nil {
		opts = append(opts, WithMetrics(m.metricsReg))
	}
	store, err := NewMemoryStore(name, opts...)
	if err != nil {
		return nil, err
	}
	m.stores[name] = store
	if m.core != nil {
		m.core.ActiveStores.WithLabelValues(metric.PipelineRateLimit).Inc()
	}
	return store, nil
}

// StoreNames returns the registered store names, sorted.
func (m *Manager) StoreNames() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.stores))
	for name := range m.stores {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CloseAll closes every registered store, returning the first error.
func (m *Manager) CloseAll() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var firstErr error
	for _, store := range m.stores {
		if err := store.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		if m.core != nil {
			m.core.ActiveStores.WithLabelValues(metric.PipelineRateLimit).Dec()
		}
	}
	return firstErr
}
