package cache

import (
	"fmt"
	"sort"
	"sync"

	"github.com/c360/guardrail/config"
	"github.com/c360/guardrail/errors"
	"github.com/c360/guardrail/metric"
	"github.com/c360/guardrail/notify"
)

// Manager is the named registry of cache stores. Unknown names are either
// auto-created as in-memory stores from the engine settings or rejected,
// depending on configuration.
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
			"cache", "Register", "store validation")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.stores[store.Name()]; exists {
		return errors.WrapInvalid(
			fmt.Errorf("cache store %q: %w", store.Name(), errors.ErrDuplicateBackend),
			"cache", "Register", "duplicate registration")
	}
	m.stores[store.Name()] = store
	if m.core != nil {
		m.core.ActiveStores.WithLabelValues(metric.PipelineCache).Inc()
	}
	return nil
}

// Store resolves a backend name to a store instance. Unknown names are
// auto-created from the engine settings when auto-creation is enabled;
// otherwise resolution fails with a not-found error.
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
			fmt.Errorf("cache store %q: %w", name, errors.ErrBackendNotFound),
			"cache", "Store", "backend resolution")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Re-check under the write lock: another caller may have created it.
	if store, exists := m.stores[name]; exists {
		return store, nil
	}

	store, err := m.buildDefaultStore(name)
	if err != nil {
		return nil, err
	}
	m.stores[name] = store
	if m.core != nil {
		m.core.ActiveStores.WithLabelValues(metric.PipelineCache).Inc()
	}
	return store, nil
}

// buildDefaultStore creates an in-memory store from the engine settings.
func (m *Manager) buildDefaultStore(name string) (Store, error) {
	policy, err := PolicyFromName(m.settings.EvictionPolicy)
	if err != nil {
		return nil, err
	}

	opts := []Option{
		WithMaxEntries(m.settings.MaxEntries),
		WithPolicy(policy),
		WithDefaultTTL(m.settings.DefaultTTL),
	}
	if m.settings.NotificationsEnabled && m.sink != nil {
		opts = append(opts, WithSink(m.sink))
	}
	if m.settings.MetricsEnabled && m.metricsReg != nil {
		opts = append(opts, WithMetrics(m.metricsReg))
	}
	return NewMemoryStore(name, opts...)
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
			m.core.ActiveStores.WithLabelValues(metric.PipelineCache).Dec()
		}
	}
	return firstErr
}
