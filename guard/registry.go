package guard

import (
	"fmt"
	"sort"
	"sync"

	"github.com/c360/guardrail/errors"
)

// registry is a small named collection used for resolver and manager
// overrides. Registration happens at wiring time, lookups on every call,
// so reads take the cheap path.
type registry[T any] struct {
	mu    sync.RWMutex
	items map[string]T
}

func newRegistry[T any]() *registry[T] {
	return &registry[T]{items: make(map[string]T)}
}

func (r *registry[T]) register(name string, item T) error {
	if name == "" {
		return errors.WrapInvalid(
			fmt.Errorf("registration name cannot be empty: %w", errors.ErrInvalidConfig),
			"guard", "registry.register", "name validation")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[name]; exists {
		return errors.WrapInvalid(
			fmt.Errorf("name %q: %w", name, errors.ErrDuplicateBackend),
			"guard", "registry.register", "duplicate check")
	}
	r.items[name] = item
	return nil
}

func (r *registry[T]) get(name string) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, ok := r.items[name]
	return item, ok
}

func (r *registry[T]) names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.items))
	for name := range r.items {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
