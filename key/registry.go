package key

import (
	"fmt"
	"sync"

	"github.com/c360/guardrail/errors"
)

// Registry is a named generator registry. Operation specs reference
// generators by name; hosts register them at construction time.
type Registry struct {
	mu         sync.RWMutex
	generators map[string]Generator
}

// NewRegistry creates an empty generator registry.
func NewRegistry() *Registry {
	return &Registry{generators: make(map[string]Generator)}
}

// Register adds a named generator. Duplicate names are rejected.
func (r *Registry) Register(name string, gen Generator) error {
	if name == "" {
		return errors.WrapInvalid(
			fmt.Errorf("generator name cannot be empty: %w", errors.ErrInvalidConfig),
			"key", "Register", "name validation")
	}
	if gen == nil {
		return errors.WrapInvalid(
			fmt.Errorf("generator %q is nil: %w", name, errors.ErrInvalidConfig),
			"key", "Register", "generator validation")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.generators[name]; exists {
		return errors.WrapInvalid(
			fmt.Errorf("generator %q already registered: %w", name, errors.ErrInvalidConfig),
			"key", "Register", "duplicate registration")
	}
	r.generators[name] = gen
	return nil
}

// Get returns the named generator.
func (r *Registry) Get(name string) (Generator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	gen, ok := r.generators[name]
	return gen, ok
}

// Names returns the registered generator names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.generators))
	for name := range r.generators {
		names = append(names, name)
	}
	return names
}
