package key

import (
	"sort"

	"github.com/c360/guardrail/invoke"
)

// Generator derives a deterministic, non-empty key from an invocation.
// Equal inputs must always produce equal keys. Generators have no side
// effects; inputs that cannot be deterministically encoded are a caller bug.
type Generator interface {
	Generate(inv *invoke.Invocation) Key
}

// ConditionalGenerator is a Generator that can decline invocations it does
// not know how to key.
type ConditionalGenerator interface {
	Generator
	CanGenerate(method invoke.Method, target any) bool
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(inv *invoke.Invocation) Key

// Generate calls the function.
func (f GeneratorFunc) Generate(inv *invoke.Invocation) Key { return f(inv) }

// DefaultGenerator implements the default keying policy: zero arguments map
// to the canonical Empty key, a single argument (positional or named) is
// used directly as the key, and two or more arguments produce a composite
// key over all positional and named values.
type DefaultGenerator struct{}

// NewDefaultGenerator returns the default key generator.
func NewDefaultGenerator() *DefaultGenerator { return &DefaultGenerator{} }

// Generate derives the key per the default policy.
func (g *DefaultGenerator) Generate(inv *invoke.Invocation) Key {
	args := inv.Args()
	named := inv.NamedArgs()

	switch len(args) + len(named) {
	case 0:
		return Empty
	case 1:
		if len(args) == 1 {
			return Of(args[0])
		}
		for _, v := range named {
			return Of(v)
		}
	}
	return Compose(args, named)
}

// prioritized pairs a generator with its explicit sort key. Lower priority
// values sort first.
type prioritized struct {
	gen      Generator
	priority int
	order    int
}

// Composite chains generators in priority order: the first conditional
// generator that accepts the invocation wins, then the first non-conditional
// generator, then the default policy.
type Composite struct {
	generators []prioritized
	fallback   Generator
}

// NewComposite creates a composite generator with the default policy as the
// final fallback.
func NewComposite() *Composite {
	return &Composite{fallback: NewDefaultGenerator()}
}

// Add registers a generator with an explicit priority. Registration order
// breaks priority ties.
func (c *Composite) Add(gen Generator, priority int) *Composite {
	if gen == nil {
		return c
	}
	c.generators = append(c.generators, prioritized{
		gen:      gen,
		priority: priority,
		order:    len(c.generators),
	})
	sort.SliceStable(c.generators, func(i, j int) bool {
		if c.generators[i].priority != c.generators[j].priority {
			return c.generators[i].priority < c.generators[j].priority
		}
		return c.generators[i].order < c.generators[j].order
	})
	return c
}

// Generate tries conditional generators first, in priority order, then the
// first non-conditional generator, then the default policy.
func (c *Composite) Generate(inv *invoke.Invocation) Key {
	for _, p := range c.generators {
		if cond, ok := p.gen.(ConditionalGenerator); ok {
			if cond.CanGenerate(inv.Method(), inv.Target()) {
				return cond.Generate(inv)
			}
		}
	}
	for _, p := range c.generators {
		if _, ok := p.gen.(ConditionalGenerator); !ok {
			return p.gen.Generate(inv)
		}
	}
	return c.fallback.Generate(inv)
}
