package guard

import (
	"github.com/google/uuid"

	"github.com/c360/guardrail/cache"
	"github.com/c360/guardrail/invoke"
	"github.com/c360/guardrail/key"
	"github.com/c360/guardrail/metric"
	"github.com/c360/guardrail/ratelimit"
)

// cacheContext carries per-invocation pipeline state: generated keys are
// memoized per generator name so every step of one call sees the same key,
// and resolved backends are recorded as resources. One context per call,
// one goroutine, discarded afterwards.
type cacheContext struct {
	id  string
	inv *invoke.Invocation

	keys      map[string]key.Key
	result    any
	hit       *cache.Entry
	miss      bool
	resources []Resource
}

func newCacheContext(inv *invoke.Invocation) *cacheContext {
	return &cacheContext{
		id:   uuid.NewString(),
		inv:  inv,
		keys: make(map[string]key.Key),
	}
}

// keyFor generates the key lazily, once per generator name.
func (c *cacheContext) keyFor(generatorName string, gen key.Generator) key.Key {
	if k, ok := c.keys[generatorName]; ok {
		return k
	}
	k := gen.Generate(c.inv)
	c.keys[generatorName] = k
	return k
}

func (c *cacheContext) recordResources(stores []cache.Store) {
	for _, st := range stores {
		c.resources = append(c.resources, Resource{Name: st.Name(), Pipeline: metric.PipelineCache})
	}
}

// limitContext carries per-invocation rate-limit state, most importantly
// the ordered list of stores that accepted the call, which is exactly the
// set a rollback must walk in reverse.
type limitContext struct {
	id  string
	inv *invoke.Invocation

	skipped    bool
	identifier string
	committed  []ratelimit.Store
	resources  []Resource
}

func newLimitContext(inv *invoke.Invocation) *limitContext {
	return &limitContext{
		id:  uuid.NewString(),
		inv: inv,
	}
}

func (c *limitContext) recordResources(stores []ratelimit.Store) {
	for _, st := range stores {
		c.resources = append(c.resources, Resource{Name: st.Name(), Pipeline: metric.PipelineRateLimit})
	}
}
