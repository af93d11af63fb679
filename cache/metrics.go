package cache

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/guardrail/metric"
)

// storeMetrics holds Prometheus metrics for one store instance.
type storeMetrics struct {
	hits        prometheus.Counter
	misses      prometheus.Counter
	puts        prometheus.Counter
	evictions   prometheus.Counter
	expirations prometheus.Counter
	size        prometheus.Gauge
}

// newStoreMetrics creates and registers per-store metrics, labeled with the
// store name.
func newStoreMetrics(registry *metric.MetricsRegistry, store string) (*storeMetrics, error) {
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "guardrail",
			Subsystem:   "cache",
			Name:        name,
			ConstLabels: prometheus.Labels{"store": store},
			Help:        help,
		})
	}

	m := &storeMetrics{
		hits:        counter("hits_total", "Total number of cache hits"),
		misses:      counter("misses_total", "Total number of cache misses"),
		puts:        counter("puts_total", "Total number of cache writes"),
		evictions:   counter("evictions_total", "Total number of evicted entries"),
		expirations: counter("expirations_total", "Total number of expired entries detected"),
		size: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "guardrail",
			Subsystem:   "cache",
			Name:        "size",
			ConstLabels: prometheus.Labels{"store": store},
			Help:        "Current number of entries in the store",
		}),
	}

	for name, c := range map[string]prometheus.Counter{
		"hits_total":        m.hits,
		"misses_total":      m.misses,
		"puts_total":        m.puts,
		"evictions_total":   m.evictions,
		"expirations_total": m.expirations,
	} {
		if err := registry.RegisterCounter("cache_"+store, name, c); err != nil {
			return nil, err
		}
	}
	if err := registry.RegisterGauge("cache_"+store, "size", m.size); err != nil {
		return nil, err
	}

	return m, nil
}
