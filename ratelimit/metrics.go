package ratelimit

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/guardrail/metric"
)

// storeMetrics holds Prometheus metrics for one store instance.
type storeMetrics struct {
	allowed   prometheus.Counter
	denied    prometheus.Counter
	rollbacks prometheus.Counter
	resets    prometheus.Counter
	tracked   prometheus.Gauge
}

// newStoreMetrics creates and registers per-store metrics, labeled with the
// store name.
func newStoreMetrics(registry *metric.MetricsRegistry, store string) (*storeMetrics, error) {
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "guardrail",
			Subsystem:   "ratelimit",
			Name:        name,
			ConstLabels: prometheus.Labels{"store": store},
			Help:        help,
		})
	}

	m := &storeMetrics{
		allowed:   counter("allowed_total", "Total accepted consumptions"),
		denied:    counter("denied_total", "Total refused consumptions"),
		rollbacks: counter("rollbacks_total", "Total compensated consumptions"),
		resets:    counter("window_resets_total", "Total window rollovers"),
		tracked: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "guardrail",
			Subsystem:   "ratelimit",
			Name:        "tracked_identifiers",
			ConstLabels: prometheus.Labels{"store": store},
			Help:        "Currently tracked identifier windows",
		}),
	}

	for name, c := range map[string]prometheus.Counter{
		"allowed_total":       m.allowed,
		"denied_total":        m.denied,
		"rollbacks_total":     m.rollbacks,
		"window_resets_total": m.resets,
	} {
		if err := registry.RegisterCounter("ratelimit_"+store, name, c); err != nil {
			return nil, err
		}
	}
	if err := registry.RegisterGauge("ratelimit_"+store, "tracked_identifiers", m.tracked); err != nil {
		return nil, err
	}

	return m, nil
}
