// Package metric provides Prometheus-based metrics collection for the
// guardrail resource-control engine.
//
// The package offers a centralized metrics registry managing both core engine
// metrics (guarded calls, backend errors, rollback attempts) and custom
// component-specific metrics registered by stores and pipelines. The registry
// wraps a private prometheus.Registry so embedding applications can mount it
// on whatever exposition endpoint they already run.
//
// # Architecture
//
// The package follows a two-layer design:
//
//  1. Core Metrics: engine-level metrics automatically registered (Metrics type)
//  2. Component Registry: extensible registration for per-store metrics
//     (MetricsRegistrar interface)
//
// Per-store counters (cache hits per store, limit decisions per store) are
// created by the stores themselves and registered here under the store's name,
// keeping metric ownership next to the code that increments it.
//
// # Basic Usage
//
// Setting up metrics collection:
//
//	registry := metric.NewMetricsRegistry()
//
//	// Record core engine metrics
//	core := registry.CoreMetrics()
//	core.RecordGuardedCall(metric.PipelineCache, metric.OutcomeHit)
//	core.RecordRollback(metric.RollbackOnDenial, true)
//
// Registering a component-specific metric:
//
//	counter := prometheus.NewCounter(prometheus.CounterOpts{
//	    Name: "sessions_cache_warmups_total",
//	    Help: "Cache warmup runs",
//	})
//	if err := registry.RegisterCounter("sessions-cache", "warmups", counter); err != nil {
//	    return err
//	}
//
// Exposing metrics is the host application's concern:
//
//	http.Handle("/metrics", promhttp.HandlerFor(
//	    registry.PrometheusRegistry(), promhttp.HandlerOpts{}))
//
// # Duplicate Registration
//
// Registering the same component/metric pair twice returns an Invalid-classified
// error; conflicting collectors that Prometheus itself rejects are surfaced the
// same way. True registry failures are Fatal.
package metric
