package notify

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/guardrail/metric"
)

// Dispatcher lifecycle errors.
var (
	ErrNotStarted     = errors.New("dispatcher not started")
	ErrAlreadyStarted = errors.New("dispatcher already started")
	ErrStopped        = errors.New("dispatcher stopped")
	ErrStopTimeout    = errors.New("timeout waiting for dispatcher workers")
)

// queuedEvent is the internal union of the two event kinds.
type queuedEvent struct {
	cache *CacheEvent
	limit *LimitEvent
}

// Dispatcher decouples stores from slow sinks. It implements Sink itself:
// events are enqueued non-blocking onto a bounded queue and delivered to the
// wrapped sink by a fixed set of workers. When the queue is full the event
// is dropped and counted, so a store never blocks on notification delivery.
type Dispatcher struct {
	sink      Sink
	workers   int
	queueSize int
	queue     chan queuedEvent

	lifecycleMu sync.Mutex
	started     bool
	stopped     bool
	wg          *sync.WaitGroup

	// Statistics (atomic)
	submitted int64
	delivered int64
	dropped   int64

	metrics *dispatcherMetrics
}

// dispatcherMetrics holds optional Prometheus instrumentation.
type dispatcherMetrics struct {
	queueDepth prometheus.Gauge
	submitted  prometheus.Counter
	delivered  prometheus.Counter
	dropped    prometheus.Counter
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithDispatcherMetrics registers queue depth, delivery, and drop metrics
// with the engine's metrics registry.
func WithDispatcherMetrics(registry *metric.MetricsRegistry) DispatcherOption {
	return func(d *Dispatcher) {
		if registry == nil {
			return
		}
		m := &dispatcherMetrics{
			queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "guardrail",
				Subsystem: "notify",
				Name:      "queue_depth",
				Help:      "Current notification queue depth",
			}),
			submitted: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "guardrail",
				Subsystem: "notify",
				Name:      "submitted_total",
				Help:      "Total notifications submitted",
			}),
			delivered: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "guardrail",
				Subsystem: "notify",
				Name:      "delivered_total",
				Help:      "Total notifications delivered to the sink",
			}),
			dropped: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "guardrail",
				Subsystem: "notify",
				Name:      "dropped_total",
				Help:      "Total notifications dropped due to a full queue",
			}),
		}
		if err := registry.RegisterGauge("notify_dispatcher", "queue_depth", m.queueDepth); err != nil {
			return
		}
		if err := registry.RegisterCounter("notify_dispatcher", "submitted_total", m.submitted); err != nil {
			return
		}
		if err := registry.RegisterCounter("notify_dispatcher", "delivered_total", m.delivered); err != nil {
			return
		}
		if err := registry.RegisterCounter("notify_dispatcher", "dropped_total", m.dropped); err != nil {
			return
		}
		d.metrics = m
	}
}

// NewDispatcher wraps a sink with an asynchronous bounded-queue delivery
// pool. Zero or negative workers/queueSize fall back to defaults.
func NewDispatcher(sink Sink, workers, queueSize int, opts ...DispatcherOption) *Dispatcher {
	if workers <= 0 {
		workers = 2
	}
	if queueSize <= 0 {
		queueSize = 1024
	}
	d := &Dispatcher{
		sink:      sink,
		workers:   workers,
		queueSize: queueSize,
		queue:     make(chan queuedEvent, queueSize),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// Start launches the delivery workers.
func (d *Dispatcher) Start(ctx context.Context) error {
	d.lifecycleMu.Lock()
	defer d.lifecycleMu.Unlock()

	if d.started {
		return ErrAlreadyStarted
	}

	d.wg = &sync.WaitGroup{}
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker(ctx)
	}
	d.started = true
	return nil
}

// Stop closes the queue and waits for in-flight deliveries up to timeout.
func (d *Dispatcher) Stop(timeout time.Duration) error {
	d.lifecycleMu.Lock()
	defer d.lifecycleMu.Unlock()

	if !d.started || d.stopped {
		return nil
	}
	d.stopped = true
	close(d.queue)

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
		return nil
	case <-timer.C:
		return ErrStopTimeout
	}
}

// OnCacheEvent enqueues a cache event, dropping it when the queue is full.
func (d *Dispatcher) OnCacheEvent(_ context.Context, ev CacheEvent) {
	d.enqueue(queuedEvent{cache: &ev})
}

// OnLimitEvent enqueues a rate-limit event, dropping it when the queue is full.
func (d *Dispatcher) OnLimitEvent(_ context.Context, ev LimitEvent) {
	d.enqueue(queuedEvent{limit: &ev})
}

func (d *Dispatcher) enqueue(ev queuedEvent) {
	d.lifecycleMu.Lock()
	if !d.started || d.stopped {
		d.lifecycleMu.Unlock()
		atomic.AddInt64(&d.dropped, 1)
		if d.metrics != nil {
			d.metrics.dropped.Inc()
		}
		return
	}

	select {
	case d.queue <- ev:
		d.lifecycleMu.Unlock()
		atomic.AddInt64(&d.submitted, 1)
		if d.metrics != nil {
			d.metrics.submitted.Inc()
			d.metrics.queueDepth.Set(float64(len(d.queue)))
		}
	default:
		d.lifecycleMu.Unlock()
		atomic.AddInt64(&d.dropped, 1)
		if d.metrics != nil {
			d.metrics.dropped.Inc()
		}
	}
}

func (d *Dispatcher) worker(ctx context.Context) {
	defer d.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-d.queue:
			if !ok {
				return
			}
			switch {
			case ev.cache != nil:
				d.sink.OnCacheEvent(ctx, *ev.cache)
			case ev.limit != nil:
				d.sink.OnLimitEvent(ctx, *ev.limit)
			}
			atomic.AddInt64(&d.delivered, 1)
			if d.metrics != nil {
				d.metrics.delivered.Inc()
				d.metrics.queueDepth.Set(float64(len(d.queue)))
			}
		}
	}
}

// DispatcherStats is a snapshot of dispatcher counters.
type DispatcherStats struct {
	Workers   int   `json:"workers"`
	QueueSize int   `json:"queue_size"`
	Submitted int64 `json:"submitted"`
	Delivered int64 `json:"delivered"`
	Dropped   int64 `json:"dropped"`
}

// Stats returns current dispatcher statistics.
func (d *Dispatcher) Stats() DispatcherStats {
	return DispatcherStats{
		Workers:   d.workers,
		QueueSize: d.queueSize,
		Submitted: atomic.LoadInt64(&d.submitted),
		Delivered: atomic.LoadInt64(&d.delivered),
		Dropped:   atomic.LoadInt64(&d.dropped),
	}
}
