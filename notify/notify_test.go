package notify

import (
	"context"
	"sync"
	"testing"
	"time"
)

// recordingSink collects delivered events.
type recordingSink struct {
	mu     sync.Mutex
	caches []CacheEvent
	limits []LimitEvent
	block  chan struct{} // when set, delivery blocks until closed
}

func (r *recordingSink) OnCacheEvent(_ context.Context, ev CacheEvent) {
	if r.block != nil {
		<-r.block
	}
	r.mu.Lock()
	r.caches = append(r.caches, ev)
	r.mu.Unlock()
}

func (r *recordingSink) OnLimitEvent(_ context.Context, ev LimitEvent) {
	if r.block != nil {
		<-r.block
	}
	r.mu.Lock()
	r.limits = append(r.limits, ev)
	r.mu.Unlock()
}

func (r *recordingSink) cacheCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.caches)
}

func TestMultiFanOut(t *testing.T) {
	a, b := &recordingSink{}, &recordingSink{}
	m := Multi{a, nil, b}

	m.OnCacheEvent(context.Background(), CacheEvent{Kind: CacheHit, Store: "s", Key: "k"})
	m.OnLimitEvent(context.Background(), LimitEvent{Kind: LimitDenied, Store: "s"})

	for _, s := range []*recordingSink{a, b} {
		if len(s.caches) != 1 || len(s.limits) != 1 {
			t.Errorf("sink got %d cache / %d limit events", len(s.caches), len(s.limits))
		}
	}
}

func TestSlogSinkDoesNotPanic(t *testing.T) {
	s := NewSlogSink(nil)
	s.OnCacheEvent(context.Background(), CacheEvent{Kind: CacheClear, Store: "s", Count: 3})
	s.OnLimitEvent(context.Background(), LimitEvent{Kind: LimitDenied, Store: "s", Identifier: "id"})
}

func TestNATSSinkNilConnectionIsInert(t *testing.T) {
	s := NewNATSSink(nil, "", nil)
	s.OnCacheEvent(context.Background(), CacheEvent{Kind: CachePut, Store: "s", Key: "k"})
	s.OnLimitEvent(context.Background(), LimitEvent{Kind: LimitAllowed, Store: "s"})
}

func TestDispatcherDelivers(t *testing.T) {
	rec := &recordingSink{}
	d := NewDispatcher(rec, 1, 16)
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	for i := 0; i < 5; i++ {
		d.OnCacheEvent(context.Background(), CacheEvent{Kind: CachePut, Store: "s"})
	}
	if err := d.Stop(time.Second); err != nil {
		t.Fatalf("stop: %v", err)
	}

	if got := rec.cacheCount(); got != 5 {
		t.Errorf("delivered %d events, want 5", got)
	}
	stats := d.Stats()
	if stats.Submitted != 5 || stats.Delivered != 5 || stats.Dropped != 0 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	rec := &recordingSink{block: make(chan struct{})}
	d := NewDispatcher(rec, 1, 1)
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	// First event occupies the worker, second fills the queue, the rest drop.
	for i := 0; i < 6; i++ {
		d.OnCacheEvent(context.Background(), CacheEvent{Kind: CacheHit, Store: "s"})
	}

	close(rec.block)
	if err := d.Stop(time.Second); err != nil {
		t.Fatalf("stop: %v", err)
	}

	stats := d.Stats()
	if stats.Dropped == 0 {
		t.Error("expected drops with a full queue")
	}
	if stats.Submitted+stats.Dropped != 6 {
		t.Errorf("submitted %d + dropped %d != 6", stats.Submitted, stats.Dropped)
	}
}

func TestDispatcherDropsBeforeStart(t *testing.T) {
	rec := &recordingSink{}
	d := NewDispatcher(rec, 1, 4)

	d.OnCacheEvent(context.Background(), CacheEvent{Kind: CacheHit, Store: "s"})
	if stats := d.Stats(); stats.Dropped != 1 {
		t.Errorf("expected pre-start event to drop, stats = %+v", stats)
	}
}

func TestDispatcherLifecycle(t *testing.T) {
	d := NewDispatcher(&recordingSink{}, 1, 4)
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := d.Start(context.Background()); err != ErrAlreadyStarted {
		t.Errorf("second start = %v", err)
	}
	if err := d.Stop(time.Second); err != nil {
		t.Fatalf("stop: %v", err)
	}
	// Stop is idempotent.
	if err := d.Stop(time.Second); err != nil {
		t.Errorf("second stop = %v", err)
	}
}
