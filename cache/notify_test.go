package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/c360/guardrail/notify"
)

// captureSink records cache events by kind.
type captureSink struct {
	mu     sync.Mutex
	events []notify.CacheEvent
}

func (c *captureSink) OnCacheEvent(_ context.Context, ev notify.CacheEvent) {
	c.mu.Lock()
	c.events = append(c.events, ev)
	c.mu.Unlock()
}

func (c *captureSink) OnLimitEvent(context.Context, notify.LimitEvent) {}

func (c *captureSink) kinds() []notify.CacheEventKind {
	c.mu.Lock()
	defer c.mu.Unlock()
	kinds := make([]notify.CacheEventKind, len(c.events))
	for i, ev := range c.events {
		kinds[i] = ev.Kind
	}
	return kinds
}

func TestStoreNotifications(t *testing.T) {
	clock := newFakeClock()
	sink := &captureSink{}
	s := mustStore(t, "events", WithClock(clock.Now), WithSink(sink))

	_ = s.Put("k", 1, 50*time.Millisecond) // put
	s.Get("k")                             // hit
	s.Get("absent")                        // miss
	clock.Advance(time.Second)
	s.Get("k")          // expire + miss
	_ = s.Put("x", 1, 0)
	_ = s.Evict("x") // evict
	_ = s.Put("y", 1, 0)
	s.Clear() // one aggregate clear

	want := []notify.CacheEventKind{
		notify.CachePut,
		notify.CacheHit,
		notify.CacheMiss,
		notify.CacheExpire,
		notify.CacheMiss,
		notify.CachePut,
		notify.CacheEvict,
		notify.CachePut,
		notify.CacheClear,
	}
	got := sink.kinds()
	if len(got) != len(want) {
		t.Fatalf("event kinds = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d = %s, want %s", i, got[i], want[i])
		}
	}

	// The aggregate clear event carries the removed count.
	last := sink.events[len(sink.events)-1]
	if last.Count != 1 {
		t.Errorf("clear count = %d", last.Count)
	}
	for _, ev := range sink.events {
		if ev.Store != "events" {
			t.Errorf("event store = %q", ev.Store)
		}
		if ev.Timestamp.IsZero() {
			t.Error("event missing timestamp")
		}
	}
}

func TestNoSinkChangesNothing(t *testing.T) {
	s := mustStore(t, "silent")
	_ = s.Put("k", 1, 0)
	if _, ok, _ := s.Get("k"); !ok {
		t.Error("hit expected")
	}
	if s.Stats().Hits() != 1 || s.Stats().Puts() != 1 {
		t.Errorf("stats = %+v", s.Stats().Summary())
	}
}
