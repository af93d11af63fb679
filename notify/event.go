package notify

import (
	"context"
	"time"
)

// CacheEventKind identifies a cache store lifecycle notification.
type CacheEventKind string

const (
	// CacheHit is emitted when a get finds a live entry.
	CacheHit CacheEventKind = "hit"
	// CacheMiss is emitted when a get finds nothing.
	CacheMiss CacheEventKind = "miss"
	// CachePut is emitted when an entry is written.
	CachePut CacheEventKind = "put"
	// CacheEvict is emitted when an entry is removed by eviction or Evict.
	CacheEvict CacheEventKind = "evict"
	// CacheExpire is emitted when an expired entry is removed.
	CacheExpire CacheEventKind = "expire"
	// CacheClear is emitted once per Clear, carrying the removed count.
	CacheClear CacheEventKind = "clear"
)

// CacheEvent is a cache store notification. Count is only set for aggregate
// events (clear).
type CacheEvent struct {
	Kind      CacheEventKind `json:"kind"`
	Store     string         `json:"store"`
	Key       string         `json:"key,omitempty"`
	Count     int            `json:"count,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// LimitEventKind identifies a rate-limit store notification.
type LimitEventKind string

const (
	// LimitAllowed is emitted when a consumption is accepted.
	LimitAllowed LimitEventKind = "allowed"
	// LimitDenied is emitted when a consumption is refused.
	LimitDenied LimitEventKind = "denied"
	// LimitReset is emitted when an identifier's window rolls over.
	LimitReset LimitEventKind = "reset"
	// LimitClear is emitted once per Clear.
	LimitClear LimitEventKind = "clear"
)

// LimitEvent is a rate-limit store notification.
type LimitEvent struct {
	Kind         LimitEventKind `json:"kind"`
	Store        string         `json:"store"`
	Identifier   string         `json:"identifier,omitempty"`
	CurrentCount int            `json:"current_count,omitempty"`
	Limit        int            `json:"limit,omitempty"`
	Window       time.Duration  `json:"window,omitempty"`
	ResetTime    time.Time      `json:"reset_time,omitzero"`
	Timestamp    time.Time      `json:"timestamp"`
}

// Sink consumes store notifications. Sinks must be safe for concurrent use
// and must not fail the emitting store: delivery problems are the sink's own
// concern. A nil sink on a store disables emission without changing store
// behavior.
type Sink interface {
	OnCacheEvent(ctx context.Context, ev CacheEvent)
	OnLimitEvent(ctx context.Context, ev LimitEvent)
}

// Multi fans events out to several sinks in order.
type Multi []Sink

// OnCacheEvent delivers the event to every sink.
func (m Multi) OnCacheEvent(ctx context.Context, ev CacheEvent) {
	for _, s := range m {
		if s != nil {
			s.OnCacheEvent(ctx, ev)
		}
	}
}

// OnLimitEvent delivers the event to every sink.
func (m Multi) OnLimitEvent(ctx context.Context, ev LimitEvent) {
	for _, s := range m {
		if s != nil {
			s.OnLimitEvent(ctx, ev)
		}
	}
}
