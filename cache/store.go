// Package cache provides the guardrail cache store: a capacity-bounded,
// TTL-aware key/value store with pluggable eviction and lifecycle
// notifications, plus the manager that resolves stores by name.
package cache

import (
	"time"

	"github.com/c360/guardrail/key"
)

// Entry is a cache entry with its access metadata. CreatedAt, TTL and Value
// are immutable after creation; LastAccessedAt and AccessCount mutate on
// every successful read. Entries are owned by the store that created them —
// accessors return snapshots.
type Entry struct {
	Value          any
	TTL            time.Duration // zero means no expiration
	CreatedAt      time.Time
	LastAccessedAt time.Time
	AccessCount    int64
}

// Expired reports whether the entry's TTL has elapsed at the given time.
// Expiry is evaluated lazily: an expired entry may remain physically present
// until the next operation touches its key.
func (e *Entry) Expired(now time.Time) bool {
	if e.TTL <= 0 {
		return false
	}
	return !now.Before(e.CreatedAt.Add(e.TTL))
}

// Store is the cache backend contract. Implementations must be safe for
// concurrent use: every check-then-act sequence runs inside the store's own
// critical section, independent of all other stores.
type Store interface {
	// Name returns the backend name the store was registered under.
	Name() string

	// Get returns a snapshot of the live entry for the key, bumping its
	// access metadata. An absent key is a miss; an expired entry is removed,
	// recorded as an expiration, and reported as a miss. The error is
	// reserved for backends with fallible transport; the in-memory store
	// never returns one.
	Get(k key.Key) (*Entry, bool, error)

	// Put inserts or overwrites the key with a freshly stamped entry. When
	// the store is at capacity and the key is new, the eviction policy
	// chooses a victim first; without a policy the put fails with a
	// capacity error. Updating an existing key never triggers eviction.
	// A zero ttl falls back to the store's default TTL.
	Put(k key.Key, value any, ttl time.Duration) error

	// PutIfAbsent atomically inserts the key only when no live entry exists.
	// A pre-existing live entry is returned unmutated and recorded as a hit.
	// Returns nil when the value was inserted.
	PutIfAbsent(k key.Key, value any, ttl time.Duration) (*Entry, error)

	// Evict removes the key, erroring when it is absent.
	Evict(k key.Key) error

	// EvictIfPresent removes the key if present, reporting whether it was.
	EvictIfPresent(k key.Key) (bool, error)

	// Clear empties the store and returns the number of entries removed.
	Clear() (int, error)

	// Invalidate sweeps the store, removing only entries that are currently
	// expired, and returns how many were removed.
	Invalidate() (int, error)

	// Size returns the number of physically present entries, expired ones
	// included.
	Size() int

	// Keys returns the keys of all physically present entries.
	Keys() []key.Key

	// Stats returns the store's always-on statistics.
	Stats() *Statistics

	// Close releases store resources. A closed store rejects mutation.
	Close() error
}
