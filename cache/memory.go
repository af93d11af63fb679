package cache

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	"github.com/c360/guardrail/errors"
	"github.com/c360/guardrail/key"
	"github.com/c360/guardrail/notify"
)

// MemoryStore is the in-memory Store implementation. One mutex guards the
// entry map, so every check-then-act sequence (capacity check + insert,
// expiry check + removal, putIfAbsent) is atomic within this store instance.
// Notifications are emitted after the lock is released.
type MemoryStore struct {
	name string

	mu      sync.RWMutex
	entries map[key.Key]*Entry
	closed  bool

	maxEntries int
	policy     Policy
	defaultTTL time.Duration
	clock      func() time.Time

	stats   *Statistics   // ALWAYS initialized
	metrics *storeMetrics // Optional, if metrics enabled
	sink    notify.Sink   // Optional
}

// NewMemoryStore creates a named in-memory store. Returns an error only when
// requested metrics registration fails.
func NewMemoryStore(name string, options ...Option) (*MemoryStore, error) {
	if name == "" {
		return nil, errors.WrapInvalid(
			fmt.Errorf("store name cannot be empty: %w", errors.ErrInvalidConfig),
			"cache", "NewMemoryStore", "name validation")
	}

	opts := applyOptions(options...)

	// Stats are ALWAYS initialized - observability is not optional
	stats := NewStatistics()

	var metrics *storeMetrics
	if opts.metricsReg != nil {
		var err error
		metrics, err = newStoreMetrics(opts.metricsReg, name)
		if err != nil {
			return nil, errors.WrapTransient(err, "cache", "NewMemoryStore", "metrics registration")
		}
	}

	return &MemoryStore{
		name:       name,
		entries:    make(map[key.Key]*Entry),
		maxEntries: opts.maxEntries,
		policy:     opts.policy,
		defaultTTL: opts.defaultTTL,
		clock:      opts.clock,
		stats:      stats,
		metrics:    metrics,
		sink:       opts.sink,
	}, nil
}

// Name returns the store name.
func (s *MemoryStore) Name() string { return s.name }

// Get retrieves a live entry snapshot, bumping access metadata. Absent keys
// and lazily-detected expired entries are both misses; the expired entry is
// removed and its expiration recorded exactly once. The in-memory store
// never returns an error from Get.
func (s *MemoryStore) Get(k key.Key) (*Entry, bool, error) {
	var events []notify.CacheEvent

	s.mu.Lock()
	e, exists := s.entries[k]
	if !exists {
		s.stats.Miss()
		if s.metrics != nil {
			s.metrics.misses.Inc()
		}
		s.mu.Unlock()
		s.emit(notify.CacheEvent{Kind: notify.CacheMiss, Store: s.name, Key: k.String()})
		return nil, false, nil
	}

	now := s.clock()
	if e.Expired(now) {
		delete(s.entries, k)
		s.stats.Expiration()
		s.stats.Eviction()
		s.stats.Miss()
		s.stats.UpdateSize(int64(len(s.entries)))
		if s.metrics != nil {
			s.metrics.expirations.Inc()
			s.metrics.evictions.Inc()
			s.metrics.misses.Inc()
			s.metrics.size.Set(float64(len(s.entries)))
		}
		s.mu.Unlock()
		events = append(events,
			notify.CacheEvent{Kind: notify.CacheExpire, Store: s.name, Key: k.String()},
			notify.CacheEvent{Kind: notify.CacheMiss, Store: s.name, Key: k.String()},
		)
		s.emit(events...)
		return nil, false, nil
	}

	e.LastAccessedAt = now
	e.AccessCount++
	snapshot := *e

	s.stats.Hit()
	if s.metrics != nil {
		s.metrics.hits.Inc()
	}
	s.mu.Unlock()

	s.emit(notify.CacheEvent{Kind: notify.CacheHit, Store: s.name, Key: k.String()})
	return &snapshot, true, nil
}

// Put inserts or overwrites the key. At capacity with a new key, the policy
// chooses a victim first; without a policy the put fails. Updating an
// existing key never evicts.
func (s *MemoryStore) Put(k key.Key, value any, ttl time.Duration) error {
	if err := validateKey(k); err != nil {
		return err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return errors.WrapInvalid(
			fmt.Errorf("store %q: %w", s.name, errors.ErrStoreClosed),
			"cache", "Put", "closed check")
	}

	events, err := s.insertLocked(k, value, ttl)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	s.emit(events...)
	return nil
}

// PutIfAbsent atomically inserts only when no live entry exists. A live
// pre-existing entry is returned unmutated and recorded as a hit; an expired
// one is removed first, then the insert proceeds.
func (s *MemoryStore) PutIfAbsent(k key.Key, value any, ttl time.Duration) (*Entry, error) {
	if err := validateKey(k); err != nil {
		return nil, err
	}

	var events []notify.CacheEvent

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, errors.WrapInvalid(
			fmt.Errorf("store %q: %w", s.name, errors.ErrStoreClosed),
			"cache", "PutIfAbsent", "closed check")
	}

	if e, exists := s.entries[k]; exists {
		now := s.clock()
		if !e.Expired(now) {
			snapshot := *e
			s.stats.Hit()
			if s.metrics != nil {
				s.metrics.hits.Inc()
			}
			s.mu.Unlock()
			s.emit(notify.CacheEvent{Kind: notify.CacheHit, Store: s.name, Key: k.String()})
			return &snapshot, nil
		}

		delete(s.entries, k)
		s.stats.Expiration()
		s.stats.Eviction()
		if s.metrics != nil {
			s.metrics.expirations.Inc()
			s.metrics.evictions.Inc()
		}
		events = append(events, notify.CacheEvent{Kind: notify.CacheExpire, Store: s.name, Key: k.String()})
	}

	insertEvents, err := s.insertLocked(k, value, ttl)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	events = append(events, insertEvents...)
	s.mu.Unlock()

	s.emit(events...)
	return nil, nil
}

// insertLocked performs the capacity check, eviction, and insertion. Caller
// holds the write lock. Returned events are emitted after unlock.
func (s *MemoryStore) insertLocked(k key.Key, value any, ttl time.Duration) ([]notify.CacheEvent, error) {
	var events []notify.CacheEvent

	_, exists := s.entries[k]
	if !exists && s.maxEntries > 0 && len(s.entries) >= s.maxEntries {
		if s.policy == nil {
			return nil, errors.WrapInvalid(
				fmt.Errorf("store %q at %d entries with no eviction policy: %w",
					s.name, s.maxEntries, errors.ErrCapacityExceeded),
				"cache", "Put", "capacity check")
		}
		victim, ok := s.policy.SelectVictim(s.entries)
		if ok {
			delete(s.entries, victim)
			s.stats.Eviction()
			if s.metrics != nil {
				s.metrics.evictions.Inc()
			}
			events = append(events, notify.CacheEvent{Kind: notify.CacheEvict, Store: s.name, Key: victim.String()})
		}
	}

	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	now := s.clock()
	s.entries[k] = &Entry{
		Value:          value,
		TTL:            ttl,
		CreatedAt:      now,
		LastAccessedAt: now,
	}

	s.stats.Put()
	s.stats.UpdateSize(int64(len(s.entries)))
	if s.metrics != nil {
		s.metrics.puts.Inc()
		s.metrics.size.Set(float64(len(s.entries)))
	}

	events = append(events, notify.CacheEvent{Kind: notify.CachePut, Store: s.name, Key: k.String()})
	return events, nil
}

// Evict removes the key, erroring when it is absent.
func (s *MemoryStore) Evict(k key.Key) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return errors.WrapInvalid(
			fmt.Errorf("store %q: %w", s.name, errors.ErrStoreClosed),
			"cache", "Evict", "closed check")
	}
	if _, exists := s.entries[k]; !exists {
		s.mu.Unlock()
		return errors.WrapInvalid(
			fmt.Errorf("store %q key %q: %w", s.name, k, errors.ErrKeyNotFound),
			"cache", "Evict", "key lookup")
	}

	delete(s.entries, k)
	s.stats.Eviction()
	s.stats.UpdateSize(int64(len(s.entries)))
	if s.metrics != nil {
		s.metrics.evictions.Inc()
		s.metrics.size.Set(float64(len(s.entries)))
	}
	s.mu.Unlock()

	s.emit(notify.CacheEvent{Kind: notify.CacheEvict, Store: s.name, Key: k.String()})
	return nil
}

// EvictIfPresent removes the key if present, reporting whether it was.
func (s *MemoryStore) EvictIfPresent(k key.Key) (bool, error) {
	err := s.Evict(k)
	if err != nil {
		if stderrors.Is(err, errors.ErrKeyNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Clear empties the store and returns the number of entries removed. One
// aggregate clear notification carries the count.
func (s *MemoryStore) Clear() (int, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return 0, errors.WrapInvalid(
			fmt.Errorf("store %q: %w", s.name, errors.ErrStoreClosed),
			"cache", "Clear", "closed check")
	}
	count := len(s.entries)
	s.entries = make(map[key.Key]*Entry)
	s.stats.UpdateSize(0)
	if s.metrics != nil {
		s.metrics.size.Set(0)
	}
	s.mu.Unlock()

	if count > 0 {
		s.emit(notify.CacheEvent{Kind: notify.CacheClear, Store: s.name, Count: count})
	}
	return count, nil
}

// Invalidate sweeps the store, removing only currently-expired entries.
// Unexpired entries are untouched.
func (s *MemoryStore) Invalidate() (int, error) {
	var events []notify.CacheEvent

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return 0, errors.WrapInvalid(
			fmt.Errorf("store %q: %w", s.name, errors.ErrStoreClosed),
			"cache", "Invalidate", "closed check")
	}
	now := s.clock()
	for k, e := range s.entries {
		if e.Expired(now) {
			delete(s.entries, k)
			s.stats.Expiration()
			s.stats.Eviction()
			if s.metrics != nil {
				s.metrics.expirations.Inc()
				s.metrics.evictions.Inc()
			}
			events = append(events, notify.CacheEvent{Kind: notify.CacheExpire, Store: s.name, Key: k.String()})
		}
	}
	s.stats.UpdateSize(int64(len(s.entries)))
	if s.metrics != nil {
		s.metrics.size.Set(float64(len(s.entries)))
	}
	s.mu.Unlock()

	s.emit(events...)
	return len(events), nil
}

// Size returns the number of physically present entries, expired included.
func (s *MemoryStore) Size() int {
	s.mu.RLock()
	size := len(s.entries)
	s.mu.RUnlock()
	return size
}

// Keys returns the keys of all physically present entries.
func (s *MemoryStore) Keys() []key.Key {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]key.Key, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	return keys
}

// Stats returns the store's always-on statistics.
func (s *MemoryStore) Stats() *Statistics { return s.stats }

// Close marks the store closed. Reads keep working; mutation is rejected.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

// emit delivers notifications outside the store lock.
func (s *MemoryStore) emit(events ...notify.CacheEvent) {
	if s.sink == nil || len(events) == 0 {
		return
	}
	ctx := context.Background()
	now := time.Now()
	for i := range events {
		events[i].Timestamp = now
		s.sink.OnCacheEvent(ctx, events[i])
	}
}

// validateKey rejects empty keys.
func validateKey(k key.Key) error {
	if k == "" {
		return errors.WrapInvalid(
			fmt.Errorf("empty key: %w", errors.ErrInvalidKey),
			"cache", "validateKey", "key validation")
	}
	return nil
}
