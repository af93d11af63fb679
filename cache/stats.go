package cache

import (
	"sync"
	"sync/atomic"
	"time"
)

// Statistics tracks cache store counters. Stats are always collected —
// observability is not optional — while Prometheus export stays opt-in.
type Statistics struct {
	// Atomic counters for thread-safe updates
	hits        int64
	misses      int64
	puts        int64
	evictions   int64
	expirations int64

	// Protected by mutex
	mu          sync.RWMutex
	startTime   time.Time
	currentSize int64
	maxSize     int64
}

// NewStatistics creates a statistics tracker.
func NewStatistics() *Statistics {
	return &Statistics{startTime: time.Now()}
}

// Hit records a cache hit.
func (s *Statistics) Hit() { atomic.AddInt64(&s.hits, 1) }

// Miss records a cache miss.
func (s *Statistics) Miss() { atomic.AddInt64(&s.misses, 1) }

// Put records a write.
func (s *Statistics) Put() { atomic.AddInt64(&s.puts, 1) }

// Eviction records a removed entry (explicit evict, capacity eviction, or
// expiry removal).
func (s *Statistics) Eviction() { atomic.AddInt64(&s.evictions, 1) }

// Expiration records a lazily-detected expired entry.
func (s *Statistics) Expiration() { atomic.AddInt64(&s.expirations, 1) }

// UpdateSize updates the current entry count.
func (s *Statistics) UpdateSize(size int64) {
	s.mu.Lock()
	s.currentSize = size
	if size > s.maxSize {
		s.maxSize = size
	}
	s.mu.Unlock()
}

// Hits returns the total number of hits.
func (s *Statistics) Hits() int64 { return atomic.LoadInt64(&s.hits) }

// Misses returns the total number of misses.
func (s *Statistics) Misses() int64 { return atomic.LoadInt64(&s.misses) }

// Puts returns the total number of writes.
func (s *Statistics) Puts() int64 { return atomic.LoadInt64(&s.puts) }

// Evictions returns the total number of removed entries.
func (s *Statistics) Evictions() int64 { return atomic.LoadInt64(&s.evictions) }

// Expirations returns the total number of expired entries detected.
func (s *Statistics) Expirations() int64 { return atomic.LoadInt64(&s.expirations) }

// CurrentSize returns the current entry count.
func (s *Statistics) CurrentSize() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentSize
}

// MaxSize returns the largest entry count the store has held.
func (s *Statistics) MaxSize() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.maxSize
}

// HitRatio returns hits / (hits + misses), 0 when no reads happened.
func (s *Statistics) HitRatio() float64 {
	hits := s.Hits()
	total := hits + s.Misses()
	if total == 0 {
		return 0.0
	}
	return float64(hits) / float64(total)
}

// Uptime returns how long the store has been running.
func (s *Statistics) Uptime() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return time.Since(s.startTime)
}

// Reset zeroes all counters.
func (s *Statistics) Reset() {
	atomic.StoreInt64(&s.hits, 0)
	atomic.StoreInt64(&s.misses, 0)
	atomic.StoreInt64(&s.puts, 0)
	atomic.StoreInt64(&s.evictions, 0)
	atomic.StoreInt64(&s.expirations, 0)

	s.mu.Lock()
	s.startTime = time.Now()
	s.currentSize = 0
	s.maxSize = 0
	s.mu.Unlock()
}

// StatsSummary is a point-in-time snapshot of all statistics.
type StatsSummary struct {
	Hits        int64         `json:"hits"`
	Misses      int64         `json:"misses"`
	Puts        int64         `json:"puts"`
	Evictions   int64         `json:"evictions"`
	Expirations int64         `json:"expirations"`
	CurrentSize int64         `json:"current_size"`
	MaxSize     int64         `json:"max_size"`
	HitRatio    float64       `json:"hit_ratio"`
	Uptime      time.Duration `json:"uptime"`
}

// Summary returns a snapshot of all statistics.
func (s *Statistics) Summary() StatsSummary {
	return StatsSummary{
		Hits:        s.Hits(),
		Misses:      s.Misses(),
		Puts:        s.Puts(),
		Evictions:   s.Evictions(),
		Expirations: s.Expirations(),
		CurrentSize: s.CurrentSize(),
		MaxSize:     s.MaxSize(),
		HitRatio:    s.HitRatio(),
		Uptime:      s.Uptime(),
	}
}
