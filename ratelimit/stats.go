package ratelimit

import (
	"sync/atomic"
)

// Statistics tracks rate-limit store counters. Always collected.
type Statistics struct {
	allowed   int64
	denied    int64
	rollbacks int64
	resets    int64
}

// NewStatistics creates a statistics tracker.
func NewStatistics() *Statistics { return &Statistics{} }

// Allowed records an accepted consumption.
func (s *Statistics) Allow() { atomic.AddInt64(&s.allowed, 1) }

// Deny records a refused consumption.
func (s *Statistics) Deny() { atomic.AddInt64(&s.denied, 1) }

// Rollback records a compensated consumption.
func (s *Statistics) Rollback() { atomic.AddInt64(&s.rollbacks, 1) }

// ResetWindow records a window rollover.
func (s *Statistics) ResetWindow() { atomic.AddInt64(&s.resets, 1) }

// Allowed returns the total accepted consumptions.
func (s *Statistics) Allowed() int64 { return atomic.LoadInt64(&s.allowed) }

// Denied returns the total refused consumptions.
func (s *Statistics) Denied() int64 { return atomic.LoadInt64(&s.denied) }

// Rollbacks returns the total compensated consumptions.
func (s *Statistics) Rollbacks() int64 { return atomic.LoadInt64(&s.rollbacks) }

// Resets returns the total window rollovers.
func (s *Statistics) Resets() int64 { return atomic.LoadInt64(&s.resets) }

// StatsSummary is a point-in-time snapshot of all statistics.
type StatsSummary struct {
	Allowed   int64 `json:"allowed"`
	Denied    int64 `json:"denied"`
	Rollbacks int64 `json:"rollbacks"`
	Resets    int64 `json:"resets"`
}

// Summary returns a snapshot of all statistics.
func (s *Statistics) Summary() StatsSummary {
	return StatsSummary{
		Allowed:   s.Allowed(),
		Denied:    s.Denied(),
		Rollbacks: s.Rollbacks(),
		Resets:    s.Resets(),
	}
}
