package cache

import (
	"fmt"
	"strings"

	"github.com/c360/guardrail/errors"
	"github.com/c360/guardrail/key"
)

// Policy chooses an eviction victim from a snapshot of the store's entries.
// SelectVictim is pure and deterministic over the snapshot's metadata and
// returns false when the map is empty. When several entries share the
// minimum metric, which of them is chosen is not guaranteed — the first
// minimum encountered during map iteration wins.
type Policy interface {
	Name() string
	SelectVictim(entries map[key.Key]*Entry) (key.Key, bool)
}

type fifoPolicy struct{}

func (fifoPolicy) Name() string { return "fifo" }

// SelectVictim picks the entry with the oldest creation time.
func (fifoPolicy) SelectVictim(entries map[key.Key]*Entry) (key.Key, bool) {
	return selectMin(entries, func(e *Entry) int64 { return e.CreatedAt.UnixNano() })
}

type lruPolicy struct{}

func (lruPolicy) Name() string { return "lru" }

// SelectVictim picks the entry with the oldest last access time.
func (lruPolicy) SelectVictim(entries map[key.Key]*Entry) (key.Key, bool) {
	return selectMin(entries, func(e *Entry) int64 { return e.LastAccessedAt.UnixNano() })
}

type lfuPolicy struct{}

func (lfuPolicy) Name() string { return "lfu" }

// SelectVictim picks the entry with the lowest access count.
func (lfuPolicy) SelectVictim(entries map[key.Key]*Entry) (key.Key, bool) {
	return selectMin(entries, func(e *Entry) int64 { return e.AccessCount })
}

func selectMin(entries map[key.Key]*Entry, metric func(*Entry) int64) (key.Key, bool) {
	var victim key.Key
	var best int64
	found := false
	for k, e := range entries {
		m := metric(e)
		if !found || m < best {
			victim = k
			best = m
			found = true
		}
	}
	return victim, found
}

// FIFO returns the first-in-first-out eviction policy (oldest CreatedAt).
func FIFO() Policy { return fifoPolicy{} }

// LRU returns the least-recently-used eviction policy (oldest
// LastAccessedAt).
func LRU() Policy { return lruPolicy{} }

// LFU returns the least-frequently-used eviction policy (lowest
// AccessCount).
func LFU() Policy { return lfuPolicy{} }

// PolicyFromName maps a configured policy name to a Policy. "" and "none"
// yield a nil policy (capacity overflow becomes an error).
func PolicyFromName(name string) (Policy, error) {
	switch strings.ToLower(name) {
	case "", "none":
		return nil, nil
	case "fifo":
		return FIFO(), nil
	case "lru":
		return LRU(), nil
	case "lfu":
		return LFU(), nil
	default:
		return nil, errors.WrapInvalid(
			fmt.Errorf("eviction policy %q: %w", name, errors.ErrUnknownPolicy),
			"cache", "PolicyFromName", "policy lookup")
	}
}
