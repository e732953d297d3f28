package series

import (
	"fmt"
	"sync"
	"time"

	"github.com/dgnsrekt/chainview/internal/chain"
)

const (
	DefaultRetention = 5 * time.Minute
	DefaultCapacity  = 128
)

// VolumePoint is the volume-only projection of one strike.
type VolumePoint struct {
	Strike     float64 `json:"strike"`
	PutVolume  *int64  `json:"put_volume"`
	CallVolume *int64  `json:"call_volume"`
}

// Slim is a timestamped volume projection of a full chain.
type Slim struct {
	Timestamp time.Time
	Points    []VolumePoint
}

// Project reduces a chain table to its volumes.
func Project(t *chain.Table, ts time.Time) Slim {
	rows := t.Ascending()
	points := make([]VolumePoint, len(rows))
	for i, r := range rows {
		points[i] = VolumePoint{Strike: r.Strike, PutVolume: r.PutVolume, CallVolume: r.CallVolume}
	}
	return Slim{Timestamp: ts, Points: points}
}

// Key identifies one series.
type Key struct {
	Symbol     string
	ExpiryMode string
	DTE        int
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s/%d", k.Symbol, k.ExpiryMode, k.DTE)
}

type series struct {
	mu      sync.Mutex
	entries []Slim // oldest first
}

// Buffer keeps an age and size bounded series of snapshots per key.
// Each series has its own lock so different keys never contend.
type Buffer struct {
	retention time.Duration
	capacity  int

	mu     sync.Mutex
	series map[Key]*series
}

// NewBuffer creates a buffer. Non-positive arguments fall back to the defaults.
func NewBuffer(retention time.Duration, capacity int) *Buffer {
	if retention <= 0 {
		retention = DefaultRetention
	}
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{
		retention: retention,
		capacity:  capacity,
		series:    make(map[Key]*series),
	}
}

func (b *Buffer) get(key Key) *series {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.series[key]
	if !ok {
		s = &series{}
		b.series[key] = s
	}
	return s
}

// Append adds snap to the tail of the key's series, enforces the capacity cap,
// prunes by age relative to now, and returns a copy of the retained entries
// other than the one just appended.
func (b *Buffer) Append(key Key, snap Slim, now time.Time) []Slim {
	s := b.get(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append(s.entries, snap)
	if over := len(s.entries) - b.capacity; over > 0 {
		s.entries = append([]Slim(nil), s.entries[over:]...)
	}
	b.pruneLocked(s, now)

	n := len(s.entries)
	if n > 0 && s.entries[n-1].Timestamp.Equal(snap.Timestamp) {
		n--
	}
	prior := make([]Slim, n)
	copy(prior, s.entries[:n])
	return prior
}

// Prune removes head entries older than the retention window and returns how many were dropped.
func (b *Buffer) Prune(key Key, now time.Time) int {
	s := b.get(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	return b.pruneLocked(s, now)
}

func (b *Buffer) pruneLocked(s *series, now time.Time) int {
	cutoff := now.Add(-b.retention)
	drop := 0
	for drop < len(s.entries) && s.entries[drop].Timestamp.Before(cutoff) {
		drop++
	}
	if drop > 0 {
		s.entries = append([]Slim(nil), s.entries[drop:]...)
	}
	return drop
}

// Entries returns a copy of the key's series, oldest first.
func (b *Buffer) Entries(key Key) []Slim {
	s := b.get(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Slim, len(s.entries))
	copy(out, s.entries)
	return out
}

// Depth returns the number of entries held for key.
func (b *Buffer) Depth(key Key) int {
	s := b.get(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Reset drops every series and returns how many keys were cleared.
func (b *Buffer) Reset() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	count := len(b.series)
	b.series = make(map[Key]*series)
	return count
}
