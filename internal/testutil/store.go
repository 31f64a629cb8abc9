// Package testutil provides test doubles for the crawlcache pipeline:
// an in-memory store with a controllable clock, and scripted spider and
// sink fakes.
package testutil

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/crawlkit/crawlcache/pkg/store"
)

// ErrStoreDown is returned by a MemoryStore whose failure switches are set.
var ErrStoreDown = errors.New("store unavailable")

// Clock is a manually advanced clock for expiry tests.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock creates a Clock starting at t.
func NewClock(t time.Time) *Clock {
	return &Clock{now: t}
}

// Now returns the current clock time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type memEntry struct {
	data     []byte
	deadline time.Time
}

// MemoryStore is an in-memory store.Store whose entries expire against
// an injectable clock, making the store authoritative for expiry the
// way the remote store is in production.
type MemoryStore struct {
	mu      sync.Mutex
	now     func() time.Time
	entries map[string]memEntry

	// FailGet and FailPut force the corresponding operation to error,
	// simulating a store outage.
	FailGet bool
	FailPut bool

	// GetCalls and PutCalls count operations.
	GetCalls int
	PutCalls int

	// LastPutKey and LastPutTTL record the most recent Put.
	LastPutKey string
	LastPutTTL time.Duration
}

// NewMemoryStore creates a MemoryStore on the real clock.
func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreWithClock(time.Now)
}

// NewMemoryStoreWithClock creates a MemoryStore on the given clock.
func NewMemoryStoreWithClock(now func() time.Time) *MemoryStore {
	return &MemoryStore{now: now, entries: make(map[string]memEntry)}
}

// Get implements store.Store.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.GetCalls++

	if s.FailGet {
		return nil, ErrStoreDown
	}

	entry, ok := s.entries[key]
	if !ok {
		return nil, store.ErrNotFound
	}
	if !entry.deadline.IsZero() && !s.now().Before(entry.deadline) {
		delete(s.entries, key)
		return nil, store.ErrNotFound
	}

	data := make([]byte, len(entry.data))
	copy(data, entry.data)
	return data, nil
}

// Put implements store.Store.
func (s *MemoryStore) Put(_ context.Context, key string, data []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.PutCalls++
	s.LastPutKey = key
	s.LastPutTTL = ttl

	if s.FailPut {
		return ErrStoreDown
	}

	stored := make([]byte, len(data))
	copy(stored, data)

	var deadline time.Time
	if ttl > 0 {
		deadline = s.now().Add(ttl)
	}
	s.entries[key] = memEntry{data: stored, deadline: deadline}
	return nil
}

// Delete implements store.Store.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

// Len returns the number of live entries (including not-yet-collected
// expired ones).
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Corrupt overwrites the entry under key with bytes that cannot decode.
func (s *MemoryStore) Corrupt(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok := s.entries[key]; ok {
		entry.data = []byte("{not valid")
		s.entries[key] = entry
	}
}
