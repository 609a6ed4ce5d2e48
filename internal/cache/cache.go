// Package cache provides a keyed query cache with optimistic local writes.
//
// Each key holds the last known server state plus a registered fetch
// function. Local writes bump a per-key generation counter; a refetch only
// lands if the generation it started from is still current, which is how
// in-flight fetches are "cancelled" without interrupting the network call.
package cache

import (
	"context"
	"errors"
	"log"
	"sync"
)

// Key is a composite cache key, e.g. {"tasks", listID}.
type Key struct {
	Kind string
	Arg  string
}

// TasksKey is the cache key for a list's task collection.
func TasksKey(listID string) Key {
	return Key{Kind: "tasks", Arg: listID}
}

// ListsKey is the cache key for the set of task lists.
func ListsKey() Key {
	return Key{Kind: "lists"}
}

// FetchFunc loads fresh server state for one key.
type FetchFunc func(ctx context.Context) (any, error)

// ErrNotRegistered is returned when refreshing a key that has no fetcher.
var ErrNotRegistered = errors.New("no fetcher registered for key")

type entry struct {
	value any
	ok    bool
	stale bool
	fetch FetchFunc
	// gen counts local writes and cancellations. A refetch started at
	// generation g discards its result unless gen is still g when it lands.
	gen uint64
}

// Store is the cache. All methods are safe for concurrent use.
type Store struct {
	mu      sync.Mutex
	entries map[Key]*entry
}

// New creates an empty Store.
func New() *Store {
	return &Store{entries: make(map[Key]*entry)}
}

func (s *Store) entryLocked(key Key) *entry {
	e, ok := s.entries[key]
	if !ok {
		e = &entry{}
		s.entries[key] = e
	}
	return e
}

// Register installs the fetch function used by Invalidate and Refresh.
func (s *Store) Register(key Key, fetch FetchFunc) {
	s.mu.Lock()
	s.entryLocked(key).fetch = fetch
	s.mu.Unlock()
}

// Get returns the cached value for key, if any.
func (s *Store) Get(key Key) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok || !e.ok {
		return nil, false
	}
	return e.value, true
}

// Set writes value for key, superseding any in-flight refetch.
func (s *Store) Set(key Key, value any) {
	s.mu.Lock()
	e := s.entryLocked(key)
	e.value = value
	e.ok = true
	e.gen++
	s.mu.Unlock()
}

// Update applies fn to the current value (nil when absent) and stores the
// result, superseding any in-flight refetch.
func (s *Store) Update(key Key, fn func(old any) any) {
	s.mu.Lock()
	e := s.entryLocked(key)
	e.value = fn(e.value)
	e.ok = true
	e.gen++
	s.mu.Unlock()
}

// CancelInFlight makes any refetch currently in flight for key discard its
// result when it lands. The network call itself is not interrupted.
func (s *Store) CancelInFlight(key Key) {
	s.mu.Lock()
	s.entryLocked(key).gen++
	s.mu.Unlock()
}

// Stale reports whether key has been invalidated and not yet refreshed.
func (s *Store) Stale(key Key) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	return ok && e.stale
}

// Invalidate marks key stale and schedules a background refetch that
// reconciles the cache with server truth.
func (s *Store) Invalidate(key Key) {
	s.mu.Lock()
	s.entryLocked(key).stale = true
	s.mu.Unlock()

	go func() {
		if err := s.Refresh(context.Background(), key); err != nil {
			log.Printf("Cache refresh for %v failed: %v", key, err)
		}
	}()
}

// Refresh fetches fresh state for key synchronously. The result is dropped
// if a local write or cancellation happened while the fetch was in flight, so
// a stale response can never overwrite a newer optimistic write.
func (s *Store) Refresh(ctx context.Context, key Key) error {
	s.mu.Lock()
	e := s.entryLocked(key)
	fetch := e.fetch
	started := e.gen
	s.mu.Unlock()

	if fetch == nil {
		return ErrNotRegistered
	}

	value, err := fetch(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e.gen != started {
		// Superseded while in flight; keep the newer local state.
		return nil
	}
	e.value = value
	e.ok = true
	e.stale = false
	return nil
}
