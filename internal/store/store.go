/*
author: akashmaji
email: akashmaji@iisc.ac.in
file: respkv/internal/store/store.go
*/

// Package store implements the concurrent key/value store: an entry map
// keyed by string, plus a separate list map, both sharded by key hash so
// that independent keys contend only when they hash to the same shard.
package store

import (
	"hash/fnv"
	"sync"
	"time"
)

// shardCount is the number of independent locked shards per namespace.
// Picked as a power of two so index derivation is a cheap mask.
const shardCount = 32

// Entry is a stored string value with an optional expiry deadline.
type Entry struct {
	Value    []byte
	Deadline time.Time // zero value means no expiry
}

// HasDeadline reports whether e carries an expiry deadline.
func (e Entry) HasDeadline() bool {
	return !e.Deadline.IsZero()
}

func (e Entry) expired(now time.Time) bool {
	return e.HasDeadline() && !e.Deadline.After(now)
}

type stringShard struct {
	mu   sync.RWMutex
	data map[string]Entry
}

type listShard struct {
	mu   sync.RWMutex
	data map[string][][]byte
}

// Store is the process-wide key/value store. The string namespace and the
// list namespace are independent: a key present in one says nothing about
// its presence in the other. Both namespaces are sharded by an FNV hash of
// the key so operations on unrelated keys block one another only when the
// keys land in the same shard.
type Store struct {
	strings [shardCount]*stringShard
	lists   [shardCount]*listShard
}

// New returns an empty Store ready for concurrent use.
func New() *Store {
	s := &Store{}
	for i := range s.strings {
		s.strings[i] = &stringShard{data: make(map[string]Entry)}
	}
	for i := range s.lists {
		s.lists[i] = &listShard{data: make(map[string][][]byte)}
	}
	return s
}

// shardIndex picks a shard in [0, shardCount) for key via FNV-1a, so the
// same key always routes to the same shard regardless of which namespace
// is being addressed.
func shardIndex(key string) int {
	h := fnv.New32a()
	h.Write([]byte(key))
	return int(h.Sum32() % shardCount)
}

func (s *Store) stringShardFor(key string) *stringShard {
	return s.strings[shardIndex(key)]
}

func (s *Store) listShardFor(key string) *listShard {
	return s.lists[shardIndex(key)]
}

// Get returns the stored value for key and true, unless the key is absent
// or its deadline has passed (an expired-but-not-yet-reaped entry reports
// a miss, per spec, even though the scheduler hasn't deleted it yet).
func (s *Store) Get(key string) ([]byte, bool) {
	shard := s.stringShardFor(key)
	shard.mu.RLock()
	defer shard.mu.RUnlock()

	entry, ok := shard.data[key]
	if !ok || entry.expired(time.Now()) {
		return nil, false
	}
	return entry.Value, true
}

// Set unconditionally inserts or replaces key's value, with an optional
// deadline (the zero Time means no expiry). It returns the entry that was
// previously stored, if any, for observability only.
func (s *Store) Set(key string, value []byte, deadline time.Time) (previous Entry, hadPrevious bool) {
	shard := s.stringShardFor(key)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	previous, hadPrevious = shard.data[key]
	shard.data[key] = Entry{Value: value, Deadline: deadline}
	return previous, hadPrevious
}

// GetExpiration returns the deadline stored for key, if the key exists and
// carries one. The second return value is false if the key is absent or
// has no expiry, regardless of whether it has already passed.
func (s *Store) GetExpiration(key string) (deadline time.Time, ok bool) {
	shard := s.stringShardFor(key)
	shard.mu.RLock()
	defer shard.mu.RUnlock()

	entry, exists := shard.data[key]
	if !exists || !entry.HasDeadline() {
		return time.Time{}, false
	}
	return entry.Deadline, true
}

// Remove unconditionally deletes key from the string namespace. It is a
// no-op if the key is absent.
func (s *Store) Remove(key string) {
	shard := s.stringShardFor(key)
	shard.mu.Lock()
	defer shard.mu.Unlock()
	delete(shard.data, key)
}

// RemoveIfDeadline deletes key from the string namespace only if its
// currently stored deadline still equals deadline, reporting whether it
// did so. This is the stale-event check the expiry scheduler performs at
// pop time: a key re-SET with a new deadline after this one was scheduled
// must survive the now-stale event for the old deadline.
func (s *Store) RemoveIfDeadline(key string, deadline time.Time) (removed bool) {
	shard := s.stringShardFor(key)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	entry, exists := shard.data[key]
	if !exists || !entry.HasDeadline() || !entry.Deadline.Equal(deadline) {
		return false
	}
	delete(shard.data, key)
	return true
}

// RPush appends elements, in order, to the list stored at key (creating it
// if absent) and returns the list's length after the append.
func (s *Store) RPush(key string, elements [][]byte) int {
	shard := s.listShardFor(key)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	shard.data[key] = append(shard.data[key], elements...)
	return len(shard.data[key])
}

// List returns a snapshot copy of the list stored at key, for tests and
// diagnostics; ok is false if the key has no list.
func (s *Store) List(key string) (values [][]byte, ok bool) {
	shard := s.listShardFor(key)
	shard.mu.RLock()
	defer shard.mu.RUnlock()

	elems, exists := shard.data[key]
	if !exists {
		return nil, false
	}
	out := make([][]byte, len(elems))
	copy(out, elems)
	return out, true
}
