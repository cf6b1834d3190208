// SPDX-License-Identifier: MIT
package history

import (
	"sort"
	"sync"
)

type shard[T any] struct {
	mu    sync.Mutex
	store *Store[T]
}

// Arena holds one Store per stream key, each behind its own lock, so
// independent streams never contend.
type Arena[K comparable, T any] struct {
	mu       sync.RWMutex
	capacity int
	shards   map[K]*shard[T]
}

// NewArena returns an arena whose stores hold at most capacity entries.
func NewArena[K comparable, T any](capacity int) *Arena[K, T] {
	return &Arena[K, T]{
		capacity: capacity,
		shards:   make(map[K]*shard[T]),
	}
}

func (a *Arena[K, T]) shard(key K) *shard[T] {
	a.mu.RLock()
	sh, ok := a.shards[key]
	a.mu.RUnlock()
	if ok {
		return sh
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if sh, ok = a.shards[key]; !ok {
		sh = &shard[T]{store: NewStore[T](a.capacity)}
		a.shards[key] = sh
	}
	return sh
}

// With runs fn on the store for key while holding that store's lock,
// creating the store on first use. fn must not retain the store.
func (a *Arena[K, T]) With(key K, fn func(*Store[T])) {
	sh := a.shard(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	fn(sh.store)
}

// Push appends v to the store for key.
func (a *Arena[K, T]) Push(key K, v T) {
	a.With(key, func(s *Store[T]) { s.Push(v) })
}

// Items returns a copy of the entries for key, oldest first. An unknown key
// yields nil without creating a store.
func (a *Arena[K, T]) Items(key K) []T {
	a.mu.RLock()
	sh, ok := a.shards[key]
	a.mu.RUnlock()
	if !ok {
		return nil
	}
	sh.mu.Lock()
	defer sh.mu.Unlock()
	return sh.store.Items()
}

// Delete drops the store for key.
func (a *Arena[K, T]) Delete(key K) {
	a.mu.Lock()
	delete(a.shards, key)
	a.mu.Unlock()
}

// Len returns the number of keys with a store.
func (a *Arena[K, T]) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.shards)
}

// Keys returns the keys with a store. Order is unspecified unless less is
// non-nil.
func (a *Arena[K, T]) Keys(less func(x, y K) bool) []K {
	a.mu.RLock()
	keys := make([]K, 0, len(a.shards))
	for k := range a.shards {
		keys = append(keys, k)
	}
	a.mu.RUnlock()
	if less != nil {
		sort.Slice(keys, func(i, j int) bool { return less(keys[i], keys[j]) })
	}
	return keys
}
