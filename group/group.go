// Package group provides a keyed lazy map: a generic, sharded collection of
// concurrent thunk cells memoizing one computation per key.
//
// Get(k) forces the per-key cell, so the keyed computation runs exactly once
// per key across all goroutines — racing Gets for the same key coalesce on
// the cell the same way racing Forces on one AtomicThunk do. Results
// (including memoized failures and poison) are resident until an explicit
// Forget; there is no eviction, no TTL, and nothing implicit ever
// re-invokes a computation.
//
// Concurrency: the key space is split into shards, each protected by an
// RWMutex that only guards map residency. Computations run outside the
// shard lock, so a slow key never blocks lookups of other keys in its
// shard.
package group

import (
	"sync"

	"github.com/IvanBrykalov/thunk/internal/util"
	"github.com/IvanBrykalov/thunk/thunk"
)

// Options configures a Group. Zero values are safe; defaults are applied
// in New():
//   - Shards <= 0  -> auto, rounded up to the next power of two
//   - nil Metrics  -> thunk.NoopMetrics
type Options struct {
	// Shards defines the number of shards. If 0, an automatic value is
	// chosen (≈ 2*GOMAXPROCS) and rounded to the next power of two.
	Shards int

	// Metrics is forwarded to every per-key cell, so it observes
	// Hit/Forced/Waited/Failed/Poisoned across the whole group.
	Metrics thunk.Metrics
}

// Group is a sharded map of per-key concurrent cells over one keyed
// computation. All methods are safe for concurrent use by multiple
// goroutines.
type Group[K comparable, V any] struct {
	shards []*shard[K, V]
	fn     func(K) (V, error)
	met    thunk.Metrics
}

// shard is an independent partition of the group with its own lock and map.
type shard[K comparable, V any] struct {
	mu sync.RWMutex
	m  map[K]*thunk.AtomicThunk[V]

	// ---- hot counters (separate cache lines to avoid false sharing) ----
	_       util.CacheLinePad
	lookups util.PaddedAtomicInt64
	creates util.PaddedAtomicInt64
}

// New constructs a Group over the keyed computation fn.
// Panics if fn is nil.
func New[K comparable, V any](fn func(K) (V, error), opt Options) *Group[K, V] {
	if fn == nil {
		panic("group: nil computation")
	}
	met := opt.Metrics
	if met == nil {
		met = thunk.NoopMetrics{}
	}

	sh := opt.Shards
	if sh <= 0 {
		sh = util.ReasonableShardCount()
	} else {
		sh = int(util.NextPow2(uint64(sh)))
	}

	shards := make([]*shard[K, V], sh)
	for i := range shards {
		shards[i] = &shard[K, V]{m: make(map[K]*thunk.AtomicThunk[V])}
	}
	return &Group[K, V]{shards: shards, fn: fn, met: met}
}

// Get returns the memoized value for k, running fn(k) exactly once per key
// across all goroutines. Concurrent Gets for the same key coalesce; losers
// block until the winner publishes. A failure is memoized per key exactly
// like a single cell's.
func (g *Group[K, V]) Get(k K) (V, error) {
	s := g.shardFor(k)
	s.lookups.Add(1)

	s.mu.RLock()
	c, ok := s.m[k]
	s.mu.RUnlock()

	if !ok {
		s.mu.Lock()
		c, ok = s.m[k]
		if !ok {
			key := k
			c = thunk.NewAtomicWith(func() (V, error) { return g.fn(key) }, thunk.Options{Metrics: g.met})
			s.m[key] = c
			s.creates.Add(1)
		}
		s.mu.Unlock()
	}

	// Force outside the shard lock: a slow computation must not block
	// unrelated keys in this shard.
	return c.Force()
}

// Peek returns the cached value for k without forcing and without
// blocking: (value, true) only if the key's cell exists and is already
// forced.
func (g *Group[K, V]) Peek(k K) (V, bool) {
	s := g.shardFor(k)

	s.mu.RLock()
	c, ok := s.m[k]
	s.mu.RUnlock()

	if !ok {
		var zero V
		return zero, false
	}
	return c.Peek()
}

// Forget drops the cell for k, so a later Get re-creates it and re-invokes
// fn(k). This is the group's only way to re-run a computation and it is
// always explicit. An in-flight force keeps running for its current
// callers; they still observe the dropped cell's result.
// Returns true if a cell existed.
func (g *Group[K, V]) Forget(k K) bool {
	s := g.shardFor(k)

	s.mu.Lock()
	_, ok := s.m[k]
	if ok {
		delete(s.m, k)
	}
	s.mu.Unlock()
	return ok
}

// Len returns the number of resident cells across all shards, forced or
// not.
func (g *Group[K, V]) Len() int {
	total := 0
	for _, s := range g.shards {
		s.mu.RLock()
		total += len(s.m)
		s.mu.RUnlock()
	}
	return total
}

// Stats returns cumulative lookup and cell-creation counts.
func (g *Group[K, V]) Stats() (lookups, creates int64) {
	for _, s := range g.shards {
		lookups += s.lookups.Load()
		creates += s.creates.Load()
	}
	return lookups, creates
}

// shardFor picks a shard by hashing the key.
func (g *Group[K, V]) shardFor(k K) *shard[K, V] {
	h := util.Fnv64a(k)
	return g.shards[util.ShardIndex(h, len(g.shards))]
}
