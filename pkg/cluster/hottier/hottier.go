// Package hottier provides a capacity-bounded, TTL-aware in-memory cache
// used by pkg/cluster to bound the memory growth of values hydrated from a
// shard's backing Store. Unlike the shard's own skip-list index (which is
// unbounded and holds every key explicitly Put by a caller), the hot tier
// only ever holds values that were *read back* from slower storage — it is
// pure acceleration and is always safe to evict from, since the Store
// remains the value's durable home.
//
// The design is adapted directly from the teacher's shard/CLOCK-Pro/genring
// composition (pkg/shard.go, pkg/cache.go): a hashed index keyed by
// maphash.Hash, CLOCK-Pro eviction metadata in internal/clockpro, and a
// generation ring of off-heap arenas in internal/genring providing O(1) bulk
// TTL expiration. Where the teacher kept K generic, this package fixes
// K=string to match the single key type pkg/cluster works with.
//
// © 2025 contihash authors. MIT License.
package hottier

import (
	"hash/maphash"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	arena "github.com/riftcache/contihash/internal/arena"
	"github.com/riftcache/contihash/internal/clockpro"
	"github.com/riftcache/contihash/internal/genring"
)

// entry mirrors internal/clockpro's expected layout exactly (see the
// warning in clockpro.go): field order and types up to state must match
// byte-for-byte since clockpro reinterprets *entry via unsafe.Pointer.
type entry[V any] struct {
	h      uint64
	vptr   unsafe.Pointer
	key    string
	weight uint32
	genID  uint32
	state  uint8
}

// EvictFunc is invoked whenever the hot tier drops a value to stay within
// its byte budget. Values dropped because their generation's TTL elapsed
// are not reported to it. It is called synchronously from within Put's
// critical section — implementations must not call back into the same Cache
// or block for long.
type EvictFunc[V any] func(key string, val V, reason clockpro.EvictionReason)

// Cache is a capacity-bounded accelerator cache. All methods are safe for
// concurrent use.
type Cache[V any] struct {
	mu sync.RWMutex

	index   map[uint64]*entry[V]
	clock   *clockpro.Clock[string, V]
	genRing *genring.Ring[string, V]
	seed    maphash.Seed

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

// New constructs a hot tier bounded at capBytes, expiring generations of
// values older than ttl. evict, if non-nil, observes every value dropped
// from the tier by capacity eviction (TTL expiry is not reported) —
// pkg/cluster uses this purely for metrics since the Store already holds the
// authoritative copy.
func New[V any](capBytes int64, ttl time.Duration, evict EvictFunc[V]) *Cache[V] {
	var ejectCb func(string, V, clockpro.EvictionReason)
	if evict != nil {
		ejectCb = evict
	}
	return &Cache[V]{
		index:   make(map[uint64]*entry[V], 1024),
		clock:   clockpro.NewClock[string, V](capBytes, nil, ejectCb),
		genRing: genring.New[string, V](capBytes, ttl),
		seed:    maphash.MakeSeed(),
	}
}

func (c *Cache[V]) hash(key string) uint64 {
	var h maphash.Hash
	h.SetSeed(c.seed)
	h.WriteString(key)
	return h.Sum64()
}

// Get returns the value cached for key, if present and not yet evicted.
func (c *Cache[V]) Get(key string) (val V, ok bool) {
	h := c.hash(key)

	c.mu.Lock()
	defer c.mu.Unlock()

	ent, found := c.index[h]
	// An entry in clockpro's TEST state (0b10 in the low bits) is a ghost:
	// its value was evicted or its generation's arena was freed.
	if !found || ent.key != key || ent.state&0b11 == 0b10 {
		c.misses.Add(1)
		return val, false
	}

	c.hits.Add(1)
	clockpro.SetReferenced(&ent.state)

	vp := (*V)(ent.vptr)
	if vp == nil {
		return val, false
	}
	return *vp, true
}

// Put inserts or refreshes key's value in the hot tier, weighted by weight
// (typically the encoded byte length). Capacity-triggered eviction may run
// synchronously as part of this call.
func (c *Cache[V]) Put(key string, val V, weight int) {
	h := c.hash(key)

	c.mu.Lock()
	defer c.mu.Unlock()

	// A ghost entry is replaced by a fresh one below rather than refreshed.
	if old, ok := c.index[h]; ok && old.key == key && old.state&0b11 != 0b10 {
		gen := c.genRing.Active()
		ptr := arena.NewValue[V](gen.Arena())
		*ptr = val

		old.vptr = unsafe.Pointer(ptr)
		atomic.StoreUint32(&old.weight, uint32(weight))
		old.genID = gen.ID()
		return
	}

	gen := c.genRing.Active()
	ptr := arena.NewValue[V](gen.Arena())
	*ptr = val

	ent := &entry[V]{
		h:      h,
		vptr:   unsafe.Pointer(ptr),
		key:    key,
		weight: uint32(weight),
		genID:  gen.ID(),
		state:  0, // cold; clock.Insert sets cold|refBit internally
	}

	c.index[h] = ent
	c.clock.Insert(unsafe.Pointer(ent))

	if c.genRing.CheckRotationNeeded(int64(weight)) {
		c.rotate()
	}
}

// rotate advances the generation ring and tells CLOCK-Pro about whichever
// generation just fell out of the TTL window, so its entries become ghosts
// instead of vanishing outright.
func (c *Cache[V]) rotate() {
	deadGen := c.genRing.Rotate()
	if deadGen == nil {
		return
	}
	c.clock.GenerationEvicted(deadGen.ID())
}

// Delete removes key from the hot tier immediately. It does not invoke evict.
func (c *Cache[V]) Delete(key string) {
	h := c.hash(key)

	c.mu.Lock()
	ent, ok := c.index[h]
	if ok && ent.key == key {
		delete(c.index, h)
		c.clock.Remove(unsafe.Pointer(ent))
		c.evictions.Add(1)
	}
	c.mu.Unlock()
}

// Len returns the approximate number of live entries.
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	n := len(c.index)
	c.mu.RUnlock()
	return n
}

// Stats returns cumulative hit/miss/eviction counters for Prometheus export.
func (c *Cache[V]) Stats() (hits, misses, evictions uint64) {
	return c.hits.Load(), c.misses.Load(), c.evictions.Load()
}

// ArenaBytes reports the hot tier's actual off-heap arena usage across all
// live generations, as tracked by internal/arena — distinct from the
// caller-supplied weight budget the generation ring rotates on.
// pkg/cluster exports this as a per-shard gauge.
func (c *Cache[V]) ArenaBytes() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.genRing.ArenaBytes()
}
