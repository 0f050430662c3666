// Package cluster wires the continuum, bloom filter, skip list and hottier
// packages into the request path the wider spec describes: dispatch a key
// to its shard, consult the shard's ordered index, and on a miss fall back
// first to the shard's bounded hot tier and then to an optional backing
// Store — hydrating the hot tier (never the unbounded index) with whatever
// the store returns.
//
// The composition mirrors the teacher's pkg/cache.go: a top-level type
// fronting per-shard state, functional options (config.go), a pluggable
// metrics sink (metrics.go) and a singleflight-deduped loader (loader.go).
// The hot tier itself (pkg/cluster/hottier) adapts the teacher's
// CLOCK-Pro/genring/arena shard machinery to bound exactly this fallback
// path instead of the whole cache.
//
// © 2025 contihash authors. MIT License.
package cluster

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/riftcache/contihash/internal/bloom"
	"github.com/riftcache/contihash/internal/clockpro"
	"github.com/riftcache/contihash/internal/continuum"
	"github.com/riftcache/contihash/internal/endpoint"
	"github.com/riftcache/contihash/internal/skiplist"
	"github.com/riftcache/contihash/pkg/cluster/hottier"
)

// ErrNotFound is returned by Get when the bloom filter rules a key out (no
// Store configured), or when the key is absent from the shard's index, its
// hot tier and the backing store (if any).
var ErrNotFound = errors.New("cluster: key not found")

// maxKeySentinel seeds each shard's skip list tail; every real key must
// sort below it. A long run of 0xFF bytes dominates any key shorter than it
// under byte-wise lexicographic comparison, which is the only comparator
// this package uses.
const maxKeySentinel = "\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff"

func compareKeys(a, b string) int { return strings.Compare(a, b) }

// shardState is the per-shard composition of a bloom pre-filter and an
// ordered in-memory index. Per spec.md §5 the skip list is single-writer;
// mu enforces that externally since skiplist.List has no internal lock.
type shardState[V any] struct {
	mu    sync.RWMutex
	bloom *bloom.Filter
	index *skiplist.List[string, V]

	// hot caches Store-hydrated reads only; values explicitly Put always go
	// straight into index instead, which is never evicted.
	hot *hottier.Cache[V]
}

// Cluster dispatches keys across shards via a consistent-hashing ring and
// serves them from the shard's ordered index, then its hot tier, then
// (optionally) a slower backing store. The bloom pre-check runs before the
// index only when no Store is configured.
type Cluster[V any] struct {
	ring *continuum.Continuum

	shardsMu sync.RWMutex
	shards   map[endpoint.Endpoint]*shardState[V]

	cfg     *config
	metrics metricsSink
	loaders *loaderGroup[V]
}

// New constructs a Cluster from a continuum build configuration plus
// options. Every shard named in cfg.Shards gets its own bloom filter and
// ordered index, sized per WithBloomSizing.
func New[V any](cfg continuum.BuildConfig, opts ...Option) (*Cluster[V], error) {
	ccfg := defaultConfig()
	for _, opt := range opts {
		opt(ccfg)
	}
	if err := ccfg.validate(); err != nil {
		return nil, err
	}

	ring, err := continuum.Build(cfg, continuum.WithLogger(ccfg.logger))
	if err != nil {
		return nil, fmt.Errorf("cluster: building ring: %w", err)
	}

	c := &Cluster[V]{
		ring:    ring,
		shards:  make(map[endpoint.Endpoint]*shardState[V], len(cfg.Shards)),
		cfg:     ccfg,
		metrics: newMetricsSink(ccfg.registry),
		loaders: newLoaderGroup[V](),
	}
	for ep := range cfg.Shards {
		ss, err := c.newShardState()
		if err != nil {
			return nil, err
		}
		c.shards[ep] = ss
	}
	return c, nil
}

func (c *Cluster[V]) newShardState() (*shardState[V], error) {
	f, err := bloom.New(c.cfg.bloomExpected, c.cfg.bloomFalsePos, bloom.WithAllocator(c.cfg.bloomAllocator))
	if err != nil {
		return nil, fmt.Errorf("cluster: allocating shard bloom filter: %w", err)
	}
	evict := func(key string, val V, reason clockpro.EvictionReason) {
		c.metrics.incHotTierEvict()
	}
	return &shardState[V]{
		bloom: f,
		index: skiplist.New[string, V](skiplist.MaxHeight, 0.5, maxKeySentinel, compareKeys, 0),
		hot:   hottier.New[V](c.cfg.hotTierCapBytes, c.cfg.hotTierTTL, evict),
	}, nil
}

// shardFor resolves key to its shard's state, lazily creating it if this is
// the first key seen for a shard the ring knows about but Cluster hasn't
// instantiated state for yet (can happen immediately after AddShard races
// with a concurrent Put — resolved here rather than in AddShard to avoid
// holding shardsMu across a bloom allocation).
func (c *Cluster[V]) shardFor(ep endpoint.Endpoint) (*shardState[V], error) {
	c.shardsMu.RLock()
	ss, ok := c.shards[ep]
	c.shardsMu.RUnlock()
	if ok {
		return ss, nil
	}

	newSS, err := c.newShardState()
	if err != nil {
		return nil, err
	}

	c.shardsMu.Lock()
	defer c.shardsMu.Unlock()
	if ss, ok := c.shards[ep]; ok {
		return ss, nil
	}
	c.shards[ep] = newSS
	return newSS, nil
}

// Put inserts or overwrites key's value in its shard's index, and records
// it in the shard's bloom filter. Unlike the bare skiplist (which rejects
// duplicates), Put upserts: an existing key is removed and reinserted with
// the new value.
func (c *Cluster[V]) Put(ctx context.Context, key string, val V) error {
	ep, err := c.ring.EndpointFor([]byte(key))
	if err != nil {
		return err
	}
	c.metrics.incResolve()

	ss, err := c.shardFor(ep)
	if err != nil {
		return err
	}

	ss.mu.Lock()
	if err := ss.index.Insert(key, val); errors.Is(err, skiplist.ErrDuplicate) {
		_ = ss.index.Remove(key)
		_ = ss.index.Insert(key, val)
	}
	ss.bloom.Insert([]byte(key))
	size := ss.index.Len()
	fillRatio := ss.bloom.FillRatio()
	ss.mu.Unlock()

	c.metrics.setIndexSize(ep.String(), size)
	c.metrics.setBloomFillRatio(ep.String(), fillRatio)

	if c.cfg.store != nil && c.cfg.encode != nil {
		if err := c.cfg.store.Set(ctx, []byte(key), c.cfg.encode(val)); err != nil {
			return fmt.Errorf("cluster: persisting to store: %w", err)
		}
	}
	return nil
}

// Get returns the value for key. When no backing Store is configured, the
// shard's bloom filter gates the lookup: a negative answer short-circuits
// without touching the index, since the bloom filter and index are always
// updated together by Put and so can never disagree. With a Store
// configured that guarantee no longer holds — a freshly created shard's
// bloom filter (after a restart, a rebalance, or simply never having seen a
// Put for a key another shard instance wrote) knows nothing about values
// that exist only in the durable store, so the bloom pre-check is skipped
// and the lookup always falls through to the index, then the store.
func (c *Cluster[V]) Get(ctx context.Context, key string) (V, error) {
	var zero V

	ep, err := c.ring.EndpointFor([]byte(key))
	if err != nil {
		return zero, err
	}
	c.metrics.incResolve()

	ss, err := c.shardFor(ep)
	if err != nil {
		return zero, err
	}

	if c.cfg.store == nil && !ss.bloom.MightContain([]byte(key)) {
		c.metrics.incMiss()
		return zero, ErrNotFound
	}

	ss.mu.RLock()
	v, ok := ss.index.Find(key)
	ss.mu.RUnlock()
	if ok {
		c.metrics.incHit()
		return v, nil
	}

	if hv, ok := ss.hot.Get(key); ok {
		c.metrics.incHit()
		return hv, nil
	}

	if c.cfg.store != nil && c.cfg.decode != nil {
		raw, err := c.cfg.store.Get(ctx, []byte(key))
		if err == nil {
			decoded, err := c.cfg.decode(raw)
			if err != nil {
				return zero, fmt.Errorf("cluster: decoding stored value: %w", err)
			}
			v := decoded.(V)
			ss.hot.Put(key, v, len(raw))
			c.metrics.incStoreHit()
			c.metrics.setHotTierArenaBytes(ep.String(), float64(ss.hot.ArenaBytes()))
			return v, nil
		}
		if !errors.Is(err, ErrStoreMiss) {
			return zero, fmt.Errorf("cluster: store lookup: %w", err)
		}
	}

	c.metrics.incMiss()
	return zero, ErrNotFound
}

// GetOrLoad returns the value for key, invoking fn to populate it on a
// miss. Concurrent GetOrLoad calls for the same key whose loads overlap in
// time share a single fn invocation; a caller whose Get missed just before
// an earlier load's Put landed may invoke fn again.
func (c *Cluster[V]) GetOrLoad(ctx context.Context, key string, fn LoaderFunc[V]) (V, error) {
	v, err := c.Get(ctx, key)
	if err == nil {
		return v, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return v, err
	}

	loaded, err := c.loaders.load(ctx, key, fn)
	if err != nil {
		var zero V
		return zero, err
	}
	if err := c.Put(ctx, key, loaded); err != nil {
		return loaded, err
	}
	return loaded, nil
}

// AddShard grows the ring by one shard and instantiates its bloom filter
// and index. Returns continuum.ErrDuplicate if the endpoint is already
// present.
func (c *Cluster[V]) AddShard(ep endpoint.Endpoint, capacity uint64) error {
	if err := c.ring.Add(ep, capacity); err != nil {
		return err
	}
	c.metrics.incShardAdd()

	ss, err := c.newShardState()
	if err != nil {
		return err
	}
	c.shardsMu.Lock()
	// A concurrent Put may already have created this shard's state through
	// shardFor; keep it rather than discard what it holds.
	if _, ok := c.shards[ep]; !ok {
		c.shards[ep] = ss
	}
	c.shardsMu.Unlock()
	return nil
}

// RemoveShard shrinks the ring by one shard and discards its local state.
// Any values held only in that shard's index are lost unless mirrored to a
// Store beforehand — Put already does this when a codec is configured.
func (c *Cluster[V]) RemoveShard(ep endpoint.Endpoint) error {
	if err := c.ring.Remove(ep); err != nil {
		return err
	}
	c.metrics.incShardRemove()

	c.shardsMu.Lock()
	delete(c.shards, ep)
	c.shardsMu.Unlock()
	return nil
}

// Describe returns the ring's current topology snapshot.
func (c *Cluster[V]) Describe() continuum.Snapshot {
	return c.ring.Describe()
}

// Close releases the backing store, if any. The in-memory state (bloom
// filters backed by Mmap allocators) is released by their own Close, which
// Cluster does not call automatically since shards may still be in use by
// concurrent callers; a full shutdown sequence belongs to the owner of the
// Cluster, not to Cluster itself.
func (c *Cluster[V]) Close() error {
	if c.cfg.store != nil {
		return c.cfg.store.Close()
	}
	return nil
}
