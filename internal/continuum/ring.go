// Package continuum implements the weighted consistent-hashing dispatcher:
// given a set of shards with capacities, it places each shard on a ring at
// multiple points proportional to its share of total capacity, then resolves
// arbitrary keys to the shard owning the nearest point clockwise from the
// key's hash.
//
// © 2025 contihash authors. MIT License.
package continuum

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/riftcache/contihash/internal/endpoint"
	"github.com/riftcache/contihash/internal/hashutil"
)

// Sentinel errors, matching the error taxonomy: all surface to the caller,
// none are retried internally.
var (
	ErrTooManyShards = errors.New("continuum: more shards than declared server count")
	ErrEmptyRing     = errors.New("continuum: ring has no points")
	ErrDuplicate     = errors.New("continuum: shard already present")
	ErrNotFound      = errors.New("continuum: shard not found")
)

// ShardRecord describes one shard's identity and weight.
type ShardRecord struct {
	Endpoint endpoint.Endpoint
	Capacity uint64
}

// RingPoint is one placement of a shard on the hash ring.
type RingPoint struct {
	Endpoint endpoint.Endpoint
	Position uint32
}

// ring is the immutable snapshot published on every mutation. Readers that
// hold a *ring never observe a partial update.
type ring struct {
	points       []RingPoint   // sorted ascending by Position
	shards       []ShardRecord // sorted by Endpoint.Less
	totalMemory  uint64
	totalServers int
}

// Continuum is the consistent-hashing dispatcher. The zero value is not
// usable; construct with Build. Safe for concurrent use: EndpointFor never
// blocks on Add/Remove beyond a single pointer load.
type Continuum struct {
	cur atomic.Pointer[ring]

	// writeMu serializes Add/Remove against each other; it is never held
	// during EndpointFor.
	writeMu sync.Mutex

	shardsPerEntry      int
	reserveFactor       float64
	declaredServerCount int
	logger              *zap.Logger
}

// Option configures a Continuum at Build time.
type Option func(*Continuum)

// WithLogger attaches a logger used only for non-fatal warnings (a shard
// rounding down to zero points, rejected bulk loads). The hot path never
// logs. Default is a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Continuum) { c.logger = l }
}

// Build constructs a Continuum from cfg: drains cfg.Shards, rejects the load
// if it exceeds cfg.DeclaredServerCount, computes each shard's point count
// proportional to its capacity share, and publishes the initial ring.
func Build(cfg BuildConfig, opts ...Option) (*Continuum, error) {
	if len(cfg.Shards) > cfg.DeclaredServerCount {
		return nil, fmt.Errorf("%w: %d shards, declared max %d", ErrTooManyShards, len(cfg.Shards), cfg.DeclaredServerCount)
	}

	reserveFactor := cfg.ReserveFactor
	if reserveFactor <= 0 {
		reserveFactor = DefaultReserveFactor
	}

	c := &Continuum{
		shardsPerEntry:      cfg.ShardsPerEntry,
		reserveFactor:       reserveFactor,
		declaredServerCount: cfg.DeclaredServerCount,
		logger:              zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if len(cfg.Shards) > cfg.DeclaredServerCount {
		c.logger.Warn("rejecting shard load: more shards than declared server count",
			zap.Int("shards", len(cfg.Shards)),
			zap.Int("declared", cfg.DeclaredServerCount))
		return nil, fmt.Errorf("%w: %d shards, declared max %d", ErrTooManyShards, len(cfg.Shards), cfg.DeclaredServerCount)
	}

	shards := make([]ShardRecord, 0, int(float64(len(cfg.Shards))*reserveFactor)+1)
	var totalMemory uint64
	for ep, cap := range cfg.Shards {
		shards = append(shards, ShardRecord{Endpoint: ep, Capacity: cap})
		totalMemory += cap
	}
	sort.Slice(shards, func(i, j int) bool { return shards[i].Endpoint.Less(shards[j].Endpoint) })

	totalServers := len(shards)
	pointCap := int(float64(totalServers*c.shardsPerEntry) * reserveFactor)
	points := make([]RingPoint, 0, pointCap)
	for _, sr := range shards {
		points = append(points, c.computePoints(sr, totalMemory, totalServers)...)
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Position < points[j].Position })

	c.cur.Store(&ring{
		points:       points,
		shards:       shards,
		totalMemory:  totalMemory,
		totalServers: totalServers,
	})
	return c, nil
}

// computePoints implements spec §4.5 step 4–5: ratio of capacity to total
// capacity, scaled by shardsPerEntry and the shard count, capped at
// shardsPerEntry. A shard that rounds down to zero points is logged but not
// an error — it is simply unroutable until capacity or shard count changes.
func (c *Continuum) computePoints(sr ShardRecord, totalMemory uint64, totalServers int) []RingPoint {
	if totalMemory == 0 || c.shardsPerEntry <= 0 {
		return nil
	}
	ratio := float64(sr.Capacity) / float64(totalMemory)
	n := int(math.Floor(ratio * float64(c.shardsPerEntry) * float64(totalServers)))
	if n > c.shardsPerEntry {
		n = c.shardsPerEntry
	}
	if n <= 0 {
		c.logger.Warn("shard rounds to zero ring points",
			zap.String("endpoint", sr.Endpoint.String()),
			zap.Uint64("capacity", sr.Capacity))
		return nil
	}

	pts := make([]RingPoint, 0, n)
	for i := 0; i < n; i++ {
		pos := hashutil.SumString(fmt.Sprintf("%s-%d", sr.Endpoint.String(), i), 0)
		pts = append(pts, RingPoint{Endpoint: sr.Endpoint, Position: pos})
	}
	return pts
}

// EndpointFor resolves key to the shard owning the nearest ring point at or
// after hash(key), wrapping to the first point if the hash is greater than
// every position. This is the hot path: no allocation, no locking beyond an
// atomic pointer load.
func (c *Continuum) EndpointFor(key []byte) (endpoint.Endpoint, error) {
	r := c.cur.Load()
	if len(r.points) == 0 {
		return endpoint.Endpoint{}, ErrEmptyRing
	}

	h := hashutil.Sum32(key, 0)
	idx := sort.Search(len(r.points), func(i int) bool { return r.points[i].Position >= h })
	if idx == len(r.points) {
		idx = 0
	}
	return r.points[idx].Endpoint, nil
}

// Add inserts a new shard with the given capacity and recomputes its ring
// points against the updated totals. Per spec §4.5 this does NOT
// re-normalize existing shards' point counts — a documented, intentional
// deviation from an ideal rebalance, preserved from the reference behavior.
func (c *Continuum) Add(ep endpoint.Endpoint, capacity uint64) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	r := c.cur.Load()
	idx := sort.Search(len(r.shards), func(i int) bool { return !r.shards[i].Endpoint.Less(ep) })
	if idx < len(r.shards) && r.shards[idx].Endpoint.Equal(ep) {
		return fmt.Errorf("%w: %s", ErrDuplicate, ep)
	}

	newShards := make([]ShardRecord, len(r.shards)+1)
	copy(newShards, r.shards[:idx])
	newShards[idx] = ShardRecord{Endpoint: ep, Capacity: capacity}
	copy(newShards[idx+1:], r.shards[idx:])

	newTotalMemory := r.totalMemory + capacity
	newTotalServers := r.totalServers + 1

	newPoints := make([]RingPoint, len(r.points), len(r.points)+c.shardsPerEntry)
	copy(newPoints, r.points)
	newPoints = append(newPoints, c.computePoints(newShards[idx], newTotalMemory, newTotalServers)...)
	sort.Slice(newPoints, func(i, j int) bool { return newPoints[i].Position < newPoints[j].Position })

	c.cur.Store(&ring{
		points:       newPoints,
		shards:       newShards,
		totalMemory:  newTotalMemory,
		totalServers: newTotalServers,
	})
	return nil
}

// Remove deletes a shard and every ring point it placed.
func (c *Continuum) Remove(ep endpoint.Endpoint) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	r := c.cur.Load()
	idx := sort.Search(len(r.shards), func(i int) bool { return !r.shards[i].Endpoint.Less(ep) })
	if idx >= len(r.shards) || !r.shards[idx].Endpoint.Equal(ep) {
		return fmt.Errorf("%w: %s", ErrNotFound, ep)
	}
	removed := r.shards[idx]

	newShards := make([]ShardRecord, 0, len(r.shards)-1)
	newShards = append(newShards, r.shards[:idx]...)
	newShards = append(newShards, r.shards[idx+1:]...)

	newPoints := make([]RingPoint, 0, len(r.points))
	for _, p := range r.points {
		if !p.Endpoint.Equal(ep) {
			newPoints = append(newPoints, p)
		}
	}

	c.cur.Store(&ring{
		points:       newPoints,
		shards:       newShards,
		totalMemory:  r.totalMemory - removed.Capacity,
		totalServers: r.totalServers - 1,
	})
	return nil
}

// Snapshot is a diagnostic view of ring state, the Go equivalent of the
// reference implementation's print_config dump.
type Snapshot struct {
	TotalServers int
	TotalPoints  int
	TotalMemory  uint64
}

// Describe returns a snapshot of the current ring for logging or a status
// endpoint. Safe to call concurrently with Add/Remove/EndpointFor.
func (c *Continuum) Describe() Snapshot {
	r := c.cur.Load()
	return Snapshot{
		TotalServers: r.totalServers,
		TotalPoints:  len(r.points),
		TotalMemory:  r.totalMemory,
	}
}

// Shards returns a copy of the current shard list, sorted by endpoint.
func (c *Continuum) Shards() []ShardRecord {
	r := c.cur.Load()
	out := make([]ShardRecord, len(r.shards))
	copy(out, r.shards)
	return out
}
