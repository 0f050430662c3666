// Package bloom implements a fixed-capacity Bloom filter: an approximate
// set-membership pre-filter meant to sit in front of a shard's slower
// storage so a caller can ask "could this shard possibly hold K?" before
// paying for a round trip. It never removes elements and is not resizable
// once constructed (spec.md §1 Non-goals).
//
// © 2025 contihash authors. MIT License.
package bloom

import (
	"errors"
	"math"
	"sync/atomic"

	"github.com/riftcache/contihash/internal/hashutil"
)

// ErrOutOfMemory is returned when the backing buffer cannot be allocated.
// Per spec.md §7 this is unrecoverable: callers should treat filter
// construction failure as fatal.
var ErrOutOfMemory = errors.New("bloom: out of memory")

// Filter is a fixed-capacity, append-only Bloom filter over byte keys.
type Filter struct {
	m       uint64 // number of bits
	k       uint32 // number of hash functions
	buf     []byte // m-bit vector, ceil(m/8) bytes
	release func()

	inserted atomic.Uint64
	fpRate   float32
	expected uint64
}

// Option configures Filter construction.
type Option func(*config)

type config struct {
	allocator Allocator
}

func defaultConfig() *config {
	return &config{allocator: Heap}
}

// WithAllocator selects the backing buffer's allocation strategy. Default is
// Heap.
func WithAllocator(a Allocator) Option {
	return func(c *config) { c.allocator = a }
}

// New constructs a Filter sized for expectedItems elements at the given
// false-positive rate, per spec.md §4.3:
//
//	k = floor(-log2(fpRate))
//	m = ceil(expectedItems * k / ln2)
func New(expectedItems uint64, fpRate float32, opts ...Option) (*Filter, error) {
	if expectedItems == 0 {
		return nil, errors.New("bloom: expectedItems must be > 0")
	}
	if fpRate <= 0 || fpRate >= 1 {
		return nil, errors.New("bloom: fpRate must be in (0,1)")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	k := uint32(math.Floor(-math.Log2(float64(fpRate))))
	if k < 1 {
		k = 1
	}
	m := uint64(math.Ceil(float64(expectedItems) * float64(k) / math.Ln2))
	if m == 0 {
		m = 1
	}
	numBytes := int((m + 7) / 8)

	buf, release, err := allocateBuf(cfg.allocator, numBytes)
	if err != nil {
		return nil, err
	}

	return &Filter{
		m:        m,
		k:        k,
		buf:      buf,
		release:  release,
		fpRate:   fpRate,
		expected: expectedItems,
	}, nil
}

// Insert adds key to the filter. Never fails; bits only ever transition
// 0->1. Concurrent inserts of the same key are idempotent.
func (f *Filter) Insert(key []byte) {
	h := uint32(len(key))
	for i := uint32(0); i < f.k; i++ {
		h = hashutil.Sum32(key, h)
		f.setBit(uint64(h) % f.m)
	}
	f.inserted.Add(1)
}

// MightContain reports whether key may have been inserted. False positives
// are permitted; false negatives are forbidden.
func (f *Filter) MightContain(key []byte) bool {
	h := uint32(len(key))
	for i := uint32(0); i < f.k; i++ {
		h = hashutil.Sum32(key, h)
		if !f.getBit(uint64(h) % f.m) {
			return false
		}
	}
	return true
}

func (f *Filter) setBit(pos uint64) {
	byteIdx := pos / 8
	mask := byte(1) << (pos % 8)
	// Racy by design (spec.md §5): concurrent sets of overlapping bits
	// never produce a false negative, only a possibly-redundant write.
	f.buf[byteIdx] |= mask
}

func (f *Filter) getBit(pos uint64) bool {
	byteIdx := pos / 8
	mask := byte(1) << (pos % 8)
	return f.buf[byteIdx]&mask != 0
}

// Close releases the backing buffer deterministically. After Close, the
// filter must not be used.
func (f *Filter) Close() {
	if f.release != nil {
		f.release()
		f.release = nil
	}
}

// BitCount returns m, the number of bits in the filter.
func (f *Filter) BitCount() uint64 { return f.m }

// HashCount returns k, the number of hash functions used per operation.
func (f *Filter) HashCount() uint32 { return f.k }

// Inserted returns the number of Insert calls observed so far.
func (f *Filter) Inserted() uint64 { return f.inserted.Load() }

// FillRatio returns the fraction of bits currently set, an approximation
// useful for monitoring how close the filter is to its design false-positive
// rate.
func (f *Filter) FillRatio() float64 {
	var set uint64
	for _, b := range f.buf {
		set += uint64(popcount(b))
	}
	return float64(set) / float64(f.m)
}

func popcount(b byte) int {
	n := 0
	for b != 0 {
		n += int(b & 1)
		b >>= 1
	}
	return n
}
