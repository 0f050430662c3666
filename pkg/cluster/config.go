package cluster

// config.go defines Cluster's functional options, mirroring the teacher's
// pkg/config.go: a private config struct with a defaultConfig() plus
// Option funcs that mutate it, applied once at New() time and never again.
//
// © 2025 contihash authors. MIT License.

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/riftcache/contihash/internal/bloom"
)

// Option configures a Cluster at construction time.
type Option func(*config)

type config struct {
	registry       *prometheus.Registry
	logger         *zap.Logger
	bloomExpected  uint64
	bloomFalsePos  float32
	bloomAllocator bloom.Allocator
	store          Store
	encode         func(any) []byte
	decode         func([]byte) (any, error)

	hotTierCapBytes int64
	hotTierTTL      time.Duration
}

func defaultConfig() *config {
	return &config{
		logger:          zap.NewNop(),
		bloomExpected:   100_000,
		bloomFalsePos:   0.01,
		bloomAllocator:  bloom.Heap,
		hotTierCapBytes: 16 << 20, // 16 MiB per shard
		hotTierTTL:      5 * time.Minute,
	}
}

// WithMetrics enables Prometheus metrics collection. Passing nil disables
// metrics (default): the hot path then pays nothing for counters.
func WithMetrics(reg *prometheus.Registry) Option {
	return func(c *config) { c.registry = reg }
}

// WithLogger plugs an external zap.Logger. It is handed to the continuum,
// which uses it for its own ring warnings; Cluster itself logs nothing,
// neither on the Get/Put path nor on shard add/remove.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithBloomSizing sets the per-shard bloom filter's expected item count and
// target false-positive rate. Applies to shards added after this option
// takes effect, including the initial Build.
func WithBloomSizing(expectedItems uint64, falsePositiveRate float32) Option {
	return func(c *config) {
		c.bloomExpected = expectedItems
		c.bloomFalsePos = falsePositiveRate
	}
}

// WithBloomAllocator selects the backing allocation strategy for every
// per-shard bloom filter.
func WithBloomAllocator(a bloom.Allocator) Option {
	return func(c *config) { c.bloomAllocator = a }
}

// WithStore attaches the optional backing store consulted after both the
// shard's index and its hot tier miss. With a store configured the bloom
// pre-check is skipped. Without a store, such misses are reported as plain
// not-found.
func WithStore(s Store) Option {
	return func(c *config) { c.store = s }
}

// WithCodec supplies the (de)serialization functions needed to mirror
// values into the backing Store. Without a codec, a Cluster operates purely
// in-memory: Store is still consulted nowhere and GetOrLoad never hydrates
// from it. Option is not parameterised by V, so passing a WithCodec[V] to a
// Cluster of a different value type compiles; the mismatch panics at run
// time on the first encode or decode.
func WithCodec[V any](encode func(V) []byte, decode func([]byte) (V, error)) Option {
	return func(c *config) {
		c.encode = func(v any) []byte { return encode(v.(V)) }
		c.decode = func(b []byte) (any, error) { return decode(b) }
	}
}

// WithHotTier bounds the per-shard accelerator cache that serves
// Store-hydrated reads: capBytes caps its total weighted size and ttl
// bounds how long a value may stay resident before its generation expires.
// It has no effect unless WithStore is also configured, since the hot tier
// only ever holds values read back from slower storage.
func WithHotTier(capBytes int64, ttl time.Duration) Option {
	return func(c *config) {
		c.hotTierCapBytes = capBytes
		c.hotTierTTL = ttl
	}
}

func (c *config) validate() error {
	if c.bloomExpected == 0 {
		return errors.New("cluster: bloom expected item count must be > 0")
	}
	if c.bloomFalsePos <= 0 || c.bloomFalsePos >= 1 {
		return errors.New("cluster: bloom false-positive rate must be in (0,1)")
	}
	return nil
}
