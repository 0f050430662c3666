package continuum

import "github.com/riftcache/contihash/internal/endpoint"

// BuildConfig carries the parameters needed to build a Continuum, sourced
// from the properties file grammar described by the property loader
// (internal/propfile): ShardsPerEntry and ReserveFactor come from the
// properties file, DeclaredServerCount from the same, and Shards from the
// separate shard file joined in by the caller.
type BuildConfig struct {
	// ShardsPerEntry is the target number of ring points for a shard that
	// holds the average capacity across all shards (properties key
	// POINTS_PER_SERVER).
	ShardsPerEntry int
	// ReserveFactor is an over-allocation hint for internal slice capacity
	// (properties key RESERVE_FACTOR, default 1.5).
	ReserveFactor float64
	// DeclaredServerCount caps how many shards a single Build call will
	// accept (properties key TOTAL_SERVERS).
	DeclaredServerCount int
	// Shards maps each shard's endpoint to its capacity in bytes.
	Shards map[endpoint.Endpoint]uint64
}

// DefaultReserveFactor is used when a loaded properties file omits
// RESERVE_FACTOR.
const DefaultReserveFactor = 1.5
