package continuum

import (
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/riftcache/contihash/internal/endpoint"
)

// ErrMissingRequiredKey surfaces from FromProperties when a mandatory
// properties key is absent.
var ErrMissingRequiredKey = fmt.Errorf("continuum: missing required properties key")

// FromProperties turns the two property-file maps (see internal/propfile)
// into a BuildConfig: propsMap supplies TOTAL_SERVERS, POINTS_PER_SERVER and
// optionally RESERVE_FACTOR; shardsMap supplies host:port -> capacity
// entries. Shard keys that fail to parse as an Endpoint are logged and
// skipped rather than aborting the load, matching the shard file's
// "unknown keys" tolerance.
func FromProperties(propsMap, shardsMap map[string]string, logger *zap.Logger) (BuildConfig, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	totalServersStr, ok := propsMap["TOTAL_SERVERS"]
	if !ok {
		return BuildConfig{}, fmt.Errorf("%w: TOTAL_SERVERS", ErrMissingRequiredKey)
	}
	totalServers, err := strconv.ParseUint(totalServersStr, 10, 16)
	if err != nil {
		return BuildConfig{}, fmt.Errorf("continuum: TOTAL_SERVERS: %w", err)
	}

	pointsPerServerStr, ok := propsMap["POINTS_PER_SERVER"]
	if !ok {
		return BuildConfig{}, fmt.Errorf("%w: POINTS_PER_SERVER", ErrMissingRequiredKey)
	}
	pointsPerServer, err := strconv.ParseUint(pointsPerServerStr, 10, 16)
	if err != nil {
		return BuildConfig{}, fmt.Errorf("continuum: POINTS_PER_SERVER: %w", err)
	}

	reserveFactor := DefaultReserveFactor
	if rfStr, ok := propsMap["RESERVE_FACTOR"]; ok {
		rf, err := strconv.ParseFloat(rfStr, 32)
		if err != nil {
			return BuildConfig{}, fmt.Errorf("continuum: RESERVE_FACTOR: %w", err)
		}
		reserveFactor = rf
	}

	shards := make(map[endpoint.Endpoint]uint64, len(shardsMap))
	for hostPort, capStr := range shardsMap {
		ep, err := endpoint.Parse(hostPort)
		if err != nil {
			logger.Warn("shard file: unrecognized key, skipping", zap.String("key", hostPort), zap.Error(err))
			continue
		}
		cap, err := strconv.ParseUint(capStr, 10, 64)
		if err != nil {
			logger.Warn("shard file: invalid capacity, skipping", zap.String("key", hostPort), zap.String("value", capStr))
			continue
		}
		shards[ep] = cap
	}

	return BuildConfig{
		ShardsPerEntry:      int(pointsPerServer),
		ReserveFactor:       reserveFactor,
		DeclaredServerCount: int(totalServers),
		Shards:              shards,
	}, nil
}
