package cluster

// loader.go mirrors the teacher's pkg/loader.go: a thin generic wrapper
// around x/sync/singleflight so concurrent GetOrLoad calls for the same key
// collapse into a single backing-store round trip (or a single invocation
// of a caller-supplied loader function) instead of a thundering herd.
//
// © 2025 contihash authors. MIT License.

import (
	"context"

	"golang.org/x/sync/singleflight"
)

// LoaderFunc produces the value for a key on a Cluster miss. It is invoked
// at most once per in-flight key across all concurrent callers.
type LoaderFunc[V any] func(ctx context.Context, key string) (V, error)

type loaderGroup[V any] struct {
	g singleflight.Group
}

func newLoaderGroup[V any]() *loaderGroup[V] {
	return &loaderGroup[V]{}
}

// load runs fn exactly once for the given key across all concurrent
// callers; every waiter receives the same value and error.
func (lg *loaderGroup[V]) load(ctx context.Context, key string, fn LoaderFunc[V]) (V, error) {
	res, err, _ := lg.g.Do(key, func() (any, error) {
		return fn(ctx, key)
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return res.(V), nil
}
