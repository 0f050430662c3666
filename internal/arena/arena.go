//go:build goexperiment.arenas
// +build goexperiment.arenas

// Package arena wraps Go's experimental `arena` package and hides its
// verbose low‑level API behind a tiny, stable surface suited to the hot
// tier's needs. We expose only the primitives required:
//   • `New()` – construct an arena.
//   • `Free()` – release all memory at once (O(1)).
//   • `NewValue[T]()` – allocate a single value of type T.
//   • `MakeSlice[T]()` – allocate a slice of T with length==cap.
//
// The wrapper also tracks cumulative bytes allocated through it, since the
// stdlib `arena.Arena` exposes no size accounting of its own. genring sums
// this across live generations and hottier surfaces it as a per-shard
// Prometheus gauge (pkg/cluster's hot_tier_arena_bytes_live) — real off-heap usage,
// as opposed to the caller-supplied weight() budget the generation ring
// rotates on. Beyond that one counter the wrapper stays minimal: no
// pooling, no GC hooks – those concerns belong to upper layers.
//
// Concurrency
// -----------
// arena.Arena is *not* thread‑safe; the hot tier's parent cache already
// serialises access with a mutex.  Therefore we do not add any locking here.
//
// ⚠️  DISCLAIMER  ----------------------------------------------
// Using arenas bypasses the garbage collector; ensure objects allocated inside
// never escape to the heap **after** Free() is called.  In the hot tier this
// is safe because arenas live at most until generation rotation, at which
// point all *entries* referencing data are either promoted to TEST (ghost)
// or removed.
// -------------------------------------------------------------
//
// © 2025 contihash authors. MIT License.

package arena

import (
	"arena" // standard library experimental package
	"sync/atomic"
	"unsafe"
)

// Arena is a thin new‑type wrapper that prevents external packages from
// directly depending on `arena.Arena`, giving us the freedom to switch to a
// different allocator if needed.

type Arena struct {
	ar    arena.Arena
	bytes atomic.Int64 // cumulative bytes allocated through this wrapper
}

// New constructs an empty arena ready for allocations.
func New() *Arena {
	return &Arena{ar: *arena.NewArena()}
}

// Free releases **all** memory allocated in the arena.  After the call, any
// pointer previously returned from New/MakeSlice becomes invalid.
func (a *Arena) Free() {
	a.ar.Free()
	a.bytes.Store(0)
}

// Bytes returns the cumulative number of bytes allocated through New/
// MakeSlice/AllocBytes since construction (or the last Free). It is an
// approximation of live usage — size-of-T at allocation time, not actual
// arena chunk/alignment overhead — but is cheap and accurate enough to back
// a gauge.
func (a *Arena) Bytes() int64 { return a.bytes.Load() }

// NewValue allocates zero‑initialised T inside the arena and returns a pointer to it.
// The pointer is valid until Free() on the arena.
func NewValue[T any](a *Arena) *T {
	p := arena.New[T](&a.ar)
	a.bytes.Add(int64(unsafe.Sizeof(*p)))
	return p
}

// MakeSlice allocates a slice of length==cap==n inside the arena and returns
// it.  The backing array is owned by the arena and will be released on Free().
func MakeSlice[T any](a *Arena, n int) []T {
	s := arena.MakeSlice[T](&a.ar, n, n)
	if n > 0 {
		a.bytes.Add(int64(n) * int64(unsafe.Sizeof(s[0])))
	}
	return s
}

// AllocBytes copies buf into the arena and returns a reference to the new
// memory.  Convenience helper used when we need an immutable grain inside the
// cache.
func AllocBytes(a *Arena, buf []byte) []byte {
	dst := arena.MakeSlice[byte](&a.ar, len(buf), len(buf))
	copy(dst, buf)
	a.bytes.Add(int64(len(buf)))
	return dst
}

// UnsafePointer converts an *arena-backed* pointer to unsafe.Pointer so that it
// can be stored inside cache metadata.  Usage is rare; provided for
// completeness.
func UnsafePointer[T any](p *T) unsafe.Pointer { return unsafe.Pointer(p) }
