package bloom

// alloc.go implements the pluggable buffer allocation strategy spec.md §4.3
// and §9 ("Policy template → strategy value") call for: the bloom filter's
// backing bit-vector can come from the regular Go heap or from an anonymous
// memory mapping, selected at construction and opaque to every other method.
// Both variants satisfy the same contract: allocate n bytes zero-initialised,
// release deterministically.
//
// © 2025 contihash authors. MIT License.

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Allocator is the strategy value replacing the original C++ template
// parameter (NewCreate / MmapCreate policy structs).
type Allocator int

const (
	// Heap allocates the bit-vector as a regular Go slice.
	Heap Allocator = iota
	// Mmap allocates the bit-vector via an anonymous memory mapping,
	// outside the Go heap and GC scanning.
	Mmap
)

func (a Allocator) String() string {
	switch a {
	case Heap:
		return "heap"
	case Mmap:
		return "mmap"
	default:
		return "unknown"
	}
}

// allocateBuf returns a zero-initialised buffer of n bytes using the
// requested strategy, and a release func to deallocate it deterministically.
func allocateBuf(a Allocator, n int) (buf []byte, release func(), err error) {
	if n <= 0 {
		return nil, func() {}, nil
	}
	switch a {
	case Heap:
		buf = make([]byte, n)
		return buf, func() {}, nil
	case Mmap:
		buf, err = unix.Mmap(-1, 0, n, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: mmap %d bytes: %v", ErrOutOfMemory, n, err)
		}
		return buf, func() { _ = unix.Munmap(buf) }, nil
	default:
		return nil, nil, fmt.Errorf("bloom: unknown allocator %d", a)
	}
}
