// Package unsafehelpers centralises the small number of unavoidable uses of
// the `unsafe` package so the rest of contihash stays easy to audit. Every
// helper documents its pre/post-conditions.
//
// ⚠️ These helpers deliberately break the Go memory-safety model for
// zero-allocation conversions. Use only inside this repository; they are not
// part of the public API and may change without notice.
//
// © 2025 contihash authors. MIT License.
package unsafehelpers

import "unsafe"

// BytesToString converts a mutable byte slice to an immutable string without
// allocating. The caller must guarantee b is never modified for the lifetime
// of the returned string.
func BytesToString(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return unsafe.String(&b[0], len(b))
}

// StringToBytes reinterprets string data as a byte slice without copying.
// The slice MUST remain read-only.
func StringToBytes(s string) []byte {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Slice(unsafe.StringData(s), len(s))
}

// ByteSliceFrom returns a []byte view of raw memory starting at ptr with the
// given length. Caller must ensure the memory block is at least length
// bytes. The bloom filter's mmap allocator does not use it: unix.Mmap already
// returns the mapped region as a []byte.
func ByteSliceFrom(ptr unsafe.Pointer, length uintptr) []byte {
	if length == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(ptr), length)
}

// AlignUp rounds x up to the nearest multiple of align (a power of two).
func AlignUp(x, align uintptr) uintptr {
	return (x + align - 1) &^ (align - 1)
}

// IsPowerOfTwo reports whether x has exactly one bit set.
func IsPowerOfTwo(x uintptr) bool {
	return x != 0 && x&(x-1) == 0
}
