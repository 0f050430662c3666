// Package hashutil implements MurmurHash3_x86_32, the non-cryptographic hash
// every other contihash component calls to place or resolve ring points.
// Austin Appleby's reference implementation is public domain; this is a
// direct Go port of the 32-bit x86 variant, word-for-word against the
// algorithm, not against any particular C encoding of it. The output bit
// pattern is the contract: any peer implementation that reproduces this
// function bit-for-bit routes keys identically.
//
// © 2025 contihash authors. MIT License.
package hashutil

import (
	"encoding/binary"
	"math/bits"

	"github.com/riftcache/contihash/internal/unsafehelpers"
)

const (
	c1 uint32 = 0xcc9e2d51
	c2 uint32 = 0x1b873593
)

// Sum32 hashes data with the given seed using MurmurHash3_x86_32.
func Sum32(data []byte, seed uint32) uint32 {
	h1 := seed

	nblocks := len(data) / 4
	for i := 0; i < nblocks; i++ {
		k1 := binary.LittleEndian.Uint32(data[i*4 : i*4+4])
		h1 = mixBody(h1, k1)
	}

	var k1 uint32
	tail := data[nblocks*4:]
	switch len(tail) {
	case 3:
		k1 ^= uint32(tail[2]) << 16
		fallthrough
	case 2:
		k1 ^= uint32(tail[1]) << 8
		fallthrough
	case 1:
		k1 ^= uint32(tail[0])
		k1 *= c1
		k1 = bits.RotateLeft32(k1, 15)
		k1 *= c2
		h1 ^= k1
	}

	h1 ^= uint32(len(data))
	return fmix32(h1)
}

func mixBody(h1, k1 uint32) uint32 {
	k1 *= c1
	k1 = bits.RotateLeft32(k1, 15)
	k1 *= c2

	h1 ^= k1
	h1 = bits.RotateLeft32(h1, 13)
	return h1*5 + 0xe6546b64
}

// fmix32 is Appleby's finalization mix, forcing all bits of the hash to
// avalanche.
func fmix32(h uint32) uint32 {
	h ^= h >> 16
	h *= 0x85ebca6b
	h ^= h >> 13
	h *= 0xc2b2ae35
	h ^= h >> 16
	return h
}

// SumString is a convenience wrapper avoiding a []byte copy for the common
// case of hashing a string key.
func SumString(s string, seed uint32) uint32 {
	return Sum32(unsafehelpers.StringToBytes(s), seed)
}
