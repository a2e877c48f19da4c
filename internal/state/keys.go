package state

import (
	"bytes"
	"cmp"
	"encoding/binary"
	"math"

	"github.com/holiman/uint256"
)

// KeyCodec converts a secondary key between its byte form in contract
// memory and its ordered in-store form.
type KeyCodec[K any] struct {
	// Size is the width of the key in contract memory.
	Size    int
	Decode  func(b []byte) K
	Encode  func(b []byte, k K)
	Compare func(a, b K) int
}

// Uint64Key is the 8-byte little-endian idx64 key.
var Uint64Key = KeyCodec[uint64]{
	Size:    8,
	Decode:  func(b []byte) uint64 { return binary.LittleEndian.Uint64(b) },
	Encode:  func(b []byte, k uint64) { binary.LittleEndian.PutUint64(b, k) },
	Compare: cmp.Compare[uint64],
}

// Uint128Key is the 16-byte little-endian idx128 key (low word first).
var Uint128Key = KeyCodec[uint256.Int]{
	Size: 16,
	Decode: func(b []byte) uint256.Int {
		return uint256.Int{binary.LittleEndian.Uint64(b[0:8]), binary.LittleEndian.Uint64(b[8:16]), 0, 0}
	},
	Encode: func(b []byte, k uint256.Int) {
		binary.LittleEndian.PutUint64(b[0:8], k[0])
		binary.LittleEndian.PutUint64(b[8:16], k[1])
	},
	Compare: func(a, b uint256.Int) int { return a.Cmp(&b) },
}

// Checksum256Key is the idx256 key. Memory holds two 16-byte words whose
// bytes are reversed relative to the ordered form.
var Checksum256Key = KeyCodec[[32]byte]{
	Size: 32,
	Decode: func(b []byte) [32]byte {
		var k [32]byte
		for i := 0; i < 16; i++ {
			k[i] = b[15-i]
			k[16+i] = b[31-i]
		}
		return k
	},
	Encode: func(b []byte, k [32]byte) {
		for i := 0; i < 16; i++ {
			b[15-i] = k[i]
			b[31-i] = k[16+i]
		}
	},
	Compare: func(a, b [32]byte) int { return bytes.Compare(a[:], b[:]) },
}

// DoubleKey is the IEEE-754 little-endian idx_double key.
var DoubleKey = KeyCodec[float64]{
	Size:    8,
	Decode:  func(b []byte) float64 { return math.Float64frombits(binary.LittleEndian.Uint64(b)) },
	Encode:  func(b []byte, k float64) { binary.LittleEndian.PutUint64(b, math.Float64bits(k)) },
	Compare: cmp.Compare[float64],
}
