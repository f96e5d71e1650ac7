package format

import "encoding/binary"

// Binary encoding utilities for little-endian integers.
//
// Header words and free-list links are stored little-endian inside
// heap-owned byte slices. binary.LittleEndian compiles down to single
// loads/stores on the platforms we care about, so there is no unsafe
// variant here.

// PutU32 writes a uint32 value to the buffer at the specified offset.
func PutU32(b []byte, off int, v uint32) {
	binary.LittleEndian.PutUint32(b[off:off+4], v)
}

// ReadU32 reads a uint32 value from the buffer at the specified offset.
func ReadU32(b []byte, off int) uint32 {
	return binary.LittleEndian.Uint32(b[off : off+4])
}

// PutU64 writes a uint64 value to the buffer at the specified offset.
func PutU64(b []byte, off int, v uint64) {
	binary.LittleEndian.PutUint64(b[off:off+8], v)
}

// ReadU64 reads a uint64 value from the buffer at the specified offset.
func ReadU64(b []byte, off int) uint64 {
	return binary.LittleEndian.Uint64(b[off : off+8])
}
