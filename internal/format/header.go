package format

// Block header word layout (little-endian):
//
//	Offset  Size  Description
//	0x00    4     Block size in bytes (uint32).
//	0x04    3     Reserved, zero.
//	0x07    1     Kind byte identifying what occupies the block.
//
// Free-list nodes do not carry a valid header while queued; the word is
// written only when an external scanner needs to walk free memory.

// PackHeader combines a kind byte and a block size into a header word.
func PackHeader(kind uint8, size uint32) uint64 {
	return uint64(size) | uint64(kind)<<56
}

// UnpackHeader splits a header word into its kind byte and block size.
func UnpackHeader(word uint64) (kind uint8, size uint32) {
	return uint8(word >> 56), uint32(word)
}

// WriteHeader stores a header word at the start of a block.
func WriteHeader(b []byte, kind uint8, size uint32) {
	PutU64(b, 0, PackHeader(kind, size))
}

// ReadHeader loads the header word at the start of a block.
func ReadHeader(b []byte) (kind uint8, size uint32) {
	return UnpackHeader(ReadU64(b, 0))
}
