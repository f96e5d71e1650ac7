package format

// Block layout constants shared by the allocator and its heaps.
//
// Every block handed out by the allocator is at least NodeSize bytes so
// that, while free, it can hold a header word followed by a free-list
// link without spilling into a neighboring block.
const (
	// HeaderSize is the size of the block header word in bytes.
	// The word packs a kind byte and a 32-bit size (see header.go).
	HeaderSize = 8

	// LinkOffset is the byte offset of the free-list link within a
	// free block. The link occupies the 8 bytes after the header slot.
	LinkOffset = 8

	// NodeSize is the minimum block size: header word + link.
	NodeSize = HeaderSize + 8

	// PageAlignment is the boundary heap regions are placed on in the
	// virtual address space.
	PageAlignment     = 4096
	PageAlignmentMask = PageAlignment - 1

	// QuantumAlignment is the boundary individual blocks are carved on.
	QuantumAlignment     = 16
	QuantumAlignmentMask = QuantumAlignment - 1
)
