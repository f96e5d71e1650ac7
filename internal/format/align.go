package format

// Alignment utilities for the allocator's virtual address space.
// Heap regions sit on page boundaries; blocks within them sit on
// quantum boundaries.

// AlignQuantum returns n aligned up to the next 16-byte boundary.
//
// Example:
//
//	AlignQuantum(1)  = 16
//	AlignQuantum(16) = 16
//	AlignQuantum(17) = 32
func AlignQuantum(n int) int {
	return (n + QuantumAlignmentMask) &^ QuantumAlignmentMask
}

// AlignPage returns n aligned up to the next 4KB boundary.
//
// Example:
//
//	AlignPage(1)    = 4096
//	AlignPage(4096) = 4096
//	AlignPage(4097) = 8192
func AlignPage(n int) int {
	return (n + PageAlignmentMask) &^ PageAlignmentMask
}

// AlignPageU64 is AlignPage for virtual addresses.
func AlignPageU64(n uint64) uint64 {
	return (n + PageAlignmentMask) &^ uint64(PageAlignmentMask)
}
