package alloc

import "github.com/heapkit/heapkit/heap/mem"

// Region describes one extent of heap-owned memory: a slab, an
// individually tracked big allocation, or (for the contiguous strategy)
// a chunk of the arena.
type Region struct {
	Base Ptr
	Size int
	Kind Kind
}

// End returns the first virtual address past the region.
func (r Region) End() Ptr {
	return r.Base + Ptr(r.Size)
}

// Heap is the backing store a Manager allocates from. Exactly one
// strategy backs a given Manager, chosen at construction:
//
//   - SparseHeap: an unordered collection of slabs plus individually
//     tracked big regions, grown from a mem.Source.
//   - ContigHeap: a single preallocated arena of fixed-size chunks with
//     a monotonic front pointer and bulk reset.
//
// Membership queries (Contains, Find) serve the external collector, not
// the hot allocation path.
type Heap interface {
	// AllocSlab obtains a fresh region of n bytes for small-object
	// carving. n must be a multiple of the block quantum.
	AllocSlab(n int) (Region, error)

	// AllocBig obtains an individually tracked region of at least n
	// bytes, quantum-aligned.
	AllocBig(n int) (Region, error)

	// FreeBig releases a region returned by AllocBig and reports its
	// recorded size.
	FreeBig(p Ptr) (int, error)

	// Mem resolves a virtual address to n bytes of backing memory.
	// The whole range must lie within one region; violating that is a
	// caller bug and faults.
	Mem(p Ptr, n int) []byte

	// Empty reports whether the heap currently owns any memory.
	Empty() bool

	// Contains reports whether p falls within a region this heap owns.
	Contains(p Ptr) bool

	// Find returns the region containing p, if any.
	Find(p Ptr) (Region, bool)

	// Capacity returns the total bytes currently owned.
	Capacity() int64

	// Source exposes the native source this heap grows from, for
	// accounting reconciliation.
	Source() mem.Source

	// Reset releases every region back to the source in bulk. The
	// heap is reusable afterwards.
	Reset()
}
