package alloc

import (
	"fmt"

	"github.com/heapkit/heapkit/heap/mem"
	"github.com/heapkit/heapkit/internal/format"
)

// SparseHeap backs a Manager with an unordered collection of slabs plus
// individually tracked big regions, all obtained from a mem.Source.
// Regions are non-contiguous and arbitrarily sized, which suits
// heterogeneous workloads; the price is a per-lookup binary search on
// the region index.
//
// Virtual base addresses are handed out monotonically on page
// boundaries, so the index stays sorted by construction and a freed
// big region's addresses are never reissued within one Manager's life.
type SparseHeap struct {
	src      mem.Source
	regions  []sparseRegion // sorted by Base
	nextBase Ptr
	cap      int64
}

type sparseRegion struct {
	Region
	buf []byte
}

// NewSparse creates a slab-collection heap growing from src.
func NewSparse(src mem.Source) *SparseHeap {
	return &SparseHeap{
		src:      src,
		nextBase: format.PageAlignment, // keep Ptr 0 invalid
	}
}

// AllocSlab obtains a fresh slab of n bytes.
func (h *SparseHeap) AllocSlab(n int) (Region, error) {
	return h.grow(n, KindSlab)
}

// AllocBig obtains an individually tracked region of at least n bytes.
func (h *SparseHeap) AllocBig(n int) (Region, error) {
	return h.grow(format.AlignQuantum(n), KindBig)
}

func (h *SparseHeap) grow(n int, kind Kind) (Region, error) {
	if n <= 0 || n%format.QuantumAlignment != 0 {
		return Region{}, fmt.Errorf("%w: region size %d", ErrBadSize, n)
	}
	buf, err := h.src.Alloc(n)
	if err != nil {
		return Region{}, fmt.Errorf("%w: %v", ErrNoMemory, err)
	}
	r := sparseRegion{
		Region: Region{Base: h.nextBase, Size: n, Kind: kind},
		buf:    buf,
	}
	h.nextBase = format.AlignPageU64(h.nextBase + Ptr(n))
	h.regions = append(h.regions, r)
	h.cap += int64(n)
	return r.Region, nil
}

// FreeBig returns a big region to the source and reports its size.
func (h *SparseHeap) FreeBig(p Ptr) (int, error) {
	i, ok := h.search(p)
	if !ok || h.regions[i].Base != p || h.regions[i].Kind != KindBig {
		return 0, fmt.Errorf("%w: FreeBig(%#x)", ErrBadPtr, p)
	}
	r := h.regions[i]
	h.src.Free(r.buf)
	h.regions = append(h.regions[:i], h.regions[i+1:]...)
	h.cap -= int64(r.Size)
	return r.Size, nil
}

// Mem resolves a virtual address to n bytes of slab or big memory.
func (h *SparseHeap) Mem(p Ptr, n int) []byte {
	i, ok := h.search(p)
	if !ok {
		panic(fmt.Sprintf("alloc: Mem(%#x) outside sparse heap", p))
	}
	off := p - h.regions[i].Base
	return h.regions[i].buf[off : off+Ptr(n)]
}

// Empty reports whether the heap owns any slabs or big regions.
func (h *SparseHeap) Empty() bool {
	return len(h.regions) == 0
}

// Contains reports whether p falls inside any owned region.
func (h *SparseHeap) Contains(p Ptr) bool {
	_, ok := h.search(p)
	return ok
}

// Find returns the region containing p.
func (h *SparseHeap) Find(p Ptr) (Region, bool) {
	i, ok := h.search(p)
	if !ok {
		return Region{}, false
	}
	return h.regions[i].Region, true
}

// search binary-searches the sorted region index for the region
// containing p.
func (h *SparseHeap) search(p Ptr) (int, bool) {
	lo, hi := 0, len(h.regions)-1
	for lo <= hi {
		mid := (lo + hi) >> 1
		r := h.regions[mid]
		switch {
		case p < r.Base:
			hi = mid - 1
		case p >= r.End():
			lo = mid + 1
		default:
			return mid, true
		}
	}
	return 0, false
}

// Capacity returns total owned bytes.
func (h *SparseHeap) Capacity() int64 {
	return h.cap
}

// Source returns the native source this heap grows from.
func (h *SparseHeap) Source() mem.Source {
	return h.src
}

// Reset releases every region back to the source. Base addresses keep
// advancing so stale Ptrs never alias post-reset regions.
func (h *SparseHeap) Reset() {
	for _, r := range h.regions {
		h.src.Free(r.buf)
	}
	h.regions = nil
	h.cap = 0
}

// Compile-time interface check
var _ Heap = (*SparseHeap)(nil)
