package alloc

import (
	"fmt"

	"github.com/heapkit/heapkit/heap/mem"
	"github.com/heapkit/heapkit/internal/format"
)

// ContigHeap backs a Manager with a single preallocated arena divided
// into fixed-size chunks. Growth only ever advances a monotonic front
// pointer and reclamation is a bulk reset, which makes per-allocation
// overhead near zero at the cost of a hard ceiling on total heap size.
//
// Freed big regions become dead space until Reset; only their
// bookkeeping entry is dropped so accounting can credit the bytes.
type ContigHeap struct {
	src       mem.Source
	buf       []byte
	base      Ptr
	front     int
	chunkSize int

	// bigs tracks individually allocated regions for Find/FreeBig.
	// Carve order keeps it sorted by base.
	bigs []Region
}

// NewContig preallocates an arena of numChunks chunks from src.
func NewContig(src mem.Source, chunkSize, numChunks int) (*ContigHeap, error) {
	if chunkSize <= 0 || chunkSize%format.QuantumAlignment != 0 || numChunks <= 0 {
		return nil, fmt.Errorf("%w: %d chunks of %d bytes", ErrBadSize, numChunks, chunkSize)
	}
	buf, err := src.Alloc(chunkSize * numChunks)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoMemory, err)
	}
	return &ContigHeap{
		src:       src,
		buf:       buf,
		base:      format.PageAlignment, // keep Ptr 0 invalid
		chunkSize: chunkSize,
	}, nil
}

// AllocSlab carves a slab off the arena front.
func (h *ContigHeap) AllocSlab(n int) (Region, error) {
	return h.carve(n, KindSlab)
}

// AllocBig carves an individually tracked region off the arena front.
func (h *ContigHeap) AllocBig(n int) (Region, error) {
	r, err := h.carve(format.AlignQuantum(n), KindBig)
	if err != nil {
		return Region{}, err
	}
	h.bigs = append(h.bigs, r)
	return r, nil
}

func (h *ContigHeap) carve(n int, kind Kind) (Region, error) {
	if n <= 0 || n%format.QuantumAlignment != 0 {
		return Region{}, fmt.Errorf("%w: region size %d", ErrBadSize, n)
	}
	if h.front+n > len(h.buf) {
		return Region{}, fmt.Errorf("%w: need %d, %d left", ErrArenaFull, n, len(h.buf)-h.front)
	}
	r := Region{Base: h.base + Ptr(h.front), Size: n, Kind: kind}
	h.front += n
	return r, nil
}

// FreeBig drops the bookkeeping entry for a big region and reports its
// size. The space itself stays dead until Reset.
func (h *ContigHeap) FreeBig(p Ptr) (int, error) {
	for i, r := range h.bigs {
		if r.Base == p {
			h.bigs = append(h.bigs[:i], h.bigs[i+1:]...)
			return r.Size, nil
		}
	}
	return 0, fmt.Errorf("%w: FreeBig(%#x)", ErrBadPtr, p)
}

// Mem resolves a virtual address to n bytes of arena memory. Only
// carved space is addressable.
func (h *ContigHeap) Mem(p Ptr, n int) []byte {
	if p < h.base {
		panic(fmt.Sprintf("alloc: Mem(%#x) below arena base", p))
	}
	off := int(p - h.base)
	if off+n > h.front {
		panic(fmt.Sprintf("alloc: Mem(%#x, %d) past arena front", p, n))
	}
	return h.buf[off : off+n]
}

// ChunkIndex returns the arena chunk containing p. Addresses below the
// base are invalid.
func (h *ContigHeap) ChunkIndex(p Ptr) int {
	if p < h.base {
		panic(fmt.Sprintf("alloc: ChunkIndex(%#x) below arena base", p))
	}
	return int(p-h.base) / h.chunkSize
}

// Empty reports whether the front has moved off the base.
func (h *ContigHeap) Empty() bool {
	return h.front == 0
}

// Contains reports whether p falls within carved arena space.
func (h *ContigHeap) Contains(p Ptr) bool {
	return p >= h.base && p < h.base+Ptr(h.front)
}

// Find returns the big region containing p when one does, otherwise
// the containing arena chunk.
func (h *ContigHeap) Find(p Ptr) (Region, bool) {
	if !h.Contains(p) {
		return Region{}, false
	}
	lo, hi := 0, len(h.bigs)-1
	for lo <= hi {
		mid := (lo + hi) >> 1
		r := h.bigs[mid]
		switch {
		case p < r.Base:
			hi = mid - 1
		case p >= r.End():
			lo = mid + 1
		default:
			return r, true
		}
	}
	idx := h.ChunkIndex(p)
	return Region{
		Base: h.base + Ptr(idx*h.chunkSize),
		Size: h.chunkSize,
		Kind: KindSlab,
	}, true
}

// Capacity returns the full arena size; the whole arena is owned from
// construction regardless of how far the front has advanced.
func (h *ContigHeap) Capacity() int64 {
	return int64(len(h.buf))
}

// Source returns the native source the arena came from.
func (h *ContigHeap) Source() mem.Source {
	return h.src
}

// Reset rewinds the front to the base. The arena is retained for reuse.
func (h *ContigHeap) Reset() {
	h.front = 0
	h.bigs = nil
}

// Release returns the arena itself to the source. The heap is unusable
// afterwards.
func (h *ContigHeap) Release() {
	if h.buf != nil {
		h.src.Free(h.buf)
		h.buf = nil
		h.front = 0
		h.bigs = nil
	}
}

// Compile-time interface check
var _ Heap = (*ContigHeap)(nil)
