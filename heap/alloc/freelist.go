package alloc

import "github.com/heapkit/heapkit/internal/format"

// freeList is one size class's chain of reclaimed blocks. The chain is
// intrusive: each queued block stores the next link in its own link
// slot, so the list itself is a single head pointer.
//
// Order is LIFO — the most recently freed block is reused first, for
// cache locality rather than fairness.
type freeList struct {
	head Ptr
}

// push makes p the new head, linking it to the previous head. Only the
// link slot is written; writing a full header on every recycle would
// cost a store per free, so headers are materialized lazily just before
// an external scan (see Manager.initFree).
func (fl *freeList) push(h Heap, p Ptr) {
	b := h.Mem(p, format.NodeSize)
	format.PutU64(b, format.LinkOffset, fl.head)
	fl.head = p
}

// pop removes and returns the head block, or 0 when the list is empty.
// Ownership of the block transfers to the caller.
func (fl *freeList) pop(h Heap) Ptr {
	p := fl.head
	if p == 0 {
		return 0
	}
	b := h.Mem(p, format.NodeSize)
	fl.head = format.ReadU64(b, format.LinkOffset)
	return p
}

// walk visits every queued node without unlinking.
func (fl *freeList) walk(h Heap, fn func(p Ptr)) {
	for p := fl.head; p != 0; {
		next := format.ReadU64(h.Mem(p, format.NodeSize), format.LinkOffset)
		fn(p)
		p = next
	}
}
