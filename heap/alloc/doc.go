// Package alloc implements the request-scoped, size-classed memory
// allocator at the core of heapkit.
//
// # Overview
//
// A Manager services every small and big allocation made during one
// logical request. Small requests are quantized into size classes
// (heap/sizeclass), recycled through one intrusive free list per class,
// and carved from slabs on free-list misses. Big requests are tracked
// individually. All accounting — usage, peaks, interval windows, and
// the budget ceiling — lives on the Manager and is updated on every
// allocation path.
//
// # Allocation flow
//
//	Malloc(size)
//	  ├─ size <= MaxSmallSize: class free list pop (fast path)
//	  │    └─ miss: carve from the current slab, growing the heap
//	  └─ otherwise: individually tracked big region
//
// Usage is charged at class granularity on the small path, so internal
// fragmentation counts against the requester, and alloc/free pairs are
// exactly symmetric.
//
// # Backing heaps
//
// Two interchangeable strategies implement the Heap interface, chosen
// at construction and fixed for the Manager's life:
//
//   - SparseHeap: slabs plus big regions obtained from a mem.Source as
//     needed; suits heterogeneous workloads.
//   - ContigHeap: one preallocated arena with a monotonic front and
//     bulk reset; lowest per-allocation overhead, hard size ceiling.
//
// # Budget enforcement
//
// PreAllocOOM reports — it never aborts. When a check detects that an
// allocation would breach the configured limit, the exceeded hook is
// invoked (with further checks suppressed, so the hook may allocate)
// and the breach is reported to the caller; the surrounding engine
// decides how execution responds. SuppressOOM opens a scope in which
// checks are disabled, restoring the previous state on exit so nested
// scopes compose.
//
// # Free-list nodes
//
// A queued free block stores only its next link. The kind/size header
// that lets an external scanner distinguish free blocks from live
// objects is written lazily, by initFree, just before a scan — not on
// every push/pop. This two-phase design is load-bearing for the hot
// path; see freelist.go.
//
// # Usage Example
//
//	h := alloc.NewSparse(mem.NewSys())
//	m, err := alloc.New(h, alloc.Config{
//	    Limit:     64 << 20,
//	    EnableOOM: true,
//	    OnExceeded: func() { /* raise resource-exhaustion upstream */ },
//	})
//	if err != nil {
//	    return err
//	}
//	defer m.Reset()
//
//	p, buf, err := m.Malloc(24)
//	if err != nil {
//	    return err
//	}
//	// ... use buf ...
//	err = m.Free(p, 24)
//
// # Thread Safety
//
// A Manager is owned by exactly one execution context at a time and
// performs no locking. Concurrent requests use fully independent
// Manager instances; there is no cross-instance shared mutable state.
//
// # Related Packages
//
//   - github.com/heapkit/heapkit/heap/sizeclass: classification engine
//   - github.com/heapkit/heapkit/heap/mem: raw memory sources
//   - github.com/heapkit/heapkit/internal/format: block header layout
package alloc
