// Package mem supplies raw memory to the allocator's backing heaps.
//
// A Source is the external collaborator the heaps grow from: it hands
// out byte slices and takes them back, nothing more. Sources that can
// also report ground-truth cumulative byte counters implement
// CounterSource; accounting treats those counters as best-effort input
// and degrades to usage-only tracking when they are absent.
package mem

// Source supplies raw memory regions for heap growth and takes them
// back on release. Implementations need not zero returned memory.
type Source interface {
	// Alloc returns a slice of exactly n bytes.
	Alloc(n int) ([]byte, error)

	// Free releases a slice previously returned by Alloc. The slice
	// must be the original allocation, not a sub-slice.
	Free(buf []byte)
}

// CounterSource extends Source with cumulative allocated/deallocated
// byte totals. The counters are monotonic for the life of the source.
type CounterSource interface {
	Source

	// Counters reports total bytes handed out and total bytes taken
	// back since the source was created.
	Counters() (allocated, deallocated uint64)
}

// GoSource is a Source backed by the Go heap, with no counter support.
// It exists to exercise the degraded accounting path and as a fallback
// when callers explicitly do not want counters.
type GoSource struct{}

// Alloc returns a garbage-collected slice of n bytes.
func (GoSource) Alloc(n int) ([]byte, error) {
	return make([]byte, n), nil
}

// Free is a no-op; the Go runtime reclaims the slice.
func (GoSource) Free([]byte) {}
