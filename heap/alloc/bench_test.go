package alloc

import (
	"testing"

	"github.com/heapkit/heapkit/heap/mem"
)

// Benchmark_MallocFree_SmallHot exercises the free-list fast path: the
// same class is allocated and freed in a tight pair, so every Malloc
// after the first is a pop.
func Benchmark_MallocFree_SmallHot(b *testing.B) {
	m, err := New(NewSparse(mem.NewSys()), Config{})
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		p, _, allocErr := m.Malloc(64)
		if allocErr != nil {
			b.Fatal(allocErr)
		}
		if freeErr := m.Free(p, 64); freeErr != nil {
			b.Fatal(freeErr)
		}
	}
}

// Benchmark_MallocSmallIndex_FastPath measures the index entry point
// with the classification already done.
func Benchmark_MallocSmallIndex_FastPath(b *testing.B) {
	m, err := New(NewSparse(mem.NewSys()), Config{})
	if err != nil {
		b.Fatal(err)
	}
	idx := m.Table().Size2Index(128)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		p, _, allocErr := m.MallocSmallIndex(idx)
		if allocErr != nil {
			b.Fatal(allocErr)
		}
		if freeErr := m.FreeSmallIndex(p, idx); freeErr != nil {
			b.Fatal(freeErr)
		}
	}
}

// Benchmark_Malloc_SlowPath forces every allocation through the slab
// carve frontier by never freeing, with a periodic reset to bound
// memory.
func Benchmark_Malloc_SlowPath(b *testing.B) {
	m, err := New(NewSparse(mem.NewSys()), Config{})
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if _, _, allocErr := m.Malloc(256); allocErr != nil {
			b.Fatal(allocErr)
		}
		if m.CurrentUsage() > 64<<20 {
			b.StopTimer()
			m.Reset()
			b.StartTimer()
		}
	}
}

// Benchmark_MallocFree_MixedSizes walks a spread of classes the way
// request traffic does.
func Benchmark_MallocFree_MixedSizes(b *testing.B) {
	m, err := New(NewSparse(mem.NewSys()), Config{})
	if err != nil {
		b.Fatal(err)
	}
	sizes := []int{16, 24, 48, 96, 200, 512, 1024, 3000}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		size := sizes[i%len(sizes)]
		p, _, allocErr := m.Malloc(size)
		if allocErr != nil {
			b.Fatal(allocErr)
		}
		if freeErr := m.Free(p, size); freeErr != nil {
			b.Fatal(freeErr)
		}
	}
}

// Benchmark_MallocFree_Big measures the individually tracked path,
// including the source round trip.
func Benchmark_MallocFree_Big(b *testing.B) {
	m, err := New(NewSparse(mem.NewSys()), Config{})
	if err != nil {
		b.Fatal(err)
	}
	size := m.Table().MaxSmallSize() * 4

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		p, _, allocErr := m.Malloc(size)
		if allocErr != nil {
			b.Fatal(allocErr)
		}
		if freeErr := m.Free(p, size); freeErr != nil {
			b.Fatal(freeErr)
		}
	}
}

// Benchmark_ContigMallocFree compares the arena strategy on the same
// hot pair.
func Benchmark_ContigMallocFree(b *testing.B) {
	h, err := NewContig(mem.NewSys(), 64<<10, 16)
	if err != nil {
		b.Fatal(err)
	}
	defer h.Release()
	m, err := New(h, Config{})
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		p, _, allocErr := m.Malloc(64)
		if allocErr != nil {
			b.Fatal(allocErr)
		}
		if freeErr := m.Free(p, 64); freeErr != nil {
			b.Fatal(freeErr)
		}
	}
}
