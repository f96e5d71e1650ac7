package alloc

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/heapkit/heapkit/internal/format"
)

// TestRandomAllocFreeInvariants performs random small/big traffic and
// validates the accounting invariants after every step.
func TestRandomAllocFreeInvariants(t *testing.T) {
	m := newSparseManager(t, Config{SlabSize: 8192})

	rng := rand.New(rand.NewSource(42)) // fixed seed for reproducibility
	live := make(map[Ptr]int)
	var expectedUsage int64

	for i := 0; i < 500; i++ {
		if len(live) == 0 || rng.Intn(3) != 0 {
			size := 1 + rng.Intn(16384)
			p, buf, err := m.Malloc(size)
			require.NoError(t, err, "step %d: Malloc(%d)", i, size)
			require.GreaterOrEqual(t, len(buf), size, "step %d: short block", i)
			_, seen := live[p]
			require.False(t, seen, "step %d: %#x handed out twice", i, p)
			live[p] = size
			expectedUsage += chargedSize(m, size)
		} else {
			// Map iteration order doubles as the random pick.
			for p, size := range live {
				require.NoError(t, m.Free(p, size), "step %d: Free(%#x)", i, p)
				delete(live, p)
				expectedUsage -= chargedSize(m, size)
				break
			}
		}

		require.Equal(t, expectedUsage, m.CurrentUsage(), "step %d: usage drift", i)
		require.LessOrEqual(t, m.CurrentUsage(), m.Heap().Capacity(),
			"step %d: usage exceeds owned memory", i)
		for p := range live {
			require.True(t, m.Contains(p), "step %d: live %#x outside heap", i, p)
		}
	}

	for p, size := range live {
		require.NoError(t, m.Free(p, size))
	}
	require.Zero(t, m.CurrentUsage())
}

// chargedSize mirrors the accounting: small requests are charged their
// class size, big requests their quantum-rounded region size.
func chargedSize(m *Manager, size int) int64 {
	if size <= m.Table().MaxSmallSize() {
		return int64(m.Table().SizeClass(size))
	}
	return int64(format.AlignQuantum(size))
}

// TestRandomWriteIntegrity fills every block with a pattern derived
// from its address and checks nothing was clobbered by later traffic.
func TestRandomWriteIntegrity(t *testing.T) {
	m := newSparseManager(t, Config{})

	rng := rand.New(rand.NewSource(7))
	type block struct {
		p    Ptr
		size int
	}
	var live []block

	fill := func(b []byte, p Ptr) {
		for i := range b {
			b[i] = byte(p>>8) ^ byte(i)
		}
	}
	check := func(b []byte, p Ptr) bool {
		for i := range b {
			if b[i] != byte(p>>8)^byte(i) {
				return false
			}
		}
		return true
	}

	for i := 0; i < 300; i++ {
		if len(live) == 0 || rng.Intn(4) != 0 {
			size := 1 + rng.Intn(2048)
			p, buf, err := m.Malloc(size)
			require.NoError(t, err)
			fill(buf[:size], p)
			live = append(live, block{p, size})
		} else {
			j := rng.Intn(len(live))
			bl := live[j]
			require.True(t, check(m.heap.Mem(bl.p, bl.size), bl.p),
				"step %d: block %#x clobbered", i, bl.p)
			require.NoError(t, m.Free(bl.p, bl.size))
			live = append(live[:j], live[j+1:]...)
		}
	}

	for _, bl := range live {
		require.True(t, check(m.heap.Mem(bl.p, bl.size), bl.p), "block %#x clobbered at drain", bl.p)
		require.NoError(t, m.Free(bl.p, bl.size))
	}
}
