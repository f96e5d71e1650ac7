package alloc

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/heapkit/heapkit/internal/format"
)

// TestFindMaterializesFreeHeaders: queued free blocks carry only a
// link until a scan asks for headers; Find must upgrade all of them.
func TestFindMaterializesFreeHeaders(t *testing.T) {
	m := newSparseManager(t, Config{})

	ptrs := make([]Ptr, 4)
	for i := range ptrs {
		p, _, err := m.Malloc(24)
		require.NoError(t, err)
		ptrs[i] = p
	}
	for _, p := range ptrs {
		require.NoError(t, m.Free(p, 24))
	}

	// Before the scan the header slot of a queued block is whatever
	// the application left there; the freshly carved slab gives zero.
	kind, _ := format.ReadHeader(m.heap.Mem(ptrs[0], format.HeaderSize))
	require.Equal(t, uint8(KindInvalid), kind)

	_, ok := m.Find(ptrs[0])
	require.True(t, ok)

	for _, p := range ptrs {
		kind, size := format.ReadHeader(m.heap.Mem(p, format.HeaderSize))
		require.Equal(t, uint8(KindFree), kind)
		require.Equal(t, uint32(32), size, "header carries the class size")
	}
}

// TestFindMarksSlabSlackAsHole: the uncarved remainder of the current
// slab gets a hole header so a scanner can step over it.
func TestFindMarksSlabSlackAsHole(t *testing.T) {
	m := newSparseManager(t, Config{SlabSize: 4096})

	p, _, err := m.Malloc(1024)
	require.NoError(t, err)

	_, ok := m.Find(p)
	require.True(t, ok)

	kind, size := format.ReadHeader(m.heap.Mem(m.slabFront, format.HeaderSize))
	require.Equal(t, uint8(KindHole), kind)
	require.Equal(t, uint32(4096-1024), size)
}

// TestFreeListSurvivesMaterialization: header writes must not disturb
// the links; blocks still pop in LIFO order afterwards.
func TestFreeListSurvivesMaterialization(t *testing.T) {
	m := newSparseManager(t, Config{})

	a, _, err := m.Malloc(24)
	require.NoError(t, err)
	b, _, err := m.Malloc(24)
	require.NoError(t, err)
	require.NoError(t, m.Free(a, 24))
	require.NoError(t, m.Free(b, 24))

	m.initFree()

	p, _, err := m.Malloc(24)
	require.NoError(t, err)
	require.Equal(t, b, p)
	p, _, err = m.Malloc(24)
	require.NoError(t, err)
	require.Equal(t, a, p)
}

func TestLifecycleFlags(t *testing.T) {
	m := newSparseManager(t, Config{})

	require.False(t, m.Sweeping())
	m.SetSweeping(true)
	require.True(t, m.Sweeping())
	m.SetSweeping(false)
	require.False(t, m.Sweeping())

	require.False(t, m.Exiting())
	m.SetExiting()
	require.True(t, m.Exiting())
}

func TestStringNodeList(t *testing.T) {
	m := newSparseManager(t, Config{})

	p1, _, err := m.Malloc(32)
	require.NoError(t, err)
	p2, _, err := m.Malloc(32)
	require.NoError(t, err)

	e1 := m.AttachString(p1)
	e2 := m.AttachString(p2)
	require.Equal(t, 2, m.StringNodes().Len())

	m.DetachString(e1)
	require.Equal(t, 1, m.StringNodes().Len())
	require.Equal(t, p2, m.StringNodes().Front().Value.(Ptr))

	m.DetachString(e2)
	require.Zero(t, m.StringNodes().Len())
}

func TestResetClearsStringNodes(t *testing.T) {
	m := newSparseManager(t, Config{})
	p, _, err := m.Malloc(32)
	require.NoError(t, err)
	m.AttachString(p)

	m.Reset()
	require.Zero(t, m.StringNodes().Len())
}

func TestContextNilSafety(t *testing.T) {
	var c *Context
	require.Nil(t, c.Active())
	require.False(t, c.Sweeping())
	require.False(t, c.Exiting())
	c.SetExiting() // must not fault

	// Empty but non-nil behaves the same.
	c = &Context{}
	require.Nil(t, c.Active())
	require.False(t, c.Sweeping())
	require.False(t, c.Exiting())
	c.SetExiting()
}

func TestContextAttachDetach(t *testing.T) {
	m := newSparseManager(t, Config{})
	c := &Context{}

	c.Attach(m)
	require.Same(t, m, c.Active())

	m.SetSweeping(true)
	require.True(t, c.Sweeping())

	c.SetExiting()
	require.True(t, m.Exiting())
	require.True(t, c.Exiting())

	c.Detach()
	require.Nil(t, c.Active())
	require.False(t, c.Sweeping(), "detached context reports idle, not the old manager")
}
