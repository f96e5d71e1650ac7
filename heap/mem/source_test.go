package mem

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSysSourceAllocFree(t *testing.T) {
	src := NewSys()

	buf, err := src.Alloc(1 << 16)
	require.NoError(t, err)
	require.Len(t, buf, 1<<16)

	// Memory must be writable end to end.
	buf[0], buf[len(buf)-1] = 0xAA, 0xBB
	require.Equal(t, byte(0xAA), buf[0])
	require.Equal(t, byte(0xBB), buf[len(buf)-1])

	allocated, deallocated := src.Counters()
	require.Equal(t, uint64(1<<16), allocated)
	require.Zero(t, deallocated)

	src.Free(buf)
	allocated, deallocated = src.Counters()
	require.Equal(t, uint64(1<<16), allocated)
	require.Equal(t, uint64(1<<16), deallocated)
}

func TestSysSourceCountersAccumulate(t *testing.T) {
	src := NewSys()

	a, err := src.Alloc(4096)
	require.NoError(t, err)
	b, err := src.Alloc(8192)
	require.NoError(t, err)

	allocated, _ := src.Counters()
	require.Equal(t, uint64(4096+8192), allocated)

	src.Free(a)
	src.Free(b)
	_, deallocated := src.Counters()
	require.Equal(t, uint64(4096+8192), deallocated)
}

func TestGoSourceHasNoCounters(t *testing.T) {
	var src Source = GoSource{}

	buf, err := src.Alloc(512)
	require.NoError(t, err)
	require.Len(t, buf, 512)
	src.Free(buf)

	_, ok := src.(CounterSource)
	require.False(t, ok, "GoSource must not advertise counters")
}
