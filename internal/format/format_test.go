package format

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAlignQuantum(t *testing.T) {
	cases := []struct{ in, want int }{
		{1, 16},
		{15, 16},
		{16, 16},
		{17, 32},
		{4096, 4096},
	}
	for _, c := range cases {
		require.Equal(t, c.want, AlignQuantum(c.in), "AlignQuantum(%d)", c.in)
	}
}

func TestAlignPage(t *testing.T) {
	require.Equal(t, 4096, AlignPage(1))
	require.Equal(t, 4096, AlignPage(4096))
	require.Equal(t, 8192, AlignPage(4097))
	require.Equal(t, uint64(8192), AlignPageU64(4097))
}

func TestHeaderWord(t *testing.T) {
	word := PackHeader(0x42, 1<<20)
	kind, size := UnpackHeader(word)
	require.Equal(t, uint8(0x42), kind)
	require.Equal(t, uint32(1<<20), size)

	// The kind byte must not leak into the size field.
	kind, size = UnpackHeader(PackHeader(0xFF, 0))
	require.Equal(t, uint8(0xFF), kind)
	require.Zero(t, size)
}

func TestWriteReadHeader(t *testing.T) {
	b := make([]byte, NodeSize)
	WriteHeader(b, 7, 4096)
	kind, size := ReadHeader(b)
	require.Equal(t, uint8(7), kind)
	require.Equal(t, uint32(4096), size)

	// The link slot after the header must be untouched.
	require.Zero(t, ReadU64(b, LinkOffset))
}
