//go:build linux || freebsd

package mem

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// SysSource allocates anonymous private mappings directly from the
// kernel, bypassing the Go heap. Regions are page-granular, so the
// returned slices are page-aligned and their pages are reclaimed
// eagerly on Free rather than at the next GC.
type SysSource struct {
	allocated   uint64
	deallocated uint64
}

// NewSys returns a mmap-backed source.
func NewSys() *SysSource {
	return &SysSource{}
}

// Alloc maps n bytes of zeroed anonymous memory.
func (s *SysSource) Alloc(n int) ([]byte, error) {
	buf, err := unix.Mmap(-1, 0, n, unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("mem: mmap %d bytes: %w", n, err)
	}
	s.allocated += uint64(n)
	return buf, nil
}

// Free unmaps a region previously returned by Alloc.
func (s *SysSource) Free(buf []byte) {
	if len(buf) == 0 {
		return
	}
	// Munmap failure here means the slice was not an Alloc result;
	// that is a caller bug and the region is leaked, not corrupted.
	if err := unix.Munmap(buf); err == nil {
		s.deallocated += uint64(len(buf))
	}
}

// Counters reports cumulative allocated and deallocated bytes.
func (s *SysSource) Counters() (allocated, deallocated uint64) {
	return s.allocated, s.deallocated
}

// Compile-time interface check
var _ CounterSource = (*SysSource)(nil)
