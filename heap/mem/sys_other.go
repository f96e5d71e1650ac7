//go:build !linux && !freebsd

package mem

// SysSource is backed by the Go heap on platforms without the mmap
// fast path. Counter semantics match the unix implementation so
// accounting behaves identically everywhere.
type SysSource struct {
	allocated   uint64
	deallocated uint64
}

// NewSys returns a Go-heap-backed source.
func NewSys() *SysSource {
	return &SysSource{}
}

// Alloc returns a zeroed slice of n bytes.
func (s *SysSource) Alloc(n int) ([]byte, error) {
	s.allocated += uint64(n)
	return make([]byte, n), nil
}

// Free records the release; the Go runtime reclaims the slice.
func (s *SysSource) Free(buf []byte) {
	s.deallocated += uint64(len(buf))
}

// Counters reports cumulative allocated and deallocated bytes.
func (s *SysSource) Counters() (allocated, deallocated uint64) {
	return s.allocated, s.deallocated
}

// Compile-time interface check
var _ CounterSource = (*SysSource)(nil)
