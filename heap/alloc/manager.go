package alloc

import (
	"container/list"
	"fmt"
	"math"
	"os"

	"github.com/heapkit/heapkit/heap/mem"
	"github.com/heapkit/heapkit/heap/sizeclass"
	"github.com/heapkit/heapkit/internal/format"
)

// Debug flag - set to true to enable verbose logging (compile-time toggle).
const debugAlloc = false

// Runtime debug flag for allocation logging - controlled by HEAP_LOG_ALLOC env var.
var logAlloc = os.Getenv("HEAP_LOG_ALLOC") != ""

// defaultSlabSize is the growth unit for the small-object path.
const defaultSlabSize = 64 << 10

// Config configures one request-scoped Manager.
type Config struct {
	// SizeClasses is the classification policy. Zero value selects
	// sizeclass.DefaultConfig.
	SizeClasses sizeclass.Config

	// SlabSize is the growth unit for small-object carving. Must be a
	// quantum multiple no smaller than the largest small class.
	// Defaults to 64 KiB.
	SlabSize int

	// Limit is the usage budget ceiling in bytes. Zero or negative
	// means effectively unlimited.
	Limit int64

	// EnableOOM turns budget checks on at construction. Suppression
	// scopes toggle this dynamically afterwards.
	EnableOOM bool

	// OnExceeded is invoked when a budget check detects a breach. The
	// hook runs with checks suppressed, so it may allocate freely.
	OnExceeded func()

	// Debug enables the eager-collection hook on every small
	// allocation.
	Debug bool

	// EagerGC is the optional collection hook driven by Debug.
	EagerGC func()

	// BypassSmallCache routes every small allocation and free through
	// the big path, disabling slab recycling. Diagnostic mode.
	BypassSmallCache bool
}

// OpStats holds internal operation counters for instrumentation.
type OpStats struct {
	AllocCalls  int // small allocations requested
	FastPath    int // served from a free list
	SlowPath    int // served by carving a slab
	FreeCalls   int // small frees
	SlabsCarved int // slabs requested from the heap
	TailBlocks  int // free-list blocks minted from slab tails
	BigAllocs   int // big-path allocations
	BigFrees    int // big-path frees
}

// Manager is the per-request allocator: it owns the class free lists,
// the backing heap, the accounting state, and the lifecycle flags. One
// logical execution context owns a Manager at a time; nothing in here
// locks.
type Manager struct {
	cfg   Config
	table *sizeclass.Table
	heap  Heap
	acct  accounting

	// One intrusive free list per small size class.
	freelists []freeList

	// Carve frontier within the current slab.
	slabFront Ptr
	slabLimit Ptr

	ops OpStats

	// Lifecycle flags. sweeping is driven by the external collector;
	// exiting is one-way.
	sweeping bool
	exiting  bool

	// Side list of string-like nodes threaded for the collector.
	strings *list.List
}

// New creates a Manager backed by h.
func New(h Heap, cfg Config) (*Manager, error) {
	table, err := sizeclass.New(cfg.SizeClasses)
	if err != nil {
		return nil, err
	}
	if cfg.SlabSize == 0 {
		cfg.SlabSize = defaultSlabSize
	}
	if cfg.SlabSize < table.MaxSmallSize() || cfg.SlabSize%format.QuantumAlignment != 0 {
		return nil, fmt.Errorf("%w: slab size %d", ErrBadSize, cfg.SlabSize)
	}
	limit := cfg.Limit
	if limit <= 0 {
		limit = math.MaxInt64
	}

	m := &Manager{
		cfg:       cfg,
		table:     table,
		heap:      h,
		freelists: make([]freeList, table.NumSmallClasses()),
		strings:   list.New(),
	}
	m.acct = accounting{
		limit:      limit,
		couldOOM:   cfg.EnableOOM,
		capacity:   h.Capacity,
		onExceeded: cfg.OnExceeded,
	}
	// Ground-truth counters are best-effort: without them the
	// accounting runs usage-only.
	if cs, ok := h.Source().(mem.CounterSource); ok {
		m.acct.counters = cs
	}
	return m, nil
}

// Table returns the size-class table this Manager classifies with.
func (m *Manager) Table() *sizeclass.Table {
	return m.table
}

// Heap returns the backing heap, for collector-side introspection.
func (m *Manager) Heap() Heap {
	return m.heap
}

// ============================================================================
// Small-object path
// ============================================================================

// MallocSmallIndex allocates one block of the given small class. The
// returned slice spans the full class size.
//
// Requires 0 <= index < NumSmallClasses; violations fault rather than
// corrupt a free list.
func (m *Manager) MallocSmallIndex(index int) (Ptr, []byte, error) {
	if index < 0 || index >= len(m.freelists) {
		panic(fmt.Sprintf("alloc: MallocSmallIndex(%d) out of range [0, %d)", index, len(m.freelists)))
	}
	if m.cfg.Debug && m.cfg.EagerGC != nil {
		m.cfg.EagerGC()
	}
	bytes := m.table.Index2Size(index)
	if m.cfg.BypassSmallCache {
		return m.MallocBig(bytes)
	}

	m.ops.AllocCalls++
	// Charge the class size, not the requested size: internal
	// fragmentation counts against the requester.
	m.acct.stats.Usage += int64(bytes)

	if p := m.freelists[index].pop(m.heap); p != 0 {
		m.ops.FastPath++
		if logAlloc {
			fmt.Fprintf(os.Stderr, "[ALLOC] small fast: class=%d size=%d p=%#x\n", index, bytes, p)
		}
		return p, m.heap.Mem(p, bytes), nil
	}

	p, err := m.mallocSmallSlow(bytes)
	if err != nil {
		m.acct.stats.Usage -= int64(bytes)
		return 0, nil, err
	}
	m.ops.SlowPath++
	if logAlloc {
		fmt.Fprintf(os.Stderr, "[ALLOC] small slow: class=%d size=%d p=%#x\n", index, bytes, p)
	}
	return p, m.heap.Mem(p, bytes), nil
}

// MallocSmall allocates at least bytes bytes from the small-object
// path. Requires 0 < bytes <= MaxSmallSize.
func (m *Manager) MallocSmall(bytes int) (Ptr, []byte, error) {
	if bytes <= 0 || bytes > m.table.MaxSmallSize() {
		panic(fmt.Sprintf("alloc: MallocSmall(%d) out of range (0, %d]", bytes, m.table.MaxSmallSize()))
	}
	return m.MallocSmallIndex(m.table.Size2Index(bytes))
}

// FreeSmallIndex returns a block to its class free list. p must have
// come from a matching-class small allocation; no double-free or
// class-mismatch detection happens here — that is the caller contract.
func (m *Manager) FreeSmallIndex(p Ptr, index int) error {
	if index < 0 || index >= len(m.freelists) {
		panic(fmt.Sprintf("alloc: FreeSmallIndex(%d) out of range [0, %d)", index, len(m.freelists)))
	}
	if m.cfg.BypassSmallCache {
		return m.FreeBig(p)
	}
	m.ops.FreeCalls++
	m.freelists[index].push(m.heap, p)
	m.acct.stats.Usage -= int64(m.table.Index2Size(index))
	return nil
}

// FreeSmall returns a block allocated via MallocSmall(bytes).
func (m *Manager) FreeSmall(p Ptr, bytes int) error {
	return m.FreeSmallIndex(p, m.table.Size2Index(bytes))
}

// mallocSmallSlow carves a block from the current slab, growing the
// heap when the slab is exhausted.
func (m *Manager) mallocSmallSlow(bytes int) (Ptr, error) {
	if m.slabFront+Ptr(bytes) <= m.slabLimit {
		p := m.slabFront
		m.slabFront += Ptr(bytes)
		return p, nil
	}

	// Budget check before growth. A breach is signaled to the
	// exceeded hook; the allocation itself still proceeds and the
	// surrounding engine decides whether to abort the request.
	m.acct.preAllocOOM(int64(m.cfg.SlabSize))

	reg, err := m.heap.AllocSlab(m.cfg.SlabSize)
	if err != nil {
		debugLogf("slab grow failed: %v", err)
		return 0, err
	}
	m.ops.SlabsCarved++
	if logAlloc {
		fmt.Fprintf(os.Stderr, "[GROW] slab #%d: %d bytes at %#x\n",
			m.ops.SlabsCarved, reg.Size, reg.Base)
	}

	// The old slab's remainder is still usable: split it onto the
	// free lists instead of leaking it as slack.
	m.storeTail(m.slabFront, int(m.slabLimit-m.slabFront))

	m.slabFront = reg.Base + Ptr(bytes)
	m.slabLimit = reg.End()
	return reg.Base, nil
}

// storeTail splits a slab remainder into class-sized blocks and pushes
// them onto the free lists, largest classes first. Remainders are
// always quantum multiples, so nothing is left behind.
func (m *Manager) storeTail(tail Ptr, n int) {
	for n >= m.table.Quantum() {
		size := m.tailFit(n)
		idx := m.table.Size2Index(size)
		m.freelists[idx].push(m.heap, tail)
		m.ops.TailBlocks++
		tail += Ptr(size)
		n -= size
	}
}

// tailFit returns the largest small class size that fits in n bytes.
func (m *Manager) tailFit(n int) int {
	if n >= m.table.MaxSmallSize() {
		return m.table.MaxSmallSize()
	}
	idx := m.table.Size2Index(n)
	if m.table.Index2Size(idx) > n {
		idx--
	}
	return m.table.Index2Size(idx)
}

// ============================================================================
// Dispatchers
// ============================================================================

// Malloc allocates size bytes, routing small requests through the class
// free lists and everything else through the big path. This is the
// entry point application code should use.
func (m *Manager) Malloc(size int) (Ptr, []byte, error) {
	if size <= 0 {
		return 0, nil, fmt.Errorf("%w: Malloc(%d)", ErrBadSize, size)
	}
	if size <= m.table.MaxSmallSize() {
		return m.MallocSmall(size)
	}
	return m.MallocBig(size)
}

// Free releases a block allocated with Malloc(size). The size must be
// the one passed at allocation time; accounting symmetry depends on it.
func (m *Manager) Free(p Ptr, size int) error {
	if size <= 0 {
		return fmt.Errorf("%w: Free(%d)", ErrBadSize, size)
	}
	if size <= m.table.MaxSmallSize() {
		return m.FreeSmall(p, size)
	}
	return m.FreeBig(p)
}

// MallocIndex allocates one block of the given class, small or big.
func (m *Manager) MallocIndex(index int) (Ptr, []byte, error) {
	if index < len(m.freelists) {
		return m.MallocSmallIndex(index)
	}
	return m.MallocBig(m.table.Index2Size(index))
}

// FreeIndex releases a block allocated with MallocIndex.
func (m *Manager) FreeIndex(p Ptr, index int) error {
	if index < len(m.freelists) {
		return m.FreeSmallIndex(p, index)
	}
	return m.FreeBig(p)
}

// ============================================================================
// Big-object path
// ============================================================================

// MallocBig allocates an individually tracked region of at least size
// bytes.
func (m *Manager) MallocBig(size int) (Ptr, []byte, error) {
	if size <= 0 {
		return 0, nil, fmt.Errorf("%w: MallocBig(%d)", ErrBadSize, size)
	}
	m.acct.preAllocOOM(int64(size))
	reg, err := m.heap.AllocBig(size)
	if err != nil {
		return 0, nil, err
	}
	m.ops.BigAllocs++
	m.acct.stats.Usage += int64(reg.Size)
	if logAlloc {
		fmt.Fprintf(os.Stderr, "[ALLOC] big: size=%d got=%d p=%#x\n", size, reg.Size, reg.Base)
	}
	return reg.Base, m.heap.Mem(reg.Base, reg.Size), nil
}

// FreeBig releases a region allocated by MallocBig, crediting the
// region's recorded size.
func (m *Manager) FreeBig(p Ptr) error {
	n, err := m.heap.FreeBig(p)
	if err != nil {
		return err
	}
	m.ops.BigFrees++
	m.acct.stats.Usage -= int64(n)
	return nil
}

// ============================================================================
// Accounting surface
// ============================================================================

// CurrentUsage returns the running usage counter without reconciling.
func (m *Manager) CurrentUsage() int64 {
	return m.acct.stats.Usage
}

// Limit returns the configured budget ceiling.
func (m *Manager) Limit() int64 {
	return m.acct.limit
}

// RefreshStats reconciles the live stats against the native source's
// counters. Periodic/checkpoint operation, never assumed per-op.
func (m *Manager) RefreshStats() {
	m.acct.refresh()
}

// Stats reconciles and returns the live stats.
func (m *Manager) Stats() Stats {
	m.acct.refresh()
	return m.acct.stats
}

// StatsCopy returns a reconciled snapshot without mutating live
// interval state.
func (m *Manager) StatsCopy() Stats {
	return m.acct.statsCopy()
}

// StartStatsInterval opens a measurement window; see accounting.
func (m *Manager) StartStatsInterval() bool {
	return m.acct.startInterval()
}

// StopStatsInterval closes the measurement window.
func (m *Manager) StopStatsInterval() bool {
	return m.acct.stopInterval()
}

// PreAllocOOM reports whether allocating size more bytes would breach
// the budget.
func (m *Manager) PreAllocOOM(size int64) bool {
	return m.acct.preAllocOOM(size)
}

// ForceOOM triggers the exceeded hook regardless of usage, when checks
// are enabled.
func (m *Manager) ForceOOM() {
	m.acct.forceOOM()
}

// SuppressOOM disables budget checks until the returned func runs:
//
//	defer m.SuppressOOM()()
//
// Nested scopes restore the previous state, not unconditional enable.
func (m *Manager) SuppressOOM() (restore func()) {
	return m.acct.suppressOOM()
}

// MaskAlloc excludes the scope's net native traffic from reconciled
// usage:
//
//	defer m.MaskAlloc()()
//
// Used to measure allocator overhead without polluting request-visible
// figures. No-op without ground-truth counters.
func (m *Manager) MaskAlloc() (done func()) {
	return m.acct.maskAlloc()
}

// OpStats returns the internal operation counters.
func (m *Manager) OpStats() OpStats {
	return m.ops
}

// ============================================================================
// Lifecycle & collector surface
// ============================================================================

// Empty reports whether the backing heap owns any memory.
func (m *Manager) Empty() bool {
	return m.heap.Empty()
}

// Contains reports whether p falls within heap-owned memory.
func (m *Manager) Contains(p Ptr) bool {
	return m.heap.Contains(p)
}

// Find returns the region containing p. Free-list headers are
// materialized first so a scanner walking the region can tell free
// blocks from live objects.
func (m *Manager) Find(p Ptr) (Region, bool) {
	m.initFree()
	return m.heap.Find(p)
}

// initFree upgrades every queued free-list node from bare-link form to
// header-bearing form, and marks the current slab slack as a hole.
func (m *Manager) initFree() {
	for i := range m.freelists {
		size := uint32(m.table.Index2Size(i))
		m.freelists[i].walk(m.heap, func(p Ptr) {
			format.WriteHeader(m.heap.Mem(p, format.HeaderSize), uint8(KindFree), size)
		})
	}
	if rem := int64(m.slabLimit) - int64(m.slabFront); rem >= format.HeaderSize {
		format.WriteHeader(m.heap.Mem(m.slabFront, format.HeaderSize), uint8(KindHole), uint32(rem))
	}
}

// Sweeping reports whether a collection pass is walking the heap.
func (m *Manager) Sweeping() bool {
	return m.sweeping
}

// SetSweeping is called by the external collector around a sweep pass.
func (m *Manager) SetSweeping(v bool) {
	m.sweeping = v
}

// Exiting reports whether the request is tearing down.
func (m *Manager) Exiting() bool {
	return m.exiting
}

// SetExiting marks the request as tearing down. One-way for the life of
// the Manager.
func (m *Manager) SetExiting() {
	m.exiting = true
}

// AttachString threads a string-like allocation onto the side list the
// collector walks. Returns the element for later unlinking.
func (m *Manager) AttachString(p Ptr) *list.Element {
	return m.strings.PushBack(p)
}

// DetachString unlinks a node during sweep.
func (m *Manager) DetachString(e *list.Element) {
	m.strings.Remove(e)
}

// StringNodes exposes the side list for the collector's traversal.
func (m *Manager) StringNodes() *list.List {
	return m.strings
}

// Reset releases the backing heap in bulk and clears all allocation
// state. Called at request teardown; lifetime peaks survive.
func (m *Manager) Reset() {
	m.heap.Reset()
	for i := range m.freelists {
		m.freelists[i] = freeList{}
	}
	m.slabFront, m.slabLimit = 0, 0
	m.strings.Init()
	m.acct.stats.Usage = 0
	m.acct.refresh()
}

// debugLogf prints debug messages if debugAlloc is enabled.
func debugLogf(msg string, args ...any) {
	if debugAlloc {
		fmt.Fprintf(os.Stderr, "[ALLOC] "+msg+"\n", args...)
	}
}
