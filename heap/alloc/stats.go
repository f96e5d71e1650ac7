package alloc

import "github.com/heapkit/heapkit/heap/mem"

// Stats is a value snapshot of one Manager's memory accounting.
type Stats struct {
	// Usage is the running small/big allocation balance, charged at
	// class (or region) granularity so internal fragmentation counts
	// against the requester.
	Usage int64

	// AuxUsage is the net native-source traffic reconciled from
	// ground-truth counters, when the source provides them. It can
	// transiently read negative while reconciliation lags the source.
	AuxUsage int64

	// Capacity is the total bytes the backing heap currently owns.
	Capacity int64

	// Lifetime peaks.
	PeakUsage int64
	PeakCap   int64

	// Peaks within the current measurement interval; zero when no
	// interval is active.
	PeakIntervalUsage int64
	PeakIntervalCap   int64

	// Cumulative native-source counters at the last reconciliation.
	TotalAlloc uint64
	TotalFree  uint64
}

// Total returns current usage including reconciled native traffic.
func (s Stats) Total() int64 {
	return s.Usage + s.AuxUsage
}

// accounting tracks usage, enforces the budget, and owns the OOM and
// masking scopes. It is embedded in Manager and shares its single-owner
// discipline; nothing here locks.
type accounting struct {
	stats          Stats
	limit          int64
	couldOOM       bool
	intervalActive bool

	// Masked ("reset") native totals excluded from reconciliation.
	resetAlloc uint64
	resetFree  uint64

	// counters is nil when the source cannot report ground truth; all
	// reconciliation degrades to a no-op then.
	counters mem.CounterSource

	// capacity reports the backing heap's owned bytes.
	capacity func() int64

	// onExceeded is the external budget-breach hook. It runs with OOM
	// checks suppressed so a handler that allocates cannot recurse
	// into another breach signal.
	onExceeded func()
}

// refreshImpl reconciles s against the native counters and folds the
// result into s's peaks. Interval peaks advance only while an interval
// is active. Callers pass either the live stats or a copy; passing a
// copy leaves all live state untouched.
func (a *accounting) refreshImpl(s *Stats) {
	if a.capacity != nil {
		s.Capacity = a.capacity()
	}
	if a.counters != nil {
		allocated, deallocated := a.counters.Counters()
		s.TotalAlloc = allocated
		s.TotalFree = deallocated
		// Net native traffic, minus everything masked out by MaskAlloc
		// scopes, minus the heap's own growth (already in Usage via
		// the blocks carved from it). What remains is auxiliary native
		// usage on the request's behalf.
		s.AuxUsage = int64(allocated-a.resetAlloc) - int64(deallocated-a.resetFree) - s.Capacity
	}
	if s.Total() > s.PeakUsage {
		s.PeakUsage = s.Total()
	}
	if s.Capacity > s.PeakCap {
		s.PeakCap = s.Capacity
	}
	if a.intervalActive {
		if s.Total() > s.PeakIntervalUsage {
			s.PeakIntervalUsage = s.Total()
		}
		if s.Capacity > s.PeakIntervalCap {
			s.PeakIntervalCap = s.Capacity
		}
	}
}

// refresh reconciles the live stats. Periodic, not per-operation.
func (a *accounting) refresh() {
	a.refreshImpl(&a.stats)
}

// statsCopy returns a reconciled snapshot without touching live
// interval state, so speculative budget checks stay side-effect-free.
func (a *accounting) statsCopy() Stats {
	copied := a.stats
	a.refreshImpl(&copied)
	return copied
}

// startInterval opens a measurement window. Returns true when no
// interval was active; a second start before stop is detected, not
// stacked.
func (a *accounting) startInterval() bool {
	ret := !a.intervalActive
	snapshot := a.statsCopy()
	// Reconciliation lag can leave total usage negative; clamp the
	// baseline rather than record a nonsense negative peak.
	base := snapshot.Total()
	if base < 0 {
		base = 0
	}
	a.stats.PeakIntervalUsage = base
	a.stats.PeakIntervalCap = a.stats.Capacity
	a.intervalActive = true
	return ret
}

// stopInterval closes the window and zeroes its peaks. Returns whether
// an interval was active.
func (a *accounting) stopInterval() bool {
	ret := a.intervalActive
	a.intervalActive = false
	a.stats.PeakIntervalUsage = 0
	a.stats.PeakIntervalCap = 0
	return ret
}

// preAllocOOM reports whether allocating size more bytes would breach
// the budget, invoking the exceeded hook when it would. Disabled checks
// always report no breach.
func (a *accounting) preAllocOOM(size int64) bool {
	if !a.couldOOM {
		return false
	}
	snapshot := a.statsCopy()
	if snapshot.Total()+size > a.limit {
		a.exceeded()
		return true
	}
	return false
}

// forceOOM invokes the exceeded hook regardless of usage, when checks
// are enabled.
func (a *accounting) forceOOM() {
	if a.couldOOM {
		a.exceeded()
	}
}

func (a *accounting) exceeded() {
	if a.onExceeded == nil {
		return
	}
	restore := a.suppressOOM()
	defer restore()
	a.onExceeded()
}

// suppressOOM disables OOM checks and returns a func restoring the
// previous state. Nested scopes compose: each restore reinstates what
// it saw, not unconditional re-enable.
func (a *accounting) suppressOOM() (restore func()) {
	saved := a.couldOOM
	a.couldOOM = false
	return func() { a.couldOOM = saved }
}

// maskAlloc opens a scope whose net native traffic is excluded from
// reconciled usage once the returned func runs. Meaningless without
// ground-truth counters, so it degrades to a no-op then.
func (a *accounting) maskAlloc() (done func()) {
	if a.counters == nil {
		return func() {}
	}
	// Fold in everything allocated before the scope first.
	a.refresh()
	startAlloc, startFree := a.counters.Counters()
	return func() {
		endAlloc, endFree := a.counters.Counters()
		a.resetAlloc += endAlloc - startAlloc
		a.resetFree += endFree - startFree
	}
}
