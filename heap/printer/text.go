package printer

import (
	"fmt"
	"text/tabwriter"

	"github.com/heapkit/heapkit/heap/alloc"
	"github.com/heapkit/heapkit/heap/sizeclass"
)

// Stats renders one manager's reconciled accounting snapshot.
func (p *Printer) Stats(m *alloc.Manager) error {
	if p.opts.Format == FormatJSON {
		return p.statsJSON(m)
	}
	s := m.StatsCopy()

	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', tabwriter.AlignRight)
	row := func(label string, v int64) {
		fmt.Fprintf(tw, "%s\t%s\t\n", label, p.msg.Sprintf("%d", v))
	}
	row("usage", s.Usage)
	row("aux usage", s.AuxUsage)
	row("total", s.Total())
	row("capacity", s.Capacity)
	row("limit", m.Limit())
	if p.opts.ShowPeaks {
		row("peak usage", s.PeakUsage)
		row("peak capacity", s.PeakCap)
		row("interval peak usage", s.PeakIntervalUsage)
		row("interval peak capacity", s.PeakIntervalCap)
	}
	if p.opts.ShowOps {
		ops := m.OpStats()
		irow := func(label string, v int) {
			fmt.Fprintf(tw, "%s\t%s\t\n", label, p.msg.Sprintf("%d", v))
		}
		irow("small allocs", ops.AllocCalls)
		irow("fast path", ops.FastPath)
		irow("slow path", ops.SlowPath)
		irow("small frees", ops.FreeCalls)
		irow("slabs carved", ops.SlabsCarved)
		irow("tail blocks", ops.TailBlocks)
		irow("big allocs", ops.BigAllocs)
		irow("big frees", ops.BigFrees)
	}
	return tw.Flush()
}

// Classes renders the full size-class table: index, class size, the
// gap to the previous class, and which allocation path serves it.
func (p *Printer) Classes(t *sizeclass.Table) error {
	if p.opts.Format == FormatJSON {
		return p.classesJSON(t)
	}

	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "index\tsize\tspacing\tpath\t\n")
	prev := 0
	for i := 0; i < t.NumClasses(); i++ {
		size := t.Index2Size(i)
		path := "small"
		if i >= t.NumSmallClasses() {
			path = "big"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t\n",
			i, p.msg.Sprintf("%d", size), p.msg.Sprintf("%d", size-prev), path)
		prev = size
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(p.w, "%d classes (%d small), quantum %d, small ceiling %s\n",
		t.NumClasses(), t.NumSmallClasses(), t.Quantum(),
		p.msg.Sprintf("%d", t.MaxSmallSize()))
	return err
}
