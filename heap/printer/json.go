package printer

import (
	"encoding/json"

	"github.com/heapkit/heapkit/heap/alloc"
	"github.com/heapkit/heapkit/heap/sizeclass"
)

// statsDoc is the stable JSON shape for a stats snapshot.
type statsDoc struct {
	Usage             int64  `json:"usage"`
	AuxUsage          int64  `json:"aux_usage"`
	Total             int64  `json:"total"`
	Capacity          int64  `json:"capacity"`
	Limit             int64  `json:"limit"`
	PeakUsage         int64  `json:"peak_usage,omitempty"`
	PeakCap           int64  `json:"peak_capacity,omitempty"`
	PeakIntervalUsage int64  `json:"interval_peak_usage,omitempty"`
	PeakIntervalCap   int64  `json:"interval_peak_capacity,omitempty"`
	TotalAlloc        uint64 `json:"total_alloc,omitempty"`
	TotalFree         uint64 `json:"total_free,omitempty"`

	Ops *opsDoc `json:"ops,omitempty"`
}

type opsDoc struct {
	AllocCalls  int `json:"small_allocs"`
	FastPath    int `json:"fast_path"`
	SlowPath    int `json:"slow_path"`
	FreeCalls   int `json:"small_frees"`
	SlabsCarved int `json:"slabs_carved"`
	TailBlocks  int `json:"tail_blocks"`
	BigAllocs   int `json:"big_allocs"`
	BigFrees    int `json:"big_frees"`
}

func (p *Printer) statsJSON(m *alloc.Manager) error {
	s := m.StatsCopy()
	doc := statsDoc{
		Usage:      s.Usage,
		AuxUsage:   s.AuxUsage,
		Total:      s.Total(),
		Capacity:   s.Capacity,
		Limit:      m.Limit(),
		TotalAlloc: s.TotalAlloc,
		TotalFree:  s.TotalFree,
	}
	if p.opts.ShowPeaks {
		doc.PeakUsage = s.PeakUsage
		doc.PeakCap = s.PeakCap
		doc.PeakIntervalUsage = s.PeakIntervalUsage
		doc.PeakIntervalCap = s.PeakIntervalCap
	}
	if p.opts.ShowOps {
		ops := m.OpStats()
		doc.Ops = &opsDoc{
			AllocCalls:  ops.AllocCalls,
			FastPath:    ops.FastPath,
			SlowPath:    ops.SlowPath,
			FreeCalls:   ops.FreeCalls,
			SlabsCarved: ops.SlabsCarved,
			TailBlocks:  ops.TailBlocks,
			BigAllocs:   ops.BigAllocs,
			BigFrees:    ops.BigFrees,
		}
	}
	return p.encode(doc)
}

// classDoc is the stable JSON shape for one size class.
type classDoc struct {
	Index int    `json:"index"`
	Size  int    `json:"size"`
	Path  string `json:"path"`
}

type classTableDoc struct {
	Quantum      int        `json:"quantum"`
	MaxSmallSize int        `json:"max_small_size"`
	MaxSizeClass int        `json:"max_size_class"`
	Classes      []classDoc `json:"classes"`
}

func (p *Printer) classesJSON(t *sizeclass.Table) error {
	doc := classTableDoc{
		Quantum:      t.Quantum(),
		MaxSmallSize: t.MaxSmallSize(),
		MaxSizeClass: t.MaxSizeClass(),
		Classes:      make([]classDoc, 0, t.NumClasses()),
	}
	for i := 0; i < t.NumClasses(); i++ {
		path := "small"
		if i >= t.NumSmallClasses() {
			path = "big"
		}
		doc.Classes = append(doc.Classes, classDoc{Index: i, Size: t.Index2Size(i), Path: path})
	}
	return p.encode(doc)
}

func (p *Printer) encode(v any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
