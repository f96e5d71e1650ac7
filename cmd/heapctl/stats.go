package main

import (
	"fmt"
	"log/slog"
	"math/rand"
	"os"

	"github.com/spf13/cobra"

	"github.com/heapkit/heapkit/heap/alloc"
	"github.com/heapkit/heapkit/heap/mem"
	"github.com/heapkit/heapkit/heap/printer"
)

var (
	statsHeap    string
	statsPolicy  string
	statsOps     int
	statsMaxSize int
	statsSeed    int64
	statsLimit   int64
	statsArena   int
)

func init() {
	cmd := newStatsCmd()
	cmd.Flags().StringVar(&statsHeap, "heap", "sparse", "Heap strategy (sparse, contig)")
	cmd.Flags().StringVar(&statsPolicy, "policy", "runtime", "Classification policy (runtime, fine, coarse)")
	cmd.Flags().IntVar(&statsOps, "ops", 10000, "Number of synthetic operations")
	cmd.Flags().IntVar(&statsMaxSize, "max-size", 16384, "Largest request size in bytes")
	cmd.Flags().Int64Var(&statsSeed, "seed", 1, "Workload random seed")
	cmd.Flags().Int64Var(&statsLimit, "limit", 0, "Usage budget in bytes (0 = unlimited)")
	cmd.Flags().IntVar(&statsArena, "arena", 16<<20, "Arena size in bytes (contig heap only)")
	rootCmd.AddCommand(cmd)
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Run a synthetic workload and print accounting",
		Long: `The stats command drives random alloc/free traffic against a fresh
allocator and prints the reconciled accounting snapshot together with
the internal operation counters.

Example:
  heapctl stats
  heapctl stats --heap contig --ops 100000
  heapctl stats --limit 1048576 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatsWorkload()
		},
	}
}

func buildHeap() (alloc.Heap, error) {
	switch statsHeap {
	case "sparse":
		return alloc.NewSparse(mem.NewSys()), nil
	case "contig":
		const chunk = 64 << 10
		return alloc.NewContig(mem.NewSys(), chunk, (statsArena+chunk-1)/chunk)
	default:
		return nil, fmt.Errorf("unknown heap strategy %q (sparse, contig)", statsHeap)
	}
}

func runStatsWorkload() error {
	policy, err := policyByName(statsPolicy)
	if err != nil {
		return err
	}
	h, err := buildHeap()
	if err != nil {
		return err
	}

	breaches := 0
	m, err := alloc.New(h, alloc.Config{
		SizeClasses: policy,
		Limit:       statsLimit,
		EnableOOM:   statsLimit > 0,
		OnExceeded:  func() { breaches++ },
	})
	if err != nil {
		return err
	}

	slog.Debug("workload starting",
		"heap", statsHeap, "ops", statsOps, "max_size", statsMaxSize, "seed", statsSeed)

	rng := rand.New(rand.NewSource(statsSeed))
	type block struct {
		p    alloc.Ptr
		size int
	}
	var live []block
	for i := 0; i < statsOps; i++ {
		if len(live) == 0 || rng.Intn(3) != 0 {
			size := 1 + rng.Intn(statsMaxSize)
			p, _, allocErr := m.Malloc(size)
			if allocErr != nil {
				slog.Debug("allocation failed, draining", "op", i, "size", size, "err", allocErr)
				for _, bl := range live {
					if freeErr := m.Free(bl.p, bl.size); freeErr != nil {
						return freeErr
					}
				}
				live = live[:0]
				continue
			}
			live = append(live, block{p, size})
		} else {
			j := rng.Intn(len(live))
			if freeErr := m.Free(live[j].p, live[j].size); freeErr != nil {
				return freeErr
			}
			live = append(live[:j], live[j+1:]...)
		}
	}

	slog.Debug("workload finished", "live_blocks", len(live), "budget_breaches", breaches)
	if breaches > 0 {
		fmt.Fprintf(os.Stderr, "budget breached %d time(s)\n", breaches)
	}

	opts := printer.DefaultOptions()
	opts.ShowOps = true
	if jsonOut {
		opts.Format = printer.FormatJSON
	}
	return printer.New(os.Stdout, opts).Stats(m)
}
