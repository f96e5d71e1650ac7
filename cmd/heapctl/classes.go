package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/heapkit/heapkit/heap/printer"
	"github.com/heapkit/heapkit/heap/sizeclass"
)

var classesPolicy string

func init() {
	cmd := newClassesCmd()
	cmd.Flags().StringVar(&classesPolicy, "policy", "runtime",
		"Classification policy (runtime, fine, coarse)")
	rootCmd.AddCommand(cmd)
}

func newClassesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classes",
		Short: "Dump the size-class table",
		Long: `The classes command prints every size class of a classification
policy: index, class size, spacing to the previous class, and whether
the small or big allocation path serves it.

Example:
  heapctl classes
  heapctl classes --policy fine
  heapctl classes --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClasses()
		},
	}
}

func policyByName(name string) (sizeclass.Config, error) {
	switch name {
	case "runtime":
		return sizeclass.ConfigRuntime, nil
	case "fine":
		return sizeclass.ConfigFineGrained, nil
	case "coarse":
		return sizeclass.ConfigCoarse, nil
	default:
		return sizeclass.Config{}, fmt.Errorf("unknown policy %q (runtime, fine, coarse)", name)
	}
}

func runClasses() error {
	cfg, err := policyByName(classesPolicy)
	if err != nil {
		return err
	}
	tab, err := sizeclass.New(cfg)
	if err != nil {
		return err
	}

	opts := printer.DefaultOptions()
	if jsonOut {
		opts.Format = printer.FormatJSON
	}
	return printer.New(os.Stdout, opts).Classes(tab)
}
