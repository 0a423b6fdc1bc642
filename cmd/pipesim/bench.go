package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sarchlab/pipesim/benchmarks"
)

type benchOptions struct {
	csv   bool
	json  bool
	quick bool
}

func newBenchCommand(root *rootOptions) *cobra.Command {
	opts := &benchOptions{}

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Run the built-in microbenchmarks",
		Long: `Bench runs each microbenchmark on a fresh core built from the
configuration and prints cycles, CPI, hazards, cache and branch statistics.

Expected characteristics:
- arithmetic_sequential: no hazards, CPI close to 1
- dependency_chain: higher CPI due to RAW hazards
- memory_sequential: loads hit in L1D
- memory_conflict: every load misses in L1D
- branch_heavy: one control hazard per branch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.csv && opts.json {
				return fmt.Errorf("--csv and --json are mutually exclusive")
			}

			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			harness := benchmarks.NewHarness(benchmarks.HarnessConfig{
				Sim:     cfg,
				Output:  out,
				Verbose: root.verbosity > 0,
			})

			if opts.quick {
				harness.AddBenchmarks(benchmarks.GetCoreBenchmarks())
			} else {
				harness.AddBenchmarks(benchmarks.GetMicrobenchmarks())
			}

			results, err := harness.RunAll()
			if err != nil {
				return err
			}

			switch {
			case opts.csv:
				harness.PrintCSV(results)
			case opts.json:
				return harness.PrintJSON(results)
			default:
				fmt.Fprintln(out, "pipesim Timing Benchmark Harness")
				fmt.Fprintln(out, "================================")
				fmt.Fprintln(out, "")
				harness.PrintResults(results)
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.csv, "csv", false, "Output results in CSV format")
	cmd.Flags().BoolVar(&opts.json, "json", false, "Output results in JSON format")
	cmd.Flags().BoolVar(&opts.quick, "quick", false, "Run only the core benchmarks")

	return cmd
}
