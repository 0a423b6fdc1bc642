package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sarchlab/pipesim/config"
	"github.com/sarchlab/pipesim/driver"
	"github.com/sarchlab/pipesim/loader"
	"github.com/sarchlab/pipesim/timing/core"
)

type simulateOptions struct {
	maxCycles     uint64
	freqMHz       float64
	branchOutcome string
	cpuProfile    string
	memProfile    string
}

func newSimulateCommand(root *rootOptions) *cobra.Command {
	opts := &simulateOptions{}

	cmd := &cobra.Command{
		Use:   "simulate <program>",
		Short: "Run a program to completion and print a report",
		Long: `Simulate loads a program file (one instruction per line, '#', ';'
and '//' start comments), clocks the core until the program drains or the
cycle limit is reached, and prints a timing report.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("max-cycles") {
				cfg.MaxCycles = opts.maxCycles
			}
			if flags.Changed("freq-mhz") {
				cfg.ClockMHz = opts.freqMHz
			}
			if flags.Changed("branch-outcome") {
				cfg.BranchOutcome = config.BranchOutcome(opts.branchOutcome)
			}

			if opts.cpuProfile != "" {
				stop, err := startCPUProfile(opts.cpuProfile)
				if err != nil {
					return err
				}
				defer stop()
			}

			if err := runSimulate(cmd, root, cfg, args[0]); err != nil {
				return err
			}

			if opts.memProfile != "" {
				return writeMemProfile(opts.memProfile)
			}
			return nil
		},
	}

	cmd.Flags().Uint64Var(&opts.maxCycles, "max-cycles", 0,
		"Stop after this many cycles (0: no limit; default from config)")
	cmd.Flags().Float64Var(&opts.freqMHz, "freq-mhz", 0,
		"Core clock in MHz (default from config)")
	cmd.Flags().StringVar(&opts.branchOutcome, "branch-outcome", "",
		"Branch resolution: none, taken, not-taken or alternate")
	cmd.Flags().StringVar(&opts.cpuProfile, "cpuprofile", "", "Write a CPU profile to file")
	cmd.Flags().StringVar(&opts.memProfile, "memprofile", "", "Write a memory profile to file")

	return cmd
}

func runSimulate(
	cmd *cobra.Command,
	root *rootOptions,
	cfg *config.Config,
	programPath string,
) error {
	prog, err := loader.Load(programPath)
	if err != nil {
		return fmt.Errorf("error loading program: %w", err)
	}

	logger := root.logger(cmd.ErrOrStderr())

	c, err := cfg.NewCore(core.WithLogger(logger.WithName("core")))
	if err != nil {
		return err
	}
	c.LoadProgram(prog.Instructions)

	runner := driver.NewRunner(c,
		driver.WithFreq(cfg.Freq()),
		driver.WithMaxCycles(cfg.MaxCycles),
		driver.WithRunnerLogger(logger.WithName("runner")),
	)

	report, err := runner.Run()
	if err != nil {
		return err
	}

	printReport(cmd.OutOrStdout(), prog.Source, cfg, report)

	return nil
}

func printReport(w io.Writer, programPath string, cfg *config.Config, report driver.Report) {
	snap := report.Snapshot
	stats := snap.Pipeline
	latest := snap.Latest()

	totalCycles := stats.Cycles
	if totalCycles == 0 {
		totalCycles = 1
	}

	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "Program: %s\n", programPath)
	fmt.Fprintf(w, "Stop reason: %s\n", report.Reason)
	fmt.Fprintf(w, "Total Instructions: %d\n", stats.Instructions)
	fmt.Fprintf(w, "Total Cycles: %d\n", stats.Cycles)
	fmt.Fprintf(w, "Simulated time: %.3f ns at %.0f MHz\n",
		float64(report.SimTime)*1e9, cfg.ClockMHz)
	fmt.Fprintf(w, "CPI: %.2f\n", stats.CPI())
	fmt.Fprintf(w, "IPC: %.3f\n", latest.IPC)
	fmt.Fprintf(w, "Branch accuracy: %.1f%% (%d/%d)\n",
		latest.BranchAccuracy*100, snap.Branch.Correct, snap.Branch.Total)
	fmt.Fprintf(w, "Average power: %.3f\n", averagePower(snap.Metrics))
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "Pipeline Events:\n")
	fmt.Fprintf(w, "  Stalls:          %4d cycles (%5.1f%%)\n",
		stats.Stalls, 100.0*float64(stats.Stalls)/float64(totalCycles))
	fmt.Fprintf(w, "  RAW hazards:     %4d\n", stats.DataHazards)
	fmt.Fprintf(w, "  Control hazards: %4d\n", stats.ControlHazards)
	fmt.Fprintf(w, "  Memory accesses: %4d\n", stats.MemoryAccesses)
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "Caches:\n")
	printCacheStats(w, "L1I", snap.CacheStats.L1I)
	printCacheStats(w, "L1D", snap.CacheStats.L1D)
	printCacheStats(w, "L2", snap.CacheStats.L2)
}

func printCacheStats(w io.Writer, name string, s core.CacheStats) {
	fmt.Fprintf(w, "  %-4s hits %d, misses %d, hit rate %5.1f%%, evictions %d, write-backs %d\n",
		name+":", s.Hits, s.Misses, s.HitRate*100, s.Evictions, s.Writebacks)
}

func averagePower(samples []core.MetricsSample) float64 {
	if len(samples) == 0 {
		return 0
	}

	total := 0.0
	for _, s := range samples {
		total += s.PowerConsumption
	}
	return total / float64(len(samples))
}
