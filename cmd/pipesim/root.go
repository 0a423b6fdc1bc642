package main

import (
	"fmt"
	"io"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"github.com/spf13/cobra"

	"github.com/sarchlab/pipesim/config"
	"github.com/sarchlab/pipesim/driver"
	"github.com/sarchlab/pipesim/shell"
	"github.com/sarchlab/pipesim/timing/core"
)

type rootOptions struct {
	configPath string
	verbosity  int
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "pipesim",
		Short: "Cycle-level pipeline and cache simulator",
		Long: `pipesim simulates a 5-stage in-order pipeline (Fetch, Decode,
Execute, Memory, WriteBack) with RAW and control hazard detection, a
direct-mapped L1I/L1D/L2 cache hierarchy and a 2-bit branch predictor.

Without a subcommand it starts an interactive shell. Type "help" in the
shell for the list of commands.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runShell(cmd, opts)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "",
		"Path to a YAML configuration file")
	cmd.PersistentFlags().IntVarP(&opts.verbosity, "verbose", "v", 0,
		"Log verbosity (1: lifecycle, 2: hazards and cache misses)")

	cmd.AddCommand(newSimulateCommand(opts))
	cmd.AddCommand(newConfigCommand(opts))
	cmd.AddCommand(newBenchCommand(opts))

	return cmd
}

func (o *rootOptions) loadConfig() (*config.Config, error) {
	if o.configPath == "" {
		return config.Default(), nil
	}
	return config.Load(o.configPath)
}

func (o *rootOptions) logger(w io.Writer) logr.Logger {
	if o.verbosity <= 0 {
		return logr.Discard()
	}

	return funcr.New(func(prefix, args string) {
		if prefix != "" {
			fmt.Fprintf(w, "%s: %s\n", prefix, args)
			return
		}
		fmt.Fprintln(w, args)
	}, funcr.Options{Verbosity: o.verbosity})
}

func runShell(cmd *cobra.Command, opts *rootOptions) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}

	logger := opts.logger(cmd.ErrOrStderr())

	c, err := cfg.NewCore(core.WithLogger(logger.WithName("core")))
	if err != nil {
		return err
	}

	worker := driver.NewWorker(c, driver.WithWorkerLogger(logger.WithName("worker")))
	defer worker.Close()

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, `pipesim - type "help" for available commands`)

	sh := shell.New(worker, out, shell.WithLogger(logger.WithName("shell")))

	return sh.Run(cmd.Context(), cmd.InOrStdin())
}
