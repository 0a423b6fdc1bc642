package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newConfigCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "config [file]",
		Short: "Print the effective configuration, or write it to a file",
		Long: `Config prints the configuration as YAML. It starts from the defaults,
or from the file given with --config. With a file argument the
configuration is written there instead, ready to be edited and passed back
with --config.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}

			if len(args) == 0 {
				return cfg.Encode(cmd.OutOrStdout())
			}

			if err := cfg.Save(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", args[0])
			return nil
		},
	}
}
