package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errMiss) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts globalOpts
	root := &cobra.Command{
		Use:           "chunkcache",
		Short:         "Inspect and populate the shared query result cache",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to YAML config")
	root.PersistentFlags().StringVar(&opts.addr, "addr", "", "redis address (overrides config)")
	root.PersistentFlags().StringVar(&opts.label, "label", "", "label attached to cache log lines")
	root.PersistentFlags().BoolVar(&opts.trace, "trace", false, "print cache spans to stderr")

	root.AddCommand(
		newPutCmd(&opts),
		newGetCmd(&opts),
		newKeysCmd(),
		newInspectCmd(&opts),
	)
	return root
}
