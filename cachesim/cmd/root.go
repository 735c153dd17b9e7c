// Package cmd provides the command-line interface of the cache simulator.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

// NewRootCommand creates the cachesim command.
func NewRootCommand() *cobra.Command {
	opts := defaultOptions()

	rootCmd := &cobra.Command{
		Use: "cachesim",
		Short: "cachesim simulates a set-associative LRU cache with " +
			"adjacent-block prefetching.",
		Long: `cachesim drives a stream of memory addresses through ` +
			`set-associative caches of several associativities and reports ` +
			`hits, misses and prefetch hits for each of them. Every flag ` +
			`can also be set with a CACHESIM_<FLAG> environment variable ` +
			`or in an env file.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return loadEnvironment(cmd.Flags(), opts.envFile)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, opts)
		},
	}

	opts.addFlags(rootCmd.Flags())
	rootCmd.PersistentFlags().StringVar(&opts.envFile, "env-file", opts.envFile,
		"Env file to load before reading CACHESIM_* variables")

	rootCmd.AddCommand(newRunsCommand())

	return rootCmd
}

// Execute runs the root command and exits. The exit code is 1 if the
// command fails.
func Execute() {
	err := NewRootCommand().Execute()
	if err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}
