// Package cmd defines and implements the CLI commands for the releasepass
// worker executable.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "releasepass",
		Short: "Release QA pipeline worker",
		Long: `releasepass claims queued QA test runs from the database, fans checks
out across the URLs of a release, persists findings and scores, and
publishes completion events. It also ships the reaper that recovers runs
abandoned by crashed workers.`,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (optional; environment variables are always read)")

	cmd.AddCommand(newWorkerCmd())
	cmd.AddCommand(newReaperCmd())
	cmd.AddCommand(newRescoreCmd())

	return cmd
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
