// Package cli implements the Rover command-line interface using Cobra.
// Each subcommand maps to one engine capability (serve, start, party, etc.).
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "rover",
	Short: "Rover — timed expeditions with probabilistic loot",
	Long: `Rover runs timed expedition tasks for many explorers: commit to a
category for a duration, and at expiry the engine resolves exactly one
probabilistic outcome, persists it exactly once, and notifies observers
exactly once. Parties share a single outcome across all members.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called from main.go.
func Execute(version string) {
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
