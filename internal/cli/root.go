// Package cli defines the dvarapala command tree.
package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "dvarapala",
	Short: "Admission gate for a devotional chat community",
	Long: "Greets new members, scores join-time suspicion, runs a 4-question\n" +
		"verification interview over DMs, and decides membership roles. A\n" +
		"rule-based scorer stands in whenever the AI oracle is unavailable.",
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
