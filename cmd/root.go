package cmd

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var configPathFlag string

var rootCmd = &cobra.Command{
	Use:   "revq",
	Short: "revq - Gated, adaptive, confidence-aware code review",
	Long: `revq decides, for each change-set, whether and how to spend an
expensive reasoning call on it, and how much to trust the result.

Pipeline:
  gates       Reject oversized or lint-failing changes cheaply
  classify    Derive change type, risk, complexity, and model tier
  review      Run the reasoning call with failure-aware adaptive retry
  confidence  Convert the result into auto-accept / comment / escalate

Commands:
  review      Review a pull request or a local diff
  config      Show the effective configuration
  version     Show version info

Quick Start:
  1. export ANTHROPIC_API_KEY=...
  2. revq review owner/repo 123
  3. revq review --diff changes.diff --title "my change"`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Missing .env is fine; environment variables still apply.
		_ = godotenv.Load()
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPathFlag, "config", "", "Path to config file (default .ai-review.yaml)")
}
