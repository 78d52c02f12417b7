// Package main implements the okrd daemon and its one-shot tooling.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

// Version information (set via ldflags during build)
var (
	version = "dev"
)

var configPath string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "okrd",
		Short: "Phase-gated OKR coaching decision engine",
		Long: `okrd drives OKR coaching conversations through discovery, refinement,
key result discovery, and validation, gating each phase transition on
measured content quality.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config.yaml")
	root.AddCommand(newServeCmd())
	root.AddCommand(newScoreCmd())
	return root
}
