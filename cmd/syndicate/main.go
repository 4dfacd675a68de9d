// Package main provides the CLI entry point for the syndicate publishing
// orchestrator.
//
// Start the server:
//
//	syndicate serve --config syndicate.yaml
//
// Inspect the video provider catalog and estimate render costs:
//
//	syndicate providers
//	syndicate estimate --provider runway --duration 30
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Build information, populated by ldflags during build.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "syndicate",
		Short: "Multi-tenant publishing orchestrator",
		Long: `Syndicate publishes workspace content to social and video platforms
behind one uniform contract: credential resolution, dry-run validation,
publishing, AI text generation, and video render orchestration.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newProvidersCommand())
	rootCmd.AddCommand(newEstimateCommand())
	rootCmd.AddCommand(newVersionCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("syndicate %s (commit %s, built %s)\n", version, commit, date)
		},
	}
}
