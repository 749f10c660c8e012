// Package cmd defines the CLI commands for the crawler executable.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jsonharvest",
		Short: "A concurrent JSON crawler with template-based extraction.",
		Long: `jsonharvest fetches JSON documents from a frontier of URLs, extracts
output records and follow-up URLs with ${jsonpath} templates, and emits
the records as a JSONL stream, under a global rate limit with optional
duplicate suppression.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML)")

	cmd.AddCommand(newCrawlCmd())

	return cmd
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
