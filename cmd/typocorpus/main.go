// Package main provides the entry point for the typocorpus CLI tool.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/typocorpus/cmd/typocorpus/commands"
	"github.com/Sumatoshi-tech/typocorpus/pkg/version"
)

// exitCodeInvalidCorpus is the exit code when validate finds problems.
const exitCodeInvalidCorpus = 2

func main() {
	version.InitBinaryVersion()

	rootCmd := &cobra.Command{
		Use:   "typocorpus",
		Short: "Mine typo-fix edit pairs from git history",
		Long: `typocorpus walks the history of git repositories and extracts
(removed line, added line) pairs from small single-parent commits.

Commands:
  extract   Mine repositories into a JSONL corpus
  validate  Check a corpus file
  ledger    List repositories recorded in a run ledger`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(commands.NewExtractCommand())
	rootCmd.AddCommand(commands.NewValidateCommand())
	rootCmd.AddCommand(commands.NewLedgerCommand())
	rootCmd.AddCommand(versionCmd())

	err := rootCmd.Execute()
	if err != nil {
		if errors.Is(err, commands.ErrInvalidCorpus) {
			os.Exit(exitCodeInvalidCorpus)
		}

		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "typocorpus %s\n", version.String())
		},
	}
}
