package commands

import (
	"errors"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/typocorpus/internal/config"
	"github.com/Sumatoshi-tech/typocorpus/internal/corpus"
)

// defaultMaxProblems caps the problems listed by validate.
const defaultMaxProblems = 20

// ErrInvalidCorpus is returned when validate finds problems. The CLI maps it
// to exit code 2.
var ErrInvalidCorpus = errors.New("corpus is invalid")

type validateOptions struct {
	configPath  string
	maxProblems int
	colorize    bool
	nocolor     bool
}

// NewValidateCommand creates the validate subcommand.
func NewValidateCommand() *cobra.Command {
	opts := &validateOptions{}

	cmd := &cobra.Command{
		Use:   "validate <file|->",
		Short: "Validate a corpus file",
		Long: `Check every line of a plain or LZ4-compressed corpus against the record
schema and the configured pair and message limits.

Examples:
  typocorpus validate corpus.jsonl
  typocorpus validate - < corpus.jsonl.lz4`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, opts, args[0])
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.configPath, flagConfig, "", "config file providing mining limits")
	flags.IntVar(&opts.maxProblems, "max-problems", defaultMaxProblems, "problems to list, 0 for all")
	flags.BoolVar(&opts.colorize, "color", false, "force colored output")
	flags.BoolVar(&opts.nocolor, "no-color", false, "disable colored output")

	return cmd
}

func runValidate(cmd *cobra.Command, opts *validateOptions, path string) error {
	if opts.nocolor {
		color.NoColor = true //nolint:reassign // intentional override of library global
	} else if opts.colorize {
		color.NoColor = false //nolint:reassign // intentional override of library global
	}

	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return err
	}

	validator, err := corpus.NewValidator(corpus.Limits{
		MessageLength: cfg.Mining.MessageLength,
		MinPairs:      cfg.Mining.MinPairs,
		MaxPairs:      cfg.Mining.MaxPairs,
	})
	if err != nil {
		return err
	}

	r, label, closeFn, err := openInput(path, cmd.InOrStdin())
	if err != nil {
		return err
	}
	defer closeFn() //nolint:errcheck // read-only input

	report, err := validator.Validate(r)
	if err != nil {
		return fmt.Errorf("validate %s: %w", label, err)
	}

	printReport(cmd.OutOrStdout(), label, report, opts.maxProblems)

	if !report.Valid() {
		return ErrInvalidCorpus
	}

	return nil
}

func printReport(w io.Writer, label string, report *corpus.Report, maxProblems int) {
	if report.Valid() {
		color.New(color.FgGreen).Fprintf(w, "corpus is valid (%s): %s records\n",
			label, humanize.Comma(int64(report.Records)))

		return
	}

	color.New(color.FgRed).Fprintf(w, "corpus validation failed (%s): %d problems in %s records\n",
		label, len(report.Problems), humanize.Comma(int64(report.Records)))

	shown := report.Problems
	if maxProblems > 0 && len(shown) > maxProblems {
		shown = shown[:maxProblems]
	}

	for _, p := range shown {
		color.New(color.FgYellow).Fprintf(w, "  - line %d: %s\n", p.Line, p.Message)
	}

	if hidden := len(report.Problems) - len(shown); hidden > 0 {
		fmt.Fprintf(w, "  ... and %d more\n", hidden)
	}
}
