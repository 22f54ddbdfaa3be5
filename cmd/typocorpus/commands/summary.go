package commands

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/typocorpus/internal/batch"
	"github.com/Sumatoshi-tech/typocorpus/internal/mining"
)

// Summary formats.
const (
	summaryTable = "table"
	summaryYAML  = "yaml"
	summaryNone  = "none"
)

// ErrUnknownSummaryFormat is returned for an unsupported --summary value.
var ErrUnknownSummaryFormat = errors.New("summary must be table, yaml or none")

// runSummary is the YAML form of a finished run.
type runSummary struct {
	RunID        string         `yaml:"run_id"`
	Repositories map[string]int `yaml:"repositories"`
	Commits      int            `yaml:"commits"`
	Records      int            `yaml:"records"`
	Pairs        int            `yaml:"pairs"`
	Skips        map[string]int `yaml:"skips,omitempty"`
	Files        map[string]int `yaml:"files,omitempty"`
	OutputBytes  uint64         `yaml:"output_bytes"`
	Duration     string         `yaml:"duration"`
}

func validateSummaryFormat(format string) error {
	switch format {
	case summaryTable, summaryYAML, summaryNone:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSummaryFormat, format)
	}
}

func renderSummary(w io.Writer, format, runID string, stats batch.Stats, written uint64) error {
	switch format {
	case summaryNone:
		return nil
	case summaryYAML:
		return renderSummaryYAML(w, newRunSummary(runID, stats, written))
	default:
		_, err := fmt.Fprintln(w, summaryTableString(runID, stats, written))

		return err
	}
}

func newRunSummary(runID string, stats batch.Stats, written uint64) runSummary {
	summary := runSummary{
		RunID:        runID,
		Repositories: make(map[string]int, len(stats.Repositories)),
		Commits:      stats.Commits,
		Records:      stats.Records,
		Pairs:        stats.Pairs,
		OutputBytes:  written,
		Duration:     stats.Duration.Round(time.Millisecond).String(),
	}

	for status, n := range stats.Repositories {
		summary.Repositories[string(status)] = n
	}

	if len(stats.Skips) > 0 {
		summary.Skips = make(map[string]int, len(stats.Skips))
		for reason, n := range stats.Skips {
			summary.Skips[reason.Label()] = n
		}
	}

	if len(stats.Files) > 0 {
		summary.Files = make(map[string]int, len(stats.Files))
		for status, n := range stats.Files {
			summary.Files[string(status)] = n
		}
	}

	return summary
}

func renderSummaryYAML(w io.Writer, summary runSummary) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)

	err := enc.Encode(summary)
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}

	return enc.Close()
}

func summaryTableString(runID string, stats batch.Stats, written uint64) string {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.SetTitle("typocorpus run " + runID)
	tbl.AppendHeader(table.Row{"Metric", "Value"})

	for _, status := range slices.Sorted(maps.Keys(stats.Repositories)) {
		tbl.AppendRow(table.Row{"repositories " + statusColor(status).Sprint(status), humanize.Comma(int64(stats.Repositories[status]))})
	}

	tbl.AppendSeparator()
	tbl.AppendRow(table.Row{"commits", humanize.Comma(int64(stats.Commits))})

	for _, reason := range slices.Sorted(maps.Keys(stats.Skips)) {
		tbl.AppendRow(table.Row{"  " + reason.Label(), humanize.Comma(int64(stats.Skips[reason]))})
	}

	for _, status := range slices.Sorted(maps.Keys(stats.Files)) {
		if status == mining.FileOK {
			continue
		}

		tbl.AppendRow(table.Row{"files " + string(status), humanize.Comma(int64(stats.Files[status]))})
	}

	tbl.AppendSeparator()
	tbl.AppendRow(table.Row{"records", humanize.Comma(int64(stats.Records))})
	tbl.AppendRow(table.Row{"pairs", humanize.Comma(int64(stats.Pairs))})
	tbl.AppendRow(table.Row{"output", humanize.Bytes(written)})
	tbl.AppendFooter(table.Row{"duration", stats.Duration.Round(time.Millisecond).String()})

	return tbl.Render()
}

func statusColor(status batch.Status) *color.Color {
	switch status {
	case batch.StatusDone:
		return color.New(color.FgGreen)
	case batch.StatusEmpty, batch.StatusSkipped:
		return color.New(color.FgYellow)
	case batch.StatusCanceled:
		return color.New(color.FgMagenta)
	default:
		return color.New(color.FgRed)
	}
}
