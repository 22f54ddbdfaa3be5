package commands

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/typocorpus/internal/ledger"
)

// NewLedgerCommand creates the ledger subcommand.
func NewLedgerCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ledger <state.db>",
		Short: "List repositories recorded in a run ledger",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			led, err := ledger.Open(args[0])
			if err != nil {
				return err
			}
			defer led.Close()

			entries, err := led.Entries(cmd.Context())
			if err != nil {
				return err
			}

			return printLedger(cmd.OutOrStdout(), entries)
		},
	}
}

func printLedger(w io.Writer, entries []ledger.Entry) error {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"Repository", "Status", "Commits", "Records", "Finished", "Error"})

	for _, e := range entries {
		tbl.AppendRow(table.Row{
			e.URL,
			statusColor(e.Status).Sprint(e.Status),
			humanize.Comma(int64(e.Commits)),
			humanize.Comma(int64(e.Records)),
			humanize.Time(e.FinishedAt),
			e.Error,
		})
	}

	tbl.AppendFooter(table.Row{fmt.Sprintf("Total: %d repositories", len(entries))})

	_, err := fmt.Fprintln(w, tbl.Render())

	return err
}
