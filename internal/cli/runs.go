package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/market-views/constants"
	"github.com/joseph-ayodele/market-views/internal/repository"
)

func newRunsCmd(a *app) *cobra.Command {
	var (
		pending bool
		limit   int
	)
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent extraction runs from the local ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, runs, err := a.openLedger(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			filter := repository.RunFilter{Limit: limit}
			if pending {
				filter.Status = constants.RunStatusPending
			}
			list, err := runs.List(cmd.Context(), filter)
			if err != nil {
				return err
			}
			return renderRuns(cmd.OutOrStdout(), list)
		},
	}
	cmd.Flags().BoolVar(&pending, "pending", false, "only runs whose rows still need resubmitting")
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "maximum number of runs")
	return cmd
}

func newResubmitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "resubmit <run-id>",
		Short: "Append the rows a pending run could not persist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid run id %q: %w", args[0], err)
			}
			p, closeLedger, err := a.processor(cmd.Context())
			if err != nil {
				return err
			}
			defer closeLedger()

			res, err := p.Resubmit(cmd.Context(), id)
			for _, warn := range res.Warnings {
				fmt.Fprintf(cmd.OutOrStdout(), "warning: %s\n", warn)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: appended %d view(s)\n", res.Document, res.Appended)
			return nil
		},
	}
}

var runsHeader = lipgloss.NewStyle().Bold(true).Padding(0, 1)

func renderRuns(w io.Writer, runs []*repository.Run) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "No runs recorded.")
		return err
	}
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, []string{
			r.ID.String(),
			r.StartedAt.Local().Format(time.DateTime),
			r.SourceDocument,
			string(r.Status),
			fmt.Sprint(r.ViewCount),
			fmt.Sprint(r.AppendedCount),
			r.ErrorKind,
		})
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("run", "started", "document", "status", "views", "appended", "error").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return runsHeader
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
	_, err := fmt.Fprintln(w, t.Render())
	return err
}
