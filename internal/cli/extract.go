package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/market-views/internal/pipeline"
)

// errRunsFailed makes the process exit non-zero after every document was reported.
var errRunsFailed = errors.New("one or more documents failed")

func newExtractCmd(a *app) *cobra.Command {
	var (
		dir    string
		dryRun bool
	)
	cmd := &cobra.Command{
		Use:   "extract [files...]",
		Short: "Extract investment views from PDF reports and append them to the catalog",
		Long: `Runs each PDF through text extraction, the language model, validation and the
catalog append, one document at a time. With --dry-run nothing is written.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && dir == "" {
				return errors.New("give one or more PDF files or --dir")
			}
			ctx := cmd.Context()
			p, closeLedger, err := a.processor(ctx)
			if err != nil {
				return err
			}
			defer closeLedger()

			opts := pipeline.Options{DryRun: dryRun}
			out := cmd.OutOrStdout()
			failed := false

			for _, path := range args {
				res, err := p.ProcessFile(ctx, path, opts)
				printResult(out, res)
				failed = failed || err != nil
			}
			if dir != "" {
				results, stats, err := p.ProcessDirectory(ctx, dir, opts)
				for _, fr := range results {
					if fr.Result.Document == "" {
						fmt.Fprintf(out, "%s: %s\n", fr.Path, fr.Err)
						continue
					}
					printResult(out, fr.Result)
				}
				fmt.Fprintf(out, "\n%d matched, %d ok, %d no views, %d pending, %d failed\n",
					stats.Matched, stats.Succeeded, stats.NoViews, stats.Pending, stats.Failed)
				if err != nil {
					return err
				}
				failed = failed || stats.Failed > 0 || stats.Pending > 0
			}

			if failed {
				return errRunsFailed
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "process every PDF under this directory")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "extract and validate without appending")
	return cmd
}

// printResult reports one run the way an operator reads it: the outcome first, then
// whatever needs attention.
func printResult(w io.Writer, res pipeline.Result) {
	fmt.Fprintln(w, res.Summary())
	for _, warn := range res.Warnings {
		fmt.Fprintf(w, "  warning: %s\n", warn)
	}
	for _, f := range res.Flagged {
		fmt.Fprintf(w, "  withheld %q: %s\n", f.View.ManagerName, f.Reason)
	}
	for _, r := range res.Rejected {
		fmt.Fprintf(w, "  rejected element %d: %s\n", r.Index, r.Reason)
	}
	if res.Err != nil {
		fmt.Fprintf(w, "  error: %v\n", res.Err)
		if res.Stage == pipeline.StageParse && res.Raw != "" {
			fmt.Fprintf(w, "  model response:\n%s\n", res.Raw)
		}
	}
}
