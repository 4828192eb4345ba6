package cli

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/market-views/internal/pipeline"
)

func newWatchCmd(a *app) *cobra.Command {
	var (
		dirs        []string
		initialScan bool
		debounce    time.Duration
		dryRun      bool
	)
	cmd := &cobra.Command{
		Use:   "watch --dir D [--dir D2]",
		Short: "Process new PDF reports as they land in a directory",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if len(dirs) == 0 {
				return errors.New("--dir is required")
			}
			ctx := cmd.Context()
			p, closeLedger, err := a.processor(ctx)
			if err != nil {
				return err
			}
			defer closeLedger()

			paths, errs, err := pipeline.Watch(ctx, pipeline.WatchConfig{
				Roots:       dirs,
				InitialScan: initialScan,
				Debounce:    debounce,
			}, a.logger)
			if err != nil {
				return err
			}
			a.logger.Info("cli.watch.start", "dirs", dirs)

			out := cmd.OutOrStdout()
			for {
				select {
				case path, ok := <-paths:
					if !ok {
						return nil
					}
					// one document in flight at a time
					res, _ := p.ProcessFile(ctx, path, pipeline.Options{DryRun: dryRun})
					printResult(out, res)
				case err, ok := <-errs:
					if !ok {
						errs = nil
						continue
					}
					a.logger.Warn("cli.watch.error", "error", err)
				case <-ctx.Done():
					return nil
				}
			}
		},
	}
	cmd.Flags().StringSliceVar(&dirs, "dir", nil, "directory to watch (repeatable)")
	cmd.Flags().BoolVar(&initialScan, "initial-scan", false, "also process PDFs already present")
	cmd.Flags().DurationVar(&debounce, "debounce", 2*time.Second, "wait this long after the last write before processing")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "extract and validate without appending")
	return cmd
}
