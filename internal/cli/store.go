package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/market-views/internal/views"
)

func newInitStoreCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init-store",
		Short: "Create the catalog file with its header if it does not exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.cfg.ValidateStore(); err != nil {
				return err
			}
			appender, err := a.appender(cmd.Context())
			if err != nil {
				return err
			}
			created, err := appender.Init(cmd.Context(), views.Header)
			if err != nil {
				return err
			}
			if created {
				fmt.Fprintf(cmd.OutOrStdout(), "created %s\n", appender.Store().Describe())
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s already exists\n", appender.Store().Describe())
			}
			return nil
		},
	}
}

func newDoctorCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration, the run ledger and catalog access",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			failed := false
			check := func(name string, err error) {
				if err != nil {
					failed = true
					fmt.Fprintf(cmd.OutOrStdout(), "FAIL  %-8s %v\n", name, err)
					return
				}
				fmt.Fprintf(cmd.OutOrStdout(), "ok    %s\n", name)
			}

			check("config", a.cfg.Validate())

			db, _, err := a.openLedger(ctx)
			if err == nil {
				err = db.HealthCheck(ctx, 5*time.Second)
				db.Close()
			}
			check("ledger", err)

			records, err := a.loadCatalog(ctx)
			check("catalog", err)
			if err == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "      %d view(s) in the catalog\n", len(records))
			}

			if failed {
				return fmt.Errorf("doctor found problems")
			}
			return nil
		},
	}
}
