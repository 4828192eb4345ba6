package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/market-views/internal/catalog"
	"github.com/joseph-ayodele/market-views/internal/entity"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatXLSX  = "xlsx"
)

func newCatalogCmd(a *app) *cobra.Command {
	var (
		filter catalog.Filter
		format string
		out    string
	)
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Show the persisted investment views, optionally filtered",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			records, err := a.loadCatalog(cmd.Context())
			if err != nil {
				return err
			}
			records = filter.Apply(records)
			return writeCatalog(cmd.OutOrStdout(), records, strings.ToLower(format), out, a)
		},
	}
	cmd.Flags().StringVar(&filter.Region, "region", "", "only views for this region")
	cmd.Flags().StringVar(&filter.AssetClass, "asset-class", "", "only views for this asset class")
	cmd.Flags().StringVar(&format, "format", formatTable, "output format: table, json or xlsx")
	cmd.Flags().StringVar(&out, "out", "", "write to this file instead of stdout (required for xlsx)")

	cmd.AddCommand(
		newDistinctCmd(a, "regions", "List the distinct regions in the catalog", catalog.Regions),
		newDistinctCmd(a, "asset-classes", "List the distinct asset classes in the catalog", catalog.AssetClasses),
	)
	return cmd
}

func newDistinctCmd(a *app, use, short string, values func([]entity.InvestmentView) []string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			records, err := a.loadCatalog(cmd.Context())
			if err != nil {
				return err
			}
			return catalog.RenderList(cmd.OutOrStdout(), values(records))
		},
	}
}

func (a *app) loadCatalog(ctx context.Context) ([]entity.InvestmentView, error) {
	if err := a.cfg.ValidateStore(); err != nil {
		return nil, err
	}
	bs, err := a.blobStore(ctx)
	if err != nil {
		return nil, err
	}
	return catalog.NewService(bs, a.logger).Load(ctx)
}

func writeCatalog(stdout io.Writer, records []entity.InvestmentView, format, out string, a *app) error {
	switch format {
	case formatXLSX:
		if out == "" {
			return fmt.Errorf("--out is required for --format %s", formatXLSX)
		}
		data, err := catalog.ExportXLSX(records, a.logger)
		if err != nil {
			return err
		}
		if err := os.WriteFile(out, data, 0o644); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "wrote %d view(s) to %s\n", len(records), out)
		return nil
	case formatJSON, formatTable:
	default:
		return fmt.Errorf("unknown --format %q: want table, json or xlsx", format)
	}

	w := stdout
	if out != "" {
		f, err := os.Create(out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	if format == formatJSON {
		return catalog.RenderJSON(w, records)
	}
	return catalog.RenderTable(w, records)
}
