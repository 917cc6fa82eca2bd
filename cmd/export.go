package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/listing-atlas/internal/config"
	"github.com/sells-group/listing-atlas/internal/store"
)

var (
	exportTarget   string
	exportPath     string
	exportBoroughs bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write priced listings and their tiers to SQLite or PostGIS",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		c := *cfg
		if exportTarget != "" {
			c.Export.Target = exportTarget
		}
		if exportPath != "" {
			c.Export.SQLitePath = exportPath
		}

		st, err := openExporter(cmd.Context(), c.Export)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		return runExport(cmd.Context(), &c, st, exportBoroughs, cmd.OutOrStdout())
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportTarget, "target", "", "sqlite or postgres (default from config)")
	exportCmd.Flags().StringVar(&exportPath, "db", "", "SQLite path (default from config)")
	exportCmd.Flags().BoolVar(&exportBoroughs, "boroughs", true, "also store borough geometries")
	rootCmd.AddCommand(exportCmd)
}

// openExporter connects to the configured export target.
func openExporter(ctx context.Context, ec config.ExportConfig) (store.Exporter, error) {
	switch ec.Target {
	case "sqlite":
		if err := os.MkdirAll(filepath.Dir(ec.SQLitePath), 0o755); err != nil {
			return nil, eris.Wrap(err, "export: create sqlite dir")
		}
		st, err := store.NewSQLite(ec.SQLitePath)
		if err != nil {
			return nil, err
		}
		return st, nil
	case "postgres":
		if ec.PostgresURL == "" {
			return nil, eris.New("export: no postgres_url configured (set export.postgres_url)")
		}
		st, err := store.NewPostgres(ctx, ec.PostgresURL, store.PoolConfig{MaxConns: ec.MaxConns})
		if err != nil {
			return nil, err
		}
		return st, nil
	default:
		return nil, eris.Errorf("export: unknown target %q", ec.Target)
	}
}

func runExport(ctx context.Context, c *config.Config, st store.Exporter, withBoroughs bool, out io.Writer) error {
	a, err := loadAtlas(c, needs{boroughs: withBoroughs})
	if err != nil {
		return err
	}

	if err := st.Migrate(ctx); err != nil {
		return err
	}

	exp, err := st.SaveListings(ctx, c.Data.ListingsCSV, a.listings, a.table)
	if err != nil {
		return err
	}
	if withBoroughs {
		if err := st.SaveBoroughs(ctx, exp.ID, a.boroughs, c.Data.BoroughField); err != nil {
			return err
		}
	}

	zap.L().Info("export complete",
		zap.String("export_id", exp.ID),
		zap.String("target", c.Export.Target),
		zap.Int("listings", exp.Listings),
	)

	counts, err := st.TierCounts(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "BOROUGH\tTIER\tLISTINGS")
	for _, tc := range counts {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\n", tc.Borough, tc.Tier, tc.Count)
	}
	return w.Flush()
}
