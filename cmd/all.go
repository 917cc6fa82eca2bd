package main

import (
	"context"
	"path/filepath"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/listing-atlas/internal/config"
	"github.com/sells-group/listing-atlas/internal/report"
)

var allConcurrency int

var allCmd = &cobra.Command{
	Use:   "all",
	Short: "Render every chart and map and write the run manifest",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, err := renderAll(cmd.Context(), cfg, allConcurrency)
		return err
	},
}

func init() {
	allCmd.Flags().IntVar(&allConcurrency, "concurrency", 3, "number of artifacts rendered at once")
	rootCmd.AddCommand(allCmd)
}

// renderAll loads inputs once, renders every artifact concurrently and
// writes manifest.yaml into the output directory. A failed artifact fails
// the run and no manifest is written.
func renderAll(ctx context.Context, c *config.Config, concurrency int) (*report.Manifest, error) {
	var n needs
	for _, ar := range artifacts {
		n = n.or(ar.needs)
	}

	a, err := loadAtlas(c, n)
	if err != nil {
		return nil, err
	}

	m := report.New(report.Inputs{
		Listings: c.Data.ListingsCSV,
		BaseMap:  c.Data.BaseMap,
		Boroughs: c.Data.Boroughs,
	}, a.listings, a.table)

	zap.L().Info("rendering artifacts",
		zap.String("run_id", m.RunID),
		zap.Int("artifacts", len(artifacts)),
		zap.Int("concurrency", concurrency),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(concurrency, 1))

	var written atomic.Int64
	for _, ar := range artifacts {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out, err := runArtifact(gctx, a, ar)
			if err != nil {
				return err
			}
			m.Add(out)
			written.Add(1)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "render all")
	}

	path := filepath.Join(c.Output.Dir, report.FileName)
	if err := m.Write(path); err != nil {
		return nil, err
	}

	zap.L().Info("render complete",
		zap.String("run_id", m.RunID),
		zap.Int64("written", written.Load()),
		zap.String("manifest", path),
	)
	return m, nil
}
