package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/listing-atlas/internal/config"
	"github.com/sells-group/listing-atlas/internal/fetcher"
)

var fetchForce bool

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download the listings CSV and shapefiles into the data paths",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runFetch(cmd.Context(), cfg, fetchForce, cmd.OutOrStdout())
	},
}

func init() {
	fetchCmd.Flags().BoolVar(&fetchForce, "force", false, "download even when the file already exists")
	rootCmd.AddCommand(fetchCmd)
}

// fetchSources pairs each configured URL with its data path.
func fetchSources(c *config.Config) []fetcher.Source {
	all := []fetcher.Source{
		{Name: "listings", URL: c.Fetch.ListingsURL, Dest: c.Data.ListingsCSV},
		{Name: "base_map", URL: c.Fetch.BaseMapURL, Dest: c.Data.BaseMap},
		{Name: "boroughs", URL: c.Fetch.BoroughsURL, Dest: c.Data.Boroughs},
	}
	var out []fetcher.Source
	for _, s := range all {
		if s.URL != "" {
			out = append(out, s)
		}
	}
	return out
}

func runFetch(ctx context.Context, c *config.Config, force bool, out io.Writer) error {
	sources := fetchSources(c)
	if len(sources) == 0 {
		return eris.New("fetch: no sources configured (set fetch.listings_url, fetch.base_map_url or fetch.boroughs_url)")
	}

	client := fetcher.New(fetcher.Options{
		UserAgent:   c.Fetch.UserAgent,
		Timeout:     c.Fetch.Timeout,
		MaxAttempts: c.Fetch.MaxAttempts,
		RatePerSec:  c.Fetch.RatePerSec,
	})

	results := make([]fetcher.Result, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		g.Go(func() error {
			res, err := client.Fetch(gctx, src, force)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return eris.Wrap(err, "fetch")
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "SOURCE\tSTATUS\tBYTES\tFILES")
	for _, r := range results {
		status := "downloaded"
		if r.Skipped {
			status = "exists"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%d\n", r.Name, status, r.Bytes, len(r.Files))
	}
	return w.Flush()
}
