package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/listing-atlas/internal/config"
	"github.com/sells-group/listing-atlas/internal/listing"
	"github.com/sells-group/listing-atlas/internal/palette"
	"github.com/sells-group/listing-atlas/internal/plot"
	"github.com/sells-group/listing-atlas/internal/report"
	"github.com/sells-group/listing-atlas/internal/shape"
	"github.com/sells-group/listing-atlas/internal/tier"
	"github.com/sells-group/listing-atlas/internal/webmap"
)

// needs says which shapefiles an artifact reads.
type needs struct {
	baseMap  bool
	boroughs bool
}

func (n needs) or(o needs) needs {
	return needs{baseMap: n.baseMap || o.baseMap, boroughs: n.boroughs || o.boroughs}
}

// atlas is everything the renderers read. It is built once per command and
// only read afterwards, so renderers may share it across goroutines.
type atlas struct {
	cfg      *config.Config
	table    *tier.Table
	listings []listing.Listing
	base     *shape.Layer
	boroughs *shape.Layer
}

// loadAtlas reads the listings and whichever shapefiles n asks for.
func loadAtlas(c *config.Config, n needs) (*atlas, error) {
	table, err := c.TierTable()
	if err != nil {
		return nil, err
	}

	ls, err := listing.LoadFile(c.Data.ListingsCSV)
	if err != nil {
		return nil, err
	}
	if missing := listing.MissingPrices(ls); missing > 0 {
		zap.L().Warn("listings without a price are excluded from tiering",
			zap.Int("missing", missing),
			zap.Int("total", len(ls)),
		)
	}

	a := &atlas{cfg: c, table: table, listings: ls}
	if n.baseMap {
		if a.base, err = shape.Read(c.Data.BaseMap); err != nil {
			return nil, err
		}
	}
	if n.boroughs {
		if a.boroughs, err = shape.Read(c.Data.Boroughs); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func (a *atlas) view(tiles string) webmap.View {
	return webmap.View{
		Lat:   a.cfg.Maps.CenterLat,
		Lon:   a.cfg.Maps.CenterLon,
		Zoom:  a.cfg.Maps.Zoom,
		Tiles: tiles,
	}
}

// artifact is one output file and how to render it.
type artifact struct {
	name   string
	short  string
	kind   string
	needs  needs
	file   func(c *config.Config) string
	render func(ctx context.Context, a *atlas, path string) error
}

func fixedFile(name string) func(*config.Config) string {
	return func(*config.Config) string { return name }
}

// path is where the artifact is written for c.
func (ar artifact) path(c *config.Config) string {
	return filepath.Join(c.Output.Dir, ar.file(c))
}

// artifacts lists every renderer in the order "all" reports them.
var artifacts = []artifact{
	{
		name:   "locations",
		short:  "Plot every listing over the base map",
		kind:   report.KindImage,
		needs:  needs{baseMap: true},
		file:   fixedFile("locations.png"),
		render: renderLocations,
	},
	{
		name:   "boroughs",
		short:  "Bar chart of listings per borough",
		kind:   report.KindImage,
		file:   fixedFile("number_of_apts.png"),
		render: renderBoroughs,
	},
	{
		name:  "top",
		short: "Map the most expensive listings per borough, sized by price tier",
		kind:  report.KindImage,
		needs: needs{baseMap: true},
		file: func(c *config.Config) string {
			return fmt.Sprintf("top_%d.png", c.Top.PerBorough)
		},
		render: renderTop,
	},
	{
		name:   "heatmap",
		short:  "Interactive heatmap of listing density",
		kind:   report.KindHTML,
		file:   fixedFile("heatmap.html"),
		render: renderHeatmap,
	},
	{
		name:   "cluster",
		short:  "Interactive marker-cluster map of listings",
		kind:   report.KindHTML,
		file:   fixedFile("marker_cluster.html"),
		render: renderCluster,
	},
	{
		name:   "choropleth",
		short:  "Interactive choropleth of listings per borough",
		kind:   report.KindHTML,
		needs:  needs{boroughs: true},
		file:   fixedFile("choropleth.html"),
		render: renderChoropleth,
	},
}

func renderLocations(_ context.Context, a *atlas, path string) error {
	p, err := plot.Locations(a.base, a.listings)
	if err != nil {
		return err
	}
	return plot.Save(p, plot.MapSize(a.base, a.cfg.Output.MapInches), path)
}

func renderBoroughs(_ context.Context, a *atlas, path string) error {
	p, err := plot.Boroughs(listing.CountByBorough(a.listings))
	if err != nil {
		return err
	}
	return plot.Save(p, plot.Size{Width: a.cfg.Output.BarWidthIn, Height: a.cfg.Output.BarHeightIn}, path)
}

func renderTop(_ context.Context, a *atlas, path string) error {
	priced := listing.WithPrice(a.listings)
	tops := listing.TopPerBorough(priced, listing.Boroughs, a.cfg.Top.PerBorough)
	p, err := plot.Top(a.base, tops, a.table)
	if err != nil {
		return err
	}
	return plot.Save(p, plot.MapSize(a.base, a.cfg.Output.MapInches), path)
}

func renderHeatmap(_ context.Context, a *atlas, path string) error {
	return webmap.WriteFile(path, func(w io.Writer) error {
		return webmap.Heatmap(w, a.view(a.cfg.Maps.HeatTiles), a.listings, a.cfg.Maps.HeatRadius)
	})
}

func renderCluster(_ context.Context, a *atlas, path string) error {
	return webmap.WriteFile(path, func(w io.Writer) error {
		return webmap.MarkerCluster(w, a.view(a.cfg.Maps.ClusterTiles), a.listings)
	})
}

func renderChoropleth(_ context.Context, a *atlas, path string) error {
	lo, err := palette.Parse(a.cfg.Maps.RampLow)
	if err != nil {
		return eris.Wrap(err, "maps.ramp_low")
	}
	hi, err := palette.Parse(a.cfg.Maps.RampHigh)
	if err != nil {
		return eris.Wrap(err, "maps.ramp_high")
	}
	return webmap.WriteFile(path, func(w io.Writer) error {
		return webmap.Choropleth(w, a.view(a.cfg.Maps.ChoroplethTiles), a.boroughs,
			a.cfg.Data.BoroughField, listing.CountMap(a.listings),
			webmap.Ramp{Low: lo, High: hi}, plot.BoroughsTitle)
	})
}

// runArtifact renders ar and logs where it went.
func runArtifact(ctx context.Context, a *atlas, ar artifact) (report.Artifact, error) {
	path := ar.path(a.cfg)
	if err := ar.render(ctx, a, path); err != nil {
		return report.Artifact{}, eris.Wrapf(err, "render %s", ar.name)
	}
	zap.L().Info("wrote artifact", zap.String("artifact", ar.name), zap.String("path", path))
	return report.Artifact{Name: ar.name, Path: path, Kind: ar.kind}, nil
}
