package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/listing-atlas/internal/listing"
	"github.com/sells-group/listing-atlas/internal/shape"
	"github.com/sells-group/listing-atlas/internal/tier"
)

// Exporter is an export target. SQLiteStore and PostgresStore implement it.
type Exporter interface {
	Migrate(ctx context.Context) error
	SaveListings(ctx context.Context, source string, ls []listing.Listing, table *tier.Table) (*Export, error)
	SaveBoroughs(ctx context.Context, exportID string, layer *shape.Layer, idField string) error
	TierCounts(ctx context.Context) ([]TierCount, error)
	Close() error
}

var (
	_ Exporter = (*SQLiteStore)(nil)
	_ Exporter = (*PostgresStore)(nil)
)

// TierCount is the number of exported listings per borough and tier.
type TierCount struct {
	Borough string
	Tier    string
	Count   int
}

// classified drops listings without a price and classifies the rest.
func classified(ls []listing.Listing, table *tier.Table) ([]listing.Listing, []tier.Tier, error) {
	priced := listing.WithPrice(ls)
	tiers, err := table.Classify(listing.Prices(priced))
	if err != nil {
		return nil, nil, eris.Wrap(err, "store: classify listings")
	}
	return priced, tiers, nil
}

// boroughGeoms returns each named feature's EWKB keyed by its normalised
// idField attribute. Features with an empty name are skipped.
func boroughGeoms(layer *shape.Layer, idField string) (names []string, wkbs [][]byte, err error) {
	for _, f := range layer.Features {
		name := listing.NormalizeBorough(f.Attr(idField))
		if name == "" {
			continue
		}
		b, err := shape.EncodeWKB(f.Geom)
		if err != nil {
			return nil, nil, eris.Wrapf(err, "store: encode borough %s", name)
		}
		names = append(names, name)
		wkbs = append(wkbs, b)
	}
	return names, wkbs, nil
}
