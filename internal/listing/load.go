package listing

import (
	"encoding/csv"
	"io"
	"os"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Load decodes listings from CSV with a header row. Column order is free;
// unknown columns are ignored.
func Load(r io.Reader) ([]Listing, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true

	dec, err := csvutil.NewDecoder(reader)
	if err != nil {
		if err == io.EOF {
			return nil, eris.New("listing: csv is empty")
		}
		return nil, eris.Wrap(err, "listing: read header")
	}

	var out []Listing
	for {
		var l Listing
		if err := dec.Decode(&l); err != nil {
			if err == io.EOF {
				break
			}
			return nil, eris.Wrapf(err, "listing: decode row %d", len(out)+2)
		}
		l.Borough = NormalizeBorough(l.Borough)
		out = append(out, l)
	}

	return out, nil
}

// LoadFile opens path and decodes it with Load.
func LoadFile(path string) ([]Listing, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "listing: open %s", path)
	}
	defer func() { _ = f.Close() }()

	out, err := Load(f)
	if err != nil {
		return nil, err
	}

	zap.L().Info("listing: loaded listings",
		zap.String("path", path),
		zap.Int("count", len(out)),
	)
	return out, nil
}
