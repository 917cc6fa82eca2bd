package fetcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Source is one remote input and where it lands locally.
type Source struct {
	Name string
	URL  string
	Dest string
}

// Result describes what Fetch did for a Source.
type Result struct {
	Name    string
	Files   []string
	Bytes   int64
	Skipped bool
}

// Fetch downloads src unless Dest already exists and force is false. Zip
// archives are unpacked: a .shp Dest receives every shapefile part, any
// other Dest receives the archive's single file.
func (c *Client) Fetch(ctx context.Context, src Source, force bool) (Result, error) {
	res := Result{Name: src.Name}
	if !force {
		if _, err := os.Stat(src.Dest); err == nil {
			res.Skipped = true
			res.Files = []string{src.Dest}
			return res, nil
		}
	}

	download := src.Dest + ".download"
	defer os.Remove(download) //nolint:errcheck

	n, err := c.DownloadToFile(ctx, src.URL, download)
	if err != nil {
		return res, err
	}
	res.Bytes = n

	zipped, err := isZip(download)
	if err != nil {
		return res, err
	}

	switch {
	case zipped && strings.EqualFold(filepath.Ext(src.Dest), ".shp"):
		res.Files, err = ExtractShapefile(download, src.Dest)
	case zipped:
		err = ExtractSingle(download, src.Dest)
		res.Files = []string{src.Dest}
	default:
		err = os.Rename(download, src.Dest)
		res.Files = []string{src.Dest}
	}
	if err != nil {
		return res, eris.Wrapf(err, "fetcher: unpack %s", src.Name)
	}

	zap.L().Info("fetched source",
		zap.String("source", src.Name),
		zap.String("dest", src.Dest),
		zap.Int64("bytes", n),
		zap.Bool("zip", zipped),
	)
	return res, nil
}
