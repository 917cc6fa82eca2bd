package fetcher

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// shapefileParts are the sidecar extensions kept when unpacking a shapefile.
var shapefileParts = map[string]bool{
	".shp": true, ".shx": true, ".dbf": true, ".prj": true, ".cpg": true,
}

// isZip reports whether path starts with a zip local file header.
func isZip(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, eris.Wrapf(err, "fetcher: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	magic := make([]byte, 4)
	if _, err := io.ReadFull(f, magic); err != nil {
		return false, nil
	}
	return bytes.Equal(magic, []byte("PK\x03\x04")), nil
}

// ExtractShapefile unpacks the single shapefile in zipPath so that its parts
// sit next to dest under dest's base name ("boroughs.shp", "boroughs.dbf",
// ...). Directory structure inside the archive is ignored.
func ExtractShapefile(zipPath, dest string) ([]string, error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, eris.Wrap(err, "zip: open archive")
	}
	defer r.Close() //nolint:errcheck

	var parts []*zip.File
	shps := 0
	for _, f := range r.File {
		ext := strings.ToLower(filepath.Ext(f.Name))
		if f.FileInfo().IsDir() || !shapefileParts[ext] {
			continue
		}
		if ext == ".shp" {
			shps++
		}
		parts = append(parts, f)
	}
	if shps != 1 {
		return nil, eris.Errorf("zip: expected exactly 1 .shp, got %d", shps)
	}

	stem := strings.TrimSuffix(dest, filepath.Ext(dest))
	var out []string
	for _, f := range parts {
		path := stem + strings.ToLower(filepath.Ext(f.Name))
		if err := writeEntry(f, path); err != nil {
			return out, err
		}
		out = append(out, path)
	}
	return out, nil
}

// ExtractSingle writes the only file in zipPath to dest.
func ExtractSingle(zipPath, dest string) error {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return eris.Wrap(err, "zip: open archive")
	}
	defer r.Close() //nolint:errcheck

	var files []*zip.File
	for _, f := range r.File {
		if !f.FileInfo().IsDir() {
			files = append(files, f)
		}
	}
	if len(files) != 1 {
		return eris.Errorf("zip: expected exactly 1 file, got %d", len(files))
	}
	return writeEntry(files[0], dest)
}

func writeEntry(f *zip.File, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrap(err, "zip: create parent directory")
	}

	rc, err := f.Open()
	if err != nil {
		return eris.Wrapf(err, "zip: open entry %s", f.Name)
	}
	defer rc.Close() //nolint:errcheck

	out, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "zip: create file")
	}
	if _, err := io.Copy(out, rc); err != nil {
		_ = out.Close()
		return eris.Wrapf(err, "zip: write %s", path)
	}
	return eris.Wrapf(out.Close(), "zip: close %s", path)
}
