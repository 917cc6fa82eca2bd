// Package report records what a render run read and wrote.
package report

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/listing-atlas/internal/listing"
	"github.com/sells-group/listing-atlas/internal/tier"
)

// FileName is the manifest's name inside the output directory.
const FileName = "manifest.yaml"

// Artifact kinds.
const (
	KindImage = "image"
	KindHTML  = "html"
)

// Artifact is one file written by a run.
type Artifact struct {
	Name string `yaml:"name" json:"name"`
	Path string `yaml:"path" json:"path"`
	Kind string `yaml:"kind" json:"kind"`
}

// Inputs are the files a run read.
type Inputs struct {
	Listings string `yaml:"listings" json:"listings"`
	BaseMap  string `yaml:"base_map,omitempty" json:"base_map,omitempty"`
	Boroughs string `yaml:"boroughs,omitempty" json:"boroughs,omitempty"`
}

// Manifest summarises a run. Add is safe for concurrent use.
type Manifest struct {
	RunID         string                 `yaml:"run_id" json:"run_id"`
	CreatedAt     time.Time              `yaml:"created_at" json:"created_at"`
	Inputs        Inputs                 `yaml:"inputs" json:"inputs"`
	Listings      int                    `yaml:"listings" json:"listings"`
	MissingPrices int                    `yaml:"missing_prices" json:"missing_prices"`
	Boroughs      []listing.BoroughCount `yaml:"boroughs" json:"boroughs"`
	Tiers         []tier.Bound           `yaml:"tiers" json:"tiers"`
	TopTier       tier.Tier              `yaml:"top_tier" json:"top_tier"`
	Artifacts     []Artifact             `yaml:"artifacts" json:"artifacts"`

	mu sync.Mutex
}

// New starts a manifest for ls read from in.
func New(in Inputs, ls []listing.Listing, table *tier.Table) *Manifest {
	return &Manifest{
		RunID:         uuid.New().String(),
		CreatedAt:     time.Now().UTC(),
		Inputs:        in,
		Listings:      len(ls),
		MissingPrices: listing.MissingPrices(ls),
		Boroughs:      listing.CountByBorough(ls),
		Tiers:         table.Bounds(),
		TopTier:       table.Top(),
	}
}

// Add records an artifact.
func (m *Manifest) Add(a Artifact) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Artifacts = append(m.Artifacts, a)
}

// Write saves the manifest as YAML. Artifacts are sorted by name so
// concurrent renders produce stable output.
func (m *Manifest) Write(path string) error {
	m.mu.Lock()
	slices.SortFunc(m.Artifacts, func(a, b Artifact) int { return strings.Compare(a.Name, b.Name) })
	data, err := yaml.Marshal(m)
	m.mu.Unlock()
	if err != nil {
		return eris.Wrap(err, "report: marshal manifest")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "report: create dir for %s", path)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "report: write %s", path)
	}
	return nil
}

// Read loads a manifest written by Write.
func Read(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "report: read %s", path)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, eris.Wrapf(err, "report: parse %s", path)
	}
	return &m, nil
}
