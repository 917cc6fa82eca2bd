// Package tier maps numeric values to ordered display-size tiers.
package tier

import (
	"math"
)

// Default tier labels.
const (
	LabelSmall  = "small"
	LabelMedium = "medium"
	LabelLarge  = "large"
)

// Tier is a labeled bucket with a fixed visual weight. Size is a marker area
// in points squared and is only read by renderers.
type Tier struct {
	Label string  `yaml:"label" json:"label" mapstructure:"label"`
	Size  float64 `yaml:"size" json:"size" mapstructure:"size"`
}

// Bound assigns Tier to every value <= Max not claimed by an earlier bound.
type Bound struct {
	Max  float64 `yaml:"max" json:"max" mapstructure:"max"`
	Tier Tier    `yaml:"tier" json:"tier" mapstructure:"tier"`
}

// Table is a validated boundary table: bounds sorted ascending by Max and an
// open-ended top tier for values above the last bound.
type Table struct {
	bounds []Bound
	top    Tier
}

// NewTable validates bounds and returns a Table. The bounds slice is copied.
func NewTable(bounds []Bound, top Tier) (*Table, error) {
	if len(bounds) == 0 {
		return nil, configErr("boundary table is empty")
	}
	if top.Label == "" {
		return nil, configErr("top tier has no label")
	}
	for i, b := range bounds {
		if math.IsNaN(b.Max) {
			return nil, configErr("bound %d is NaN", i)
		}
		if b.Tier.Label == "" {
			return nil, configErr("bound %d has no label", i)
		}
		if i > 0 && b.Max <= bounds[i-1].Max {
			return nil, configErr("bound %d (%g) is not greater than bound %d (%g)", i, b.Max, i-1, bounds[i-1].Max)
		}
	}

	cp := make([]Bound, len(bounds))
	copy(cp, bounds)
	return &Table{bounds: cp, top: top}, nil
}

// Default returns the price table used for listing markers:
// <= 700 small, <= 3000 medium, above that large.
func Default() *Table {
	t, _ := NewTable([]Bound{
		{Max: 700, Tier: Tier{Label: LabelSmall, Size: 40}},
		{Max: 3000, Tier: Tier{Label: LabelMedium, Size: 400}},
	}, Tier{Label: LabelLarge, Size: 1400})
	return t
}

// Bounds returns a copy of the explicit bounds.
func (t *Table) Bounds() []Bound {
	cp := make([]Bound, len(t.bounds))
	copy(cp, t.bounds)
	return cp
}

// Top returns the open-ended top tier.
func (t *Table) Top() Tier { return t.top }

// Tiers returns every tier in ascending order, top tier last.
func (t *Table) Tiers() []Tier {
	out := make([]Tier, 0, len(t.bounds)+1)
	for _, b := range t.bounds {
		out = append(out, b.Tier)
	}
	return append(out, t.top)
}

// ClassifyValue returns the tier for a single value.
func (t *Table) ClassifyValue(v float64) (Tier, error) {
	if math.IsNaN(v) {
		return Tier{}, &InvalidValueError{Index: 0, Value: v}
	}
	return t.lookup(v), nil
}

// Classify returns one tier per value in input order. A NaN anywhere fails
// the whole call.
func (t *Table) Classify(values []float64) ([]Tier, error) {
	out := make([]Tier, len(values))
	for i, v := range values {
		if math.IsNaN(v) {
			return nil, &InvalidValueError{Index: i, Value: v}
		}
		out[i] = t.lookup(v)
	}
	return out, nil
}

// Sizes classifies values and returns each tier's marker size.
func (t *Table) Sizes(values []float64) ([]float64, error) {
	tiers, err := t.Classify(values)
	if err != nil {
		return nil, err
	}
	sizes := make([]float64, len(tiers))
	for i, tr := range tiers {
		sizes[i] = tr.Size
	}
	return sizes, nil
}

func (t *Table) lookup(v float64) Tier {
	for _, b := range t.bounds {
		if v <= b.Max {
			return b.Tier
		}
	}
	return t.top
}
