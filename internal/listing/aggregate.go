package listing

import (
	"cmp"
	"slices"
)

// BoroughCount is the number of listings in one borough.
type BoroughCount struct {
	Borough string `yaml:"borough" json:"borough"`
	Count   int    `yaml:"count" json:"count"`
}

// CountByBorough counts listings per borough, sorted ascending by count.
// Ties are broken by name so output is deterministic.
func CountByBorough(ls []Listing) []BoroughCount {
	counts := make(map[string]int)
	for _, l := range ls {
		if l.Borough == "" {
			continue
		}
		counts[l.Borough]++
	}

	out := make([]BoroughCount, 0, len(counts))
	for b, n := range counts {
		out = append(out, BoroughCount{Borough: b, Count: n})
	}
	slices.SortFunc(out, func(a, b BoroughCount) int {
		if c := cmp.Compare(a.Count, b.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Borough, b.Borough)
	})
	return out
}

// CountMap returns CountByBorough keyed by borough name.
func CountMap(ls []Listing) map[string]int {
	m := make(map[string]int)
	for _, bc := range CountByBorough(ls) {
		m[bc.Borough] = bc.Count
	}
	return m
}

// MissingPrices returns how many listings have no price.
func MissingPrices(ls []Listing) int {
	var n int
	for _, l := range ls {
		if !l.HasPrice() {
			n++
		}
	}
	return n
}

// WithPrice returns the listings that carry a price, preserving order.
func WithPrice(ls []Listing) []Listing {
	out := make([]Listing, 0, len(ls))
	for _, l := range ls {
		if l.HasPrice() {
			out = append(out, l)
		}
	}
	return out
}

// Prices returns each listing's price in order, NaN where missing.
func Prices(ls []Listing) []float64 {
	out := make([]float64, len(ls))
	for i, l := range ls {
		out[i] = l.PriceOrNaN()
	}
	return out
}

// PriceRange returns the minimum and maximum price among priced listings.
// ok is false when no listing has a price.
func PriceRange(ls []Listing) (lo, hi float64, ok bool) {
	for _, l := range ls {
		if !l.HasPrice() {
			continue
		}
		p := *l.Price
		if !ok {
			lo, hi, ok = p, p, true
			continue
		}
		lo = min(lo, p)
		hi = max(hi, p)
	}
	return lo, hi, ok
}

// TopByPrice returns the n most expensive priced listings in borough,
// descending by price. Equal prices keep their input order.
func TopByPrice(ls []Listing, borough string, n int) []Listing {
	if n <= 0 {
		return nil
	}
	borough = NormalizeBorough(borough)

	var in []Listing
	for _, l := range ls {
		if l.Borough == borough && l.HasPrice() {
			in = append(in, l)
		}
	}
	slices.SortStableFunc(in, func(a, b Listing) int {
		return cmp.Compare(*b.Price, *a.Price)
	})
	if len(in) > n {
		in = in[:n]
	}
	return in
}

// BoroughTop is one borough's top-N slice.
type BoroughTop struct {
	Borough  string
	Listings []Listing
}

// TopPerBorough applies TopByPrice to each borough in order.
func TopPerBorough(ls []Listing, boroughs []string, n int) []BoroughTop {
	out := make([]BoroughTop, 0, len(boroughs))
	for _, b := range boroughs {
		out = append(out, BoroughTop{Borough: b, Listings: TopByPrice(ls, b, n)})
	}
	return out
}
