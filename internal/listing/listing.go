// Package listing loads short-term rental listings and derives per-borough
// aggregates from them.
package listing

import (
	"math"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Borough names as they appear in the neighbourhood_group column.
const (
	Brooklyn     = "Brooklyn"
	Manhattan    = "Manhattan"
	Queens       = "Queens"
	StatenIsland = "Staten Island"
	Bronx        = "Bronx"
)

// Boroughs lists the five boroughs in plotting order.
var Boroughs = []string{Brooklyn, Manhattan, Queens, StatenIsland, Bronx}

// Listing is one row of the listings CSV.
type Listing struct {
	ID                int64    `csv:"id"`
	Name              string   `csv:"name"`
	HostID            int64    `csv:"host_id"`
	HostName          string   `csv:"host_name"`
	Borough           string   `csv:"neighbourhood_group"`
	Neighbourhood     string   `csv:"neighbourhood"`
	Latitude          float64  `csv:"latitude"`
	Longitude         float64  `csv:"longitude"`
	RoomType          string   `csv:"room_type"`
	Price             *float64 `csv:"price,omitempty"`
	MinimumNights     *int     `csv:"minimum_nights,omitempty"`
	NumberOfReviews   *int     `csv:"number_of_reviews,omitempty"`
	LastReview        string   `csv:"last_review"`
	ReviewsPerMonth   *float64 `csv:"reviews_per_month,omitempty"`
	HostListingsCount *int     `csv:"calculated_host_listings_count,omitempty"`
	Availability365   *int     `csv:"availability_365,omitempty"`
}

// HasPrice reports whether the listing carries a usable price.
func (l Listing) HasPrice() bool {
	return l.Price != nil && !math.IsNaN(*l.Price)
}

// PriceOrNaN returns the price, or NaN when it is missing.
func (l Listing) PriceOrNaN() float64 {
	if l.Price == nil {
		return math.NaN()
	}
	return *l.Price
}

// NormalizeBorough canonicalises a borough name so names from the CSV and
// from shapefile attributes compare equal ("STATEN  ISLAND" -> "Staten Island").
func NormalizeBorough(name string) string {
	name = norm.NFC.String(strings.TrimSpace(name))
	name = strings.Join(strings.Fields(name), " ")
	// Casers carry state; one per call keeps this safe for concurrent use.
	return cases.Title(language.English).String(name)
}
