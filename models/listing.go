package models

import "time"

// RawListing holds loosely-typed data exactly as a scraper extracted it from
// a source payload. Every field is a string; interpretation happens in the
// scraper's Standardize step.
type RawListing struct {
	ID          string
	Title       string
	RawPrice    string
	Location    string
	URL         string
	Description string
	ImageURL    string
	Bedrooms    string
	Bathrooms   string
	SquareFeet  string
	PostedDate  string
}

// Listing is the canonical, source-agnostic record every scraper produces
// before aggregation. Optional numeric fields are pointers so that a missing
// value is distinguishable from a genuine zero; a missing price is nil, never 0.
// Listings are immutable once produced by a scraper.
type Listing struct {
	Source      string     `json:"source"`
	ExternalID  string     `json:"external_id,omitempty"`
	URL         string     `json:"url,omitempty"`
	Title       string     `json:"title,omitempty"`
	Description string     `json:"description,omitempty"`
	Location    string     `json:"location,omitempty"`
	Price       *float64   `json:"price,omitempty"`
	Bedrooms    *int       `json:"bedrooms,omitempty"`
	Bathrooms   *float64   `json:"bathrooms,omitempty"`
	SquareFeet  *int       `json:"square_feet,omitempty"`
	ImageURL    string     `json:"image_url,omitempty"`
	PostedDate  *time.Time `json:"posted_date,omitempty"`
	ScrapedAt   time.Time  `json:"scraped_at"`
}

// Float64 returns a pointer to v. Convenience for optional listing fields.
func Float64(v float64) *float64 { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }
