package models

import "time"

// SearchOutcome is the result of one scraper's Search during a batch run.
// The dispatcher produces exactly one outcome per enabled scraper.
type SearchOutcome struct {
	Source        string
	Success       bool
	Listings      []Listing
	ExecutionTime time.Duration
	Err           error
}

// SearchParams echoes the normalized inputs of a SearchAll call.
type SearchParams struct {
	Location string   `json:"location"`
	MinPrice *float64 `json:"min_price,omitempty"`
	MaxPrice *float64 `json:"max_price,omitempty"`
}

// Stats holds the counters computed during result assembly. Immutable after
// the aggregate result is built.
type Stats struct {
	TotalListings     int            `json:"total_listings"`
	UniqueListings    int            `json:"unique_listings"`
	DuplicatesRemoved int            `json:"duplicates_removed"`
	ScrapersSucceeded int            `json:"scrapers_succeeded"`
	ScrapersFailed    int            `json:"scrapers_failed"`
	ExecutionTime     float64        `json:"execution_time"`
	BySource          map[string]int `json:"by_source"`
}

// AggregateResult is the full output of a multi-source search: deduplicated,
// price-sorted listings plus statistics and per-source errors. Created fresh
// per SearchAll call; the caller owns its lifetime.
type AggregateResult struct {
	Listings     []Listing         `json:"listings"`
	Stats        Stats             `json:"stats"`
	Errors       map[string]string `json:"errors"`
	SearchParams SearchParams      `json:"search_params"`
	Timestamp    time.Time         `json:"timestamp"`
}

// MarketReport holds the summary computed over an aggregate result.
type MarketReport struct {
	TotalListings      int
	AveragePrice       float64
	MinPrice           float64
	MaxPrice           float64
	Cheapest           *Listing
	ListingsBySource   map[string]int
	ListingsByBedrooms map[int]int
}
