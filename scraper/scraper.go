// Package scraper contains the multi-source orchestration core: the
// capability contract every rental source implements, the manager that runs
// sources concurrently under one deadline, and the deduplicator that
// collapses listings describing the same unit.
package scraper

import (
	"context"

	"rental-scanner/models"
)

// QueryTarget is whatever a scraper needs to perform its fetch.
type QueryTarget struct {
	URL    string
	Header map[string]string
}

// RawPayload is the unparsed response body of a fetch.
type RawPayload []byte

// Scraper is the capability set one rental source exposes. Any type
// implementing it can be registered and dispatched; the manager never needs
// source-specific knowledge. Implementations own their outbound HTTP session,
// retry policy, and request pacing.
type Scraper interface {
	// SourceName returns the stable key used for configuration, stats, and
	// error attribution.
	SourceName() string

	// BuildQuery produces the fetch target for a search. It fails with
	// ErrInvalidLocation when the location cannot be resolved.
	BuildQuery(location string, minPrice, maxPrice *float64) (QueryTarget, error)

	// FetchRaw performs the network I/O, applying the scraper's own pacing
	// and bounded retry. It fails with ErrFetch on exhausted retries,
	// terminal non-2xx statuses, or transport errors.
	FetchRaw(ctx context.Context, target QueryTarget) (RawPayload, error)

	// ParseRaw extracts zero or more loosely-typed records. It never fails:
	// absence of parseable content yields an empty slice.
	ParseRaw(payload RawPayload) []models.RawListing

	// Standardize maps the scraper's native fields to the canonical shape.
	// Missing fields map to absent, never to zero-value placeholders.
	Standardize(raw models.RawListing) models.Listing

	// Filter applies the inclusive price range to standardized listings.
	Filter(listings []models.Listing, minPrice, maxPrice *float64) []models.Listing
}

// Search chains the five scraper capabilities into one search. A failure at
// BuildQuery or FetchRaw returns an empty result with the error; the
// dispatcher records it against the source.
func Search(ctx context.Context, s Scraper, location string, minPrice, maxPrice *float64) ([]models.Listing, error) {
	target, err := s.BuildQuery(location, minPrice, maxPrice)
	if err != nil {
		return nil, err
	}

	payload, err := s.FetchRaw(ctx, target)
	if err != nil {
		return nil, err
	}

	raw := s.ParseRaw(payload)
	listings := make([]models.Listing, 0, len(raw))
	for _, r := range raw {
		listings = append(listings, s.Standardize(r))
	}

	return s.Filter(listings, minPrice, maxPrice), nil
}

// FilterByPrice is the default Filter implementation shared by the bundled
// scrapers. With no bounds it passes everything through; once any bound is
// given, a listing with an absent price is dropped since it cannot be
// evaluated against the range.
func FilterByPrice(listings []models.Listing, minPrice, maxPrice *float64) []models.Listing {
	if minPrice == nil && maxPrice == nil {
		return listings
	}

	filtered := make([]models.Listing, 0, len(listings))
	for _, l := range listings {
		if l.Price == nil {
			continue
		}
		if minPrice != nil && *l.Price < *minPrice {
			continue
		}
		if maxPrice != nil && *l.Price > *maxPrice {
			continue
		}
		filtered = append(filtered, l)
	}
	return filtered
}
