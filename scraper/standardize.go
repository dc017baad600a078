package scraper

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"rental-scanner/models"
)

var (
	// numberRegexp captures the first numeric value in a price-like string
	numberRegexp = regexp.MustCompile(`\d+(?:\.\d+)?`)
	// intRegexp captures the first whole number ("2 beds" → 2)
	intRegexp = regexp.MustCompile(`\d+`)
)

// ExtractPrice extracts a numeric monthly rent from a raw string. Currency
// symbols, commas, and trailing units are ignored. Returns nil when no
// number is present — a missing price stays absent, never 0.
//
// Examples:
//
//	"$1,500/month" → 1500
//	"Please contact" → nil
func ExtractPrice(raw string) *float64 {
	cleaned := strings.ReplaceAll(raw, ",", "")
	match := numberRegexp.FindString(cleaned)
	if match == "" {
		return nil
	}

	price, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return nil
	}
	return &price
}

// ExtractInt extracts the first whole number from a raw string, or nil.
func ExtractInt(raw string) *int {
	match := intRegexp.FindString(raw)
	if match == "" {
		return nil
	}
	n, err := strconv.Atoi(match)
	if err != nil {
		return nil
	}
	return &n
}

// ExtractFloat extracts the first decimal number from a raw string, or nil.
// Used for bathrooms ("1.5 baths").
func ExtractFloat(raw string) *float64 {
	match := numberRegexp.FindString(raw)
	if match == "" {
		return nil
	}
	f, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return nil
	}
	return &f
}

var dateFormats = []string{
	"2006-01-02",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05.000Z",
	time.RFC3339,
	"02/01/2006",
	"01/02/2006",
}

// ParseDate parses a source-reported date in any of the common formats,
// returning nil when none match.
func ParseDate(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for _, format := range dateFormats {
		if t, err := time.Parse(format, raw); err == nil {
			return &t
		}
	}
	return nil
}

// NormalizeText strips leading/trailing whitespace and collapses internal
// whitespace runs into single spaces.
func NormalizeText(s string) string {
	s = strings.TrimSpace(s)
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r)
	})
	return strings.Join(fields, " ")
}

// Standardized fills the canonical fields shared by every source from a raw
// listing; adapters extend the result with source-specific extraction.
func Standardized(source string, raw models.RawListing) models.Listing {
	return models.Listing{
		Source:      source,
		ExternalID:  raw.ID,
		Title:       NormalizeText(raw.Title),
		Price:       ExtractPrice(raw.RawPrice),
		Location:    NormalizeText(raw.Location),
		URL:         raw.URL,
		Description: NormalizeText(raw.Description),
		ImageURL:    raw.ImageURL,
		Bedrooms:    ExtractInt(raw.Bedrooms),
		Bathrooms:   ExtractFloat(raw.Bathrooms),
		SquareFeet:  ExtractInt(raw.SquareFeet),
		PostedDate:  ParseDate(raw.PostedDate),
		ScrapedAt:   time.Now().UTC(),
	}
}
