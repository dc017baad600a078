package scraper

import (
	"math"
	"strconv"
	"strings"

	"rental-scanner/models"
	"rental-scanner/utils"
)

// Price gate for fuzzy matching: two prices are compatible when their
// difference is at most 5% of the larger one, with a $50 floor.
const (
	priceTolerancePct   = 0.05
	priceToleranceFloor = 50.0

	// titleHintThreshold is the looser title bar used when location
	// similarity corroborates the match.
	titleHintThreshold = 0.7
)

// Deduplicator collapses listings that describe the same real-world rental
// unit, scraped redundantly across one or more sources. It runs
// single-threaded after all scraper tasks have joined and never mutates
// listings — it only selects representatives.
type Deduplicator struct {
	threshold float64
	logger    *utils.Logger
}

// NewDeduplicator creates a Deduplicator with the given title/location
// similarity threshold. Values outside (0,1] fall back to the default.
func NewDeduplicator(threshold float64, logger *utils.Logger) *Deduplicator {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultSimilarityThreshold
	}
	return &Deduplicator{threshold: threshold, logger: logger}
}

// Dedup filters listings in two phases, first match wins, in input order:
// an exact signature pass, then a fuzzy pass comparing each survivor against
// the listings already accepted. The first-encountered listing of a
// duplicate group is retained.
func (d *Deduplicator) Dedup(listings []models.Listing) []models.Listing {
	unique := make([]models.Listing, 0, len(listings))
	seen := make(map[string]struct{}, len(listings))

	for _, l := range listings {
		sig := signature(l)
		if _, dup := seen[sig]; dup {
			d.logger.Debug("[dedup] exact duplicate: %s", l.Title)
			continue
		}

		if d.isDuplicate(l, unique) {
			d.logger.Debug("[dedup] fuzzy duplicate: %s", l.Title)
			continue
		}

		unique = append(unique, l)
		seen[sig] = struct{}{}
	}

	return unique
}

// signature is the cheap exact-match key: the URL when present, otherwise
// lower-cased trimmed title, price, and location.
func signature(l models.Listing) string {
	if l.URL != "" {
		return l.URL
	}

	price := 0.0
	if l.Price != nil {
		price = *l.Price
	}

	return strings.ToLower(strings.TrimSpace(l.Title)) + "|" +
		strconv.FormatFloat(price, 'f', -1, 64) + "|" +
		strings.ToLower(strings.TrimSpace(l.Location))
}

func (d *Deduplicator) isDuplicate(l models.Listing, accepted []models.Listing) bool {
	for i := range accepted {
		if d.similar(l, accepted[i]) {
			return true
		}
	}
	return false
}

// similar reports whether two listings describe the same unit. URL equality
// is authoritative when both sides carry one: equal URLs are a duplicate,
// unequal URLs never are, no other signal consulted. Otherwise the price
// gate must pass, then either title similarity alone or a looser title
// similarity corroborated by location similarity decides. An absent title or
// location makes that particular check inapplicable.
func (d *Deduplicator) similar(a, b models.Listing) bool {
	if a.URL != "" && b.URL != "" {
		return a.URL == b.URL
	}

	if a.Price != nil && b.Price != nil {
		larger := math.Max(*a.Price, *b.Price)
		allowed := math.Max(larger*priceTolerancePct, priceToleranceFloor)
		if math.Abs(*a.Price-*b.Price) > allowed {
			return false
		}
	}

	titleSim := -1.0
	if a.Title != "" && b.Title != "" {
		titleSim = Ratio(strings.ToLower(a.Title), strings.ToLower(b.Title))
		if titleSim >= d.threshold {
			return true
		}
	}

	if titleSim >= titleHintThreshold && a.Location != "" && b.Location != "" {
		locSim := Ratio(strings.ToLower(a.Location), strings.ToLower(b.Location))
		if locSim >= d.threshold {
			return true
		}
	}

	return false
}
