// Package realtorca scrapes rental listings from Realtor.ca's map view,
// resolving city names to bounding boxes since the site searches by
// coordinates rather than place names.
package realtorca

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"rental-scanner/config"
	"rental-scanner/models"
	"rental-scanner/scraper"
	"rental-scanner/utils"
)

const (
	sourceName = "realtor_ca"
	baseURL    = "https://www.realtor.ca/map"
	siteRoot   = "https://www.realtor.ca"
)

func init() {
	scraper.Register(sourceName, func(cfg config.SourceConfig, logger *utils.Logger) scraper.Scraper {
		return New(cfg, logger)
	})
}

type boundingBox struct {
	latMin, latMax float64
	lonMin, lonMax float64
}

// cityBounds maps major Canadian cities to approximate bounding boxes.
var cityBounds = map[string]boundingBox{
	"toronto":   {43.581, 43.855, -79.639, -79.116},
	"ottawa":    {45.247, 45.535, -75.927, -75.247},
	"montreal":  {45.410, 45.704, -73.980, -73.475},
	"vancouver": {49.198, 49.316, -123.224, -122.986},
	"calgary":   {50.842, 51.211, -114.310, -113.895},
	"edmonton":  {53.396, 53.711, -113.699, -113.297},
	"winnipeg":  {49.766, 49.978, -97.325, -97.065},
	"quebec":    {46.761, 46.862, -71.307, -71.155},
	"hamilton":  {43.200, 43.311, -79.987, -79.714},
	"kitchener": {43.400, 43.510, -80.560, -80.420},
	"london":    {42.900, 43.050, -81.350, -81.150},
	"victoria":  {48.400, 48.500, -123.450, -123.300},
	"windsor":   {42.250, 42.350, -83.100, -82.900},
	"oshawa":    {43.850, 43.950, -78.950, -78.800},
	"saskatoon": {52.050, 52.230, -106.750, -106.550},
	"regina":    {50.400, 50.500, -104.700, -104.500},
	"halifax":   {44.600, 44.700, -63.700, -63.500},
	"barrie":    {44.350, 44.450, -79.750, -79.600},
	"guelph":    {43.500, 43.600, -80.300, -80.150},
	"kingston":  {44.200, 44.300, -76.600, -76.450},
	"markham":   {43.810, 43.910, -79.410, -79.270},
	"vaughan":   {43.790, 43.890, -79.570, -79.430},
	"newmarket": {43.990, 44.090, -79.530, -79.390},
}

// Scraper extracts rental listings from Realtor.ca search pages.
type Scraper struct {
	logger  *utils.Logger
	fetcher scraper.Fetcher
}

// New creates a ready-to-use Realtor.ca scraper.
func New(cfg config.SourceConfig, logger *utils.Logger) *Scraper {
	return &Scraper{
		logger:  logger,
		fetcher: scraper.NewHTTPFetcher(cfg, logger),
	}
}

func (s *Scraper) SourceName() string { return sourceName }

// bounds resolves a location to a bounding box, first exactly, then by
// substring in either direction ("downtown ottawa" hits "ottawa").
func bounds(location string) (boundingBox, bool) {
	loc := strings.ToLower(strings.TrimSpace(location))

	if b, ok := cityBounds[loc]; ok {
		return b, true
	}
	for city, b := range cityBounds {
		if strings.Contains(loc, city) || strings.Contains(city, loc) {
			return b, true
		}
	}
	return boundingBox{}, false
}

// BuildQuery resolves the city to coordinates and assembles the map-view
// query. A city missing from the table fails with ErrInvalidLocation rather
// than silently searching elsewhere.
func (s *Scraper) BuildQuery(location string, minPrice, maxPrice *float64) (scraper.QueryTarget, error) {
	b, ok := bounds(location)
	if !ok {
		return scraper.QueryTarget{}, fmt.Errorf("%w: no coordinates for %q", scraper.ErrInvalidLocation, location)
	}

	params := url.Values{}
	params.Set("ZoomLevel", "11")
	params.Set("LatitudeMin", strconv.FormatFloat(b.latMin, 'f', 3, 64))
	params.Set("LatitudeMax", strconv.FormatFloat(b.latMax, 'f', 3, 64))
	params.Set("LongitudeMin", strconv.FormatFloat(b.lonMin, 'f', 3, 64))
	params.Set("LongitudeMax", strconv.FormatFloat(b.lonMax, 'f', 3, 64))
	// TransactionTypeId 3 = for rent
	params.Set("TransactionTypeId", "3")
	params.Set("PropertySearchTypeId", "0")
	params.Set("Currency", "CAD")
	if minPrice != nil {
		params.Set("RentMin", strconv.Itoa(int(*minPrice)))
	}
	if maxPrice != nil {
		params.Set("RentMax", strconv.Itoa(int(*maxPrice)))
	}

	return scraper.QueryTarget{URL: baseURL + "?" + params.Encode()}, nil
}

func (s *Scraper) FetchRaw(ctx context.Context, target scraper.QueryTarget) (scraper.RawPayload, error) {
	return s.fetcher.Fetch(ctx, target)
}

// cardSelectors are tried in order; the site has shuffled its markup before,
// so a selector miss degrades to zero results instead of failing.
var cardSelectors = []string{
	"div.listingCard",
	"div[data-listing-id]",
	"article[class*='listing']",
	"li.cardCon",
}

// ParseRaw extracts listing cards from the rendered page.
func (s *Scraper) ParseRaw(payload scraper.RawPayload) []models.RawListing {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(payload))
	if err != nil {
		s.logger.Warn("[realtor_ca] Failed to parse HTML: %v", err)
		return nil
	}

	var cards *goquery.Selection
	for _, sel := range cardSelectors {
		cards = doc.Find(sel)
		if cards.Length() > 0 {
			break
		}
	}
	if cards == nil || cards.Length() == 0 {
		s.logger.Warn("[realtor_ca] No listing cards found on page")
		return nil
	}

	// Fresh per parse so one search's URLs never shadow the next search's.
	seen := utils.NewStringSet()

	var listings []models.RawListing
	cards.Each(func(_ int, card *goquery.Selection) {
		raw := s.parseCard(card)
		if raw.Title == "" && raw.URL == "" {
			return
		}
		if raw.URL != "" && !seen.Add(raw.URL) {
			return
		}
		listings = append(listings, raw)
	})

	s.logger.Debug("[realtor_ca] Extracted %d cards", len(listings))
	return listings
}

func (s *Scraper) parseCard(card *goquery.Selection) models.RawListing {
	raw := models.RawListing{}

	raw.ID, _ = card.Attr("data-listing-id")
	if raw.ID == "" {
		raw.ID, _ = card.Attr("id")
	}

	raw.RawPrice = firstText(card, "div[class*='price'], span[class*='price'], .listingCardPrice")
	raw.Location = firstText(card, "div[class*='address'], span[class*='address'], .listingCardAddress")
	raw.Title = raw.Location
	raw.Bedrooms = firstText(card, "div[class*='bed'], span[class*='bed']")
	raw.Bathrooms = firstText(card, "div[class*='bath'], span[class*='bath']")
	raw.SquareFeet = firstText(card, "div[class*='sqft'], span[class*='sqft']")

	if href, ok := card.Find("a[href]").First().Attr("href"); ok {
		if strings.HasPrefix(href, "/") {
			href = siteRoot + href
		}
		raw.URL = href
	}
	if src, ok := card.Find("img").First().Attr("src"); ok {
		raw.ImageURL = src
	}

	return raw
}

func firstText(card *goquery.Selection, selector string) string {
	return strings.TrimSpace(card.Find(selector).First().Text())
}

// Standardize derives a title from the address when the card has none;
// Realtor.ca cards are address-first.
func (s *Scraper) Standardize(raw models.RawListing) models.Listing {
	l := scraper.Standardized(sourceName, raw)
	if l.Title == "" && l.Bedrooms != nil {
		l.Title = fmt.Sprintf("%d Bedroom Rental", *l.Bedrooms)
	}
	return l
}

func (s *Scraper) Filter(listings []models.Listing, minPrice, maxPrice *float64) []models.Listing {
	return scraper.FilterByPrice(listings, minPrice, maxPrice)
}
