// Package rentalsca scrapes rental listings from Rentals.ca. The site is a
// JavaScript application: the plain HTTP strategy targets its JSON API,
// while the browser strategy (per-source config) renders the page in
// headless Chrome and parses the resulting cards.
package rentalsca

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"rental-scanner/config"
	"rental-scanner/models"
	"rental-scanner/scraper"
	"rental-scanner/utils"
)

const (
	sourceName = "rentals_ca"
	baseURL    = "https://rentals.ca"
)

func init() {
	scraper.Register(sourceName, func(cfg config.SourceConfig, logger *utils.Logger) scraper.Scraper {
		return New(cfg, logger)
	})
}

// Scraper extracts rental listings from Rentals.ca.
type Scraper struct {
	logger     *utils.Logger
	fetcher    scraper.Fetcher
	useBrowser bool
}

// New creates a Rentals.ca scraper. With cfg.UseBrowser set, fetches go
// through headless Chrome instead of the JSON API.
func New(cfg config.SourceConfig, logger *utils.Logger) *Scraper {
	var fetcher scraper.Fetcher
	if cfg.UseBrowser {
		fetcher = scraper.NewBrowserFetcher(cfg, logger)
	} else {
		fetcher = scraper.NewHTTPFetcher(cfg, logger)
	}

	return &Scraper{
		logger:     logger,
		fetcher:    fetcher,
		useBrowser: cfg.UseBrowser,
	}
}

func (s *Scraper) SourceName() string { return sourceName }

// BuildQuery slugs the city into either the JSON API endpoint or, for the
// browser strategy, the listing page URL.
func (s *Scraper) BuildQuery(location string, minPrice, maxPrice *float64) (scraper.QueryTarget, error) {
	slug := strings.ToLower(strings.TrimSpace(location))
	slug = strings.ReplaceAll(slug, " ", "-")
	if slug == "" {
		return scraper.QueryTarget{}, fmt.Errorf("%w: empty location", scraper.ErrInvalidLocation)
	}

	var query string
	if minPrice != nil || maxPrice != nil {
		parts := []string{}
		if minPrice != nil {
			parts = append(parts, fmt.Sprintf("price_min=%d", int(*minPrice)))
		}
		if maxPrice != nil {
			parts = append(parts, fmt.Sprintf("price_max=%d", int(*maxPrice)))
		}
		query = "?" + strings.Join(parts, "&")
	}

	if s.useBrowser {
		return scraper.QueryTarget{URL: fmt.Sprintf("%s/%s%s", baseURL, slug, query)}, nil
	}

	return scraper.QueryTarget{
		URL:    fmt.Sprintf("%s/api/listings/%s%s", baseURL, slug, query),
		Header: map[string]string{"Accept": "application/json"},
	}, nil
}

func (s *Scraper) FetchRaw(ctx context.Context, target scraper.QueryTarget) (scraper.RawPayload, error) {
	return s.fetcher.Fetch(ctx, target)
}

// ParseRaw handles both payload shapes: a JSON API response and rendered
// HTML. Anything unparseable yields an empty slice.
func (s *Scraper) ParseRaw(payload scraper.RawPayload) []models.RawListing {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 {
		return nil
	}

	// Fresh per parse so one search's URLs never shadow the next search's.
	seen := utils.NewStringSet()

	if trimmed[0] == '{' || trimmed[0] == '[' {
		return s.parseJSON(trimmed, seen)
	}
	return s.parseHTML(payload, seen)
}

// apiListing is the JSON API's listing shape. Prices arrive as numbers or
// strings depending on the endpoint.
type apiListing struct {
	ID         json.Number `json:"id"`
	Title      string      `json:"name"`
	Rent       json.Number `json:"rent"`
	Address    string      `json:"address"`
	City       string      `json:"city"`
	URL        string      `json:"url"`
	Photo      string      `json:"photo"`
	Bedrooms   json.Number `json:"beds"`
	Bathrooms  json.Number `json:"baths"`
	SquareFeet json.Number `json:"dimensions"`
	PostedDate string      `json:"published_at"`
}

func (s *Scraper) parseJSON(payload []byte, seen *utils.StringSet) []models.RawListing {
	var wrapper struct {
		Listings []apiListing `json:"listings"`
	}
	if err := json.Unmarshal(payload, &wrapper); err != nil || wrapper.Listings == nil {
		// Some endpoints return the array unwrapped.
		var direct []apiListing
		if err := json.Unmarshal(payload, &direct); err != nil {
			s.logger.Warn("[rentals_ca] Undecodable JSON payload: %v", err)
			return nil
		}
		wrapper.Listings = direct
	}

	listings := make([]models.RawListing, 0, len(wrapper.Listings))
	for _, a := range wrapper.Listings {
		url := a.URL
		if url != "" && strings.HasPrefix(url, "/") {
			url = baseURL + url
		}
		if url != "" && !seen.Add(url) {
			continue
		}

		location := a.Address
		if location == "" {
			location = a.City
		}

		listings = append(listings, models.RawListing{
			ID:          a.ID.String(),
			Title:       a.Title,
			RawPrice:    a.Rent.String(),
			Location:    location,
			URL:         url,
			ImageURL:    a.Photo,
			Bedrooms:    a.Bedrooms.String(),
			Bathrooms:   a.Bathrooms.String(),
			SquareFeet:  a.SquareFeet.String(),
			PostedDate:  a.PostedDate,
			Description: "",
		})
	}

	s.logger.Debug("[rentals_ca] Extracted %d listings from JSON", len(listings))
	return listings
}

func (s *Scraper) parseHTML(payload []byte, seen *utils.StringSet) []models.RawListing {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(payload))
	if err != nil {
		s.logger.Warn("[rentals_ca] Failed to parse HTML: %v", err)
		return nil
	}

	cards := doc.Find("div[class*='listing-card']")
	if cards.Length() == 0 {
		cards = doc.Find("div[data-listing]")
	}
	if cards.Length() == 0 {
		cards = doc.Find("article[class*='listing']")
	}

	var listings []models.RawListing
	cards.Each(func(_ int, card *goquery.Selection) {
		raw := models.RawListing{}

		raw.ID, _ = card.Attr("data-id")
		if raw.ID == "" {
			raw.ID, _ = card.Attr("data-listing-id")
		}

		raw.Title = cardText(card, "h2, h3, [class*='title']")
		raw.RawPrice = cardText(card, "[class*='price']")
		raw.Location = cardText(card, "[class*='location'], [class*='address']")
		raw.Bedrooms = cardText(card, "[class*='bed']")
		raw.Bathrooms = cardText(card, "[class*='bath']")

		if href, ok := card.Find("a[href]").First().Attr("href"); ok {
			if strings.HasPrefix(href, "/") {
				href = baseURL + href
			}
			raw.URL = href
		}
		if src, ok := card.Find("img").First().Attr("src"); ok {
			raw.ImageURL = src
		}

		if raw.Title == "" && raw.URL == "" {
			return
		}
		if raw.URL != "" && !seen.Add(raw.URL) {
			return
		}
		listings = append(listings, raw)
	})

	s.logger.Debug("[rentals_ca] Extracted %d cards from HTML", len(listings))
	return listings
}

func cardText(card *goquery.Selection, selector string) string {
	return strings.TrimSpace(card.Find(selector).First().Text())
}

// Standardize builds a title from bedrooms and location when the card or API
// record carries none.
func (s *Scraper) Standardize(raw models.RawListing) models.Listing {
	l := scraper.Standardized(sourceName, raw)
	if l.Title == "" {
		var parts []string
		if l.Bedrooms != nil {
			parts = append(parts, fmt.Sprintf("%d Bedroom", *l.Bedrooms))
		}
		parts = append(parts, "Rental")
		if l.Location != "" {
			parts = append(parts, "in "+l.Location)
		}
		l.Title = strings.Join(parts, " ")
	}
	return l
}

func (s *Scraper) Filter(listings []models.Listing, minPrice, maxPrice *float64) []models.Listing {
	return scraper.FilterByPrice(listings, minPrice, maxPrice)
}
