// Package kijiji scrapes rental listings from Kijiji.ca, which embeds its
// search results as JSON-LD structured data.
package kijiji

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"rental-scanner/config"
	"rental-scanner/models"
	"rental-scanner/scraper"
	"rental-scanner/utils"
)

const (
	sourceName = "kijiji"
	// apartments-condos category: k0 = all of location, c37 = category id
	baseURL = "https://www.kijiji.ca/b-apartments-condos"
	// cap per page to avoid excessive data
	maxListings = 25
)

func init() {
	scraper.Register(sourceName, func(cfg config.SourceConfig, logger *utils.Logger) scraper.Scraper {
		return New(cfg, logger)
	})
}

// Scraper extracts rental listings from Kijiji search pages.
type Scraper struct {
	logger  *utils.Logger
	fetcher scraper.Fetcher
}

// New creates a ready-to-use Kijiji scraper.
func New(cfg config.SourceConfig, logger *utils.Logger) *Scraper {
	return &Scraper{
		logger:  logger,
		fetcher: scraper.NewHTTPFetcher(cfg, logger),
	}
}

func (s *Scraper) SourceName() string { return sourceName }

// BuildQuery slugs the location into the category URL and appends Kijiji's
// double-underscore price range parameter when bounds are given.
func (s *Scraper) BuildQuery(location string, minPrice, maxPrice *float64) (scraper.QueryTarget, error) {
	slug := strings.ToLower(strings.TrimSpace(location))
	slug = strings.NewReplacer(" ", "-", "_", "-").Replace(slug)
	if slug == "" {
		return scraper.QueryTarget{}, fmt.Errorf("%w: empty location", scraper.ErrInvalidLocation)
	}

	url := fmt.Sprintf("%s/%s/k0c37", baseURL, slug)

	if minPrice != nil || maxPrice != nil {
		lo, hi := "", ""
		if minPrice != nil {
			lo = strconv.Itoa(int(*minPrice))
		}
		if maxPrice != nil {
			hi = strconv.Itoa(int(*maxPrice))
		}
		url += "?price=" + lo + "__" + hi
	}

	return scraper.QueryTarget{URL: url}, nil
}

func (s *Scraper) FetchRaw(ctx context.Context, target scraper.QueryTarget) (scraper.RawPayload, error) {
	return s.fetcher.Fetch(ctx, target)
}

// residenceTypes are the JSON-LD item types accepted as rental properties.
var residenceTypes = map[string]bool{
	"SingleFamilyResidence": true,
	"Apartment":             true,
	"Residence":             true,
	"House":                 true,
}

// ParseRaw locates the JSON-LD ItemList on the page and extracts its rental
// items. Malformed or absent structured data yields an empty slice.
func (s *Scraper) ParseRaw(payload scraper.RawPayload) []models.RawListing {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(payload))
	if err != nil {
		s.logger.Warn("[kijiji] Failed to parse HTML: %v", err)
		return nil
	}

	// Fresh per parse so one search's URLs never shadow the next search's.
	seen := utils.NewStringSet()

	var listings []models.RawListing
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		var list itemList
		if err := json.Unmarshal([]byte(sel.Text()), &list); err != nil {
			s.logger.Debug("[kijiji] Skipping undecodable JSON-LD block: %v", err)
			return true
		}
		if list.Type != "ItemList" {
			return true
		}
		listings = s.fromItemList(list, seen)
		return false
	})

	if listings == nil {
		s.logger.Warn("[kijiji] No JSON-LD ItemList found on page")
	}
	return listings
}

func (s *Scraper) fromItemList(list itemList, seen *utils.StringSet) []models.RawListing {
	entries := list.ItemListElement
	if len(entries) > maxListings {
		entries = entries[:maxListings]
	}

	listings := make([]models.RawListing, 0, len(entries))
	for _, entry := range entries {
		item := entry.Item
		if !residenceTypes[item.Type] {
			continue
		}
		if item.Name == "" || item.URL == "" {
			continue
		}
		if !seen.Add(item.URL) {
			s.logger.Debug("[kijiji] Skipping duplicate URL: %s", item.URL)
			continue
		}

		listings = append(listings, models.RawListing{
			ID:          item.ID,
			Title:       item.Name,
			URL:         item.URL,
			Description: item.Description,
			RawPrice:    item.offerPrice(),
			Location:    item.address(),
			ImageURL:    item.imageURL(),
		})
	}

	s.logger.Debug("[kijiji] Extracted %d items from JSON-LD", len(listings))
	return listings
}

func (s *Scraper) Standardize(raw models.RawListing) models.Listing {
	return scraper.Standardized(sourceName, raw)
}

func (s *Scraper) Filter(listings []models.Listing, minPrice, maxPrice *float64) []models.Listing {
	return scraper.FilterByPrice(listings, minPrice, maxPrice)
}

// JSON-LD shapes. Offers, address, and image appear as objects, arrays, or
// plain strings depending on the listing, so they decode lazily.
type itemList struct {
	Type            string `json:"@type"`
	ItemListElement []struct {
		Item listItem `json:"item"`
	} `json:"itemListElement"`
}

type listItem struct {
	ID          string          `json:"@id"`
	Type        string          `json:"@type"`
	Name        string          `json:"name"`
	URL         string          `json:"url"`
	Description string          `json:"description"`
	Offers      json.RawMessage `json:"offers"`
	Address     json.RawMessage `json:"address"`
	Image       json.RawMessage `json:"image"`
}

type offer struct {
	Type  string          `json:"@type"`
	Price json.RawMessage `json:"price"`
}

// offerPrice returns the price of the first offer as a string, or "".
func (i listItem) offerPrice() string {
	if len(i.Offers) == 0 {
		return ""
	}

	var single offer
	if err := json.Unmarshal(i.Offers, &single); err != nil {
		var multi []offer
		if err := json.Unmarshal(i.Offers, &multi); err != nil || len(multi) == 0 {
			return ""
		}
		single = multi[0]
	}
	if single.Type != "Offer" {
		return ""
	}
	return rawToString(single.Price)
}

type postalAddress struct {
	StreetAddress   string `json:"streetAddress"`
	AddressLocality string `json:"addressLocality"`
	AddressRegion   string `json:"addressRegion"`
	PostalCode      string `json:"postalCode"`
}

// address flattens the JSON-LD address, which is either a plain string or a
// PostalAddress object, into one display string.
func (i listItem) address() string {
	if len(i.Address) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(i.Address, &s); err == nil {
		return s
	}

	var addr postalAddress
	if err := json.Unmarshal(i.Address, &addr); err != nil {
		return ""
	}

	var parts []string
	for _, p := range []string{addr.StreetAddress, addr.AddressLocality, addr.AddressRegion, addr.PostalCode} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// imageURL handles the image field being a string, an array, or an object.
func (i listItem) imageURL() string {
	if len(i.Image) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(i.Image, &s); err == nil {
		return s
	}

	var many []string
	if err := json.Unmarshal(i.Image, &many); err == nil && len(many) > 0 {
		return many[0]
	}

	var obj struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(i.Image, &obj); err == nil {
		return obj.URL
	}
	return ""
}

// rawToString renders a JSON value that is either a string or a number.
func rawToString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return ""
}
