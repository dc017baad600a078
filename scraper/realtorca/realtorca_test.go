package realtorca

import (
	"errors"
	"net/url"
	"strings"
	"testing"

	"rental-scanner/config"
	"rental-scanner/models"
	"rental-scanner/scraper"
	"rental-scanner/utils"
)

func newTestScraper() *Scraper {
	return New(config.SourceConfig{}, utils.NewLoggerAt(utils.LevelError))
}

func TestBuildQuery(t *testing.T) {
	s := newTestScraper()

	target, err := s.BuildQuery("Ottawa", models.Float64(1000), models.Float64(2500))
	if err != nil {
		t.Fatalf("BuildQuery: %v", err)
	}

	u, err := url.Parse(target.URL)
	if err != nil {
		t.Fatalf("unparseable URL %q: %v", target.URL, err)
	}
	if !strings.HasPrefix(target.URL, "https://www.realtor.ca/map?") {
		t.Errorf("URL = %q", target.URL)
	}

	q := u.Query()
	want := map[string]string{
		"LatitudeMin":       "45.247",
		"LatitudeMax":       "45.535",
		"LongitudeMin":      "-75.927",
		"LongitudeMax":      "-75.247",
		"TransactionTypeId": "3",
		"RentMin":           "1000",
		"RentMax":           "2500",
		"Currency":          "CAD",
	}
	for k, v := range want {
		if got := q.Get(k); got != v {
			t.Errorf("param %s = %q, want %q", k, got, v)
		}
	}
}

func TestBuildQueryNoBounds(t *testing.T) {
	s := newTestScraper()

	target, err := s.BuildQuery("toronto", nil, nil)
	if err != nil {
		t.Fatalf("BuildQuery: %v", err)
	}
	u, _ := url.Parse(target.URL)
	if u.Query().Has("RentMin") || u.Query().Has("RentMax") {
		t.Errorf("unbounded query carries rent params: %q", target.URL)
	}
}

func TestBuildQueryUnknownCity(t *testing.T) {
	s := newTestScraper()
	if _, err := s.BuildQuery("atlantis", nil, nil); !errors.Is(err, scraper.ErrInvalidLocation) {
		t.Errorf("err = %v, want ErrInvalidLocation", err)
	}
}

func TestBuildQueryPartialCityMatch(t *testing.T) {
	s := newTestScraper()

	// "downtown ottawa" contains a known city name.
	target, err := s.BuildQuery("Downtown Ottawa", nil, nil)
	if err != nil {
		t.Fatalf("BuildQuery: %v", err)
	}
	u, _ := url.Parse(target.URL)
	if got := u.Query().Get("LatitudeMin"); got != "45.247" {
		t.Errorf("LatitudeMin = %q, want Ottawa's bounds", got)
	}
}

const cardFixture = `<html><body>
<div class="listingCard" data-listing-id="27561234">
  <div class="listingCardPrice">$2,100 /Monthly</div>
  <div class="listingCardAddress">45 ELGIN STREET, Ottawa, Ontario</div>
  <span class="bedIcon">2 bed</span>
  <span class="bathIcon">1 bath</span>
  <a href="/real-estate/27561234/45-elgin-street-ottawa">View</a>
  <img src="https://cdn.realtor.ca/listing/27561234.jpg"/>
</div>
<div class="listingCard" data-listing-id="27569999">
  <div class="listingCardPrice">$1,750 /Monthly</div>
  <div class="listingCardAddress">300 LISGAR ST UNIT#4, Ottawa, Ontario</div>
  <span class="bedIcon">1 bed</span>
  <a href="https://www.realtor.ca/real-estate/27569999/300-lisgar">View</a>
</div>
</body></html>`

func TestParseRaw(t *testing.T) {
	s := newTestScraper()

	got := s.ParseRaw(scraper.RawPayload(cardFixture))
	if len(got) != 2 {
		t.Fatalf("ParseRaw returned %d cards, want 2", len(got))
	}

	first := got[0]
	if first.ID != "27561234" {
		t.Errorf("ID = %q", first.ID)
	}
	if first.RawPrice != "$2,100 /Monthly" {
		t.Errorf("RawPrice = %q", first.RawPrice)
	}
	if first.Location != "45 ELGIN STREET, Ottawa, Ontario" {
		t.Errorf("Location = %q", first.Location)
	}
	if first.Bedrooms != "2 bed" {
		t.Errorf("Bedrooms = %q", first.Bedrooms)
	}
	if first.URL != "https://www.realtor.ca/real-estate/27561234/45-elgin-street-ottawa" {
		t.Errorf("relative href not resolved: %q", first.URL)
	}
	if first.ImageURL != "https://cdn.realtor.ca/listing/27561234.jpg" {
		t.Errorf("ImageURL = %q", first.ImageURL)
	}

	if got[1].URL != "https://www.realtor.ca/real-estate/27569999/300-lisgar" {
		t.Errorf("absolute href mangled: %q", got[1].URL)
	}
}

func TestParseRawRepeatedRuns(t *testing.T) {
	s := newTestScraper()

	// One scraper instance serves many searches; each parse stands alone.
	for run := 1; run <= 2; run++ {
		if got := s.ParseRaw(scraper.RawPayload(cardFixture)); len(got) != 2 {
			t.Errorf("run %d returned %d cards, want 2", run, len(got))
		}
	}
}

func TestParseRawNoCards(t *testing.T) {
	s := newTestScraper()
	if got := s.ParseRaw(scraper.RawPayload("<html><body><p>no results</p></body></html>")); len(got) != 0 {
		t.Errorf("ParseRaw = %d, want 0", len(got))
	}
}

func TestStandardizeTitleFallback(t *testing.T) {
	s := newTestScraper()

	l := s.Standardize(models.RawListing{
		RawPrice: "$2,100 /Monthly",
		Bedrooms: "2 bed",
	})
	if l.Title != "2 Bedroom Rental" {
		t.Errorf("Title = %q, want derived fallback", l.Title)
	}
	if l.Price == nil || *l.Price != 2100 {
		t.Errorf("Price = %v, want 2100", l.Price)
	}

	withAddress := s.Standardize(models.RawListing{
		Title:    "45 ELGIN STREET, Ottawa, Ontario",
		Location: "45 ELGIN STREET, Ottawa, Ontario",
	})
	if withAddress.Title != "45 ELGIN STREET, Ottawa, Ontario" {
		t.Errorf("address title overridden: %q", withAddress.Title)
	}
}
