package scraper

import (
	"testing"

	"rental-scanner/models"
)

func TestExtractPrice(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want *float64
	}{
		{"dollar with comma", "$1,500/month", models.Float64(1500)},
		{"plain number", "1850", models.Float64(1850)},
		{"decimal", "1234.56", models.Float64(1234.56)},
		{"embedded", "Rent: $2,100 monthly", models.Float64(2100)},
		{"no number", "Please contact", nil},
		{"empty", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractPrice(tt.raw)
			if (got == nil) != (tt.want == nil) {
				t.Fatalf("ExtractPrice(%q) = %v, want %v", tt.raw, got, tt.want)
			}
			if got != nil && *got != *tt.want {
				t.Errorf("ExtractPrice(%q) = %v, want %v", tt.raw, *got, *tt.want)
			}
		})
	}
}

func TestExtractInt(t *testing.T) {
	tests := []struct {
		raw  string
		want *int
	}{
		{"2 beds", models.Int(2)},
		{"Studio", nil},
		{"3", models.Int(3)},
		{"", nil},
	}

	for _, tt := range tests {
		got := ExtractInt(tt.raw)
		if (got == nil) != (tt.want == nil) {
			t.Fatalf("ExtractInt(%q) = %v, want %v", tt.raw, got, tt.want)
		}
		if got != nil && *got != *tt.want {
			t.Errorf("ExtractInt(%q) = %d, want %d", tt.raw, *got, *tt.want)
		}
	}
}

func TestExtractFloat(t *testing.T) {
	got := ExtractFloat("1.5 baths")
	if got == nil || *got != 1.5 {
		t.Errorf("ExtractFloat(\"1.5 baths\") = %v, want 1.5", got)
	}
	if got := ExtractFloat("no baths listed"); got != nil {
		t.Errorf("ExtractFloat with no number = %v, want nil", got)
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		valid bool
	}{
		{"iso date", "2024-03-01", true},
		{"iso datetime", "2024-03-01T10:30:00", true},
		{"rfc3339", "2024-03-01T10:30:00Z", true},
		{"slashed", "01/03/2024", true},
		{"garbage", "yesterday-ish", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseDate(tt.raw)
			if (got != nil) != tt.valid {
				t.Errorf("ParseDate(%q) = %v, want valid=%t", tt.raw, got, tt.valid)
			}
		})
	}
}

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		raw, want string
	}{
		{"  2 Bedroom   Apt \n Downtown ", "2 Bedroom Apt Downtown"},
		{"already clean", "already clean"},
		{"", ""},
		{"\t\n ", ""},
	}

	for _, tt := range tests {
		if got := NormalizeText(tt.raw); got != tt.want {
			t.Errorf("NormalizeText(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestStandardized(t *testing.T) {
	raw := models.RawListing{
		ID:          "abc-123",
		Title:       "  Bright 2BR   Condo ",
		RawPrice:    "$1,850/mo",
		Location:    "Centretown, Ottawa",
		URL:         "https://example.com/l/abc-123",
		Description: "Close  to transit",
		Bedrooms:    "2 beds",
		Bathrooms:   "1.5 baths",
		SquareFeet:  "900 sqft",
		PostedDate:  "2024-03-01",
	}

	l := Standardized("test_source", raw)

	if l.Source != "test_source" {
		t.Errorf("Source = %q", l.Source)
	}
	if l.ExternalID != "abc-123" {
		t.Errorf("ExternalID = %q", l.ExternalID)
	}
	if l.Title != "Bright 2BR Condo" {
		t.Errorf("Title = %q", l.Title)
	}
	if l.Price == nil || *l.Price != 1850 {
		t.Errorf("Price = %v, want 1850", l.Price)
	}
	if l.Bedrooms == nil || *l.Bedrooms != 2 {
		t.Errorf("Bedrooms = %v, want 2", l.Bedrooms)
	}
	if l.Bathrooms == nil || *l.Bathrooms != 1.5 {
		t.Errorf("Bathrooms = %v, want 1.5", l.Bathrooms)
	}
	if l.SquareFeet == nil || *l.SquareFeet != 900 {
		t.Errorf("SquareFeet = %v, want 900", l.SquareFeet)
	}
	if l.PostedDate == nil {
		t.Error("PostedDate = nil, want parsed date")
	}
	if l.ScrapedAt.IsZero() {
		t.Error("ScrapedAt is zero")
	}

	// Absent numerics stay absent, never zero.
	empty := Standardized("test_source", models.RawListing{Title: "No details"})
	if empty.Price != nil || empty.Bedrooms != nil || empty.Bathrooms != nil || empty.SquareFeet != nil {
		t.Errorf("absent fields not nil: %+v", empty)
	}
}
