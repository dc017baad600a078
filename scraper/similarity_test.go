package scraper

import (
	"math"
	"testing"
)

func TestRatio(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "2 bedroom downtown", "2 bedroom downtown", 1.0},
		{"disjoint", "abc", "xyz", 0.0},
		{"both empty", "", "", 1.0},
		{"one empty", "apartment", "", 0.0},
		{"classic shifted block", "abcd", "bcde", 0.75},
		{"abbreviated title", "2br downtown", "2 bedroom downtown apt", 24.0 / 34.0},
		{"shared prefix", "2 bedroom downtown apartment", "2 bedroom downtown apt", 44.0 / 50.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Ratio(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Ratio(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestRatioSymmetric(t *testing.T) {
	pairs := [][2]string{
		{"abcd", "bcde"},
		{"2br downtown", "2 bedroom downtown apt"},
		{"main st apartment", "apartment on main st"},
	}

	for _, p := range pairs {
		ab, ba := Ratio(p[0], p[1]), Ratio(p[1], p[0])
		if math.Abs(ab-ba) > 1e-9 {
			t.Errorf("Ratio not symmetric for %q/%q: %v vs %v", p[0], p[1], ab, ba)
		}
	}
}

func TestRatioBounds(t *testing.T) {
	inputs := []string{"", "a", "abcabc", "2 bedroom downtown", "éàü unicode"}
	for _, a := range inputs {
		for _, b := range inputs {
			got := Ratio(a, b)
			if got < 0 || got > 1 {
				t.Errorf("Ratio(%q, %q) = %v out of [0,1]", a, b, got)
			}
		}
	}
}
