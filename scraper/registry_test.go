package scraper

import (
	"testing"

	"rental-scanner/config"
	"rental-scanner/utils"
)

func TestRegisterAndLookup(t *testing.T) {
	factory := func(cfg config.SourceConfig, logger *utils.Logger) Scraper {
		return &fakeScraper{name: "registered_src"}
	}
	Register("registered_src", factory)

	f, ok := lookup("registered_src")
	if !ok {
		t.Fatal("lookup failed for a registered source")
	}
	if got := f(config.SourceConfig{}, testLogger()).SourceName(); got != "registered_src" {
		t.Errorf("factory built %q", got)
	}

	if _, ok := lookup("never_registered"); ok {
		t.Error("lookup returned a factory for an unknown source")
	}

	found := false
	for _, name := range Available() {
		if name == "registered_src" {
			found = true
		}
	}
	if !found {
		t.Errorf("Available() = %v, missing registered_src", Available())
	}
}

func TestRegisterDuplicatePanics(t *testing.T) {
	factory := func(cfg config.SourceConfig, logger *utils.Logger) Scraper {
		return &fakeScraper{name: "dup_src"}
	}
	Register("dup_src", factory)

	defer func() {
		if recover() == nil {
			t.Error("duplicate Register did not panic")
		}
	}()
	Register("dup_src", factory)
}

func TestAvailableSorted(t *testing.T) {
	names := Available()
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Errorf("Available() not strictly sorted: %v", names)
			break
		}
	}
}
