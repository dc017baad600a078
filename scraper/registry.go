package scraper

import (
	"sort"
	"sync"

	"rental-scanner/config"
	"rental-scanner/utils"
)

// Factory builds a scraper from its per-source configuration.
type Factory func(cfg config.SourceConfig, logger *utils.Logger) Scraper

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register makes a scraper factory available under the given source name.
// It is called from adapter package init functions and panics on a duplicate
// name. The registry is read-only after initialization.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if factory == nil {
		panic("scraper: Register factory is nil")
	}
	if _, dup := registry[name]; dup {
		panic("scraper: Register called twice for source " + name)
	}
	registry[name] = factory
}

// Available returns the sorted names of all registered sources. The sorted
// order doubles as the deterministic dispatch order.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func lookup(name string) (Factory, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := registry[name]
	return f, ok
}
