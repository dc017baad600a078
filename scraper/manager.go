package scraper

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"rental-scanner/config"
	"rental-scanner/models"
	"rental-scanner/utils"
)

// Defaults for a multi-source search batch.
const (
	DefaultMaxWorkers          = 3
	DefaultBatchTimeout        = 60 * time.Second
	DefaultSimilarityThreshold = 0.85
)

// Options configures a Manager. Zero values fall back to the defaults above;
// the zero Options runs every registered source with deduplication on.
type Options struct {
	// EnabledSources restricts the run to the named sources. Empty means all
	// registered sources. Unknown names are dropped with a warning.
	EnabledSources []string

	// MaxWorkers bounds how many sources fetch simultaneously.
	MaxWorkers int

	// BatchTimeout is the single wall-clock deadline for the whole batch.
	BatchTimeout time.Duration

	// DisableDedup skips the duplicate-collapsing pass.
	DisableDedup bool

	// SimilarityThreshold tunes fuzzy duplicate detection, in (0,1].
	SimilarityThreshold float64

	// SourceConfigs carries per-source options, opaque to the manager.
	SourceConfigs map[string]config.SourceConfig
}

// Manager runs all enabled scrapers concurrently under one deadline,
// isolates per-source failure, and folds the outcomes into a deduplicated,
// price-sorted aggregate result. A Manager is safe for concurrent SearchAll
// calls: all per-call state lives on the stack.
type Manager struct {
	opts     Options
	logger   *utils.Logger
	dedup    *Deduplicator
	scrapers []Scraper
}

// NewManager builds a Manager over the registered sources named in opts
// (all of them when unset), in deterministic sorted-name order.
func NewManager(opts Options, logger *utils.Logger) *Manager {
	enabled := opts.EnabledSources
	if len(enabled) == 0 {
		enabled = Available()
	}

	var scrapers []Scraper
	for _, name := range enabled {
		factory, ok := lookup(name)
		if !ok {
			logger.Warn("[manager] Unknown source %q skipped", name)
			continue
		}
		scrapers = append(scrapers, factory(opts.SourceConfigs[name], logger))
	}

	if len(scrapers) == 0 {
		logger.Warn("[manager] No valid sources enabled, using all available")
		for _, name := range Available() {
			factory, _ := lookup(name)
			scrapers = append(scrapers, factory(opts.SourceConfigs[name], logger))
		}
	}

	sort.Slice(scrapers, func(i, j int) bool {
		return scrapers[i].SourceName() < scrapers[j].SourceName()
	})

	return NewManagerWith(opts, logger, scrapers...)
}

// NewManagerWith builds a Manager over an explicit scraper set, bypassing
// the registry. The given order is the dispatch and aggregation order.
func NewManagerWith(opts Options, logger *utils.Logger, scrapers ...Scraper) *Manager {
	if opts.MaxWorkers <= 0 {
		opts.MaxWorkers = DefaultMaxWorkers
	}
	if opts.BatchTimeout <= 0 {
		opts.BatchTimeout = DefaultBatchTimeout
	}
	if opts.SimilarityThreshold <= 0 || opts.SimilarityThreshold > 1 {
		opts.SimilarityThreshold = DefaultSimilarityThreshold
	}

	return &Manager{
		opts:     opts,
		logger:   logger,
		dedup:    NewDeduplicator(opts.SimilarityThreshold, logger),
		scrapers: scrapers,
	}
}

// EnabledSources returns the names of the sources this manager dispatches,
// in dispatch order.
func (m *Manager) EnabledSources() []string {
	names := make([]string, len(m.scrapers))
	for i, s := range m.scrapers {
		names[i] = s.SourceName()
	}
	return names
}

// SearchAll runs every enabled source concurrently and aggregates the
// results. Callers receive a best-effort aggregate even when every source
// fails; only a blank location or an internal aggregation fault returns an
// error.
func (m *Manager) SearchAll(ctx context.Context, location string, minPrice, maxPrice *float64) (*models.AggregateResult, error) {
	location = strings.ToLower(strings.TrimSpace(location))
	if location == "" {
		return nil, errors.New("scraper: location must not be blank")
	}

	m.logger.Info("[manager] Starting multi-source search — location: %s, sources: %d, workers: %d",
		location, len(m.scrapers), m.opts.MaxWorkers)

	start := time.Now()
	outcomes := m.runAll(ctx, location, minPrice, maxPrice)
	return m.assemble(outcomes, location, minPrice, maxPrice, start)
}

// runAll dispatches one search task per scraper under the worker ceiling and
// the batch deadline. It guarantees exactly one outcome per scraper: tasks
// still in flight when the deadline expires are recorded as timed out and
// abandoned, without disturbing already-collected outcomes.
func (m *Manager) runAll(ctx context.Context, location string, minPrice, maxPrice *float64) []models.SearchOutcome {
	type indexed struct {
		idx     int
		outcome models.SearchOutcome
	}

	// Buffered so abandoned tasks can still send without leaking.
	results := make(chan indexed, len(m.scrapers))

	ctx, cancel := context.WithTimeout(ctx, m.opts.BatchTimeout)
	defer cancel()

	pool := utils.NewWorkerPool(m.opts.MaxWorkers)
	for i, s := range m.scrapers {
		i, s := i, s
		pool.Submit(func() {
			results <- indexed{i, m.runOne(ctx, s, location, minPrice, maxPrice)}
		})
	}

	outcomes := make([]models.SearchOutcome, len(m.scrapers))
	collected := make([]bool, len(m.scrapers))

	for remaining := len(m.scrapers); remaining > 0; remaining-- {
		select {
		case r := <-results:
			outcomes[r.idx] = r.outcome
			collected[r.idx] = true
		case <-ctx.Done():
			for i, s := range m.scrapers {
				if !collected[i] {
					outcomes[i] = models.SearchOutcome{
						Source:        s.SourceName(),
						ExecutionTime: m.opts.BatchTimeout,
						Err:           fmt.Errorf("%w after %s", ErrTimeout, m.opts.BatchTimeout),
					}
				}
			}
			return outcomes
		}
	}

	return outcomes
}

// runOne executes one scraper's Search, converting any error or panic into a
// failed outcome so nothing propagates past the dispatcher boundary. A
// search returning normally, even with zero listings, is a success.
func (m *Manager) runOne(ctx context.Context, s Scraper, location string, minPrice, maxPrice *float64) (outcome models.SearchOutcome) {
	start := time.Now()
	outcome = models.SearchOutcome{Source: s.SourceName()}

	defer func() {
		outcome.ExecutionTime = time.Since(start)
		if r := recover(); r != nil {
			outcome.Success = false
			outcome.Listings = nil
			outcome.Err = fmt.Errorf("internal fault in %s: %v", s.SourceName(), r)
		}
	}()

	listings, err := Search(ctx, s, location, minPrice, maxPrice)
	if err != nil {
		outcome.Err = err
		return outcome
	}

	outcome.Success = true
	outcome.Listings = listings
	return outcome
}

// assemble folds outcomes into the aggregate result: per-source stats and
// errors, dedup, the deterministic price sort, and the UTC timestamp. A
// panic here indicates a core invariant violation and surfaces as
// ErrAggregation — the only fatal error class.
func (m *Manager) assemble(outcomes []models.SearchOutcome, location string, minPrice, maxPrice *float64, start time.Time) (result *models.AggregateResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("%w: %v", ErrAggregation, r)
		}
	}()

	stats := models.Stats{BySource: make(map[string]int)}
	errs := make(map[string]string)

	var all []models.Listing
	for _, o := range outcomes {
		if o.Success {
			stats.ScrapersSucceeded++
			stats.BySource[o.Source] = len(o.Listings)
			all = append(all, o.Listings...)
			m.logger.Info("[manager] %s: %d listings (%.2fs)",
				o.Source, len(o.Listings), o.ExecutionTime.Seconds())
		} else {
			stats.ScrapersFailed++
			if o.Err != nil {
				errs[o.Source] = o.Err.Error()
			}
			m.logger.Warn("[manager] %s failed: %v", o.Source, o.Err)
		}
	}
	stats.TotalListings = len(all)

	unique := all
	if !m.opts.DisableDedup && len(all) > 1 {
		unique = m.dedup.Dedup(all)
		m.logger.Info("[manager] Removed %d duplicates, %d unique listings remaining",
			len(all)-len(unique), len(unique))
	}
	stats.UniqueListings = len(unique)
	stats.DuplicatesRemoved = stats.TotalListings - stats.UniqueListings

	SortByPrice(unique)
	if unique == nil {
		unique = []models.Listing{}
	}

	stats.ExecutionTime = time.Since(start).Seconds()

	m.logger.Info("[manager] Search complete: %d unique listings from %d sources in %.2fs",
		stats.UniqueListings, stats.ScrapersSucceeded, stats.ExecutionTime)

	return &models.AggregateResult{
		Listings: unique,
		Stats:    stats,
		Errors:   errs,
		SearchParams: models.SearchParams{
			Location: location,
			MinPrice: minPrice,
			MaxPrice: maxPrice,
		},
		Timestamp: time.Now().UTC(),
	}, nil
}

// SortByPrice orders listings ascending by price, stable on ties. A listing
// with an absent price sorts after every listing with one.
func SortByPrice(listings []models.Listing) {
	sort.SliceStable(listings, func(i, j int) bool {
		pi, pj := listings[i].Price, listings[j].Price
		if pi == nil {
			return false
		}
		if pj == nil {
			return true
		}
		return *pi < *pj
	})
}
