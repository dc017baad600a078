package services

import (
	"fmt"
	"sort"
	"strings"

	"rental-scanner/models"
	"rental-scanner/utils"
)

// ReportService summarizes an aggregate search result for CLI output.
type ReportService struct {
	logger *utils.Logger
}

// NewReportService creates a ReportService with the given logger.
func NewReportService(logger *utils.Logger) *ReportService {
	return &ReportService{logger: logger}
}

// Generate computes the market summary over the result's listings.
func (s *ReportService) Generate(result *models.AggregateResult) *models.MarketReport {
	report := &models.MarketReport{
		ListingsBySource:   make(map[string]int),
		ListingsByBedrooms: make(map[int]int),
	}

	listings := result.Listings
	if len(listings) == 0 {
		return report
	}

	report.TotalListings = len(listings)

	var priced []*models.Listing
	for i := range listings {
		l := &listings[i]
		report.ListingsBySource[l.Source]++
		if l.Bedrooms != nil {
			report.ListingsByBedrooms[*l.Bedrooms]++
		}
		if l.Price != nil {
			priced = append(priced, l)
		}
	}

	if len(priced) > 0 {
		report.MinPrice = *priced[0].Price
		report.MaxPrice = *priced[0].Price
		report.Cheapest = priced[0]

		var total float64
		for _, l := range priced {
			total += *l.Price
			if *l.Price < report.MinPrice {
				report.MinPrice = *l.Price
				report.Cheapest = l
			}
			if *l.Price > report.MaxPrice {
				report.MaxPrice = *l.Price
			}
		}
		report.AveragePrice = round2(total / float64(len(priced)))
		report.MinPrice = round2(report.MinPrice)
		report.MaxPrice = round2(report.MaxPrice)
	}

	return report
}

// Print renders the report alongside the run's statistics.
func (s *ReportService) Print(result *models.AggregateResult, r *models.MarketReport) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Printf("\n\033[1;35m%s\033[0m\n", sep)
	fmt.Printf("\033[1;35m  RENTAL SEARCH — %s\033[0m\n", result.SearchParams.Location)
	fmt.Printf("\033[1;35m%s\033[0m\n\n", sep)

	stats := result.Stats
	fmt.Printf("\033[1;33m  Run\033[0m\n")
	fmt.Printf("  %s\n", thin)
	fmt.Printf("  Sources succeeded : \033[1m%d\033[0m\n", stats.ScrapersSucceeded)
	fmt.Printf("  Sources failed    : \033[1m%d\033[0m\n", stats.ScrapersFailed)
	fmt.Printf("  Total scraped     : \033[1m%d\033[0m\n", stats.TotalListings)
	fmt.Printf("  Duplicates removed: \033[1m%d\033[0m\n", stats.DuplicatesRemoved)
	fmt.Printf("  Unique listings   : \033[1m%d\033[0m\n", stats.UniqueListings)
	fmt.Printf("  Execution time    : \033[1m%.2fs\033[0m\n\n", stats.ExecutionTime)

	if len(result.Errors) > 0 {
		fmt.Printf("\033[1;33m  Source Errors\033[0m\n")
		fmt.Printf("  %s\n", thin)
		for source, msg := range result.Errors {
			fmt.Printf("  %-12s %s\n", source, truncate(msg, 60))
		}
		fmt.Println()
	}

	fmt.Printf("\033[1;33m  Price Statistics (monthly)\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if r.AveragePrice > 0 {
		fmt.Printf("  Average rent : \033[1;32m$%.2f\033[0m\n", r.AveragePrice)
		fmt.Printf("  Minimum rent : \033[1;32m$%.2f\033[0m\n", r.MinPrice)
		fmt.Printf("  Maximum rent : \033[1;32m$%.2f\033[0m\n", r.MaxPrice)
	} else {
		fmt.Printf("  No price data available\n")
	}
	fmt.Println()

	if r.Cheapest != nil {
		fmt.Printf("\033[1;33m  Cheapest Listing\033[0m\n")
		fmt.Printf("  %s\n", thin)
		fmt.Printf("  %s\n", truncate(r.Cheapest.Title, 50))
		fmt.Printf("  Source   : %s\n", r.Cheapest.Source)
		fmt.Printf("  Location : %s\n", r.Cheapest.Location)
		fmt.Printf("  Price    : \033[1;32m$%.2f/month\033[0m\n", *r.Cheapest.Price)
		fmt.Println()
	}

	fmt.Printf("\033[1;33m  Listings by Source\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if len(r.ListingsBySource) == 0 {
		fmt.Printf("  No listings\n")
	} else {
		type sourceCount struct {
			source string
			count  int
		}
		var sources []sourceCount
		for source, cnt := range r.ListingsBySource {
			sources = append(sources, sourceCount{source, cnt})
		}
		sort.Slice(sources, func(i, j int) bool {
			return sources[i].count > sources[j].count
		})
		for _, sc := range sources {
			bar := strings.Repeat("█", sc.count)
			fmt.Printf("  %-15s %s (%d)\n", sc.source, bar, sc.count)
		}
	}

	fmt.Printf("\n\033[1;35m%s\033[0m\n\n", sep)
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}
