package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"time"

	"rental-scanner/api"
	"rental-scanner/config"
	"rental-scanner/models"
	"rental-scanner/scraper"
	"rental-scanner/services"
	"rental-scanner/storage"
	"rental-scanner/utils"

	_ "rental-scanner/scraper/kijiji"
	_ "rental-scanner/scraper/realtorca"
	_ "rental-scanner/scraper/rentalsca"
)

func main() {
	var (
		location = flag.String("location", "", "city to search (required unless -serve)")
		minPrice = flag.Float64("min", 0, "minimum monthly rent (0 = unbounded)")
		maxPrice = flag.Float64("max", 0, "maximum monthly rent (0 = unbounded)")
		serve    = flag.Bool("serve", false, "run the HTTP API instead of a one-shot search")
		toCSV    = flag.Bool("csv", false, "export results to CSV")
	)
	flag.Parse()

	logger := utils.NewLogger()
	cfg := config.Load()

	logger.Info("=== Rental Scanner starting ===")
	logger.Info("Config — sources: %v | workers: %d | timeout: %s | dedup: %t",
		scraper.Available(), cfg.MaxWorkers, cfg.BatchTimeout, cfg.Deduplicate)

	manager := scraper.NewManager(scraper.Options{
		EnabledSources:      cfg.EnabledSources,
		MaxWorkers:          cfg.MaxWorkers,
		BatchTimeout:        cfg.BatchTimeout,
		DisableDedup:        !cfg.Deduplicate,
		SimilarityThreshold: cfg.SimilarityThreshold,
		SourceConfigs:       cfg.SourceConfigs,
	}, logger)

	var store storage.ListingStore
	if cfg.PostgresEnabled {
		pg, err := storage.NewPostgresStore(cfg.DSN())
		if err != nil {
			logger.Error("Failed to connect to PostgreSQL: %v", err)
			os.Exit(1)
		}
		defer pg.Close()
		store = pg
	}

	if *serve {
		server := api.NewServer(manager, store, logger)
		logger.Info("HTTP API listening on %s", cfg.HTTPAddr)
		if err := http.ListenAndServe(cfg.HTTPAddr, server.Router()); err != nil {
			logger.Error("HTTP server failed: %v", err)
			os.Exit(1)
		}
		return
	}

	if *location == "" {
		logger.Error("A -location is required for a one-shot search")
		flag.Usage()
		os.Exit(1)
	}

	var lo, hi *float64
	if *minPrice > 0 {
		lo = minPrice
	}
	if *maxPrice > 0 {
		hi = maxPrice
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.BatchTimeout+10*time.Second)
	defer cancel()

	result, err := manager.SearchAll(ctx, *location, lo, hi)
	if err != nil {
		logger.Error("Search failed: %v", err)
		os.Exit(1)
	}

	reportSvc := services.NewReportService(logger)
	report := reportSvc.Generate(result)
	reportSvc.Print(result, report)

	if *toCSV {
		exportCSV(cfg.CSVOutputPath, result, logger)
	}

	if store != nil && len(result.Listings) > 0 {
		if n, err := store.Upsert(ctx, result.Listings); err != nil {
			logger.Error("PostgreSQL upsert failed: %v", err)
		} else {
			logger.Info("Upserted %d listings into PostgreSQL", n)
		}

		if n, err := store.MarkExpired(ctx, cfg.ExpireAfter); err != nil {
			logger.Error("Expiry pass failed: %v", err)
		} else if n > 0 {
			logger.Info("Marked %d stale listings inactive", n)
		}
	}
}

func exportCSV(path string, result *models.AggregateResult, logger *utils.Logger) {
	exporter, err := storage.NewCSVExporter(path)
	if err != nil {
		logger.Error("Failed to create CSV exporter: %v", err)
		return
	}
	defer exporter.Close()

	if err := exporter.Export(result); err != nil {
		logger.Error("CSV export failed: %v", err)
		return
	}
	logger.Info("Results saved to %s", path)
}
