package storage

import (
	"context"
	"time"

	"rental-scanner/models"
)

// ListingStore is the persistence collaborator the search core hands its
// canonical listings to. Implementations own first_seen/last_seen tracking
// and expiry; the core itself persists nothing.
type ListingStore interface {
	// Upsert idempotently writes listings keyed by (source, external_id),
	// returning how many rows were written.
	Upsert(ctx context.Context, listings []models.Listing) (int, error)

	// MarkExpired deactivates listings not seen within the given window,
	// returning how many were deactivated.
	MarkExpired(ctx context.Context, olderThan time.Duration) (int64, error)

	// FetchActive retrieves up to limit active listings, cheapest first.
	FetchActive(ctx context.Context, limit int) ([]models.Listing, error)

	Close() error
}

// ResultExporter writes an aggregate search result to an external format.
type ResultExporter interface {
	Export(result *models.AggregateResult) error
	Close() error
}
