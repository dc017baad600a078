package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"rental-scanner/models"
)

// PostgresStore persists canonical listings to PostgreSQL, keyed by
// (source, external_id) for idempotent upserts.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use store.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	ps := &PostgresStore{db: db}
	if err := ps.migrate(); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return ps, nil
}

func (ps *PostgresStore) migrate() error {
	_, err := ps.db.Exec(`
		CREATE TABLE IF NOT EXISTS listings (
			id          SERIAL PRIMARY KEY,
			source      VARCHAR(50)  NOT NULL,
			external_id TEXT         NOT NULL,
			title       TEXT         NOT NULL DEFAULT '',
			price       NUMERIC(10,2),
			location    TEXT         NOT NULL DEFAULT '',
			url         TEXT         NOT NULL DEFAULT '',
			description TEXT         NOT NULL DEFAULT '',
			image_url   TEXT         NOT NULL DEFAULT '',
			bedrooms    INT,
			bathrooms   NUMERIC(4,1),
			square_feet INT,
			posted_date TIMESTAMPTZ,
			first_seen  TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
			last_seen   TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
			active      BOOLEAN      NOT NULL DEFAULT TRUE,
			UNIQUE (source, external_id)
		);

		CREATE INDEX IF NOT EXISTS idx_listings_price     ON listings(price);
		CREATE INDEX IF NOT EXISTS idx_listings_source    ON listings(source);
		CREATE INDEX IF NOT EXISTS idx_listings_last_seen ON listings(last_seen);
	`)
	return err
}

// Upsert batch-writes listings. A listing without an external_id falls back
// to its URL as the key; listings with neither are skipped since they cannot
// be keyed idempotently.
func (ps *PostgresStore) Upsert(ctx context.Context, listings []models.Listing) (int, error) {
	keyed := make([]models.Listing, 0, len(listings))
	for _, l := range listings {
		if l.ExternalID == "" {
			if l.URL == "" {
				continue
			}
			l.ExternalID = l.URL
		}
		keyed = append(keyed, l)
	}

	const batchSize = 50
	written := 0
	for i := 0; i < len(keyed); i += batchSize {
		end := i + batchSize
		if end > len(keyed) {
			end = len(keyed)
		}
		n, err := ps.upsertBatch(ctx, keyed[i:end])
		if err != nil {
			return written, err
		}
		written += n
	}
	return written, nil
}

func (ps *PostgresStore) upsertBatch(ctx context.Context, batch []models.Listing) (int, error) {
	const cols = 12
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*cols)

	for idx, l := range batch {
		base := idx * cols
		placeholders := make([]string, cols)
		for c := 0; c < cols; c++ {
			placeholders[c] = fmt.Sprintf("$%d", base+c+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")
		valueArgs = append(valueArgs,
			l.Source, l.ExternalID, l.Title, l.Price, l.Location, l.URL,
			l.Description, l.ImageURL, l.Bedrooms, l.Bathrooms, l.SquareFeet, l.PostedDate)
	}

	query := fmt.Sprintf(`
		INSERT INTO listings
			(source, external_id, title, price, location, url,
			 description, image_url, bedrooms, bathrooms, square_feet, posted_date)
		VALUES %s
		ON CONFLICT (source, external_id) DO UPDATE SET
			title       = EXCLUDED.title,
			price       = EXCLUDED.price,
			location    = EXCLUDED.location,
			url         = EXCLUDED.url,
			description = EXCLUDED.description,
			image_url   = EXCLUDED.image_url,
			bedrooms    = EXCLUDED.bedrooms,
			bathrooms   = EXCLUDED.bathrooms,
			square_feet = EXCLUDED.square_feet,
			posted_date = EXCLUDED.posted_date,
			last_seen   = NOW(),
			active      = TRUE
	`, strings.Join(valueStrings, ","))

	res, err := ps.db.ExecContext(ctx, query, valueArgs...)
	if err != nil {
		return 0, fmt.Errorf("postgres: upsert batch: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// MarkExpired deactivates listings whose last_seen is older than the window.
func (ps *PostgresStore) MarkExpired(ctx context.Context, olderThan time.Duration) (int64, error) {
	res, err := ps.db.ExecContext(ctx, `
		UPDATE listings SET active = FALSE
		WHERE active AND last_seen < NOW() - $1::interval
	`, fmt.Sprintf("%d seconds", int(olderThan.Seconds())))
	if err != nil {
		return 0, fmt.Errorf("postgres: mark expired: %w", err)
	}
	return res.RowsAffected()
}

// FetchActive retrieves up to limit active listings, cheapest first.
func (ps *PostgresStore) FetchActive(ctx context.Context, limit int) ([]models.Listing, error) {
	rows, err := ps.db.QueryContext(ctx, `
		SELECT source, external_id, title, price, location, url,
		       description, image_url, bedrooms, bathrooms, square_feet,
		       posted_date, last_seen
		FROM listings
		WHERE active
		ORDER BY price NULLS LAST, id
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch active: %w", err)
	}
	defer rows.Close()

	var listings []models.Listing
	for rows.Next() {
		var l models.Listing
		if err := rows.Scan(
			&l.Source, &l.ExternalID, &l.Title, &l.Price, &l.Location, &l.URL,
			&l.Description, &l.ImageURL, &l.Bedrooms, &l.Bathrooms, &l.SquareFeet,
			&l.PostedDate, &l.ScrapedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan row: %w", err)
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

func (ps *PostgresStore) Close() error {
	return ps.db.Close()
}
