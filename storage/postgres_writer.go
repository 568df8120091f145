package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"property-analyser/models"
	"property-analyser/utils"
)

// PostgresWriter persists listings and suburb reports to PostgreSQL and can
// read listings back as an analysis source.
type PostgresWriter struct {
	db    *sql.DB
	runID string
}

// NewPostgresWriter opens a connection, waits for the server with retry, runs
// schema migrations and returns a ready-to-use PostgresWriter.
func NewPostgresWriter(ctx context.Context, dsn string, retry *utils.RetryConfig) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	if err := retry.Do(ctx, "postgres-ping", func() error {
		return db.PingContext(ctx)
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: %w", err)
	}

	pw := &PostgresWriter{
		db:    db,
		runID: time.Now().UTC().Format("20060102T150405.000Z"),
	}
	if err := pw.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return pw, nil
}

// RunID identifies the reports written by this writer.
func (pw *PostgresWriter) RunID() string {
	return pw.runID
}

func (pw *PostgresWriter) migrate() error {
	_, err := pw.db.Exec(`
		CREATE TABLE IF NOT EXISTS listings (
			id                  SERIAL PRIMARY KEY,
			listing_id          BIGINT           NOT NULL DEFAULT 0,
			address             TEXT             NOT NULL DEFAULT '',
			suburb              TEXT             NOT NULL DEFAULT '',
			price               NUMERIC(18,2)    NOT NULL DEFAULT 0,
			gross_lettable_area DOUBLE PRECISION NOT NULL DEFAULT 0,
			net_annual_income   NUMERIC(18,2)    NOT NULL DEFAULT 0,
			created_at          TIMESTAMPTZ      NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_listings_suburb ON listings(suburb);

		CREATE TABLE IF NOT EXISTS suburb_reports (
			run_id                 TEXT             NOT NULL,
			rank                   INT              NOT NULL,
			name                   TEXT             NOT NULL,
			property_count         INT              NOT NULL,
			average_yield          DOUBLE PRECISION NOT NULL,
			std_dev_yield          DOUBLE PRECISION NOT NULL,
			average_price_per_sqm  DOUBLE PRECISION NOT NULL,
			median_price_per_sqm   DOUBLE PRECISION NOT NULL,
			created_at             TIMESTAMPTZ      NOT NULL DEFAULT NOW(),
			PRIMARY KEY (run_id, rank)
		);
	`)
	return err
}

// Write replaces the stored listings with the given set. The delete and every
// batch run in one transaction, so a failed write leaves the previous set.
func (pw *PostgresWriter) Write(listings []*models.Listing) error {
	if len(listings) == 0 {
		return nil
	}

	tx, err := pw.db.Begin()
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec("DELETE FROM listings"); err != nil {
		return fmt.Errorf("postgres: clear: %w", err)
	}

	const batchSize = 500
	for i := 0; i < len(listings); i += batchSize {
		end := i + batchSize
		if end > len(listings) {
			end = len(listings)
		}
		query, args := listingInsert(listings[i:end])
		if _, err := tx.Exec(query, args...); err != nil {
			return fmt.Errorf("postgres: insert listings %d-%d: %w", i, end-1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}

const listingColumns = 6

// listingInsert builds one multi-row INSERT for batch.
func listingInsert(batch []*models.Listing) (string, []interface{}) {
	args := make([]interface{}, 0, len(batch)*listingColumns)
	for _, l := range batch {
		args = append(args,
			l.ListingID, l.Address, l.Suburb, l.Price, l.GrossLettableArea, l.NetAnnualIncome)
	}

	query := "INSERT INTO listings (listing_id, address, suburb, price, gross_lettable_area, net_annual_income) VALUES " +
		valuePlaceholders(len(batch), listingColumns)
	return query, args
}

// WriteReports stores the ranked reports under this writer's run id.
func (pw *PostgresWriter) WriteReports(reports []models.SuburbReport) error {
	if len(reports) == 0 {
		return nil
	}

	const cols = 8
	args := make([]interface{}, 0, len(reports)*cols)
	for i, r := range reports {
		args = append(args,
			pw.runID, i+1, r.Name, r.PropertyCount,
			r.AverageYield, r.StdDevYield, r.AveragePricePerSqM, r.MedianPricePerSqM)
	}

	query := fmt.Sprintf(`
		INSERT INTO suburb_reports (run_id, rank, name, property_count,
			average_yield, std_dev_yield, average_price_per_sqm, median_price_per_sqm)
		VALUES %s
		ON CONFLICT (run_id, rank) DO NOTHING
	`, valuePlaceholders(len(reports), cols))

	if _, err := pw.db.Exec(query, args...); err != nil {
		return fmt.Errorf("postgres: insert reports: %w", err)
	}
	return nil
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}

// FetchAll retrieves all stored listings in insertion order.
func (pw *PostgresWriter) FetchAll(ctx context.Context) ([]*models.Listing, error) {
	rows, err := pw.db.QueryContext(ctx, `
		SELECT listing_id, address, suburb, price, gross_lettable_area, net_annual_income
		FROM listings
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch all: %w", err)
	}
	defer rows.Close()

	var listings []*models.Listing
	for rows.Next() {
		l := &models.Listing{}
		if err := rows.Scan(
			&l.ListingID, &l.Address, &l.Suburb, &l.Price, &l.GrossLettableArea, &l.NetAnnualIncome,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan row: %w", err)
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

// valuePlaceholders builds "($1,$2),($3,$4)" for rows×cols positional args.
func valuePlaceholders(rows, cols int) string {
	groups := make([]string, 0, rows)
	params := make([]string, cols)
	for r := 0; r < rows; r++ {
		base := r * cols
		for c := 0; c < cols; c++ {
			params[c] = fmt.Sprintf("$%d", base+c+1)
		}
		groups = append(groups, "("+strings.Join(params, ",")+")")
	}
	return strings.Join(groups, ",")
}
