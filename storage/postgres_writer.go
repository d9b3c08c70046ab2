package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"fipe-garimpo/models"
)

// PostgresWriter stores the latest qualifying snapshot in PostgreSQL.
type PostgresWriter struct {
	db *sql.DB
}

// NewPostgresWriter opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresWriter.
func NewPostgresWriter(ctx context.Context, dsn string) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.PingContext(ctx); err == nil {
			break
		}
		select {
		case <-ctx.Done():
			_ = db.Close()
			return nil, fmt.Errorf("postgres: ping: %w", ctx.Err())
		case <-time.After(2 * time.Second):
		}
	}
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	pw := &PostgresWriter{db: db}
	if err := pw.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return pw, nil
}

func (pw *PostgresWriter) migrate(ctx context.Context) error {
	_, err := pw.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS qualifying_listings (
			id              SERIAL PRIMARY KEY,
			rank            INTEGER     NOT NULL,
			title           TEXT        NOT NULL,
			list_price      INTEGER     NOT NULL,
			reference_price INTEGER     NOT NULL,
			margin          INTEGER     NOT NULL,
			threshold       INTEGER     NOT NULL,
			region          TEXT        NOT NULL DEFAULT '',
			detail_url      TEXT        UNIQUE NOT NULL,
			image_url       TEXT        NOT NULL DEFAULT '',
			created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_qualifying_listings_margin ON qualifying_listings(margin);
	`)
	return err
}

// Write replaces the stored snapshot with result inside one transaction.
func (pw *PostgresWriter) Write(ctx context.Context, result models.Result) error {
	tx, err := pw.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM qualifying_listings"); err != nil {
		return fmt.Errorf("postgres: clear: %w", err)
	}

	const batchSize = 50
	for i := 0; i < len(result.Listings); i += batchSize {
		end := min(i+batchSize, len(result.Listings))
		if err := insertBatch(ctx, tx, result, i, end); err != nil {
			return fmt.Errorf("postgres: insert: %w", err)
		}
	}
	return tx.Commit()
}

const columnsPerRow = 9

func insertBatch(ctx context.Context, tx *sql.Tx, result models.Result, from, to int) error {
	batch := result.Listings[from:to]
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]any, 0, len(batch)*columnsPerRow)

	for idx, l := range batch {
		base := idx * columnsPerRow
		placeholders := make([]string, columnsPerRow)
		for c := range placeholders {
			placeholders[c] = fmt.Sprintf("$%d", base+c+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")

		ref := 0
		if l.ReferencePrice != nil {
			ref = *l.ReferencePrice
		}
		valueArgs = append(valueArgs,
			from+idx+1, l.Title, l.ListPrice, ref, l.Margin, result.Threshold, l.Region, l.DetailURL, l.ImageURL)
	}

	query := fmt.Sprintf(`
		INSERT INTO qualifying_listings
			(rank, title, list_price, reference_price, margin, threshold, region, detail_url, image_url)
		VALUES %s
		ON CONFLICT (detail_url) DO NOTHING
	`, strings.Join(valueStrings, ","))

	_, err := tx.ExecContext(ctx, query, valueArgs...)
	return err
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}
