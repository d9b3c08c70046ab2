package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"fipe-garimpo/models"
)

func setupPostgres(t *testing.T) *PostgresWriter {
	t.Helper()
	if testing.Short() {
		t.Skip("postgres container test skipped in -short mode")
	}

	ctx := context.Background()
	container, err := postgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start postgres container")
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pw, err := NewPostgresWriter(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pw.Close() })
	return pw
}

type storedRow struct {
	rank, margin, threshold int
	title, url              string
}

func readRows(t *testing.T, pw *PostgresWriter) []storedRow {
	t.Helper()
	rows, err := pw.db.Query(`SELECT rank, title, margin, threshold, detail_url FROM qualifying_listings ORDER BY rank`)
	require.NoError(t, err)
	defer rows.Close()

	var out []storedRow
	for rows.Next() {
		var r storedRow
		require.NoError(t, rows.Scan(&r.rank, &r.title, &r.margin, &r.threshold, &r.url))
		out = append(out, r)
	}
	require.NoError(t, rows.Err())
	return out
}

func TestPostgresWriterReplacesSnapshot(t *testing.T) {
	pw := setupPostgres(t)
	ctx := context.Background()

	require.NoError(t, pw.Write(ctx, sampleResult()))
	got := readRows(t, pw)
	require.Equal(t, []storedRow{
		{rank: 1, margin: 8000, threshold: 4000, title: "VW Gol 2015", url: "https://olx/gol"},
		{rank: 2, margin: 7000, threshold: 4000, title: "Fiat Uno, Mille 2012", url: "https://olx/uno"},
	}, got)

	narrowed := sampleResult()
	narrowed.Threshold = 7500
	narrowed.Listings = narrowed.Listings[:1]
	require.NoError(t, pw.Write(ctx, narrowed))
	got = readRows(t, pw)
	require.Len(t, got, 1)
	require.Equal(t, 7500, got[0].threshold)

	require.NoError(t, pw.Write(ctx, models.Result{Threshold: 4000}))
	require.Empty(t, readRows(t, pw))
}
