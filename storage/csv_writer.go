package storage

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"fipe-garimpo/models"
)

var csvHeader = []string{
	"title", "list_price", "reference_price", "margin", "threshold", "region", "detail_url", "image_url", "exported_at",
}

// CSVWriter writes qualifying listings to a CSV file.
// It is safe for concurrent use.
type CSVWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
	now    func() time.Time
}

// NewCSVWriter creates (or truncates) the CSV file at the given path and
// writes the header row. Intermediate directories are created automatically.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: write header: %w", err)
	}
	w.Flush()

	return &CSVWriter{file: f, writer: w, now: time.Now}, nil
}

// Write appends one row per qualifying listing in presentation order.
func (c *CSVWriter) Write(_ context.Context, result models.Result) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	exportedAt := c.now().UTC().Format(time.RFC3339)
	for _, l := range result.Listings {
		ref := ""
		if l.ReferencePrice != nil {
			ref = strconv.Itoa(*l.ReferencePrice)
		}
		row := []string{
			l.Title,
			strconv.Itoa(l.ListPrice),
			ref,
			strconv.Itoa(l.Margin),
			strconv.Itoa(result.Threshold),
			l.Region,
			l.DetailURL,
			l.ImageURL,
			exportedAt,
		}
		if err := c.writer.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.writer.Flush()
	return c.file.Close()
}
