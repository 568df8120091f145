package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"property-analyser/models"
)

var (
	listingHeader = []string{"ListingId", "Address", "Suburb", "Price", "GrossLettableArea", "NetAnnualIncome"}
	reportHeader  = []string{"Rank", "Name", "PropertyCount", "AverageYield", "StdDevYield", "AveragePricePerSqM", "MedianPricePerSqM"}
)

// CSVWriter writes listings or suburb reports to a CSV file. The header row is
// written by the first Write call. It is safe for concurrent use.
type CSVWriter struct {
	mu      sync.Mutex
	file    *os.File
	writer  *csv.Writer
	started bool
}

// NewCSVWriter creates (or truncates) the CSV file at the given path.
// Intermediate directories are created automatically.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}

	return &CSVWriter{file: f, writer: csv.NewWriter(f)}, nil
}

// Write appends listings in the same column layout CSVReader expects.
func (c *CSVWriter) Write(listings []*models.Listing) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.header(listingHeader); err != nil {
		return err
	}
	for _, l := range listings {
		row := []string{
			strconv.FormatInt(l.ListingID, 10),
			l.Address,
			l.Suburb,
			l.Price.String(),
			strconv.FormatFloat(l.GrossLettableArea, 'f', -1, 64),
			l.NetAnnualIncome.String(),
		}
		if err := c.writer.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

// WriteReports appends one row per report, ranked from 1.
func (c *CSVWriter) WriteReports(reports []models.SuburbReport) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.header(reportHeader); err != nil {
		return err
	}
	for i, r := range reports {
		row := []string{
			strconv.Itoa(i + 1),
			r.Name,
			strconv.Itoa(r.PropertyCount),
			formatStat(r.AverageYield),
			formatStat(r.StdDevYield),
			formatStat(r.AveragePricePerSqM),
			formatStat(r.MedianPricePerSqM),
		}
		if err := c.writer.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

func (c *CSVWriter) header(cols []string) error {
	if c.started {
		return nil
	}
	if err := c.writer.Write(cols); err != nil {
		return fmt.Errorf("csv: write header: %w", err)
	}
	c.started = true
	return nil
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.writer.Flush()
	return c.file.Close()
}

func formatStat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
