package storage

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"property-analyser/models"
)

const (
	colListingID = "listingid"
	colAddress   = "address"
	colSuburb    = "suburb"
	colPrice     = "price"
	colArea      = "grosslettablearea"
	colIncome    = "netannualincome"
)

var requiredColumns = []string{colSuburb, colPrice, colArea, colIncome}

// CSVReader loads listing rows from a CSV file with a header row. Columns are
// matched by name, case-insensitively, in any order.
type CSVReader struct {
	path string
}

// NewCSVReader creates a CSVReader for path. The file is opened on FetchRaw.
func NewCSVReader(path string) *CSVReader {
	return &CSVReader{path: path}
}

// FetchRaw reads every data row. A header-only file gives an empty slice.
func (r *CSVReader) FetchRaw(ctx context.Context) ([]*models.RawListing, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("csv: open %q: %w", r.path, err)
	}
	defer f.Close()

	return ReadListingsCSV(ctx, f)
}

// ReadListingsCSV parses listing rows from src.
func ReadListingsCSV(ctx context.Context, src io.Reader) ([]*models.RawListing, error) {
	cr := csv.NewReader(src)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("csv: empty input, header row missing")
	}
	if err != nil {
		return nil, fmt.Errorf("csv: read header: %w", err)
	}

	index := headerIndex(header)
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("csv: missing required column %q", col)
		}
	}

	now := time.Now()
	listings := make([]*models.RawListing, 0)
	for line := 2; ; line++ {
		if line%10000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv: read line %d: %w", line, err)
		}

		field := func(col string) string {
			i, ok := index[col]
			if !ok || i >= len(record) {
				return ""
			}
			return record[i]
		}

		listings = append(listings, &models.RawListing{
			ListingID:         field(colListingID),
			Address:           field(colAddress),
			Suburb:            field(colSuburb),
			Price:             field(colPrice),
			GrossLettableArea: field(colArea),
			NetAnnualIncome:   field(colIncome),
			Source:            "csv",
			FetchedAt:         now,
		})
	}
	return listings, nil
}

func headerIndex(header []string) map[string]int {
	index := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		key = strings.NewReplacer("_", "", " ", "").Replace(key)
		if _, dup := index[key]; !dup {
			index[key] = i
		}
	}
	return index
}
