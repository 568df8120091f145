package storage

import (
	"context"

	"property-analyser/models"
)

// RawListingSource yields listing rows before numeric parsing.
type RawListingSource interface {
	FetchRaw(ctx context.Context) ([]*models.RawListing, error)
}

// ListingWriter is the interface any listing storage backend must satisfy.
type ListingWriter interface {
	Write(listings []*models.Listing) error
	Close() error
}

// ReportSink persists the ranked suburb reports of one run.
type ReportSink interface {
	WriteReports(reports []models.SuburbReport) error
}
