package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RawListing holds a listing row exactly as a source produced it, before any
// numeric parsing. CSV files and the portal scraper both emit this shape.
type RawListing struct {
	ListingID         string
	Address           string
	Suburb            string
	Price             string
	GrossLettableArea string
	NetAnnualIncome   string
	URL               string
	Source            string
	FetchedAt         time.Time
}

// Listing is a parsed listing record. Suburb is the grouping key and is kept
// byte-for-byte as the source supplied it.
type Listing struct {
	ListingID         int64
	Address           string
	Suburb            string
	Price             decimal.Decimal
	GrossLettableArea float64
	NetAnnualIncome   decimal.Decimal
}

// ListingMetrics are the per-listing figures derived during analysis.
type ListingMetrics struct {
	RentalYield float64
	PricePerSqM float64
}

// SuburbReport holds the aggregated statistics for one suburb.
type SuburbReport struct {
	Name               string  `json:"Name"`
	AverageYield       float64 `json:"AverageYield"`
	MedianPricePerSqM  float64 `json:"MedianPricePerSqM"`
	StdDevYield        float64 `json:"StdDevYield"`
	AveragePricePerSqM float64 `json:"AveragePricePerSqM"`
	PropertyCount      int     `json:"PropertyCount"`
}

// ReportOutput is the top-level document written by the JSON sink.
type ReportOutput struct {
	TopSuburbs []SuburbReport `json:"TopSuburbs"`
}
