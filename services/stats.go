package services

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"property-analyser/models"
)

var hundred = decimal.NewFromInt(100)

// DeriveMetrics computes rental yield and price per square metre for one
// listing. A non-positive price gives a yield of 0 and a non-positive area
// gives a price per square metre of 0.
func DeriveMetrics(l *models.Listing) models.ListingMetrics {
	var m models.ListingMetrics
	if l.Price.IsPositive() {
		m.RentalYield = l.NetAnnualIncome.Div(l.Price).Mul(hundred).InexactFloat64()
	}
	if l.GrossLettableArea > 0 {
		m.PricePerSqM = l.Price.Div(decimal.NewFromFloat(l.GrossLettableArea)).InexactFloat64()
	}
	return m
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var total float64
	for _, v := range values {
		total += v
	}
	return total / float64(len(values))
}

// median sorts a copy of values; the caller's slice is left untouched.
func median(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	mid := n / 2
	if n%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

// sampleStdDev uses the n-1 divisor. Fewer than two values give 0.
func sampleStdDev(values []float64) float64 {
	n := len(values)
	if n <= 1 {
		return 0
	}
	avg := mean(values)
	var sumSquares float64
	for _, v := range values {
		d := v - avg
		sumSquares += d * d
	}
	return math.Sqrt(sumSquares / float64(n-1))
}

// round2 rounds half to even at two decimal places.
func round2(f float64) float64 {
	return math.RoundToEven(f*100) / 100
}
