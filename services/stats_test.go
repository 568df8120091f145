package services

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"property-analyser/models"
)

func TestDeriveMetrics(t *testing.T) {
	tests := []struct {
		name      string
		listing   *models.Listing
		wantYield float64
		wantPPSqM float64
	}{
		{"regular", listing("A", 1_000_000, 100_000, 100), 10, 10000},
		{"zero price", listing("A", 0, 100_000, 100), 0, 0},
		{"zero area", listing("A", 1_000_000, 100_000, 0), 10, 0},
		{"negative income", listing("A", 1_000_000, -20_000, 100), -2, 10000},
		{"negative price", listing("A", -5, 1, 1), 0, -5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := DeriveMetrics(tt.listing)
			assert.InDelta(t, tt.wantYield, m.RentalYield, 1e-9)
			assert.InDelta(t, tt.wantPPSqM, m.PricePerSqM, 1e-9)
		})
	}
}

func TestDeriveMetricsDecimalPrecision(t *testing.T) {
	l := &models.Listing{
		Price:             decimal.RequireFromString("1234567.89"),
		NetAnnualIncome:   decimal.RequireFromString("98765.43"),
		GrossLettableArea: 250,
	}
	m := DeriveMetrics(l)
	assert.InDelta(t, 8.0000000, m.RentalYield, 1e-3)
	assert.InDelta(t, 4938.27156, m.PricePerSqM, 1e-5)
}

func TestMedian(t *testing.T) {
	tests := []struct {
		in   []float64
		want float64
	}{
		{[]float64{10000, 10000}, 10000},
		{[]float64{1, 2, 3, 4}, 2.5},
		{[]float64{4, 1, 3}, 3},
		{[]float64{7}, 7},
		{nil, 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, median(tt.in), "median(%v)", tt.in)
	}
}

func TestMedianLeavesInputUnsorted(t *testing.T) {
	in := []float64{3, 1, 2}
	median(in)
	assert.Equal(t, []float64{3, 1, 2}, in)
}

func TestSampleStdDev(t *testing.T) {
	assert.Equal(t, 0.0, sampleStdDev(nil))
	assert.Equal(t, 0.0, sampleStdDev([]float64{10}))
	assert.Equal(t, 0.0, sampleStdDev([]float64{10, 10}))
	assert.InDelta(t, 2.0, sampleStdDev([]float64{8, 10, 12}), 1e-12)
	assert.InDelta(t, math.Sqrt(2), sampleStdDev([]float64{1, 3}), 1e-12)
	assert.False(t, math.IsNaN(sampleStdDev([]float64{5})))
}

func TestRound2(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{10.004, 10},
		{9.996, 10},
		{0.125, 0.12},
		{0.375, 0.38},
		{-1.234, -1.23},
		{0, 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, round2(tt.in), "round2(%v)", tt.in)
	}
}
