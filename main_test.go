package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"property-analyser/config"
	"property-analyser/models"
	"property-analyser/storage"
	"property-analyser/utils"
)

const listingsCSV = `ListingId,Address,Suburb,Price,GrossLettableArea,NetAnnualIncome
1,1 Main Rd,Goodwood,1000000,100,100000
2,2 Main Rd,Goodwood,1000000,100,100000
3,1 Ocean View,Clifton,10000000,300,500000
4,1 High St,Observatory,1000000,100,80000
`

func testConfig(t *testing.T, input string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	in := filepath.Join(dir, "listings.csv")
	require.NoError(t, os.WriteFile(in, []byte(input), 0o644))
	return &config.Config{
		ListingSource:  config.SourceCSV,
		InputPath:      in,
		OutputPath:     filepath.Join(dir, "out", "report.json"),
		ReportCSVPath:  filepath.Join(dir, "out", "report.csv"),
		MaxConcurrency: 2,
	}
}

func readReport(t *testing.T, path string) models.ReportOutput {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var out models.ReportOutput
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func TestRunWritesRankedReport(t *testing.T) {
	cfg := testConfig(t, listingsCSV)
	var console bytes.Buffer

	require.NoError(t, run(context.Background(), cfg, utils.NewDiscardLogger(), &console))

	report := readReport(t, cfg.OutputPath)
	require.Len(t, report.TopSuburbs, 2)
	assert.Equal(t, "Goodwood", report.TopSuburbs[0].Name)
	assert.Equal(t, 10.0, report.TopSuburbs[0].AverageYield)
	assert.Equal(t, 10000.0, report.TopSuburbs[0].MedianPricePerSqM)
	assert.Equal(t, 0.0, report.TopSuburbs[0].StdDevYield)
	assert.Equal(t, 2, report.TopSuburbs[0].PropertyCount)
	assert.Equal(t, "Observatory", report.TopSuburbs[1].Name)

	csvReport, err := os.ReadFile(cfg.ReportCSVPath)
	require.NoError(t, err)
	assert.Contains(t, string(csvReport), "1,Goodwood,2,10.00")
	assert.Contains(t, console.String(), "Goodwood")
}

func TestRunEmptyInput(t *testing.T) {
	cfg := testConfig(t, "ListingId,Address,Suburb,Price,GrossLettableArea,NetAnnualIncome\n")

	require.NoError(t, run(context.Background(), cfg, utils.NewDiscardLogger(), &bytes.Buffer{}))

	report := readReport(t, cfg.OutputPath)
	assert.NotNil(t, report.TopSuburbs)
	assert.Empty(t, report.TopSuburbs)
}

func TestRunMissingInputFile(t *testing.T) {
	cfg := testConfig(t, listingsCSV)
	cfg.InputPath = filepath.Join(t.TempDir(), "missing.csv")

	err := run(context.Background(), cfg, utils.NewDiscardLogger(), &bytes.Buffer{})
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestGenerateWritesReadableCSV(t *testing.T) {
	out := filepath.Join(t.TempDir(), "gen.csv")
	require.NoError(t, generate([]string{"-rows", "25", "-seed", "9", "-out", out}, utils.NewDiscardLogger()))

	rows, err := storage.NewCSVReader(out).FetchRaw(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 25)
	assert.Equal(t, "1", rows[0].ListingID)
	assert.Equal(t, "25", rows[24].ListingID)
}

func TestGenerateZeroRowsKeepsHeader(t *testing.T) {
	out := filepath.Join(t.TempDir(), "gen.csv")
	require.NoError(t, generate([]string{"-rows", "0", "-out", out}, utils.NewDiscardLogger()))

	rows, err := storage.NewCSVReader(out).FetchRaw(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestGenerateHelpIsNotAnError(t *testing.T) {
	logger := utils.NewDiscardLogger()
	assert.NoError(t, generate([]string{"-h"}, logger))
	assert.Error(t, generate([]string{"-rows", "many"}, logger))
}
