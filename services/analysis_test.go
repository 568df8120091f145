package services

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"property-analyser/models"
	"property-analyser/utils"
)

func listing(suburb string, price, income int64, area float64) *models.Listing {
	return &models.Listing{
		Suburb:            suburb,
		Price:             decimal.NewFromInt(price),
		NetAnnualIncome:   decimal.NewFromInt(income),
		GrossLettableArea: area,
	}
}

func sampleProperties() []*models.Listing {
	return []*models.Listing{
		listing("Goodwood", 1_000_000, 100_000, 100),
		listing("Goodwood", 1_000_000, 100_000, 100),
		listing("Clifton", 10_000_000, 500_000, 300),
		listing("Observatory", 1_000_000, 80_000, 100),
	}
}

func findReport(reports []models.SuburbReport, name string) (models.SuburbReport, bool) {
	for _, r := range reports {
		if r.Name == name {
			return r, true
		}
	}
	return models.SuburbReport{}, false
}

func TestAnalyzeRanksHighYieldSuburbs(t *testing.T) {
	reports := Analyze(sampleProperties())

	require.Len(t, reports, 2)
	_, found := findReport(reports, "Clifton")
	assert.False(t, found, "Clifton is below the threshold and must be filtered out")

	first := reports[0]
	assert.Equal(t, "Goodwood", first.Name)
	assert.Equal(t, 10.0, first.AverageYield)
	assert.Equal(t, 10000.0, first.MedianPricePerSqM)
	assert.Equal(t, 10000.0, first.AveragePricePerSqM)
	assert.Equal(t, 0.0, first.StdDevYield)
	assert.Equal(t, 2, first.PropertyCount)

	second := reports[1]
	assert.Equal(t, "Observatory", second.Name)
	assert.Equal(t, 8.0, second.AverageYield)
	assert.Equal(t, 1, second.PropertyCount)
	assert.Equal(t, 0.0, second.StdDevYield)
}

func TestAnalyzeEmptyInput(t *testing.T) {
	for _, in := range [][]*models.Listing{nil, {}} {
		reports := Analyze(in)
		assert.NotNil(t, reports)
		assert.Empty(t, reports)
	}
}

func TestAnalyzeZeroPriceIsFiltered(t *testing.T) {
	reports := Analyze([]*models.Listing{listing("Goodwood", 0, 100_000, 100)})
	assert.NotNil(t, reports)
	assert.Empty(t, reports)
}

func TestAnalyzeZeroAreaGivesZeroPricePerSqM(t *testing.T) {
	reports := Analyze([]*models.Listing{listing("Goodwood", 1_000_000, 100_000, 0)})

	require.Len(t, reports, 1)
	assert.Equal(t, "Goodwood", reports[0].Name)
	assert.Equal(t, 10.0, reports[0].AverageYield)
	assert.Equal(t, 0.0, reports[0].MedianPricePerSqM)
	assert.Equal(t, 0.0, reports[0].AveragePricePerSqM)
}

func TestAnalyzeDegenerateInputs(t *testing.T) {
	reports := Analyze([]*models.Listing{
		nil,
		listing("Negative", -1_000_000, 100_000, 100),
		listing("Loss", 1_000_000, -50_000, 100),
		listing("NoIncome", 1_000_000, 0, 100),
		listing("NegativeArea", 1_000_000, 90_000, -10),
	})

	require.Len(t, reports, 1)
	assert.Equal(t, "NegativeArea", reports[0].Name)
	assert.Equal(t, 0.0, reports[0].AveragePricePerSqM)
}

func TestAnalyzeThresholdIsStrict(t *testing.T) {
	reports := Analyze([]*models.Listing{
		listing("AtThreshold", 100, 7, 10),
		listing("JustAbove", 10_000, 701, 10),
	})

	require.Len(t, reports, 1)
	assert.Equal(t, "JustAbove", reports[0].Name)
	assert.Equal(t, 7.01, reports[0].AverageYield)
}

func TestAnalyzeFilteredListingsDoNotCount(t *testing.T) {
	reports := Analyze([]*models.Listing{
		listing("Woodstock", 1_000_000, 100_000, 100),
		listing("Woodstock", 1_000_000, 30_000, 50),
	})

	require.Len(t, reports, 1)
	assert.Equal(t, 1, reports[0].PropertyCount)
	assert.Equal(t, 10.0, reports[0].AverageYield)
	assert.Equal(t, 10000.0, reports[0].MedianPricePerSqM)
}

func TestAnalyzeMedianEvenCount(t *testing.T) {
	// price per square metre values 1, 2, 3, 4 at a 10% yield
	reports := Analyze([]*models.Listing{
		listing("Mowbray", 400, 40, 100),
		listing("Mowbray", 100, 10, 100),
		listing("Mowbray", 300, 30, 100),
		listing("Mowbray", 200, 20, 100),
	})

	require.Len(t, reports, 1)
	assert.Equal(t, 2.5, reports[0].MedianPricePerSqM)
	assert.Equal(t, 2.5, reports[0].AveragePricePerSqM)
	assert.Equal(t, 4, reports[0].PropertyCount)
}

func TestAnalyzeSampleStdDev(t *testing.T) {
	reports := Analyze([]*models.Listing{
		listing("Wynberg", 100, 8, 10),
		listing("Wynberg", 100, 10, 10),
		listing("Wynberg", 100, 12, 10),
	})

	require.Len(t, reports, 1)
	assert.Equal(t, 10.0, reports[0].AverageYield)
	assert.Equal(t, 2.0, reports[0].StdDevYield)
}

func TestAnalyzeGroupsByExactName(t *testing.T) {
	reports := Analyze([]*models.Listing{
		listing("Sea Point", 100, 10, 10),
		listing("sea point", 100, 10, 10),
		listing("Sea Point ", 100, 10, 10),
	})

	assert.Len(t, reports, 3)
	for _, r := range reports {
		assert.Equal(t, 1, r.PropertyCount, r.Name)
	}
}

func TestAnalyzeTruncatesAndOrders(t *testing.T) {
	var in []*models.Listing
	for i := 0; i < 8; i++ {
		in = append(in, listing(fmt.Sprintf("Suburb-%d", i), 1000, int64(80+i*5), 10))
	}

	reports := Analyze(in)

	require.Len(t, reports, TopSuburbs)
	assert.Equal(t, "Suburb-7", reports[0].Name)
	for i := 0; i+1 < len(reports); i++ {
		assert.GreaterOrEqual(t, reports[i].AverageYield, reports[i+1].AverageYield)
	}
}

func TestAnalyzeTieBreakByName(t *testing.T) {
	reports := Analyze([]*models.Listing{
		listing("Plumstead", 100, 9, 10),
		listing("Kenilworth", 100, 9, 10),
		listing("Claremont", 100, 9, 10),
	})

	require.Len(t, reports, 3)
	assert.Equal(t, "Claremont", reports[0].Name)
	assert.Equal(t, "Kenilworth", reports[1].Name)
	assert.Equal(t, "Plumstead", reports[2].Name)
}

func TestAnalyzeParallelMatchesSequential(t *testing.T) {
	gen := NewGenerator(42)
	in := gen.Generate(5000)

	sequential := NewAnalysisService(utils.NewDiscardLogger(), 1).Analyze(in)
	parallel := NewAnalysisService(utils.NewDiscardLogger(), 8).Analyze(in)

	require.NotEmpty(t, sequential)
	assert.Equal(t, sequential, parallel)
}
