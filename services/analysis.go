package services

import (
	"sort"

	"property-analyser/models"
	"property-analyser/utils"
)

const (
	// YieldThreshold is the rental yield (percent) a listing must strictly
	// exceed to count towards its suburb.
	YieldThreshold = 7.0
	// TopSuburbs caps the number of reports returned.
	TopSuburbs = 5
)

// AnalysisService ranks suburbs by rental yield. It holds no state between
// calls; workers only controls how many suburb groups are summarised at once.
type AnalysisService struct {
	logger  *utils.Logger
	workers int
}

// NewAnalysisService creates an AnalysisService. workers below 2 runs the
// per-suburb pass sequentially.
func NewAnalysisService(logger *utils.Logger, workers int) *AnalysisService {
	if logger == nil {
		logger = utils.NewDiscardLogger()
	}
	return &AnalysisService{logger: logger, workers: workers}
}

// Analyze ranks the top suburbs by average rental yield over listings, running
// on the calling goroutine.
func Analyze(listings []*models.Listing) []models.SuburbReport {
	return NewAnalysisService(nil, 1).Analyze(listings)
}

// suburbGroup collects the metrics of the listings in one suburb that passed
// the yield threshold.
type suburbGroup struct {
	name        string
	yields      []float64
	pricePerSqM []float64
}

// Analyze filters listings on YieldThreshold, groups the survivors by exact
// suburb name and returns at most TopSuburbs reports ordered by AverageYield
// descending, then Name ascending. The result is never nil.
func (s *AnalysisService) Analyze(listings []*models.Listing) []models.SuburbReport {
	groups := groupHighYield(listings)
	reports := make([]models.SuburbReport, len(groups))

	if s.workers > 1 && len(groups) > 1 {
		pool := utils.NewWorkerPool(s.workers, 0)
		for i, g := range groups {
			i, g := i, g
			pool.Submit(func() {
				reports[i] = summarise(g)
			})
		}
		pool.Wait()
	} else {
		for i, g := range groups {
			reports[i] = summarise(g)
		}
	}

	rankReports(reports)
	if len(reports) > TopSuburbs {
		reports = reports[:TopSuburbs]
	}

	s.logger.Debug("[analysis] %d listings -> %d suburbs above %.1f%% -> %d reported",
		len(listings), len(groups), YieldThreshold, len(reports))
	return reports
}

func groupHighYield(listings []*models.Listing) []*suburbGroup {
	index := make(map[string]*suburbGroup)
	var groups []*suburbGroup

	for _, l := range listings {
		if l == nil {
			continue
		}
		m := DeriveMetrics(l)
		if m.RentalYield <= YieldThreshold {
			continue
		}

		g, ok := index[l.Suburb]
		if !ok {
			g = &suburbGroup{name: l.Suburb}
			index[l.Suburb] = g
			groups = append(groups, g)
		}
		g.yields = append(g.yields, m.RentalYield)
		g.pricePerSqM = append(g.pricePerSqM, m.PricePerSqM)
	}
	return groups
}

func summarise(g *suburbGroup) models.SuburbReport {
	return models.SuburbReport{
		Name:               g.name,
		PropertyCount:      len(g.yields),
		AverageYield:       round2(mean(g.yields)),
		AveragePricePerSqM: round2(mean(g.pricePerSqM)),
		MedianPricePerSqM:  round2(median(g.pricePerSqM)),
		StdDevYield:        round2(sampleStdDev(g.yields)),
	}
}

// rankReports orders by rounded AverageYield descending. Suburb names are
// unique within a run, so the name tie-break makes the order total.
func rankReports(reports []models.SuburbReport) {
	sort.Slice(reports, func(i, j int) bool {
		if reports[i].AverageYield != reports[j].AverageYield {
			return reports[i].AverageYield > reports[j].AverageYield
		}
		return reports[i].Name < reports[j].Name
	})
}
