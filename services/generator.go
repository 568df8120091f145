package services

import (
	"fmt"
	"math/rand"

	"github.com/shopspring/decimal"

	"property-analyser/models"
)

// DefaultSuburbs is the suburb pool used for synthetic data.
var DefaultSuburbs = []string{
	"Woodstock", "Salt River", "Observatory", "Mowbray", "Rondebosch",
	"Claremont", "Kenilworth", "Wynberg", "Plumstead", "Diep River",
	"Constantia", "Sea Point", "Green Point", "Camps Bay", "City Bowl",
}

var streets = []string{"Main", "Victoria", "Long"}

// Generator produces reproducible synthetic listings for benchmarking and demos.
type Generator struct {
	rng     *rand.Rand
	suburbs []string
	lastID  int64
}

// NewGenerator creates a Generator seeded with seed over DefaultSuburbs.
func NewGenerator(seed int64) *Generator {
	return &Generator{
		rng:     rand.New(rand.NewSource(seed)),
		suburbs: DefaultSuburbs,
	}
}

// Generate returns the next n listings. Ids continue from the previous call,
// starting at 1. Prices fall in 1.5M–15M, areas in 80–1000 and gross yields
// in 3–12%.
func (g *Generator) Generate(n int) []*models.Listing {
	out := make([]*models.Listing, 0, n)
	for i := 0; i < n; i++ {
		g.lastID++
		out = append(out, g.next(g.lastID))
	}
	return out
}

func (g *Generator) next(id int64) *models.Listing {
	price := g.between(1_500_000, 15_000_000)
	area := g.between(80, 1000)
	yield := 0.03 + g.rng.Float64()*0.09
	income := int64(float64(price) * yield)

	return &models.Listing{
		ListingID:         id,
		Address:           fmt.Sprintf("%d %s Rd", g.between(1, 200), streets[g.rng.Intn(len(streets))]),
		Suburb:            g.suburbs[g.rng.Intn(len(g.suburbs))],
		Price:             decimal.NewFromInt(price),
		GrossLettableArea: float64(area),
		NetAnnualIncome:   decimal.NewFromInt(income),
	}
}

// between returns a value in [lo, hi].
func (g *Generator) between(lo, hi int64) int64 {
	return lo + g.rng.Int63n(hi-lo+1)
}
