package services

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"

	"property-analyser/models"
	"property-analyser/utils"
)

// number matches a whole amount with optional thousands grouping by commas or
// spaces: "1250000", "1 250 000", "-1,250,000.50".
const number = `(-?(?:\d{1,3}(?:[, \x{00a0}]\d{3})+|\d+)(?:\.\d+)?)`

var (
	// moneyRegexp allows a currency prefix: "R 1 250 000", "$1,200.50", "ZAR 3,500,000".
	moneyRegexp = regexp.MustCompile(`^(?:[A-Za-z]{1,3}\s*|[$€£]\s*)?` + number + `$`)
	// areaRegexp allows a unit suffix: "120 m²", "120m2", "12.5 sqm".
	areaRegexp = regexp.MustCompile(`(?i)^` + number + `\s*(?:m²|m2|sqm|sq\s?m)?$`)
)

// Cleaner turns RawListings into typed Listings.
type Cleaner struct {
	logger *utils.Logger
}

// NewCleaner creates a Cleaner with the given logger.
func NewCleaner(logger *utils.Logger) *Cleaner {
	return &Cleaner{logger: logger}
}

// Clean parses raw rows. Blank numeric fields become zero; a row whose listing
// id or numeric fields cannot be parsed is dropped with a warning. Suburb is
// passed through unchanged.
func (c *Cleaner) Clean(raw []*models.RawListing) []*models.Listing {
	result := make([]*models.Listing, 0, len(raw))

	for i, r := range raw {
		if r == nil {
			continue
		}
		listing, err := c.parse(r)
		if err != nil {
			c.logger.Warn("[cleaner] Dropping row %d (listing %q): %v", i+1, r.ListingID, err)
			continue
		}
		result = append(result, listing)
	}

	c.logger.Info("[cleaner] Cleaned %d → %d listings (dropped %d)",
		len(raw), len(result), len(raw)-len(result))
	return result
}

func (c *Cleaner) parse(r *models.RawListing) (*models.Listing, error) {
	id, err := parseID(r.ListingID)
	if err != nil {
		return nil, err
	}
	price, err := parseMoney(r.Price)
	if err != nil {
		return nil, fmt.Errorf("price: %w", err)
	}
	income, err := parseMoney(r.NetAnnualIncome)
	if err != nil {
		return nil, fmt.Errorf("net annual income: %w", err)
	}
	area, err := parseArea(r.GrossLettableArea)
	if err != nil {
		return nil, fmt.Errorf("gross lettable area: %w", err)
	}

	return &models.Listing{
		ListingID:         id,
		Address:           normaliseText(r.Address),
		Suburb:            r.Suburb,
		Price:             price,
		GrossLettableArea: area,
		NetAnnualIncome:   income,
	}, nil
}

func parseID(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("listing id %q is not an integer", raw)
	}
	return id, nil
}

// numericToken matches the whole of raw against re and returns the number with
// separators removed. Blank or placeholder values ("", "N/A") yield "".
func numericToken(re *regexp.Regexp, raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "N/A") {
		return "", nil
	}
	m := re.FindStringSubmatch(raw)
	if m == nil {
		return "", fmt.Errorf("%q is not a number", raw)
	}
	return strings.Map(func(r rune) rune {
		if r == ',' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, m[1]), nil
}

// parseMoney accepts a currency prefix and thousands separators. Blank values
// are zero.
func parseMoney(raw string) (decimal.Decimal, error) {
	token, err := numericToken(moneyRegexp, raw)
	if err != nil || token == "" {
		return decimal.Zero, err
	}
	d, err := decimal.NewFromString(token)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse %q: %w", raw, err)
	}
	return d, nil
}

func parseArea(raw string) (float64, error) {
	token, err := numericToken(areaRegexp, raw)
	if err != nil || token == "" {
		return 0, err
	}
	v, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %q: %w", raw, err)
	}
	return v, nil
}

// normaliseText strips leading/trailing whitespace and collapses internal whitespace.
func normaliseText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
