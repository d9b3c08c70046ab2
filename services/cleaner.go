package services

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"fipe-garimpo/models"
	"fipe-garimpo/utils"
)

var (
	// centsRegexp captures a trailing decimal-comma fraction ("R$ 45.000,00")
	centsRegexp = regexp.MustCompile(`,\d{1,2}\s*$`)
	// plainDecimalRegexp matches machine-formatted numbers ("45000.00")
	plainDecimalRegexp = regexp.MustCompile(`^\d+(\.\d+)?$`)
	// groupedRegexp matches dot-grouped thousands ("45.000")
	groupedRegexp = regexp.MustCompile(`^\d{1,3}(\.\d{3})+$`)
)

// Cleaner turns ListingCandidates into NormalizedListings.
type Cleaner struct {
	logger *utils.Logger
}

// NewCleaner creates a Cleaner with the given logger.
func NewCleaner(logger *utils.Logger) *Cleaner {
	return &Cleaner{logger: logger}
}

// Normalize parses the candidate's price and tidies its text fields. A
// price that does not parse rejects the candidate; it is never defaulted.
func (c *Cleaner) Normalize(cand models.ListingCandidate, region string) (models.NormalizedListing, error) {
	price, err := ParsePriceText(cand.RawPriceText)
	if err != nil {
		return models.NormalizedListing{}, err
	}
	return models.NormalizedListing{
		Title:     normaliseText(cand.Title),
		ListPrice: price,
		DetailURL: strings.TrimSpace(cand.DetailURL),
		ImageURL:  strings.TrimSpace(cand.ImageURL),
		Region:    region,
	}, nil
}

// ParsePriceText parses listing price text such as "R$ 45.000".
func ParsePriceText(raw string) (int, error) {
	return parseCurrency(raw)
}

// ParseReferenceValue parses a reference valuation such as "R$ 45.000,00".
// The fraction after the decimal comma is dropped.
func ParseReferenceValue(raw string) (int, error) {
	return parseCurrency(raw)
}

// parseCurrency reduces Brazilian-formatted money text to whole units by
// dropping the cents and every non-digit character.
func parseCurrency(raw string) (int, error) {
	s := strings.TrimSpace(raw)
	s = centsRegexp.ReplaceAllString(s, "")

	if first := strings.IndexFunc(s, unicode.IsDigit); first > 0 && strings.ContainsRune(s[:first], '-') {
		return 0, fmt.Errorf("%w: %q is negative", models.ErrPriceParse, raw)
	}

	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
	if digits == "" {
		return 0, fmt.Errorf("%w: %q", models.ErrPriceParse, raw)
	}

	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", models.ErrPriceParse, raw, err)
	}
	return n, nil
}

// parseNumber accepts either machine-formatted decimals or currency text.
// Dot-grouped thousands and anything with a comma are read as currency.
func parseNumber(raw string) (int, error) {
	s := strings.TrimSpace(raw)
	if groupedRegexp.MatchString(s) || strings.Contains(s, ",") {
		return parseCurrency(s)
	}
	if plainDecimalRegexp.MatchString(s) {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q: %v", models.ErrPriceParse, raw, err)
		}
		return int(f), nil
	}
	return parseCurrency(s)
}

// normaliseText strips leading/trailing whitespace and collapses internal whitespace.
func normaliseText(s string) string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r)
	})
	return strings.Join(fields, " ")
}
