package services

import (
	"fmt"
	"slices"

	"fipe-garimpo/models"
)

// ThresholdRange bounds the margin threshold a caller may pick.
type ThresholdRange struct {
	Min, Max, Step, Default int
}

// DefaultThresholdRange is 2000..30000 in steps of 1000, defaulting to 4000.
var DefaultThresholdRange = ThresholdRange{Min: 2000, Max: 30000, Step: 1000, Default: 4000}

// Validate reports whether t is one of the range's steps.
func (r ThresholdRange) Validate(t int) error {
	if t < r.Min || t > r.Max {
		return fmt.Errorf("threshold %d outside %d..%d", t, r.Min, r.Max)
	}
	if r.Step > 0 && (t-r.Min)%r.Step != 0 {
		return fmt.Errorf("threshold %d is not a multiple of %d from %d", t, r.Step, r.Min)
	}
	return nil
}

// Steps lists every selectable threshold in ascending order.
func (r ThresholdRange) Steps() []int {
	if r.Step <= 0 {
		return []int{r.Min}
	}
	var out []int
	for t := r.Min; t <= r.Max; t += r.Step {
		out = append(out, t)
	}
	return out
}

// Qualify keeps listings whose margin meets threshold and orders them by
// descending margin, ties in input order. Listings without a reference
// price are excluded. The input is not modified.
func Qualify(listings []models.NormalizedListing, threshold int) []models.QualifyingListing {
	out := make([]models.QualifyingListing, 0, len(listings))
	for _, l := range listings {
		if !l.HasReferencePrice() {
			continue
		}
		margin := *l.ReferencePrice - l.ListPrice
		if margin < threshold {
			continue
		}
		out = append(out, models.QualifyingListing{NormalizedListing: l, Margin: margin})
	}
	slices.SortStableFunc(out, func(a, b models.QualifyingListing) int {
		return b.Margin - a.Margin
	})
	return out
}
