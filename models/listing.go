package models

// ListingCandidate is an unvalidated record read from a listing index page.
// Every field is non-empty once the Extractor emits it.
type ListingCandidate struct {
	Title        string
	RawPriceText string
	DetailURL    string
	ImageURL     string
}

// NormalizedListing is a candidate that passed enrichment. Prices are whole
// currency units. ReferencePrice is nil when no reference valuation was
// resolved.
type NormalizedListing struct {
	Title          string
	ListPrice      int
	DetailURL      string
	ImageURL       string
	Region         string
	ReferencePrice *int
}

// HasReferencePrice reports whether a reference valuation is attached.
func (l NormalizedListing) HasReferencePrice() bool {
	return l.ReferencePrice != nil
}

// WithReferencePrice returns a copy of l carrying the given reference price.
func (l NormalizedListing) WithReferencePrice(price int) NormalizedListing {
	l.ReferencePrice = &price
	return l
}

// ReferencePriceQuery is the (brand, model, year) triple derived from a
// listing title. Empty fields make the listing ineligible for lookup.
type ReferencePriceQuery struct {
	Brand string
	Model string
	Year  string
}

// Complete reports whether all three fields are present.
func (q ReferencePriceQuery) Complete() bool {
	return q.Brand != "" && q.Model != "" && q.Year != ""
}

// QualifyingListing is a NormalizedListing whose margin cleared the
// caller's threshold.
type QualifyingListing struct {
	NormalizedListing
	Margin int
}

// Result is what the pipeline hands to a presenter: qualifying listings in
// presentation order plus the threshold that produced them.
type Result struct {
	Listings  []QualifyingListing
	Threshold int
}

// Summary holds aggregate figures over a qualifying set.
type Summary struct {
	TotalListings   int
	AverageMargin   float64
	MinMargin       int
	MaxMargin       int
	AverageDiscount float64
	BestDeal        *QualifyingListing
	ListingsByBrand map[string]int
}
