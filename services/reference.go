package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"fipe-garimpo/fipe"
	"fipe-garimpo/models"
	"fipe-garimpo/scraper"
)

// ErrNoReferencePrice is returned when a detail page carries no structured
// price entry labelled with the reference index.
var ErrNoReferencePrice = errors.New("no reference price in structured data")

// ReferencePriceResolver finds the reference valuation for a candidate.
type ReferencePriceResolver interface {
	Resolve(ctx context.Context, cand models.ListingCandidate) (int, error)
}

// QuoteLookup is the part of the reference-price service the API strategy
// needs. *fipe.Client satisfies it.
type QuoteLookup interface {
	Lookup(ctx context.Context, q models.ReferencePriceQuery) (fipe.Quote, error)
}

// APIResolver tokenizes the title and walks the reference-price service.
type APIResolver struct {
	lookup QuoteLookup
}

func NewAPIResolver(lookup QuoteLookup) *APIResolver {
	return &APIResolver{lookup: lookup}
}

func (r *APIResolver) Resolve(ctx context.Context, cand models.ListingCandidate) (int, error) {
	q := QueryFromTitle(cand.Title)
	if !q.Complete() {
		return 0, fmt.Errorf("%w: title %q does not yield brand, model and year", fipe.ErrNoMatch, cand.Title)
	}
	quote, err := r.lookup.Lookup(ctx, q)
	if err != nil {
		return 0, err
	}
	return ParseReferenceValue(quote.Value)
}

// EmbeddedResolver reads the reference price out of structured data
// embedded in the listing's detail page.
type EmbeddedResolver struct {
	fetcher   scraper.PageFetcher
	indexName string
}

// NewEmbeddedResolver creates an EmbeddedResolver that looks for price
// entries whose label mentions indexName, ignoring case.
func NewEmbeddedResolver(fetcher scraper.PageFetcher, indexName string) *EmbeddedResolver {
	return &EmbeddedResolver{fetcher: fetcher, indexName: strings.ToLower(indexName)}
}

func (r *EmbeddedResolver) Resolve(ctx context.Context, cand models.ListingCandidate) (int, error) {
	page, err := r.fetcher.Fetch(ctx, cand.DetailURL)
	if err != nil {
		return 0, err
	}
	return r.FromMarkup(page)
}

// FromMarkup scans every JSON script block of a detail page.
func (r *EmbeddedResolver) FromMarkup(page []byte) (int, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return 0, fmt.Errorf("parse detail page: %w", err)
	}

	var found *int
	doc.Find(`script[type="application/ld+json"], script[type="application/json"]`).EachWithBreak(
		func(_ int, s *goquery.Selection) bool {
			dec := json.NewDecoder(strings.NewReader(s.Text()))
			dec.UseNumber()
			var block any
			if err := dec.Decode(&block); err != nil {
				return true
			}
			if price, ok := r.scan(block); ok {
				found = &price
				return false
			}
			return true
		},
	)
	if found == nil {
		return 0, ErrNoReferencePrice
	}
	return *found, nil
}

var labelKeys = []string{"name", "description", "priceType", "valueReference"}

// scan walks a decoded JSON value depth-first in a stable key order and
// returns the first labelled price it can parse.
func (r *EmbeddedResolver) scan(v any) (int, bool) {
	switch node := v.(type) {
	case map[string]any:
		if r.labelled(node) {
			if price, ok := priceOf(node["price"]); ok {
				return price, true
			}
		}
		keys := make([]string, 0, len(node))
		for k := range node {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			if price, ok := r.scan(node[k]); ok {
				return price, true
			}
		}
	case []any:
		for _, item := range node {
			if price, ok := r.scan(item); ok {
				return price, true
			}
		}
	}
	return 0, false
}

func (r *EmbeddedResolver) labelled(node map[string]any) bool {
	for _, key := range labelKeys {
		if label, ok := node[key].(string); ok && strings.Contains(strings.ToLower(label), r.indexName) {
			return true
		}
	}
	return false
}

func priceOf(v any) (int, bool) {
	switch p := v.(type) {
	case json.Number:
		f, err := p.Float64()
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
			return 0, false
		}
		return int(f), true
	case string:
		price, err := parseNumber(p)
		if err != nil {
			return 0, false
		}
		return price, true
	default:
		return 0, false
	}
}
