package scraper

import (
	"bytes"
	"fmt"
	"iter"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"fipe-garimpo/models"
)

// Field names every site profile must map.
const (
	FieldTitle = "title"
	FieldPrice = "price"
	FieldLink  = "link"
	FieldImage = "image"
)

// FieldSelector locates one field inside a listing-item node. With no Attrs
// the text content is read; otherwise the first non-empty attribute wins.
type FieldSelector struct {
	Selector string
	Attrs    []string
}

// FieldMap declares how listing items and their fields are found in markup.
type FieldMap struct {
	Item   string
	Fields map[string]FieldSelector
}

// Record is one listing-item node reduced to field name -> raw value.
type Record map[string]string

// FieldExtractor turns markup into records according to a FieldMap.
type FieldExtractor interface {
	Extract(markup []byte, fields FieldMap) (iter.Seq[Record], error)
}

// GoqueryExtractor implements FieldExtractor with CSS selectors.
type GoqueryExtractor struct{}

func (GoqueryExtractor) Extract(markup []byte, fields FieldMap) (iter.Seq[Record], error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse markup: %w", err)
	}

	items := doc.Find(fields.Item)
	return func(yield func(Record) bool) {
		for i := range items.Nodes {
			item := items.Eq(i)
			rec := make(Record, len(fields.Fields))
			for name, fs := range fields.Fields {
				rec[name] = fs.read(item)
			}
			if !yield(rec) {
				return
			}
		}
	}, nil
}

func (fs FieldSelector) read(item *goquery.Selection) string {
	node := item
	if fs.Selector != "" {
		node = item.Find(fs.Selector).First()
	}
	if len(fs.Attrs) == 0 {
		return strings.TrimSpace(node.Text())
	}
	for _, attr := range fs.Attrs {
		if v, ok := node.Attr(attr); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// Extractor produces ListingCandidates from a listing index page. It does
// no network I/O.
type Extractor struct {
	fields   FieldExtractor
	fieldMap FieldMap
	base     *url.URL
}

// NewExtractor creates an Extractor. Relative detail links are resolved
// against baseOrigin.
func NewExtractor(fields FieldExtractor, fieldMap FieldMap, baseOrigin string) (*Extractor, error) {
	base, err := url.Parse(baseOrigin)
	if err != nil {
		return nil, fmt.Errorf("base origin %q: %w", baseOrigin, err)
	}
	if !base.IsAbs() {
		return nil, fmt.Errorf("base origin %q is not absolute", baseOrigin)
	}
	return &Extractor{fields: fields, fieldMap: fieldMap, base: base}, nil
}

// Candidates lazily yields one candidate per complete listing-item node, in
// document order. Incomplete nodes are skipped.
func (e *Extractor) Candidates(markup []byte) (iter.Seq[models.ListingCandidate], error) {
	records, err := e.fields.Extract(markup, e.fieldMap)
	if err != nil {
		return nil, err
	}
	return func(yield func(models.ListingCandidate) bool) {
		for rec := range records {
			c, err := e.candidate(rec)
			if err != nil {
				continue
			}
			if !yield(c) {
				return
			}
		}
	}, nil
}

func (e *Extractor) candidate(rec Record) (models.ListingCandidate, error) {
	c := models.ListingCandidate{
		Title:        strings.TrimSpace(rec[FieldTitle]),
		RawPriceText: strings.TrimSpace(rec[FieldPrice]),
		DetailURL:    strings.TrimSpace(rec[FieldLink]),
		ImageURL:     strings.TrimSpace(rec[FieldImage]),
	}
	if c.Title == "" || c.RawPriceText == "" || c.DetailURL == "" || c.ImageURL == "" {
		return models.ListingCandidate{}, models.ErrCandidateIncomplete
	}

	link, err := e.absolute(c.DetailURL)
	if err != nil {
		return models.ListingCandidate{}, fmt.Errorf("%w: link %q: %v", models.ErrCandidateIncomplete, c.DetailURL, err)
	}
	c.DetailURL = link
	return c, nil
}

func (e *Extractor) absolute(link string) (string, error) {
	ref, err := url.Parse(link)
	if err != nil {
		return "", err
	}
	if ref.IsAbs() {
		return link, nil
	}
	return e.base.ResolveReference(ref).String(), nil
}
