// Package olx holds the site profile for OLX Brasil car listings: where the
// index page lives and how listing cards are laid out in its markup.
package olx

import "fipe-garimpo/scraper"

const (
	// IndexURL is the state-scoped car listing page.
	IndexURL = "https://www.olx.com.br/autos-e-pecas/carros-vans-e-utilitarios/estado-pr"
	// BaseOrigin prefixes relative detail links.
	BaseOrigin = "https://www.olx.com.br"
)

// Fields describes one listing card on the index page.
func Fields() scraper.FieldMap {
	return scraper.FieldMap{
		Item: "li.sc-1fcmfeb-2",
		Fields: map[string]scraper.FieldSelector{
			scraper.FieldTitle: {Selector: "h2"},
			scraper.FieldPrice: {Selector: "p.sc-ifAKCX.eoKYee"},
			scraper.FieldLink:  {Selector: "a", Attrs: []string{"href"}},
			scraper.FieldImage: {Selector: "img", Attrs: []string{"src", "data-src"}},
		},
	}
}

// NewExtractor builds an Extractor for OLX index pages.
func NewExtractor(baseOrigin string) (*scraper.Extractor, error) {
	if baseOrigin == "" {
		baseOrigin = BaseOrigin
	}
	return scraper.NewExtractor(scraper.GoqueryExtractor{}, Fields(), baseOrigin)
}
