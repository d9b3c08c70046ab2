package presenter

import (
	_ "embed"
	"fmt"

	"github.com/titanous/json5"

	"fipe-garimpo/config"
	"fipe-garimpo/models"
)

//go:embed demo.json5
var demoData []byte

// DemoListing is a static sample listing. Unlike live listings it carries
// mileage.
type DemoListing struct {
	Title          string `json:"title"`
	Price          int    `json:"price"`
	ReferencePrice int    `json:"reference_price"`
	Mileage        int    `json:"mileage"`
	URL            string `json:"url"`
	Image          string `json:"image"`
}

// LoadDemo reads a demo dataset from path, or the built-in one when path
// is empty.
func LoadDemo(path string) ([]DemoListing, error) {
	if path != "" {
		return config.ReadJSON5[[]DemoListing](path)
	}
	var out []DemoListing
	if err := json5.Unmarshal(demoData, &out); err != nil {
		return nil, fmt.Errorf("presenter: parse demo data: %w", err)
	}
	return out, nil
}

// Normalize converts demo listings to the pipeline's model and returns the
// mileage of each, keyed by detail URL.
func Normalize(demo []DemoListing, region string) ([]models.NormalizedListing, map[string]int) {
	listings := make([]models.NormalizedListing, 0, len(demo))
	mileage := make(map[string]int, len(demo))
	for _, d := range demo {
		l := models.NormalizedListing{
			Title:     d.Title,
			ListPrice: d.Price,
			DetailURL: d.URL,
			ImageURL:  d.Image,
			Region:    region,
		}
		if d.ReferencePrice > 0 {
			l = l.WithReferencePrice(d.ReferencePrice)
		}
		listings = append(listings, l)
		mileage[d.URL] = d.Mileage
	}
	return listings, mileage
}
