package services

import (
	"fipe-garimpo/models"
	"fipe-garimpo/utils"
)

type InsightService struct {
	logger *utils.Logger
}

func NewInsightService(logger *utils.Logger) *InsightService {
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return &InsightService{logger: logger}
}

// Generate summarises a qualifying set. AverageDiscount is the mean margin
// as a percentage of the reference price.
func (s *InsightService) Generate(listings []models.QualifyingListing) *models.Summary {
	summary := &models.Summary{
		ListingsByBrand: make(map[string]int),
	}

	if len(listings) == 0 {
		return summary
	}

	summary.TotalListings = len(listings)
	summary.MinMargin = listings[0].Margin
	summary.MaxMargin = listings[0].Margin
	summary.BestDeal = &listings[0]

	var totalMargin, totalDiscount float64
	var discounted int
	for i, l := range listings {
		totalMargin += float64(l.Margin)
		if l.Margin < summary.MinMargin {
			summary.MinMargin = l.Margin
		}
		if l.Margin > summary.MaxMargin {
			summary.MaxMargin = l.Margin
			summary.BestDeal = &listings[i]
		}
		if l.ReferencePrice != nil && *l.ReferencePrice > 0 {
			totalDiscount += float64(l.Margin) / float64(*l.ReferencePrice) * 100
			discounted++
		}
		if brand := QueryFromTitle(l.Title).Brand; brand != "" {
			summary.ListingsByBrand[brand]++
		}
	}

	summary.AverageMargin = round2(totalMargin / float64(len(listings)))
	if discounted > 0 {
		summary.AverageDiscount = round2(totalDiscount / float64(discounted))
	}

	s.logger.Debug("Summary over %d listings: best margin %d", summary.TotalListings, summary.MaxMargin)
	return summary
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}
