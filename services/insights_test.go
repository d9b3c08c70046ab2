package services

import (
	"testing"

	"fipe-garimpo/models"
)

func sampleQualifying() []models.QualifyingListing {
	return Qualify([]models.NormalizedListing{
		listing("Fiat Uno 2012", 20000, 25000),
		listing("Fiat Palio 2014", 22000, 30000),
		listing("VW Gol 2015", 30000, 40000),
		listing("Honda Fit 2016", 50000, 50000),
	}, 4000)
}

func TestInsightCounts(t *testing.T) {
	svc := NewInsightService(newTestLogger())
	r := svc.Generate(sampleQualifying())
	if r.TotalListings != 3 {
		t.Errorf("TotalListings: got %d, want 3", r.TotalListings)
	}
	if r.ListingsByBrand["fiat"] != 2 {
		t.Errorf("fiat: got %d, want 2", r.ListingsByBrand["fiat"])
	}
	if r.ListingsByBrand["vw"] != 1 {
		t.Errorf("vw: got %d, want 1", r.ListingsByBrand["vw"])
	}
}

func TestInsightMargins(t *testing.T) {
	svc := NewInsightService(newTestLogger())
	r := svc.Generate(sampleQualifying())
	if r.MinMargin != 5000 {
		t.Errorf("MinMargin: got %d, want 5000", r.MinMargin)
	}
	if r.MaxMargin != 10000 {
		t.Errorf("MaxMargin: got %d, want 10000", r.MaxMargin)
	}
	if want := 7666.67; r.AverageMargin != want {
		t.Errorf("AverageMargin: got %.2f, want %.2f", r.AverageMargin, want)
	}
	// 20%, 26.67%, 25%
	if want := 23.89; r.AverageDiscount != want {
		t.Errorf("AverageDiscount: got %.2f, want %.2f", r.AverageDiscount, want)
	}
}

func TestInsightBestDeal(t *testing.T) {
	svc := NewInsightService(newTestLogger())
	r := svc.Generate(sampleQualifying())
	if r.BestDeal == nil {
		t.Fatal("BestDeal should not be nil")
	}
	if r.BestDeal.Title != "VW Gol 2015" {
		t.Errorf("BestDeal: got %q, want %q", r.BestDeal.Title, "VW Gol 2015")
	}
}

func TestInsightEmpty(t *testing.T) {
	svc := NewInsightService(newTestLogger())
	r := svc.Generate(nil)
	if r.TotalListings != 0 || r.BestDeal != nil {
		t.Errorf("expected empty summary, got %+v", r)
	}
	if r.ListingsByBrand == nil {
		t.Error("ListingsByBrand should be initialised")
	}
}
