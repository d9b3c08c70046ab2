// Package pipeline turns one listing index page into normalized, priced
// listings and keeps the result around for re-filtering.
package pipeline

import (
	"context"
	"fmt"
	"slices"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"fipe-garimpo/models"
	"fipe-garimpo/scraper"
	"fipe-garimpo/services"
	"fipe-garimpo/utils"
)

var tracer = otel.Tracer("fipe-garimpo/pipeline")

// Options wires a Pipeline. Retry governs the index fetch only.
type Options struct {
	IndexURL  string
	Fetcher   scraper.PageFetcher
	Extractor *scraper.Extractor
	Enricher  *services.Enricher
	Retry     utils.RetryConfig
	Logger    *utils.Logger
}

type Pipeline struct {
	opts   Options
	logger *utils.Logger
}

func New(opts Options) *Pipeline {
	if opts.Logger == nil {
		opts.Logger = utils.NewNopLogger()
	}
	if opts.Retry.Logger == nil {
		opts.Retry.Logger = opts.Logger
	}
	return &Pipeline{opts: opts, logger: opts.Logger}
}

// Build fetches the index, extracts candidates and enriches them. A failed
// index fetch is logged and yields an empty slice.
func (p *Pipeline) Build(ctx context.Context) []models.NormalizedListing {
	listings, err := p.build(ctx)
	if err != nil {
		p.logger.Error("Listing build failed: %v", err)
		return []models.NormalizedListing{}
	}
	return listings
}

// Listings builds and filters in one step.
func (p *Pipeline) Listings(ctx context.Context, threshold int) models.Result {
	return models.Result{
		Listings:  services.Qualify(p.Build(ctx), threshold),
		Threshold: threshold,
	}
}

func (p *Pipeline) build(ctx context.Context) ([]models.NormalizedListing, error) {
	ctx, span := tracer.Start(ctx, "Build")
	defer span.End()
	span.SetAttributes(attribute.String("index.url", p.opts.IndexURL))

	candidates, err := p.candidates(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "source unavailable")
		return nil, err
	}
	span.SetAttributes(attribute.Int("candidates", len(candidates)))
	p.logger.Info("Extracted %d candidates from %s", len(candidates), p.opts.IndexURL)

	if len(candidates) == 0 {
		return []models.NormalizedListing{}, nil
	}
	return p.opts.Enricher.EnrichAll(ctx, candidates), nil
}

func (p *Pipeline) candidates(ctx context.Context) ([]models.ListingCandidate, error) {
	var page []byte
	err := p.opts.Retry.Do(ctx, "index fetch", func(ctx context.Context) error {
		var err error
		page, err = p.opts.Fetcher.Fetch(ctx, p.opts.IndexURL)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrSourceUnavailable, err)
	}

	seq, err := p.opts.Extractor.Candidates(page)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrSourceUnavailable, err)
	}
	return slices.Collect(seq), nil
}
