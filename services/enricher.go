package services

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"fipe-garimpo/models"
	"fipe-garimpo/utils"
)

var tracer = otel.Tracer("fipe-garimpo/services")

// EnricherOptions wires the Enricher's collaborators. Timeout bounds every
// network call made for a single candidate; zero leaves calls unbounded.
type EnricherOptions struct {
	Liveness        LivenessChecker
	Resolver        ReferencePriceResolver
	Region          string
	Timeout         time.Duration
	MaxConcurrency  int
	RateLimitPerSec float64
	Logger          *utils.Logger
}

// Enricher validates candidates and attaches their reference price.
type Enricher struct {
	opts    EnricherOptions
	cleaner *Cleaner
	logger  *utils.Logger
}

func NewEnricher(opts EnricherOptions) *Enricher {
	if opts.Logger == nil {
		opts.Logger = utils.NewNopLogger()
	}
	return &Enricher{
		opts:    opts,
		cleaner: NewCleaner(opts.Logger),
		logger:  opts.Logger,
	}
}

// Enrich runs the checks for one candidate in order: price parse, liveness,
// reference price. The first failure rejects the candidate and the returned
// error wraps models.ErrEnrichmentRejected.
func (e *Enricher) Enrich(ctx context.Context, cand models.ListingCandidate) (models.NormalizedListing, error) {
	ctx, span := tracer.Start(ctx, "Enrich")
	defer span.End()
	span.SetAttributes(attribute.String("listing.url", cand.DetailURL))

	listing, err := e.enrich(ctx, cand)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "rejected")
		return models.NormalizedListing{}, err
	}
	return listing, nil
}

func (e *Enricher) enrich(ctx context.Context, cand models.ListingCandidate) (models.NormalizedListing, error) {
	listing, err := e.cleaner.Normalize(cand, e.opts.Region)
	if err != nil {
		return models.NormalizedListing{}, reject("price", err)
	}

	if e.opts.Liveness != nil {
		err := e.withTimeout(ctx, func(ctx context.Context) error {
			return e.opts.Liveness.Check(ctx, listing.DetailURL)
		})
		if err != nil {
			return models.NormalizedListing{}, reject("liveness", err)
		}
	}

	if e.opts.Resolver == nil {
		return listing, nil
	}

	var ref int
	err = e.withTimeout(ctx, func(ctx context.Context) error {
		var err error
		ref, err = e.opts.Resolver.Resolve(ctx, cand)
		return err
	})
	if err != nil {
		return models.NormalizedListing{}, reject("reference price", err)
	}
	return listing.WithReferencePrice(ref), nil
}

func (e *Enricher) withTimeout(ctx context.Context, fn func(ctx context.Context) error) error {
	if e.opts.Timeout <= 0 {
		return fn(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, e.opts.Timeout)
	defer cancel()
	return fn(ctx)
}

func reject(stage string, err error) error {
	return fmt.Errorf("%w: %s: %w", models.ErrEnrichmentRejected, stage, err)
}

// EnrichAll enriches a batch concurrently. Rejected candidates are dropped
// and logged; survivors keep the order of the input. Duplicate detail URLs
// are enriched once.
func (e *Enricher) EnrichAll(ctx context.Context, candidates []models.ListingCandidate) []models.NormalizedListing {
	slots := make([]*models.NormalizedListing, len(candidates))
	seen := utils.NewURLSet()
	pool := utils.NewWorkerPool(e.opts.MaxConcurrency, e.opts.RateLimitPerSec)

	for i, cand := range candidates {
		if !seen.Add(cand.DetailURL) {
			e.logger.Debug("Skipping duplicate listing %s", cand.DetailURL)
			continue
		}
		pool.Submit(ctx, func(ctx context.Context) {
			defer func() {
				if r := recover(); r != nil {
					e.logger.Error("Enrichment panicked for %s: %v", cand.DetailURL, r)
				}
			}()

			listing, err := e.Enrich(ctx, cand)
			if err != nil {
				e.logger.Debug("Dropping %s: %v", cand.DetailURL, err)
				return
			}
			slots[i] = &listing
		})
	}
	pool.Wait()

	out := make([]models.NormalizedListing, 0, len(candidates))
	for _, l := range slots {
		if l != nil {
			out = append(out, *l)
		}
	}
	e.logger.Info("Enriched %d of %d candidates (%d unique)", len(out), len(candidates), seen.Size())
	return out
}
