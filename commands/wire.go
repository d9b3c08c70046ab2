package commands

import (
	"fmt"
	"time"

	"fipe-garimpo/config"
	"fipe-garimpo/fipe"
	"fipe-garimpo/pipeline"
	"fipe-garimpo/scraper"
	"fipe-garimpo/scraper/olx"
	"fipe-garimpo/services"
	"fipe-garimpo/utils"
)

const browserSettle = 3 * time.Second

func thresholdRange(cfg *config.Config) services.ThresholdRange {
	return services.ThresholdRange{
		Min:     cfg.ThresholdMin,
		Max:     cfg.ThresholdMax,
		Step:    cfg.ThresholdStep,
		Default: cfg.MarginThreshold,
	}
}

func newResolver(cfg *config.Config, site *scraper.HTTPFetcher, logger *utils.Logger) services.ReferencePriceResolver {
	var resolver services.ReferencePriceResolver
	switch cfg.ReferenceStrategy {
	case config.StrategyEmbedded:
		resolver = services.NewEmbeddedResolver(site, cfg.ReferenceIndexName)
	default:
		api := scraper.NewHTTPClient(scraper.ClientOptions{
			Timeout:    cfg.RequestTimeout(),
			TracerName: "fipe-garimpo/fipe",
			Logger:     logger,
		})
		resolver = services.NewAPIResolver(fipe.NewClient(api, cfg.FipeAPIURL, cfg.VehicleType))
	}

	if ttl := cfg.CacheTTL(); ttl > 0 {
		resolver = services.NewCachedResolver(resolver, cfg.CacheSize, ttl)
	}
	return resolver
}

func newPipeline(cfg *config.Config, logger *utils.Logger) (*pipeline.Pipeline, error) {
	client := scraper.NewHTTPClient(scraper.ClientOptions{
		UserAgent:        cfg.UserAgent,
		Timeout:          cfg.RequestTimeout(),
		CloudflareBypass: cfg.CloudflareBypass,
		TracerName:       "fipe-garimpo/site",
		Logger:           logger,
	})
	site := scraper.NewHTTPFetcher(client)

	var index scraper.PageFetcher = site
	if cfg.FetchMode == config.FetchBrowser {
		index = scraper.NewBrowserFetcher(cfg.ChromeBin, cfg.UserAgent, browserSettle, logger)
	}

	extractor, err := olx.NewExtractor(cfg.BaseOrigin)
	if err != nil {
		return nil, fmt.Errorf("build extractor: %w", err)
	}

	enricher := services.NewEnricher(services.EnricherOptions{
		Liveness:        services.NewHTTPLiveness(client),
		Resolver:        newResolver(cfg, site, logger),
		Region:          cfg.Region,
		Timeout:         cfg.RequestTimeout(),
		MaxConcurrency:  cfg.MaxConcurrency,
		RateLimitPerSec: cfg.RateLimitPerSec,
		Logger:          logger,
	})

	return pipeline.New(pipeline.Options{
		IndexURL:  cfg.ListingURL,
		Fetcher:   index,
		Extractor: extractor,
		Enricher:  enricher,
		Retry: utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries + 1,
			BaseDelay:   500 * time.Millisecond,
		},
		Logger: logger,
	}), nil
}
