package commands

import (
	"context"
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"fipe-garimpo/config"
	"fipe-garimpo/models"
	"fipe-garimpo/presenter"
	"fipe-garimpo/services"
	"fipe-garimpo/storage"
	"fipe-garimpo/telemetry"
	"fipe-garimpo/utils"
)

var scanFlags struct {
	threshold   int
	maxPrice    int
	strategy    string
	csvPath     string
	postgresDSN string
	summary     bool
}

func init() {
	f := scanCmd.Flags()
	f.IntVarP(&scanFlags.threshold, "threshold", "t", 0, "minimum margin in reais (default from MARGIN_THRESHOLD)")
	f.IntVar(&scanFlags.maxPrice, "max-price", 0, "hide listings above this price, in the table and in exports")
	f.StringVar(&scanFlags.strategy, "strategy", "", "reference price strategy: api or embedded")
	f.StringVar(&scanFlags.csvPath, "csv", "", "export qualifying listings to this CSV file")
	f.StringVar(&scanFlags.postgresDSN, "postgres", "", "export qualifying listings to this PostgreSQL database")
	f.BoolVar(&scanFlags.summary, "summary", true, "print a summary below the listings")
	rootCmd.AddCommand(scanCmd)
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scrapes the listing index and prints listings below their FIPE value.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if scanFlags.strategy != "" {
			cfg.ReferenceStrategy = strings.ToLower(scanFlags.strategy)
			if err := cfg.Validate(); err != nil {
				return err
			}
		}
		if scanFlags.csvPath != "" {
			cfg.CSVOutputPath = scanFlags.csvPath
		}
		if scanFlags.postgresDSN != "" {
			cfg.PostgresDSN = scanFlags.postgresDSN
		}

		threshold := cfg.MarginThreshold
		if scanFlags.threshold != 0 {
			threshold = scanFlags.threshold
		}
		if err := thresholdRange(cfg).Validate(threshold); err != nil {
			return err
		}

		logger := newLogger()
		ctx := cmd.Context()

		shutdown, err := telemetry.Setup(ctx, "fipe-garimpo", cfg.OtelEndpoint, logger)
		if err != nil {
			logger.Warn("Tracing disabled: %v", err)
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Warn("Tracer shutdown: %v", err)
				}
			}()
		}

		p, err := newPipeline(cfg, logger)
		if err != nil {
			return err
		}

		logger.Info("Scanning %s (strategy: %s, threshold: %d)", cfg.ListingURL, cfg.ReferenceStrategy, threshold)

		view := presenter.New(cmd.OutOrStdout())
		run := p.NewRun()
		view.Render(presenter.StateOf(run.Phase(), 0), threshold, nil)
		run.Start(ctx)
		if err := run.Wait(ctx); err != nil {
			return err
		}

		result, _ := run.Results(threshold)
		rows := presenter.Filters{MaxPrice: scanFlags.maxPrice}.Apply(presenter.RowsFrom(result.Listings, nil))
		view.Render(presenter.StateOf(run.Phase(), len(rows)), threshold, rows)

		shown := models.Result{Listings: qualifying(rows), Threshold: threshold}
		if scanFlags.summary {
			view.RenderSummary(services.NewInsightService(logger).Generate(shown.Listings))
		}

		return export(ctx, cfg, shown, logger)
	},
}

func qualifying(rows []presenter.Row) []models.QualifyingListing {
	out := make([]models.QualifyingListing, len(rows))
	for i, r := range rows {
		out[i] = r.QualifyingListing
	}
	return out
}

// export writes result to every configured sink. A failing sink does not
// stop the others.
func export(ctx context.Context, cfg *config.Config, result models.Result, logger *utils.Logger) error {
	var errs []error

	if cfg.CSVOutputPath != "" {
		w, err := storage.NewCSVWriter(cfg.CSVOutputPath)
		if err == nil {
			err = writeAndClose(ctx, w, result)
		}
		if err != nil {
			logger.Error("CSV export failed: %v", err)
			errs = append(errs, err)
		} else {
			logger.Info("Qualifying listings saved to %s", cfg.CSVOutputPath)
		}
	}

	if cfg.PostgresDSN != "" {
		w, err := storage.NewPostgresWriter(ctx, cfg.PostgresDSN)
		if err == nil {
			err = writeAndClose(ctx, w, result)
		}
		if err != nil {
			logger.Error("PostgreSQL export failed: %v", err)
			errs = append(errs, err)
		} else {
			logger.Info("Qualifying listings stored in PostgreSQL (table: qualifying_listings)")
		}
	}

	return errors.Join(errs...)
}

func writeAndClose(ctx context.Context, w storage.ResultWriter, result models.Result) error {
	return errors.Join(w.Write(ctx, result), w.Close())
}
