package commands

import (
	"github.com/spf13/cobra"

	"fipe-garimpo/pipeline"
	"fipe-garimpo/presenter"
	"fipe-garimpo/services"
)

var demoFlags struct {
	threshold  int
	maxPrice   int
	maxMileage int
	dataPath   string
}

func init() {
	f := demoCmd.Flags()
	f.IntVarP(&demoFlags.threshold, "threshold", "t", 0, "minimum margin in reais (default from MARGIN_THRESHOLD)")
	f.IntVar(&demoFlags.maxPrice, "max-price", 0, "hide listings above this price")
	f.IntVar(&demoFlags.maxMileage, "max-mileage", 0, "hide listings above this mileage")
	f.StringVar(&demoFlags.dataPath, "data", "", "json5 demo dataset (default: built-in sample)")
	rootCmd.AddCommand(demoCmd)
}

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Runs the valuation over a static sample that includes mileage.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		threshold := cfg.MarginThreshold
		if demoFlags.threshold != 0 {
			threshold = demoFlags.threshold
		}
		if err := thresholdRange(cfg).Validate(threshold); err != nil {
			return err
		}

		demo, err := presenter.LoadDemo(demoFlags.dataPath)
		if err != nil {
			return err
		}
		listings, mileage := presenter.Normalize(demo, cfg.Region)

		rows := presenter.RowsFrom(services.Qualify(listings, threshold), mileage)
		rows = presenter.Filters{MaxPrice: demoFlags.maxPrice, MaxMileage: demoFlags.maxMileage}.Apply(rows)

		view := presenter.New(cmd.OutOrStdout())
		view.Render(presenter.StateOf(pipeline.Completed, len(rows)), threshold, rows)
		view.RenderSummary(services.NewInsightService(newLogger()).Generate(qualifying(rows)))
		return nil
	},
}
