package cli

import (
	"github.com/spf13/cobra"

	"github.com/anthon-sd/ab-test-toolkit/internal/analytics"
	"github.com/anthon-sd/ab-test-toolkit/internal/form"
	"github.com/anthon-sd/ab-test-toolkit/internal/report"
	"github.com/anthon-sd/ab-test-toolkit/internal/stats"
)

func newRuntimeCmd(a *app) *cobra.Command {
	var f form.RuntimeForm

	cmd := &cobra.Command{
		Use:   "runtime",
		Short: "How long a test needs to reach its sample size",
		Long: `Estimate test duration from the per-variant sample size and daily traffic.

--split is the percent of daily traffic each variant receives (50 for a
50/50 test, 10 for a 10/90 holdout).

Example:
  abkit runtime --sample-size 57764 --daily-traffic 10000
  abkit runtime --sample-size 12000 --daily-traffic 3000 --split 20`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.fill(
				field{"Users per variant", &f.SampleSize, validInt},
				field{"Daily traffic", &f.DailyTraffic, validDecimal},
			); err != nil {
				return err
			}
			return a.runRuntime(cmd, f)
		},
	}

	cmd.Flags().StringVarP(&f.SampleSize, "sample-size", "n", "", "required users per variant")
	cmd.Flags().StringVarP(&f.DailyTraffic, "daily-traffic", "t", "", "daily users entering the test")
	cmd.Flags().StringVar(&f.SplitPercent, "split", "50", "percent of traffic per variant")

	return cmd
}

func (a *app) runRuntime(cmd *cobra.Command, f form.RuntimeForm) error {
	return a.track(cmd.Context(), analytics.CalculatorRuntime, func(ev *analytics.Event) error {
		in, err := f.Parse()
		if err != nil {
			return err
		}
		rt, err := stats.EstimateRuntime(in.SampleSize, in.DailyTraffic, in.SplitRatio)
		if err != nil {
			return err
		}
		ev.Values["days"] = float64(rt.Days)
		ev.Values["split_ratio"] = in.SplitRatio

		report.Runtime(cmd.OutOrStdout(), in.SampleSize, in.DailyTraffic, in.SplitRatio, rt)
		return nil
	})
}
