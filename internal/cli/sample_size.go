package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/anthon-sd/ab-test-toolkit/internal/analytics"
	"github.com/anthon-sd/ab-test-toolkit/internal/form"
	"github.com/anthon-sd/ab-test-toolkit/internal/report"
	"github.com/anthon-sd/ab-test-toolkit/internal/stats"
)

func newSampleSizeCmd(a *app) *cobra.Command {
	var f form.SampleSizeForm
	var fixedZ bool
	var rf form.RuntimeForm

	cmd := &cobra.Command{
		Use:   "sample-size",
		Short: "Users per variant needed to detect an uplift",
		Long: `Compute the users each variant needs for a two-sided two-proportion test.

Rates are ratios: --baseline 0.10 is a 10% rate, --uplift 0.05 is a 5%
relative lift (10% -> 10.5%). Confidence and power default to the config
file (0.95 and 0.80). --fixed-z uses the classic 1.96 / 0.84 z-scores instead.

Pass --daily-traffic to also estimate how long the test will run.

Example:
  abkit sample-size --baseline 0.10 --uplift 0.05
  abkit sample-size --baseline 0.35 --uplift 0.03 --power 0.9 --daily-traffic 20000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.choose(&f.KPIType, "KPI", []string{"retention", "ltv", "conversion", "atv"}); err != nil {
				return err
			}
			if err := a.fill(
				field{"Baseline rate (e.g. 0.10)", &f.BaselineRate, validDecimal},
				field{"Expected relative uplift (e.g. 0.05)", &f.ExpectedUplift, validDecimal},
			); err != nil {
				return err
			}
			if !cmd.Flags().Changed("fixed-z") {
				fixedZ = a.cfg.SampleSize.FixedZ
			}
			f.ConfidenceLevel = orDefault(f.ConfidenceLevel, a.cfg.SampleSize.ConfidenceLevel)
			f.Power = orDefault(f.Power, a.cfg.SampleSize.Power)

			var n int
			err := a.track(cmd.Context(), analytics.CalculatorSampleSize, func(ev *analytics.Event) error {
				params, err := f.Parse()
				if err != nil {
					return err
				}
				ev.Labels["kpi_type"] = string(params.KPIType)
				ev.Labels["fixed_z"] = strconv.FormatBool(fixedZ)

				if fixedZ {
					n, err = stats.RequiredSampleSizeFixed(params)
				} else {
					n, err = stats.RequiredSampleSize(params)
				}
				if err != nil {
					return err
				}
				ev.Values["sample_size"] = float64(n)

				report.SampleSize(cmd.OutOrStdout(), params, n, fixedZ)
				return nil
			})
			if err != nil || rf.DailyTraffic == "" {
				return err
			}

			rf.SampleSize = strconv.Itoa(n)
			fmt.Fprintln(cmd.OutOrStdout())
			return a.runRuntime(cmd, rf)
		},
	}

	cmd.Flags().StringVar(&f.KPIType, "kpi", "", "KPI type: retention, ltv, conversion, atv")
	cmd.Flags().StringVarP(&f.BaselineRate, "baseline", "b", "", "baseline rate as a ratio (0.10)")
	cmd.Flags().StringVarP(&f.ExpectedUplift, "uplift", "u", "", "expected relative uplift (0.05 = +5%)")
	cmd.Flags().StringVar(&f.ConfidenceLevel, "confidence", "", "confidence level (default from config)")
	cmd.Flags().StringVar(&f.Power, "power", "", "statistical power (default from config)")
	cmd.Flags().BoolVar(&fixedZ, "fixed-z", false, "use fixed z-scores 1.96 / 0.84")
	cmd.Flags().StringVar(&rf.DailyTraffic, "daily-traffic", "", "daily users entering the test; prints a runtime estimate")
	cmd.Flags().StringVar(&rf.SplitPercent, "split", "50", "percent of traffic per variant")

	return cmd
}
