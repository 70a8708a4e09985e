package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/anthon-sd/ab-test-toolkit/internal/analytics"
	"github.com/anthon-sd/ab-test-toolkit/internal/form"
	"github.com/anthon-sd/ab-test-toolkit/internal/report"
	"github.com/anthon-sd/ab-test-toolkit/internal/stats"
)

func newSignificanceCmd(a *app) *cobra.Command {
	var f form.SignificanceForm

	cmd := &cobra.Command{
		Use:   "significance",
		Short: "Test whether treatment differs from control",
		Long: `Compare control and treatment.

Conversion metrics take users and conversions per group and use a
chi-square test. Continuous metrics (LTV, ATV) take users, mean and
standard deviation per group and use a t-test, switching to the normal
approximation above 30 degrees of freedom.

Example:
  abkit significance --control-size 1000 --control-conversions 100 \
    --treatment-size 1000 --treatment-conversions 120
  abkit significance --metric continuous \
    --control-size 500 --control-mean 25 --control-stddev 5 \
    --treatment-size 500 --treatment-mean 27 --treatment-stddev 5.2`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.interactive && !cmd.Flags().Changed("metric") {
				f.MetricType = ""
				if err := a.choose(&f.MetricType, "Metric", []string{"conversion", "continuous"}); err != nil {
					return err
				}
			}

			var err error
			if stats.MetricType(f.MetricType) == stats.MetricContinuous {
				err = a.fill(
					field{"Control users", &f.Control.Size, validInt},
					field{"Control mean", &f.Control.Mean, validDecimal},
					field{"Control standard deviation", &f.Control.StdDev, validDecimal},
					field{"Treatment users", &f.Treatment.Size, validInt},
					field{"Treatment mean", &f.Treatment.Mean, validDecimal},
					field{"Treatment standard deviation", &f.Treatment.StdDev, validDecimal},
				)
			} else {
				err = a.fill(
					field{"Control users", &f.Control.Size, validInt},
					field{"Control conversions", &f.Control.Conversions, validInt},
					field{"Treatment users", &f.Treatment.Size, validInt},
					field{"Treatment conversions", &f.Treatment.Conversions, validInt},
				)
			}
			if err != nil {
				return err
			}

			return a.track(cmd.Context(), analytics.CalculatorSignificance, func(ev *analytics.Event) error {
				results, err := f.Parse()
				if err != nil {
					return err
				}
				ev.Labels["metric_type"] = string(results.MetricType)

				res, err := stats.Significance(results)
				if err != nil {
					return err
				}
				ev.Labels["significant"] = strconv.FormatBool(res.Significant)
				ev.Values["p_value"] = res.PValue

				report.Significance(cmd.OutOrStdout(), results, res)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&f.MetricType, "metric", "m", "conversion", "metric type: conversion or continuous")
	cmd.Flags().StringVar(&f.Control.Size, "control-size", "", "control users")
	cmd.Flags().StringVar(&f.Control.Conversions, "control-conversions", "", "control conversions")
	cmd.Flags().StringVar(&f.Control.Mean, "control-mean", "", "control mean (continuous)")
	cmd.Flags().StringVar(&f.Control.StdDev, "control-stddev", "", "control standard deviation (continuous)")
	cmd.Flags().StringVar(&f.Treatment.Size, "treatment-size", "", "treatment users")
	cmd.Flags().StringVar(&f.Treatment.Conversions, "treatment-conversions", "", "treatment conversions")
	cmd.Flags().StringVar(&f.Treatment.Mean, "treatment-mean", "", "treatment mean (continuous)")
	cmd.Flags().StringVar(&f.Treatment.StdDev, "treatment-stddev", "", "treatment standard deviation (continuous)")

	return cmd
}
