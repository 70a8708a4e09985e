package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/anthon-sd/ab-test-toolkit/internal/analytics"
	"github.com/anthon-sd/ab-test-toolkit/internal/form"
	"github.com/anthon-sd/ab-test-toolkit/internal/report"
	"github.com/anthon-sd/ab-test-toolkit/internal/series"
	"github.com/anthon-sd/ab-test-toolkit/internal/stats"
)

func newVolatilityCmd(a *app) *cobra.Command {
	var f form.VolatilityForm
	var file, column, dbPath, query string

	cmd := &cobra.Command{
		Use:   "volatility",
		Short: "KPI volatility and uplift targets from history",
		Long: `Estimate how much a KPI moves on its own and turn that into uplift targets.

History comes from exactly one of:
  --data     inline values ("2.1%, 2.4%, 2.2%")
  --file     a text file, or a CSV file with --column
  --sqlite   an existing SQLite database with --query (opened read-only)
  stdin      when none of the above is given

Targets are multiplier x (standard deviation / mean). Models: sample,
population, moving (last --window points), exponential (--alpha).

Example:
  abkit volatility --data "2%, 2.5%, 2.2%, 2.8%, 2.4%"
  abkit volatility --file kpi.csv --column d7_retention --model moving --window 6
  abkit volatility --sqlite warehouse.db --query "SELECT arpdau FROM daily ORDER BY day"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := pickSource(cmd, f.Data, file, column, dbPath, query)
			if err != nil {
				return err
			}
			if err := a.choose(&f.Model, "Dispersion model", []string{"sample", "population", "moving", "exponential"}); err != nil {
				return err
			}

			opts, m := a.cfg.AnalyzeOptions(), a.cfg.Multipliers()
			if f.Model == "" {
				f.Model = string(opts.Model)
			}
			if f.WindowSize == "" {
				f.WindowSize = strconv.Itoa(opts.WindowSize)
			}
			f.Alpha = orDefault(f.Alpha, opts.Alpha)
			f.Conservative = orDefault(f.Conservative, m.Conservative)
			f.Moderate = orDefault(f.Moderate, m.Moderate)
			f.Aggressive = orDefault(f.Aggressive, m.Aggressive)

			return a.track(cmd.Context(), analytics.CalculatorVolatility, func(ev *analytics.Event) error {
				values, err := src.Values(cmd.Context())
				if err != nil {
					return err
				}
				// values are already parsed; the form only validates settings
				f.Data = ""
				in, err := f.Parse()
				if err != nil {
					return err
				}

				data := stats.AnalyzeKPI(values, in.Options)
				ev.Labels["model"] = string(data.StdDevModelUsed)
				ev.Values["count"] = float64(len(values))

				out := cmd.OutOrStdout()
				if !data.HasDispersion() {
					report.Volatility(out, data, nil)
					return nil
				}

				t, err := stats.Targets(data, in.Multipliers)
				if err != nil {
					report.Volatility(out, data, nil)
					fmt.Fprintf(out, "No uplift targets: %v\n", err)
					return nil
				}
				ev.Values["moderate_uplift"] = t.Uplifts.Moderate
				report.Volatility(out, data, &t)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&f.Data, "data", "d", "", "inline KPI values")
	cmd.Flags().StringVarP(&file, "file", "f", "", "text or CSV file with KPI values")
	cmd.Flags().StringVar(&column, "column", "", "CSV column (default: last column)")
	cmd.Flags().StringVar(&dbPath, "sqlite", "", "SQLite database with KPI history")
	cmd.Flags().StringVar(&query, "query", "", "SQL returning one KPI value per row")
	cmd.Flags().StringVar(&f.Model, "model", "", "sample, population, moving or exponential (default from config)")
	cmd.Flags().StringVar(&f.WindowSize, "window", "", "moving window size")
	cmd.Flags().StringVar(&f.Alpha, "alpha", "", "exponential smoothing factor in (0, 1)")
	cmd.Flags().StringVar(&f.Conservative, "conservative", "", "conservative multiplier")
	cmd.Flags().StringVar(&f.Moderate, "moderate", "", "moderate multiplier")
	cmd.Flags().StringVar(&f.Aggressive, "aggressive", "", "aggressive multiplier")

	return cmd
}

type readerSource struct {
	cmd *cobra.Command
}

func (s readerSource) Values(context.Context) ([]float64, error) {
	return series.ParseText(s.cmd.InOrStdin())
}

type textSource string

func (s textSource) Values(context.Context) ([]float64, error) {
	return series.ParseText(strings.NewReader(string(s)))
}

func pickSource(cmd *cobra.Command, data, file, column, dbPath, query string) (series.Source, error) {
	given := 0
	for _, v := range []string{data, file, dbPath} {
		if v != "" {
			given++
		}
	}
	if given > 1 {
		return nil, fmt.Errorf("use only one of --data, --file and --sqlite")
	}
	if dbPath != "" && query == "" {
		return nil, fmt.Errorf("--sqlite needs --query")
	}
	if column != "" && file == "" {
		return nil, fmt.Errorf("--column needs --file")
	}

	switch {
	case data != "":
		return textSource(data), nil
	case file != "":
		return series.File{Path: file, Column: column}, nil
	case dbPath != "":
		return series.Query{Path: dbPath, SQL: query}, nil
	default:
		return readerSource{cmd: cmd}, nil
	}
}
