package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/anthon-sd/ab-test-toolkit/internal/stats"
)

var (
	cyan   = color.New(color.FgCyan)
	dim    = color.New(color.Faint)
	green  = color.New(color.FgGreen)
	red    = color.New(color.FgRed)
	yellow = color.New(color.FgYellow)
)

const ruleWidth = 60

func rule(w io.Writer) {
	_, _ = dim.Fprintln(w, strings.Repeat("─", ruleWidth))
}

// SampleSize renders a required sample size.
func SampleSize(w io.Writer, p stats.TestParameters, n int, fixed bool) {
	_, _ = cyan.Fprintln(w, "SAMPLE SIZE")
	rule(w)
	if p.KPIType != "" {
		fmt.Fprintf(w, "KPI:               %s\n", p.KPIType)
	}
	fmt.Fprintf(w, "Baseline rate:     %s\n", formatPercent(p.BaselineRate))
	fmt.Fprintf(w, "Expected uplift:   %s (target %s)\n",
		formatSignedPercent(p.ExpectedUplift), formatPercent(p.BaselineRate*(1+p.ExpectedUplift)))
	if fixed {
		fmt.Fprintf(w, "z-scores:          %.2f / %.2f (fixed)\n", stats.FixedZAlpha, stats.FixedZBeta)
	} else {
		fmt.Fprintf(w, "Confidence:        %.0f%%\n", p.ConfidenceLevel*100)
		fmt.Fprintf(w, "Power:             %.0f%%\n", p.Power*100)
	}
	fmt.Fprintln(w)
	_, _ = green.Fprintf(w, "Required users per variant: %d\n", n)
	_, _ = dim.Fprintf(w, "Total across both variants:  %d\n", 2*n)
}

// Runtime renders a test duration estimate.
func Runtime(w io.Writer, sampleSize int, dailyTraffic, split float64, rt stats.Runtime) {
	_, _ = cyan.Fprintln(w, "RUNTIME")
	rule(w)
	fmt.Fprintf(w, "Users per variant: %d\n", sampleSize)
	fmt.Fprintf(w, "Daily traffic:     %.0f (%.0f/%.0f split, %.0f per variant)\n",
		dailyTraffic, split*100, 100-split*100, dailyTraffic*split)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%-8s %-8s %-8s\n", "DAYS", "WEEKS", "MONTHS")
	fmt.Fprintf(w, "%-8d %-8d %-8d\n", rt.Days, rt.Weeks, rt.Months)
	fmt.Fprintln(w)
	_, _ = green.Fprintf(w, "Estimated duration: %s\n", FormatDuration(rt.Days))
}

// Significance renders both arms and the test verdict.
func Significance(w io.Writer, r stats.TestResults, res stats.StatisticalResults) {
	_, _ = cyan.Fprintf(w, "SIGNIFICANCE (%s, %s)\n", r.MetricType, res.Method)
	rule(w)

	winner := Winner(res)
	switch r.MetricType {
	case stats.MetricConversion:
		fmt.Fprintf(w, "%-10s  %-8s  %-11s  %-7s  %s\n", "GROUP", "USERS", "CONVERSIONS", "RATE", "95% CI")
		for _, g := range []struct {
			name   Group
			sample stats.GroupSample
		}{{Control, r.Control}, {Treatment, r.Treatment}} {
			lo, hi := stats.WilsonInterval(g.sample.Conversions, g.sample.Size, 0.95)
			fmt.Fprintf(w, "%-10s  %-8d  %-11d  %-7s  [%.1f%%, %.1f%%]%s\n",
				g.name, g.sample.Size, g.sample.Conversions, formatPercent(g.sample.Rate()),
				lo*100, hi*100, marker(g.name, winner))
		}
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Absolute change:   %+.2f pp  (95%% CI %+.2f to %+.2f pp)\n",
			res.AbsoluteChange*100, res.ConfidenceInterval[0]*100, res.ConfidenceInterval[1]*100)

	case stats.MetricContinuous:
		fmt.Fprintf(w, "%-10s  %-8s  %-10s  %-10s  %s\n", "GROUP", "USERS", "MEAN", "STD DEV", "95% CI")
		for _, g := range []struct {
			name   Group
			sample stats.GroupSample
		}{{Control, r.Control}, {Treatment, r.Treatment}} {
			lo, hi := stats.MeanInterval(g.sample.Mean, g.sample.StdDev, g.sample.Size, 0.95)
			fmt.Fprintf(w, "%-10s  %-8d  %-10.4g  %-10.4g  [%.4g, %.4g]%s\n",
				g.name, g.sample.Size, g.sample.Mean, g.sample.StdDev, lo, hi, marker(g.name, winner))
		}
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Absolute change:   %+.4g  (95%% CI %+.4g to %+.4g)\n",
			res.AbsoluteChange, res.ConfidenceInterval[0], res.ConfidenceInterval[1])
	}

	fmt.Fprintf(w, "Relative uplift:   %s\n", formatSignedPercent(res.RelativeUplift))
	fmt.Fprintf(w, "Test statistic:    %.4f", res.TestStatistic)
	if res.DegreesOfFreedom > 0 {
		fmt.Fprintf(w, " (df %.0f)", res.DegreesOfFreedom)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "p-value:           %s\n", formatPValue(res.PValue))
	fmt.Fprintf(w, "Effect size:       %.4f\n", res.EffectSize)
	fmt.Fprintln(w)

	switch winner {
	case Treatment:
		_, _ = green.Fprintln(w, "Significant: treatment is the winner")
	case Control:
		_, _ = red.Fprintln(w, "Significant: control is the winner")
	default:
		_, _ = yellow.Fprintln(w, "Not significant: not enough evidence to pick a winner")
	}
}

func marker(g, winner Group) string {
	if g == winner {
		return " ← WINNER"
	}
	return ""
}

// Volatility renders a KPI analysis and, when available, its uplift targets.
func Volatility(w io.Writer, data stats.KPIData, targets *stats.UpliftTargets) {
	_, _ = cyan.Fprintln(w, "KPI VOLATILITY")
	rule(w)
	fmt.Fprintf(w, "Data points:       %d\n", len(data.Values))
	if data.Mean != nil {
		fmt.Fprintf(w, "Mean:              %.6g\n", *data.Mean)
	}
	if data.StandardDeviation != nil {
		fmt.Fprintf(w, "Std deviation:     %.6g (%s)\n", *data.StandardDeviation, data.StdDevModelUsed)
		if data.Mean != nil && *data.Mean != 0 {
			fmt.Fprintf(w, "Coefficient of variation: %s\n", formatPercent(*data.StandardDeviation / *data.Mean))
		}
	}
	if data.ErrorMessage != "" {
		_, _ = yellow.Fprintln(w, data.ErrorMessage)
	}
	if targets == nil {
		return
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%-14s  %-10s  %s\n", "TARGET", "UPLIFT", "KPI VALUE")
	rows := []struct {
		name           string
		uplift, target float64
	}{
		{"conservative", targets.Uplifts.Conservative, targets.Targets.Conservative},
		{"moderate", targets.Uplifts.Moderate, targets.Targets.Moderate},
		{"aggressive", targets.Uplifts.Aggressive, targets.Targets.Aggressive},
	}
	for _, row := range rows {
		fmt.Fprintf(w, "%-14s  %-10s  %.6g\n", row.name, formatSignedPercent(row.uplift), row.target)
	}
}
