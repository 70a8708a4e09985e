// Package report renders calculator results for terminals.
package report

import (
	"fmt"

	"github.com/anthon-sd/ab-test-toolkit/internal/stats"
)

// Group names a test arm.
type Group string

const (
	Control   Group = "control"
	Treatment Group = "treatment"
)

// Winner returns the better arm of a significant test, or "" when the test
// is not significant. Treatment wins only when it is strictly better.
func Winner(res stats.StatisticalResults) Group {
	if !res.Significant {
		return ""
	}
	if res.AbsoluteChange > 0 {
		return Treatment
	}
	return Control
}

// FormatDuration describes a day count the way a planner would: days under
// a week, weeks under a month, months beyond that. Weeks and months round up.
func FormatDuration(days int) string {
	switch {
	case days < 7:
		return plural(days, "day")
	case days < 30:
		return plural((days+6)/7, "week")
	default:
		return plural((days+29)/30, "month")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

func formatPercent(rate float64) string {
	if rate == 0 {
		return "0%"
	}
	return fmt.Sprintf("%.2f%%", rate*100)
}

func formatSignedPercent(rate float64) string {
	return fmt.Sprintf("%+.2f%%", rate*100)
}

func formatPValue(p float64) string {
	if p < 0.0001 {
		return "< 0.0001"
	}
	return fmt.Sprintf("%.4f", p)
}
