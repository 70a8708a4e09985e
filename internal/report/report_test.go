package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/anthon-sd/ab-test-toolkit/internal/stats"
)

func init() {
	color.NoColor = true
}

func TestWinner(t *testing.T) {
	tests := []struct {
		name string
		res  stats.StatisticalResults
		want Group
	}{
		{"treatment better", stats.StatisticalResults{Significant: true, AbsoluteChange: 0.02}, Treatment},
		{"control better", stats.StatisticalResults{Significant: true, AbsoluteChange: -0.02}, Control},
		{"tie goes to control", stats.StatisticalResults{Significant: true, AbsoluteChange: 0}, Control},
		{"not significant", stats.StatisticalResults{Significant: false, AbsoluteChange: 0.5}, ""},
	}

	for _, tt := range tests {
		if got := Winner(tt.res); got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		days int
		want string
	}{
		{0, "0 days"},
		{1, "1 day"},
		{6, "6 days"},
		{7, "1 week"},
		{8, "2 weeks"},
		{29, "5 weeks"},
		{30, "1 month"},
		{31, "2 months"},
		{365, "13 months"},
	}

	for _, tt := range tests {
		if got := FormatDuration(tt.days); got != tt.want {
			t.Errorf("FormatDuration(%d) = %q, want %q", tt.days, got, tt.want)
		}
	}
}

func TestFormatPercent(t *testing.T) {
	if got := formatPercent(0); got != "0%" {
		t.Errorf("got %q, want 0%%", got)
	}
	if got := formatPercent(0.1234); got != "12.34%" {
		t.Errorf("got %q, want 12.34%%", got)
	}
	if got := formatPValue(1e-9); got != "< 0.0001" {
		t.Errorf("got %q", got)
	}
}

func TestSignificance_Conversion(t *testing.T) {
	r := stats.TestResults{
		MetricType: stats.MetricConversion,
		Control:    stats.GroupSample{Size: 1000, Conversions: 50},
		Treatment:  stats.GroupSample{Size: 1000, Conversions: 100},
	}
	res, err := stats.Significance(r)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	Significance(&buf, r, res)
	out := buf.String()

	expectations := []string{
		"SIGNIFICANCE (conversion, chi-square)",
		"control",
		"5.00%",
		"10.00%",
		"+5.00 pp",
		"← WINNER",
		"treatment is the winner",
	}
	for _, expected := range expectations {
		if !strings.Contains(out, expected) {
			t.Errorf("output missing %q\n\nGot:\n%s", expected, out)
		}
	}
	if strings.Count(out, "← WINNER") != 1 {
		t.Errorf("exactly one arm should be marked\n%s", out)
	}
}

func TestSignificance_NotSignificant(t *testing.T) {
	r := stats.TestResults{
		MetricType: stats.MetricContinuous,
		Control:    stats.GroupSample{Size: 10, Mean: 10, StdDev: 4},
		Treatment:  stats.GroupSample{Size: 10, Mean: 10.5, StdDev: 4},
	}
	res, err := stats.Significance(r)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	Significance(&buf, r, res)
	out := buf.String()

	if !strings.Contains(out, "student-t") || !strings.Contains(out, "(df 18)") {
		t.Errorf("expected Student-t with df 18\n%s", out)
	}
	if strings.Contains(out, "WINNER") {
		t.Errorf("no winner expected\n%s", out)
	}
	if !strings.Contains(out, "Not significant") {
		t.Errorf("expected not significant verdict\n%s", out)
	}
}

func TestSampleSizeAndRuntime(t *testing.T) {
	var buf bytes.Buffer
	p := stats.TestParameters{KPIType: stats.KPIConversion, BaselineRate: 0.1, ExpectedUplift: 0.05, ConfidenceLevel: 0.95, Power: 0.8}
	SampleSize(&buf, p, 57764, false)
	Runtime(&buf, 57764, 10000, 0.5, stats.Runtime{Days: 12, Weeks: 2, Months: 1})
	out := buf.String()

	for _, expected := range []string{"10.00%", "+5.00%", "10.50%", "57764", "115528", "Confidence:        95%", "12", "2 weeks"} {
		if !strings.Contains(out, expected) {
			t.Errorf("output missing %q\n\nGot:\n%s", expected, out)
		}
	}
}

func TestVolatility(t *testing.T) {
	data := stats.AnalyzeKPI([]float64{0.02, 0.025, 0.022, 0.028, 0.024}, stats.AnalyzeOptions{})
	targets, err := stats.Targets(data, stats.DefaultMultipliers())
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	Volatility(&buf, data, &targets)
	out := buf.String()
	for _, expected := range []string{"Data points:       5", "(sample)", "12.74%", "+6.37%", "+19.12%", "aggressive"} {
		if !strings.Contains(out, expected) {
			t.Errorf("output missing %q\n\nGot:\n%s", expected, out)
		}
	}

	buf.Reset()
	none := stats.AnalyzeKPI([]float64{0.03}, stats.AnalyzeOptions{})
	Volatility(&buf, none, nil)
	if !strings.Contains(buf.String(), "at least 2") {
		t.Errorf("expected insufficient data message\n%s", buf.String())
	}
}
