package form_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anthon-sd/ab-test-toolkit/internal/form"
	"github.com/anthon-sd/ab-test-toolkit/internal/stats"
)

func fieldErrors(t *testing.T, err error) map[string]string {
	t.Helper()
	var fe *form.Error
	require.True(t, errors.As(err, &fe), "expected *form.Error, got %v", err)
	out := make(map[string]string, len(fe.Fields))
	for _, f := range fe.Fields {
		out[f.Field] = f.Message
	}
	return out
}

func TestParseDecimal(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"0.1", 0.1, false},
		{" 12.5 ", 12.5, false},
		{"-3", -3, false},
		{"1e-3", 0.001, false},
		{"", 0, true},
		{"abc", 0, true},
		{"NaN", 0, true},
		{"Inf", 0, true},
		{"1e400", 0, true},
		{"-1e400", 0, true},
	}

	for _, tt := range tests {
		got, err := form.ParseDecimal(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "ParseDecimal(%q)", tt.in)
			continue
		}
		require.NoError(t, err, "ParseDecimal(%q)", tt.in)
		assert.InDelta(t, tt.want, got, 1e-15)
	}
}

func TestParseInt(t *testing.T) {
	n, err := form.ParseInt("1000")
	require.NoError(t, err)
	assert.Equal(t, 1000, n)

	n, err = form.ParseInt("1e3")
	require.NoError(t, err)
	assert.Equal(t, 1000, n)

	for _, bad := range []string{"10.5", "", "ten", "1e12"} {
		_, err := form.ParseInt(bad)
		assert.Error(t, err, "ParseInt(%q)", bad)
	}
}

func TestParsePercent(t *testing.T) {
	for in, want := range map[string]float64{"5": 0.05, "5%": 0.05, "12.5 %": 0.125, "100": 1} {
		got, err := form.ParsePercent(in)
		require.NoError(t, err, in)
		assert.InDelta(t, want, got, 1e-15, in)
	}

	_, err := form.ParsePercent("%")
	assert.Error(t, err)
}

func TestParse_BeyondFloatRange(t *testing.T) {
	_, err := form.ParseDecimal("1e400")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")

	_, err = form.ParsePercent("1e400%")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")

	_, err = form.SignificanceForm{
		MetricType: "continuous",
		Control:    form.GroupForm{Size: "100", Mean: "1e400", StdDev: "5"},
		Treatment:  form.GroupForm{Size: "100", Mean: "26", StdDev: "5"},
	}.Parse()
	var ferr *form.Error
	require.ErrorAs(t, err, &ferr)
	assert.Equal(t, "controlGroup.mean", ferr.Fields[0].Field)
}

func TestSampleSizeForm_Defaults(t *testing.T) {
	params, err := form.SampleSizeForm{
		KPIType:        "conversion",
		BaselineRate:   "0.10",
		ExpectedUplift: "0.05",
	}.Parse()
	require.NoError(t, err)

	assert.Equal(t, stats.KPIConversion, params.KPIType)
	assert.Equal(t, 0.10, params.BaselineRate)
	assert.Equal(t, 0.05, params.ExpectedUplift)
	assert.Equal(t, 0.95, params.ConfidenceLevel)
	assert.Equal(t, 0.80, params.Power)
}

func TestSampleSizeForm_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		form  form.SampleSizeForm
		field string
	}{
		{"missing baseline", form.SampleSizeForm{ExpectedUplift: "0.05"}, "baselineRate"},
		{"baseline not a number", form.SampleSizeForm{BaselineRate: "ten", ExpectedUplift: "0.05"}, "baselineRate"},
		{"baseline above one", form.SampleSizeForm{BaselineRate: "1.2", ExpectedUplift: "0.05"}, "baselineRate"},
		{"zero uplift", form.SampleSizeForm{BaselineRate: "0.1", ExpectedUplift: "0"}, "expectedUplift"},
		{"uplift below -100%", form.SampleSizeForm{BaselineRate: "0.1", ExpectedUplift: "-1.5"}, "expectedUplift"},
		{"rate pushed past one", form.SampleSizeForm{BaselineRate: "0.8", ExpectedUplift: "0.5"}, "expectedUplift"},
		{"confidence of one", form.SampleSizeForm{BaselineRate: "0.1", ExpectedUplift: "0.05", ConfidenceLevel: "1"}, "confidenceLevel"},
		{"power of zero", form.SampleSizeForm{BaselineRate: "0.1", ExpectedUplift: "0.05", Power: "0"}, "power"},
		{"unknown kpi", form.SampleSizeForm{KPIType: "dau", BaselineRate: "0.1", ExpectedUplift: "0.05"}, "kpiType"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.form.Parse()
			require.Error(t, err)
			assert.Contains(t, fieldErrors(t, err), tt.field)
		})
	}
}

func TestSampleSizeForm_ReportsAllFields(t *testing.T) {
	_, err := form.SampleSizeForm{}.Parse()
	fields := fieldErrors(t, err)
	assert.Equal(t, "is required", fields["baselineRate"])
	assert.Equal(t, "is required", fields["expectedUplift"])
}

func TestRuntimeForm(t *testing.T) {
	in, err := form.RuntimeForm{SampleSize: "57699", DailyTraffic: "10000"}.Parse()
	require.NoError(t, err)
	assert.Equal(t, 57699, in.SampleSize)
	assert.Equal(t, 0.5, in.SplitRatio)

	in, err = form.RuntimeForm{SampleSize: "1000", DailyTraffic: "500", SplitPercent: "10%"}.Parse()
	require.NoError(t, err)
	assert.InDelta(t, 0.1, in.SplitRatio, 1e-15)

	_, err = form.RuntimeForm{SampleSize: "1000", DailyTraffic: "500", SplitPercent: "150"}.Parse()
	assert.Contains(t, fieldErrors(t, err), "splitPercent")

	_, err = form.RuntimeForm{SampleSize: "0", DailyTraffic: "-1"}.Parse()
	fields := fieldErrors(t, err)
	assert.Contains(t, fields, "sampleSize")
	assert.Contains(t, fields, "dailyTraffic")
}

func TestSignificanceForm_Conversion(t *testing.T) {
	results, err := form.SignificanceForm{
		MetricType: "conversion",
		Control:    form.GroupForm{Size: "1000", Conversions: "100"},
		Treatment:  form.GroupForm{Size: "1000", Conversions: "120"},
	}.Parse()
	require.NoError(t, err)

	assert.Equal(t, stats.MetricConversion, results.MetricType)
	assert.Equal(t, stats.GroupSample{Size: 1000, Conversions: 100}, results.Control)
	assert.Equal(t, stats.GroupSample{Size: 1000, Conversions: 120}, results.Treatment)
}

func TestSignificanceForm_ConversionInvalid(t *testing.T) {
	_, err := form.SignificanceForm{
		MetricType: "conversion",
		Control:    form.GroupForm{Size: "1000", Conversions: "0"},
		Treatment:  form.GroupForm{Size: "100", Conversions: "120"},
	}.Parse()

	fields := fieldErrors(t, err)
	assert.Equal(t, "must be greater than 0", fields["controlGroup.conversions"])
	assert.Contains(t, fields, "treatmentGroup.conversions")
}

func TestSignificanceForm_Continuous(t *testing.T) {
	results, err := form.SignificanceForm{
		MetricType: "continuous",
		Control:    form.GroupForm{Size: "500", Mean: "25", StdDev: "5"},
		Treatment:  form.GroupForm{Size: "500", Mean: "27", StdDev: "5.2"},
	}.Parse()
	require.NoError(t, err)
	assert.Equal(t, stats.GroupSample{Size: 500, Mean: 27, StdDev: 5.2}, results.Treatment)

	_, err = form.SignificanceForm{
		MetricType: "continuous",
		Control:    form.GroupForm{Size: "1", Mean: "0", StdDev: "5"},
		Treatment:  form.GroupForm{Size: "500", Mean: "27", StdDev: "-1"},
	}.Parse()
	fields := fieldErrors(t, err)
	assert.Contains(t, fields, "controlGroup.size")
	assert.Contains(t, fields, "controlGroup.mean")
	assert.Contains(t, fields, "treatmentGroup.stdDev")
}

func TestSignificanceForm_UnknownMetric(t *testing.T) {
	_, err := form.SignificanceForm{MetricType: "revenue"}.Parse()
	assert.Contains(t, fieldErrors(t, err), "metricType")
}

func TestVolatilityForm(t *testing.T) {
	in, err := form.VolatilityForm{Data: "2%\n2.5%\n2.2%\n2.8%\n2.4%"}.Parse()
	require.NoError(t, err)

	assert.Len(t, in.Values, 5)
	assert.InDelta(t, 0.025, in.Values[1], 1e-15)
	assert.Equal(t, stats.ModelSample, in.Options.Model)
	assert.Equal(t, stats.DefaultWindowSize, in.Options.WindowSize)
	assert.Equal(t, stats.DefaultAlpha, in.Options.Alpha)
	assert.Equal(t, stats.DefaultMultipliers(), in.Multipliers)
}

func TestVolatilityForm_Invalid(t *testing.T) {
	_, err := form.VolatilityForm{
		Data:     "1, 2, x",
		Model:    "garch",
		Alpha:    "1.5",
		Moderate: "-1",
	}.Parse()
	fields := fieldErrors(t, err)
	assert.Contains(t, fields, "data")

	_, err = form.VolatilityForm{Data: "1 2 3", Model: "garch", Alpha: "1.5", Moderate: "-1"}.Parse()
	fields = fieldErrors(t, err)
	assert.Contains(t, fields, "model")
	assert.Contains(t, fields, "alpha")
	assert.Contains(t, fields, "moderate")
}
