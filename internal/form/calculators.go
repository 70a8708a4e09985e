package form

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/anthon-sd/ab-test-toolkit/internal/series"
	"github.com/anthon-sd/ab-test-toolkit/internal/stats"
)

// SampleSizeForm is the sample size calculator as submitted. Rates are
// ratios ("0.10"), not percentages. Blank confidence and power mean 0.95
// and 0.80.
type SampleSizeForm struct {
	KPIType         string `json:"kpiType"`
	BaselineRate    string `json:"baselineRate"`
	ExpectedUplift  string `json:"expectedUplift"`
	ConfidenceLevel string `json:"confidenceLevel"`
	Power           string `json:"power"`
}

type sampleSizeInput struct {
	KPIType         string  `json:"kpiType" validate:"omitempty,oneof=retention ltv conversion atv"`
	BaselineRate    float64 `json:"baselineRate" validate:"gt=0,lt=1"`
	ExpectedUplift  float64 `json:"expectedUplift" validate:"ne=0,gt=-1"`
	ConfidenceLevel float64 `json:"confidenceLevel" validate:"gt=0,lt=1"`
	Power           float64 `json:"power" validate:"gt=0,lt=1"`
}

// sampleSizeRange keeps baseline*(1+uplift) a valid proportion.
func sampleSizeRange(sl validator.StructLevel) {
	in := sl.Current().Interface().(sampleSizeInput)
	if p2 := in.BaselineRate * (1 + in.ExpectedUplift); p2 >= 1 {
		sl.ReportError(in.ExpectedUplift, "expectedUplift", "ExpectedUplift", "proportion", "")
	}
}

// Parse validates the form and returns engine parameters.
func (f SampleSizeForm) Parse() (stats.TestParameters, error) {
	e := &Error{}
	in := sampleSizeInput{
		KPIType:         strings.TrimSpace(f.KPIType),
		BaselineRate:    required(e, "baselineRate", f.BaselineRate, ParseDecimal),
		ExpectedUplift:  required(e, "expectedUplift", f.ExpectedUplift, ParseDecimal),
		ConfidenceLevel: optional(e, "confidenceLevel", f.ConfidenceLevel, 0.95, ParseDecimal),
		Power:           optional(e, "power", f.Power, 0.80, ParseDecimal),
	}
	if err := e.err(); err != nil {
		return stats.TestParameters{}, err
	}

	check(e, in)
	if err := e.err(); err != nil {
		return stats.TestParameters{}, err
	}

	return stats.TestParameters{
		KPIType:         stats.KPIType(in.KPIType),
		BaselineRate:    in.BaselineRate,
		ExpectedUplift:  in.ExpectedUplift,
		ConfidenceLevel: in.ConfidenceLevel,
		Power:           in.Power,
	}, nil
}

// RuntimeForm converts a sample size into a test duration. SplitPercent is
// the share of traffic each variant receives ("50" for a 50/50 split).
type RuntimeForm struct {
	SampleSize   string `json:"sampleSize"`
	DailyTraffic string `json:"dailyTraffic"`
	SplitPercent string `json:"splitPercent"`
}

type runtimeInput struct {
	SampleSize   int     `json:"sampleSize" validate:"gt=0"`
	DailyTraffic float64 `json:"dailyTraffic" validate:"gt=0"`
	Split        float64 `json:"splitPercent" validate:"gt=0,lte=1"`
}

// RuntimeInput is a validated RuntimeForm.
type RuntimeInput struct {
	SampleSize   int
	DailyTraffic float64
	SplitRatio   float64
}

func (f RuntimeForm) Parse() (RuntimeInput, error) {
	e := &Error{}
	in := runtimeInput{
		SampleSize:   required(e, "sampleSize", f.SampleSize, ParseInt),
		DailyTraffic: required(e, "dailyTraffic", f.DailyTraffic, ParseDecimal),
		Split:        optional(e, "splitPercent", f.SplitPercent, 0.5, ParsePercent),
	}
	if err := e.err(); err != nil {
		return RuntimeInput{}, err
	}

	check(e, in)
	if err := e.err(); err != nil {
		return RuntimeInput{}, err
	}

	return RuntimeInput{SampleSize: in.SampleSize, DailyTraffic: in.DailyTraffic, SplitRatio: in.Split}, nil
}

// GroupForm is one arm of a significance test. Conversions is used for
// conversion metrics, Mean and StdDev for continuous ones.
type GroupForm struct {
	Size        string `json:"size"`
	Conversions string `json:"conversions,omitempty"`
	Mean        string `json:"mean,omitempty"`
	StdDev      string `json:"stdDev,omitempty"`
}

// SignificanceForm is the significance calculator as submitted.
type SignificanceForm struct {
	MetricType string    `json:"metricType"`
	Control    GroupForm `json:"controlGroup"`
	Treatment  GroupForm `json:"treatmentGroup"`
}

type conversionGroup struct {
	Size        int `json:"size" validate:"gt=0"`
	Conversions int `json:"conversions" validate:"gte=0,ltefield=Size"`
}

type conversionInput struct {
	Control   conversionGroup `json:"controlGroup"`
	Treatment conversionGroup `json:"treatmentGroup"`
}

// groupRange rejects a zero control rate, which would divide the relative uplift by zero.
func groupRange(sl validator.StructLevel) {
	in := sl.Current().Interface().(conversionInput)
	if in.Control.Size > 0 && in.Control.Conversions == 0 {
		sl.ReportError(in.Control.Conversions, "controlGroup.conversions", "Conversions", "gt", "0")
	}
}

type continuousGroup struct {
	Size   int     `json:"size" validate:"gte=2"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stdDev" validate:"gte=0"`
}

type continuousInput struct {
	Control   continuousGroup `json:"controlGroup"`
	Treatment continuousGroup `json:"treatmentGroup"`
}

// Parse validates the form for its metric type and returns engine input.
func (f SignificanceForm) Parse() (stats.TestResults, error) {
	e := &Error{}

	switch metric := stats.MetricType(strings.TrimSpace(f.MetricType)); metric {
	case stats.MetricConversion:
		in := conversionInput{
			Control: conversionGroup{
				Size:        required(e, "controlGroup.size", f.Control.Size, ParseInt),
				Conversions: required(e, "controlGroup.conversions", f.Control.Conversions, ParseInt),
			},
			Treatment: conversionGroup{
				Size:        required(e, "treatmentGroup.size", f.Treatment.Size, ParseInt),
				Conversions: required(e, "treatmentGroup.conversions", f.Treatment.Conversions, ParseInt),
			},
		}
		if err := e.err(); err != nil {
			return stats.TestResults{}, err
		}
		check(e, in)
		if err := e.err(); err != nil {
			return stats.TestResults{}, err
		}
		return stats.TestResults{
			MetricType: metric,
			Control:    stats.GroupSample{Size: in.Control.Size, Conversions: in.Control.Conversions},
			Treatment:  stats.GroupSample{Size: in.Treatment.Size, Conversions: in.Treatment.Conversions},
		}, nil

	case stats.MetricContinuous:
		in := continuousInput{
			Control: continuousGroup{
				Size:   required(e, "controlGroup.size", f.Control.Size, ParseInt),
				Mean:   required(e, "controlGroup.mean", f.Control.Mean, ParseDecimal),
				StdDev: required(e, "controlGroup.stdDev", f.Control.StdDev, ParseDecimal),
			},
			Treatment: continuousGroup{
				Size:   required(e, "treatmentGroup.size", f.Treatment.Size, ParseInt),
				Mean:   required(e, "treatmentGroup.mean", f.Treatment.Mean, ParseDecimal),
				StdDev: required(e, "treatmentGroup.stdDev", f.Treatment.StdDev, ParseDecimal),
			},
		}
		if err := e.err(); err != nil {
			return stats.TestResults{}, err
		}
		check(e, in)
		if in.Control.Mean == 0 {
			e.add("controlGroup.mean", "must not be 0")
		}
		if err := e.err(); err != nil {
			return stats.TestResults{}, err
		}
		return stats.TestResults{
			MetricType: metric,
			Control:    stats.GroupSample{Size: in.Control.Size, Mean: in.Control.Mean, StdDev: in.Control.StdDev},
			Treatment:  stats.GroupSample{Size: in.Treatment.Size, Mean: in.Treatment.Mean, StdDev: in.Treatment.StdDev},
		}, nil

	default:
		e.add("metricType", "must be one of: conversion, continuous")
		return stats.TestResults{}, e.err()
	}
}

// VolatilityForm is the uplift calculator: pasted KPI history plus model
// settings and multipliers. Blank settings take the engine defaults.
type VolatilityForm struct {
	Data         string `json:"data"`
	Model        string `json:"model"`
	WindowSize   string `json:"windowSize"`
	Alpha        string `json:"alpha"`
	Conservative string `json:"conservative"`
	Moderate     string `json:"moderate"`
	Aggressive   string `json:"aggressive"`
}

type volatilityInput struct {
	Model        string  `json:"model" validate:"oneof=sample population moving exponential"`
	WindowSize   int     `json:"windowSize" validate:"gte=2"`
	Alpha        float64 `json:"alpha" validate:"gt=0,lt=1"`
	Conservative float64 `json:"conservative" validate:"gte=0"`
	Moderate     float64 `json:"moderate" validate:"gte=0"`
	Aggressive   float64 `json:"aggressive" validate:"gte=0"`
}

// VolatilityInput is a validated VolatilityForm.
type VolatilityInput struct {
	Values      []float64
	Options     stats.AnalyzeOptions
	Multipliers stats.Multipliers
}

func (f VolatilityForm) Parse() (VolatilityInput, error) {
	e := &Error{}
	def := stats.DefaultMultipliers()

	values, err := series.ParseText(strings.NewReader(f.Data))
	if err != nil {
		e.add("data", "%v", err)
	}

	model := strings.TrimSpace(f.Model)
	if model == "" {
		model = string(stats.ModelSample)
	}

	in := volatilityInput{
		Model:        model,
		WindowSize:   optional(e, "windowSize", f.WindowSize, stats.DefaultWindowSize, ParseInt),
		Alpha:        optional(e, "alpha", f.Alpha, stats.DefaultAlpha, ParseDecimal),
		Conservative: optional(e, "conservative", f.Conservative, def.Conservative, ParseDecimal),
		Moderate:     optional(e, "moderate", f.Moderate, def.Moderate, ParseDecimal),
		Aggressive:   optional(e, "aggressive", f.Aggressive, def.Aggressive, ParseDecimal),
	}
	if err := e.err(); err != nil {
		return VolatilityInput{}, err
	}

	check(e, in)
	if err := e.err(); err != nil {
		return VolatilityInput{}, err
	}

	return VolatilityInput{
		Values: values,
		Options: stats.AnalyzeOptions{
			Model:      stats.StdDevModel(in.Model),
			WindowSize: in.WindowSize,
			Alpha:      in.Alpha,
		},
		Multipliers: stats.Multipliers{
			Conservative: in.Conservative,
			Moderate:     in.Moderate,
			Aggressive:   in.Aggressive,
		},
	}, nil
}
