package stats

import "errors"

var (
	// ErrInvalidInput is returned when an input makes a formula undefined
	// (zero uplift, zero mean, probabilities outside (0,1), ...).
	ErrInvalidInput = errors.New("invalid input")

	// ErrNonFinite is returned when a mean or standard deviation is NaN or Inf.
	ErrNonFinite = errors.New("non-finite value in test results")

	// ErrNoDispersion is returned when uplift targets are requested for a
	// KPI record that has no standard deviation.
	ErrNoDispersion = errors.New("kpi data has no standard deviation")
)

// SignificanceThreshold is the p-value below which a result is significant.
const SignificanceThreshold = 0.05

type KPIType string

const (
	KPIRetention  KPIType = "retention"
	KPILTV        KPIType = "ltv"
	KPIConversion KPIType = "conversion"
	KPIATV        KPIType = "atv"
)

// Valid reports whether k is one of the known KPI types.
func (k KPIType) Valid() bool {
	switch k {
	case KPIRetention, KPILTV, KPIConversion, KPIATV:
		return true
	}
	return false
}

// TestParameters describes a planned test.
// ConfidenceLevel and Power default to 0.95 and 0.80 when zero.
type TestParameters struct {
	KPIType         KPIType
	BaselineRate    float64
	ExpectedUplift  float64 // relative, 0.05 = 5%
	ConfidenceLevel float64
	Power           float64
}

type MetricType string

const (
	MetricConversion MetricType = "conversion"
	MetricContinuous MetricType = "continuous"
)

// GroupSample holds one arm of a test. Conversions is read for conversion
// metrics, Mean and StdDev for continuous metrics.
type GroupSample struct {
	Size        int
	Conversions int
	Mean        float64
	StdDev      float64
}

// Rate returns Conversions/Size.
func (g GroupSample) Rate() float64 {
	return float64(g.Conversions) / float64(g.Size)
}

type TestResults struct {
	MetricType MetricType
	Control    GroupSample
	Treatment  GroupSample
}

// Swap returns the results with control and treatment exchanged.
func (r TestResults) Swap() TestResults {
	return TestResults{
		MetricType: r.MetricType,
		Control:    r.Treatment,
		Treatment:  r.Control,
	}
}

// Test methods recorded in StatisticalResults.Method.
const (
	MethodChiSquare = "chi-square"
	MethodNormal    = "normal"
	MethodStudentT  = "student-t"
)

// StatisticalResults is the outcome of a significance test.
type StatisticalResults struct {
	PValue             float64
	ConfidenceInterval [2]float64 // 95% interval for AbsoluteChange
	RelativeUplift     float64
	AbsoluteChange     float64
	Significant        bool
	EffectSize         float64
	TestStatistic      float64 // chi-square or t
	DegreesOfFreedom   float64
	Method             string
}

type StdDevModel string

const (
	ModelPopulation  StdDevModel = "population"
	ModelSample      StdDevModel = "sample"
	ModelMoving      StdDevModel = "moving"
	ModelExponential StdDevModel = "exponential"
	ModelNone        StdDevModel = "none"
)

// ParseStdDevModel converts a model name into a StdDevModel.
// "none" is not accepted because it is only ever an output.
func ParseStdDevModel(s string) (StdDevModel, bool) {
	switch m := StdDevModel(s); m {
	case ModelPopulation, ModelSample, ModelMoving, ModelExponential:
		return m, true
	}
	return "", false
}

// KPIData is the result of AnalyzeKPI. Mean and StandardDeviation are nil
// when they could not be computed; StdDevModelUsed is ModelNone whenever
// StandardDeviation is nil.
type KPIData struct {
	Values            []float64
	Mean              *float64
	StandardDeviation *float64
	StdDevModelUsed   StdDevModel
	ErrorMessage      string
}

// HasDispersion reports whether the record carries a usable standard deviation.
func (d KPIData) HasDispersion() bool {
	return d.StdDevModelUsed != ModelNone && d.Mean != nil && d.StandardDeviation != nil
}

// Multipliers scale the coefficient of variation into uplift ratios.
type Multipliers struct {
	Conservative float64
	Moderate     float64
	Aggressive   float64
}

// DefaultMultipliers returns 0.5, 1.0 and 1.5.
func DefaultMultipliers() Multipliers {
	return Multipliers{Conservative: 0.5, Moderate: 1.0, Aggressive: 1.5}
}

// UpliftTargets holds relative uplifts and the KPI values they imply.
type UpliftTargets struct {
	Uplifts Multipliers // ratios, 0.1 = 10%
	Targets Multipliers // mean * (1 + uplift)
}

// Runtime is an estimated test duration.
type Runtime struct {
	Days   int
	Weeks  int
	Months int
}
