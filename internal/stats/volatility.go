package stats

import (
	"fmt"
	"math"
)

// Defaults applied by AnalyzeOptions.withDefaults.
const (
	DefaultWindowSize = 4
	DefaultAlpha      = 0.3
)

// AnalyzeOptions selects the dispersion model for AnalyzeKPI.
// Zero fields take the defaults: ModelSample, DefaultWindowSize, DefaultAlpha.
type AnalyzeOptions struct {
	Model      StdDevModel
	WindowSize int     // moving model only
	Alpha      float64 // exponential model only, in (0, 1)
}

func (o AnalyzeOptions) withDefaults() AnalyzeOptions {
	if o.Model == "" {
		o.Model = ModelSample
	}
	if o.WindowSize == 0 {
		o.WindowSize = DefaultWindowSize
	}
	if o.Alpha == 0 {
		o.Alpha = DefaultAlpha
	}
	return o
}

// AnalyzeKPI computes the location and dispersion of a chronological KPI
// series with the model chosen in opts.
//
// It never fails: when the model cannot produce a standard deviation the
// returned record has StdDevModelUsed == ModelNone and ErrorMessage set.
// Mean is the model's location estimate: the arithmetic mean for sample and
// population, the window mean for moving and the final EWMA for exponential.
func AnalyzeKPI(values []float64, opts AnalyzeOptions) KPIData {
	opts = opts.withDefaults()

	if len(values) == 0 {
		return failed(values, nil, "Input array is empty or null.")
	}
	for i, v := range values {
		if !isFinite(v) {
			return failed(values, nil, fmt.Sprintf("Value at position %d is not a finite number.", i+1))
		}
	}

	mean := meanOf(values)

	switch opts.Model {
	case ModelSample:
		if len(values) < 2 {
			return failed(values, &mean, "Sample standard deviation requires at least 2 data points.")
		}
		return succeeded(values, mean, sampleStdDev(values, mean), ModelSample, "")

	case ModelPopulation:
		return succeeded(values, mean, populationStdDev(values, mean), ModelPopulation, "")

	case ModelMoving:
		return movingWindow(values, mean, opts.WindowSize)

	case ModelExponential:
		return exponentiallyWeighted(values, mean, opts.Alpha)

	default:
		return failed(values, &mean, fmt.Sprintf("Unknown standard deviation model %q.", opts.Model))
	}
}

func movingWindow(values []float64, mean float64, window int) KPIData {
	if window < 2 {
		return failed(values, &mean, fmt.Sprintf("Moving window size must be at least 2, got %d.", window))
	}

	if len(values) < window {
		if len(values) < 2 {
			return failed(values, &mean, fmt.Sprintf(
				"Moving standard deviation needs %d data points and the sample fallback needs at least 2.", window))
		}
		msg := fmt.Sprintf("Only %d data points for a window of %d; used sample standard deviation over all points.",
			len(values), window)
		return succeeded(values, mean, sampleStdDev(values, mean), ModelSample, msg)
	}

	recent := values[len(values)-window:]
	windowMean := meanOf(recent)
	return succeeded(values, windowMean, sampleStdDev(recent, windowMean), ModelMoving, "")
}

func exponentiallyWeighted(values []float64, mean, alpha float64) KPIData {
	if !(alpha > 0 && alpha < 1) {
		return failed(values, &mean, fmt.Sprintf("Smoothing factor alpha must be between 0 and 1, got %v.", alpha))
	}
	if len(values) < 2 {
		return failed(values, &mean, "Exponential standard deviation requires at least 2 data points.")
	}

	ewma := values[0]
	ewmv := 0.0
	for _, x := range values[1:] {
		diff := x - ewma
		ewma += alpha * diff
		ewmv = (1 - alpha) * (ewmv + alpha*diff*diff)
	}

	return succeeded(values, ewma, math.Sqrt(ewmv), ModelExponential, "")
}

// Targets derives uplift targets from a KPI record: for each multiplier m,
// uplift = m * stdDev / mean and target = mean * (1 + uplift).
func Targets(data KPIData, m Multipliers) (UpliftTargets, error) {
	if !data.HasDispersion() {
		return UpliftTargets{}, ErrNoDispersion
	}
	if m.Conservative < 0 || m.Moderate < 0 || m.Aggressive < 0 {
		return UpliftTargets{}, fmt.Errorf("multipliers must not be negative: %w", ErrInvalidInput)
	}

	mean := *data.Mean
	if mean == 0 {
		return UpliftTargets{}, fmt.Errorf("mean is zero, coefficient of variation undefined: %w", ErrInvalidInput)
	}
	cv := *data.StandardDeviation / mean

	uplifts := Multipliers{
		Conservative: m.Conservative * cv,
		Moderate:     m.Moderate * cv,
		Aggressive:   m.Aggressive * cv,
	}

	return UpliftTargets{
		Uplifts: uplifts,
		Targets: Multipliers{
			Conservative: mean * (1 + uplifts.Conservative),
			Moderate:     mean * (1 + uplifts.Moderate),
			Aggressive:   mean * (1 + uplifts.Aggressive),
		},
	}, nil
}

func meanOf(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func sumSquares(values []float64, mean float64) float64 {
	ss := 0.0
	for _, v := range values {
		d := v - mean
		ss += d * d
	}
	return ss
}

func sampleStdDev(values []float64, mean float64) float64 {
	return math.Sqrt(sumSquares(values, mean) / float64(len(values)-1))
}

func populationStdDev(values []float64, mean float64) float64 {
	return math.Sqrt(sumSquares(values, mean) / float64(len(values)))
}

// overflowMessage is reported when the inputs are finite but too large for
// the mean or spread to be represented.
const overflowMessage = "Values are too large to compute a finite mean and standard deviation."

func succeeded(values []float64, mean, stdDev float64, model StdDevModel, msg string) KPIData {
	if !isFinite(mean) || !isFinite(stdDev) {
		return failed(values, &mean, overflowMessage)
	}
	return KPIData{
		Values:            values,
		Mean:              &mean,
		StandardDeviation: &stdDev,
		StdDevModelUsed:   model,
		ErrorMessage:      msg,
	}
}

func failed(values []float64, mean *float64, msg string) KPIData {
	if values == nil {
		values = []float64{}
	}
	if mean != nil && !isFinite(*mean) {
		mean = nil
	}
	return KPIData{
		Values:          values,
		Mean:            mean,
		StdDevModelUsed: ModelNone,
		ErrorMessage:    msg,
	}
}
