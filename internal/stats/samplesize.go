package stats

import (
	"fmt"
	"math"
)

// Z-scores of the legacy calculator: 95% confidence, 80% power.
const (
	FixedZAlpha = 1.96
	FixedZBeta  = 0.84
)

const (
	defaultConfidence = 0.95
	defaultPower      = 0.80
)

// RequiredSampleSize returns the per-variant sample size needed to detect
// a relative uplift of p.ExpectedUplift on p.BaselineRate with a two-sided
// two-proportion test. zα and zβ are derived from ConfidenceLevel and Power.
func RequiredSampleSize(p TestParameters) (int, error) {
	confidence := p.ConfidenceLevel
	if confidence == 0 {
		confidence = defaultConfidence
	}
	power := p.Power
	if power == 0 {
		power = defaultPower
	}
	if !(confidence > 0 && confidence < 1) {
		return 0, fmt.Errorf("confidence level %v outside (0, 1): %w", confidence, ErrInvalidInput)
	}
	if !(power > 0 && power < 1) {
		return 0, fmt.Errorf("power %v outside (0, 1): %w", power, ErrInvalidInput)
	}

	return sampleSize(p.BaselineRate, p.ExpectedUplift, ZScore(confidence), NormalQuantile(power))
}

// RequiredSampleSizeFixed is RequiredSampleSize with the hard-coded
// FixedZAlpha and FixedZBeta, ignoring ConfidenceLevel and Power.
func RequiredSampleSizeFixed(p TestParameters) (int, error) {
	return sampleSize(p.BaselineRate, p.ExpectedUplift, FixedZAlpha, FixedZBeta)
}

func sampleSize(baseline, uplift, zAlpha, zBeta float64) (int, error) {
	if !isFinite(baseline) || !isFinite(uplift) {
		return 0, fmt.Errorf("baseline %v, uplift %v: %w", baseline, uplift, ErrInvalidInput)
	}
	if uplift == 0 || baseline == 0 {
		return 0, fmt.Errorf("baseline and uplift must be non-zero: %w", ErrInvalidInput)
	}

	p1 := baseline
	p2 := p1 * (1 + uplift)
	pBar := (p1 + p2) / 2

	n := 2 * pBar * (1 - pBar) * math.Pow(zAlpha+zBeta, 2) / math.Pow(p2-p1, 2)
	if !isFinite(n) || n <= 0 {
		return 0, fmt.Errorf("baseline %v with uplift %v leaves the proportion range: %w", baseline, uplift, ErrInvalidInput)
	}
	if n > math.MaxInt32 {
		return 0, fmt.Errorf("required sample size %.0f is too large: %w", n, ErrInvalidInput)
	}

	return int(math.Ceil(n)), nil
}

// EstimateRuntime converts a per-variant sample size into a test duration.
// splitRatio is the share of daily traffic each variant receives, in (0, 1].
func EstimateRuntime(sampleSize int, dailyTraffic, splitRatio float64) (Runtime, error) {
	if sampleSize <= 0 {
		return Runtime{}, fmt.Errorf("sample size %d must be positive: %w", sampleSize, ErrInvalidInput)
	}
	if !isFinite(dailyTraffic) || dailyTraffic <= 0 {
		return Runtime{}, fmt.Errorf("daily traffic %v must be positive: %w", dailyTraffic, ErrInvalidInput)
	}
	if !(splitRatio > 0 && splitRatio <= 1) {
		return Runtime{}, fmt.Errorf("split ratio %v outside (0, 1]: %w", splitRatio, ErrInvalidInput)
	}

	perVariant := dailyTraffic * splitRatio
	days := int(math.Ceil(float64(sampleSize) / perVariant))

	return Runtime{
		Days:   days,
		Weeks:  ceilDiv(days, 7),
		Months: ceilDiv(days, 30),
	}, nil
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
