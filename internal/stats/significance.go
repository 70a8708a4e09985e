package stats

import (
	"fmt"
	"math"
)

// Two-sided 95% critical value used for the effect confidence interval.
const ciZ = 1.96

// Degrees of freedom above which the t statistic is read off the normal tail.
const normalApproxDF = 30

// Significance compares treatment against control. The algorithm is chosen
// by r.MetricType: a chi-square test on conversion counts, or a two-sample
// t-test on means.
func Significance(r TestResults) (StatisticalResults, error) {
	switch r.MetricType {
	case MetricConversion:
		return conversionSignificance(r.Control, r.Treatment)
	case MetricContinuous:
		return continuousSignificance(r.Control, r.Treatment)
	default:
		return StatisticalResults{}, fmt.Errorf("unknown metric type %q: %w", r.MetricType, ErrInvalidInput)
	}
}

func conversionSignificance(control, treatment GroupSample) (StatisticalResults, error) {
	if control.Size <= 0 || treatment.Size <= 0 {
		return StatisticalResults{}, fmt.Errorf("group sizes must be positive: %w", ErrInvalidInput)
	}

	nc := float64(control.Size)
	nt := float64(treatment.Size)
	cc := float64(control.Conversions)
	ct := float64(treatment.Conversions)

	// Calculate rates
	rc := cc / nc
	rt := ct / nt
	absoluteChange := rt - rc
	relativeUplift := absoluteChange / rc

	// Chi-square of observed vs expected conversions under equal rates
	totalConversions := cc + ct
	totalSize := nc + nt
	expectedControl := totalConversions * (nc / totalSize)
	expectedTreatment := totalConversions * (nt / totalSize)

	chiSquare := 0.0
	pValue := 1.0
	if totalConversions > 0 {
		chiSquare = math.Pow(cc-expectedControl, 2)/expectedControl +
			math.Pow(ct-expectedTreatment, 2)/expectedTreatment
		pValue = ChiSquareTail(chiSquare, 1)
	}

	// Unpooled standard error of the rate difference
	se := math.Sqrt(rc*(1-rc)/nc + rt*(1-rt)/nt)

	// Cohen's d with the pooled binomial variance
	pooledVar := ((nc-1)*rc*(1-rc) + (nt-1)*rt*(1-rt)) / (nc + nt - 2)
	effectSize := 0.0
	if pooledVar > 0 {
		effectSize = math.Abs(absoluteChange) / math.Sqrt(pooledVar)
	}

	return StatisticalResults{
		PValue:             pValue,
		ConfidenceInterval: [2]float64{absoluteChange - ciZ*se, absoluteChange + ciZ*se},
		RelativeUplift:     relativeUplift,
		AbsoluteChange:     absoluteChange,
		Significant:        pValue < SignificanceThreshold,
		EffectSize:         effectSize,
		TestStatistic:      chiSquare,
		DegreesOfFreedom:   1,
		Method:             MethodChiSquare,
	}, nil
}

func continuousSignificance(control, treatment GroupSample) (StatisticalResults, error) {
	for _, v := range []float64{control.Mean, treatment.Mean, control.StdDev, treatment.StdDev} {
		if !isFinite(v) {
			return StatisticalResults{}, ErrNonFinite
		}
	}
	if control.Size < 2 || treatment.Size < 2 {
		return StatisticalResults{}, fmt.Errorf("continuous groups need at least 2 observations: %w", ErrInvalidInput)
	}

	nc := float64(control.Size)
	nt := float64(treatment.Size)

	se := math.Sqrt(control.StdDev*control.StdDev/nc + treatment.StdDev*treatment.StdDev/nt)

	absoluteChange := treatment.Mean - control.Mean
	relativeUplift := absoluteChange / control.Mean

	df := nc + nt - 2

	var t, pValue float64
	method := MethodNormal
	switch {
	case se == 0 && absoluteChange == 0:
		pValue = 1
	case se == 0:
		t = math.Copysign(math.Inf(1), absoluteChange)
		pValue = 0
	default:
		t = absoluteChange / se
		if df > normalApproxDF {
			pValue = 2 * (1 - NormalCDF(math.Abs(t)))
		} else {
			method = MethodStudentT
			pValue = StudentTTwoTail(t, df)
		}
	}

	effectSize := 0.0
	if df > 0 {
		pooledVar := ((nc-1)*control.StdDev*control.StdDev + (nt-1)*treatment.StdDev*treatment.StdDev) / df
		if pooledVar > 0 {
			effectSize = absoluteChange / math.Sqrt(pooledVar)
		}
	}

	return StatisticalResults{
		PValue:             pValue,
		ConfidenceInterval: [2]float64{absoluteChange - ciZ*se, absoluteChange + ciZ*se},
		RelativeUplift:     relativeUplift,
		AbsoluteChange:     absoluteChange,
		Significant:        pValue < SignificanceThreshold,
		EffectSize:         effectSize,
		TestStatistic:      t,
		DegreesOfFreedom:   df,
		Method:             method,
	}, nil
}
