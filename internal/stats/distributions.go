package stats

import "math"

// NormalCDF returns P(Z <= x) for the standard normal distribution using
// Abramowitz and Stegun 26.2.17 (absolute error below 7.5e-8).
// NormalCDF(x) + NormalCDF(-x) == 1 for every x.
func NormalCDF(x float64) float64 {
	t := 1 / (1 + 0.2316419*math.Abs(x))
	d := math.Exp(-x*x/2) / math.Sqrt(2*math.Pi)
	q := d * t * (0.319381530 + t*(-0.356563782+t*(1.781477937+t*(-1.821255978+t*1.330274429))))
	if x > 0 {
		return 1 - q
	}
	return q
}

// StudentTTwoTail returns P(|T| >= |t|) for Student's t with df degrees of
// freedom, I_{df/(df+t²)}(df/2, 1/2).
func StudentTTwoTail(t, df float64) float64 {
	return BetaIncomplete(df/2, 0.5, df/(df+t*t))
}

// StudentTCDF returns P(T <= t) for Student's t with df degrees of freedom.
func StudentTCDF(t, df float64) float64 {
	tail := StudentTTwoTail(t, df) / 2
	if t >= 0 {
		return 1 - tail
	}
	return tail
}

// ChiSquareCDF returns P(X <= x) for a chi-square variable with df degrees
// of freedom.
func ChiSquareCDF(x, df float64) float64 {
	if x <= 0 {
		return 0
	}
	return regularizedGammaP(df/2, x/2)
}

// ChiSquareTail returns P(X > x), the p-value of a chi-square statistic.
func ChiSquareTail(x, df float64) float64 {
	if x <= 0 {
		return 1
	}
	return regularizedGammaQ(df/2, x/2)
}

// ZScore returns the two-sided critical value for a confidence level.
// Common values:
//   - 0.90 -> 1.645
//   - 0.95 -> 1.96
//   - 0.99 -> 2.576
func ZScore(confidence float64) float64 {
	return NormalQuantile((1 + confidence) / 2)
}

// NormalQuantile returns the inverse of the standard normal CDF using
// Acklam's rational approximation (relative error about 1.15e-9).
// It returns ±Inf at 0 and 1 and NaN outside [0, 1].
func NormalQuantile(p float64) float64 {
	switch {
	case math.IsNaN(p) || p < 0 || p > 1:
		return math.NaN()
	case p == 0:
		return math.Inf(-1)
	case p == 1:
		return math.Inf(1)
	}

	// Rational approximation coefficients
	a := [6]float64{-3.969683028665376e+01, 2.209460984245205e+02,
		-2.759285104469687e+02, 1.383577518672690e+02,
		-3.066479806614716e+01, 2.506628277459239e+00}
	b := [5]float64{-5.447609879822406e+01, 1.615858368580409e+02,
		-1.556989798598866e+02, 6.680131188771972e+01,
		-1.328068155288572e+01}
	c := [6]float64{-7.784894002430293e-03, -3.223964580411365e-01,
		-2.400758277161838e+00, -2.549732539343734e+00,
		4.374664141464968e+00, 2.938163982698783e+00}
	d := [4]float64{7.784695709041462e-03, 3.224671290700398e-01,
		2.445134137142996e+00, 3.754408661907416e+00}

	const pLow = 0.02425
	const pHigh = 1 - pLow

	var q, r float64

	if p < pLow {
		q = math.Sqrt(-2 * math.Log(p))
		return (((((c[0]*q+c[1])*q+c[2])*q+c[3])*q+c[4])*q + c[5]) /
			((((d[0]*q+d[1])*q+d[2])*q+d[3])*q + 1)
	} else if p <= pHigh {
		q = p - 0.5
		r = q * q
		return (((((a[0]*r+a[1])*r+a[2])*r+a[3])*r+a[4])*r + a[5]) * q /
			(((((b[0]*r+b[1])*r+b[2])*r+b[3])*r+b[4])*r + 1)
	}
	q = math.Sqrt(-2 * math.Log(1-p))
	return -(((((c[0]*q+c[1])*q+c[2])*q+c[3])*q+c[4])*q + c[5]) /
		((((d[0]*q+d[1])*q+d[2])*q+d[3])*q + 1)
}
