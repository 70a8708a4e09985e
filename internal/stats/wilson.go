package stats

import "math"

// WilsonInterval returns the Wilson score interval for a conversion rate
// of successes out of trials at the given confidence. Unlike the normal
// approximation it stays inside [0, 1] and behaves for rates near 0 or 1,
// which is where most monetisation KPIs sit. An empty arm yields (0, 0).
func WilsonInterval(successes, trials int, confidence float64) (lower, upper float64) {
	if trials <= 0 {
		return 0, 0
	}

	n := float64(trials)
	p := float64(successes) / n
	z := ZScore(confidence)
	z2n := z * z / n

	center := (p + z2n/2) / (1 + z2n)
	halfWidth := z / (1 + z2n) * math.Sqrt(p*(1-p)/n+z2n/(4*n))

	return math.Max(0, center-halfWidth), math.Min(1, center+halfWidth)
}

// MeanInterval returns a normal-approximation interval for a group mean.
func MeanInterval(mean, stdDev float64, size int, confidence float64) (lower, upper float64) {
	if size <= 0 {
		return mean, mean
	}
	margin := ZScore(confidence) * stdDev / math.Sqrt(float64(size))
	return mean - margin, mean + margin
}
