package stats

import "math"

// Lanczos series coefficients (Numerical Recipes gammln).
var lanczos = [6]float64{
	76.18009172947146,
	-86.50532032941677,
	24.01409824083091,
	-1.231739572450155,
	0.1208650973866179e-2,
	-0.5395239384953e-5,
}

const (
	maxIterations = 100
	convergence   = 3e-7
	tiny          = 1e-30
)

// LogGamma returns ln(Γ(z)) for z > 0, accurate to about 1e-10.
// Values below 0.5 go through the reflection formula.
// z must not be zero or a negative integer, where Γ has poles.
func LogGamma(z float64) float64 {
	if z < 0.5 {
		return math.Log(math.Pi) - math.Log(math.Sin(math.Pi*z)) - LogGamma(1-z)
	}

	x := z - 1
	tmp := x + 5.5
	tmp -= (x + 0.5) * math.Log(tmp)
	ser := 1.000000000190015

	for _, c := range lanczos {
		x++
		ser += c / x
	}

	return -tmp + math.Log(2.5066282746310005*ser)
}

// regularizedGammaP returns the regularized lower incomplete gamma P(a, x).
func regularizedGammaP(a, x float64) float64 {
	if x <= 0 {
		return 0
	}
	if x < a+1 {
		return gammaSeries(a, x)
	}
	return 1 - gammaCF(a, x)
}

// regularizedGammaQ returns the upper complement Q(a, x) = 1 - P(a, x).
func regularizedGammaQ(a, x float64) float64 {
	if x <= 0 {
		return 1
	}
	if x < a+1 {
		return 1 - gammaSeries(a, x)
	}
	return gammaCF(a, x)
}

// gammaSeries evaluates P(a, x) by its power series; converges fast for x < a+1.
func gammaSeries(a, x float64) float64 {
	ap := a
	sum := 1 / a
	del := sum
	for n := 1; n <= maxIterations; n++ {
		ap++
		del *= x / ap
		sum += del
		if math.Abs(del) < math.Abs(sum)*convergence {
			break
		}
	}
	return sum * math.Exp(-x+a*math.Log(x)-LogGamma(a))
}

// gammaCF evaluates Q(a, x) = 1 - P(a, x) by Lentz's continued fraction.
func gammaCF(a, x float64) float64 {
	b := x + 1 - a
	c := 1 / tiny
	d := 1 / b
	h := d

	for i := 1; i <= maxIterations; i++ {
		an := -float64(i) * (float64(i) - a)
		b += 2

		d = an*d + b
		if math.Abs(d) < tiny {
			d = tiny
		}
		c = b + an/c
		if math.Abs(c) < tiny {
			c = tiny
		}

		d = 1 / d
		del := d * c
		h *= del
		if math.Abs(del-1) < convergence {
			break
		}
	}

	return math.Exp(-x+a*math.Log(x)-LogGamma(a)) * h
}
