package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"
)

// NormalityResult is the outcome of a Shapiro-Wilk test.
type NormalityResult struct {
	W float64
	P float64
}

// Royston (1995) polynomial coefficients.
var (
	swC1 = []float64{0, 0.221157, -0.147981, -2.071190, 4.434685, -2.706056}
	swC2 = []float64{0, 0.042981, -0.293762, -1.752461, 5.682633, -3.582633}
	swC3 = []float64{0.544, -0.39978, 0.025054, -6.714e-4}
	swC4 = []float64{1.3822, -0.77857, 0.062767, -0.0020322}
	swC5 = []float64{-1.5861, -0.31082, -0.083751, 0.0038915}
	swC6 = []float64{-0.4803, -0.082676, 0.0030302}
	swG  = []float64{-2.273, 0.459}
)

func poly(cc []float64, x float64) float64 {
	ret := 0.0
	for i := len(cc) - 1; i >= 0; i-- {
		ret = ret*x + cc[i]
	}
	return ret
}

// ShapiroWilk tests xs for normality with Royston's approximation
// (algorithm AS R94), valid for 3 ≤ n ≤ 5000.
func ShapiroWilk(xs []float64) (NormalityResult, error) {
	n := len(xs)
	if n < 3 || n > 5000 {
		return NormalityResult{}, ErrTooFewObservations
	}

	x := append([]float64(nil), xs...)
	sort.Float64s(x)
	if x[n-1]-x[0] == 0 {
		return NormalityResult{}, ErrIdenticalValues
	}

	a := swCoefficients(n)

	mean := Mean(x)
	var num, ss float64
	for i, v := range x {
		num += a[i] * v
		d := v - mean
		ss += d * d
	}
	w := num * num / ss
	if w > 1 {
		w = 1
	}

	return NormalityResult{W: w, P: swPValue(w, n)}, nil
}

// swCoefficients returns the antisymmetric weights a_1..a_n.
func swCoefficients(n int) []float64 {
	a := make([]float64, n)
	if n == 3 {
		a[0], a[2] = -math.Sqrt2/2, math.Sqrt2/2
		return a
	}

	fn := float64(n)
	m := make([]float64, n)
	var summ2 float64
	for i := range m {
		m[i] = distuv.UnitNormal.Quantile((float64(i+1) - 0.375) / (fn + 0.25))
		summ2 += m[i] * m[i]
	}
	ssumm2 := math.Sqrt(summ2)
	rsn := 1 / math.Sqrt(fn)

	an := poly(swC1, rsn) + m[n-1]/ssumm2
	a[n-1] = an

	var fac float64
	edge := 1
	if n > 5 {
		an1 := poly(swC2, rsn) + m[n-2]/ssumm2
		a[n-2] = an1
		fac = math.Sqrt((summ2 - 2*m[n-1]*m[n-1] - 2*m[n-2]*m[n-2]) /
			(1 - 2*an*an - 2*an1*an1))
		edge = 2
	} else {
		fac = math.Sqrt((summ2 - 2*m[n-1]*m[n-1]) / (1 - 2*an*an))
	}

	for i := edge; i < n-edge; i++ {
		a[i] = m[i] / fac
	}
	for i := 0; i < edge; i++ {
		a[i] = -a[n-1-i]
	}
	return a
}

func swPValue(w float64, n int) float64 {
	if n == 3 {
		const pi6 = 6 / math.Pi
		const stqr = math.Pi / 3
		p := pi6 * (math.Asin(math.Sqrt(w)) - stqr)
		return math.Max(p, 0)
	}

	fn := float64(n)
	y := math.Log(1 - w)
	var mu, sigma float64
	if n <= 11 {
		gamma := poly(swG, fn)
		if y >= gamma {
			return 1e-99
		}
		y = -math.Log(gamma - y)
		mu = poly(swC3, fn)
		sigma = math.Exp(poly(swC4, fn))
	} else {
		ln := math.Log(fn)
		mu = poly(swC5, ln)
		sigma = math.Exp(poly(swC6, ln))
	}
	return distuv.UnitNormal.Survival((y - mu) / sigma)
}
