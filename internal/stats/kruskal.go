package stats

import (
	"gonum.org/v1/gonum/stat/distuv"
)

// TestResult is a test statistic with its degrees of freedom and p-value.
type TestResult struct {
	Statistic float64
	DF        float64
	P         float64
}

// KruskalWallis runs the Kruskal-Wallis H test with the tie correction,
// p-value from the χ² distribution with k-1 degrees of freedom.
func KruskalWallis(groups ...[]float64) (TestResult, error) {
	if len(groups) < 2 {
		return TestResult{}, ErrTooFewGroups
	}

	var pooled []float64
	for _, g := range groups {
		if len(g) == 0 {
			return TestResult{}, ErrTooFewObservations
		}
		pooled = append(pooled, g...)
	}

	ranks := Rank(pooled)
	n := float64(len(pooled))

	var h float64
	offset := 0
	for _, g := range groups {
		var sum float64
		for _, r := range ranks[offset : offset+len(g)] {
			sum += r
		}
		h += sum * sum / float64(len(g))
		offset += len(g)
	}
	h = 12/(n*(n+1))*h - 3*(n+1)

	correction := 1 - TieSum(pooled)/(n*n*n-n)
	if correction == 0 {
		return TestResult{}, ErrIdenticalValues
	}
	h /= correction

	df := float64(len(groups) - 1)
	return TestResult{
		Statistic: h,
		DF:        df,
		P:         distuv.ChiSquared{K: df}.Survival(h),
	}, nil
}
