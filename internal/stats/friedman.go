package stats

import (
	"gonum.org/v1/gonum/stat/distuv"
)

// FriedmanResult is a Friedman test outcome with Kendall's W derived from
// the statistic as χ²/(n(k-1)).
type FriedmanResult struct {
	TestResult
	W float64
}

// Friedman runs the Friedman test over blocks, where each row is one block
// (subject) and each column one treatment. Ranks are computed within rows
// and the statistic carries the tie correction.
func Friedman(blocks [][]float64) (FriedmanResult, error) {
	n := len(blocks)
	if n < 2 {
		return FriedmanResult{}, ErrTooFewObservations
	}
	k := len(blocks[0])
	if k < 2 {
		return FriedmanResult{}, ErrTooFewGroups
	}

	rankSums := make([]float64, k)
	var ties float64
	for _, row := range blocks {
		if len(row) != k {
			return FriedmanResult{}, ErrRaggedMatrix
		}
		for j, r := range Rank(row) {
			rankSums[j] += r
		}
		ties += TieSum(row)
	}

	fn, fk := float64(n), float64(k)
	var ssr float64
	for _, r := range rankSums {
		ssr += r * r
	}

	correction := 1 - ties/(fn*fk*(fk*fk-1))
	if correction == 0 {
		return FriedmanResult{}, ErrIdenticalValues
	}
	chi2 := (12/(fn*fk*(fk+1))*ssr - 3*fn*(fk+1)) / correction

	df := fk - 1
	return FriedmanResult{
		TestResult: TestResult{
			Statistic: chi2,
			DF:        df,
			P:         distuv.ChiSquared{K: df}.Survival(chi2),
		},
		W: chi2 / (fn * df),
	}, nil
}
