package stats

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// DunnResult holds the Bonferroni-adjusted two-sided p-values of Dunn's
// test. P[i][j] compares Groups[i] with Groups[j]; the diagonal is 1.
type DunnResult struct {
	Groups []string
	P      [][]float64
}

// Lookup returns the adjusted p-value for two named groups.
func (d DunnResult) Lookup(a, b string) (float64, bool) {
	i, j := -1, -1
	for k, g := range d.Groups {
		if g == a {
			i = k
		}
		if g == b {
			j = k
		}
	}
	if i < 0 || j < 0 {
		return math.NaN(), false
	}
	return d.P[i][j], true
}

// Dunn runs Dunn's post-hoc test on the pooled ranks of groups with the tie
// correction, adjusting for k(k-1)/2 comparisons.
func Dunn(groups [][]float64, names []string) (DunnResult, error) {
	k := len(groups)
	if k < 2 {
		return DunnResult{}, ErrTooFewGroups
	}
	if len(names) != k {
		return DunnResult{}, ErrRaggedMatrix
	}

	var pooled []float64
	for _, g := range groups {
		if len(g) == 0 {
			return DunnResult{}, ErrTooFewObservations
		}
		pooled = append(pooled, g...)
	}

	ranks := Rank(pooled)
	n := float64(len(pooled))

	meanRanks := make([]float64, k)
	offset := 0
	for i, g := range groups {
		var sum float64
		for _, r := range ranks[offset : offset+len(g)] {
			sum += r
		}
		meanRanks[i] = sum / float64(len(g))
		offset += len(g)
	}

	variance := n*(n+1)/12 - TieSum(pooled)/(12*(n-1))
	if variance <= 0 {
		return DunnResult{}, ErrIdenticalValues
	}
	m := float64(k*(k-1)) / 2

	p := make([][]float64, k)
	for i := range p {
		p[i] = make([]float64, k)
		p[i][i] = 1
	}
	for i := 0; i < k; i++ {
		for j := i + 1; j < k; j++ {
			se := math.Sqrt(variance * (1/float64(len(groups[i])) + 1/float64(len(groups[j]))))
			z := math.Abs(meanRanks[i]-meanRanks[j]) / se
			adj := math.Min(2*distuv.UnitNormal.Survival(z)*m, 1)
			p[i][j], p[j][i] = adj, adj
		}
	}

	return DunnResult{Groups: append([]string(nil), names...), P: p}, nil
}
