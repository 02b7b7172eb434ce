// Package stats implements the classical tests used to compare chatbot
// ratings: descriptive summaries, normality, rank-based group comparisons and
// rater concordance.
package stats

import (
	"errors"
	"math"
	"sort"

	"github.com/aclements/go-moremath/stats"
	"gonum.org/v1/gonum/stat"
)

var (
	ErrTooFewObservations = errors.New("too few observations")
	ErrTooFewGroups       = errors.New("at least two groups are required")
	ErrIdenticalValues    = errors.New("all values are identical")
	ErrRaggedMatrix       = errors.New("rows have different lengths")
)

// Summary holds the descriptive statistics of one sample.
type Summary struct {
	N      int
	Mean   float64
	SD     float64
	Median float64
	Q1     float64
	Q3     float64
	IQR    float64
}

// Mean returns the arithmetic mean, or NaN for an empty sample.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	return stats.Mean(xs)
}

// Percentile returns the p-th percentile (0 ≤ p ≤ 100) using linear
// interpolation between order statistics (Hyndman and Fan type 7). The input
// is not modified.
func Percentile(xs []float64, p float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	return PercentileSorted(sorted, p)
}

// PercentileSorted is Percentile for input already sorted ascending.
func PercentileSorted(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[n-1]
	}

	h := p / 100 * float64(n-1)
	lo := math.Floor(h)
	i := int(lo)
	if i+1 >= n {
		return sorted[n-1]
	}
	frac := h - lo
	return sorted[i] + frac*(sorted[i+1]-sorted[i])
}

// Describe summarises a sample. SD uses the n-1 denominator and is NaN for a
// single observation.
func Describe(xs []float64) (Summary, error) {
	if len(xs) == 0 {
		return Summary{}, ErrTooFewObservations
	}

	samp := stats.Sample{Xs: append([]float64(nil), xs...)}
	samp.Sort()

	s := Summary{
		N:      len(xs),
		Mean:   samp.Mean(),
		Median: PercentileSorted(samp.Xs, 50),
		Q1:     PercentileSorted(samp.Xs, 25),
		Q3:     PercentileSorted(samp.Xs, 75),
	}
	s.IQR = s.Q3 - s.Q1
	if len(xs) > 1 {
		s.SD = stat.StdDev(xs, nil)
	} else {
		s.SD = math.NaN()
	}
	return s, nil
}
