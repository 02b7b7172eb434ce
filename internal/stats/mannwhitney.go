package stats

import (
	"errors"

	"github.com/aclements/go-moremath/stats"
)

// MannWhitneyResult is a two-sided Mann-Whitney U test outcome. U is the
// statistic of the first sample.
type MannWhitneyResult struct {
	U float64
	P float64
}

// MannWhitney runs a two-sided Mann-Whitney U test. Two samples made of one
// shared value are reported as U = n1·n2/2 with p = 1.
func MannWhitney(x, y []float64) (MannWhitneyResult, error) {
	if len(x) == 0 || len(y) == 0 {
		return MannWhitneyResult{}, ErrTooFewObservations
	}

	res, err := stats.MannWhitneyUTest(x, y, stats.LocationDiffers)
	if errors.Is(err, stats.ErrSamplesEqual) {
		return MannWhitneyResult{U: float64(len(x)*len(y)) / 2, P: 1}, nil
	}
	if err != nil {
		return MannWhitneyResult{}, err
	}
	return MannWhitneyResult{U: res.U, P: res.P}, nil
}
