// Package bootstrap estimates the difference between the means of two
// independent samples with a percentile bootstrap confidence interval.
package bootstrap

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"

	"github.com/doctorai/llm-eval/internal/stats"
)

const (
	DefaultDraws = 10000
	DefaultLevel = 95.0
)

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrInvalidParameter = errors.New("invalid parameter")
)

// Result summarises the bootstrap distribution of mean(A) - mean(B).
type Result struct {
	MeanDiff float64 `json:"mean_diff"`
	Lower    float64 `json:"lower"`
	Upper    float64 `json:"upper"`
	Draws    int     `json:"draws"`
	Level    float64 `json:"level"`
}

// Estimate resamples a and b independently with replacement draws times and
// returns the mean of the resampled mean differences with the central
// level% percentile interval. A nil rng uses a randomly seeded source. The
// inputs are not modified.
func Estimate(a, b []float64, draws int, level float64, rng *rand.Rand) (Result, error) {
	if err := validate(a, b, draws, level); err != nil {
		return Result{}, err
	}
	if rng == nil {
		rng = NewRand(nil, 0)
	}

	diffs := make([]float64, draws)
	fill(diffs, a, b, rng)
	return summarize(diffs, level), nil
}

// NewRand returns a PCG source. A nil seed draws the seed from the runtime's
// random source; stream selects an independent sequence for a given seed.
func NewRand(seed *uint64, stream uint64) *rand.Rand {
	if seed == nil {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return rand.New(rand.NewPCG(*seed, stream))
}

func validate(a, b []float64, draws int, level float64) error {
	if len(a) == 0 || len(b) == 0 {
		return fmt.Errorf("%w: both samples must be non-empty (got %d and %d)", ErrInvalidInput, len(a), len(b))
	}
	if draws <= 0 {
		return fmt.Errorf("%w: draws must be positive, got %d", ErrInvalidParameter, draws)
	}
	if !(level > 0 && level < 100) {
		return fmt.Errorf("%w: confidence level must be in (0, 100), got %v", ErrInvalidParameter, level)
	}
	return nil
}

// fill writes one resampled mean difference per element of diffs.
func fill(diffs, a, b []float64, rng *rand.Rand) {
	for i := range diffs {
		diffs[i] = resampleMean(a, rng) - resampleMean(b, rng)
	}
}

func resampleMean(xs []float64, rng *rand.Rand) float64 {
	n := len(xs)
	var sum float64
	for i := 0; i < n; i++ {
		sum += xs[rng.IntN(n)]
	}
	return sum / float64(n)
}

// summarize sorts diffs in place.
func summarize(diffs []float64, level float64) Result {
	mean := stats.Mean(diffs)
	sort.Float64s(diffs)
	tail := (100 - level) / 2
	return Result{
		MeanDiff: mean,
		Lower:    stats.PercentileSorted(diffs, tail),
		Upper:    stats.PercentileSorted(diffs, 100-tail),
		Draws:    len(diffs),
		Level:    level,
	}
}
