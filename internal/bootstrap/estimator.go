package bootstrap

import (
	"context"
	"fmt"
	"math/rand/v2"

	"golang.org/x/sync/errgroup"
)

// cancellation is checked once per this many draws
const checkEvery = 1024

// Estimator runs Estimate with the draws split across workers.
type Estimator struct {
	Draws   int
	Level   float64
	Workers int
	// Seed makes the estimate reproducible for a fixed Workers count; nil
	// seeds randomly. Stream selects an independent sequence for the seed.
	Seed   *uint64
	Stream uint64
}

// NewEstimator returns an estimator with the default draws and level.
func NewEstimator(workers int, seed *uint64) *Estimator {
	return &Estimator{
		Draws:   DefaultDraws,
		Level:   DefaultLevel,
		Workers: workers,
		Seed:    seed,
	}
}

// Estimate computes the same quantity as the package-level Estimate. Each
// worker owns a contiguous segment of the draw accumulator and a source
// derived from the estimator's seed; the summary is computed after all
// workers finish.
func (e *Estimator) Estimate(ctx context.Context, a, b []float64) (Result, error) {
	if err := validate(a, b, e.Draws, e.Level); err != nil {
		return Result{}, err
	}
	if e.Workers < 0 {
		return Result{}, fmt.Errorf("%w: workers must not be negative, got %d", ErrInvalidParameter, e.Workers)
	}

	parent := NewRand(e.Seed, e.Stream)
	workers := e.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > e.Draws {
		workers = e.Draws
	}

	diffs := make([]float64, e.Draws)

	if workers == 1 {
		if err := fillContext(ctx, diffs, a, b, parent); err != nil {
			return Result{}, err
		}
		return summarize(diffs, e.Level), nil
	}

	// derive every worker source before starting so the split is deterministic
	sources := make([]*rand.Rand, workers)
	for w := range sources {
		sources[w] = rand.New(rand.NewPCG(parent.Uint64(), parent.Uint64()))
	}

	g, gctx := errgroup.WithContext(ctx)
	chunk := (e.Draws + workers - 1) / workers
	for w := 0; w < workers; w++ {
		start := w * chunk
		if start >= e.Draws {
			break
		}
		end := min(start+chunk, e.Draws)
		segment := diffs[start:end]
		rng := sources[w]
		g.Go(func() error {
			return fillContext(gctx, segment, a, b, rng)
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	return summarize(diffs, e.Level), nil
}

func fillContext(ctx context.Context, diffs, a, b []float64, rng *rand.Rand) error {
	for start := 0; start < len(diffs); start += checkEvery {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(start+checkEvery, len(diffs))
		fill(diffs[start:end], a, b, rng)
	}
	return nil
}
