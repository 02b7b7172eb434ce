// Package power estimates the effect size of a pilot study and the sample
// size a one-way ANOVA needs to detect it.
package power

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mathext"
	"gonum.org/v1/gonum/stat/distuv"
)

var (
	ErrInvalidEffect = errors.New("effect size must be positive and finite")
	ErrUnreachable   = errors.New("target power not reachable")
)

const maxTotalN = 1e7

// ANOVAPower returns the power of a one-way ANOVA F test with k groups and
// nTotal observations in total for Cohen's effect size f. The noncentrality
// is f²·nTotal.
func ANOVAPower(f, nTotal, alpha float64, k int) float64 {
	df1 := float64(k - 1)
	df2 := nTotal - float64(k)
	if df1 < 1 || df2 <= 0 {
		return math.NaN()
	}
	crit := distuv.F{D1: df1, D2: df2}.Quantile(1 - alpha)
	return 1 - noncentralFCDF(crit, df1, df2, f*f*nTotal)
}

// SolveANOVASampleSize returns the smallest whole total sample size at which
// ANOVAPower reaches target.
func SolveANOVASampleSize(f, alpha, target float64, k int) (int, error) {
	if !(f > 0) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %v", ErrInvalidEffect, f)
	}
	if k < 2 {
		return 0, fmt.Errorf("at least two groups are required, got %d", k)
	}
	if !(alpha > 0 && alpha < 1) || !(target > 0 && target < 1) {
		return 0, fmt.Errorf("alpha and power must be in (0, 1)")
	}

	power := func(n float64) float64 { return ANOVAPower(f, n, alpha, k) }

	lo := float64(k) + 1
	if power(lo) >= target {
		return int(math.Ceil(lo)), nil
	}

	hi := 2 * lo
	for power(hi) < target {
		lo = hi
		hi *= 2
		if hi > maxTotalN {
			return 0, fmt.Errorf("%w: f=%v needs more than %g observations", ErrUnreachable, f, maxTotalN)
		}
	}

	for i := 0; i < 200 && hi-lo > 1e-6; i++ {
		mid := (lo + hi) / 2
		if power(mid) < target {
			lo = mid
		} else {
			hi = mid
		}
	}
	return int(math.Ceil(hi - 1e-9)), nil
}

// noncentralFCDF evaluates the noncentral F distribution as a Poisson
// mixture of regularized incomplete beta functions.
func noncentralFCDF(x, df1, df2, lambda float64) float64 {
	if x <= 0 {
		return 0
	}
	y := df1 * x / (df1*x + df2)
	if lambda == 0 {
		return mathext.RegIncBeta(df1/2, df2/2, y)
	}

	half := lambda / 2
	// start at the Poisson mode and sum outwards in both directions
	mode := math.Floor(half)
	term := func(j float64) float64 {
		lg, _ := math.Lgamma(j + 1)
		w := math.Exp(-half + j*math.Log(half) - lg)
		return w * mathext.RegIncBeta(df1/2+j, df2/2, y)
	}

	sum := 0.0
	for j := mode; ; j++ {
		t := term(j)
		sum += t
		if t < 1e-15 && j-mode > 10 {
			break
		}
	}
	for j := mode - 1; j >= 0; j-- {
		t := term(j)
		sum += t
		if t < 1e-15 && mode-j > 10 {
			break
		}
	}
	return math.Min(sum, 1)
}
