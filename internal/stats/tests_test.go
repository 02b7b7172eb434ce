package stats

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/stat/distuv"
)

func TestShapiroWilk(t *testing.T) {
	t.Run("three equally spaced values", func(t *testing.T) {
		res, err := ShapiroWilk([]float64{1, 2, 3})
		if err != nil {
			t.Fatalf("ShapiroWilk failed: %v", err)
		}
		if !almostEqual(res.W, 1, 1e-12) || !almostEqual(res.P, 1, 1e-9) {
			t.Errorf("Expected W=1 p=1, got %+v", res)
		}
	})

	t.Run("three values exact p", func(t *testing.T) {
		res, err := ShapiroWilk([]float64{4, 1, 2})
		if err != nil {
			t.Fatalf("ShapiroWilk failed: %v", err)
		}
		if !almostEqual(res.W, 0.9642857, 1e-6) {
			t.Errorf("Expected W≈0.9643, got %v", res.W)
		}
		if !almostEqual(res.P, 0.6368868, 1e-4) {
			t.Errorf("Expected p≈0.6369, got %v", res.P)
		}
	})

	t.Run("normal scores are not rejected", func(t *testing.T) {
		xs := make([]float64, 30)
		for i := range xs {
			xs[i] = distuv.UnitNormal.Quantile((float64(i) + 0.5) / 30)
		}
		res, err := ShapiroWilk(xs)
		if err != nil {
			t.Fatalf("ShapiroWilk failed: %v", err)
		}
		if res.W < 0.95 || res.P < 0.5 {
			t.Errorf("Expected normal quantiles to look normal, got %+v", res)
		}
	})

	t.Run("skewed sample is rejected", func(t *testing.T) {
		xs := make([]float64, 15)
		for i := range xs {
			xs[i] = math.Pow(2, float64(i))
		}
		res, err := ShapiroWilk(xs)
		if err != nil {
			t.Fatalf("ShapiroWilk failed: %v", err)
		}
		if res.P >= 0.05 {
			t.Errorf("Expected exponential growth to be non-normal, got %+v", res)
		}
	})

	t.Run("small samples between four and eleven", func(t *testing.T) {
		res, err := ShapiroWilk([]float64{2, 3, 3, 4, 4, 4, 5, 5})
		if err != nil {
			t.Fatalf("ShapiroWilk failed: %v", err)
		}
		if res.W <= 0 || res.W > 1 || res.P <= 0 || res.P > 1 {
			t.Errorf("Statistic out of range: %+v", res)
		}
	})

	t.Run("errors", func(t *testing.T) {
		if _, err := ShapiroWilk([]float64{1, 2}); !errors.Is(err, ErrTooFewObservations) {
			t.Errorf("Expected ErrTooFewObservations, got %v", err)
		}
		if _, err := ShapiroWilk([]float64{3, 3, 3, 3}); !errors.Is(err, ErrIdenticalValues) {
			t.Errorf("Expected ErrIdenticalValues, got %v", err)
		}
	})
}

func TestSWCoefficientsAntisymmetric(t *testing.T) {
	for _, n := range []int{3, 4, 5, 6, 11, 12, 50} {
		a := swCoefficients(n)
		var sq float64
		for i := range a {
			if !almostEqual(a[i], -a[n-1-i], 1e-12) {
				t.Errorf("n=%d: a[%d]=%v is not -a[%d]=%v", n, i, a[i], n-1-i, a[n-1-i])
			}
			sq += a[i] * a[i]
		}
		if !almostEqual(sq, 1, 1e-6) {
			t.Errorf("n=%d: coefficients not normalised, Σa²=%v", n, sq)
		}
	}
}

func TestKruskalWallis(t *testing.T) {
	res, err := KruskalWallis([]float64{1, 3, 5, 7, 9}, []float64{2, 4, 6, 8, 10})
	if err != nil {
		t.Fatalf("KruskalWallis failed: %v", err)
	}
	if !almostEqual(res.Statistic, 0.272727, 1e-5) {
		t.Errorf("Expected H≈0.2727, got %v", res.Statistic)
	}
	if res.DF != 1 {
		t.Errorf("Expected df 1, got %v", res.DF)
	}
	if !almostEqual(res.P, 0.6015, 1e-3) {
		t.Errorf("Expected p≈0.6015, got %v", res.P)
	}
}

func TestKruskalWallisTieCorrection(t *testing.T) {
	groups := [][]float64{{1, 1, 2, 2}, {4, 4, 5, 5}, {2, 3, 3, 4}}
	res, err := KruskalWallis(groups...)
	if err != nil {
		t.Fatalf("KruskalWallis failed: %v", err)
	}

	var pooled []float64
	for _, g := range groups {
		pooled = append(pooled, g...)
	}
	ranks := Rank(pooled)
	n := float64(len(pooled))
	var raw float64
	for i := 0; i < 3; i++ {
		var s float64
		for _, r := range ranks[i*4 : i*4+4] {
			s += r
		}
		raw += s * s / 4
	}
	raw = 12/(n*(n+1))*raw - 3*(n+1)

	if res.Statistic <= raw {
		t.Errorf("Tie correction should inflate H: corrected %v, raw %v", res.Statistic, raw)
	}
	if res.P >= 0.05 {
		t.Errorf("Expected separated groups to differ, p=%v", res.P)
	}
}

func TestKruskalWallisErrors(t *testing.T) {
	if _, err := KruskalWallis([]float64{1, 2}); !errors.Is(err, ErrTooFewGroups) {
		t.Errorf("Expected ErrTooFewGroups, got %v", err)
	}
	if _, err := KruskalWallis([]float64{1, 2}, nil); !errors.Is(err, ErrTooFewObservations) {
		t.Errorf("Expected ErrTooFewObservations, got %v", err)
	}
	if _, err := KruskalWallis([]float64{3, 3}, []float64{3, 3}); !errors.Is(err, ErrIdenticalValues) {
		t.Errorf("Expected ErrIdenticalValues, got %v", err)
	}
}

func TestDunn(t *testing.T) {
	res, err := Dunn([][]float64{{1, 2, 3}, {4, 5, 6}}, []string{"ChatGPT", "Claude"})
	if err != nil {
		t.Fatalf("Dunn failed: %v", err)
	}
	p, ok := res.Lookup("ChatGPT", "Claude")
	if !ok {
		t.Fatal("Lookup failed for known groups")
	}
	if !almostEqual(p, 0.0495, 1e-3) {
		t.Errorf("Expected p≈0.0495, got %v", p)
	}
	if res.P[0][0] != 1 || res.P[1][1] != 1 {
		t.Error("Diagonal should be 1")
	}
	if _, ok := res.Lookup("ChatGPT", "Gemini"); ok {
		t.Error("Lookup should fail for unknown group")
	}
}

func TestDunnBonferroni(t *testing.T) {
	groups := [][]float64{{1, 2, 3, 4}, {5, 6, 7, 8}, {9, 10, 11, 12}}
	res, err := Dunn(groups, []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("Dunn failed: %v", err)
	}

	n := 12.0
	se := math.Sqrt(n * (n + 1) / 12 * (0.25 + 0.25))
	raw := 2 * distuv.UnitNormal.Survival(4/se)
	if !almostEqual(res.P[0][1], math.Min(3*raw, 1), 1e-12) {
		t.Errorf("Expected adjusted p %v, got %v", math.Min(3*raw, 1), res.P[0][1])
	}
	if res.P[0][1] != res.P[1][0] {
		t.Error("Matrix should be symmetric")
	}
	if res.P[0][2] >= res.P[0][1] {
		t.Errorf("Farther groups should have smaller p: %v vs %v", res.P[0][2], res.P[0][1])
	}
	for i := range res.P {
		for j := range res.P[i] {
			if res.P[i][j] > 1 {
				t.Errorf("p[%d][%d] = %v exceeds 1", i, j, res.P[i][j])
			}
		}
	}
}

func TestMannWhitney(t *testing.T) {
	res, err := MannWhitney([]float64{1, 2, 3}, []float64{4, 5, 6})
	if err != nil {
		t.Fatalf("MannWhitney failed: %v", err)
	}
	if res.U != 0 {
		t.Errorf("Expected U 0, got %v", res.U)
	}
	if !almostEqual(res.P, 0.1, 1e-6) {
		t.Errorf("Expected exact two-sided p 0.1, got %v", res.P)
	}
}

func TestMannWhitneyEqualSamples(t *testing.T) {
	res, err := MannWhitney([]float64{3, 3}, []float64{3, 3, 3})
	if err != nil {
		t.Fatalf("MannWhitney failed: %v", err)
	}
	if res.P != 1 || res.U != 3 {
		t.Errorf("Expected U=3 p=1, got %+v", res)
	}
	if _, err := MannWhitney(nil, []float64{1}); !errors.Is(err, ErrTooFewObservations) {
		t.Errorf("Expected ErrTooFewObservations, got %v", err)
	}
}

func TestFriedman(t *testing.T) {
	res, err := Friedman([][]float64{{1, 2, 3}, {1, 2, 3}, {1, 2, 3}})
	if err != nil {
		t.Fatalf("Friedman failed: %v", err)
	}
	if !almostEqual(res.Statistic, 6, 1e-12) {
		t.Errorf("Expected χ²=6, got %v", res.Statistic)
	}
	if !almostEqual(res.P, math.Exp(-3), 1e-9) {
		t.Errorf("Expected p=e^-3, got %v", res.P)
	}
	if !almostEqual(res.W, 1, 1e-12) {
		t.Errorf("Expected W=1, got %v", res.W)
	}
}

func TestFriedmanTies(t *testing.T) {
	res, err := Friedman([][]float64{{1, 1, 3}, {1, 2, 3}, {2, 2, 3}, {1, 3, 3}})
	if err != nil {
		t.Fatalf("Friedman failed: %v", err)
	}
	if res.W < 0 || res.W > 1 {
		t.Errorf("W out of range: %v", res.W)
	}
	if res.DF != 2 {
		t.Errorf("Expected df 2, got %v", res.DF)
	}
}

func TestFriedmanErrors(t *testing.T) {
	tests := []struct {
		name   string
		blocks [][]float64
		want   error
	}{
		{"one block", [][]float64{{1, 2, 3}}, ErrTooFewObservations},
		{"one treatment", [][]float64{{1}, {2}}, ErrTooFewGroups},
		{"ragged", [][]float64{{1, 2}, {1, 2, 3}}, ErrRaggedMatrix},
		{"all tied", [][]float64{{2, 2}, {4, 4}}, ErrIdenticalValues},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Friedman(tt.blocks); !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestKendallW(t *testing.T) {
	w, err := KendallW([][]float64{{1, 1, 1}, {2, 2, 2}, {3, 3, 3}})
	if err != nil {
		t.Fatalf("KendallW failed: %v", err)
	}
	if !almostEqual(w, 1, 1e-12) {
		t.Errorf("Expected perfect concordance, got %v", w)
	}

	w, err = KendallW([][]float64{{1, 3}, {2, 2}, {3, 1}})
	if err != nil {
		t.Fatalf("KendallW failed: %v", err)
	}
	if !almostEqual(w, 0, 1e-12) {
		t.Errorf("Expected zero concordance for opposite raters, got %v", w)
	}

	if _, err := KendallW([][]float64{{1, 2}}); !errors.Is(err, ErrTooFewObservations) {
		t.Errorf("Expected ErrTooFewObservations, got %v", err)
	}
	if _, err := KendallW([][]float64{{1, 2}, {1}}); !errors.Is(err, ErrRaggedMatrix) {
		t.Errorf("Expected ErrRaggedMatrix, got %v", err)
	}
}
