package stats

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestPercentile(t *testing.T) {
	tests := []struct {
		name string
		xs   []float64
		p    float64
		want float64
	}{
		{"lower quartile interpolates", []float64{1, 2, 3, 4}, 25, 1.75},
		{"median of even count", []float64{4, 1, 3, 2}, 50, 2.5},
		{"90th of ten values", []float64{10, 9, 8, 7, 6, 5, 4, 3, 2, 1}, 90, 9.1},
		{"2.5th percentile", []float64{0, 10}, 2.5, 0.25},
		{"zero is the minimum", []float64{3, 1, 2}, 0, 1},
		{"hundred is the maximum", []float64{3, 1, 2}, 100, 3},
		{"single value", []float64{7}, 42, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Percentile(tt.xs, tt.p); !almostEqual(got, tt.want, 1e-12) {
				t.Errorf("Percentile(%v, %v) = %v, want %v", tt.xs, tt.p, got, tt.want)
			}
		})
	}
}

func TestPercentileDoesNotMutate(t *testing.T) {
	xs := []float64{3, 1, 2}
	Percentile(xs, 50)
	if !reflect.DeepEqual(xs, []float64{3, 1, 2}) {
		t.Errorf("Percentile modified its input: %v", xs)
	}
}

func TestPercentileEmpty(t *testing.T) {
	if !math.IsNaN(Percentile(nil, 50)) {
		t.Error("Percentile of an empty sample should be NaN")
	}
	if !math.IsNaN(Mean(nil)) {
		t.Error("Mean of an empty sample should be NaN")
	}
}

func TestDescribe(t *testing.T) {
	s, err := Describe([]float64{5, 1, 4, 2, 3})
	if err != nil {
		t.Fatalf("Describe failed: %v", err)
	}

	if s.N != 5 {
		t.Errorf("Expected N 5, got %d", s.N)
	}
	if s.Mean != 3 {
		t.Errorf("Expected mean 3, got %v", s.Mean)
	}
	if !almostEqual(s.SD, math.Sqrt(2.5), 1e-12) {
		t.Errorf("Expected SD %v, got %v", math.Sqrt(2.5), s.SD)
	}
	if s.Median != 3 || s.Q1 != 2 || s.Q3 != 4 || s.IQR != 2 {
		t.Errorf("Unexpected quartiles: %+v", s)
	}
}

func TestDescribeSingleValue(t *testing.T) {
	s, err := Describe([]float64{4})
	if err != nil {
		t.Fatalf("Describe failed: %v", err)
	}
	if s.Mean != 4 || s.Median != 4 || s.IQR != 0 {
		t.Errorf("Unexpected summary: %+v", s)
	}
	if !math.IsNaN(s.SD) {
		t.Errorf("Expected NaN SD for one observation, got %v", s.SD)
	}
}

func TestDescribeEmpty(t *testing.T) {
	if _, err := Describe(nil); !errors.Is(err, ErrTooFewObservations) {
		t.Errorf("Expected ErrTooFewObservations, got %v", err)
	}
}

func TestRank(t *testing.T) {
	tests := []struct {
		xs   []float64
		want []float64
	}{
		{[]float64{10, 20, 30}, []float64{1, 2, 3}},
		{[]float64{30, 10, 20}, []float64{3, 1, 2}},
		{[]float64{10, 20, 20, 30}, []float64{1, 2.5, 2.5, 4}},
		{[]float64{5, 5, 5}, []float64{2, 2, 2}},
		{nil, []float64{}},
	}
	for _, tt := range tests {
		if got := Rank(tt.xs); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Rank(%v) = %v, want %v", tt.xs, got, tt.want)
		}
	}
}

func TestTieSum(t *testing.T) {
	if got := TieSum([]float64{1, 1, 2, 2, 2, 3}); got != 30 {
		t.Errorf("TieSum = %v, want 30", got)
	}
	if got := TieSum([]float64{1, 2, 3}); got != 0 {
		t.Errorf("TieSum without ties = %v, want 0", got)
	}
}
