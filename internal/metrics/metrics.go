package metrics

import (
	"math"
	"sort"
)

// Weighting selects the disagreement weights of Cohen's kappa.
type Weighting int

const (
	Unweighted Weighting = iota
	Linear
	Quadratic
)

func (w Weighting) String() string {
	switch w {
	case Linear:
		return "linear"
	case Quadratic:
		return "quadratic"
	default:
		return "unweighted"
	}
}

// Calculator accumulates the paired scores two raters gave to the same
// items and derives agreement statistics from their confusion matrix. It is
// not safe for concurrent use.
type Calculator struct {
	first       string
	second      string
	pairs       [][2]float64
	confusionMx map[float64]map[float64]int
}

func NewCalculator(first, second string) *Calculator {
	return &Calculator{
		first:       first,
		second:      second,
		confusionMx: make(map[float64]map[float64]int),
	}
}

// Raters returns the names of the two raters.
func (c *Calculator) Raters() (string, string) {
	return c.first, c.second
}

func (c *Calculator) AddPair(first, second float64) {
	c.pairs = append(c.pairs, [2]float64{first, second})
	if c.confusionMx[first] == nil {
		c.confusionMx[first] = make(map[float64]int)
	}
	c.confusionMx[first][second]++
}

func (c *Calculator) Total() int {
	return len(c.pairs)
}

// Levels returns the sorted union of the scores either rater used.
func (c *Calculator) Levels() []float64 {
	seen := make(map[float64]bool)
	for _, p := range c.pairs {
		seen[p[0]] = true
		seen[p[1]] = true
	}
	levels := make([]float64, 0, len(seen))
	for l := range seen {
		levels = append(levels, l)
	}
	sort.Float64s(levels)
	return levels
}

// ExactAgreement is the percentage of items both raters scored identically,
// NaN without items.
func (c *Calculator) ExactAgreement() float64 {
	if len(c.pairs) == 0 {
		return math.NaN()
	}

	correct := 0
	for _, p := range c.pairs {
		if p[0] == p[1] {
			correct++
		}
	}
	return float64(correct) / float64(len(c.pairs)) * 100
}

// Kappa returns Cohen's kappa with the given weighting. Weights are computed
// on the index of each level in the sorted union of observed scores, so the
// quadratic weight of levels i and j is (i-j)². NaN is returned when the
// expected disagreement is zero, for example when only one level was used.
func (c *Calculator) Kappa(weighting Weighting) float64 {
	if len(c.pairs) == 0 {
		return math.NaN()
	}

	levels := c.Levels()
	k := len(levels)
	total := float64(len(c.pairs))

	firstCounts := make([]float64, k)
	secondCounts := make([]float64, k)
	observed := make([][]float64, k)
	for i, li := range levels {
		observed[i] = make([]float64, k)
		for j, lj := range levels {
			n := float64(c.confusionMx[li][lj])
			observed[i][j] = n
			firstCounts[i] += n
			secondCounts[j] += n
		}
	}

	var disagreeObs, disagreeExp float64
	for i := 0; i < k; i++ {
		for j := 0; j < k; j++ {
			w := weight(weighting, i, j)
			disagreeObs += w * observed[i][j]
			disagreeExp += w * firstCounts[i] * secondCounts[j] / total
		}
	}

	if disagreeExp == 0 {
		return math.NaN()
	}
	return 1 - disagreeObs/disagreeExp
}

func weight(weighting Weighting, i, j int) float64 {
	d := float64(i - j)
	switch weighting {
	case Linear:
		return math.Abs(d)
	case Quadratic:
		return d * d
	default:
		if i == j {
			return 0
		}
		return 1
	}
}

// Interpret maps a kappa value to the Landis and Koch agreement band.
func Interpret(kappa float64) string {
	switch {
	case math.IsNaN(kappa):
		return "Undefined"
	case kappa < 0.2:
		return "Poor (<0.20)"
	case kappa < 0.41:
		return "Fair (0.21–0.40)"
	case kappa < 0.61:
		return "Moderate (0.41–0.60)"
	case kappa < 0.81:
		return "Substantial (0.61–0.80)"
	default:
		return "Almost Perfect (>0.80)"
	}
}
