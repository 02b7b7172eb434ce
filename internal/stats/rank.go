package stats

import "sort"

// Rank returns 1-based ranks of xs, giving tied values the average of the
// ranks they span.
func Rank(xs []float64) []float64 {
	n := len(xs)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return xs[idx[a]] < xs[idx[b]] })

	ranks := make([]float64, n)
	for i := 0; i < n; {
		j := i + 1
		for j < n && xs[idx[j]] == xs[idx[i]] {
			j++
		}
		// positions i..j-1 hold ranks i+1..j
		avg := float64(i+1+j) / 2
		for k := i; k < j; k++ {
			ranks[idx[k]] = avg
		}
		i = j
	}
	return ranks
}

// TieSum returns Σ(t³ - t) over the groups of tied values in xs.
func TieSum(xs []float64) float64 {
	counts := make(map[float64]int, len(xs))
	for _, x := range xs {
		counts[x]++
	}
	var sum float64
	for _, c := range counts {
		t := float64(c)
		sum += t*t*t - t
	}
	return sum
}
