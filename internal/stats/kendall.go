package stats

// KendallW computes Kendall's coefficient of concordance over a subjects ×
// raters matrix: each rater's column is ranked, R is the per-subject rank
// sum and W = 12·S / (n²(m³ - m)) with S = Σ(R - R̄)². No tie correction is
// applied.
func KendallW(matrix [][]float64) (float64, error) {
	m := len(matrix)
	if m < 2 {
		return 0, ErrTooFewObservations
	}
	n := len(matrix[0])
	if n < 2 {
		return 0, ErrTooFewGroups
	}
	for _, row := range matrix {
		if len(row) != n {
			return 0, ErrRaggedMatrix
		}
	}

	rowSums := make([]float64, m)
	col := make([]float64, m)
	for j := 0; j < n; j++ {
		for i := range matrix {
			col[i] = matrix[i][j]
		}
		for i, r := range Rank(col) {
			rowSums[i] += r
		}
	}

	mean := Mean(rowSums)
	var s float64
	for _, r := range rowSums {
		d := r - mean
		s += d * d
	}

	fm, fn := float64(m), float64(n)
	return 12 * s / (fn * fn * (fm*fm*fm - fm)), nil
}
