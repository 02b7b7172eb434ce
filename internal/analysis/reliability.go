package analysis

import (
	"context"
	"math"

	"github.com/doctorai/llm-eval/internal/logger"
	"github.com/doctorai/llm-eval/internal/metrics"
	"github.com/doctorai/llm-eval/internal/models"
	"github.com/doctorai/llm-eval/internal/stats"
	"github.com/doctorai/llm-eval/internal/utils"
)

// reliability measures agreement between reviewers. Subjects are
// (Request, Model) pairs; only subjects rated by every reviewer are used.
func (r *Runner) reliability(ctx context.Context) ([]*models.Table, error) {
	kappa := models.NewTable("reliability_kappa", "Pairwise quadratic weighted kappa",
		"Criterion", "Reviewer Pair", "Subjects", "Weighted Kappa", "Interpretation", "Exact Agreement (%)")
	kendall := models.NewTable("reliability_kendall", "Kendall's W (classical)",
		"Criterion", "Kendall's W (classical)")
	friedman := models.NewTable("reliability_kendall_friedman", "Kendall's W from the Friedman test",
		"Criterion", "Kendall's W (friedman)", "p-value")

	reviewers := r.config.Study.Reviewers
	for _, criterion := range r.config.Study.Criteria {
		matrix := r.subjectMatrix(criterion, reviewers)
		logger.Debug("Reliability on %s: %d complete subjects", criterion, len(matrix))

		w, err := stats.KendallW(matrix)
		if err != nil {
			logger.Warning("Kendall's W skipped for %s: %v", criterion, err)
			w = math.NaN()
		}
		kendall.AddRow(criterion, utils.Round(w, 3))

		fr, err := stats.Friedman(matrix)
		if err != nil {
			logger.Warning("Friedman test skipped for %s: %v", criterion, err)
			fr.W, fr.P = math.NaN(), math.NaN()
		}
		friedman.AddRow(criterion, utils.Round(fr.W, 3), utils.Round(fr.P, 4))

		for _, pair := range utils.Pairs(reviewers) {
			i, j := indexOf(reviewers, pair[0]), indexOf(reviewers, pair[1])
			calc := metrics.NewCalculator(pair[0], pair[1])
			for _, row := range matrix {
				calc.AddPair(row[i], row[j])
			}
			first, second := calc.Raters()
			logger.Debug("%s %s vs %s: %d subjects on levels %v", criterion, first, second, calc.Total(), calc.Levels())
			k := calc.Kappa(metrics.Quadratic)
			kappa.AddRow(criterion, first+" vs "+second, calc.Total(), utils.Round(k, 3), metrics.Interpret(k),
				utils.Round(calc.ExactAgreement(), 1))
		}
	}

	return []*models.Table{kappa, kendall, friedman}, nil
}

// subjectMatrix pivots one criterion to subjects × reviewers, averaging
// repeated scores, and drops subjects missing any reviewer.
func (r *Runner) subjectMatrix(criterion string, reviewers []string) [][]float64 {
	type cell struct{ sum, n float64 }
	col := make(map[string]int, len(reviewers))
	for i, rv := range reviewers {
		col[rv] = i
	}

	cells := make(map[string][]cell)
	var order []string
	for _, rt := range r.data.Ratings {
		if rt.Criterion != criterion {
			continue
		}
		j, ok := col[rt.Reviewer]
		if !ok {
			continue
		}
		subject := rt.Request + "_" + rt.Model
		row, ok := cells[subject]
		if !ok {
			row = make([]cell, len(reviewers))
			cells[subject] = row
			order = append(order, subject)
		}
		row[j].sum += rt.Score
		row[j].n++
	}

	var matrix [][]float64
	for _, subject := range order {
		row := make([]float64, len(reviewers))
		complete := true
		for j, c := range cells[subject] {
			if c.n == 0 {
				complete = false
				break
			}
			row[j] = c.sum / c.n
		}
		if complete {
			matrix = append(matrix, row)
		}
	}
	return matrix
}
