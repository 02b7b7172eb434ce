package analysis

import (
	"context"
	"math"

	"github.com/doctorai/llm-eval/internal/logger"
	"github.com/doctorai/llm-eval/internal/models"
	"github.com/doctorai/llm-eval/internal/stats"
	"github.com/doctorai/llm-eval/internal/utils"
)

// sensitivity repeats the Kruskal-Wallis test with each reviewer left out,
// on the mean of the remaining reviewers per (Request, Model).
func (r *Runner) sensitivity(ctx context.Context) ([]*models.Table, error) {
	t := models.NewTable("sensitivity_analysis", "Leave-one-reviewer-out sensitivity analysis",
		"Excluded Reviewer", "Criterion", "Kruskal-Wallis H", "p-value", r.significantColumn())

	for _, excluded := range r.config.Study.Reviewers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		reduced, err := r.data.Except(models.FieldReviewer, excluded)
		if err != nil {
			return nil, err
		}

		for _, criterion := range r.config.Study.Criteria {
			groups := meanPerRequest(reduced, criterion, r.models)
			res, err := stats.KruskalWallis(groups...)
			if err != nil {
				logger.Warning("Sensitivity test without %s skipped for %s: %v", excluded, criterion, err)
				t.AddRow(excluded, criterion, math.NaN(), math.NaN(), false)
				continue
			}
			t.AddRow(excluded, criterion, utils.Round(res.Statistic, 3), utils.Round(res.P, 4), r.significant(res.P))
		}
	}
	return []*models.Table{t}, nil
}

// meanPerRequest averages the scores of each (Request, Model) on a criterion
// and groups the means by model.
func meanPerRequest(data *models.Dataset, criterion string, modelNames []string) [][]float64 {
	type cell struct{ sum, n float64 }
	index := make(map[string]int, len(modelNames))
	for i, m := range modelNames {
		index[m] = i
	}

	cells := make([]map[string]*cell, len(modelNames))
	orders := make([][]string, len(modelNames))
	for i := range cells {
		cells[i] = make(map[string]*cell)
	}

	for _, rt := range data.Ratings {
		if rt.Criterion != criterion {
			continue
		}
		i, ok := index[rt.Model]
		if !ok {
			continue
		}
		c, ok := cells[i][rt.Request]
		if !ok {
			c = &cell{}
			cells[i][rt.Request] = c
			orders[i] = append(orders[i], rt.Request)
		}
		c.sum += rt.Score
		c.n++
	}

	groups := make([][]float64, len(modelNames))
	for i, order := range orders {
		for _, req := range order {
			c := cells[i][req]
			groups[i] = append(groups[i], c.sum/c.n)
		}
	}
	return groups
}
