package analysis

import (
	"context"
	"fmt"
	"math"

	"github.com/doctorai/llm-eval/internal/logger"
	"github.com/doctorai/llm-eval/internal/models"
	"github.com/doctorai/llm-eval/internal/stats"
	"github.com/doctorai/llm-eval/internal/utils"
)

func (r *Runner) descriptive(ctx context.Context) ([]*models.Table, error) {
	t := models.NewTable("stat_analysis_descriptive", "Descriptive statistics by model and criterion",
		"Model", "Criterion", "N", "Mean", "SD", "Median", "IQR", "25th", "75th")

	for _, criterion := range r.config.Study.Criteria {
		for _, model := range r.models {
			s, err := stats.Describe(r.scores(model, criterion))
			if err != nil {
				logger.Warning("No scores for %s on %s", model, criterion)
				t.AddRow(model, criterion, 0, math.NaN(), math.NaN(), math.NaN(), math.NaN(), math.NaN(), math.NaN())
				continue
			}
			t.AddRow(model, criterion, s.N,
				utils.Round(s.Mean, 3),
				utils.Round(s.SD, 3),
				utils.Round(s.Median, 3),
				utils.Round(s.IQR, 3),
				utils.Round(s.Q1, 3),
				utils.Round(s.Q3, 3))
		}
	}
	return []*models.Table{t}, nil
}

func (r *Runner) normality(ctx context.Context) ([]*models.Table, error) {
	t := models.NewTable("stat_analysis_shapiro", "Shapiro-Wilk normality test",
		"Model", "Criterion", "W-statistic", "p-value", "Normality")

	alpha := r.config.Analysis.Alpha
	for _, criterion := range r.config.Study.Criteria {
		for _, model := range r.models {
			res, err := stats.ShapiroWilk(r.scores(model, criterion))
			if err != nil {
				logger.Warning("Shapiro-Wilk skipped for %s on %s: %v", model, criterion, err)
				t.AddRow(model, criterion, math.NaN(), math.NaN(), "Undefined")
				continue
			}
			label := fmt.Sprintf("Normal (p ≥ %g)", alpha)
			if res.P < alpha {
				label = fmt.Sprintf("Non-normal (p < %g)", alpha)
			}
			t.AddRow(model, criterion, utils.Round(res.W, 3), utils.Round(res.P, 4), label)
		}
	}
	return []*models.Table{t}, nil
}

func (r *Runner) kruskal(ctx context.Context) ([]*models.Table, error) {
	t := models.NewTable("stat_analysis_kruskal", "Kruskal-Wallis test across models",
		"Criterion", "H-statistic", "p-value", "Significant")

	for _, criterion := range r.config.Study.Criteria {
		groups := make([][]float64, len(r.models))
		for i, model := range r.models {
			groups[i] = r.scores(model, criterion)
		}
		res, err := stats.KruskalWallis(groups...)
		if err != nil {
			logger.Warning("Kruskal-Wallis skipped for %s: %v", criterion, err)
			t.AddRow(criterion, math.NaN(), math.NaN(), false)
			continue
		}
		t.AddRow(criterion, utils.Round(res.Statistic, 3), utils.Round(res.P, 4), r.significant(res.P))
	}
	return []*models.Table{t}, nil
}
