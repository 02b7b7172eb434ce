package power

import (
	"fmt"
	"math"

	"github.com/doctorai/llm-eval/internal/logger"
	"github.com/doctorai/llm-eval/internal/models"
	"github.com/doctorai/llm-eval/internal/stats"

	"gonum.org/v1/gonum/stat"
)

// PilotResult holds the effect sizes of the pilot study and the sample sizes
// they imply.
type PilotResult struct {
	Models          []string
	Questions       int
	FriedmanStat    float64
	FriedmanP       float64
	KendallW        float64
	ObservedF       float64
	SampleSize      int
	StdWithin       float64
	Delta           float64
	DeltaF          float64
	DeltaSampleSize int
}

// AnalyzePilot averages each pilot row over criteria, then each (model,
// question) cell, and runs a Friedman test across models with questions as
// blocks. Questions not answered by every model are left out. When k is 0 the
// number of models is used as the number of ANOVA groups.
func AnalyzePilot(rows []models.PilotRow, criteria []string, cfg models.PowerConfig) (*PilotResult, error) {
	type cell struct{ sum, n float64 }
	cells := make(map[string]map[string]*cell)
	var modelOrder, questionOrder []string
	seenModel := make(map[string]bool)

	for _, row := range rows {
		var sum, n float64
		for _, c := range criteria {
			if v, ok := row.Scores[c]; ok && !math.IsNaN(v) {
				sum += v
				n++
			}
		}
		if n == 0 {
			continue
		}

		if !seenModel[row.Model] {
			seenModel[row.Model] = true
			modelOrder = append(modelOrder, row.Model)
		}
		byModel, ok := cells[row.Question]
		if !ok {
			byModel = make(map[string]*cell)
			cells[row.Question] = byModel
			questionOrder = append(questionOrder, row.Question)
		}
		c, ok := byModel[row.Model]
		if !ok {
			c = &cell{}
			byModel[row.Model] = c
		}
		c.sum += sum / n
		c.n++
	}

	if len(modelOrder) < 2 {
		return nil, fmt.Errorf("pilot needs at least two models, found %d", len(modelOrder))
	}

	var blocks [][]float64
	for _, q := range questionOrder {
		row := make([]float64, 0, len(modelOrder))
		for _, m := range modelOrder {
			c, ok := cells[q][m]
			if !ok {
				break
			}
			row = append(row, c.sum/c.n)
		}
		if len(row) == len(modelOrder) {
			blocks = append(blocks, row)
		}
	}

	fr, err := stats.Friedman(blocks)
	if err != nil {
		return nil, fmt.Errorf("friedman test on pilot: %w", err)
	}

	k := cfg.KGroups
	if k == 0 {
		k = len(modelOrder)
	}

	res := &PilotResult{
		Models:       modelOrder,
		Questions:    len(blocks),
		FriedmanStat: fr.Statistic,
		FriedmanP:    fr.P,
		KendallW:     fr.W,
		ObservedF:    math.Sqrt(fr.W / (1 - fr.W)),
		Delta:        cfg.Delta,
	}

	// a sample size that cannot be solved for stays 0 and is reported as NaN
	if res.SampleSize, err = SolveANOVASampleSize(res.ObservedF, cfg.Alpha, cfg.TargetPower, k); err != nil {
		logger.Warning("Sample size for the observed pilot effect (W = %.3f) not computable: %v", res.KendallW, err)
	}

	var sdSum float64
	for _, b := range blocks {
		sdSum += stat.StdDev(b, nil)
	}
	res.StdWithin = sdSum / float64(len(blocks))
	res.DeltaF = cfg.Delta / math.Sqrt2 / res.StdWithin

	if res.DeltaSampleSize, err = SolveANOVASampleSize(res.DeltaF, cfg.Alpha, cfg.TargetPower, k); err != nil {
		logger.Warning("Sample size for delta %v not computable: %v", cfg.Delta, err)
	}

	return res, nil
}

// Table renders the pilot result as the single-row power table.
func (r *PilotResult) Table() *models.Table {
	t := models.NewTable("stat_analysis_power", "Pilot study and power analysis",
		"friedman_stat",
		"p_value",
		"kendalls_w",
		"f_effect_size_observed",
		"sample_size_needed_for_observed_effect",
		"std_within_models",
		fmt.Sprintf("cohens_f_for_delta_%g", r.Delta),
		fmt.Sprintf("sample_size_needed_for_delta_%g", r.Delta),
	)
	t.AddRow(r.FriedmanStat, r.FriedmanP, r.KendallW, r.ObservedF, sampleSize(r.SampleSize), r.StdWithin, r.DeltaF, sampleSize(r.DeltaSampleSize))
	return t
}

func sampleSize(n int) any {
	if n == 0 {
		return math.NaN()
	}
	return n
}
