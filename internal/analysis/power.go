package analysis

import (
	"context"
	"fmt"
	"math"

	"github.com/doctorai/llm-eval/internal/loader"
	"github.com/doctorai/llm-eval/internal/logger"
	"github.com/doctorai/llm-eval/internal/models"
	"github.com/doctorai/llm-eval/internal/power"
)

// power runs the pilot-study sample size analysis when a pilot file is
// configured.
func (r *Runner) power(ctx context.Context) ([]*models.Table, error) {
	in := r.config.Input
	if in.PilotFile == "" {
		logger.Warning("Skipping power analysis: no pilot_file configured")
		return nil, nil
	}

	rows, err := loader.LoadPilot(in.PilotFile, in.PilotSheet, r.config.Study.Criteria)
	if err != nil {
		return nil, fmt.Errorf("failed to load pilot: %w", err)
	}

	res, err := power.AnalyzePilot(rows, r.config.Study.Criteria, r.config.Power)
	if err != nil {
		logger.Warning("Power analysis undefined for %s: %v", in.PilotFile, err)
		nan := math.NaN()
		res = &power.PilotResult{
			FriedmanStat: nan,
			FriedmanP:    nan,
			KendallW:     nan,
			ObservedF:    nan,
			StdWithin:    nan,
			Delta:        r.config.Power.Delta,
			DeltaF:       nan,
		}
		return []*models.Table{res.Table()}, nil
	}

	logger.Info("Pilot: %d models on %d questions, W = %.3f, f = %.3f, N = %d",
		len(res.Models), res.Questions, res.KendallW, res.ObservedF, res.SampleSize)
	return []*models.Table{res.Table()}, nil
}
