// Package analysis runs the configured statistical analyses over a rating
// dataset and collects their result tables.
package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/doctorai/llm-eval/internal/config"
	"github.com/doctorai/llm-eval/internal/logger"
	"github.com/doctorai/llm-eval/internal/models"

	"github.com/google/uuid"
)

type Options struct {
	// Only restricts the run to these analyses; empty runs every enabled one.
	Only         []string
	ShowProgress bool
	InputFile    string
}

// Runner holds one dataset and the configuration it is analysed with.
type Runner struct {
	config *models.Config
	data   *models.Dataset
	models []string
	opts   Options

	// next bootstrap stream; every comparison job of a run gets its own
	stream uint64
}

type analysisFunc func(r *Runner, ctx context.Context) ([]*models.Table, error)

var analyses = map[string]analysisFunc{
	"descriptive": (*Runner).descriptive,
	"normality":   (*Runner).normality,
	"kruskal":     (*Runner).kruskal,
	"posthoc":     (*Runner).posthoc,
	"subgroups":   (*Runner).subgroups,
	"reliability": (*Runner).reliability,
	"sensitivity": (*Runner).sensitivity,
	"power":       (*Runner).power,
}

// New restricts the dataset to the configured models and criteria. When no
// models are configured every model in the data is used in order of first
// appearance.
func New(cfg *models.Config, data *models.Dataset, opts Options) (*Runner, error) {
	for _, name := range opts.Only {
		if !config.IsAnalysis(name) {
			return nil, fmt.Errorf("unknown analysis: %s", name)
		}
	}

	criteria := make(map[string]bool, len(cfg.Study.Criteria))
	for _, c := range cfg.Study.Criteria {
		criteria[c] = true
	}
	data = data.Filter(func(r models.Rating) bool { return criteria[r.Criterion] })

	modelNames := cfg.Study.Models
	if len(modelNames) > 0 {
		wanted := make(map[string]bool, len(modelNames))
		for _, m := range modelNames {
			wanted[m] = true
		}
		data = data.Filter(func(r models.Rating) bool { return wanted[r.Model] })
	} else {
		var err error
		if modelNames, err = data.Unique(models.FieldModel); err != nil {
			return nil, err
		}
	}

	if data.Len() == 0 {
		return nil, fmt.Errorf("no ratings left for the configured criteria and models")
	}

	return &Runner{
		config: cfg,
		data:   data,
		models: modelNames,
		opts:   opts,
	}, nil
}

// Models returns the models being compared, in table order.
func (r *Runner) Models() []string {
	return r.models
}

// Selected returns the analyses the run will execute, in canonical order.
func (r *Runner) Selected() []string {
	enabled := make(map[string]bool)
	for _, name := range r.config.Analysis.Enabled {
		enabled[name] = true
	}
	if len(r.opts.Only) > 0 {
		only := make(map[string]bool)
		for _, name := range r.opts.Only {
			only[name] = true
		}
		enabled = only
	}

	var out []string
	for _, name := range config.Analyses {
		if enabled[name] {
			out = append(out, name)
		}
	}
	return out
}

// Run executes the selected analyses in order and returns the run manifest
// holding every table. The first failing analysis aborts the run.
func (r *Runner) Run(ctx context.Context) (*models.Manifest, error) {
	start := time.Now()
	selected := r.Selected()

	manifest := &models.Manifest{
		RunID:     uuid.NewString(),
		InputFile: r.opts.InputFile,
		StartedAt: start,
		Ratings:   r.data.Len(),
		Draws:     r.config.Bootstrap.Draws,
		Level:     r.config.Bootstrap.ConfidenceLevel,
		Seed:      r.config.Bootstrap.Seed,
		Analyses:  selected,
	}

	logger.Info("Analysing %d ratings of %d models (run %s)", manifest.Ratings, len(r.models), manifest.RunID)

	for _, name := range selected {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		logger.Debug("Running %s analysis", name)
		analysisStart := time.Now()

		tables, err := analyses[name](r, ctx)
		if err != nil {
			return nil, fmt.Errorf("%s analysis failed: %w", name, err)
		}
		manifest.Tables = append(manifest.Tables, tables...)

		logger.Debug("Finished %s analysis in %v (%d tables)", name, time.Since(analysisStart), len(tables))
	}

	manifest.Duration = time.Since(start)
	return manifest, nil
}

// scores returns the scores of one model on one criterion.
func (r *Runner) scores(model, criterion string) []float64 {
	return r.data.Filter(func(rt models.Rating) bool {
		return rt.Model == model && rt.Criterion == criterion
	}).Scores()
}

func (r *Runner) significant(p float64) bool {
	return p < r.config.Analysis.Alpha
}

func (r *Runner) significantColumn() string {
	return fmt.Sprintf("Significant (p < %g)", r.config.Analysis.Alpha)
}
