package analysis

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/doctorai/llm-eval/internal/bootstrap"
	"github.com/doctorai/llm-eval/internal/logger"
	"github.com/doctorai/llm-eval/internal/models"
	"github.com/doctorai/llm-eval/internal/progress"
	"github.com/doctorai/llm-eval/internal/stats"
	"github.com/doctorai/llm-eval/internal/utils"
)

// job is one bootstrap comparison; the estimate is mean(a) - mean(b).
type job struct {
	index  int
	stream uint64
	label  string
	a, b   []float64
}

type jobResult struct {
	index  int
	result bootstrap.Result
	err    error
}

// newJobs numbers the comparisons and hands each its own bootstrap stream so
// a seeded run does not depend on scheduling.
func (r *Runner) newJobs(labels []string, pairs [][2][]float64) []job {
	jobs := make([]job, len(pairs))
	for i, p := range pairs {
		jobs[i] = job{index: i, stream: r.stream, label: labels[i], a: p[0], b: p[1]}
		r.stream++
	}
	return jobs
}

// runJobs feeds the jobs to processing.workers workers and returns the
// results in job order. The first failure cancels the remaining jobs.
func (r *Runner) runJobs(ctx context.Context, name string, jobs []job) ([]bootstrap.Result, error) {
	if len(jobs) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	workers := r.config.Processing.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(jobs) {
		workers = len(jobs)
	}

	jobCh := make(chan job, min(workers*2, len(jobs)))
	resultsCh := make(chan jobResult, len(jobs))

	// worker debug lines would overwrite the progress line
	var prog *progress.Progress
	if r.opts.ShowProgress && !logger.IsVerbose() {
		prog = progress.New(name, len(jobs))
		prog.Start()
		defer prog.Stop()
	}

	go feedJobs(ctx, jobCh, jobs)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case jb, ok := <-jobCh:
					if !ok {
						return
					}
					res, err := r.estimate(ctx, jb)
					if err != nil {
						err = fmt.Errorf("%s: %w", jb.label, err)
					} else {
						logger.Debug("Worker %d finished %s: Δ %.3f", workerID, jb.label, res.MeanDiff)
					}
					if prog != nil {
						prog.Done(err)
					}
					resultsCh <- jobResult{index: jb.index, result: res, err: err}
					if err != nil {
						cancel()
						return
					}
				}
			}
		}(i)
	}

	go func() {
		wg.Wait()
		close(resultsCh)
	}()

	results := make([]bootstrap.Result, len(jobs))
	done := 0
	var firstErr error
	for res := range resultsCh {
		if res.err != nil && firstErr == nil {
			firstErr = res.err
		}
		results[res.index] = res.result
		done++
	}

	if firstErr != nil {
		return nil, firstErr
	}
	if done < len(jobs) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%s: only %d of %d comparisons finished", name, done, len(jobs))
	}
	return results, nil
}

func feedJobs(ctx context.Context, jobCh chan<- job, jobs []job) {
	defer close(jobCh)
	for _, jb := range jobs {
		select {
		case jobCh <- jb:
		case <-ctx.Done():
			return
		}
	}
}

func (r *Runner) estimate(ctx context.Context, jb job) (bootstrap.Result, error) {
	e := &bootstrap.Estimator{
		Draws:   r.config.Bootstrap.Draws,
		Level:   r.config.Bootstrap.ConfidenceLevel,
		Workers: r.config.Bootstrap.Workers,
		Seed:    r.config.Bootstrap.Seed,
		Stream:  jb.stream,
	}
	return e.Estimate(ctx, jb.a, jb.b)
}

func (r *Runner) ciColumn() string {
	return fmt.Sprintf("%g%% CI", r.config.Bootstrap.ConfidenceLevel)
}

// posthoc runs Dunn's test per criterion and a bootstrap interval for every
// pair of models.
func (r *Runner) posthoc(ctx context.Context) ([]*models.Table, error) {
	t := models.NewTable("stat_analysis_posthoc_dunn", "Post-hoc Dunn test with bootstrap intervals",
		"Criterion", "Model A", "Model B", "Δ Mean", r.ciColumn(), "p-value")

	type comparison struct {
		criterion, a, b string
		p               float64
	}
	var (
		rows   []comparison
		labels []string
		pairs  [][2][]float64
	)

	for _, criterion := range r.config.Study.Criteria {
		groups := make([][]float64, len(r.models))
		for i, model := range r.models {
			groups[i] = r.scores(model, criterion)
		}

		dunn, err := stats.Dunn(groups, r.models)
		if err != nil {
			logger.Warning("Dunn test skipped for %s: %v", criterion, err)
		}

		for _, pair := range utils.Pairs(r.models) {
			i, j := indexOf(r.models, pair[0]), indexOf(r.models, pair[1])
			if len(groups[i]) == 0 || len(groups[j]) == 0 {
				logger.Warning("No scores to compare %s and %s on %s", pair[0], pair[1], criterion)
				continue
			}
			p := math.NaN()
			if err == nil {
				p, _ = dunn.Lookup(pair[0], pair[1])
			}
			rows = append(rows, comparison{criterion, pair[0], pair[1], p})
			labels = append(labels, fmt.Sprintf("%s %s vs %s", criterion, pair[0], pair[1]))
			pairs = append(pairs, [2][]float64{groups[i], groups[j]})
		}
	}

	results, err := r.runJobs(ctx, "posthoc", r.newJobs(labels, pairs))
	if err != nil {
		return nil, err
	}

	for i, row := range rows {
		res := results[i]
		t.AddRow(row.criterion, row.a, row.b, utils.Round(res.MeanDiff, 3), utils.FormatCI(res.Lower, res.Upper), utils.Round(row.p, 4))
	}
	return []*models.Table{t}, nil
}

// subgroups compares the treatment and reference level of every configured
// subgroup per criterion with a Mann-Whitney U test and a bootstrap interval
// for treatment minus reference.
func (r *Runner) subgroups(ctx context.Context) ([]*models.Table, error) {
	var tables []*models.Table

	for _, sg := range r.config.Study.Subgroups {
		first, second := "Mean "+sg.Treatment, "Mean "+sg.Reference
		if sg.ReferenceFirst {
			first, second = second, first
		}
		t := models.NewTable("stat_analysis_"+sg.Name,
			fmt.Sprintf("Subgroup analysis: %s (%s vs %s)", sg.Name, sg.Treatment, sg.Reference),
			"Criterion", first, second, fmt.Sprintf("Δ %s - %s", sg.Treatment, sg.Reference), r.ciColumn(),
			"U statistic", "p-value", "Significant")

		type comparison struct {
			criterion string
			test      stats.MannWhitneyResult
			treatment []float64
			reference []float64
		}
		var (
			rows   []comparison
			labels []string
			pairs  [][2][]float64
		)

		for _, criterion := range r.config.Study.Criteria {
			byCriterion, err := r.data.Where(models.FieldCriterion, criterion)
			if err != nil {
				return nil, err
			}
			treated, err := byCriterion.Where(sg.Column, sg.Treatment)
			if err != nil {
				return nil, err
			}
			reference, err := byCriterion.Where(sg.Column, sg.Reference)
			if err != nil {
				return nil, err
			}

			x, y := treated.Scores(), reference.Scores()
			test, err := stats.MannWhitney(x, y)
			if err != nil {
				logger.Warning("Subgroup %s skipped for %s: %v", sg.Name, criterion, err)
				continue
			}
			rows = append(rows, comparison{criterion, test, x, y})
			labels = append(labels, fmt.Sprintf("%s %s", sg.Name, criterion))
			pairs = append(pairs, [2][]float64{x, y})
		}

		results, err := r.runJobs(ctx, sg.Name, r.newJobs(labels, pairs))
		if err != nil {
			return nil, err
		}

		for i, row := range rows {
			res := results[i]
			a, b := utils.Round(stats.Mean(row.treatment), 3), utils.Round(stats.Mean(row.reference), 3)
			if sg.ReferenceFirst {
				a, b = b, a
			}
			t.AddRow(row.criterion, a, b,
				utils.Round(res.MeanDiff, 3),
				utils.FormatCI(res.Lower, res.Upper),
				row.test.U, utils.Round(row.test.P, 4), r.significant(row.test.P))
		}
		tables = append(tables, t)
	}
	return tables, nil
}

func indexOf(items []string, item string) int {
	for i, v := range items {
		if v == item {
			return i
		}
	}
	return -1
}
