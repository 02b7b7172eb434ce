package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/doctorai/llm-eval/internal/analysis"
	"github.com/doctorai/llm-eval/internal/bootstrap"
	"github.com/doctorai/llm-eval/internal/cli"
	"github.com/doctorai/llm-eval/internal/config"
	"github.com/doctorai/llm-eval/internal/loader"
	"github.com/doctorai/llm-eval/internal/logger"
	"github.com/doctorai/llm-eval/internal/models"
	"github.com/doctorai/llm-eval/internal/reporter"
	"github.com/doctorai/llm-eval/internal/stats"
	"github.com/doctorai/llm-eval/internal/utils"
	"github.com/doctorai/llm-eval/internal/writer"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var version = "1.0.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		cli.PrintError("%v", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var rootCmd = &cobra.Command{
		Use:   "llm-eval",
		Short: color.New(color.FgCyan, color.Bold).Sprint("Statistical analysis of reviewer ratings of chatbot answers"),
		Long: color.New(color.FgHiBlue, color.Bold).Sprint("LLM Eval") +
			color.New(color.FgWhite).Sprint(" - Statistical analysis of reviewer ratings of chatbot answers\n\n") +
			color.New(color.FgGreen, color.Bold).Sprint("Features:\n") +
			color.New(color.FgYellow).Sprint("• Descriptive statistics, normality and Kruskal-Wallis tests\n") +
			color.New(color.FgYellow).Sprint("• Dunn post-hoc and subgroup tests with bootstrap intervals\n") +
			color.New(color.FgYellow).Sprint("• Inter-rater reliability (weighted kappa, Kendall's W)\n") +
			color.New(color.FgYellow).Sprint("• Leave-one-reviewer-out sensitivity analysis\n") +
			color.New(color.FgYellow).Sprint("• Pilot study power analysis\n") +
			color.New(color.FgYellow).Sprint("• Multiple output formats (CSV, JSON, Excel, Parquet, SQLite)"),
		Version:      version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if noColor, _ := cmd.Flags().GetBool("no-color"); noColor || os.Getenv("NO_COLOR") != "" {
				cli.SetColorEnabled(false)
			}
		},
	}

	rootCmd.PersistentFlags().Bool("no-color", false, "Disable colored output")

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newBootstrapCmd())
	rootCmd.AddCommand(newReportCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: color.New(color.FgGreen, color.Bold).Sprint("Run the configured analyses on a ratings file"),
		Long: color.New(color.FgHiBlue, color.Bold).Sprint("Analyse reviewer ratings and export the result tables\n\n") +
			color.New(color.FgMagenta, color.Bold).Sprint("Analyses:\n") +
			color.New(color.FgCyan).Sprint("• "+strings.Join(config.Analyses, ", ")+"\n\n") +
			color.New(color.FgMagenta, color.Bold).Sprint("Examples:\n") +
			color.New(color.FgYellow).Sprint("  llm-eval run -c config.yaml -i 2_Data.xlsx\n") +
			color.New(color.FgYellow).Sprint("  llm-eval run -c config.yaml --only kruskal,posthoc --seed 42\n") +
			color.New(color.FgYellow).Sprint("  llm-eval run -c config.yaml --format csv,xlsx,sqlite -o results"),
		RunE: runAnalysis,
	}

	cmd.Flags().StringP("config", "c", "config.yaml", "Configuration file path")
	cmd.Flags().StringP("input", "i", "", "Ratings file (Excel/CSV/JSON/Parquet, overrides config)")
	cmd.Flags().StringP("output", "o", "", "Output directory (overrides config)")
	cmd.Flags().String("format", "", "Comma-separated output formats: csv, json, xlsx, parquet, sqlite (overrides config)")
	cmd.Flags().String("only", "", "Comma-separated analyses to run instead of the enabled ones")
	cmd.Flags().Int64("seed", -1, "Bootstrap seed for reproducible intervals (overrides config)")
	cmd.Flags().Int("draws", 0, "Bootstrap draws (overrides config)")
	cmd.Flags().IntP("workers", "w", 0, "Number of comparison workers (overrides config)")
	cmd.Flags().Bool("progress", false, "Show progress of the bootstrap comparisons")
	cmd.Flags().BoolP("quiet", "q", false, "Do not print the result tables")
	cmd.Flags().BoolP("verbose", "v", false, "Enable verbose output")
	cmd.Flags().Bool("dry-run", false, "Validate config and input without analysing")

	return cmd
}

func newBootstrapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bootstrap",
		Short: color.New(color.FgCyan, color.Bold).Sprint("Bootstrap the mean difference between two groups"),
		Long: color.New(color.FgHiBlue, color.Bold).Sprint("Estimate mean(A) - mean(B) with a percentile bootstrap interval\n\n") +
			color.New(color.FgMagenta, color.Bold).Sprint("Examples:\n") +
			color.New(color.FgYellow).Sprint("  llm-eval bootstrap -i 2_Data.xlsx --criterion Accuracy --a ChatGPT --b Claude\n") +
			color.New(color.FgYellow).Sprint("  llm-eval bootstrap -i ratings.csv --criterion Clarity --by Origin --a Patient --b Doctor --seed 7"),
		RunE: runBootstrap,
	}

	cmd.Flags().StringP("config", "c", "config.yaml", "Configuration file path")
	cmd.Flags().StringP("input", "i", "", "Ratings file (overrides config)")
	cmd.Flags().String("criterion", "", "Criterion to compare")
	cmd.Flags().String("by", models.FieldModel, "Column holding the groups")
	cmd.Flags().String("a", "", "Group A")
	cmd.Flags().String("b", "", "Group B")
	cmd.Flags().Int("draws", 0, "Bootstrap draws (overrides config)")
	cmd.Flags().Float64("level", 0, "Confidence level in percent (overrides config)")
	cmd.Flags().Int64("seed", -1, "Bootstrap seed (overrides config)")
	cmd.MarkFlagRequired("criterion")
	cmd.MarkFlagRequired("a")
	cmd.MarkFlagRequired("b")

	return cmd
}

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report [results.json]",
		Short: color.New(color.FgMagenta, color.Bold).Sprint("Generate a report from the JSON results of a run"),
		Long:  color.New(color.FgHiBlue, color.Bold).Sprint("Render the text or JSON summary of an exported analysis run"),
		Args:  cobra.ExactArgs(1),
		RunE:  runReport,
	}

	cmd.Flags().StringP("output", "o", "", "Output file path")
	cmd.Flags().String("format", "text", "Output format (text/json)")

	return cmd
}

func newConfigCmd() *cobra.Command {
	var configCmd = &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
		Long:  "Validate configurations and test loading of ratings files",
	}

	configCmd.AddCommand(newConfigValidateCmd())

	return configCmd
}

func newConfigValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [config-file]",
		Short: "Validate configuration file",
		Long: `Validate configuration file and optionally load a ratings file with it.

Examples:
  llm-eval config validate config.yaml
  llm-eval config validate config.yaml --test-file 2_Data.xlsx`,
		Args: cobra.ExactArgs(1),
		RunE: runConfigValidate,
	}

	cmd.Flags().String("test-file", "", "Load this ratings file with the configuration")

	return cmd
}

// loadConfig reads the config file, falling back to the defaults when the
// default path is absent.
func loadConfig(cmd *cobra.Command) (*models.Config, string, error) {
	configFile, _ := cmd.Flags().GetString("config")
	if !cmd.Flags().Changed("config") {
		if _, err := os.Stat(configFile); errors.Is(err, os.ErrNotExist) {
			logger.Debug("No %s found, using defaults", configFile)
			return config.Default(), "", nil
		}
	}

	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, configFile, nil
}

func loadRatings(cfg *models.Config) (*models.Dataset, error) {
	if cfg.Input.File == "" {
		return nil, fmt.Errorf("no input file: set input.file or pass --input")
	}
	if _, err := os.Stat(cfg.Input.File); os.IsNotExist(err) {
		return nil, fmt.Errorf("input file does not exist: %s", cfg.Input.File)
	}

	data, err := loader.LoadRatings(cfg.Input.File, loader.Options{
		Format:    cfg.Input.Format,
		Criteria:  cfg.Study.Criteria,
		Reviewers: cfg.Study.Reviewers,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load ratings: %w", err)
	}
	return data, nil
}

func applyBootstrapOverrides(cmd *cobra.Command, cfg *models.Config) {
	if seed, _ := cmd.Flags().GetInt64("seed"); seed >= 0 {
		s := uint64(seed)
		cfg.Bootstrap.Seed = &s
	}
	// explicit values pass through unchecked so validation can reject them
	if cmd.Flags().Changed("draws") {
		cfg.Bootstrap.Draws, _ = cmd.Flags().GetInt("draws")
	}
	if cmd.Flags().Changed("level") {
		cfg.Bootstrap.ConfidenceLevel, _ = cmd.Flags().GetFloat64("level")
	}
}

func runAnalysis(cmd *cobra.Command, args []string) error {
	inputFile, _ := cmd.Flags().GetString("input")
	outputDir, _ := cmd.Flags().GetString("output")
	formats, _ := cmd.Flags().GetString("format")
	only, _ := cmd.Flags().GetString("only")
	workers, _ := cmd.Flags().GetInt("workers")
	showProgress, _ := cmd.Flags().GetBool("progress")
	quiet, _ := cmd.Flags().GetBool("quiet")
	verbose, _ := cmd.Flags().GetBool("verbose")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	if verbose {
		logger.SetVerbose(true)
	}

	cfg, configFile, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if inputFile != "" {
		cfg.Input.File = inputFile
	}
	if outputDir != "" {
		cfg.Output.Directory = outputDir
	}
	if formats != "" {
		cfg.Output.Formats = utils.RemoveDuplicates(utils.SplitList(formats))
	}
	if workers > 0 {
		cfg.Processing.Workers = workers
	}
	if cmd.Flags().Changed("progress") {
		cfg.Processing.ShowProgress = showProgress
	}
	if cmd.Flags().Changed("quiet") {
		cfg.Output.Quiet = quiet
	}
	applyBootstrapOverrides(cmd, cfg)

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if verbose {
		logger.DebugSystem()
		logger.DebugConfig(cfg)
		printConfigSummary(cfg, configFile)
	}

	data, err := loadRatings(cfg)
	if err != nil {
		return err
	}

	runner, err := analysis.New(cfg, data, analysis.Options{
		Only:         utils.RemoveDuplicates(utils.SplitList(only)),
		ShowProgress: cfg.Processing.ShowProgress,
		InputFile:    cfg.Input.File,
	})
	if err != nil {
		return err
	}

	if dryRun {
		cli.PrintSuccess("Configuration and input validation passed")
		logger.Info("Ratings: %d, Models: %s", data.Len(), strings.Join(runner.Models(), ", "))
		logger.Info("Analyses: %s", strings.Join(runner.Selected(), ", "))
		return nil
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cli.PrintInfo("Starting analysis: %s", cfg.Input.File)
	logger.Info("Workers: %d, Draws: %d, Level: %g%%", cfg.Processing.Workers, cfg.Bootstrap.Draws, cfg.Bootstrap.ConfidenceLevel)

	manifest, err := runner.Run(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return fmt.Errorf("analysis cancelled")
		}
		return err
	}

	if !cfg.Output.Quiet {
		for _, t := range manifest.Tables {
			cli.PrintTable(os.Stdout, t)
		}
		fmt.Println()
	}

	files, err := writer.Export(manifest, cfg.Output.Directory, cfg.Output.Prefix, cfg.Output.Formats)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	name := "report.txt"
	if cfg.Output.Prefix != "" {
		name = cfg.Output.Prefix + "_" + name
	}
	reportFile := filepath.Join(cfg.Output.Directory, name)
	rep := reporter.New(manifest)
	if err := rep.SaveToFile(reportFile, "text"); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	files = append(files, reportFile)

	for _, f := range files {
		logger.Debug("Wrote %s", f)
	}
	summary := rep.Stats()
	cli.PrintSuccess("Analysis completed in %s: %d tables, %d rows, %d files in %s",
		utils.FormatDuration(manifest.Duration), summary.Tables, summary.Rows, len(files), cfg.Output.Directory)
	return nil
}

func runBootstrap(cmd *cobra.Command, args []string) error {
	inputFile, _ := cmd.Flags().GetString("input")
	criterion, _ := cmd.Flags().GetString("criterion")
	by, _ := cmd.Flags().GetString("by")
	groupA, _ := cmd.Flags().GetString("a")
	groupB, _ := cmd.Flags().GetString("b")

	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if inputFile != "" {
		cfg.Input.File = inputFile
	}
	if !utils.Contains(cfg.Study.Criteria, criterion) {
		cfg.Study.Criteria = append(cfg.Study.Criteria, criterion)
	}
	applyBootstrapOverrides(cmd, cfg)

	data, err := loadRatings(cfg)
	if err != nil {
		return err
	}

	byCriterion, err := data.Where(models.FieldCriterion, criterion)
	if err != nil {
		return err
	}
	a, err := byCriterion.Where(by, groupA)
	if err != nil {
		return err
	}
	b, err := byCriterion.Where(by, groupB)
	if err != nil {
		return err
	}
	logger.Info("%s on %s: %d scores for %s, %d for %s", criterion, by, a.Len(), groupA, b.Len(), groupB)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	e := &bootstrap.Estimator{
		Draws:   cfg.Bootstrap.Draws,
		Level:   cfg.Bootstrap.ConfidenceLevel,
		Workers: cfg.Bootstrap.Workers,
		Seed:    cfg.Bootstrap.Seed,
	}
	res, err := e.Estimate(ctx, a.Scores(), b.Scores())
	if err != nil {
		return fmt.Errorf("bootstrap failed: %w", err)
	}

	t := models.NewTable("bootstrap", fmt.Sprintf("Bootstrap of %s: %s - %s", criterion, groupA, groupB),
		"Criterion", "A", "B", "Mean A", "Mean B", "Δ Mean", fmt.Sprintf("%g%% CI", res.Level), "Draws")
	t.AddRow(criterion, groupA, groupB,
		utils.Round(stats.Mean(a.Scores()), 3), utils.Round(stats.Mean(b.Scores()), 3),
		utils.Round(res.MeanDiff, 3), utils.FormatCI(res.Lower, res.Upper), res.Draws)
	cli.PrintTable(os.Stdout, t)
	return nil
}

func runReport(cmd *cobra.Command, args []string) error {
	output, _ := cmd.Flags().GetString("output")
	format, _ := cmd.Flags().GetString("format")

	rep, err := reporter.Load(args[0])
	if err != nil {
		return err
	}

	if output != "" {
		if err := rep.SaveToFile(output, format); err != nil {
			return err
		}
		cli.PrintSuccess("Report written to %s", output)
		return nil
	}

	var content string
	switch format {
	case "json":
		content, err = rep.GenerateJSON()
	case "text":
		content = rep.GenerateText()
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
	if err != nil {
		return err
	}

	fmt.Print(content)
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	configFile := args[0]
	testFile, _ := cmd.Flags().GetString("test-file")

	logger.Header("Configuration Validation")
	logger.Info("Validating: %s", configFile)

	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger.Info("✓ Configuration loaded successfully")
	printConfigSummary(cfg, configFile)

	if testFile != "" {
		cfg.Input.File = testFile
		data, err := loadRatings(cfg)
		if err != nil {
			return err
		}
		modelNames, _ := data.Unique(models.FieldModel)
		reviewers, _ := data.Unique(models.FieldReviewer)
		logger.Info("✓ Loaded %d ratings from %s", data.Len(), testFile)
		logger.Info("Models: %s", strings.Join(modelNames, ", "))
		logger.Info("Reviewers: %s", strings.Join(reviewers, ", "))
		for _, r := range cfg.Study.Reviewers {
			if !utils.Contains(reviewers, r) {
				cli.PrintWarning("Reviewer %s has no ratings in %s", r, testFile)
			}
		}
	}

	logger.Success("Configuration validation completed")
	return nil
}

func printConfigSummary(cfg *models.Config, configFile string) {
	logger.Header("Configuration Summary")
	if configFile != "" {
		logger.Info("Config File: %s", configFile)
	} else {
		logger.Info("Config File: (defaults)")
	}
	logger.Info("Input: %s", cfg.Input.File)
	if cfg.Input.PilotFile != "" {
		logger.Info("Pilot: %s (sheet %s)", cfg.Input.PilotFile, cfg.Input.PilotSheet)
	}
	logger.Info("Criteria: %s", strings.Join(cfg.Study.Criteria, ", "))
	logger.Info("Reviewers: %s", strings.Join(cfg.Study.Reviewers, ", "))
	if len(cfg.Study.Models) > 0 {
		logger.Info("Models: %s", strings.Join(cfg.Study.Models, ", "))
	}
	for _, sg := range cfg.Study.Subgroups {
		logger.Info("Subgroup %s: %s vs %s on %s", sg.Name, sg.Treatment, sg.Reference, sg.Column)
	}

	bs := fmt.Sprintf("Draws: %d, Level: %g%%, Workers: %d", cfg.Bootstrap.Draws, cfg.Bootstrap.ConfidenceLevel, cfg.Bootstrap.Workers)
	if cfg.Bootstrap.Seed != nil {
		bs += fmt.Sprintf(", Seed: %d", *cfg.Bootstrap.Seed)
	}
	logger.Info("Bootstrap: %s", bs)
	logger.Info("Analyses: %s (alpha %g)", strings.Join(cfg.Analysis.Enabled, ", "), cfg.Analysis.Alpha)
	logger.Info("Workers: %d", cfg.Processing.Workers)
	logger.Info("Output: %s to %s", strings.Join(cfg.Output.Formats, ", "), cfg.Output.Directory)
}
