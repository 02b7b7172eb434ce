package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/doctorai/llm-eval/internal/models"

	"gopkg.in/yaml.v3"
)

// Analyses lists every analysis the runner knows, in execution order.
var Analyses = []string{
	"descriptive",
	"normality",
	"kruskal",
	"posthoc",
	"subgroups",
	"reliability",
	"sensitivity",
	"power",
}

var validFormats = map[string]bool{
	"csv":     true,
	"json":    true,
	"xlsx":    true,
	"parquet": true,
	"sqlite":  true,
}

var validInputFormats = map[string]bool{
	"xlsx":    true,
	"csv":     true,
	"json":    true,
	"parquet": true,
}

func Load(filename string) (*models.Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	content := os.ExpandEnv(string(data))

	var cfg models.Config
	if err := yaml.Unmarshal([]byte(content), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	setDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// Default returns a configuration holding only the defaults, used when the
// CLI runs without a config file.
func Default() *models.Config {
	cfg := &models.Config{}
	setDefaults(cfg)
	return cfg
}

func setDefaults(cfg *models.Config) {
	if len(cfg.Study.Criteria) == 0 {
		cfg.Study.Criteria = []string{"Accuracy", "Completeness", "Clarity", "Coherence"}
	}
	if len(cfg.Study.Reviewers) == 0 {
		cfg.Study.Reviewers = []string{"Reviewer1", "Reviewer2", "Reviewer3"}
	}
	if cfg.Study.Subgroups == nil {
		cfg.Study.Subgroups = []models.SubgroupConfig{
			{Name: "diagnostic_phase", Column: models.FieldDiagnosis, Treatment: "Post", Reference: "Pre", ReferenceFirst: true},
			{Name: "user_type", Column: models.FieldOrigin, Treatment: "Patient", Reference: "Doctor"},
		}
	}
	if cfg.Input.PilotSheet == "" {
		cfg.Input.PilotSheet = "Sheet1"
	}
	if cfg.Bootstrap.Draws == 0 {
		cfg.Bootstrap.Draws = 10000
	}
	if cfg.Bootstrap.ConfidenceLevel == 0 {
		cfg.Bootstrap.ConfidenceLevel = 95
	}
	if cfg.Bootstrap.Workers == 0 {
		cfg.Bootstrap.Workers = 1
	}
	if cfg.Analysis.Alpha == 0 {
		cfg.Analysis.Alpha = 0.05
	}
	if len(cfg.Analysis.Enabled) == 0 {
		cfg.Analysis.Enabled = append([]string(nil), Analyses...)
	}
	if cfg.Power.Alpha == 0 {
		cfg.Power.Alpha = 0.05
	}
	if cfg.Power.TargetPower == 0 {
		cfg.Power.TargetPower = 0.8
	}
	if cfg.Power.Delta == 0 {
		cfg.Power.Delta = 0.5
	}
	if cfg.Processing.Workers == 0 {
		cfg.Processing.Workers = 4
	}
	if cfg.Output.Directory == "" {
		cfg.Output.Directory = "./output"
	}
	if len(cfg.Output.Formats) == 0 {
		cfg.Output.Formats = []string{"csv"}
	}
}

// Validate checks a configuration after defaults have been applied.
func Validate(cfg *models.Config) error {
	if cfg.Input.Format != "" && !validInputFormats[strings.ToLower(cfg.Input.Format)] {
		return fmt.Errorf("unsupported input format: %s", cfg.Input.Format)
	}

	if len(cfg.Study.Criteria) == 0 {
		return fmt.Errorf("at least one criterion is required")
	}
	if len(cfg.Study.Reviewers) < 2 {
		return fmt.Errorf("at least two reviewers are required, got %d", len(cfg.Study.Reviewers))
	}
	if err := unique("criterion", cfg.Study.Criteria); err != nil {
		return err
	}
	if err := unique("reviewer", cfg.Study.Reviewers); err != nil {
		return err
	}

	for i, sg := range cfg.Study.Subgroups {
		if sg.Name == "" {
			return fmt.Errorf("subgroup %d: name is required", i)
		}
		if _, err := (models.Rating{}).Field(sg.Column); err != nil {
			return fmt.Errorf("subgroup %s: %w", sg.Name, err)
		}
		if sg.Treatment == "" || sg.Reference == "" {
			return fmt.Errorf("subgroup %s: treatment and reference are required", sg.Name)
		}
		if sg.Treatment == sg.Reference {
			return fmt.Errorf("subgroup %s: treatment and reference must differ", sg.Name)
		}
	}

	if cfg.Bootstrap.Draws <= 0 {
		return fmt.Errorf("bootstrap draws must be positive")
	}
	if cfg.Bootstrap.ConfidenceLevel <= 0 || cfg.Bootstrap.ConfidenceLevel >= 100 {
		return fmt.Errorf("bootstrap confidence_level must be between 0 and 100 (exclusive)")
	}
	if cfg.Bootstrap.Workers < 1 {
		return fmt.Errorf("bootstrap workers must be at least 1")
	}

	if cfg.Analysis.Alpha <= 0 || cfg.Analysis.Alpha >= 1 {
		return fmt.Errorf("analysis alpha must be between 0 and 1 (exclusive)")
	}
	for _, name := range cfg.Analysis.Enabled {
		if !IsAnalysis(name) {
			return fmt.Errorf("unknown analysis: %s", name)
		}
	}

	if cfg.Power.Alpha <= 0 || cfg.Power.Alpha >= 1 {
		return fmt.Errorf("power alpha must be between 0 and 1 (exclusive)")
	}
	if cfg.Power.TargetPower <= 0 || cfg.Power.TargetPower >= 1 {
		return fmt.Errorf("target_power must be between 0 and 1 (exclusive)")
	}
	if cfg.Power.Delta <= 0 {
		return fmt.Errorf("power delta must be positive")
	}
	if cfg.Power.KGroups != 0 && cfg.Power.KGroups < 2 {
		return fmt.Errorf("power k_groups must be at least 2")
	}

	if cfg.Processing.Workers < 1 {
		return fmt.Errorf("processing workers must be at least 1")
	}

	for _, f := range cfg.Output.Formats {
		if !validFormats[strings.ToLower(f)] {
			return fmt.Errorf("unsupported output format: %s", f)
		}
	}

	return nil
}

// IsAnalysis reports whether name is a known analysis.
func IsAnalysis(name string) bool {
	for _, a := range Analyses {
		if a == name {
			return true
		}
	}
	return false
}

func unique(kind string, values []string) error {
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("empty %s name", kind)
		}
		if seen[v] {
			return fmt.Errorf("duplicate %s: %s", kind, v)
		}
		seen[v] = true
	}
	return nil
}
