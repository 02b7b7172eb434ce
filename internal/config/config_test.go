package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/doctorai/llm-eval/internal/models"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		configYAML  string
		expectError bool
		validate    func(*models.Config) error
	}{
		{
			name: "full study config",
			configYAML: `
input:
  file: ./data/ratings.xlsx
  pilot_file: ./data/pilot.xlsx
  pilot_sheet: Pilot

study:
  criteria: [Accuracy, Clarity]
  models: [ChatGPT, Claude, Gemini]
  reviewers: [Reviewer1, Reviewer2, Reviewer3]
  subgroups:
    - name: diagnostic_phase
      column: Diagnosis
      treatment: Post
      reference: Pre
      reference_first: true

bootstrap:
  draws: 2000
  confidence_level: 90
  seed: 42
  workers: 2

analysis:
  alpha: 0.01
  enabled: [descriptive, kruskal, posthoc]

power:
  alpha: 0.05
  target_power: 0.9
  delta: 0.4
  k_groups: 3

processing:
  workers: 8

output:
  directory: ./results
  formats: [csv, xlsx, sqlite]
  prefix: study1
`,
			expectError: false,
			validate: func(cfg *models.Config) error {
				if cfg.Input.PilotSheet != "Pilot" {
					t.Errorf("Expected pilot sheet 'Pilot', got '%s'", cfg.Input.PilotSheet)
				}
				if len(cfg.Study.Criteria) != 2 || cfg.Study.Criteria[1] != "Clarity" {
					t.Errorf("Expected criteria [Accuracy Clarity], got %v", cfg.Study.Criteria)
				}
				if len(cfg.Study.Subgroups) != 1 || !cfg.Study.Subgroups[0].ReferenceFirst {
					t.Errorf("Expected 1 subgroup listing Pre first, got %+v", cfg.Study.Subgroups)
				}
				if cfg.Bootstrap.Draws != 2000 || cfg.Bootstrap.ConfidenceLevel != 90 {
					t.Errorf("Expected bootstrap 2000/90, got %d/%v", cfg.Bootstrap.Draws, cfg.Bootstrap.ConfidenceLevel)
				}
				if cfg.Bootstrap.Seed == nil || *cfg.Bootstrap.Seed != 42 {
					t.Errorf("Expected seed 42, got %v", cfg.Bootstrap.Seed)
				}
				if cfg.Power.KGroups != 3 {
					t.Errorf("Expected k_groups 3, got %d", cfg.Power.KGroups)
				}
				if len(cfg.Output.Formats) != 3 {
					t.Errorf("Expected 3 output formats, got %v", cfg.Output.Formats)
				}
				return nil
			},
		},
		{
			name: "minimal config gets study defaults",
			configYAML: `
input:
  file: ratings.xlsx
`,
			expectError: false,
			validate: func(cfg *models.Config) error {
				if len(cfg.Study.Criteria) != 4 {
					t.Errorf("Expected 4 default criteria, got %v", cfg.Study.Criteria)
				}
				if cfg.Bootstrap.Seed != nil {
					t.Errorf("Expected no seed by default, got %d", *cfg.Bootstrap.Seed)
				}
				if len(cfg.Study.Subgroups) != 2 {
					t.Errorf("Expected 2 default subgroups, got %d", len(cfg.Study.Subgroups))
				}
				return nil
			},
		},
		{
			name: "empty subgroup list disables subgroups",
			configYAML: `
study:
  subgroups: []
`,
			expectError: false,
			validate: func(cfg *models.Config) error {
				if len(cfg.Study.Subgroups) != 0 {
					t.Errorf("Expected no subgroups, got %d", len(cfg.Study.Subgroups))
				}
				return nil
			},
		},
		{
			name: "invalid output format",
			configYAML: `
output:
  formats: [csv, pdf]
`,
			expectError: true,
		},
		{
			name: "confidence level of 100",
			configYAML: `
bootstrap:
  confidence_level: 100
`,
			expectError: true,
		},
		{
			name: "negative draws",
			configYAML: `
bootstrap:
  draws: -5
`,
			expectError: true,
		},
		{
			name: "unknown analysis",
			configYAML: `
analysis:
  enabled: [descriptive, anova]
`,
			expectError: true,
		},
		{
			name: "single reviewer",
			configYAML: `
study:
  reviewers: [Reviewer1]
`,
			expectError: true,
		},
		{
			name: "subgroup on unknown column",
			configYAML: `
study:
  subgroups:
    - name: age
      column: Age
      treatment: Old
      reference: Young
`,
			expectError: true,
		},
		{
			name:        "malformed yaml",
			configYAML:  "study: [unterminated",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			configFile := filepath.Join(tmpDir, "config.yaml")

			err := os.WriteFile(configFile, []byte(tt.configYAML), 0644)
			if err != nil {
				t.Fatalf("Failed to write test config file: %v", err)
			}

			cfg, err := Load(configFile)

			if tt.expectError {
				if err == nil {
					t.Errorf("Expected error but got none")
				}
				return
			}

			if err != nil {
				t.Errorf("Unexpected error: %v", err)
				return
			}

			if tt.validate != nil {
				if err := tt.validate(cfg); err != nil {
					t.Errorf("Custom validation failed: %v", err)
				}
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for missing config file")
	}
}

func TestSetDefaults(t *testing.T) {
	cfg := &models.Config{}

	setDefaults(cfg)

	if cfg.Bootstrap.Draws != 10000 {
		t.Errorf("Expected default draws 10000, got %d", cfg.Bootstrap.Draws)
	}
	if cfg.Bootstrap.ConfidenceLevel != 95 {
		t.Errorf("Expected default confidence level 95, got %v", cfg.Bootstrap.ConfidenceLevel)
	}
	if cfg.Analysis.Alpha != 0.05 {
		t.Errorf("Expected default alpha 0.05, got %v", cfg.Analysis.Alpha)
	}
	if len(cfg.Analysis.Enabled) != len(Analyses) {
		t.Errorf("Expected every analysis enabled, got %v", cfg.Analysis.Enabled)
	}
	if cfg.Power.TargetPower != 0.8 || cfg.Power.Delta != 0.5 {
		t.Errorf("Expected power defaults 0.8/0.5, got %v/%v", cfg.Power.TargetPower, cfg.Power.Delta)
	}
	if cfg.Processing.Workers != 4 {
		t.Errorf("Expected default workers 4, got %d", cfg.Processing.Workers)
	}
	if cfg.Output.Directory != "./output" {
		t.Errorf("Expected default output directory './output', got '%s'", cfg.Output.Directory)
	}
	if len(cfg.Output.Formats) != 1 || cfg.Output.Formats[0] != "csv" {
		t.Errorf("Expected default output formats [csv], got %v", cfg.Output.Formats)
	}
	if cfg.Study.Reviewers[2] != "Reviewer3" {
		t.Errorf("Expected default reviewers Reviewer1-3, got %v", cfg.Study.Reviewers)
	}
	if sg := cfg.Study.Subgroups[0]; sg.Column != models.FieldDiagnosis || sg.Treatment != "Post" || sg.Reference != "Pre" || !sg.ReferenceFirst {
		t.Errorf("Unexpected default diagnostic subgroup: %+v", sg)
	}
	if sg := cfg.Study.Subgroups[1]; sg.Column != models.FieldOrigin || sg.Treatment != "Patient" || sg.Reference != "Doctor" || sg.ReferenceFirst {
		t.Errorf("Unexpected default user subgroup: %+v", sg)
	}
}

func TestDefaultMutationIsolated(t *testing.T) {
	a := Default()
	a.Analysis.Enabled[0] = "power"
	if Analyses[0] != "descriptive" {
		t.Error("Default must not share the analysis list")
	}
}

func TestEnvironmentVariableExpansion(t *testing.T) {
	t.Setenv("STUDY_DATA", "/data/ratings.xlsx")

	configYAML := `
input:
  file: ${STUDY_DATA}
`

	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "config.yaml")

	err := os.WriteFile(configFile, []byte(configYAML), 0644)
	if err != nil {
		t.Fatalf("Failed to write test config file: %v", err)
	}

	cfg, err := Load(configFile)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Input.File != "/data/ratings.xlsx" {
		t.Errorf("Expected input file '/data/ratings.xlsx', got '%s'", cfg.Input.File)
	}
}

func TestValidateEdgeCases(t *testing.T) {
	valid := func(mutate func(*models.Config)) *models.Config {
		cfg := Default()
		mutate(cfg)
		return cfg
	}

	tests := []struct {
		name   string
		config *models.Config
		valid  bool
	}{
		{
			name:   "defaults",
			config: Default(),
			valid:  true,
		},
		{
			name:   "confidence level just above 0",
			config: valid(func(c *models.Config) { c.Bootstrap.ConfidenceLevel = 0.5 }),
			valid:  true,
		},
		{
			name:   "confidence level just below 100",
			config: valid(func(c *models.Config) { c.Bootstrap.ConfidenceLevel = 99.9 }),
			valid:  true,
		},
		{
			name:   "alpha of 1",
			config: valid(func(c *models.Config) { c.Analysis.Alpha = 1 }),
			valid:  false,
		},
		{
			name:   "duplicate criterion",
			config: valid(func(c *models.Config) { c.Study.Criteria = []string{"Accuracy", "Accuracy"} }),
			valid:  false,
		},
		{
			name:   "uppercase format accepted",
			config: valid(func(c *models.Config) { c.Output.Formats = []string{"XLSX"} }),
			valid:  true,
		},
		{
			name: "subgroup comparing a level with itself",
			config: valid(func(c *models.Config) {
				c.Study.Subgroups = []models.SubgroupConfig{{Name: "x", Column: models.FieldOrigin, Treatment: "Doctor", Reference: "Doctor"}}
			}),
			valid: false,
		},
		{
			name:   "k_groups of 1",
			config: valid(func(c *models.Config) { c.Power.KGroups = 1 }),
			valid:  false,
		},
		{
			name:   "unknown input format",
			config: valid(func(c *models.Config) { c.Input.Format = "sav" }),
			valid:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.config)
			if tt.valid && err != nil {
				t.Errorf("Expected valid config but got error: %v", err)
			}
			if !tt.valid && err == nil {
				t.Errorf("Expected invalid config but got no error")
			}
		})
	}
}
