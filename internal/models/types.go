package models

import (
	"time"
)

type Config struct {
	Input      InputConfig      `yaml:"input"`
	Study      StudyConfig      `yaml:"study"`
	Bootstrap  BootstrapConfig  `yaml:"bootstrap"`
	Analysis   AnalysisConfig   `yaml:"analysis"`
	Power      PowerConfig      `yaml:"power"`
	Processing ProcessingConfig `yaml:"processing"`
	Output     OutputConfig     `yaml:"output"`
}

type InputConfig struct {
	File       string `yaml:"file"`
	Format     string `yaml:"format,omitempty"` // overrides the file extension
	PilotFile  string `yaml:"pilot_file,omitempty"`
	PilotSheet string `yaml:"pilot_sheet,omitempty"`
}

type StudyConfig struct {
	Criteria  []string         `yaml:"criteria"`
	Models    []string         `yaml:"models,omitempty"` // empty means every model found in the data, in order of appearance
	Reviewers []string         `yaml:"reviewers"`
	Subgroups []SubgroupConfig `yaml:"subgroups,omitempty"`
}

// SubgroupConfig describes a two-level comparison on one categorical column.
// The bootstrap difference is always treatment minus reference.
type SubgroupConfig struct {
	Name      string `yaml:"name"`
	Column    string `yaml:"column"`
	Treatment string `yaml:"treatment"`
	Reference string `yaml:"reference"`
	// ReferenceFirst lists the reference mean before the treatment mean.
	ReferenceFirst bool `yaml:"reference_first,omitempty"`
}

type BootstrapConfig struct {
	Draws           int     `yaml:"draws"`
	ConfidenceLevel float64 `yaml:"confidence_level"`
	Seed            *uint64 `yaml:"seed,omitempty"`
	Workers         int     `yaml:"workers"`
}

type AnalysisConfig struct {
	Alpha   float64  `yaml:"alpha"`
	Enabled []string `yaml:"enabled,omitempty"`
}

type PowerConfig struct {
	Alpha       float64 `yaml:"alpha"`
	TargetPower float64 `yaml:"target_power"`
	Delta       float64 `yaml:"delta"`
	KGroups     int     `yaml:"k_groups,omitempty"` // 0 means the number of models in the pilot
}

type ProcessingConfig struct {
	Workers      int  `yaml:"workers"`
	ShowProgress bool `yaml:"show_progress,omitempty"`
}

type OutputConfig struct {
	Directory string   `yaml:"directory"`
	Formats   []string `yaml:"formats"`
	Prefix    string   `yaml:"prefix,omitempty"`
	Quiet     bool     `yaml:"quiet,omitempty"`
}

// Rating is a single reviewer score in long format.
type Rating struct {
	Request   string  `json:"request" parquet:"Request"`
	Model     string  `json:"model" parquet:"Model"`
	Origin    string  `json:"origin" parquet:"Origin"`
	Diagnosis string  `json:"diagnosis" parquet:"Diagnosis"`
	Criterion string  `json:"criterion" parquet:"Criterion"`
	Reviewer  string  `json:"reviewer" parquet:"Reviewer"`
	Score     float64 `json:"score" parquet:"Score"`
}

// PilotRow is one row of the pilot workbook used for the power analysis.
type PilotRow struct {
	Model    string             `json:"model"`
	Question string             `json:"question"`
	Scores   map[string]float64 `json:"scores"`
}

// Table is the unit of analysis output. Cells hold string, float64, int or bool.
type Table struct {
	Name    string   `json:"name"`
	Title   string   `json:"title"`
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

func NewTable(name, title string, columns ...string) *Table {
	return &Table{
		Name:    name,
		Title:   title,
		Columns: columns,
	}
}

func (t *Table) AddRow(cells ...any) {
	t.Rows = append(t.Rows, cells)
}

// Column returns the index of the named column, or -1.
func (t *Table) Column(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Manifest is the JSON document written for a complete analysis run.
type Manifest struct {
	RunID     string        `json:"run_id"`
	InputFile string        `json:"input_file"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Ratings   int           `json:"ratings"`
	Draws     int           `json:"bootstrap_draws"`
	Level     float64       `json:"confidence_level"`
	Seed      *uint64       `json:"seed,omitempty"`
	Analyses  []string      `json:"analyses"`
	Tables    []*Table      `json:"tables"`
}
