package reporter

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/doctorai/llm-eval/internal/cli"
	"github.com/doctorai/llm-eval/internal/models"
	"github.com/doctorai/llm-eval/internal/utils"
)

type Reporter struct {
	manifest *models.Manifest
	stats    *Stats
}

// Stats summarises the tables of a run for the closing section of the report.
type Stats struct {
	Tables int
	Rows   int

	// per table holding a Significant column
	Tests       map[string]int
	Significant map[string]int
	testOrder   []string

	// Interpretation of each inter-rater kappa, keyed by criterion and pair
	Agreement      map[string]string
	agreementOrder []string
}

func New(manifest *models.Manifest) *Reporter {
	return &Reporter{
		manifest: manifest,
		stats:    calculateStats(manifest.Tables),
	}
}

// Load reads the JSON results document of a finished run.
func Load(filename string) (*Reporter, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read results: %w", err)
	}

	var manifest models.Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse results: %w", err)
	}
	return New(&manifest), nil
}

func (r *Reporter) Stats() *Stats {
	return r.stats
}

func (r *Reporter) GenerateText() string {
	var report strings.Builder

	r.writeHeader(&report)
	r.writeOverview(&report)
	for _, t := range r.manifest.Tables {
		r.writeTable(&report, t)
	}
	r.writeSummary(&report)

	return report.String()
}

func (r *Reporter) writeHeader(report *strings.Builder) {
	report.WriteString("CHATBOT RATING ANALYSIS REPORT\n")
	report.WriteString(strings.Repeat("-", 50) + "\n\n")
}

func (r *Reporter) writeOverview(report *strings.Builder) {
	m := r.manifest
	report.WriteString("OVERVIEW\n")
	if m.RunID != "" {
		report.WriteString(fmt.Sprintf("  Run: %s\n", m.RunID))
	}
	if m.InputFile != "" {
		report.WriteString(fmt.Sprintf("  Input File: %s\n", m.InputFile))
	}
	if !m.StartedAt.IsZero() {
		report.WriteString(fmt.Sprintf("  Started: %s\n", m.StartedAt.Format(time.RFC3339)))
	}
	report.WriteString(fmt.Sprintf("  Ratings Analysed: %d\n", m.Ratings))
	report.WriteString(fmt.Sprintf("  Bootstrap: %d draws, %g%% intervals", m.Draws, m.Level))
	if m.Seed != nil {
		report.WriteString(fmt.Sprintf(", seed %d", *m.Seed))
	}
	report.WriteString("\n")
	if len(m.Analyses) > 0 {
		report.WriteString(fmt.Sprintf("  Analyses: %s\n", strings.Join(m.Analyses, ", ")))
	}
	report.WriteString(fmt.Sprintf("  Processing Time: %s\n", utils.FormatDuration(m.Duration)))
	report.WriteString("\n")
}

func (r *Reporter) writeTable(report *strings.Builder, t *models.Table) {
	title := t.Title
	if title == "" {
		title = t.Name
	}
	report.WriteString(strings.ToUpper(title) + "\n")

	if len(t.Rows) == 0 {
		report.WriteString("  No rows\n\n")
		return
	}

	tw := tabwriter.NewWriter(report, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "  %s\n", strings.Join(t.Columns, "\t"))
	cells := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for j := range t.Columns {
			cells[j] = ""
			if j < len(row) {
				cells[j] = cli.FormatCell(row[j])
			}
		}
		fmt.Fprintf(tw, "  %s\n", strings.Join(cells, "\t"))
	}
	tw.Flush()
	report.WriteString("\n")
}

func (r *Reporter) writeSummary(report *strings.Builder) {
	report.WriteString("SUMMARY\n")
	report.WriteString(fmt.Sprintf("  Tables: %d, Rows: %d\n", r.stats.Tables, r.stats.Rows))

	for _, name := range r.stats.testOrder {
		report.WriteString(fmt.Sprintf("  %s: %d of %d tests significant\n",
			name, r.stats.Significant[name], r.stats.Tests[name]))
	}
	for _, pair := range r.stats.agreementOrder {
		report.WriteString(fmt.Sprintf("  Agreement %s: %s\n", pair, r.stats.Agreement[pair]))
	}
}

func (r *Reporter) GenerateJSON() (string, error) {
	data, err := json.MarshalIndent(map[string]interface{}{
		"run_id":      r.manifest.RunID,
		"ratings":     r.manifest.Ratings,
		"tables":      r.stats.Tables,
		"rows":        r.stats.Rows,
		"tests":       r.stats.Tests,
		"significant": r.stats.Significant,
		"agreement":   r.stats.Agreement,
	}, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (r *Reporter) SaveToFile(filename, format string) error {
	switch format {
	case "json":
		content, err := r.GenerateJSON()
		if err != nil {
			return err
		}
		return os.WriteFile(filename, []byte(content), 0644)
	case "text":
		return os.WriteFile(filename, []byte(r.GenerateText()), 0644)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func calculateStats(tables []*models.Table) *Stats {
	stats := &Stats{
		Tests:       make(map[string]int),
		Significant: make(map[string]int),
		Agreement:   make(map[string]string),
	}

	for _, t := range tables {
		stats.Tables++
		stats.Rows += len(t.Rows)

		if col := significantColumn(t); col >= 0 {
			stats.testOrder = append(stats.testOrder, t.Name)
			for _, row := range t.Rows {
				if col >= len(row) {
					continue
				}
				significant, ok := row[col].(bool)
				if !ok {
					continue
				}
				stats.Tests[t.Name]++
				if significant {
					stats.Significant[t.Name]++
				}
			}
		}

		crit, pair, interp := t.Column("Criterion"), t.Column("Reviewer Pair"), t.Column("Interpretation")
		if pair >= 0 && interp >= 0 {
			for _, row := range t.Rows {
				if len(row) <= max(crit, pair, interp) {
					continue
				}
				key := fmt.Sprint(row[pair])
				if crit >= 0 {
					key = fmt.Sprintf("%v %v", row[crit], row[pair])
				}
				if _, seen := stats.Agreement[key]; !seen {
					stats.agreementOrder = append(stats.agreementOrder, key)
				}
				stats.Agreement[key] = fmt.Sprint(row[interp])
			}
		}
	}
	return stats
}

func significantColumn(t *models.Table) int {
	for i, c := range t.Columns {
		if strings.HasPrefix(c, "Significant") {
			return i
		}
	}
	return -1
}
