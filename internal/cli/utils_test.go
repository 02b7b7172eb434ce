package cli

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/doctorai/llm-eval/internal/models"
)

func TestFormatCell(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"Claude", "Claude"},
		{3.5, "3.5"},
		{0.0001234, "1.23e-04"},
		{0.0, "0"},
		{math.NaN(), "NaN"},
		{42, "42"},
		{true, "Yes"},
		{false, "No"},
		{int64(7), "7"},
	}
	for _, tt := range tests {
		if got := FormatCell(tt.in); got != tt.want {
			t.Errorf("FormatCell(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPrintTable(t *testing.T) {
	SetColorEnabled(false)
	defer SetColorEnabled(true)

	tbl := models.NewTable("stat_analysis_kruskal", "Kruskal-Wallis", "Criterion", "H-statistic", "Significant")
	tbl.AddRow("Accuracy", 12.5, true)
	tbl.AddRow("Clarity", 0.4, false)

	var buf bytes.Buffer
	PrintTable(&buf, tbl)
	out := buf.String()

	if !strings.Contains(out, "Kruskal-Wallis") {
		t.Errorf("Expected title in output, got %q", out)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 4 {
		t.Fatalf("Expected title, header and 2 rows, got %d lines: %q", len(lines), out)
	}
	header, first := lines[1], lines[2]
	if strings.Index(header, "H-statistic") != strings.Index(first, "12.5") {
		t.Errorf("Columns are not aligned:\n%s\n%s", header, first)
	}
	if !strings.HasSuffix(lines[3], "No") {
		t.Errorf("Expected boolean rendered as No, got %q", lines[3])
	}
}
