package cli

import (
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/doctorai/llm-eval/internal/logger"
	"github.com/doctorai/llm-eval/internal/models"

	"github.com/fatih/color"
)

var colorTitle = color.New(color.FgMagenta, color.Bold)

func init() {
	if os.Getenv("NO_COLOR") != "" {
		color.NoColor = true
	}
}

// SetColorEnabled allows manual control of color output
func SetColorEnabled(enabled bool) {
	color.NoColor = !enabled
}

// PrintError prints an error message
func PrintError(format string, args ...interface{}) {
	logger.Error(format, args...)
}

// PrintWarning prints a warning message
func PrintWarning(format string, args ...interface{}) {
	logger.Warning(format, args...)
}

// PrintSuccess prints a success message
func PrintSuccess(format string, args ...interface{}) {
	logger.Success(format, args...)
}

// PrintInfo prints an info message
func PrintInfo(format string, args ...interface{}) {
	logger.Info(format, args...)
}

// PrintTable renders a result table with aligned columns.
func PrintTable(w io.Writer, t *models.Table) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, colorTitle.Sprint(t.Title))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for i, c := range t.Columns {
		if i > 0 {
			fmt.Fprint(tw, "\t")
		}
		fmt.Fprint(tw, c)
	}
	fmt.Fprintln(tw)

	for _, row := range t.Rows {
		for i, cell := range row {
			if i > 0 {
				fmt.Fprint(tw, "\t")
			}
			fmt.Fprint(tw, FormatCell(cell))
		}
		fmt.Fprintln(tw)
	}
	tw.Flush()
}

// FormatCell renders one table cell for terminal and text output.
func FormatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		if math.IsNaN(x) {
			return "NaN"
		}
		if x != 0 && math.Abs(x) < 0.001 {
			return strconv.FormatFloat(x, 'e', 2, 64)
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case bool:
		if x {
			return "Yes"
		}
		return "No"
	default:
		return fmt.Sprint(x)
	}
}
