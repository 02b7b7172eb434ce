package writer

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/doctorai/llm-eval/internal/models"

	"github.com/xuri/excelize/v2"
)

const maxSheetName = 31

// ExcelTableWriter writes one workbook with one sheet per table.
type ExcelTableWriter struct {
	filename string
	file     *excelize.File
	sheets   map[string]bool
}

func NewExcelTableWriter(directory, prefix string) *ExcelTableWriter {
	return &ExcelTableWriter{
		filename: filepath.Join(directory, stem(prefix, "results")+".xlsx"),
		file:     excelize.NewFile(),
		sheets:   make(map[string]bool),
	}
}

func (w *ExcelTableWriter) WriteTable(t *models.Table) error {
	sheet := w.sheetName(t.Name)
	if _, err := w.file.NewSheet(sheet); err != nil {
		return err
	}
	w.sheets[sheet] = true

	for j, header := range t.Columns {
		name, err := excelize.CoordinatesToCellName(j+1, 1)
		if err != nil {
			return err
		}
		if err := w.file.SetCellValue(sheet, name, header); err != nil {
			return err
		}
	}

	for i, row := range t.Rows {
		for j := range t.Columns {
			value := cell(row, j)
			if value == nil {
				continue
			}
			// excelize cannot store non-finite numbers
			if f, ok := value.(float64); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
				value = cellString(f)
			}
			name, err := excelize.CoordinatesToCellName(j+1, i+2)
			if err != nil {
				return err
			}
			if err := w.file.SetCellValue(sheet, name, value); err != nil {
				return err
			}
		}
	}
	return nil
}

// sheetName makes a table name a valid, unused worksheet name.
func (w *ExcelTableWriter) sheetName(table string) string {
	name := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`:\/?*[]`, r) {
			return '_'
		}
		return r
	}, table)
	if name == "" {
		name = "table"
	}

	base := truncateRunes(name, maxSheetName)
	name = base
	for i := 2; w.sheets[name] || strings.EqualFold(name, "Sheet1"); i++ {
		suffix := fmt.Sprintf("_%d", i)
		name = truncateRunes(base, maxSheetName-len(suffix)) + suffix
	}
	return name
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func (w *ExcelTableWriter) Close() error {
	defer w.file.Close()

	if len(w.sheets) > 0 {
		if err := w.file.DeleteSheet("Sheet1"); err != nil {
			return err
		}
	}
	return w.file.SaveAs(w.filename)
}

func (w *ExcelTableWriter) Filenames() []string {
	return []string{w.filename}
}
