package loader

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/doctorai/llm-eval/internal/logger"
	"github.com/doctorai/llm-eval/internal/models"
	"github.com/doctorai/llm-eval/internal/utils"

	"github.com/xuri/excelize/v2"
)

// LoadPilot reads the pilot workbook sheet with Model, Question and one
// column per criterion. Criteria cells that are not numeric are left out of
// the row's scores.
func LoadPilot(filename, sheet string, criteria []string) ([]models.PilotRow, error) {
	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xls":
		rows, err = readSheet(filename, sheet)
	case ".csv":
		rows, err = readCSVRows(filename)
	default:
		return nil, fmt.Errorf("unsupported pilot file format: %s", filepath.Ext(filename))
	}
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("pilot sheet %s is empty", sheet)
	}

	required := append([]string{models.FieldModel, "Question"}, criteria...)
	if err := requireColumns(rows[0], required); err != nil {
		return nil, fmt.Errorf("pilot sheet %s: %w", sheet, err)
	}
	return pilotFromRecords(filename, rowsToRecords(rows), criteria)
}

func pilotFromRecords(filename string, records []record, criteria []string) ([]models.PilotRow, error) {
	var out []models.PilotRow
	dropped := 0
	for _, rec := range records {
		row := models.PilotRow{
			Model:    toString(rec[utils.NormalizeLabel(models.FieldModel)]),
			Question: toString(rec[utils.NormalizeLabel("Question")]),
			Scores:   make(map[string]float64, len(criteria)),
		}
		for _, c := range criteria {
			if v, ok := toScore(rec[utils.NormalizeLabel(c)]); ok {
				row.Scores[c] = v
			} else {
				dropped++
			}
		}
		out = append(out, row)
	}

	if dropped > 0 {
		logger.Debug("Dropped %d missing or non-numeric pilot scores from %s", dropped, filename)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s: %w", filename, ErrNoRatings)
	}
	return out, nil
}

func readSheet(filename, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	return rows, nil
}
