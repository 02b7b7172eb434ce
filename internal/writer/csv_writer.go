package writer

import (
	"encoding/csv"
	"os"
	"path/filepath"

	"github.com/doctorai/llm-eval/internal/models"
)

// CSVTableWriter writes one file per table.
type CSVTableWriter struct {
	directory string
	prefix    string
	filenames []string
}

func NewCSVTableWriter(directory, prefix string) *CSVTableWriter {
	return &CSVTableWriter{directory: directory, prefix: prefix}
}

func (w *CSVTableWriter) WriteTable(t *models.Table) error {
	filename := filepath.Join(w.directory, stem(w.prefix, t.Name)+".csv")
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	cw := csv.NewWriter(file)
	if err := cw.Write(t.Columns); err != nil {
		return err
	}

	record := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for j := range t.Columns {
			record[j] = cellString(cell(row, j))
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	w.filenames = append(w.filenames, filename)
	return file.Close()
}

func (w *CSVTableWriter) Close() error {
	return nil
}

func (w *CSVTableWriter) Filenames() []string {
	return w.filenames
}
