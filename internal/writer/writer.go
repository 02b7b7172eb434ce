package writer

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/doctorai/llm-eval/internal/models"
)

// TableWriter receives the result tables of one run in order. Close flushes
// whatever the format keeps buffered.
type TableWriter interface {
	WriteTable(t *models.Table) error
	Close() error
	Filenames() []string
}

// Export writes every table of the manifest in each of the given formats and
// returns the files it created.
func Export(manifest *models.Manifest, directory, prefix string, formats []string) ([]string, error) {
	var files []string
	for _, format := range formats {
		w, err := NewTableWriter(format, directory, prefix, manifest)
		if err != nil {
			return files, err
		}
		for _, t := range manifest.Tables {
			if err := w.WriteTable(t); err != nil {
				w.Close()
				return files, fmt.Errorf("failed to write %s as %s: %w", t.Name, format, err)
			}
		}
		if err := w.Close(); err != nil {
			return files, fmt.Errorf("failed to finish %s export: %w", format, err)
		}
		files = append(files, w.Filenames()...)
	}
	return files, nil
}

func NewTableWriter(format, directory, prefix string, manifest *models.Manifest) (TableWriter, error) {
	if err := os.MkdirAll(directory, 0755); err != nil {
		return nil, err
	}

	switch strings.ToLower(format) {
	case "csv":
		return NewCSVTableWriter(directory, prefix), nil
	case "json":
		return NewJSONTableWriter(directory, prefix, manifest), nil
	case "xlsx":
		return NewExcelTableWriter(directory, prefix), nil
	case "parquet":
		return NewParquetTableWriter(directory, prefix), nil
	case "sqlite":
		return NewSQLiteTableWriter(directory, prefix, manifest)
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// JSONTableWriter collects the tables and writes them with the run metadata
// as a single results document.
type JSONTableWriter struct {
	filename string
	manifest models.Manifest
}

func NewJSONTableWriter(directory, prefix string, manifest *models.Manifest) *JSONTableWriter {
	w := &JSONTableWriter{filename: filepath.Join(directory, stem(prefix, "results")+".json")}
	if manifest != nil {
		w.manifest = *manifest
	}
	w.manifest.Tables = nil
	return w
}

func (w *JSONTableWriter) WriteTable(t *models.Table) error {
	w.manifest.Tables = append(w.manifest.Tables, jsonSafe(t))
	return nil
}

func (w *JSONTableWriter) Close() error {
	file, err := os.Create(w.filename)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(w.manifest); err != nil {
		return err
	}
	return file.Close()
}

func (w *JSONTableWriter) Filenames() []string {
	return []string{w.filename}
}

// jsonSafe replaces non-finite floats, which encoding/json rejects, with nil.
func jsonSafe(t *models.Table) *models.Table {
	out := &models.Table{Name: t.Name, Title: t.Title, Columns: t.Columns, Rows: make([][]any, len(t.Rows))}
	for i, row := range t.Rows {
		cells := make([]any, len(row))
		for j, v := range row {
			if f, ok := v.(float64); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
				v = nil
			}
			cells[j] = v
		}
		out.Rows[i] = cells
	}
	return out
}

func stem(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "_" + name
}

// cellString renders a cell for text formats.
func cellString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case int:
		return strconv.Itoa(x)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}

type cellKind int

const (
	kindString cellKind = iota
	kindFloat
	kindInt
	kindBool
)

// columnKinds infers one type per column from its non-nil cells. Columns
// mixing types, or holding only nil, are strings.
func columnKinds(t *models.Table) []cellKind {
	kinds := make([]cellKind, len(t.Columns))
	for j := range t.Columns {
		seen := false
		kind := kindString
		for _, row := range t.Rows {
			if j >= len(row) || row[j] == nil {
				continue
			}
			var k cellKind
			switch row[j].(type) {
			case float64:
				k = kindFloat
			case int:
				k = kindInt
			case bool:
				k = kindBool
			default:
				k = kindString
			}
			switch {
			case !seen:
				kind, seen = k, true
			case kind == k:
			case (kind == kindInt && k == kindFloat) || (kind == kindFloat && k == kindInt):
				kind = kindFloat
			default:
				kind = kindString
			}
		}
		kinds[j] = kind
	}
	return kinds
}

func cell(row []any, j int) any {
	if j < len(row) {
		return row[j]
	}
	return nil
}
