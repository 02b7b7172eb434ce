package writer

import (
	"database/sql"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/doctorai/llm-eval/internal/models"

	_ "modernc.org/sqlite"
)

// SQLiteTableWriter writes every table of a run into one database, one SQL
// table per result table, plus a run table with the run metadata.
type SQLiteTableWriter struct {
	filename string
	db       *sql.DB
}

func NewSQLiteTableWriter(directory, prefix string, manifest *models.Manifest) (*SQLiteTableWriter, error) {
	filename := filepath.Join(directory, stem(prefix, "results")+".db")
	db, err := sql.Open("sqlite", filename+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}

	w := &SQLiteTableWriter{filename: filename, db: db}
	if manifest != nil {
		if err := w.writeRun(manifest); err != nil {
			db.Close()
			return nil, err
		}
	}
	return w, nil
}

func (w *SQLiteTableWriter) writeRun(m *models.Manifest) error {
	schema := `
	DROP TABLE IF EXISTS run;
	CREATE TABLE run (
		run_id TEXT PRIMARY KEY,
		input_file TEXT NOT NULL,
		started_at TEXT NOT NULL,
		duration_ms INTEGER NOT NULL,
		ratings INTEGER NOT NULL,
		bootstrap_draws INTEGER NOT NULL,
		confidence_level REAL NOT NULL,
		seed INTEGER,
		analyses TEXT NOT NULL
	);`
	if _, err := w.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create run table: %w", err)
	}

	var seed any
	if m.Seed != nil {
		seed = int64(*m.Seed)
	}
	_, err := w.db.Exec(`INSERT INTO run VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.RunID, m.InputFile, m.StartedAt.Format(time.RFC3339), m.Duration.Milliseconds(),
		m.Ratings, m.Draws, m.Level, seed, strings.Join(m.Analyses, ","))
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

func (w *SQLiteTableWriter) WriteTable(t *models.Table) error {
	kinds := columnKinds(t)
	name := quoteIdent(t.Name)

	defs := make([]string, len(t.Columns))
	for j, col := range t.Columns {
		defs[j] = quoteIdent(col) + " " + sqlType(kinds[j])
	}

	tx, err := w.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DROP TABLE IF EXISTS " + name); err != nil {
		return err
	}
	if _, err := tx.Exec(fmt.Sprintf("CREATE TABLE %s (%s)", name, strings.Join(defs, ", "))); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	if len(t.Columns) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(t.Columns)), ", ")
		stmt, err := tx.Prepare(fmt.Sprintf("INSERT INTO %s VALUES (%s)", name, placeholders))
		if err != nil {
			return err
		}
		defer stmt.Close()

		args := make([]any, len(t.Columns))
		for _, row := range t.Rows {
			for j := range t.Columns {
				args[j] = sqlValue(cell(row, j))
			}
			if _, err := stmt.Exec(args...); err != nil {
				return fmt.Errorf("failed to insert row: %w", err)
			}
		}
	}

	return tx.Commit()
}

func (w *SQLiteTableWriter) Close() error {
	return w.db.Close()
}

func (w *SQLiteTableWriter) Filenames() []string {
	return []string{w.filename}
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func sqlType(kind cellKind) string {
	switch kind {
	case kindFloat:
		return "REAL"
	case kindInt, kindBool:
		return "INTEGER"
	default:
		return "TEXT"
	}
}

// sqlValue maps non-finite floats to NULL; SQLite has no NaN.
func sqlValue(v any) any {
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil
		}
	case string, int, bool, nil:
	default:
		return cellString(x)
	}
	return v
}
