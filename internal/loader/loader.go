package loader

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/doctorai/llm-eval/internal/logger"
	"github.com/doctorai/llm-eval/internal/models"
	"github.com/doctorai/llm-eval/internal/utils"

	"github.com/parquet-go/parquet-go"
	"github.com/xuri/excelize/v2"
)

var ErrNoRatings = errors.New("no usable ratings")

// Options describes the expected layout of a ratings file.
type Options struct {
	// Format overrides the file extension (xlsx, csv, json, parquet).
	Format    string
	Criteria  []string
	Reviewers []string
}

var idColumns = []string{models.FieldRequest, models.FieldModel, models.FieldOrigin, models.FieldDiagnosis}

var longColumns = []string{
	models.FieldRequest, models.FieldModel, models.FieldOrigin, models.FieldDiagnosis,
	models.FieldCriterion, models.FieldReviewer, models.FieldScore,
}

// record is one input row keyed by normalised column name.
type record map[string]any

// LoadRatings reads a ratings file into a long-format dataset. Workbooks hold
// one sheet per criterion with one column per reviewer, unless their first
// sheet is already in long format; csv, json and parquet files are long
// format. Scores that are empty or not numeric are dropped.
func LoadRatings(filename string, opts Options) (*models.Dataset, error) {
	format := opts.Format
	if format == "" {
		format = strings.TrimPrefix(filepath.Ext(filename), ".")
	}

	var (
		records []record
		err     error
	)
	switch strings.ToLower(format) {
	case "xlsx", "xls":
		return loadExcelRatings(filename, opts)
	case "csv":
		records, err = loadCSV(filename)
	case "json":
		records, err = loadJSON(filename)
	case "parquet":
		records, err = loadParquet(filename)
	default:
		return nil, fmt.Errorf("unsupported file format: %s", format)
	}
	if err != nil {
		return nil, err
	}
	return fromLong(filename, records)
}

func loadExcelRatings(filename string, opts Options) (*models.Dataset, error) {
	f, err := excelize.OpenFile(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets found")
	}

	present := make(map[string]bool, len(sheets))
	for _, s := range sheets {
		present[s] = true
	}

	var missing []string
	for _, c := range opts.Criteria {
		if !present[c] {
			missing = append(missing, c)
		}
	}

	if len(missing) > 0 || len(opts.Criteria) == 0 {
		rows, err := f.GetRows(sheets[0])
		if err != nil {
			return nil, err
		}
		if len(rows) > 0 && hasColumns(rows[0], longColumns) {
			return fromLong(filename, rowsToRecords(rows))
		}
		if len(missing) == 0 {
			return nil, fmt.Errorf("no criteria configured and sheet %s is not in long format", sheets[0])
		}
		return nil, fmt.Errorf("missing sheet for criterion: %s", strings.Join(missing, ", "))
	}

	var ratings []models.Rating
	dropped := 0
	for _, criterion := range opts.Criteria {
		rows, err := f.GetRows(criterion)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %s: %w", criterion, err)
		}
		if len(rows) == 0 {
			continue
		}

		required := append(append([]string(nil), idColumns...), opts.Reviewers...)
		if err := requireColumns(rows[0], required); err != nil {
			return nil, fmt.Errorf("sheet %s: %w", criterion, err)
		}

		for _, rec := range rowsToRecords(rows) {
			for _, reviewer := range opts.Reviewers {
				score, ok := toScore(rec[utils.NormalizeLabel(reviewer)])
				if !ok {
					dropped++
					continue
				}
				ratings = append(ratings, models.Rating{
					Request:   toString(rec[utils.NormalizeLabel(models.FieldRequest)]),
					Model:     toString(rec[utils.NormalizeLabel(models.FieldModel)]),
					Origin:    toString(rec[utils.NormalizeLabel(models.FieldOrigin)]),
					Diagnosis: toString(rec[utils.NormalizeLabel(models.FieldDiagnosis)]),
					Criterion: criterion,
					Reviewer:  reviewer,
					Score:     score,
				})
			}
		}
	}

	return finish(filename, ratings, dropped)
}

func fromLong(filename string, records []record) (*models.Dataset, error) {
	if len(records) > 0 {
		for _, col := range longColumns {
			if _, ok := records[0][utils.NormalizeLabel(col)]; !ok {
				return nil, fmt.Errorf("missing required column: %s", col)
			}
		}
	}

	var ratings []models.Rating
	dropped := 0
	for _, rec := range records {
		score, ok := toScore(rec[utils.NormalizeLabel(models.FieldScore)])
		if !ok {
			dropped++
			continue
		}
		ratings = append(ratings, models.Rating{
			Request:   toString(rec[utils.NormalizeLabel(models.FieldRequest)]),
			Model:     toString(rec[utils.NormalizeLabel(models.FieldModel)]),
			Origin:    toString(rec[utils.NormalizeLabel(models.FieldOrigin)]),
			Diagnosis: toString(rec[utils.NormalizeLabel(models.FieldDiagnosis)]),
			Criterion: toString(rec[utils.NormalizeLabel(models.FieldCriterion)]),
			Reviewer:  toString(rec[utils.NormalizeLabel(models.FieldReviewer)]),
			Score:     score,
		})
	}
	return finish(filename, ratings, dropped)
}

func finish(filename string, ratings []models.Rating, dropped int) (*models.Dataset, error) {
	if dropped > 0 {
		logger.Debug("Dropped %d missing or non-numeric scores from %s", dropped, filename)
	}
	if len(ratings) == 0 {
		return nil, fmt.Errorf("%s: %w", filename, ErrNoRatings)
	}
	return models.NewDataset(ratings), nil
}

func hasColumns(header []string, required []string) bool {
	return requireColumns(header, required) == nil
}

func requireColumns(header []string, required []string) error {
	have := make(map[string]bool, len(header))
	for _, h := range header {
		have[utils.NormalizeLabel(h)] = true
	}
	for _, r := range required {
		if !have[utils.NormalizeLabel(r)] {
			return fmt.Errorf("missing required column: %s", r)
		}
	}
	return nil
}

// rowsToRecords treats rows[0] as the header. Rows may be shorter than the
// header; blank rows are skipped.
func rowsToRecords(rows [][]string) []record {
	if len(rows) == 0 {
		return nil
	}
	headers := rows[0]
	var out []record
	for _, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		rec := make(record, len(headers))
		for j, h := range headers {
			if h == "" {
				continue
			}
			if j < len(row) {
				rec[utils.NormalizeLabel(h)] = row[j]
			} else {
				rec[utils.NormalizeLabel(h)] = ""
			}
		}
		out = append(out, rec)
	}
	return out
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func toScore(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case nil:
		return 0, false
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int32:
		f = float64(x)
	case int64:
		f = float64(x)
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func toString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

func loadCSV(filename string) ([]record, error) {
	rows, err := readCSVRows(filename)
	if err != nil {
		return nil, err
	}
	if err := requireColumns(rows[0], longColumns); err != nil {
		return nil, err
	}
	return rowsToRecords(rows), nil
}

// readCSVRows returns every row including the header; the result is never
// empty when err is nil.
func readCSVRows(filename string) ([][]string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("failed to read CSV header: empty file")
	}
	return rows, nil
}

func loadJSON(filename string) ([]record, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var rawData []map[string]any
	if err := json.NewDecoder(file).Decode(&rawData); err != nil {
		return nil, fmt.Errorf("failed to decode JSON: %w", err)
	}

	records := make([]record, 0, len(rawData))
	for _, item := range rawData {
		rec := make(record, len(item))
		for k, v := range item {
			rec[utils.NormalizeLabel(k)] = v
		}
		records = append(records, rec)
	}
	return records, nil
}

func loadParquet(filename string) ([]record, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, err
	}

	pf, err := parquet.OpenFile(file, stat.Size())
	if err != nil {
		return nil, err
	}

	columns := pf.Schema().Columns()

	var records []record
	for _, rowGroup := range pf.RowGroups() {
		group, err := readRowGroup(rowGroup, columns)
		if err != nil {
			return nil, err
		}
		records = append(records, group...)
	}
	return records, nil
}

func readRowGroup(rowGroup parquet.RowGroup, columns [][]string) ([]record, error) {
	rows := rowGroup.Rows()
	defer rows.Close()

	buf := make([]parquet.Row, rowGroup.NumRows())
	n, err := rows.ReadRows(buf)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	records := make([]record, 0, n)
	for _, row := range buf[:n] {
		rec := make(record, len(columns))
		row.Range(func(columnIndex int, columnValues []parquet.Value) bool {
			if columnIndex >= len(columns) || len(columnValues) == 0 {
				return true
			}
			path := columns[columnIndex]
			rec[utils.NormalizeLabel(path[len(path)-1])] = parquetValue(columnValues[0])
			return true
		})
		records = append(records, rec)
	}
	return records, nil
}

func parquetValue(value parquet.Value) any {
	if value.IsNull() {
		return nil
	}
	switch value.Kind() {
	case parquet.Boolean:
		return value.Boolean()
	case parquet.Int32:
		return value.Int32()
	case parquet.Int64:
		return value.Int64()
	case parquet.Float:
		return value.Float()
	case parquet.Double:
		return value.Double()
	case parquet.ByteArray, parquet.FixedLenByteArray:
		return string(value.ByteArray())
	default:
		return value.String()
	}
}
