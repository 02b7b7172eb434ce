package writer

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/doctorai/llm-eval/internal/models"

	"github.com/apache/arrow/go/v14/arrow"
	"github.com/apache/arrow/go/v14/arrow/array"
	"github.com/apache/arrow/go/v14/arrow/memory"
	"github.com/apache/arrow/go/v14/parquet"
	"github.com/apache/arrow/go/v14/parquet/pqarrow"
)

// ParquetTableWriter writes one parquet file per table through Arrow.
type ParquetTableWriter struct {
	directory string
	prefix    string
	filenames []string
}

func NewParquetTableWriter(directory, prefix string) *ParquetTableWriter {
	return &ParquetTableWriter{directory: directory, prefix: prefix}
}

func (w *ParquetTableWriter) WriteTable(t *models.Table) error {
	table := arrowTable(t)
	defer table.Release()

	filename := filepath.Join(w.directory, stem(w.prefix, t.Name)+".parquet")
	if err := writeArrowTable(table, filename); err != nil {
		return err
	}
	w.filenames = append(w.filenames, filename)
	return nil
}

func (w *ParquetTableWriter) Close() error {
	return nil
}

func (w *ParquetTableWriter) Filenames() []string {
	return w.filenames
}

// arrowTable converts a result table to an Arrow table with one typed,
// nullable column per result column.
func arrowTable(t *models.Table) arrow.Table {
	kinds := columnKinds(t)
	fields := make([]arrow.Field, len(t.Columns))
	for j, name := range t.Columns {
		fields[j] = arrow.Field{Name: name, Type: arrowType(kinds[j]), Nullable: true}
	}
	schema := arrow.NewSchema(fields, nil)

	mem := memory.DefaultAllocator
	builder := array.NewRecordBuilder(mem, schema)
	defer builder.Release()

	for _, row := range t.Rows {
		for j := range t.Columns {
			appendCell(builder.Field(j), kinds[j], cell(row, j))
		}
	}

	record := builder.NewRecord()
	defer record.Release()

	return array.NewTableFromRecords(schema, []arrow.Record{record})
}

func arrowType(kind cellKind) arrow.DataType {
	switch kind {
	case kindFloat:
		return arrow.PrimitiveTypes.Float64
	case kindInt:
		return arrow.PrimitiveTypes.Int64
	case kindBool:
		return arrow.FixedWidthTypes.Boolean
	default:
		return arrow.BinaryTypes.String
	}
}

func appendCell(b array.Builder, kind cellKind, v any) {
	if v == nil {
		b.AppendNull()
		return
	}
	switch kind {
	case kindFloat:
		switch x := v.(type) {
		case float64:
			b.(*array.Float64Builder).Append(x)
		case int:
			b.(*array.Float64Builder).Append(float64(x))
		}
	case kindInt:
		b.(*array.Int64Builder).Append(int64(v.(int)))
	case kindBool:
		b.(*array.BooleanBuilder).Append(v.(bool))
	default:
		b.(*array.StringBuilder).Append(cellString(v))
	}
}

// writeArrowTable writes an Arrow table to a parquet file.
func writeArrowTable(table arrow.Table, filename string) error {
	outputFile, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer outputFile.Close()

	props := parquet.NewWriterProperties()
	arrowProps := pqarrow.DefaultWriterProps()

	writer, err := pqarrow.NewFileWriter(table.Schema(), outputFile, props, arrowProps)
	if err != nil {
		return fmt.Errorf("failed to create parquet writer: %w", err)
	}

	if err := writer.WriteTable(table, max(table.NumRows(), 1)); err != nil {
		writer.Close()
		return fmt.Errorf("failed to write table: %w", err)
	}
	return writer.Close()
}
