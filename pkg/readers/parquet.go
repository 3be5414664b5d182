package readers

import (
	"context"

	"github.com/apache/arrow/go/v14/arrow"
	"github.com/apache/arrow/go/v14/arrow/memory"
	"github.com/apache/arrow/go/v14/parquet/file"
	"github.com/apache/arrow/go/v14/parquet/pqarrow"

	"github.com/redline/redline/pkg/classify"
	"github.com/redline/redline/pkg/errors"
	"github.com/redline/redline/pkg/model"
)

// ParquetReader reads Parquet files through the Arrow bridge.
type ParquetReader struct {
	alloc memory.Allocator
}

// NewParquetReader creates a Parquet reader.
func NewParquetReader() *ParquetReader {
	return &ParquetReader{alloc: memory.DefaultAllocator}
}

// Formats returns supported formats.
func (r *ParquetReader) Formats() []classify.Format {
	return []classify.Format{classify.FormatParquet}
}

// Read loads the whole file as one Arrow table and flattens it into a
// RawTable.
func (r *ParquetReader) Read(ctx context.Context, path string) (*model.RawTable, error) {
	pf, err := file.OpenParquetFile(path, false)
	if err != nil {
		return nil, errors.ParseError(path, err)
	}
	defer pf.Close()

	arrowReader, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{}, r.alloc)
	if err != nil {
		return nil, errors.ParseError(path, err)
	}

	tbl, err := arrowReader.ReadTable(ctx)
	if err != nil {
		return nil, errors.ParseError(path, err)
	}
	defer tbl.Release()

	return arrowTableToRaw(tbl), nil
}

// arrowTableToRaw stringifies an Arrow table column by column. Nulls become
// empty cells.
func arrowTableToRaw(tbl arrow.Table) *model.RawTable {
	columns := make([]string, tbl.NumCols())
	for i := range columns {
		columns[i] = tbl.Schema().Field(i).Name
	}

	table := model.NewRawTable(columns)
	table.Rows = make([][]string, tbl.NumRows())
	for i := range table.Rows {
		table.Rows[i] = make([]string, tbl.NumCols())
	}

	for c := 0; c < int(tbl.NumCols()); c++ {
		row := 0
		chunked := tbl.Column(c).Data()
		for _, chunk := range chunked.Chunks() {
			for i := 0; i < chunk.Len(); i++ {
				if chunk.IsValid(i) {
					table.Rows[row][c] = chunk.ValueStr(i)
				}
				row++
			}
		}
	}
	return table
}
