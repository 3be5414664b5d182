package readers

import (
	"context"
	"io"
	"os"

	"github.com/apache/arrow/go/v14/arrow"
	"github.com/apache/arrow/go/v14/arrow/ipc"
	"github.com/apache/arrow/go/v14/arrow/memory"

	"github.com/redline/redline/pkg/classify"
	"github.com/redline/redline/pkg/errors"
	"github.com/redline/redline/pkg/model"
)

// FeatherReader reads Feather (Arrow IPC file) inputs.
type FeatherReader struct {
	alloc memory.Allocator
}

// NewFeatherReader creates a Feather reader.
func NewFeatherReader() *FeatherReader {
	return &FeatherReader{alloc: memory.DefaultAllocator}
}

// Formats returns supported formats.
func (r *FeatherReader) Formats() []classify.Format {
	return []classify.Format{classify.FormatFeather}
}

// Read flattens every record batch in the IPC file into one RawTable.
func (r *FeatherReader) Read(ctx context.Context, path string) (*model.RawTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeFileNotFound, "cannot open file").
			WithContext("path", path)
	}
	defer f.Close()

	reader, err := ipc.NewFileReader(f, ipc.WithAllocator(r.alloc))
	if err != nil {
		return nil, errors.ParseError(path, err)
	}
	defer reader.Close()

	schema := reader.Schema()
	columns := make([]string, len(schema.Fields()))
	for i, field := range schema.Fields() {
		columns[i] = field.Name
	}

	table := model.NewRawTable(columns)
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.ParseError(path, err)
		}
		appendRecordRows(table, rec)
	}
	return table, nil
}

// appendRecordRows stringifies one Arrow record into table rows.
func appendRecordRows(table *model.RawTable, rec arrow.Record) {
	cols := rec.Columns()
	for i := 0; i < int(rec.NumRows()); i++ {
		cells := make([]string, len(cols))
		for c, arr := range cols {
			if arr.IsValid(i) {
				cells[c] = arr.ValueStr(i)
			}
		}
		table.AppendRow(cells)
	}
}
