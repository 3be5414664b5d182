package readers

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/redline/redline/pkg/classify"
	"github.com/redline/redline/pkg/errors"
	"github.com/redline/redline/pkg/model"
)

// CSVReader parses delimited text files, covering both plain CSV and Stooq
// TXT exports. The delimiter is chosen from the header line: tab when tabs
// outnumber commas, comma otherwise.
type CSVReader struct{}

// NewCSVReader creates a delimited-text reader.
func NewCSVReader() *CSVReader {
	return &CSVReader{}
}

// Formats returns supported formats.
func (r *CSVReader) Formats() []classify.Format {
	return []classify.Format{classify.FormatCSV, classify.FormatTXT}
}

// Read parses the file into a RawTable. Ragged rows are tolerated; missing
// trailing cells read back as empty.
func (r *CSVReader) Read(ctx context.Context, path string) (*model.RawTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeFileNotFound, "cannot read file").
			WithContext("path", path)
	}
	return parseDelimited(path, data)
}

func parseDelimited(path string, data []byte) (*model.RawTable, error) {
	data = bytes.TrimPrefix(data, []byte("\ufeff"))

	headerEnd := bytes.IndexByte(data, '\n')
	header := data
	if headerEnd >= 0 {
		header = data[:headerEnd]
	}

	delim := ','
	if bytes.Count(header, []byte("\t")) > bytes.Count(header, []byte(",")) {
		delim = '\t'
	}

	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = delim
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	columns, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			return nil, errors.New(errors.CodeEmptyTable, "file has no header line").
				WithContext("path", path)
		}
		return nil, errors.ParseError(path, err)
	}
	for i, c := range columns {
		columns[i] = strings.TrimSpace(c)
	}

	table := model.NewRawTable(columns)
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.ParseError(path, err)
		}
		table.AppendRow(record)
	}
	return table, nil
}
