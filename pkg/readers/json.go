package readers

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"os"
	"sort"
	"strconv"

	"github.com/redline/redline/pkg/classify"
	"github.com/redline/redline/pkg/errors"
	"github.com/redline/redline/pkg/model"
)

// JSONReader parses JSON inputs: newline-delimited objects first, then an
// array of objects as fallback.
type JSONReader struct{}

// NewJSONReader creates a JSON reader.
func NewJSONReader() *JSONReader {
	return &JSONReader{}
}

// Formats returns supported formats.
func (r *JSONReader) Formats() []classify.Format {
	return []classify.Format{classify.FormatJSON}
}

// Read parses the file into a RawTable. Columns are the sorted union of
// object keys so output order is deterministic regardless of input order.
func (r *JSONReader) Read(ctx context.Context, path string) (*model.RawTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeFileNotFound, "cannot read file").
			WithContext("path", path)
	}

	objects, err := parseJSONObjects(data)
	if err != nil {
		return nil, errors.ParseError(path, err)
	}

	keys := make(map[string]bool)
	for _, obj := range objects {
		for k := range obj {
			keys[k] = true
		}
	}
	columns := make([]string, 0, len(keys))
	for k := range keys {
		columns = append(columns, k)
	}
	sort.Strings(columns)

	table := model.NewRawTable(columns)
	for _, obj := range objects {
		cells := make([]string, len(columns))
		for i, col := range columns {
			cells[i] = stringifyJSON(obj[col])
		}
		table.AppendRow(cells)
	}
	return table, nil
}

// parseJSONObjects accepts JSONL or a top-level array of objects.
func parseJSONObjects(data []byte) ([]map[string]interface{}, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var objects []map[string]interface{}
		if err := json.Unmarshal(trimmed, &objects); err != nil {
			return nil, err
		}
		return objects, nil
	}

	var objects []map[string]interface{}
	scanner := bufio.NewScanner(bytes.NewReader(trimmed))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var obj map[string]interface{}
		if err := json.Unmarshal(line, &obj); err != nil {
			return nil, err
		}
		objects = append(objects, obj)
	}
	return objects, scanner.Err()
}

// stringifyJSON renders a decoded JSON value as a cell. Structured values
// are re-marshaled; the normalizer nulls them during numeric coercion.
func stringifyJSON(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
