package readers

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/redline/redline/pkg/classify"
	"github.com/redline/redline/pkg/errors"
	"github.com/redline/redline/pkg/model"
)

// DuckDBReader reads the canonical table out of a foreign .duckdb file.
type DuckDBReader struct {
	tableName string
}

// NewDuckDBReader creates a reader that selects from tableName.
func NewDuckDBReader(tableName string) *DuckDBReader {
	return &DuckDBReader{tableName: tableName}
}

// Formats returns supported formats.
func (r *DuckDBReader) Formats() []classify.Format {
	return []classify.Format{classify.FormatDuckDB}
}

// Read opens the database read-only and materializes the table.
func (r *DuckDBReader) Read(ctx context.Context, path string) (*model.RawTable, error) {
	db, err := sql.Open("duckdb", path+"?access_mode=read_only")
	if err != nil {
		return nil, errors.ParseError(path, err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, fmt.Sprintf(`SELECT * FROM %q`, r.tableName))
	if err != nil {
		return nil, errors.ParseError(path, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, errors.ParseError(path, err)
	}

	table := model.NewRawTable(columns)
	values := make([]interface{}, len(columns))
	ptrs := make([]interface{}, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, errors.ParseError(path, err)
		}
		cells := make([]string, len(columns))
		for i, v := range values {
			cells[i] = stringifySQL(v)
		}
		table.AppendRow(cells)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.ParseError(path, err)
	}
	return table, nil
}

// stringifySQL renders a scanned database value as a cell.
func stringifySQL(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	case time.Time:
		return val.Format("2006-01-02 15:04:05")
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'g', -1, 32)
	case int64:
		return strconv.FormatInt(val, 10)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
