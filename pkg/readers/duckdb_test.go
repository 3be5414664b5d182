package readers

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/redline/redline/pkg/errors"
	"github.com/redline/redline/pkg/model"
)

func createFixtureDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "source.duckdb")

	db, err := sql.Open("duckdb", path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	stmts := []string{
		`CREATE TABLE tickers_data (ticker VARCHAR, timestamp TIMESTAMP, close DOUBLE)`,
		`INSERT INTO tickers_data VALUES
			('AAPL.US', '2023-01-15 09:30:00', 131.2),
			('MSFT.US', '2023-01-15 09:30:00', NULL)`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			t.Fatal(err)
		}
	}
	return path
}

func TestDuckDBReader_Read(t *testing.T) {
	path := createFixtureDB(t)

	table, err := NewDuckDBReader(model.TableName).Read(context.Background(), path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	if table.NumRows() != 2 {
		t.Fatalf("rows = %d, want 2", table.NumRows())
	}
	if got := table.Columns; got[0] != "ticker" || got[1] != "timestamp" || got[2] != "close" {
		t.Errorf("columns = %v", got)
	}
	if got := table.Cell(0, 1); got != "2023-01-15 09:30:00" {
		t.Errorf("timestamp cell = %q", got)
	}
	if got := table.Cell(0, 2); got != "131.2" {
		t.Errorf("close cell = %q, want 131.2", got)
	}
	if got := table.Cell(1, 2); got != "" {
		t.Errorf("null close = %q, want empty cell", got)
	}
}

func TestDuckDBReader_MissingTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.duckdb")
	db, err := sql.Open("duckdb", path)
	if err != nil {
		t.Fatal(err)
	}
	if err := db.Ping(); err != nil {
		t.Fatal(err)
	}
	db.Close()

	_, err = NewDuckDBReader(model.TableName).Read(context.Background(), path)
	if !errors.IsCode(err, errors.CodeParseFailed) {
		t.Errorf("error = %v, want %s", err, errors.CodeParseFailed)
	}
}
