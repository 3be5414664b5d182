package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/redline/redline/pkg/errors"
	"github.com/redline/redline/pkg/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "test.duckdb"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func record(ticker string, ts time.Time, close float64) model.Record {
	return model.Record{
		Ticker:    ticker,
		Timestamp: ts,
		Open:      sql.NullFloat64{Float64: close - 1, Valid: true},
		High:      sql.NullFloat64{Float64: close + 1, Valid: true},
		Low:       sql.NullFloat64{Float64: close - 2, Valid: true},
		Close:     sql.NullFloat64{Float64: close, Valid: true},
		Vol:       sql.NullFloat64{Float64: 1000, Valid: true},
		Format:    "txt",
	}
}

func TestStore_CreateAppendDescribe(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	ts := time.Date(2023, 1, 15, 9, 30, 0, 0, time.UTC)

	if err := st.CreateOrReplace(ctx, model.TableName, []model.Record{
		record("AAPL.US", ts, 131.2),
		record("MSFT.US", ts, 240.1),
	}); err != nil {
		t.Fatalf("CreateOrReplace: %v", err)
	}
	if err := st.Append(ctx, model.TableName, []model.Record{
		record("GOOG.US", ts, 99.9),
	}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	info, err := st.Describe(ctx, model.TableName)
	if err != nil {
		t.Fatalf("Describe: %v", err)
	}
	if info.RowCount != 3 {
		t.Errorf("RowCount = %d, want 3", info.RowCount)
	}
	if len(info.Columns) != len(model.Schema) {
		t.Fatalf("got %d columns, want %d", len(info.Columns), len(model.Schema))
	}
	for i, col := range model.Schema {
		if info.Columns[i].Name != col {
			t.Errorf("column %d = %q, want %q", i, info.Columns[i].Name, col)
		}
	}
	if st.RowsWritten() != 3 {
		t.Errorf("RowsWritten = %d, want 3", st.RowsWritten())
	}
}

func TestStore_CreateOrReplaceDropsOldRows(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	ts := time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC)

	if err := st.CreateOrReplace(ctx, model.TableName, []model.Record{record("OLD.US", ts, 1)}); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if err := st.CreateOrReplace(ctx, model.TableName, []model.Record{record("NEW.US", ts, 2)}); err != nil {
		t.Fatalf("second create: %v", err)
	}

	got, err := st.Records(ctx, model.TableName, 0, 10)
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	if len(got) != 1 || got[0].Ticker != "NEW.US" {
		t.Errorf("records = %+v, want only NEW.US", got)
	}
}

func TestStore_NullsRoundtrip(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	r := model.Record{
		Ticker:    "X.US",
		Timestamp: time.Date(2023, 1, 15, 9, 30, 0, 0, time.UTC),
		Close:     sql.NullFloat64{Float64: 1.5, Valid: true},
		Format:    "json",
	}
	if err := st.CreateOrReplace(ctx, model.TableName, []model.Record{r}); err != nil {
		t.Fatalf("CreateOrReplace: %v", err)
	}

	got, err := st.Records(ctx, model.TableName, 0, 1)
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d records, want 1", len(got))
	}
	if got[0].Open.Valid || got[0].Vol.Valid {
		t.Errorf("null columns came back non-null: %+v", got[0])
	}
	if !got[0].Close.Valid || got[0].Close.Float64 != 1.5 {
		t.Errorf("close = %+v, want 1.5", got[0].Close)
	}
	if got[0].Format != "json" {
		t.Errorf("format = %q, want json", got[0].Format)
	}
}

func TestStore_RecordsWindow(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	ts := time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC)

	var rows []model.Record
	for i := 0; i < 5; i++ {
		rows = append(rows, record(string(rune('A'+i))+".US", ts, float64(i)))
	}
	if err := st.CreateOrReplace(ctx, model.TableName, rows); err != nil {
		t.Fatalf("CreateOrReplace: %v", err)
	}

	got, err := st.Records(ctx, model.TableName, 2, 2)
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	if len(got) != 2 || got[0].Ticker != "C.US" || got[1].Ticker != "D.US" {
		t.Errorf("window = %+v, want [C.US D.US]", got)
	}
}

func TestStore_Query(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	ts := time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC)

	if err := st.CreateOrReplace(ctx, model.TableName, []model.Record{
		record("AAPL.US", ts, 131.2),
		record("AAPL.US", ts.AddDate(0, 0, 1), 132.0),
		record("MSFT.US", ts, 240.1),
	}); err != nil {
		t.Fatalf("CreateOrReplace: %v", err)
	}

	cols, rows, err := st.Query(ctx,
		`SELECT ticker, COUNT(*) AS n FROM tickers_data GROUP BY ticker ORDER BY ticker`)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(cols) != 2 || cols[0] != "ticker" || cols[1] != "n" {
		t.Errorf("columns = %v", cols)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0][0] != "AAPL.US" || rows[0][1] != "2" {
		t.Errorf("row 0 = %v, want [AAPL.US 2]", rows[0])
	}
}

func TestStore_AppendMissingTable(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	err := st.Append(ctx, "no_such_table", []model.Record{
		record("X.US", time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC), 1),
	})
	if !errors.IsCode(err, errors.CodeStoreAppend) {
		t.Errorf("error = %v, want %s", err, errors.CodeStoreAppend)
	}
}

func TestStore_EmptyInsertIsNoop(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	if err := st.CreateOrReplace(ctx, model.TableName, nil); err != nil {
		t.Fatalf("CreateOrReplace: %v", err)
	}
	info, err := st.Describe(ctx, model.TableName)
	if err != nil {
		t.Fatalf("Describe: %v", err)
	}
	if info.RowCount != 0 {
		t.Errorf("RowCount = %d, want 0", info.RowCount)
	}
	if st.RowsWritten() != 0 {
		t.Errorf("RowsWritten = %d, want 0", st.RowsWritten())
	}
}
