// Package store owns the on-disk canonical table in an embedded DuckDB
// database. All mutation of the persistent table goes through this adapter.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/redline/redline/pkg/errors"
	"github.com/redline/redline/pkg/model"
)

// createColumns is the fixed column-typed schema of the canonical table.
const createColumns = `(
	ticker VARCHAR NOT NULL,
	timestamp TIMESTAMP NOT NULL,
	open DOUBLE,
	high DOUBLE,
	low DOUBLE,
	close DOUBLE NOT NULL,
	vol DOUBLE,
	openint DOUBLE,
	format VARCHAR
)`

const insertColumns = `(ticker, timestamp, open, high, low, close, vol, openint, format)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

// Store is a DuckDB-backed persistent store. One run, one owner: no
// concurrent writer is assumed.
type Store struct {
	path string
	db   *sql.DB

	mu          sync.Mutex
	rowsWritten int64
}

// Open opens (or creates) the database file at path. An empty path opens an
// in-memory database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeStoreOpen, "cannot open duckdb").
			WithContext("path", path)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, errors.CodeStoreOpen, "cannot open duckdb").
			WithContext("path", path)
	}
	return &Store{path: path, db: db}, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateOrReplace drops any existing table of that name, recreates it with
// the fixed canonical schema, and bulk-loads rows. Called once per
// ingestion run, on the first successful batch.
func (s *Store) CreateOrReplace(ctx context.Context, table string, rows []model.Record) error {
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %q`, table)); err != nil {
		return errors.Wrap(err, errors.CodeStoreCreate, "drop table failed").
			WithContext("table", table)
	}
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf(`CREATE TABLE %q %s`, table, createColumns)); err != nil {
		return errors.Wrap(err, errors.CodeStoreCreate, "create table failed").
			WithContext("table", table)
	}
	return s.insert(ctx, table, rows, errors.CodeStoreCreate)
}

// Append inserts rows into the existing table without altering its schema.
func (s *Store) Append(ctx context.Context, table string, rows []model.Record) error {
	return s.insert(ctx, table, rows, errors.CodeStoreAppend)
}

// insert bulk-loads rows inside one transaction so a batch is persisted as
// a single operation.
func (s *Store) insert(ctx context.Context, table string, rows []model.Record, code errors.Code) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, code, "begin transaction failed").WithContext("table", table)
	}

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`INSERT INTO %q %s`, table, insertColumns))
	if err != nil {
		tx.Rollback()
		return errors.Wrap(err, code, "prepare insert failed").WithContext("table", table)
	}
	defer stmt.Close()

	for _, r := range rows {
		_, err := stmt.ExecContext(ctx,
			r.Ticker, r.Timestamp,
			r.Open, r.High, r.Low, r.Close, r.Vol, r.OpenInt,
			r.Format,
		)
		if err != nil {
			tx.Rollback()
			return errors.Wrap(err, code, "insert row failed").WithContext("table", table)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, code, "commit failed").WithContext("table", table)
	}

	s.mu.Lock()
	s.rowsWritten += int64(len(rows))
	s.mu.Unlock()
	return nil
}

// RowsWritten returns the total rows persisted through this store handle.
func (s *Store) RowsWritten() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rowsWritten
}

// ColumnInfo describes one table column.
type ColumnInfo struct {
	Name string
	Type string
}

// TableInfo is read-only introspection for downstream viewers.
type TableInfo struct {
	Columns  []ColumnInfo
	RowCount int64
}

// Describe returns column metadata and the row count of a table.
func (s *Store) Describe(ctx context.Context, table string) (*TableInfo, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`DESCRIBE %q`, table))
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeStoreQuery, "describe failed").
			WithContext("table", table)
	}
	defer rows.Close()

	info := &TableInfo{}
	for rows.Next() {
		var name, dtype string
		var null, key, dflt, extra interface{}
		if err := rows.Scan(&name, &dtype, &null, &key, &dflt, &extra); err != nil {
			return nil, errors.Wrap(err, errors.CodeStoreQuery, "describe scan failed").
				WithContext("table", table)
		}
		info.Columns = append(info.Columns, ColumnInfo{Name: name, Type: dtype})
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodeStoreQuery, "describe failed").
			WithContext("table", table)
	}

	if err := s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %q`, table)).
		Scan(&info.RowCount); err != nil {
		return nil, errors.Wrap(err, errors.CodeStoreQuery, "count failed").
			WithContext("table", table)
	}
	return info, nil
}

// Records reads back a row range in physical insertion order. Used by
// viewers for windowed scrolling over large tables.
func (s *Store) Records(ctx context.Context, table string, offset, limit int64) ([]model.Record, error) {
	query := fmt.Sprintf(`SELECT ticker, timestamp, open, high, low, close, vol, openint, format
		FROM %q LIMIT ? OFFSET ?`, table)

	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeStoreQuery, "select failed").
			WithContext("table", table)
	}
	defer rows.Close()

	var out []model.Record
	for rows.Next() {
		var r model.Record
		if err := rows.Scan(&r.Ticker, &r.Timestamp,
			&r.Open, &r.High, &r.Low, &r.Close, &r.Vol, &r.OpenInt, &r.Format); err != nil {
			return nil, errors.Wrap(err, errors.CodeStoreQuery, "scan failed").
				WithContext("table", table)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodeStoreQuery, "select failed").
			WithContext("table", table)
	}
	return out, nil
}

// Query runs an arbitrary read query and returns column names plus rows
// rendered as strings. The downstream SQL viewer is its only intended
// caller.
func (s *Store) Query(ctx context.Context, query string, args ...interface{}) ([]string, [][]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.CodeStoreQuery, "query failed")
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.CodeStoreQuery, "query failed")
	}

	var out [][]string
	values := make([]interface{}, len(columns))
	ptrs := make([]interface{}, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, errors.Wrap(err, errors.CodeStoreQuery, "scan failed")
		}
		cells := make([]string, len(columns))
		for i, v := range values {
			if v != nil {
				cells[i] = fmt.Sprintf("%v", v)
			}
		}
		out = append(out, cells)
	}
	return columns, out, rows.Err()
}
