// Package model defines the canonical row schema shared by every stage of
// the ingestion pipeline.
package model

import (
	"database/sql"
	"time"
)

// Schema is the canonical column set, in persisted order.
var Schema = []string{
	"ticker", "timestamp", "open", "high", "low", "close", "vol", "openint", "format",
}

// NumericColumns are the canonical columns coerced to float64.
var NumericColumns = []string{"open", "high", "low", "close", "vol", "openint"}

// TableName is the canonical persistent table.
const TableName = "tickers_data"

// Record is one normalized row. Ticker, Timestamp and Close are required in
// any persisted record; the remaining numeric columns are nullable.
type Record struct {
	Ticker    string
	Timestamp time.Time
	Open      sql.NullFloat64
	High      sql.NullFloat64
	Low       sql.NullFloat64
	Close     sql.NullFloat64
	Vol       sql.NullFloat64
	OpenInt   sql.NullFloat64
	Format    string
}

// HasRequired reports whether the record satisfies the non-null invariant
// for persisted rows.
func (r Record) HasRequired() bool {
	return r.Ticker != "" && !r.Timestamp.IsZero() && r.Close.Valid
}
