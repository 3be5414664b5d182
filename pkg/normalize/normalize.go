// Package normalize maps arbitrary parsed tables onto the canonical record
// schema: column renaming, timestamp assembly, numeric coercion and row
// validation.
package normalize

import (
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/redline/redline/pkg/classify"
	"github.com/redline/redline/pkg/errors"
	"github.com/redline/redline/pkg/model"
)

// stooqLayout is the exact layout for a combined DATE+TIME field.
const stooqLayout = "20060102150405"

// genericLayouts are tried in order for timestamps in non-Stooq inputs.
var genericLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// Result carries the normalized rows plus drop statistics. Dropped rows are
// statistical, not errors: bad cells are nulled and then filtered.
type Result struct {
	Records     []model.Record
	RowsIn      int
	RowsDropped int
}

// Normalizer converts RawTables into canonical records under a validation
// policy.
type Normalizer struct {
	policy Policy

	// minYear/maxYear bound the DATE field of Stooq rows; dates outside the
	// range null the timestamp.
	minYear int
	maxYear int
}

// New creates a normalizer with the given policy.
func New(policy Policy) *Normalizer {
	return &Normalizer{
		policy:  policy,
		minYear: 1900,
		maxYear: time.Now().Year(),
	}
}

// Policy returns the validation policy.
func (n *Normalizer) Policy() Policy {
	return n.policy
}

// Normalize maps a raw table onto canonical records. Stooq (txt) input gets
// the bracketed-header treatment: column renaming and DATE+TIME assembly.
// All inputs get numeric coercion, canonical projection and row validation.
// A table with no columns cannot be normalized and yields a format error;
// individual bad cells are nulled, never raised.
func (n *Normalizer) Normalize(table *model.RawTable, format classify.Format) (*Result, error) {
	if table == nil || table.NumCols() == 0 {
		return nil, errors.New(errors.CodeEmptyTable, "table has no columns")
	}

	var idx columnIndex
	if format == classify.FormatTXT {
		idx = stooqIndex(table.Columns)
	} else {
		idx = genericIndex(table.Columns)
	}

	res := &Result{RowsIn: table.NumRows()}
	for row := 0; row < table.NumRows(); row++ {
		rec := n.buildRecord(table, row, idx, format)
		if n.keep(rec) {
			res.Records = append(res.Records, rec)
		} else {
			res.RowsDropped++
		}
	}
	return res, nil
}

// columnIndex maps canonical fields to source column positions (-1 absent).
type columnIndex struct {
	ticker    int
	timestamp int
	date      int
	timeOfDay int
	open      int
	high      int
	low       int
	close     int
	vol       int
	openint   int
	format    int
}

func emptyIndex() columnIndex {
	return columnIndex{
		ticker: -1, timestamp: -1, date: -1, timeOfDay: -1,
		open: -1, high: -1, low: -1, close: -1, vol: -1, openint: -1, format: -1,
	}
}

// stooqIndex resolves Stooq bracketed headers. Column names are stripped of
// byte-order marks, whitespace and angle brackets, then compared uppercase.
// PER is recognized and dropped.
func stooqIndex(columns []string) columnIndex {
	idx := emptyIndex()
	for i, c := range columns {
		name := strings.TrimPrefix(strings.TrimSpace(c), "\ufeff")
		name = strings.ToUpper(strings.TrimSpace(strings.Trim(name, "<>")))
		switch name {
		case "TICKER":
			idx.ticker = i
		case "DATE":
			idx.date = i
		case "TIME":
			idx.timeOfDay = i
		case "OPEN":
			idx.open = i
		case "HIGH":
			idx.high = i
		case "LOW":
			idx.low = i
		case "CLOSE":
			idx.close = i
		case "VOL":
			idx.vol = i
		case "OPENINT":
			idx.openint = i
		case "PER":
			// period column, not part of the canonical schema
		}
	}
	return idx
}

// genericIndex resolves canonical column names case-insensitively.
func genericIndex(columns []string) columnIndex {
	idx := emptyIndex()
	for i, c := range columns {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(c, "\ufeff"))) {
		case "ticker":
			idx.ticker = i
		case "timestamp":
			idx.timestamp = i
		case "date":
			idx.date = i
		case "time":
			idx.timeOfDay = i
		case "open":
			idx.open = i
		case "high":
			idx.high = i
		case "low":
			idx.low = i
		case "close":
			idx.close = i
		case "vol", "volume":
			idx.vol = i
		case "openint":
			idx.openint = i
		case "format":
			idx.format = i
		}
	}
	return idx
}

// buildRecord assembles one canonical record from a raw row. Absent columns
// read back as nulls; unparseable cells become nulls.
func (n *Normalizer) buildRecord(table *model.RawTable, row int, idx columnIndex, format classify.Format) model.Record {
	rec := model.Record{
		Ticker:  strings.TrimSpace(cell(table, row, idx.ticker)),
		Open:    parseFloat(cell(table, row, idx.open)),
		High:    parseFloat(cell(table, row, idx.high)),
		Low:     parseFloat(cell(table, row, idx.low)),
		Close:   parseFloat(cell(table, row, idx.close)),
		Vol:     parseFloat(cell(table, row, idx.vol)),
		OpenInt: parseFloat(cell(table, row, idx.openint)),
		Format:  format.String(),
	}

	if tag := strings.TrimSpace(cell(table, row, idx.format)); tag != "" {
		rec.Format = tag
	}

	switch {
	case idx.date >= 0 && idx.timeOfDay >= 0:
		rec.Timestamp = n.combineDateTime(cell(table, row, idx.date), cell(table, row, idx.timeOfDay))
	case idx.timestamp >= 0:
		rec.Timestamp = parseGenericTime(cell(table, row, idx.timestamp))
	case idx.date >= 0:
		rec.Timestamp = n.combineDateTime(cell(table, row, idx.date), "0")
	}
	return rec
}

// combineDateTime joins a YYYYMMDD date with a zero-padded 6-digit HHMMSS
// time and parses the pair with the exact Stooq layout. Any failure, or a
// date whose year falls outside the accepted range, yields a zero (null)
// timestamp.
func (n *Normalizer) combineDateTime(date, timeOfDay string) time.Time {
	date = strings.TrimSpace(date)
	timeOfDay = strings.TrimSpace(timeOfDay)
	if len(date) != 8 {
		return time.Time{}
	}

	year, err := strconv.Atoi(date[:4])
	if err != nil || year < n.minYear || year > n.maxYear {
		return time.Time{}
	}

	if len(timeOfDay) > 6 {
		return time.Time{}
	}
	padded := strings.Repeat("0", 6-len(timeOfDay)) + timeOfDay

	ts, err := time.Parse(stooqLayout, date+padded)
	if err != nil {
		return time.Time{}
	}
	return ts
}

// parseGenericTime tries the known layouts; failures yield a zero (null)
// timestamp.
func parseGenericTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range genericLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts
		}
	}
	return time.Time{}
}

// parseFloat coerces a cell to float64. Non-numeric and structured values
// become null rather than raising.
func parseFloat(s string) sql.NullFloat64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return sql.NullFloat64{}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: f, Valid: true}
}

// keep applies the validation policy. Ticker, timestamp and close are
// required under every policy; PolicyPrices additionally requires open,
// high and low.
func (n *Normalizer) keep(rec model.Record) bool {
	if !rec.HasRequired() {
		return false
	}
	if n.policy == PolicyPrices {
		return rec.Open.Valid && rec.High.Valid && rec.Low.Valid
	}
	return true
}

func cell(table *model.RawTable, row, col int) string {
	return table.Cell(row, col)
}
