package model

// RawTable is the single in-memory representation of one parsed source file.
// Cells are held as text: readers stringify typed inputs and use the empty
// string for nulls, so the normalizer never branches on a reader's native
// value types.
type RawTable struct {
	Columns []string
	Rows    [][]string
}

// NewRawTable creates a table with the given column set.
func NewRawTable(columns []string) *RawTable {
	return &RawTable{Columns: columns}
}

// NumRows returns the row count.
func (t *RawTable) NumRows() int {
	return len(t.Rows)
}

// NumCols returns the column count.
func (t *RawTable) NumCols() int {
	return len(t.Columns)
}

// ColumnIndex returns the position of a column, or -1 if absent.
func (t *RawTable) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Cell returns the value at (row, col), or "" when the row is ragged.
func (t *RawTable) Cell(row, col int) string {
	if col < 0 || row < 0 || row >= len(t.Rows) {
		return ""
	}
	cells := t.Rows[row]
	if col >= len(cells) {
		return ""
	}
	return cells[col]
}

// AppendRow adds one row of cells.
func (t *RawTable) AppendRow(cells []string) {
	t.Rows = append(t.Rows, cells)
}
