package database

// Column describes one result column as the store declared it.
type Column struct {
	Name     string `json:"name"`     // Column name as returned by the driver
	DeclType string `json:"declType"` // Declared type, upper-cased ("REAL", "DATETIME", ...); empty when unknown
}

// Table is an in-memory copy of a whole SQL table. Rows keep the order the
// store returned them in and every row has len(Columns) cells.
type Table struct {
	Name    string   `json:"name"`
	Columns []Column `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// ColumnIndex returns the position of the named column or -1.
func (t *Table) ColumnIndex(name string) int {
	if t == nil {
		return -1
	}
	for i, c := range t.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Value returns the cell at (row, column name). ok is false when the
// column does not exist or the row is out of range.
func (t *Table) Value(row int, column string) (any, bool) {
	idx := t.ColumnIndex(column)
	if idx < 0 || row < 0 || row >= t.Len() {
		return nil, false
	}
	return t.Rows[row][idx], true
}

// Clone copies the table so callers can rewrite cells without touching the
// original. Byte slices are shared; nothing in the pipeline mutates them.
func (t *Table) Clone() *Table {
	if t == nil {
		return nil
	}
	out := &Table{
		Name:    t.Name,
		Columns: append([]Column(nil), t.Columns...),
		Rows:    make([][]any, len(t.Rows)),
	}
	for i, row := range t.Rows {
		out.Rows[i] = append([]any(nil), row...)
	}
	return out
}
