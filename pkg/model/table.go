// pkg/model/table.go
package model

import (
	"encoding/json"
	"fmt"
)

// Table is an in-memory table with ordered columns and typed cells
type Table struct {
	Name    string // Tag assigned by partitioning; empty for the root table
	columns []string
	index   map[string]int
	rows    [][]Value
}

// NewTable creates an empty table with the given column order
func NewTable(columns ...string) *Table {
	t := &Table{
		columns: make([]string, 0, len(columns)),
		index:   make(map[string]int, len(columns)),
	}
	for _, c := range columns {
		if _, dup := t.index[c]; dup {
			continue
		}
		t.index[c] = len(t.columns)
		t.columns = append(t.columns, c)
	}
	return t
}

// Columns returns a copy of the column names in order
func (t *Table) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

func (t *Table) NumRows() int { return len(t.rows) }
func (t *Table) NumCols() int { return len(t.columns) }

// HasColumn reports whether the column exists
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// MustHave returns ErrColumnNotFound for the first absent column
func (t *Table) MustHave(names ...string) error {
	for _, n := range names {
		if !t.HasColumn(n) {
			return fmt.Errorf("%w: %s", ErrColumnNotFound, n)
		}
	}
	return nil
}

// AppendRow appends a row; its width must match the column count
func (t *Table) AppendRow(values []Value) error {
	if len(values) != len(t.columns) {
		return fmt.Errorf("%w: row has %d values, table has %d columns",
			ErrInvalidInput, len(values), len(t.columns))
	}
	row := make([]Value, len(values))
	copy(row, values)
	t.rows = append(t.rows, row)
	return nil
}

// Row returns a copy of row i
func (t *Table) Row(i int) []Value {
	out := make([]Value, len(t.rows[i]))
	copy(out, t.rows[i])
	return out
}

// Get returns the cell at row i of the named column; absent columns read as Missing
func (t *Table) Get(i int, column string) Value {
	idx, ok := t.index[column]
	if !ok {
		return Missing()
	}
	return t.rows[i][idx]
}

// Set replaces the cell at row i of the named column
func (t *Table) Set(i int, column string, v Value) error {
	idx, ok := t.index[column]
	if !ok {
		return fmt.Errorf("%w: %s", ErrColumnNotFound, column)
	}
	if i < 0 || i >= len(t.rows) {
		return fmt.Errorf("%w: row %d out of range", ErrInvalidInput, i)
	}
	t.rows[i][idx] = v
	return nil
}

// Column returns a copy of the named column's cells
func (t *Table) Column(name string) ([]Value, error) {
	idx, ok := t.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrColumnNotFound, name)
	}
	out := make([]Value, len(t.rows))
	for i, row := range t.rows {
		out[i] = row[idx]
	}
	return out, nil
}

// SetColumn replaces a column's cells, adding the column at the end if absent
func (t *Table) SetColumn(name string, values []Value) error {
	if len(values) != len(t.rows) {
		return fmt.Errorf("%w: column %s has %d values, table has %d rows",
			ErrInvalidInput, name, len(values), len(t.rows))
	}
	t.AddColumn(name, Missing())
	idx := t.index[name]
	for i := range t.rows {
		t.rows[i][idx] = values[i]
	}
	return nil
}

// AddColumn appends a column filled with fill. Existing columns are left untouched.
func (t *Table) AddColumn(name string, fill Value) {
	if t.HasColumn(name) {
		return
	}
	t.index[name] = len(t.columns)
	t.columns = append(t.columns, name)
	for i := range t.rows {
		t.rows[i] = append(t.rows[i], fill)
	}
}

// DropColumn removes a column
func (t *Table) DropColumn(name string) error {
	idx, ok := t.index[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrColumnNotFound, name)
	}

	t.columns = append(t.columns[:idx], t.columns[idx+1:]...)
	for i, row := range t.rows {
		t.rows[i] = append(row[:idx], row[idx+1:]...)
	}
	t.reindex()
	return nil
}

func (t *Table) reindex() {
	t.index = make(map[string]int, len(t.columns))
	for i, c := range t.columns {
		t.index[c] = i
	}
}

// Distinct returns the distinct values of a column in first-seen order.
// Missing counts as one distinct value.
func (t *Table) Distinct(name string) ([]Value, error) {
	idx, ok := t.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrColumnNotFound, name)
	}

	seen := make(map[string]struct{})
	var out []Value
	for _, row := range t.rows {
		k := row[idx].Key()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, row[idx])
	}
	return out, nil
}

// HasMissing reports whether any cell of the column is Missing
func (t *Table) HasMissing(name string) bool {
	idx, ok := t.index[name]
	if !ok {
		return false
	}
	for _, row := range t.rows {
		if row[idx].IsMissing() {
			return true
		}
	}
	return false
}

// AllMissing reports whether every cell of the column is Missing
func (t *Table) AllMissing(name string) bool {
	idx, ok := t.index[name]
	if !ok {
		return false
	}
	for _, row := range t.rows {
		if !row[idx].IsMissing() {
			return false
		}
	}
	return true
}

// Clone returns a deep copy
func (t *Table) Clone() *Table {
	c := NewTable(t.columns...)
	c.Name = t.Name
	c.rows = make([][]Value, len(t.rows))
	for i, row := range t.rows {
		c.rows[i] = make([]Value, len(row))
		copy(c.rows[i], row)
	}
	return c
}

// Subset returns a new table holding the given rows, in the given order
func (t *Table) Subset(rows []int) *Table {
	s := NewTable(t.columns...)
	s.Name = t.Name
	s.rows = make([][]Value, 0, len(rows))
	for _, i := range rows {
		row := make([]Value, len(t.rows[i]))
		copy(row, t.rows[i])
		s.rows = append(s.rows, row)
	}
	return s
}

// Filter returns the rows for which keep returns true
func (t *Table) Filter(keep func(i int) bool) *Table {
	var rows []int
	for i := range t.rows {
		if keep(i) {
			rows = append(rows, i)
		}
	}
	return t.Subset(rows)
}

// DropMissing returns the rows that have no Missing cell in any of the columns
func (t *Table) DropMissing(columns ...string) *Table {
	return t.Filter(func(i int) bool {
		for _, c := range columns {
			if t.Get(i, c).IsMissing() {
				return false
			}
		}
		return true
	})
}

// Concat stacks tables with identical column order
func Concat(tables ...*Table) (*Table, error) {
	if len(tables) == 0 {
		return nil, fmt.Errorf("%w: nothing to concatenate", ErrInvalidInput)
	}

	out := NewTable(tables[0].columns...)
	for _, t := range tables {
		if len(t.columns) != len(out.columns) {
			return nil, fmt.Errorf("%w: column count mismatch", ErrInvalidInput)
		}
		for i, c := range t.columns {
			if out.columns[i] != c {
				return nil, fmt.Errorf("%w: column %q does not match %q", ErrInvalidInput, c, out.columns[i])
			}
		}
		for _, row := range t.rows {
			if err := out.AppendRow(row); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

type tableJSON struct {
	Name    string    `json:"name,omitempty"`
	Columns []string  `json:"columns"`
	Rows    [][]Value `json:"rows"`
}

// MarshalJSON serializes the table with typed cells
func (t *Table) MarshalJSON() ([]byte, error) {
	rows := t.rows
	if rows == nil {
		rows = [][]Value{}
	}
	return json.Marshal(tableJSON{Name: t.Name, Columns: t.columns, Rows: rows})
}

// UnmarshalJSON restores a table written by MarshalJSON
func (t *Table) UnmarshalJSON(data []byte) error {
	var in tableJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	restored := NewTable(in.Columns...)
	if len(restored.columns) != len(in.Columns) {
		return fmt.Errorf("%w: duplicate column names", ErrInvalidInput)
	}
	restored.Name = in.Name
	for _, row := range in.Rows {
		if err := restored.AppendRow(row); err != nil {
			return err
		}
	}
	*t = *restored
	return nil
}
