// pkg/model/metadata.go
package model

import "strings"

// ColumnType is the analyst's decision for a column
type ColumnType string

const (
	ColumnUnchanged ColumnType = "unchanged"
	ColumnNumeric   ColumnType = "numeric"
	ColumnBool      ColumnType = "bool"
	ColumnDate      ColumnType = "date"
	ColumnCategory  ColumnType = "category"
	ColumnManual    ColumnType = "manual"
)

// TableMetadata contains the structure information for a cleaned table
type TableMetadata struct {
	Dataset string   // Cache / dataset name
	Table   string   // Table name used by sinks
	Columns []Column // Column definitions in table order
}

// Column represents metadata about a table column
type Column struct {
	Name     string     // Column name
	Type     ColumnType // Analyst's decision
	Kind     Kind       // Dominant cell kind after cleaning
	PgType   string     // Mapped PostgreSQL type
	Nullable bool       // Whether any cell is Missing
}

// GetColumnByName returns a column by name (case-insensitive)
// Returns nil if column not found
func (tm *TableMetadata) GetColumnByName(name string) *Column {
	normalizedName := strings.ToLower(name)
	for i, col := range tm.Columns {
		if strings.ToLower(col.Name) == normalizedName {
			return &tm.Columns[i]
		}
	}
	return nil
}

// SetType records the analyst's decision, adding the column if needed
func (tm *TableMetadata) SetType(name string, typ ColumnType) {
	if col := tm.GetColumnByName(name); col != nil {
		col.Type = typ
		return
	}
	tm.Columns = append(tm.Columns, Column{Name: name, Type: typ})
}

// Remove drops a column's metadata
func (tm *TableMetadata) Remove(name string) {
	normalizedName := strings.ToLower(name)
	for i, col := range tm.Columns {
		if strings.ToLower(col.Name) == normalizedName {
			tm.Columns = append(tm.Columns[:i], tm.Columns[i+1:]...)
			return
		}
	}
}

// DescribeTable derives metadata from the cells of a table. The dominant kind is the
// most frequent non-missing kind; all-missing columns report KindMissing.
func DescribeTable(dataset string, t *Table) *TableMetadata {
	md := &TableMetadata{Dataset: dataset, Table: dataset}
	for _, name := range t.Columns() {
		counts := make(map[Kind]int)
		nullable := false
		for i := 0; i < t.NumRows(); i++ {
			v := t.Get(i, name)
			if v.IsMissing() {
				nullable = true
				continue
			}
			counts[v.Kind()]++
		}

		kind, best := KindMissing, 0
		for _, k := range []Kind{KindNumber, KindText, KindBool, KindDate} {
			if counts[k] > best {
				kind, best = k, counts[k]
			}
		}
		md.Columns = append(md.Columns, Column{
			Name:     name,
			Type:     ColumnUnchanged,
			Kind:     kind,
			Nullable: nullable,
		})
	}
	return md
}

// Merge copies analyst decisions from prev into md for columns present in both
func (tm *TableMetadata) Merge(prev *TableMetadata) {
	if prev == nil {
		return
	}
	for i := range tm.Columns {
		if p := prev.GetColumnByName(tm.Columns[i].Name); p != nil && p.Type != "" {
			tm.Columns[i].Type = p.Type
		}
	}
}
