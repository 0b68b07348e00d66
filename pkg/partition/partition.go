// Package partition splits a table into one sub-table per distinct value of a column.
package partition

import (
	"fmt"

	"github.com/David-Botos/prtr-cleaner/pkg/model"
)

// GroupBy returns one sub-table per distinct value of column, in the order the values
// are first encountered, together with those values. Rows keep their relative order.
//
// When tag is true each sub-table is named after its value's display string; otherwise
// it inherits the parent's name. Missing cells form their own group. A single distinct
// value still yields a one-element result holding every row.
func GroupBy(tbl *model.Table, column string, tag bool) ([]*model.Table, []model.Value, error) {
	if tbl == nil {
		return nil, nil, fmt.Errorf("%w: table cannot be nil", model.ErrInvalidInput)
	}
	if column == "" {
		return nil, nil, fmt.Errorf("%w: partition column is required", model.ErrInvalidInput)
	}
	if !tbl.HasColumn(column) {
		return nil, nil, fmt.Errorf("%w: %w: %s", model.ErrInvalidInput, model.ErrColumnNotFound, column)
	}
	if tbl.NumRows() == 0 {
		return nil, nil, fmt.Errorf("%w: cannot partition an empty table by %s", model.ErrInvalidInput, column)
	}

	var (
		values []model.Value
		rows   [][]int
		slot   = make(map[string]int)
	)
	for i := 0; i < tbl.NumRows(); i++ {
		v := tbl.Get(i, column)
		k := v.Key()
		idx, ok := slot[k]
		if !ok {
			idx = len(values)
			slot[k] = idx
			values = append(values, v)
			rows = append(rows, nil)
		}
		rows[idx] = append(rows[idx], i)
	}

	groups := make([]*model.Table, len(values))
	for g, v := range values {
		sub := tbl.Subset(rows[g])
		if tag {
			sub.Name = v.String()
		}
		groups[g] = sub
	}
	return groups, values, nil
}

// Names returns the tags of a partition result
func Names(groups []*model.Table) []string {
	names := make([]string, len(groups))
	for i, g := range groups {
		names[i] = g.Name
	}
	return names
}
