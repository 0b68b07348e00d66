package analysis

import (
	"fmt"
	"sort"
	"strings"

	"github.com/David-Botos/prtr-cleaner/pkg/model"
)

// PivotRow is one group of a pivot: the key tuple and the summed value columns
type PivotRow struct {
	Keys []model.Value
	Sums []float64
}

// Label joins the key tuple for display
func (r PivotRow) Label() string {
	parts := make([]string, len(r.Keys))
	for i, k := range r.Keys {
		parts[i] = k.String()
	}
	return strings.Join(parts, " | ")
}

// Pivot is a summed pivot table
type Pivot struct {
	By     []string
	Values []string
	Rows   []PivotRow
}

// Len returns the number of groups
func (p *Pivot) Len() int { return len(p.Rows) }

// Column returns the sums of one value column in row order
func (p *Pivot) Column(name string) ([]float64, error) {
	for j, v := range p.Values {
		if v == name {
			out := make([]float64, len(p.Rows))
			for i, r := range p.Rows {
				out[i] = r.Sums[j]
			}
			return out, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", model.ErrColumnNotFound, name)
}

// Labels returns the display label of every row
func (p *Pivot) Labels() []string {
	out := make([]string, len(p.Rows))
	for i, r := range p.Rows {
		out[i] = r.Label()
	}
	return out
}

// ToTable flattens the pivot back into a table with the key and value columns
func (p *Pivot) ToTable() *model.Table {
	cols := append(append([]string{}, p.By...), p.Values...)
	tbl := model.NewTable(cols...)
	for _, r := range p.Rows {
		row := make([]model.Value, 0, len(cols))
		row = append(row, r.Keys...)
		for _, s := range r.Sums {
			row = append(row, model.Number(s))
		}
		_ = tbl.AppendRow(row)
	}
	return tbl
}

// DropTop returns a copy of the pivot without its first n rows
func (p *Pivot) DropTop(n int) *Pivot {
	if n < 0 {
		n = 0
	}
	if n > len(p.Rows) {
		n = len(p.Rows)
	}
	return &Pivot{
		By:     p.By,
		Values: p.Values,
		Rows:   append([]PivotRow(nil), p.Rows[n:]...),
	}
}

// Top returns the first n rows
func (p *Pivot) Top(n int) []PivotRow {
	if n > len(p.Rows) {
		n = len(p.Rows)
	}
	return p.Rows[:n]
}

// PivotClean sums the value columns per key tuple, skipping rows with a missing key,
// then drops groups whose sum is missing or zero in any value column.
// Groups are ordered by key.
func PivotClean(tbl *model.Table, by []string, values ...string) (*Pivot, error) {
	return pivot(tbl, by, values, func(sums []float64, seen []bool) bool {
		for j := range sums {
			if !seen[j] || sums[j] == 0 {
				return false
			}
		}
		return true
	})
}

// PivotNonZero is PivotClean that only drops groups where every value column sums
// to zero or is missing. Used for the accident comparison charts, where a group with
// routine emissions and no accidents still has a bar to show.
func PivotNonZero(tbl *model.Table, by []string, values ...string) (*Pivot, error) {
	return pivot(tbl, by, values, func(sums []float64, seen []bool) bool {
		for j := range sums {
			if seen[j] && sums[j] != 0 {
				return true
			}
		}
		return false
	})
}

func pivot(tbl *model.Table, by, values []string, keep func(sums []float64, seen []bool) bool) (*Pivot, error) {
	if tbl == nil {
		return nil, fmt.Errorf("%w: table cannot be nil", model.ErrInvalidInput)
	}
	if len(by) == 0 || len(values) == 0 {
		return nil, fmt.Errorf("%w: pivot needs key and value columns", model.ErrInvalidInput)
	}
	if err := tbl.MustHave(append(append([]string{}, by...), values...)...); err != nil {
		return nil, err
	}

	type acc struct {
		keys []model.Value
		sums []float64
		seen []bool
	}
	groups := make(map[string]*acc)
	var order []string

	for i := 0; i < tbl.NumRows(); i++ {
		keys := make([]model.Value, len(by))
		parts := make([]string, len(by))
		skip := false
		for j, col := range by {
			keys[j] = tbl.Get(i, col)
			if keys[j].IsMissing() {
				skip = true
				break
			}
			parts[j] = keys[j].Key()
		}
		if skip {
			continue
		}

		k := strings.Join(parts, "\x1f")
		g, ok := groups[k]
		if !ok {
			g = &acc{keys: keys, sums: make([]float64, len(values)), seen: make([]bool, len(values))}
			groups[k] = g
			order = append(order, k)
		}
		for j, col := range values {
			if f, ok := tbl.Get(i, col).Float(); ok {
				g.sums[j] += f
				g.seen[j] = true
			}
		}
	}

	p := &Pivot{By: by, Values: values}
	for _, k := range order {
		g := groups[k]
		if keep(g.sums, g.seen) {
			p.Rows = append(p.Rows, PivotRow{Keys: g.keys, Sums: g.sums})
		}
	}

	sort.SliceStable(p.Rows, func(a, b int) bool {
		return lessKeys(p.Rows[a].Keys, p.Rows[b].Keys)
	})
	return p, nil
}

// PivotSortClean is PivotClean ordered by the first value column, largest first
func PivotSortClean(tbl *model.Table, by []string, values ...string) (*Pivot, error) {
	p, err := PivotClean(tbl, by, values...)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(p.Rows, func(a, b int) bool {
		return p.Rows[a].Sums[0] > p.Rows[b].Sums[0]
	})
	return p, nil
}

func lessKeys(a, b []model.Value) bool {
	for i := range a {
		if c := compareValues(a[i], b[i]); c != 0 {
			return c < 0
		}
	}
	return false
}

func compareValues(a, b model.Value) int {
	fa, okA := a.Float()
	fb, okB := b.Float()
	if okA && okB {
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	}
	return strings.Compare(a.String(), b.String())
}
