// Package analysis summarizes cleaned tables: column variability, pivots,
// descriptive statistics and the outlier cutoff dialog.
package analysis

import (
	"github.com/David-Botos/prtr-cleaner/pkg/model"
)

// Variability buckets the columns of a table by their number of distinct values
type Variability struct {
	// Enumerable holds the distinct values, in first-seen order, of every column
	// with at most the low cutoff of distinct values
	Enumerable      map[string][]model.Value
	EnumerableOrder []string
	Moderate        []string
	HighCardinality []string
}

// ClassifyVariability places every column into exactly one bucket:
// enumerable when distinct <= low, moderate when distinct <= high, high-cardinality otherwise.
// Swapped cutoffs are normalised.
func ClassifyVariability(tbl *model.Table, low, high int) Variability {
	if low > high {
		low, high = high, low
	}

	v := Variability{Enumerable: make(map[string][]model.Value)}
	if tbl == nil {
		return v
	}

	for _, col := range tbl.Columns() {
		distinct, _ := tbl.Distinct(col)
		switch n := len(distinct); {
		case n <= low:
			v.Enumerable[col] = distinct
			v.EnumerableOrder = append(v.EnumerableOrder, col)
		case n <= high:
			v.Moderate = append(v.Moderate, col)
		default:
			v.HighCardinality = append(v.HighCardinality, col)
		}
	}
	return v
}

// Bucket returns the name of the bucket holding col, or "" if the column is unknown
func (v Variability) Bucket(col string) string {
	if _, ok := v.Enumerable[col]; ok {
		return "enumerable"
	}
	for _, c := range v.Moderate {
		if c == col {
			return "moderate"
		}
	}
	for _, c := range v.HighCardinality {
		if c == col {
			return "high-cardinality"
		}
	}
	return ""
}
