package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"text/tabwriter"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/David-Botos/prtr-cleaner/pkg/model"
)

// NumericSummary describes a numeric column
type NumericSummary struct {
	Column string
	Count  int
	Mean   float64
	Std    float64
	Min    float64
	Q25    float64
	Median float64
	Q75    float64
	Max    float64
}

// TextSummary describes a text or categorical column
type TextSummary struct {
	Column string
	Count  int
	Unique int
	Top    string
	Freq   int
}

// Description holds a summary per column, numeric columns first
type Description struct {
	Numeric []NumericSummary
	Text    []TextSummary
}

// Describe summarizes the given columns, or every column when none are named.
// Columns whose non-missing cells are all numbers get numeric statistics; the rest get counts.
func Describe(tbl *model.Table, columns ...string) (*Description, error) {
	if tbl == nil {
		return nil, fmt.Errorf("%w: table cannot be nil", model.ErrInvalidInput)
	}
	if len(columns) == 0 {
		columns = tbl.Columns()
	}
	if err := tbl.MustHave(columns...); err != nil {
		return nil, err
	}

	d := &Description{}
	for _, col := range columns {
		nums, numeric := numericCells(tbl, col)
		if numeric && len(nums) > 0 {
			d.Numeric = append(d.Numeric, describeNumbers(col, nums))
			continue
		}
		d.Text = append(d.Text, describeText(tbl, col))
	}
	return d, nil
}

func numericCells(tbl *model.Table, col string) ([]float64, bool) {
	var nums []float64
	for i := 0; i < tbl.NumRows(); i++ {
		v := tbl.Get(i, col)
		if v.IsMissing() {
			continue
		}
		f, ok := v.Float()
		if !ok {
			return nil, false
		}
		nums = append(nums, f)
	}
	return nums, true
}

func describeNumbers(col string, x []float64) NumericSummary {
	sorted := append([]float64(nil), x...)
	sort.Float64s(sorted)

	s := NumericSummary{
		Column: col,
		Count:  len(x),
		Mean:   stat.Mean(x, nil),
		Min:    floats.Min(x),
		Max:    floats.Max(x),
		Q25:    quantile(sorted, 0.25),
		Median: quantile(sorted, 0.5),
		Q75:    quantile(sorted, 0.75),
		Std:    math.NaN(),
	}
	if len(x) > 1 {
		s.Std = stat.StdDev(x, nil)
	}
	return s
}

// quantile interpolates linearly between closest ranks of sorted data
func quantile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	h := float64(len(sorted)-1) * p
	lo := math.Floor(h)
	hi := math.Ceil(h)
	return sorted[int(lo)] + (h-lo)*(sorted[int(hi)]-sorted[int(lo)])
}

func describeText(tbl *model.Table, col string) TextSummary {
	s := TextSummary{Column: col}
	freq := make(map[string]int)
	var order []string
	for i := 0; i < tbl.NumRows(); i++ {
		v := tbl.Get(i, col)
		if v.IsMissing() {
			continue
		}
		s.Count++
		k := v.String()
		if freq[k] == 0 {
			order = append(order, k)
		}
		freq[k]++
	}
	s.Unique = len(order)
	for _, k := range order {
		if freq[k] > s.Freq {
			s.Top, s.Freq = k, freq[k]
		}
	}
	return s
}

// String renders the description as aligned text tables
func (d *Description) String() string {
	var b strings.Builder
	if len(d.Numeric) > 0 {
		w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', tabwriter.AlignRight)
		fmt.Fprintln(w, "\tcount\tmean\tstd\tmin\t25%\t50%\t75%\tmax\t")
		for _, s := range d.Numeric {
			fmt.Fprintf(w, "%s\t%d\t%.6g\t%.6g\t%.6g\t%.6g\t%.6g\t%.6g\t%.6g\t\n",
				s.Column, s.Count, s.Mean, s.Std, s.Min, s.Q25, s.Median, s.Q75, s.Max)
		}
		w.Flush()
	}
	if len(d.Text) > 0 {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "\tcount\tunique\ttop\tfreq")
		for _, s := range d.Text {
			fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%d\n", s.Column, s.Count, s.Unique, s.Top, s.Freq)
		}
		w.Flush()
	}
	return b.String()
}
