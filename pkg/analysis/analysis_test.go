package analysis

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/David-Botos/prtr-cleaner/pkg/console"
	"github.com/David-Botos/prtr-cleaner/pkg/model"
)

func industryTable(t *testing.T) *model.Table {
	t.Helper()
	tbl := model.NewTable(model.ColAnafAtarSvivati, model.ColSugPeilut, model.ColKamutPlitaBeTeunot, model.ColKamutPlitaLoBeTeunot)
	rows := [][]model.Value{
		{model.Text("כימיה"), model.Text("דשנים"), model.Number(5), model.Number(1)},
		{model.Text("כימיה"), model.Text("דשנים"), model.Number(7), model.Number(2)},
		{model.Text("אנרגיה"), model.Text("חשמל"), model.Number(100), model.Number(3)},
		{model.Text("מזון"), model.Text("חלב"), model.Number(0), model.Number(4)},
		{model.Missing(), model.Text("חלב"), model.Number(50), model.Number(5)},
		{model.Text("פסולת"), model.Text("הטמנה"), model.Missing(), model.Number(6)},
	}
	for _, r := range rows {
		require.NoError(t, tbl.AppendRow(r))
	}
	return tbl
}

func TestClassifyVariability(t *testing.T) {
	tbl := model.NewTable("flag", "city", "id")
	for i := 0; i < 30; i++ {
		require.NoError(t, tbl.AppendRow([]model.Value{
			model.Bool(i%2 == 0),
			model.Text(string(rune('a' + i%10))),
			model.Number(float64(i)),
		}))
	}

	v := ClassifyVariability(tbl, 5, 20)
	assert.Equal(t, []string{"flag"}, v.EnumerableOrder)
	assert.Len(t, v.Enumerable["flag"], 2)
	assert.Equal(t, []string{"city"}, v.Moderate)
	assert.Equal(t, []string{"id"}, v.HighCardinality)
	assert.Equal(t, "moderate", v.Bucket("city"))
	assert.Equal(t, "", v.Bucket("nope"))

	t.Run("every column lands in exactly one bucket", func(t *testing.T) {
		total := len(v.Enumerable) + len(v.Moderate) + len(v.HighCardinality)
		assert.Equal(t, tbl.NumCols(), total)
	})

	t.Run("swapped cutoffs", func(t *testing.T) {
		assert.Equal(t, v, ClassifyVariability(tbl, 20, 5))
	})
}

func TestPivotSortClean(t *testing.T) {
	p, err := PivotSortClean(industryTable(t), []string{model.ColAnafAtarSvivati}, model.ColKamutPlitaBeTeunot)
	require.NoError(t, err)

	// missing key, zero sum and all-missing groups are dropped
	assert.Equal(t, []string{"אנרגיה", "כימיה"}, p.Labels())
	sums, err := p.Column(model.ColKamutPlitaBeTeunot)
	require.NoError(t, err)
	assert.Equal(t, []float64{100, 12}, sums)

	t.Run("drop top", func(t *testing.T) {
		rest := p.DropTop(1)
		assert.Equal(t, []string{"כימיה"}, rest.Labels())
		assert.Equal(t, 2, p.Len())
		assert.Equal(t, 0, p.DropTop(10).Len())
	})

	t.Run("to table", func(t *testing.T) {
		tbl := p.ToTable()
		assert.Equal(t, []string{model.ColAnafAtarSvivati, model.ColKamutPlitaBeTeunot}, tbl.Columns())
		assert.Equal(t, 2, tbl.NumRows())
	})

	t.Run("unknown column", func(t *testing.T) {
		_, err := PivotSortClean(industryTable(t), []string{"nope"}, model.ColKamutPlita)
		assert.ErrorIs(t, err, model.ErrColumnNotFound)
	})
}

func TestPivotCleanMultipleValues(t *testing.T) {
	p, err := PivotClean(industryTable(t), []string{model.ColSugPeilut},
		model.ColKamutPlitaLoBeTeunot, model.ColKamutPlitaBeTeunot)
	require.NoError(t, err)

	// ordered by key; הטמנה has no accident sum
	assert.Equal(t, []string{"דשנים", "חלב", "חשמל"}, p.Labels())
	assert.Equal(t, []float64{9, 50}, p.Rows[1].Sums)
}

func TestPivotNonZeroKeepsPartialGroups(t *testing.T) {
	p, err := PivotNonZero(industryTable(t), []string{model.ColSugPeilut},
		model.ColKamutPlitaLoBeTeunot, model.ColKamutPlitaBeTeunot)
	require.NoError(t, err)

	assert.Equal(t, []string{"דשנים", "הטמנה", "חלב", "חשמל"}, p.Labels())
	assert.Equal(t, []float64{6, 0}, p.Rows[1].Sums)
}

func TestDescribe(t *testing.T) {
	d, err := Describe(industryTable(t))
	require.NoError(t, err)

	require.Len(t, d.Numeric, 2)
	acc := d.Numeric[0]
	assert.Equal(t, model.ColKamutPlitaBeTeunot, acc.Column)
	assert.Equal(t, 5, acc.Count)
	assert.InDelta(t, 32.4, acc.Mean, 1e-9)
	assert.Equal(t, 0.0, acc.Min)
	assert.Equal(t, 100.0, acc.Max)
	assert.Equal(t, 7.0, acc.Median)
	assert.Equal(t, 5.0, acc.Q25)
	assert.Equal(t, 50.0, acc.Q75)

	require.Len(t, d.Text, 2)
	assert.Equal(t, TextSummary{Column: model.ColAnafAtarSvivati, Count: 5, Unique: 4, Top: "כימיה", Freq: 2}, d.Text[0])
	assert.Contains(t, d.String(), "count")
}

func TestCutoffDialog(t *testing.T) {
	var previews []int
	p := console.NewScriptedPrompter("0", "3", "n", "2", "maybe", "y")
	d := &CutoffDialog{
		Prompter: p,
		Out:      console.NewPrinter(&bytes.Buffer{}),
		Preview: func(_ context.Context, cutoff int) error {
			previews = append(previews, cutoff)
			return errors.New("render failed")
		},
	}

	cutoff, err := d.Run(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 2, cutoff)
	assert.Equal(t, []int{3, 2}, previews)
	assert.Equal(t, 0, p.Remaining())

	_, err = d.Run(context.Background(), 1)
	assert.Error(t, err)
}
