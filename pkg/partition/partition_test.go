package partition

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/David-Botos/prtr-cleaner/pkg/model"
)

func emissions(t *testing.T) *model.Table {
	t.Helper()
	tbl := model.NewTable(model.ColSugPlita, model.ColKamutPlita)
	tbl.Name = "MIFLAS"
	rows := []struct {
		medium string
		amount float64
	}{
		{"פליטה לאוויר", 1},
		{"הזרמה למים", 2},
		{"פליטה לאוויר", 3},
		{"", 4},
		{"העברה לטיפול", 5},
		{"הזרמה למים", 6},
	}
	for _, r := range rows {
		medium := model.Text(r.medium)
		if r.medium == "" {
			medium = model.Missing()
		}
		require.NoError(t, tbl.AppendRow([]model.Value{medium, model.Number(r.amount)}))
	}
	return tbl
}

func amounts(tbls ...*model.Table) []float64 {
	var out []float64
	for _, tbl := range tbls {
		for i := 0; i < tbl.NumRows(); i++ {
			f, _ := tbl.Get(i, model.ColKamutPlita).Float()
			out = append(out, f)
		}
	}
	sort.Float64s(out)
	return out
}

func TestGroupBy(t *testing.T) {
	tbl := emissions(t)

	groups, values, err := GroupBy(tbl, model.ColSugPlita, true)
	require.NoError(t, err)

	t.Run("one group per distinct value", func(t *testing.T) {
		distinct, err := tbl.Distinct(model.ColSugPlita)
		require.NoError(t, err)
		assert.Len(t, groups, len(distinct))
		assert.Len(t, values, len(distinct))
	})

	t.Run("first seen order", func(t *testing.T) {
		assert.Equal(t, []string{"פליטה לאוויר", "הזרמה למים", "", "העברה לטיפול"}, Names(groups))
		assert.True(t, values[2].IsMissing())
	})

	t.Run("concatenation reproduces rows", func(t *testing.T) {
		assert.Equal(t, amounts(tbl), amounts(groups...))
		total := 0
		for _, g := range groups {
			total += g.NumRows()
		}
		assert.Equal(t, tbl.NumRows(), total)
	})

	t.Run("rows keep relative order", func(t *testing.T) {
		first, _ := groups[0].Get(0, model.ColKamutPlita).Float()
		second, _ := groups[0].Get(1, model.ColKamutPlita).Float()
		assert.Equal(t, 1.0, first)
		assert.Equal(t, 3.0, second)
	})

	t.Run("input untouched", func(t *testing.T) {
		assert.Equal(t, 6, tbl.NumRows())
		assert.Equal(t, "MIFLAS", tbl.Name)
	})
}

func TestGroupByUntagged(t *testing.T) {
	groups, _, err := GroupBy(emissions(t), model.ColSugPlita, false)
	require.NoError(t, err)
	for _, g := range groups {
		assert.Equal(t, "MIFLAS", g.Name)
	}
}

func TestGroupBySingleValue(t *testing.T) {
	tbl := model.NewTable("k")
	require.NoError(t, tbl.AppendRow([]model.Value{model.Text("a")}))
	require.NoError(t, tbl.AppendRow([]model.Value{model.Text("a")}))

	groups, values, err := GroupBy(tbl, "k", true)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, 2, groups[0].NumRows())
	assert.Equal(t, "a", values[0].String())
}

func TestGroupByRejectsInvalidInput(t *testing.T) {
	tbl := emissions(t)

	_, _, err := GroupBy(tbl, "", true)
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	_, _, err = GroupBy(tbl, "nope", true)
	assert.ErrorIs(t, err, model.ErrInvalidInput)
	assert.ErrorIs(t, err, model.ErrColumnNotFound)

	_, _, err = GroupBy(model.NewTable(model.ColSugPlita), model.ColSugPlita, true)
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	_, _, err = GroupBy(nil, model.ColSugPlita, true)
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}
