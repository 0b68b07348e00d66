package model

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTable(t *testing.T) *Table {
	t.Helper()
	tbl := NewTable("city", "amount")
	require.NoError(t, tbl.AppendRow([]Value{Text("Haifa"), Number(10)}))
	require.NoError(t, tbl.AppendRow([]Value{Text("Ashdod"), Missing()}))
	require.NoError(t, tbl.AppendRow([]Value{Text("Haifa"), Number(2.5)}))
	return tbl
}

func TestValue(t *testing.T) {
	t.Run("NaN is missing", func(t *testing.T) {
		assert.True(t, Number(math.NaN()).IsMissing())
	})

	t.Run("keys separate kinds", func(t *testing.T) {
		assert.False(t, Text("1").Equal(Number(1)))
		assert.True(t, Number(1).Equal(Number(1.0)))
		assert.True(t, Missing().Equal(Value{}))
	})

	t.Run("display strings", func(t *testing.T) {
		assert.Equal(t, "1234", Number(1234).String())
		assert.Equal(t, "150.5", Number(150.5).String())
		assert.Equal(t, "True", Bool(true).String())
		assert.Equal(t, "", Missing().String())
		assert.Equal(t, "2020-06-01", Date(time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC)).String())
	})
}

func TestTableColumns(t *testing.T) {
	tbl := sampleTable(t)

	t.Run("append rejects wrong width", func(t *testing.T) {
		err := tbl.AppendRow([]Value{Text("x")})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("distinct keeps first-seen order", func(t *testing.T) {
		vals, err := tbl.Distinct("city")
		require.NoError(t, err)
		require.Len(t, vals, 2)
		assert.Equal(t, "Haifa", vals[0].String())
		assert.Equal(t, "Ashdod", vals[1].String())
	})

	t.Run("missing tracking", func(t *testing.T) {
		assert.True(t, tbl.HasMissing("amount"))
		assert.False(t, tbl.HasMissing("city"))
		assert.False(t, tbl.AllMissing("amount"))
	})

	t.Run("unknown column", func(t *testing.T) {
		_, err := tbl.Column("nope")
		assert.ErrorIs(t, err, ErrColumnNotFound)
		assert.ErrorIs(t, tbl.MustHave("city", "nope"), ErrColumnNotFound)
	})

	t.Run("drop and add", func(t *testing.T) {
		c := tbl.Clone()
		require.NoError(t, c.DropColumn("city"))
		assert.Equal(t, []string{"amount"}, c.Columns())
		c.AddColumn("flag", Bool(false))
		assert.Equal(t, "False", c.Get(2, "flag").String())
		assert.Equal(t, []string{"city", "amount"}, tbl.Columns(), "clone must not alias")
	})
}

func TestTableJSONKeepsKinds(t *testing.T) {
	tbl := sampleTable(t)
	tbl.AddColumn("when", Date(time.Date(2019, 1, 2, 0, 0, 0, 0, time.UTC)))
	tbl.Name = "root"

	data, err := json.Marshal(tbl)
	require.NoError(t, err)

	var back Table
	require.NoError(t, json.Unmarshal(data, &back))

	assert.Equal(t, "root", back.Name)
	assert.Equal(t, tbl.Columns(), back.Columns())
	assert.Equal(t, KindNumber, back.Get(0, "amount").Kind())
	assert.True(t, back.Get(1, "amount").IsMissing())
	assert.Equal(t, KindDate, back.Get(2, "when").Kind())
}

func TestConcat(t *testing.T) {
	a := sampleTable(t)
	b := sampleTable(t)

	out, err := Concat(a, b)
	require.NoError(t, err)
	assert.Equal(t, 6, out.NumRows())

	_, err = Concat(a, NewTable("other"))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestClassifySentinel(t *testing.T) {
	assert.Equal(t, SentinelClassUnavailable, ClassifySentinel(Text("נתון לא זמין")))
	assert.Equal(t, SentinelClassTooLow, ClassifySentinel(Text("הזרמה נמוכה מכמות הסף")))
	assert.Equal(t, SentinelClassNonAccident, ClassifySentinel(Text("לא נפלט בתקלה")))
	assert.Equal(t, SentinelNone, ClassifySentinel(Text("12")))
	assert.Equal(t, SentinelNone, ClassifySentinel(Number(12)))
}

func TestDescribeTable(t *testing.T) {
	md := DescribeTable("cleanData", sampleTable(t))
	require.Len(t, md.Columns, 2)
	assert.Equal(t, KindText, md.GetColumnByName("CITY").Kind)
	assert.True(t, md.GetColumnByName("amount").Nullable)

	md.SetType("amount", ColumnNumeric)
	assert.Equal(t, ColumnNumeric, md.GetColumnByName("amount").Type)
	md.Remove("amount")
	assert.Nil(t, md.GetColumnByName("amount"))
}
