package converter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/David-Botos/prtr-cleaner/pkg/model"
)

func column(t *testing.T, cells ...model.Value) *model.Table {
	t.Helper()
	tbl := model.NewTable("c")
	for _, v := range cells {
		require.NoError(t, tbl.AppendRow([]model.Value{v}))
	}
	return tbl
}

func TestConvertColumn(t *testing.T) {
	c := NewTypeConverter(zap.NewNop())

	t.Run("numeric", func(t *testing.T) {
		tbl := column(t, model.Text("12"), model.Missing(), model.Bool(true))
		require.NoError(t, c.ConvertColumn(tbl, "c", model.ColumnNumeric))
		f, _ := tbl.Get(0, "c").Float()
		assert.Equal(t, 12.0, f)
		assert.True(t, tbl.Get(1, "c").IsMissing())
		f, _ = tbl.Get(2, "c").Float()
		assert.Equal(t, 1.0, f)
	})

	t.Run("numeric failure leaves column untouched", func(t *testing.T) {
		tbl := column(t, model.Text("12"), model.Text("1,234"))
		err := c.ConvertColumn(tbl, "c", model.ColumnNumeric)
		assert.ErrorIs(t, err, ErrConversion)
		assert.Contains(t, err.Error(), "c cannot be converted into numeric")
		assert.Equal(t, model.KindText, tbl.Get(0, "c").Kind())
	})

	t.Run("bool truthiness", func(t *testing.T) {
		tbl := column(t, model.Text(""), model.Text("x"), model.Number(0), model.Missing())
		require.NoError(t, c.ConvertColumn(tbl, "c", model.ColumnBool))
		var got []bool
		for i := 0; i < tbl.NumRows(); i++ {
			b, ok := tbl.Get(i, "c").Truth()
			require.True(t, ok)
			got = append(got, b)
		}
		assert.Equal(t, []bool{false, true, false, true}, got)
	})

	t.Run("date day first", func(t *testing.T) {
		tbl := column(t, model.Text("03/02/2020"), model.Missing())
		require.NoError(t, c.ConvertColumn(tbl, "c", model.ColumnDate))
		d, ok := tbl.Get(0, "c").Time()
		require.True(t, ok)
		assert.Equal(t, time.Date(2020, 2, 3, 0, 0, 0, 0, time.UTC), d)

		bad := column(t, model.Text("2020-02-03"))
		assert.ErrorIs(t, c.ConvertColumn(bad, "c", model.ColumnDate), ErrConversion)
	})

	t.Run("category keeps values", func(t *testing.T) {
		tbl := column(t, model.Text("a"))
		require.NoError(t, c.ConvertColumn(tbl, "c", model.ColumnCategory))
		assert.Equal(t, "a", tbl.Get(0, "c").String())
		assert.ErrorIs(t, c.ConvertColumn(tbl, "nope", model.ColumnCategory), model.ErrColumnNotFound)
	})
}

func TestMapSnowflakeTypeToPostgres(t *testing.T) {
	c := NewTypeConverter(nil)
	tests := map[string]string{
		"NUMBER(38,0)":      "NUMERIC(38)",
		"NUMBER(4,0)":       "SMALLINT",
		"NUMBER(10,2)":      "NUMERIC(10,2)",
		"VARCHAR(16777216)": "TEXT",
		"VARCHAR(40)":       "VARCHAR(50)",
		"TIMESTAMP_NTZ":     "TIMESTAMP",
		"BOOLEAN":           "BOOLEAN",
		"":                  "TEXT",
	}
	for in, want := range tests {
		got, err := c.MapSnowflakeTypeToPostgres(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := c.MapSnowflakeTypeToPostgres("GEOGRAPHY")
	assert.Error(t, err)
}

func TestGenerateColumnDefinitions(t *testing.T) {
	tbl := model.NewTable(model.ColShnatDivuach, model.ColShemAtar, "Accidental")
	require.NoError(t, tbl.AppendRow([]model.Value{model.Number(2019), model.Text("בזן"), model.Missing()}))

	c := NewTypeConverter(nil)
	md := c.OptimizeTableMetadata(model.DescribeTable("MIFLAS", tbl), tbl)
	defs, err := c.GenerateColumnDefinitions(md)
	require.NoError(t, err)
	assert.Equal(t, []string{
		`"ShnatDivuach" BIGINT NOT NULL`,
		`"ShemAtarSvivatiMenifa" VARCHAR(50) NOT NULL`,
		`"Accidental" TEXT NULL`,
	}, defs)
}

func TestConvertValueForPostgres(t *testing.T) {
	c := NewTypeConverter(nil)

	v, err := c.ConvertValueForPostgres(model.Missing(), "BIGINT", "x")
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = c.ConvertValueForPostgres(model.Number(2019), "BIGINT", "x")
	require.NoError(t, err)
	assert.Equal(t, int64(2019), v)

	v, err = c.ConvertValueForPostgres(model.Text("03/02/2020"), "DATE", "x")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2020, 2, 3, 0, 0, 0, 0, time.UTC), v)

	_, err = c.ConvertValueForPostgres(model.Text("x"), "double precision", "x")
	assert.Error(t, err)
}
