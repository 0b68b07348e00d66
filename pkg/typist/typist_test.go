package typist

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/David-Botos/prtr-cleaner/pkg/console"
	"github.com/David-Botos/prtr-cleaner/pkg/model"
)

func extract(t *testing.T) *model.Table {
	t.Helper()
	tbl := model.NewTable("Constant", "Empty", model.ColShnatDivuach, model.ColKamutPlita, "TaarichDivuach", model.ColYeshuv)
	rows := [][]model.Value{
		{model.Text("x"), model.Missing(), model.Text("2018"), model.Text("1,234"), model.Text("01/03/2019"), model.Text("חיפה")},
		{model.Text("x"), model.Missing(), model.Text("2019"), model.Text("12"), model.Text("15/04/2020"), model.Missing()},
		{model.Text("x"), model.Missing(), model.Text("2019"), model.Text("3"), model.Text("20/05/2020"), model.Text("אשדוד")},
	}
	for _, r := range rows {
		require.NoError(t, tbl.AppendRow(r))
	}
	return tbl
}

func readLines(t *testing.T, dir, name string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	return string(b)
}

func TestRemoveLowVarietyColumns(t *testing.T) {
	tbl := extract(t)
	deleted := RemoveLowVarietyColumns(tbl)
	assert.Equal(t, []string{"Constant", "Empty"}, deleted)
	assert.False(t, tbl.HasColumn("Constant"))
	assert.Equal(t, 4, tbl.NumCols())
}

func TestColumnsWithMissing(t *testing.T) {
	assert.Equal(t, []string{"Empty", model.ColYeshuv}, ColumnsWithMissing(extract(t)))
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer

	// ShnatDivuach: invalid then numeric; KamutPlita: numeric fails;
	// TaarichDivuach: date; Yeshuv: remove
	prompter := console.NewScriptedPrompter("9", "2", "2", "4", "7")
	typ := New(zap.NewNop(), prompter, console.NewPrinter(&out), nil, dir)

	tbl := extract(t)
	res, err := typ.Run(context.Background(), tbl, "cleanData")
	require.NoError(t, err)
	assert.Equal(t, 0, prompter.Remaining())

	t.Run("conversions applied", func(t *testing.T) {
		f, ok := tbl.Get(1, model.ColShnatDivuach).Float()
		require.True(t, ok)
		assert.Equal(t, 2019.0, f)

		_, ok = tbl.Get(0, "TaarichDivuach").Time()
		assert.True(t, ok)
	})

	t.Run("failed conversion goes to manual review", func(t *testing.T) {
		assert.Equal(t, model.KindText, tbl.Get(0, model.ColKamutPlita).Kind())
		assert.Equal(t, []string{"KamutPlita cannot be converted into numeric"}, res.Manual)
		assert.Contains(t, readLines(t, dir, ManualFile), "KamutPlita cannot be converted into numeric")
	})

	t.Run("deleted columns", func(t *testing.T) {
		assert.Equal(t, []string{"Constant", "Empty", model.ColYeshuv}, res.Deleted)
		assert.Equal(t, "Constant\nEmpty\nYeshuvAtarSvivatiMenifa\n", readLines(t, dir, DeletedColumnsFile))
		assert.False(t, tbl.HasColumn(model.ColYeshuv))
	})

	t.Run("missing report", func(t *testing.T) {
		assert.Empty(t, res.WithMissing)
		assert.Equal(t, "", readLines(t, dir, WithMissingFile))
	})

	t.Run("metadata keeps decisions", func(t *testing.T) {
		col := res.Metadata.GetColumnByName(model.ColShnatDivuach)
		require.NotNil(t, col)
		assert.Equal(t, model.ColumnNumeric, col.Type)
		assert.Equal(t, model.KindNumber, col.Kind)
		assert.Nil(t, res.Metadata.GetColumnByName(model.ColYeshuv))
	})

	t.Run("invalid menu input re-prompts", func(t *testing.T) {
		assert.Contains(t, out.String(), "between 1 and 7")
		assert.Contains(t, out.String(), "Contains missing values")
	})
}

func TestRunStopsWhenPrompterFails(t *testing.T) {
	typ := New(nil, console.NewScriptedPrompter("1"), console.NewPrinter(&bytes.Buffer{}), nil, t.TempDir())
	_, err := typ.Run(context.Background(), extract(t), "cleanData")
	assert.ErrorIs(t, err, console.ErrScriptExhausted)
}
