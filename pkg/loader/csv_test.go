package loader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/David-Botos/prtr-cleaner/pkg/model"
)

const extract = `ShnatDivuach,KamutPlita,KamutPlitaBeTeunot,YeshuvAtarSvivatiMenifa,Flag
2018,"1,234",לא נפלט בתקלה,חיפה,True
2019,12,NA,אשדוד,False
2019,פליטה נמוכה מכמות הסף,פליטה נמוכה מכמות הסף,,True
`

func TestLoad(t *testing.T) {
	l := NewCSVLoader(nil, DefaultOptions())

	tbl, err := l.Load(strings.NewReader(extract))
	require.NoError(t, err)

	assert.Equal(t, 3, tbl.NumRows())
	assert.Equal(t, []string{"ShnatDivuach", "KamutPlita", "KamutPlitaBeTeunot", "YeshuvAtarSvivatiMenifa", "Flag"}, tbl.Columns())

	t.Run("numeric column inferred", func(t *testing.T) {
		f, ok := tbl.Get(0, "ShnatDivuach").Float()
		require.True(t, ok)
		assert.Equal(t, 2018.0, f)
	})

	t.Run("mixed column stays text", func(t *testing.T) {
		s, ok := tbl.Get(0, model.ColKamutPlita).Str()
		require.True(t, ok)
		assert.Equal(t, "1,234", s)
		assert.Equal(t, model.KindText, tbl.Get(1, model.ColKamutPlita).Kind())
	})

	t.Run("NA token and empty cell are missing", func(t *testing.T) {
		assert.True(t, tbl.Get(1, model.ColKamutPlitaBeTeunot).IsMissing())
		assert.True(t, tbl.Get(2, model.ColYeshuv).IsMissing())
	})

	t.Run("boolean column inferred", func(t *testing.T) {
		b, ok := tbl.Get(1, "Flag").Truth()
		require.True(t, ok)
		assert.False(t, b)
	})
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "MIFLAS_data.csv")
	require.NoError(t, os.WriteFile(path, []byte(extract), 0o644))

	tbl, err := NewCSVLoader(nil, Options{}).LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 3, tbl.NumRows())

	_, err = NewCSVLoader(nil, Options{}).LoadFile(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func TestInferColumn(t *testing.T) {
	vals := InferColumn([]string{"", "3", "4.5"}, []bool{true, false, false})
	assert.True(t, vals[0].IsMissing())
	assert.Equal(t, model.KindNumber, vals[1].Kind())

	vals = InferColumn([]string{"", ""}, []bool{true, true})
	assert.True(t, vals[0].IsMissing())
	assert.True(t, vals[1].IsMissing())
}
