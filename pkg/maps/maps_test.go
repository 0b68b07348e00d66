package maps

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/David-Botos/prtr-cleaner/pkg/geocode"
	"github.com/David-Botos/prtr-cleaner/pkg/model"
)

func facilities(t *testing.T) *model.Table {
	t.Helper()
	tbl := model.NewTable(model.ColYeshuv, model.ColMisparTaagid, model.ColAnafAtarSvivati)
	rows := [][]model.Value{
		{model.Text("חיפה"), model.Number(1), model.Text("כימיה")},
		{model.Text("חיפה"), model.Number(1), model.Text("כימיה")}, // same facility, second pollutant
		{model.Text("חיפה"), model.Number(2), model.Text("כימיה")},
		{model.Text(" אשדוד "), model.Number(3), model.Text("כימיה")},
		{model.Text("אשדוד"), model.Number(4), model.Text("אנרגיה")},
		{model.Text("כפר לא ידוע"), model.Number(5), model.Text("אנרגיה")},
		{model.Missing(), model.Number(6), model.Text("אנרגיה")},
	}
	for _, r := range rows {
		require.NoError(t, tbl.AppendRow(r))
	}
	return tbl
}

func locations() map[string]geocode.Location {
	return map[string]geocode.Location{
		"חיפה":  geocode.NewLocation("חיפה", 32.8, 35.0, 0),
		"אשדוד": geocode.NewLocation("אשדוד", 31.8, 34.6, 0),
	}
}

func TestIndustryLayers(t *testing.T) {
	layers, err := IndustryLayers(facilities(t), locations(), model.ColAnafAtarSvivati)
	require.NoError(t, err)
	require.Len(t, layers, 2)

	chem := layers[0]
	assert.Equal(t, "כימיה", chem.Industry)
	assert.Equal(t, Color(0), chem.Color)
	assert.Equal(t, []Site{
		{City: "חיפה", Latitude: 32.8, Longitude: 35.0, Count: 2},
		{City: "אשדוד", Latitude: 31.8, Longitude: 34.6, Count: 1},
	}, chem.Sites)
	assert.InDelta(t, 32.3, chem.Centre.Y(), 1e-9)
	assert.InDelta(t, 34.8, chem.Centre.X(), 1e-9)

	energy := layers[1]
	assert.Equal(t, "אנרגיה", energy.Industry)
	require.Len(t, energy.Sites, 1)
	assert.Equal(t, "אשדוד", energy.Sites[0].City)

	t.Run("no located rows", func(t *testing.T) {
		layers, err := IndustryLayers(facilities(t), nil, model.ColAnafAtarSvivati)
		require.NoError(t, err)
		assert.Empty(t, layers)
	})

	t.Run("missing industry column", func(t *testing.T) {
		_, err := IndustryLayers(facilities(t), locations(), model.ColTchumPeilut)
		assert.ErrorIs(t, err, model.ErrColumnNotFound)
	})
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "map AnafAtarSvivati-כימיה", FileName(model.ColAnafAtarSvivati, "כימיה"))
	long := FileName(model.ColTchumPeilut, "תעשיית מתכת ומוצרים ממתכת")
	assert.Len(t, []rune(long), maxFileNameRunes)
}

func TestWriter(t *testing.T) {
	layers, err := IndustryLayers(facilities(t), locations(), model.ColAnafAtarSvivati)
	require.NoError(t, err)

	w := NewWriter(zap.NewNop(), t.TempDir())
	paths, err := w.WriteAll(model.ColAnafAtarSvivati, layers)
	require.NoError(t, err)
	require.Len(t, paths, 2)

	assert.Equal(t, filepath.Join(w.root, Folder, "map AnafAtarSvivati-כימיה.html"), paths[0])
	data, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	html := string(data)
	assert.Contains(t, html, "leaflet")
	assert.Contains(t, html, `"count":2`)
	assert.Contains(t, html, "חיפה")

	_, err = w.Write(model.ColAnafAtarSvivati, Layer{Industry: "ריק"})
	assert.Error(t, err)
}
