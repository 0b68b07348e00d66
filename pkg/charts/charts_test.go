package charts

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/David-Botos/prtr-cleaner/pkg/analysis"
	"github.com/David-Botos/prtr-cleaner/pkg/model"
)

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := NewRenderer(zap.NewNop(), t.TempDir(), Options{Width: 800, Height: 600})
	require.NoError(t, err)
	return r
}

func assertPNG(t *testing.T, path string) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Greater(t, len(data), 8)
	assert.Equal(t, "\x89PNG", string(data[:4]))
}

func emissionsTable(t *testing.T) *model.Table {
	t.Helper()
	tbl := model.NewTable(model.ColSugPlita, model.ColKvutzatMezahamim, model.ColSugPeilut,
		model.ColTchumPeilut, model.ColAnafAtarSvivati,
		model.ColKamutPlita, model.ColKamutPlitaBeTeunot, model.ColKamutPlitaLoBeTeunot, model.ColAccidental)
	rows := []struct {
		plita, group, product, field, branch string
		total, accident, routine             float64
		accidental                           bool
	}{
		{"אוויר", "מתכות", "דשנים", "כימיה", "תעשייה", 10, 4, 6, true},
		{"אוויר", "מתכות", "חשמל", "אנרגיה", "תשתיות", 20, 0, 20, false},
		{"אוויר", "מתכות", "דשנים", "כימיה", "תעשייה", 15, 5, 10, true},
		{"אוויר", "אורגניים", "חלב", "מזון", "תעשייה", 8, 2, 6, true},
		{"מקור מים", "חומרים אנאורגניים", "דשנים", "כימיה", "תעשייה", 30, 10, 20, true},
		{"מקור מים", "חומרים אנאורגניים", "חשמל", "אנרגיה", "תשתיות", 12, 0, 12, false},
		{"מקור מים", "חומרים אנאורגניים", "חלב", "מזון", "תעשייה", 40, 0, 40, false},
		{"מקור מים", "חומרים אנאורגניים", "הטמנה", "פסולת", "תשתיות", 25, 0, 25, false},
	}
	for _, r := range rows {
		require.NoError(t, tbl.AppendRow([]model.Value{
			model.Text(r.plita), model.Text(r.group), model.Text(r.product),
			model.Text(r.field), model.Text(r.branch),
			model.Number(r.total), model.Number(r.accident), model.Number(r.routine), model.Bool(r.accidental),
		}))
	}
	require.NoError(t, tbl.AppendRow([]model.Value{
		model.Text("אוויר"), model.Missing(), model.Text("חלב"), model.Text("מזון"), model.Text("תעשייה"),
		model.Number(1), model.Number(1), model.Number(0), model.Bool(true),
	}))
	return tbl
}

func TestVisual(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"latin unchanged", "Emissions 2019", "Emissions 2019"},
		{"hebrew reversed", "שלום", "םולש"},
		{"mixed keeps latin order", "פליטה Kg", "Kg הטילפ"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Visual(tt.in))
		})
	}
}

func TestGaussianKDE(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}
	h := scottBandwidth(x)
	assert.InDelta(t, math.Sqrt(2.5)*math.Pow(5, -0.2), h, 1e-12)

	grid := make([]float64, 2001)
	for i := range grid {
		grid[i] = -10 + float64(i)*0.01
	}
	density := gaussianKDE(x, grid)
	area := 0.0
	for _, d := range density {
		area += d * 0.01
	}
	assert.InDelta(t, 1.0, area, 1e-3)

	assert.Equal(t, []float64{0, 0}, gaussianKDE([]float64{3}, []float64{1, 2}))
}

func TestHalfViolin(t *testing.T) {
	xs, ys, ok := halfViolin([]float64{1, 2, 2, 3}, 2, -1)
	require.True(t, ok)
	assert.Len(t, xs, kdePoints+2)
	assert.Equal(t, 2.0, xs[0])
	assert.Equal(t, 2.0, xs[len(xs)-1])
	assert.Equal(t, 1.0, ys[0])
	assert.Equal(t, 3.0, ys[len(ys)-1])
	for _, x := range xs {
		assert.LessOrEqual(t, x, 2.0)
		assert.GreaterOrEqual(t, x, 2-violinHalfMax-1e-9)
	}

	_, _, ok = halfViolin([]float64{4, 4}, 0, 1)
	assert.False(t, ok)
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "a-b-c", FileName("a/b\\c"))
	assert.Equal(t, "chart", FileName("  "))
	assert.Equal(t, "why", FileName("why?"))
}

func TestAccidentComparison(t *testing.T) {
	r := newTestRenderer(t)

	paths, err := r.AccidentComparison(context.Background(), emissionsTable(t), AccidentChartSpec{
		XColumn:   model.ColSugPeilut,
		XLabel:    "מוצר",
		ShortenTo: 40,
	})
	require.NoError(t, err)
	// one chart per emission type and pollutant group
	require.Len(t, paths, 3)
	for _, p := range paths {
		assert.Equal(t, filepath.Join(r.Root(), CompareFolder), filepath.Dir(p))
		assertPNG(t, p)
	}
}

func TestAccidentOnlyLog(t *testing.T) {
	r := newTestRenderer(t)

	paths, err := r.AccidentOnly(context.Background(), emissionsTable(t), AccidentChartSpec{
		XColumn: model.ColSugPeilut,
		XLabel:  "מוצר",
		Log:     true,
	})
	require.NoError(t, err)
	require.NotEmpty(t, paths)
	for _, p := range paths {
		assert.Equal(t, filepath.Join(r.Root(), AccidentsFolder+" log"), filepath.Dir(p))
		assertPNG(t, p)
	}

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := r.AccidentOnly(ctx, emissionsTable(t), AccidentChartSpec{XColumn: model.ColSugPeilut})
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("missing x column", func(t *testing.T) {
		_, err := r.AccidentOnly(context.Background(), emissionsTable(t), AccidentChartSpec{})
		assert.ErrorIs(t, err, model.ErrInvalidInput)
	})
}

func TestLogScale(t *testing.T) {
	assert.Equal(t, 0.0, logScale(0))
	assert.Equal(t, 0.0, logScale(-5))
	assert.InDelta(t, 2.0, logScale(99), 1e-12)
}

func TestViolin(t *testing.T) {
	r := newTestRenderer(t)
	spec := ViolinSpec{
		XColumn:    model.ColTchumPeilut,
		YColumn:    model.ColKamutPlita,
		Hue:        model.ColAccidental,
		Name:       "Emissions-" + model.ColTchumPeilut,
		Title:      "פליטה בתאונות ובשגרה לפי תחום תעשייתי",
		TrueLabel:  "תאונות",
		FalseLabel: "שגרה",
	}

	path, err := r.Violin(emissionsTable(t), spec)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(r.Root(), spec.Name+".png"), path)
	assertPNG(t, path)

	t.Run("single row per half has nothing to draw", func(t *testing.T) {
		tbl := model.NewTable(model.ColTchumPeilut, model.ColKamutPlita, model.ColAccidental)
		require.NoError(t, tbl.AppendRow([]model.Value{model.Text("כימיה"), model.Number(1), model.Bool(true)}))
		_, err := r.Violin(tbl, spec)
		assert.ErrorIs(t, err, ErrNothingToPlot)
	})
}

func TestMultiFeatureScatter(t *testing.T) {
	r := newTestRenderer(t)
	p, err := analysis.PivotSortClean(emissionsTable(t),
		[]string{model.ColSugPeilut, model.ColTchumPeilut, model.ColAnafAtarSvivati},
		model.ColKamutPlitaLoBeTeunot)
	require.NoError(t, err)

	path, err := r.MultiFeatureScatter(p, "Non Accidental Emissions All Data")
	require.NoError(t, err)
	assertPNG(t, path)

	_, err = r.MultiFeatureScatter(p.DropTop(p.Len()), "empty")
	assert.ErrorIs(t, err, ErrNothingToPlot)

	_, err = r.MultiFeatureScatter(&analysis.Pivot{By: []string{"a"}}, "bad")
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func wasteTable(t *testing.T) *model.Table {
	t.Helper()
	tbl := model.NewTable(model.ColShnatDivuach, model.ColShemAtar,
		model.ColSachTipulPsoletMesukenet, model.ColSachSilukPsoletMesukenet,
		model.ColSachTipulPsoletLoMesukenet, model.ColSachSilukPsoletLoMesukenet)
	add := func(year float64, name string, a, b, c, d float64) {
		require.NoError(t, tbl.AppendRow([]model.Value{
			model.Number(year), model.Text(name),
			model.Number(a), model.Number(b), model.Number(c), model.Number(d),
		}))
	}
	add(2018, "מפעל ישן", 9e9, 9e9, 9e9, 9e9)
	add(2019, "בתי זיקוק", 1e9, 1e9, 2e9, 0)
	add(2019, "בתי זיקוק", 1e9, 0, 0, 0)
	add(2019, "מחצבה", 0, 0, 1e9, 1e9)
	add(2019, "מפעל ללא פסולת", 0, 0, 0, 0)
	return tbl
}

func TestTopWasteFactories(t *testing.T) {
	top, year, err := TopWasteFactories(wasteTable(t), 10)
	require.NoError(t, err)
	assert.Equal(t, 2019.0, year)

	require.Len(t, top, 2)
	assert.Equal(t, FactoryWaste{Factory: "בתי זיקוק", Hazardous: 3, NonHazardous: 2}, top[0])
	assert.Equal(t, FactoryWaste{Factory: "מחצבה", Hazardous: 0, NonHazardous: 2}, top[1])

	top, _, err = TopWasteFactories(wasteTable(t), 1)
	require.NoError(t, err)
	assert.Len(t, top, 1)

	_, _, err = TopWasteFactories(model.NewTable(model.ColShemAtar), 10)
	assert.ErrorIs(t, err, model.ErrColumnNotFound)
}

func TestWasteChart(t *testing.T) {
	r := newTestRenderer(t)
	path, err := r.Waste(wasteTable(t))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(r.Root(), wasteChartName+".png"), path)
	assertPNG(t, path)
}
