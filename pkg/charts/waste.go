package charts

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/wcharczuk/go-chart/v2"
	"go.uber.org/zap"

	"github.com/David-Botos/prtr-cleaner/pkg/analysis"
	"github.com/David-Botos/prtr-cleaner/pkg/cleaner"
	"github.com/David-Botos/prtr-cleaner/pkg/model"
)

const (
	wasteChartName = "FactoriesWaste"
	wasteTopN      = 10
	wasteScale     = 1e9
	factoryNameLen = 40
)

// FactoryWaste is one factory's waste in the reporting year, in 10^9 kg
type FactoryWaste struct {
	Factory      string
	Hazardous    float64
	NonHazardous float64
}

// Total returns hazardous plus non-hazardous waste
func (f FactoryWaste) Total() float64 { return f.Hazardous + f.NonHazardous }

// LatestYear returns the largest reporting year in the table
func LatestYear(tbl *model.Table) (float64, bool) {
	found := false
	latest := 0.0
	for i := 0; i < tbl.NumRows(); i++ {
		y, ok := tbl.Get(i, model.ColShnatDivuach).Float()
		if !ok {
			continue
		}
		if !found || y > latest {
			latest = y
			found = true
		}
	}
	return latest, found
}

// TopWasteFactories sums the waste totals per factory for the latest reporting year
// and returns the n largest producers
func TopWasteFactories(tbl *model.Table, n int) ([]FactoryWaste, float64, error) {
	if tbl == nil {
		return nil, 0, fmt.Errorf("%w: table cannot be nil", model.ErrInvalidInput)
	}
	if err := tbl.MustHave(model.ColShnatDivuach, model.ColShemAtar); err != nil {
		return nil, 0, err
	}
	work := tbl
	if !tbl.HasColumn(model.ColPsoletMesukenetTotal) || !tbl.HasColumn(model.ColPsoletLoMesukenetTotal) {
		work = tbl.Clone()
		cleaner.ComputeWasteTotals(work, nil)
	}

	year, ok := LatestYear(work)
	if !ok {
		return nil, 0, ErrNothingToPlot
	}
	lastYear := work.Filter(func(i int) bool {
		y, ok := work.Get(i, model.ColShnatDivuach).Float()
		return ok && y == year
	})
	if err := cleaner.ShortenName(lastYear, model.ColShemAtar, factoryNameLen); err != nil {
		return nil, 0, err
	}

	p, err := analysis.PivotNonZero(lastYear, []string{model.ColShemAtar},
		model.ColPsoletMesukenetTotal, model.ColPsoletLoMesukenetTotal)
	if err != nil {
		return nil, 0, err
	}

	out := make([]FactoryWaste, 0, p.Len())
	for _, row := range p.Rows {
		out = append(out, FactoryWaste{
			Factory:      row.Keys[0].String(),
			Hazardous:    row.Sums[0] / wasteScale,
			NonHazardous: row.Sums[1] / wasteScale,
		})
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Total() > out[b].Total() })
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out, year, nil
}

// Waste renders the top ten waste producers of the latest year as stacked bars
func (r *Renderer) Waste(tbl *model.Table) (string, error) {
	top, year, err := TopWasteFactories(tbl, wasteTopN)
	if err != nil {
		return "", err
	}
	if len(top) == 0 {
		return "", ErrNothingToPlot
	}

	bars := make([]chart.StackedBar, len(top))
	for i, f := range top {
		bars[i] = chart.StackedBar{
			Name: Visual(f.Factory),
			Values: []chart.Value{
				{Label: "hazardous", Value: f.Hazardous, Style: chart.Style{FillColor: paletteColor(1), StrokeColor: paletteColor(1)}},
				{Label: "non-hazardous", Value: f.NonHazardous, Style: chart.Style{FillColor: paletteColor(0), StrokeColor: paletteColor(0)}},
			},
		}
	}

	sbc := chart.StackedBarChart{
		Title:      fmt.Sprintf("Factories producing most waste (%.0f)", year),
		TitleStyle: chart.Style{FontSize: 14},
		Font:       r.font,
		Width:      r.opts.Width,
		Height:     r.opts.Height,
		Background: chart.Style{Padding: chart.Box{Top: 60, Left: 20, Right: 20, Bottom: 200}},
		BarSpacing: 40,
		XAxis:      chart.Style{FontSize: 8, TextRotationDegrees: 45},
		YAxis:      chart.Style{FontSize: 9},
		Bars:       bars,
		Elements: []chart.Renderable{r.legend([]legendEntry{
			{label: "Hazardous waste (10^9 kg)", color: paletteColor(1)},
			{label: "Non-hazardous waste (10^9 kg)", color: paletteColor(0)},
		})},
	}

	r.logger.Info("Rendering waste chart",
		zap.Float64("year", year),
		zap.Int("factories", len(top)))
	return r.save("", wasteChartName, func(w *bytes.Buffer) error {
		return sbc.Render(chart.PNG, w)
	})
}
