// pkg/charts/bar.go
package charts

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"go.uber.org/zap"

	"github.com/David-Botos/prtr-cleaner/pkg/analysis"
	"github.com/David-Botos/prtr-cleaner/pkg/cleaner"
	"github.com/David-Botos/prtr-cleaner/pkg/model"
	"github.com/David-Botos/prtr-cleaner/pkg/partition"
)

// Title templates: pollutant group, emission type, x axis label
const (
	compareTitle  = "פליטה של %s בתאונות ובשגרה ל%s לפי %s"
	accidentTitle = "פליטה של %s בתאונות ל%s לפי %s"
)

// AccidentChartSpec selects the x column for the per-pollutant bar charts
type AccidentChartSpec struct {
	XColumn string
	XLabel  string // used in the title and the x axis name
	Log     bool
	// ShortenTo truncates x labels; zero keeps them whole
	ShortenTo int
}

// emissionGroup is one emission type x pollutant group sub-table
type emissionGroup struct {
	emissionType string
	pollutant    string
	table        *model.Table
}

// splitByEmission partitions by SugPlita, drops rows without a pollutant group, then
// partitions each part by KvutzatMezahamim
func splitByEmission(tbl *model.Table) ([]emissionGroup, error) {
	byType, types, err := partition.GroupBy(tbl, model.ColSugPlita, true)
	if err != nil {
		return nil, err
	}

	var out []emissionGroup
	for i, part := range byType {
		part = part.DropMissing(model.ColKvutzatMezahamim)
		if part.NumRows() == 0 {
			continue
		}
		byPollutant, pollutants, err := partition.GroupBy(part, model.ColKvutzatMezahamim, false)
		if err != nil {
			return nil, err
		}
		for j, sub := range byPollutant {
			out = append(out, emissionGroup{
				emissionType: types[i].String(),
				pollutant:    pollutants[j].String(),
				table:        sub,
			})
		}
	}
	return out, nil
}

// AccidentComparison draws a grouped bar chart of routine and accidental emissions
// for every emission type and pollutant group
func (r *Renderer) AccidentComparison(ctx context.Context, tbl *model.Table, spec AccidentChartSpec) ([]string, error) {
	series := []barSeries{
		{column: model.ColKamutPlitaLoBeTeunot, label: "כמות פליטה בשגרה", color: colorRoutine},
		{column: model.ColKamutPlitaBeTeunot, label: "כמות פליטה בתאונות", color: colorAccident},
	}
	return r.accidentBars(ctx, tbl, spec, folder(CompareFolder, spec.Log), compareTitle, series)
}

// AccidentOnly draws accidental emissions for every emission type and pollutant group
func (r *Renderer) AccidentOnly(ctx context.Context, tbl *model.Table, spec AccidentChartSpec) ([]string, error) {
	series := []barSeries{
		{column: model.ColKamutPlitaBeTeunot, label: "כמות פליטה בתאונות", color: colorAccident},
	}
	return r.accidentBars(ctx, tbl, spec, folder(AccidentsFolder, spec.Log), accidentTitle, series)
}

type barSeries struct {
	column string
	label  string
	color  drawing.Color
}

func (r *Renderer) accidentBars(ctx context.Context, tbl *model.Table, spec AccidentChartSpec, dir, titleTmpl string, series []barSeries) ([]string, error) {
	if tbl == nil || spec.XColumn == "" {
		return nil, fmt.Errorf("%w: table and x column are required", model.ErrInvalidInput)
	}
	work := tbl
	if spec.ShortenTo > 0 {
		work = tbl.Clone()
		if err := cleaner.ShortenName(work, spec.XColumn, spec.ShortenTo); err != nil {
			return nil, err
		}
	}

	groups, err := splitByEmission(work)
	if err != nil {
		return nil, err
	}

	values := make([]string, len(series))
	for i, s := range series {
		values[i] = s.column
	}

	var paths []string
	for _, g := range groups {
		if err := ctx.Err(); err != nil {
			return paths, err
		}

		p, err := analysis.PivotNonZero(g.table, []string{spec.XColumn}, values...)
		if err != nil {
			return paths, err
		}
		if p.Len() == 0 {
			r.logger.Debug("Skipping empty pivot",
				zap.String("emissionType", g.emissionType),
				zap.String("pollutant", g.pollutant))
			continue
		}

		title := fmt.Sprintf(titleTmpl, g.pollutant, g.emissionType, spec.XLabel)
		path, err := r.groupedBars(dir, title, spec, p, series)
		if err != nil {
			if errors.Is(err, ErrNothingToPlot) {
				continue
			}
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// groupedBars renders one bar per series side by side for every pivot row
func (r *Renderer) groupedBars(dir, title string, spec AccidentChartSpec, p *analysis.Pivot, series []barSeries) (string, error) {
	labels := VisualAll(p.Labels())
	var bars []chart.Value
	positive := false
	for i, row := range p.Rows {
		for j, s := range series {
			v := row.Sums[j]
			if spec.Log {
				v = logScale(v)
			}
			if v > 0 {
				positive = true
			}
			label := ""
			if j == 0 {
				label = labels[i]
			}
			bars = append(bars, chart.Value{
				Label: label,
				Value: v,
				Style: chart.Style{FillColor: s.color, StrokeColor: s.color},
			})
		}
	}
	if !positive {
		return "", ErrNothingToPlot
	}

	yName := labelKg
	if spec.Log {
		yName = labelLogKg
	}

	barWidth := (r.opts.Width - 200) / (len(bars) + len(p.Rows))
	if barWidth > 60 {
		barWidth = 60
	}
	if barWidth < 4 {
		barWidth = 4
	}

	bc := chart.BarChart{
		Title:      Visual(title),
		TitleStyle: chart.Style{FontSize: 14},
		Font:       r.font,
		Width:      r.opts.Width,
		Height:     r.opts.Height,
		Background: chart.Style{Padding: chart.Box{Top: 60, Left: 20, Right: 20, Bottom: 160}},
		BarWidth:   barWidth,
		BarSpacing: barWidth / 3,
		XAxis:      chart.Style{FontSize: 7, TextRotationDegrees: 20},
		YAxis: chart.YAxis{
			Name:  Visual(yName),
			Style: chart.Style{FontSize: 9},
		},
		Bars: bars,
	}
	if len(series) > 1 {
		entries := make([]legendEntry, len(series))
		for i, s := range series {
			entries[i] = legendEntry{label: Visual(s.label), color: s.color}
		}
		bc.Elements = []chart.Renderable{r.legend(entries)}
	}

	return r.save(dir, title, func(w *bytes.Buffer) error {
		return bc.Render(chart.PNG, w)
	})
}

// logScale maps an amount to log10(1+v) so zero stays at the baseline
func logScale(v float64) float64 {
	if v <= 0 {
		return 0
	}
	return math.Log10(1 + v)
}
