// pkg/charts/violin.go
package charts

import (
	"bytes"
	"fmt"
	"math"

	"github.com/wcharczuk/go-chart/v2"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/David-Botos/prtr-cleaner/pkg/model"
)

const (
	kdePoints     = 100
	violinHalfMax = 0.45
)

// ViolinSpec describes a split violin: one violin per x category, the left half
// for rows whose hue column is true and the right half for false
type ViolinSpec struct {
	XColumn string
	YColumn string
	Hue     string
	Name    string // file name
	Title   string
	// Labels of the true and false halves
	TrueLabel  string
	FalseLabel string
}

// scottBandwidth is Scott's rule: sigma * n^(-1/5)
func scottBandwidth(x []float64) float64 {
	if len(x) < 2 {
		return 0
	}
	return stat.StdDev(x, nil) * math.Pow(float64(len(x)), -0.2)
}

// gaussianKDE evaluates a Gaussian kernel density estimate at each grid point
func gaussianKDE(x, grid []float64) []float64 {
	h := scottBandwidth(x)
	out := make([]float64, len(grid))
	if h == 0 {
		return out
	}
	n := float64(len(x))
	for i, g := range grid {
		var sum float64
		for _, v := range x {
			sum += distuv.UnitNormal.Prob((g - v) / h)
		}
		out[i] = sum / (n * h)
	}
	return out
}

// halfViolin builds a closed outline on one side of the category centre.
// side is -1 for left and +1 for right.
func halfViolin(x []float64, centre, side float64) (xs, ys []float64, ok bool) {
	if len(x) < 2 {
		return nil, nil, false
	}
	lo, hi := floats.Min(x), floats.Max(x)
	if lo == hi {
		return nil, nil, false
	}

	grid := make([]float64, kdePoints)
	floats.Span(grid, lo, hi)
	density := gaussianKDE(x, grid)
	peak := floats.Max(density)
	if peak == 0 {
		return nil, nil, false
	}

	xs = append(xs, centre)
	ys = append(ys, lo)
	for i, d := range density {
		xs = append(xs, centre+side*violinHalfMax*d/peak)
		ys = append(ys, grid[i])
	}
	xs = append(xs, centre)
	ys = append(ys, hi)
	return xs, ys, true
}

// Violin renders a split violin plot into the output root
func (r *Renderer) Violin(tbl *model.Table, spec ViolinSpec) (string, error) {
	if tbl == nil {
		return "", fmt.Errorf("%w: table cannot be nil", model.ErrInvalidInput)
	}
	if err := tbl.MustHave(spec.XColumn, spec.YColumn, spec.Hue); err != nil {
		return "", err
	}

	var categories []string
	index := make(map[string]int)
	halves := make(map[string][2][]float64)
	for i := 0; i < tbl.NumRows(); i++ {
		cat := tbl.Get(i, spec.XColumn)
		y, okY := tbl.Get(i, spec.YColumn).Float()
		hue, okH := tbl.Get(i, spec.Hue).Truth()
		if cat.IsMissing() || !okY || !okH {
			continue
		}
		key := cat.String()
		if _, seen := index[key]; !seen {
			index[key] = len(categories)
			categories = append(categories, key)
		}
		h := halves[key]
		side := 1
		if hue {
			side = 0
		}
		h[side] = append(h[side], y)
		halves[key] = h
	}

	var (
		series []chart.Series
		minY   = math.Inf(1)
		maxY   = math.Inf(-1)
	)
	for i, cat := range categories {
		for side, values := range halves[cat] {
			dir := -1.0
			if side == 1 {
				dir = 1.0
			}
			xs, ys, ok := halfViolin(values, float64(i), dir)
			if !ok {
				continue
			}
			minY = math.Min(minY, floats.Min(ys))
			maxY = math.Max(maxY, floats.Max(ys))
			series = append(series, chart.ContinuousSeries{
				XValues: xs,
				YValues: ys,
				Style: chart.Style{
					StrokeColor: paletteColor(side),
					StrokeWidth: 1.5,
				},
			})
		}
	}
	if len(series) == 0 {
		return "", ErrNothingToPlot
	}

	ticks := make([]chart.Tick, len(categories))
	for i, cat := range categories {
		ticks[i] = chart.Tick{Value: float64(i), Label: Visual(cat)}
	}

	c := chart.Chart{
		Title:      Visual(spec.Title),
		TitleStyle: chart.Style{FontSize: 14},
		Font:       r.font,
		Width:      r.opts.Width,
		Height:     r.opts.Height,
		Background: chart.Style{Padding: chart.Box{Top: 60, Left: 20, Right: 20, Bottom: 160}},
		XAxis: chart.XAxis{
			Ticks: ticks,
			Range: &chart.ContinuousRange{Min: -0.6, Max: float64(len(categories)) - 0.4},
			Style: chart.Style{FontSize: 7, TextRotationDegrees: 20},
		},
		YAxis: chart.YAxis{
			Name:  Visual(labelTotal),
			Range: &chart.ContinuousRange{Min: minY, Max: maxY},
		},
		Series: series,
	}
	c.Elements = []chart.Renderable{r.legend([]legendEntry{
		{label: Visual(spec.TrueLabel), color: paletteColor(0)},
		{label: Visual(spec.FalseLabel), color: paletteColor(1)},
	})}

	return r.save("", spec.Name, func(w *bytes.Buffer) error {
		return c.Render(chart.PNG, w)
	})
}
