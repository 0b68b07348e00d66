package charts

import (
	"bytes"
	"fmt"
	"math"

	"github.com/wcharczuk/go-chart/v2"

	"github.com/David-Botos/prtr-cleaner/pkg/analysis"
	"github.com/David-Botos/prtr-cleaner/pkg/model"
)

const (
	minDot = 3.0
	maxDot = 30.0
)

// categoryAxis assigns ordinal positions to category labels in first-seen order
type categoryAxis struct {
	labels []string
	index  map[string]int
}

func newCategoryAxis() *categoryAxis {
	return &categoryAxis{index: make(map[string]int)}
}

func (a *categoryAxis) position(label string) float64 {
	i, ok := a.index[label]
	if !ok {
		i = len(a.labels)
		a.index[label] = i
		a.labels = append(a.labels, label)
	}
	return float64(i)
}

func (a *categoryAxis) ticks() []chart.Tick {
	ticks := make([]chart.Tick, len(a.labels))
	for i, l := range a.labels {
		ticks[i] = chart.Tick{Value: float64(i), Label: Visual(l)}
	}
	return ticks
}

func (a *categoryAxis) rangeOf() *chart.ContinuousRange {
	return &chart.ContinuousRange{Min: -1, Max: float64(len(a.labels))}
}

// MultiFeatureScatter plots a three-key pivot: the first key on x, the second on y,
// the third as dot colour and the first value column as dot size
func (r *Renderer) MultiFeatureScatter(p *analysis.Pivot, name string) (string, error) {
	if p == nil || len(p.By) != 3 || len(p.Values) == 0 {
		return "", fmt.Errorf("%w: scatter needs a pivot with three keys and a value", model.ErrInvalidInput)
	}
	if p.Len() == 0 {
		return "", ErrNothingToPlot
	}

	xAxis, yAxis := newCategoryAxis(), newCategoryAxis()
	var colours []string
	type points struct {
		xs, ys, sizes []float64
	}
	byColour := make(map[string]*points)

	peak := 0.0
	for _, row := range p.Rows {
		peak = math.Max(peak, math.Abs(row.Sums[0]))
	}

	for _, row := range p.Rows {
		c := row.Keys[2].String()
		pts, ok := byColour[c]
		if !ok {
			pts = &points{}
			byColour[c] = pts
			colours = append(colours, c)
		}
		size := minDot
		if peak > 0 {
			size += (maxDot - minDot) * math.Sqrt(math.Abs(row.Sums[0])/peak)
		}
		pts.xs = append(pts.xs, xAxis.position(row.Keys[0].String()))
		pts.ys = append(pts.ys, yAxis.position(row.Keys[1].String()))
		pts.sizes = append(pts.sizes, size)
	}

	var series []chart.Series
	entries := make([]legendEntry, 0, len(colours))
	for i, c := range colours {
		pts := byColour[c]
		sizes := pts.sizes
		series = append(series, chart.ContinuousSeries{
			Name:    c,
			XValues: pts.xs,
			YValues: pts.ys,
			Style: chart.Style{
				StrokeWidth: chart.Disabled,
				DotColor:    paletteColor(i).WithAlpha(180),
				DotWidthProvider: func(_, _ chart.Range, index int, _, _ float64) float64 {
					return sizes[index]
				},
			},
		})
		entries = append(entries, legendEntry{label: Visual(c), color: paletteColor(i)})
	}

	c := chart.Chart{
		Title:      name,
		TitleStyle: chart.Style{FontSize: 14},
		Font:       r.font,
		Width:      r.opts.Width,
		Height:     r.opts.Height,
		Background: chart.Style{Padding: chart.Box{Top: 60, Left: 220, Right: 20, Bottom: 180}},
		XAxis: chart.XAxis{
			Name:  p.By[0],
			Ticks: xAxis.ticks(),
			Range: xAxis.rangeOf(),
			Style: chart.Style{FontSize: 7, TextRotationDegrees: 45},
		},
		YAxis: chart.YAxis{
			Name:  p.By[1],
			Ticks: yAxis.ticks(),
			Range: yAxis.rangeOf(),
			Style: chart.Style{FontSize: 7},
		},
		Series:   series,
		Elements: []chart.Renderable{r.legend(entries)},
	}

	return r.save("", name, func(w *bytes.Buffer) error {
		return c.Render(chart.PNG, w)
	})
}
