package pipeline

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/David-Botos/prtr-cleaner/pkg/analysis"
	"github.com/David-Botos/prtr-cleaner/pkg/charts"
	"github.com/David-Botos/prtr-cleaner/pkg/model"
)

// analysisKeys are the scatter dimensions: product on x, field on y, industry as colour
var analysisKeys = []string{model.ColSugPeilut, model.ColTchumPeilut, model.ColAnafAtarSvivati}

var violinSpecs = []charts.ViolinSpec{
	{XColumn: model.ColAnafAtarSvivati, Title: "פליטה בתאונות ובשגרה לפי ענף תעשייתי"},
	{XColumn: model.ColTchumPeilut, Title: "פליטה בתאונות ובשגרה לפי תחום תעשייתי"},
	{XColumn: model.ColSugPeilut, Title: "פליטה בתאונות ובשגרה לפי מוצר"},
}

// emissionPivots sums accidental and routine emissions per product, field and industry,
// largest first
func emissionPivots(tbl *model.Table) (accidents, routine *analysis.Pivot, err error) {
	accidents, err = analysis.PivotSortClean(tbl, analysisKeys, model.ColKamutPlitaBeTeunot)
	if err != nil {
		return nil, nil, err
	}
	routine, err = analysis.PivotSortClean(tbl, analysisKeys, model.ColKamutPlitaLoBeTeunot)
	if err != nil {
		return nil, nil, err
	}
	return accidents, routine, nil
}

// accidentAnalysis describes the emission columns, draws the full-data scatter and
// violin plots, then asks the analyst how many top outliers to drop from the scatters
func (p *Pipeline) accidentAnalysis(ctx context.Context, r *charts.Renderer, tbl *model.Table) error {
	res := NewStageResult(NewStageJob(StageAccidents, ""))
	defer func() {
		res.Complete()
		p.metrics.RecordStage(*res)
	}()

	desc, err := analysis.Describe(tbl, model.ColKamutPlita, model.ColKamutPlitaLoBeTeunot, model.ColKamutPlitaBeTeunot)
	if err != nil {
		p.record(res, err, ErrorCategoryInvalidInput)
		return nil
	}
	p.out.Bold("All Emissions Description:")
	p.out.Println(desc.String())

	accidents, routine, err := emissionPivots(tbl)
	if err != nil {
		p.record(res, err, ErrorCategoryInvalidInput)
		return nil
	}

	p.render(res, func() (string, error) { return r.MultiFeatureScatter(accidents, "Accidental Emissions All Data") })
	p.render(res, func() (string, error) { return r.MultiFeatureScatter(routine, "Non Accidental Emissions All Data") })
	for _, spec := range violinSpecs {
		spec.YColumn = model.ColKamutPlita
		spec.Hue = model.ColAccidental
		spec.Name = "Emissions-" + spec.XColumn
		spec.TrueLabel = "בתאונות"
		spec.FalseLabel = "בשגרה"
		p.render(res, func() (string, error) { return r.Violin(tbl, spec) })
	}

	dialog := &analysis.CutoffDialog{
		Prompter: p.prompter,
		Out:      p.out,
		Preview: func(ctx context.Context, cutoff int) error {
			p.render(res, func() (string, error) {
				return r.MultiFeatureScatter(accidents.DropTop(cutoff), "Accidental Emissions")
			})
			p.render(res, func() (string, error) {
				return r.MultiFeatureScatter(routine.DropTop(cutoff), "Non Accidental Emissions")
			})
			p.printOutliers("Accidental emissions", accidents, cutoff)
			p.printOutliers("Non-Accidental emissions", routine, cutoff)
			return ctx.Err()
		},
	}

	cutoff, err := dialog.Run(ctx, tbl.NumRows()*tbl.NumCols())
	if err != nil {
		rec := p.record(res, err, ErrorCategoryInteractiveInput)
		if rec.Category == ErrorCategoryCancelled {
			return err
		}
		p.out.Error("Error in outlier cutoff dialog: %v", err)
		return nil
	}
	p.logger.Info("Outlier cutoff accepted", zap.Int("cutoff", cutoff))
	return nil
}

// printOutliers lists the rows removed by the cutoff
func (p *Pipeline) printOutliers(title string, pv *analysis.Pivot, cutoff int) {
	top := pv.Top(cutoff)
	if len(top) == 0 {
		return
	}
	lines := make([]string, len(top))
	for i, row := range top {
		sums := make([]string, len(row.Sums))
		for j, s := range row.Sums {
			sums[j] = fmt.Sprintf("%g", s)
		}
		lines[i] = fmt.Sprintf("%s: %s", row.Label(), strings.Join(sums, ", "))
	}
	p.out.Summary(fmt.Sprintf("%s: top %d outliers removed", title, cutoff), lines)
}

// render draws one chart and records its path or its failure on res
func (p *Pipeline) render(res *StageResult, draw func() (string, error)) {
	path, err := draw()
	if err != nil {
		p.record(res, err, ErrorCategoryRender)
		return
	}
	res.AddOutput(path)
}
