package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/David-Botos/prtr-cleaner/pkg/charts"
	"github.com/David-Botos/prtr-cleaner/pkg/geocode"
	"github.com/David-Botos/prtr-cleaner/pkg/maps"
	"github.com/David-Botos/prtr-cleaner/pkg/model"
	"github.com/David-Botos/prtr-cleaner/pkg/store"
)

// chartJob draws one chart family and returns the files it wrote
type chartJob struct {
	job  StageJob
	draw func(ctx context.Context) ([]string, error)
}

// shotgunAxes are the x columns of the accident comparison charts and their axis labels
var shotgunAxes = []struct {
	column, label string
}{
	{model.ColSugPeilut, "מוצר"},
	{model.ColTchumPeilut, "תחום פעילות"},
}

// mapIndustries are the columns each industry map is split by
var mapIndustries = []string{model.ColAnafAtarSvivati, model.ColTchumPeilut}

// visualize runs the interactive accident analysis, then draws the waste chart,
// the comparison charts and the industry maps concurrently. Only cancellation
// stops the run; every other failure is recorded on its job.
func (p *Pipeline) visualize(ctx context.Context, st *store.Store, tbl *model.Table) error {
	r, err := charts.NewRenderer(p.logger, p.cfg.OutputDir, charts.Options{
		Width:    p.cfg.ChartWidth,
		Height:   p.cfg.ChartHeight,
		FontPath: p.cfg.ChartFontPath,
	})
	if err != nil {
		return p.fatal(StageWaste, err, ErrorCategoryRender)
	}

	if err := p.accidentAnalysis(ctx, r, tbl); err != nil {
		return WrapError(err, StageAccidents)
	}

	jobs := p.chartJobs(r, tbl)
	locations, err := p.resolveLocations(ctx, st, tbl)
	switch {
	case err == nil:
		jobs = append(jobs, p.mapJobs(tbl, locations)...)
	case ctx.Err() != nil:
		return WrapError(ctx.Err(), StageGeocode)
	default:
		p.out.Warning("Industry maps skipped: %v", err)
	}

	return p.runChartJobs(ctx, jobs)
}

// chartJobs lists the chart families that do not need the analyst
func (p *Pipeline) chartJobs(r *charts.Renderer, tbl *model.Table) []chartJob {
	jobs := []chartJob{{
		job: NewStageJob(StageWaste, "top factories"),
		draw: func(ctx context.Context) ([]string, error) {
			path, err := r.Waste(tbl)
			if err != nil {
				return nil, err
			}
			return []string{path}, nil
		},
	}}

	if !p.opts.Shotgun {
		return jobs
	}
	for _, axis := range shotgunAxes {
		for _, log := range []bool{false, true} {
			spec := charts.AccidentChartSpec{
				XColumn:   axis.column,
				XLabel:    axis.label,
				Log:       log,
				ShortenTo: p.cfg.NameMaxLen,
			}
			scale := "linear"
			if log {
				scale = "log"
			}
			jobs = append(jobs,
				chartJob{
					job: NewStageJob(StageShotgun, fmt.Sprintf("%s vs routine (%s)", axis.column, scale)),
					draw: func(ctx context.Context) ([]string, error) {
						return r.AccidentComparison(ctx, tbl, spec)
					},
				},
				chartJob{
					job: NewStageJob(StageShotgun, fmt.Sprintf("%s accidents only (%s)", axis.column, scale)),
					draw: func(ctx context.Context) ([]string, error) {
						return r.AccidentOnly(ctx, tbl, spec)
					},
				},
			)
		}
	}
	return jobs
}

// resolveLocations geocodes every facility town, reusing the cached coordinates
func (p *Pipeline) resolveLocations(ctx context.Context, st *store.Store, tbl *model.Table) (map[string]geocode.Location, error) {
	res := NewStageResult(NewStageJob(StageGeocode, ""))
	defer func() {
		res.Complete()
		p.metrics.RecordStage(*res)
	}()

	towns, err := tbl.Column(model.ColYeshuv)
	if err != nil {
		p.record(res, err, ErrorCategoryInvalidInput)
		return nil, err
	}
	cities := make([]string, 0, len(towns))
	for _, v := range towns {
		if s, ok := v.Str(); ok {
			cities = append(cities, s)
		}
	}

	g := geocode.NewCachedGeocoder(p.geocoder, st, p.logger)
	locations, err := geocode.Resolve(ctx, g, cities)
	if err != nil {
		p.record(res, err, ErrorCategoryExternalService)
		return nil, err
	}
	res.Rows = int64(len(locations))
	p.logger.Info("Towns geocoded", zap.Int("towns", len(locations)))
	return locations, nil
}

// mapJobs lists one job per industry column
func (p *Pipeline) mapJobs(tbl *model.Table, locations map[string]geocode.Location) []chartJob {
	w := maps.NewWriter(p.logger, p.cfg.OutputDir)
	jobs := make([]chartJob, 0, len(mapIndustries))
	for _, col := range mapIndustries {
		col := col
		jobs = append(jobs, chartJob{
			job: NewStageJob(StageMaps, col),
			draw: func(ctx context.Context) ([]string, error) {
				layers, err := maps.IndustryLayers(tbl, locations, col)
				if err != nil {
					return nil, err
				}
				return w.WriteAll(col, layers)
			},
		})
	}
	return jobs
}

// runChartJobs runs the jobs with at most ChartWorkers in flight. The renderers
// only read tbl, so the jobs share it.
func (p *Pipeline) runChartJobs(ctx context.Context, jobs []chartJob) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.ChartWorkers)

	for _, j := range jobs {
		j := j
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res := NewStageResult(j.job)
			paths, err := j.draw(gctx)
			res.AddOutput(paths...)
			cancelled := false
			if err != nil {
				rec := p.record(res, err, ErrorCategoryRender)
				cancelled = rec.Category == ErrorCategoryCancelled
				p.logger.Warn("Chart job failed",
					zap.String("job", j.job.FullName()),
					zap.String("category", rec.Category.String()),
					zap.Error(err))
			}
			res.Complete()
			p.metrics.RecordStage(*res)
			if cancelled {
				return err
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return WrapError(err, "charts")
	}
	p.out.Success("Charts written to %s", p.cfg.OutputDir)
	return nil
}
