// Package pipeline runs the MIFLAS cleaning pass end to end: load or reuse the
// cached table, type its columns with the analyst, reconcile the emission
// columns, draw the charts and maps, then export the result.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/David-Botos/prtr-cleaner/pkg/analysis"
	"github.com/David-Botos/prtr-cleaner/pkg/cleaner"
	"github.com/David-Botos/prtr-cleaner/pkg/config"
	"github.com/David-Botos/prtr-cleaner/pkg/connector"
	"github.com/David-Botos/prtr-cleaner/pkg/console"
	"github.com/David-Botos/prtr-cleaner/pkg/converter"
	"github.com/David-Botos/prtr-cleaner/pkg/geocode"
	"github.com/David-Botos/prtr-cleaner/pkg/loader"
	"github.com/David-Botos/prtr-cleaner/pkg/model"
	"github.com/David-Botos/prtr-cleaner/pkg/store"
	"github.com/David-Botos/prtr-cleaner/pkg/typist"
)

// Report file names written next to the charts
const (
	MetricsJSONFile   = "run_metrics.json"
	MetricsReportFile = "run_metrics.txt"
	ExportName        = "MIFLAS_clean"
	// auditSchema labels cleaning operations of the local run
	auditSchema = "local"
)

// Options holds the per-run switches set on the command line
type Options struct {
	// Force runs the typist again and overwrites the cached table
	Force bool
	// Shotgun draws the per-pollutant accident bar charts
	Shotgun bool
	// XLSX also exports the cleaned table as a workbook
	XLSX bool
}

// Deps are the pipeline's collaborators. Nil fields get production defaults.
type Deps struct {
	Logger   *zap.Logger
	Prompter console.Prompter
	Out      *console.Printer
	// Geocoder is the upstream service; results are always cached in the store
	Geocoder geocode.Geocoder
}

// Pipeline orchestrates one cleaning run
type Pipeline struct {
	cfg        *config.Config
	opts       Options
	logger     *zap.Logger
	prompter   console.Prompter
	out        *console.Printer
	geocoder   geocode.Geocoder
	conv       *converter.TypeConverter
	connectors *connector.ConnectorFactory
	errors     *ErrorHandler
	metrics    *RunMetrics

	// decisions of the typist when it ran in this process
	metadata *model.TableMetadata
	// Snowflake column types of the raw extract, when it came from Snowflake
	sourceTypes map[string]string
}

// New creates a pipeline for cfg
func New(cfg *config.Config, opts Options, deps Deps) (*Pipeline, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: configuration cannot be nil", model.ErrInvalidInput)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidInput, err)
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("pipeline")

	if deps.Prompter == nil {
		deps.Prompter = console.NewSurveyPrompter()
	}
	if deps.Out == nil {
		deps.Out = console.NewPrinter(nil)
	}
	if deps.Geocoder == nil {
		deps.Geocoder = geocode.NewNominatimClient(geocode.Options{
			BaseURL:     cfg.GeocoderURL,
			UserAgent:   cfg.GeocoderUserAgent,
			CountryCode: cfg.GeocoderCountry,
			Timeout:     cfg.GeocoderTimeout,
			MinDelay:    cfg.GeocoderMinDelay,
		}, logger)
	}

	return &Pipeline{
		cfg:        cfg,
		opts:       opts,
		logger:     logger,
		prompter:   deps.Prompter,
		out:        deps.Out,
		geocoder:   deps.Geocoder,
		conv:       converter.NewTypeConverter(logger),
		connectors: connector.NewConnectorFactory(cfg, logger),
		errors:     NewErrorHandler(logger),
		metrics:    NewRunMetrics(logger),
	}, nil
}

// Metrics returns the run's metrics
func (p *Pipeline) Metrics() *RunMetrics { return p.metrics }

// Errors returns the run's error handler
func (p *Pipeline) Errors() *ErrorHandler { return p.errors }

// Run executes the whole pipeline. Load, typing and cache failures stop the run;
// chart, map and sink failures are recorded and the run goes on.
func (p *Pipeline) Run(ctx context.Context) (*RunMetrics, error) {
	p.logger.Info("Starting run", zap.String("runID", p.metrics.RunID))

	st, err := p.openStore(ctx)
	if err != nil {
		return p.metrics, err
	}
	defer st.Close()

	tbl, err := p.cleanedTable(ctx, st)
	if err != nil {
		return p.metrics, err
	}

	report, err := p.reconcile(ctx, st, tbl)
	if err != nil {
		return p.metrics, err
	}
	p.printReport(report)

	if err := p.visualize(ctx, st, tbl); err != nil {
		return p.metrics, err
	}

	if err := p.export(tbl); err != nil {
		return p.metrics, err
	}
	p.sink(ctx, tbl, report)

	if err := p.finish(); err != nil {
		return p.metrics, err
	}
	p.out.Success("Done")
	return p.metrics, nil
}

// Clean loads the cleaned table, running the loader and the typist when the
// cache is empty or a forced run was requested
func (p *Pipeline) Clean(ctx context.Context) (*model.Table, error) {
	st, err := p.openStore(ctx)
	if err != nil {
		return nil, err
	}
	defer st.Close()

	return p.cleanedTable(ctx, st)
}

// Reconcile loads the cleaned table, reconciles it and prints the report
func (p *Pipeline) Reconcile(ctx context.Context) (*model.Table, *cleaner.Report, error) {
	st, err := p.openStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer st.Close()

	tbl, err := p.cleanedTable(ctx, st)
	if err != nil {
		return nil, nil, err
	}
	report, err := p.reconcile(ctx, st, tbl)
	if err != nil {
		return nil, nil, err
	}
	p.printReport(report)
	return tbl, report, nil
}

// Variability classifies the columns of the cleaned table and prints the buckets
func (p *Pipeline) Variability(ctx context.Context) (analysis.Variability, error) {
	tbl, err := p.Clean(ctx)
	if err != nil {
		return analysis.Variability{}, err
	}

	v := analysis.ClassifyVariability(tbl, p.cfg.VariabilityLow, p.cfg.VariabilityHigh)
	lines := make([]string, 0, len(v.EnumerableOrder)+2)
	for _, col := range v.EnumerableOrder {
		values := make([]string, len(v.Enumerable[col]))
		for i, val := range v.Enumerable[col] {
			values[i] = val.String()
		}
		lines = append(lines, fmt.Sprintf("%s: %s", col, strings.Join(values, ", ")))
	}
	p.out.Summary(fmt.Sprintf("Columns with at most %d values", p.cfg.VariabilityLow), lines)
	p.out.Summary(fmt.Sprintf("Columns with at most %d values", p.cfg.VariabilityHigh), v.Moderate)
	p.out.Summary("Columns with many values", v.HighCardinality)
	return v, nil
}

func (p *Pipeline) openStore(ctx context.Context) (*store.Store, error) {
	if err := os.MkdirAll(p.cfg.OutputDir, 0o755); err != nil {
		return nil, p.fatal(StageCache, fmt.Errorf("failed to create output folder: %w", err), ErrorCategoryStorage)
	}
	st, err := store.Open(ctx, p.cfg.OutputDir, p.logger)
	if err != nil {
		return nil, p.fatal(StageCache, err, ErrorCategoryStorage)
	}
	return st, nil
}

// fatal records err and returns it wrapped with the stage name
func (p *Pipeline) fatal(stage string, err error, fallback ErrorCategory) error {
	p.errors.RecordError(p.errors.Classify(err, stage, fallback))
	return WrapError(err, stage)
}

// record adds a non-fatal failure to the stage result
func (p *Pipeline) record(res *StageResult, err error, fallback ErrorCategory) ErrorRecord {
	rec := p.errors.Classify(err, res.Stage, fallback)
	p.errors.RecordError(rec)
	res.AddError(rec)
	return rec
}

// cleanedTable returns the cached cleaned table, or builds and caches it
func (p *Pipeline) cleanedTable(ctx context.Context, st *store.Store) (*model.Table, error) {
	if !p.opts.Force {
		tbl, err := st.LoadTable(ctx, p.cfg.CacheName)
		switch {
		case err == nil:
			p.metrics.CacheHit = true
			p.metrics.Source = "cache:" + p.cfg.CacheName
			p.metrics.RowsLoaded = tbl.NumRows()
			p.out.Info("Loaded cleaned table %q from cache (%d rows)", p.cfg.CacheName, tbl.NumRows())
			return tbl, nil
		case !errors.Is(err, store.ErrNotCached):
			return nil, p.fatal(StageCache, err, ErrorCategoryStorage)
		}
	}

	tbl, err := p.load(ctx)
	if err != nil {
		return nil, err
	}

	job := NewStageJob(StageTypist, p.cfg.CacheName)
	res := NewStageResult(job)
	t := typist.New(p.logger, p.prompter, p.out, p.conv, p.cfg.OutputDir)
	typed, err := t.Run(ctx, tbl, p.cfg.CacheName)
	if err != nil {
		return nil, p.fatal(StageTypist, err, ErrorCategoryInteractiveInput)
	}
	p.metadata = typed.Metadata
	p.metrics.ColumnsDeleted = len(typed.Deleted)
	p.metrics.ColumnsManual = len(typed.Manual)
	res.AddOutput(
		filepath.Join(p.cfg.OutputDir, typist.DeletedColumnsFile),
		filepath.Join(p.cfg.OutputDir, typist.ManualFile),
		filepath.Join(p.cfg.OutputDir, typist.WithMissingFile),
	)
	res.Complete()
	p.metrics.RecordStage(*res)

	if _, err := st.SaveTable(ctx, p.cfg.CacheName, tbl, p.opts.Force); err != nil {
		return nil, p.fatal(StageCache, err, ErrorCategoryStorage)
	}
	if err := st.VerifyRowCount(ctx, p.cfg.CacheName, tbl); err != nil {
		return nil, p.fatal(StageCache, err, ErrorCategoryStorage)
	}
	return tbl, nil
}

// load reads the raw extract from Snowflake when configured, else from the CSV file
func (p *Pipeline) load(ctx context.Context) (*model.Table, error) {
	res := NewStageResult(NewStageJob(StageLoad, ""))

	var (
		tbl *model.Table
		err error
	)
	if p.connectors.HasSnowflake() {
		p.metrics.Source = "snowflake:" + p.cfg.Snowflake.Query
		tbl, err = p.loadSnowflake(ctx)
		if err != nil {
			return nil, p.fatal(StageLoad, err, ErrorCategoryExternalService)
		}
	} else {
		p.metrics.Source = p.cfg.InputPath
		l := loader.NewCSVLoader(p.logger, loader.Options{NAValues: p.cfg.NAValues})
		tbl, err = l.LoadFile(p.cfg.InputPath)
		if err != nil {
			return nil, p.fatal(StageLoad, err, ErrorCategoryStorage)
		}
	}

	p.metrics.RowsLoaded = tbl.NumRows()
	res.Rows = int64(tbl.NumRows())
	res.Complete()
	p.metrics.RecordStage(*res)
	p.out.Info("Loaded %d rows and %d columns from %s", tbl.NumRows(), tbl.NumCols(), p.metrics.Source)
	return tbl, nil
}

func (p *Pipeline) loadSnowflake(ctx context.Context) (*model.Table, error) {
	conn, err := p.connectors.CreateSnowflakeConnector(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	tbl, types, err := conn.FetchTable(ctx, p.cfg.CacheName)
	if err != nil {
		return nil, err
	}
	p.sourceTypes = types
	return tbl, nil
}

// reconcile shortens the product names, reconciles the emission columns in place
// and keeps the audit trail of every changed cell in the local store
func (p *Pipeline) reconcile(ctx context.Context, st *store.Store, tbl *model.Table) (*cleaner.Report, error) {
	res := NewStageResult(NewStageJob(StageReconcile, ""))

	if n, err := cleaner.ShortenProductNames(tbl, model.ColTchumPeilut); err != nil {
		p.record(res, err, ErrorCategoryInvalidInput)
		p.out.Warning("Product names were not shortened: %v", err)
	} else {
		p.logger.Debug("Shortened product names", zap.Int("cells", n))
	}

	dc, err := cleaner.NewDataCleaner(p.logger, auditSchema, p.cfg.CacheName)
	if err != nil {
		return nil, p.fatal(StageReconcile, err, ErrorCategoryInvalidInput)
	}
	report, err := dc.WithAuditLimit(p.cfg.CleaningAuditLimit).Clean(tbl)
	if err != nil {
		return nil, p.fatal(StageReconcile, err, ErrorCategoryInvalidInput)
	}

	cols := make([]string, 0, len(report.Unparsed))
	for col := range report.Unparsed {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	for _, col := range cols {
		for _, v := range report.Unparsed[col] {
			rec := NewErrorRecord(fmt.Errorf("value %q is not numeric", v), ErrorCategoryParseFailure).
				WithStage(StageReconcile).
				WithColumn(col, v)
			p.errors.RecordError(rec)
		}
	}

	p.metrics.CleaningOps = len(report.Operations)
	p.metrics.OperationsDropped = report.OperationsDropped
	p.metrics.ParseFailures = report.ParseFailures()
	for rule, n := range report.RuleCounts {
		p.metrics.RuleCounts[rule] = n
	}
	res.Rows = int64(tbl.NumRows())
	res.Complete()
	p.metrics.RecordStage(*res)

	p.audit(ctx, st, report)
	return report, nil
}

// audit stores the cleaning operations in the local cache database
func (p *Pipeline) audit(ctx context.Context, st *store.Store, report *cleaner.Report) {
	res := NewStageResult(NewStageJob(StageAudit, "local"))
	defer func() {
		res.Complete()
		p.metrics.RecordStage(*res)
	}()

	recorder, err := cleaner.NewAuditRecorder(ctx, st.DB(), p.logger)
	if err != nil {
		p.record(res, err, ErrorCategoryStorage)
		return
	}
	if err := recorder.RecordCleaningOperations(ctx, report.Operations); err != nil {
		p.record(res, err, ErrorCategoryStorage)
		return
	}
	res.Rows = int64(len(report.Operations))
}

// printReport shows the values that needed attention during reconciliation
func (p *Pipeline) printReport(report *cleaner.Report) {
	var lines []string
	cols := make([]string, 0, len(report.NonNumeric))
	for col := range report.NonNumeric {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	for _, col := range cols {
		lines = append(lines, fmt.Sprintf("%s non numeric values: %s", col, strings.Join(report.NonNumeric[col], ", ")))
	}
	for _, rule := range cleaner.RuleNames() {
		if n := report.RuleCounts[rule]; n > 0 {
			lines = append(lines, fmt.Sprintf("%s: %d rows", rule, n))
		}
	}
	lines = append(lines, fmt.Sprintf("Unavailable values set to missing: %d", report.Unavailable))
	p.out.Summary("Emission values", lines)

	if len(report.Unparsed) > 0 {
		unparsed := make([]string, 0, len(report.Unparsed))
		for col := range report.Unparsed {
			unparsed = append(unparsed, col)
		}
		sort.Strings(unparsed)
		var bad []string
		for _, col := range unparsed {
			if vals := report.Unparsed[col]; len(vals) > 0 {
				bad = append(bad, fmt.Sprintf("%s: %s", col, strings.Join(vals, ", ")))
			}
		}
		p.out.ErrorSummary("Values left for manual inspection", bad)
	}
}

// finish completes the metrics and writes the JSON and text reports
func (p *Pipeline) finish() error {
	p.metrics.Complete()

	data, err := p.metrics.ToJSON()
	if err != nil {
		return p.fatal(StageMetrics, err, ErrorCategoryStorage)
	}
	if err := os.WriteFile(filepath.Join(p.cfg.OutputDir, MetricsJSONFile), data, 0o644); err != nil {
		return p.fatal(StageMetrics, err, ErrorCategoryStorage)
	}
	report := p.metrics.GenerateMetricsReport()
	if err := os.WriteFile(filepath.Join(p.cfg.OutputDir, MetricsReportFile), []byte(report), 0o644); err != nil {
		return p.fatal(StageMetrics, err, ErrorCategoryStorage)
	}

	summary := []string{
		fmt.Sprintf("Rows: %d", p.metrics.RowsLoaded),
		fmt.Sprintf("Charts: %d", p.metrics.ChartsWritten),
		fmt.Sprintf("Maps: %d", p.metrics.MapsWritten),
		fmt.Sprintf("Exported files: %d", p.metrics.FilesExported),
		fmt.Sprintf("Duration: %s", formatDuration(p.metrics.Duration())),
	}
	p.out.Summary("Run "+p.metrics.RunID, summary)

	if failed := p.metrics.FailedStages(); len(failed) > 0 {
		p.out.ErrorSummary("Stages with errors", failed)
	}
	return nil
}
