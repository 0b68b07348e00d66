package pipeline

import (
	"context"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/David-Botos/prtr-cleaner/pkg/cleaner"
	"github.com/David-Botos/prtr-cleaner/pkg/export"
	"github.com/David-Botos/prtr-cleaner/pkg/model"
)

// export writes the cleaned table as CSV, and as a workbook when asked
func (p *Pipeline) export(tbl *model.Table) error {
	res := NewStageResult(NewStageJob(StageExport, ExportName))
	defer func() {
		res.Complete()
		p.metrics.RecordStage(*res)
	}()

	e := export.NewExporter(p.logger)
	writers := []func(*model.Table, string, string) (string, error){e.CSV}
	if p.opts.XLSX {
		writers = append(writers, e.XLSX)
	}

	for _, write := range writers {
		path, err := write(tbl, p.cfg.OutputDir, ExportName)
		if err != nil {
			rec := p.errors.Classify(err, StageExport, ErrorCategoryStorage)
			res.AddError(rec)
			if p.errors.HandleError(rec) == ActionAbort {
				return WrapError(err, StageExport)
			}
			p.out.Warning("Export failed: %v", err)
			continue
		}
		res.AddOutput(path)
		p.out.Success("Cleaned table exported to %s", path)
	}
	res.Rows = int64(tbl.NumRows())
	return nil
}

// sink copies the cleaned table and its audit trail to Postgres when configured.
// A failing sink never fails the run.
func (p *Pipeline) sink(ctx context.Context, tbl *model.Table, report *cleaner.Report) {
	if !p.connectors.HasPostgres() {
		return
	}

	res := NewStageResult(NewStageJob(StagePostgres, p.cfg.Postgres.Table))
	defer func() {
		res.Complete()
		p.metrics.RecordStage(*res)
	}()

	conn, err := p.connectors.CreatePostgresConnector(ctx)
	if err != nil {
		p.record(res, err, ErrorCategoryExternalService)
		p.out.Warning("Postgres sink skipped: %v", err)
		return
	}
	defer conn.Close()

	md := model.DescribeTable(p.cfg.CacheName, tbl)
	md.Merge(p.metadata)
	md = p.conv.OptimizeTableMetadata(md, tbl)
	p.applySourceTypes(md)

	n, err := conn.WriteTable(ctx, tbl, md, p.conv)
	res.Rows = n
	if err != nil {
		p.record(res, err, ErrorCategoryExternalService)
		p.out.Warning("Postgres sink failed after %d rows: %v", n, err)
		return
	}
	p.out.Success("%d rows written to Postgres", n)

	recorder, err := cleaner.NewAuditRecorder(ctx, sqlx.NewDb(conn.DB(), "pgx"), p.logger)
	if err != nil {
		p.record(res, err, ErrorCategoryExternalService)
		return
	}
	if err := recorder.RecordCleaningOperations(ctx, report.Operations); err != nil {
		p.record(res, err, ErrorCategoryExternalService)
		return
	}
	p.logger.Info("Audit trail written to Postgres", zap.Int("operations", len(report.Operations)))
}

// applySourceTypes keeps the Snowflake type of columns the analyst left unchanged
func (p *Pipeline) applySourceTypes(md *model.TableMetadata) {
	for i, col := range md.Columns {
		src, ok := p.sourceTypes[col.Name]
		if !ok || (col.Type != "" && col.Type != model.ColumnUnchanged) {
			continue
		}
		pgType, err := p.conv.MapSnowflakeTypeToPostgres(src)
		if err != nil {
			p.logger.Debug("Keeping inferred column type", zap.String("column", col.Name), zap.Error(err))
			continue
		}
		md.Columns[i].PgType = pgType
	}
}
