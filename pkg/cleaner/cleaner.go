// pkg/cleaner/cleaner.go
package cleaner

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/David-Botos/prtr-cleaner/pkg/model"
)

// DataCleaner reconciles the emission columns of a loaded extract and records
// every cell it changes
type DataCleaner struct {
	logger     *zap.Logger
	schema     string
	table      string
	auditLimit int // 0 keeps every operation
	now        func() time.Time
}

// Report summarizes a cleaning pass
type Report struct {
	// NonNumeric lists, per emission column, the distinct literals that were
	// neither numeric nor missing before the rules ran (sentinels included)
	NonNumeric map[string][]string
	// Unparsed lists values still not numeric after the rules ran
	Unparsed          map[string][]string
	RuleCounts        map[string]int
	CommasRemoved     map[string]int
	Unavailable       int
	Operations        []model.CleaningOperation
	OperationsDropped int
}

// ParseFailures returns the number of distinct values that could not be parsed
func (r *Report) ParseFailures() int {
	n := 0
	for _, vals := range r.Unparsed {
		n += len(vals)
	}
	return n
}

// NewDataCleaner creates a new DataCleaner instance
func NewDataCleaner(logger *zap.Logger, schema, table string) (*DataCleaner, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if schema == "" || table == "" {
		return nil, errors.New("schema and table names are required")
	}

	return &DataCleaner{
		logger: logger.Named("cleaner"),
		schema: schema,
		table:  table,
		now:    time.Now,
	}, nil
}

// WithAuditLimit caps the number of recorded cleaning operations
func (c *DataCleaner) WithAuditLimit(limit int) *DataCleaner {
	if limit >= 0 {
		c.auditLimit = limit
	}
	return c
}

func (c *DataCleaner) record(report *Report, op model.CleaningOperation) {
	if c.auditLimit > 0 && len(report.Operations) >= c.auditLimit {
		report.OperationsDropped++
		return
	}
	report.Operations = append(report.Operations, op)
}

// Clean reconciles KamutPlita and KamutPlitaBeTeunot in place, derives
// KamutPlitaLoBeTeunot and Accidental, and computes the waste totals.
// Unrecognized values are reported, never fatal; a table without the two
// emission columns is rejected.
func (c *DataCleaner) Clean(tbl *model.Table) (*Report, error) {
	if tbl == nil {
		return nil, fmt.Errorf("%w: table cannot be nil", model.ErrInvalidInput)
	}
	if err := tbl.MustHave(model.ColKamutPlita, model.ColKamutPlitaBeTeunot); err != nil {
		return nil, err
	}

	report := &Report{
		NonNumeric:    make(map[string][]string),
		Unparsed:      make(map[string][]string),
		RuleCounts:    make(map[string]int),
		CommasRemoved: make(map[string]int),
	}

	n := tbl.NumRows()
	zeros := make([]model.Value, n)
	unset := make([]model.Value, n)
	for i := range zeros {
		zeros[i] = model.Number(0)
	}
	if err := tbl.SetColumn(model.ColKamutPlitaLoBeTeunot, zeros); err != nil {
		return nil, err
	}
	if err := tbl.SetColumn(model.ColAccidental, unset); err != nil {
		return nil, err
	}

	rawColumns := []string{model.ColKamutPlita, model.ColKamutPlitaBeTeunot}
	c.prepass(tbl, rawColumns, report)
	for _, col := range rawColumns {
		report.NonNumeric[col] = nonNumericValues(tbl, col)
	}

	for i := 0; i < n; i++ {
		pair := emissionPair{
			total:    tbl.Get(i, model.ColKamutPlita),
			accident: tbl.Get(i, model.ColKamutPlitaBeTeunot),
		}
		out, rule := reconcilePair(pair)
		report.RuleCounts[rule]++

		c.assign(tbl, report, i, model.ColKamutPlita, out.total, rule)
		c.assign(tbl, report, i, model.ColKamutPlitaBeTeunot, out.accident, rule)
		c.assign(tbl, report, i, model.ColKamutPlitaLoBeTeunot, out.routine, rule)
		c.assign(tbl, report, i, model.ColAccidental, out.accidental, rule)
	}

	for _, col := range []string{model.ColKamutPlita, model.ColKamutPlitaBeTeunot, model.ColKamutPlitaLoBeTeunot} {
		c.parseColumn(tbl, col, report)
	}

	c.computeWasteTotals(tbl, report)

	c.logger.Info("Reconciled emission columns",
		zap.Int("rows", n),
		zap.Any("rules", report.RuleCounts),
		zap.Int("unavailable", report.Unavailable),
		zap.Int("operations", len(report.Operations)),
		zap.Int("parseFailures", report.ParseFailures()))
	for col, vals := range report.Unparsed {
		c.logger.Warn("Values left non-numeric for manual inspection",
			zap.String("column", col),
			zap.Strings("values", vals))
	}

	return report, nil
}

// prepass strips thousands separators and turns the unavailable sentinel into Missing
func (c *DataCleaner) prepass(tbl *model.Table, columns []string, report *Report) {
	for _, col := range columns {
		for i := 0; i < tbl.NumRows(); i++ {
			before := tbl.Get(i, col)

			after, changed := stripCommas(before)
			if changed {
				report.CommasRemoved[col]++
				c.record(report, c.newOperation(col, i, before, after, model.OpCommaRemoval, "thousands_separator"))
			}

			if model.ClassifySentinel(after) == model.SentinelClassUnavailable {
				report.Unavailable++
				c.record(report, c.newOperation(col, i, after, model.Missing(), model.OpUnavailableToMissing, "value_not_reported"))
				after = model.Missing()
			}

			if changed || after.IsMissing() {
				_ = tbl.Set(i, col, after)
			}
		}
	}
}

// assign writes a reconciled cell and records it when it changed
func (c *DataCleaner) assign(tbl *model.Table, report *Report, row int, col string, v model.Value, rule string) {
	before := tbl.Get(row, col)
	if before.Equal(v) {
		return
	}
	_ = tbl.Set(row, col, v)
	c.record(report, c.newOperation(col, row, before, v, model.OpSentinelReconciliation, rule))
}

// parseColumn converts remaining text cells to numbers. Failures stay as text.
func (c *DataCleaner) parseColumn(tbl *model.Table, col string, report *Report) {
	seen := make(map[string]struct{})
	for i := 0; i < tbl.NumRows(); i++ {
		before := tbl.Get(i, col)
		if before.Kind() != model.KindText {
			continue
		}

		after, err := parseNumeric(before)
		if err != nil {
			s, _ := before.Str()
			if _, dup := seen[s]; !dup {
				seen[s] = struct{}{}
				report.Unparsed[col] = append(report.Unparsed[col], s)
			}
			continue
		}
		_ = tbl.Set(i, col, after)
		c.record(report, c.newOperation(col, i, before, after, model.OpTypeStandardization, "converted_to_float"))
	}
}

// nonNumericValues returns the distinct text values of a column that do not parse as numbers
func nonNumericValues(tbl *model.Table, col string) []string {
	distinct, err := tbl.Distinct(col)
	if err != nil {
		return nil
	}

	var out []string
	for _, v := range distinct {
		if v.IsMissing() || isNumericCell(v) {
			continue
		}
		out = append(out, v.String())
	}
	return out
}
