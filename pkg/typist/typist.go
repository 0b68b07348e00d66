// Package typist walks the analyst through every column of a freshly loaded extract
// and applies the type conversion they choose.
package typist

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/David-Botos/prtr-cleaner/pkg/analysis"
	"github.com/David-Botos/prtr-cleaner/pkg/console"
	"github.com/David-Botos/prtr-cleaner/pkg/converter"
	"github.com/David-Botos/prtr-cleaner/pkg/model"
)

// previewValues is how many distinct values are shown per column
const previewValues = 10

// menu lists the per-column actions in prompt order
var menu = []struct {
	label string
	typ   model.ColumnType
}{
	{"remain unchanged", model.ColumnUnchanged},
	{"numeric", model.ColumnNumeric},
	{"bool", model.ColumnBool},
	{"date (d/m/Y)", model.ColumnDate},
	{"category", model.ColumnCategory},
	{"add to list for manual correction", model.ColumnManual},
	{"remove", ""},
}

// Result summarizes the decisions taken during a typing session
type Result struct {
	Deleted     []string
	Manual      []string
	WithMissing []string
	Metadata    *model.TableMetadata
}

// Typist runs the interactive column-typing step
type Typist struct {
	logger    *zap.Logger
	prompter  console.Prompter
	out       *console.Printer
	converter *converter.TypeConverter
	outputDir string
}

// New creates a typist writing its report files to outputDir
func New(logger *zap.Logger, prompter console.Prompter, out *console.Printer, conv *converter.TypeConverter, outputDir string) *Typist {
	if logger == nil {
		logger = zap.NewNop()
	}
	if out == nil {
		out = console.NewPrinter(nil)
	}
	if conv == nil {
		conv = converter.NewTypeConverter(logger)
	}
	return &Typist{
		logger:    logger.Named("typist"),
		prompter:  prompter,
		out:       out,
		converter: conv,
		outputDir: outputDir,
	}
}

// Run observes the table, drops low-variety columns, asks for each remaining column's
// type and writes the report files. The table is modified in place.
func (t *Typist) Run(ctx context.Context, tbl *model.Table, dataset string) (*Result, error) {
	if tbl == nil {
		return nil, fmt.Errorf("%w: table cannot be nil", model.ErrInvalidInput)
	}
	if t.prompter == nil {
		return nil, errors.New("typist requires a prompter")
	}

	if err := t.Observe(tbl); err != nil {
		return nil, err
	}

	res := &Result{}
	res.Deleted = RemoveLowVarietyColumns(tbl)
	if err := writeLines(t.outputDir, DeletedColumnsFile, res.Deleted, false); err != nil {
		return nil, err
	}
	t.logger.Info("Removed low variety columns", zap.Strings("columns", res.Deleted))

	res.Metadata = model.DescribeTable(dataset, tbl)
	for _, col := range tbl.Columns() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := t.typeColumn(tbl, col, res); err != nil {
			return nil, err
		}
	}

	if err := writeLines(t.outputDir, ManualFile, res.Manual, false); err != nil {
		return nil, err
	}

	res.WithMissing = ColumnsWithMissing(tbl)
	if err := writeLines(t.outputDir, WithMissingFile, res.WithMissing, false); err != nil {
		return nil, err
	}

	// kinds may have changed; keep the analyst's decisions
	md := model.DescribeTable(dataset, tbl)
	md.Merge(res.Metadata)
	res.Metadata = md

	t.out.Summary("Summary", []string{
		"Deleted columns: " + strings.Join(res.Deleted, ", "),
		"Columns for manual correction: " + strings.Join(res.Manual, ", "),
		"Columns that have missing values: " + strings.Join(res.WithMissing, ", "),
	})
	return res, nil
}

func (t *Typist) typeColumn(tbl *model.Table, col string, res *Result) error {
	distinct, err := tbl.Distinct(col)
	if err != nil {
		return err
	}

	kind := model.KindMissing
	if c := res.Metadata.GetColumnByName(col); c != nil {
		kind = c.Kind
	}
	t.out.Bold("%s is type %s with %d values", col, kind, len(distinct))
	preview := distinct
	if len(preview) > previewValues {
		preview = preview[:previewValues]
	}
	shown := make([]string, len(preview))
	for i, v := range preview {
		shown[i] = v.String()
		if v.IsMissing() {
			shown[i] = "NaN"
		}
	}
	t.out.Println(strings.Join(shown, ", "))
	if tbl.HasMissing(col) {
		t.out.Warning("***Contains missing values***")
	}

	labels := make([]string, len(menu))
	for i, m := range menu {
		labels[i] = m.label
	}
	choice, err := console.Menu(t.prompter, t.out, "It should:", labels)
	if err != nil {
		return fmt.Errorf("column %s: %w", col, err)
	}
	action := menu[choice-1]

	switch {
	case action.typ == "":
		if err := tbl.DropColumn(col); err != nil {
			return err
		}
		res.Metadata.Remove(col)
		res.Deleted = append(res.Deleted, col)
		return writeLines(t.outputDir, DeletedColumnsFile, []string{col}, true)

	case action.typ == model.ColumnManual:
		res.Manual = append(res.Manual, col)
		res.Metadata.SetType(col, model.ColumnManual)
		return nil
	}

	if err := t.converter.ConvertColumn(tbl, col, action.typ); err != nil {
		if !errors.Is(err, converter.ErrConversion) {
			return err
		}
		t.out.Error("%s column cannot be converted to %s", col, action.label)
		res.Manual = append(res.Manual, fmt.Sprintf("%s cannot be converted into %s", col, action.typ))
		t.logger.Warn("Conversion failed, column left for manual review",
			zap.String("column", col),
			zap.String("type", string(action.typ)))
		return nil
	}
	res.Metadata.SetType(col, action.typ)
	return nil
}

// Observe prints the descriptive summary and column names
func (t *Typist) Observe(tbl *model.Table) error {
	d, err := analysis.Describe(tbl)
	if err != nil {
		return err
	}
	t.out.Info("Data description:")
	t.out.Println(d.String())
	t.out.Info("Data columns:")
	t.out.Println(strings.Join(tbl.Columns(), ", "))
	return nil
}

// RemoveLowVarietyColumns drops columns with fewer than two distinct values (missing
// counts as a value) or with no values at all. Returns the dropped names.
func RemoveLowVarietyColumns(tbl *model.Table) []string {
	var deleted []string
	for _, col := range tbl.Columns() {
		distinct, _ := tbl.Distinct(col)
		if len(distinct) < 2 || tbl.AllMissing(col) {
			_ = tbl.DropColumn(col)
			deleted = append(deleted, col)
		}
	}
	return deleted
}

// ColumnsWithMissing lists the columns holding at least one missing cell
func ColumnsWithMissing(tbl *model.Table) []string {
	var cols []string
	for _, col := range tbl.Columns() {
		if tbl.HasMissing(col) {
			cols = append(cols, col)
		}
	}
	return cols
}
