// pkg/export/export.go
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/David-Botos/prtr-cleaner/pkg/model"
)

// TimestampLayout is appended to exported file names (yymmdd HH_MM)
const TimestampLayout = "060102 15_04"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Exporter writes cleaned tables for analysts
type Exporter struct {
	logger *zap.Logger
	now    func() time.Time
}

// NewExporter creates an exporter stamping files with the current time
func NewExporter(logger *zap.Logger) *Exporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Exporter{logger: logger.Named("export"), now: time.Now}
}

// FileName returns name followed by the timestamp and ext
func FileName(name string, at time.Time, ext string) string {
	return name + at.Format(TimestampLayout) + ext
}

// records renders the header and rows with a leading unnamed index column
func records(tbl *model.Table) [][]string {
	cols := tbl.Columns()
	out := make([][]string, 0, tbl.NumRows()+1)
	out = append(out, append([]string{""}, cols...))
	for i := 0; i < tbl.NumRows(); i++ {
		rec := make([]string, 0, len(cols)+1)
		rec = append(rec, strconv.Itoa(i))
		for _, v := range tbl.Row(i) {
			rec = append(rec, v.String())
		}
		out = append(out, rec)
	}
	return out
}

// CSV writes <dir>/<name><yymmdd HH_MM>.csv with a UTF-8 BOM so Excel reads Hebrew correctly
func (e *Exporter) CSV(tbl *model.Table, dir, name string) (string, error) {
	if tbl == nil {
		return "", fmt.Errorf("%w: table cannot be nil", model.ErrInvalidInput)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	path := filepath.Join(dir, FileName(name, e.now(), ".csv"))
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if _, err := file.Write(utf8BOM); err != nil {
		return "", fmt.Errorf("failed to write BOM: %w", err)
	}

	w := csv.NewWriter(file)
	if err := w.WriteAll(records(tbl)); err != nil {
		return "", fmt.Errorf("failed to write records: %w", err)
	}

	e.logger.Info("Results saved as csv",
		zap.String("path", path),
		zap.Int("rows", tbl.NumRows()))
	return path, nil
}

// XLSX writes the same layout as CSV to a single-sheet workbook. Numbers and
// booleans keep their cell types.
func (e *Exporter) XLSX(tbl *model.Table, dir, name string) (path string, err error) {
	if tbl == nil {
		return "", fmt.Errorf("%w: table cannot be nil", model.ErrInvalidInput)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close workbook: %w", cerr)
		}
	}()

	sheet := sheetName(tbl)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return "", fmt.Errorf("failed to name sheet: %w", err)
	}

	header := []interface{}{""}
	for _, c := range tbl.Columns() {
		header = append(header, c)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return "", fmt.Errorf("failed to write header: %w", err)
	}

	for i := 0; i < tbl.NumRows(); i++ {
		row := []interface{}{i}
		for _, v := range tbl.Row(i) {
			row = append(row, cellValue(v))
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return "", err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return "", fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}

	path = filepath.Join(dir, FileName(name, e.now(), ".xlsx"))
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to save workbook: %w", err)
	}

	e.logger.Info("Results saved as xlsx", zap.String("path", path))
	return path, nil
}

func cellValue(v model.Value) interface{} {
	switch v.Kind() {
	case model.KindNumber:
		f, _ := v.Float()
		return f
	case model.KindBool:
		b, _ := v.Truth()
		return b
	case model.KindDate:
		t, _ := v.Time()
		return t
	case model.KindMissing:
		return nil
	default:
		return v.String()
	}
}

var sheetReplacer = strings.NewReplacer(":", "-", "\\", "-", "/", "-", "?", "", "*", "", "[", "(", "]", ")")

// sheetName uses the table name, within Excel's 31 character limit
func sheetName(tbl *model.Table) string {
	name := []rune(sheetReplacer.Replace(tbl.Name))
	if len(name) == 0 {
		return "data"
	}
	if len(name) > 31 {
		name = name[:31]
	}
	return string(name)
}
