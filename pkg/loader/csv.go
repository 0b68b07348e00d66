// pkg/loader/csv.go
package loader

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"go.uber.org/zap"

	"github.com/David-Botos/prtr-cleaner/pkg/model"
)

// DefaultNAValues are the tokens read as missing. The extract uses "NA"; the rest
// are the spellings a pandas reader treats as missing by default.
func DefaultNAValues() []string {
	return []string{"", "NA", "N/A", "n/a", "NaN", "nan", "-NaN", "null", "NULL", "#N/A", "<NA>"}
}

// Options configures CSV parsing
type Options struct {
	NAValues  []string
	Delimiter rune
}

// DefaultOptions returns comma-delimited parsing with the default missing tokens
func DefaultOptions() Options {
	return Options{NAValues: DefaultNAValues(), Delimiter: ','}
}

// CSVLoader reads delimited extracts into tables
type CSVLoader struct {
	logger *zap.Logger
	opts   Options
}

// NewCSVLoader creates a loader; a nil logger is replaced by a no-op logger
func NewCSVLoader(logger *zap.Logger, opts Options) *CSVLoader {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Delimiter == 0 {
		opts.Delimiter = ','
	}
	if opts.NAValues == nil {
		opts.NAValues = DefaultNAValues()
	}
	return &CSVLoader{logger: logger.Named("loader"), opts: opts}
}

// LoadFile reads a CSV file
func (l *CSVLoader) LoadFile(path string) (*model.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	tbl, err := l.Load(f)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}

	l.logger.Info("Loaded CSV extract",
		zap.String("path", path),
		zap.Int("rows", tbl.NumRows()),
		zap.Int("columns", tbl.NumCols()))
	return tbl, nil
}

// Load parses CSV data with a header row. No cleaning is applied: every column is read
// as text and then given the narrowest kind all its non-missing cells agree on.
func (l *CSVLoader) Load(r io.Reader) (*model.Table, error) {
	df := dataframe.ReadCSV(r,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(l.opts.NAValues),
		dataframe.WithDelimiter(l.opts.Delimiter),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidInput, df.Err)
	}
	return FromDataFrame(df)
}

// FromDataFrame converts a string-typed dataframe into a table
func FromDataFrame(df dataframe.DataFrame) (*model.Table, error) {
	if df.Err != nil {
		return nil, df.Err
	}

	names := df.Names()
	nrow := df.Nrow()
	columns := make([][]model.Value, len(names))

	for c, name := range names {
		s := df.Col(name)
		if s.Err != nil {
			return nil, fmt.Errorf("column %s: %w", name, s.Err)
		}

		raw := make([]string, nrow)
		na := make([]bool, nrow)
		for i := 0; i < nrow; i++ {
			e := s.Elem(i)
			na[i] = e.IsNA()
			if !na[i] {
				raw[i] = e.String()
			}
		}
		columns[c] = InferColumn(raw, na)
	}

	tbl := model.NewTable(names...)
	if tbl.NumCols() != len(names) {
		return nil, errors.New("duplicate column names in header")
	}

	row := make([]model.Value, len(names))
	for i := 0; i < nrow; i++ {
		for c := range names {
			row[c] = columns[c][i]
		}
		if err := tbl.AppendRow(row); err != nil {
			return nil, err
		}
	}
	return tbl, nil
}

// InferColumn types raw cells the way a dataframe reader infers a column dtype:
// all-numeric columns become numbers, True/False columns become booleans,
// anything else stays text. Missing cells stay missing.
func InferColumn(raw []string, na []bool) []model.Value {
	out := make([]model.Value, len(raw))

	numeric, boolean, seen := true, true, false
	nums := make([]float64, len(raw))
	for i, s := range raw {
		if na[i] {
			continue
		}
		seen = true
		trimmed := strings.TrimSpace(s)
		if numeric {
			f, err := strconv.ParseFloat(trimmed, 64)
			if err != nil {
				numeric = false
			} else {
				nums[i] = f
			}
		}
		if boolean && trimmed != "True" && trimmed != "False" {
			boolean = false
		}
	}

	for i, s := range raw {
		switch {
		case na[i]:
			out[i] = model.Missing()
		case seen && numeric:
			out[i] = model.Number(nums[i])
		case seen && boolean:
			out[i] = model.Bool(strings.TrimSpace(s) == "True")
		default:
			out[i] = model.Text(s)
		}
	}
	return out
}
