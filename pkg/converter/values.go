// pkg/converter/values.go
package converter

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/David-Botos/prtr-cleaner/pkg/model"
)

// toNumeric parses every text cell as a float; booleans become 0/1. Commas are not
// stripped here, so "1,234" fails the whole column.
func (c *TypeConverter) toNumeric(tbl *model.Table, col string) ([]model.Value, error) {
	cells, _ := tbl.Column(col)
	out := make([]model.Value, len(cells))
	for i, v := range cells {
		switch v.Kind() {
		case model.KindMissing, model.KindNumber:
			out[i] = v
		case model.KindBool:
			b, _ := v.Truth()
			out[i] = model.Number(boolToFloat(b))
		case model.KindText:
			s, _ := v.Str()
			f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err != nil {
				return nil, fmt.Errorf("unable to parse string %q at row %d", s, i)
			}
			out[i] = model.Number(f)
		default:
			return nil, fmt.Errorf("cannot convert %s cell at row %d to numeric", v.Kind(), i)
		}
	}
	return out, nil
}

// toBool applies Python truthiness: missing cells are truthy, empty text and zero are false
func (c *TypeConverter) toBool(tbl *model.Table, col string) ([]model.Value, error) {
	cells, _ := tbl.Column(col)
	out := make([]model.Value, len(cells))
	for i, v := range cells {
		switch v.Kind() {
		case model.KindMissing:
			out[i] = model.Bool(true)
		case model.KindBool:
			out[i] = v
		case model.KindNumber:
			f, _ := v.Float()
			out[i] = model.Bool(f != 0)
		case model.KindText:
			s, _ := v.Str()
			out[i] = model.Bool(s != "")
		case model.KindDate:
			out[i] = model.Bool(true)
		}
	}
	return out, nil
}

// toDate parses text cells with the configured layout
func (c *TypeConverter) toDate(tbl *model.Table, col string) ([]model.Value, error) {
	cells, _ := tbl.Column(col)
	out := make([]model.Value, len(cells))
	for i, v := range cells {
		switch v.Kind() {
		case model.KindMissing, model.KindDate:
			out[i] = v
		case model.KindText:
			s, _ := v.Str()
			t, err := time.Parse(c.config.DateLayout, strings.TrimSpace(s))
			if err != nil {
				return nil, fmt.Errorf("time data %q at row %d does not match format %s", s, i, c.config.DateLayout)
			}
			out[i] = model.Date(t)
		default:
			return nil, fmt.Errorf("cannot convert %s cell at row %d to date", v.Kind(), i)
		}
	}
	return out, nil
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// ConvertValueForPostgres converts a cell to a value the PostgreSQL driver accepts
// for the target type. Missing cells become NULL.
func (c *TypeConverter) ConvertValueForPostgres(v model.Value, targetType string, colName string) (interface{}, error) {
	if v.IsMissing() {
		return nil, nil
	}

	targetType = strings.ToLower(targetType)
	switch {
	case strings.HasPrefix(targetType, "varchar"), targetType == "text":
		s := v.String()
		if s == "" && c.config.EmptyStringAsNull {
			return nil, nil
		}
		return s, nil

	case strings.HasPrefix(targetType, "numeric"),
		targetType == "integer",
		targetType == "smallint",
		targetType == "bigint",
		targetType == "double precision":
		return c.convertToNumeric(v, targetType, colName)

	case targetType == "boolean":
		if b, ok := v.Truth(); ok {
			return b, nil
		}
		if f, ok := v.Float(); ok {
			return f != 0, nil
		}
		return nil, fmt.Errorf("cannot convert %s value of %s to boolean", v.Kind(), colName)

	case strings.Contains(targetType, "timestamp"), targetType == "date":
		if t, ok := v.Time(); ok {
			return t, nil
		}
		if s, ok := v.Str(); ok {
			if format := DetectTimeFormat(s); format != "" {
				return time.Parse(format, s)
			}
		}
		return nil, fmt.Errorf("cannot parse %q of %s as timestamp", v.String(), colName)

	default:
		return v.String(), nil
	}
}

func (c *TypeConverter) convertToNumeric(v model.Value, targetType, colName string) (interface{}, error) {
	var f float64
	switch v.Kind() {
	case model.KindNumber:
		f, _ = v.Float()
	case model.KindBool:
		b, _ := v.Truth()
		f = boolToFloat(b)
	case model.KindText:
		s, _ := v.Str()
		parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil, fmt.Errorf("cannot convert string '%s' of %s to numeric", s, colName)
		}
		f = parsed
	default:
		return nil, fmt.Errorf("cannot convert %s value of %s to numeric", v.Kind(), colName)
	}

	if strings.Contains(targetType, "int") {
		return int64(math.Round(f)), nil
	}
	return f, nil
}
