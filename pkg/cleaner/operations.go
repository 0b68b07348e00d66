// pkg/cleaner/operations.go
package cleaner

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/David-Botos/prtr-cleaner/pkg/model"
)

var errNotNumeric = errors.New("not numeric")

// stripCommas removes thousands separators from a text cell.
// Reports whether the cell changed.
func stripCommas(v model.Value) (model.Value, bool) {
	s, ok := v.Str()
	if !ok || !strings.Contains(s, ",") {
		return v, false
	}
	return model.Text(strings.ReplaceAll(s, ",", "")), true
}

// parseNumeric converts a text cell to a number. Numbers and missing cells pass through.
func parseNumeric(v model.Value) (model.Value, error) {
	switch v.Kind() {
	case model.KindNumber, model.KindMissing:
		return v, nil
	case model.KindText:
		s, _ := v.Str()
		f, err := toFloat(s)
		if err != nil {
			return v, err
		}
		return model.Number(f), nil
	default:
		return v, fmt.Errorf("%w: %s cell", errNotNumeric, v.Kind())
	}
}

// isNumericCell reports whether a cell is a number or parses as one
func isNumericCell(v model.Value) bool {
	if v.Kind() == model.KindNumber {
		return true
	}
	s, ok := v.Str()
	if !ok {
		return false
	}
	_, err := toFloat(s)
	return err == nil
}

// toFloat parses trimmed text as float64
func toFloat(s string) (float64, error) {
	cleaned := strings.TrimSpace(s)
	if cleaned == "" {
		return 0, fmt.Errorf("%w: empty string", errNotNumeric)
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", errNotNumeric, s)
	}
	return f, nil
}

// sumValues adds two cells; anything non-numeric yields Missing
func sumValues(a, b model.Value) model.Value {
	x, ok := a.Float()
	if !ok {
		return model.Missing()
	}
	y, ok := b.Float()
	if !ok {
		return model.Missing()
	}
	return model.Number(x + y)
}

// toInterface unwraps a cell for audit records; Missing becomes nil
func toInterface(v model.Value) interface{} {
	switch v.Kind() {
	case model.KindNumber:
		f, _ := v.Float()
		return f
	case model.KindText:
		s, _ := v.Str()
		return s
	case model.KindBool:
		b, _ := v.Truth()
		return b
	case model.KindDate:
		t, _ := v.Time()
		return t
	default:
		return nil
	}
}

// toString converts an interface to string
func toString(v interface{}) string {
	if v == nil {
		return ""
	}

	switch val := v.(type) {
	case string:
		return val
	case []byte:
		return string(val)
	case time.Time:
		return val.Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// toNullableString safely converts an interface to a nullable string
func toNullableString(v interface{}) *string {
	if v == nil {
		return nil
	}
	s := toString(v)
	return &s
}

// newOperation builds an audit record for a single cell change
func (c *DataCleaner) newOperation(
	column string,
	row int,
	before, after model.Value,
	operation, reason string,
) model.CleaningOperation {
	return model.CleaningOperation{
		SchemaName:        c.schema,
		TableName:         c.table,
		ColumnName:        column,
		OriginalValue:     toInterface(before),
		NewValue:          after.String(),
		RowIdentifier:     strconv.Itoa(row),
		CleaningOperation: operation,
		CleaningReason:    reason,
		CleanedAt:         c.now(),
	}
}
