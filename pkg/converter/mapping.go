// pkg/converter/mapping.go
package converter

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/David-Botos/prtr-cleaner/pkg/model"
)

// Patterns for type extraction
var (
	precisionScalePattern = regexp.MustCompile(`(?:NUMBER|DECIMAL|FIXED)\((\d+)(?:,\s*(\d+))?\)`)
	varcharLengthPattern  = regexp.MustCompile(`(?:VARCHAR|TEXT|STRING)\((\d+)\)`)
)

// getBaseType extracts the base type from a complex type definition
func getBaseType(fullType string) string {
	parts := strings.Split(fullType, "(")
	return strings.TrimSpace(parts[0])
}

// handleVarcharType sizes VARCHAR types
func (c *TypeConverter) handleVarcharType(fullType string) string {
	if !c.config.OptimizeStorage {
		return "TEXT"
	}
	matches := varcharLengthPattern.FindStringSubmatch(fullType)
	if len(matches) < 2 {
		return "TEXT"
	}
	length, err := strconv.Atoi(matches[1])
	if err != nil {
		return "TEXT"
	}
	return c.varcharFor(length)
}

// varcharFor rounds a maximum text length up to a standard VARCHAR size
func (c *TypeConverter) varcharFor(length int) string {
	switch {
	case length > c.config.MaxVarcharLength, length > 10000:
		c.logger.Debug("Using TEXT for long column", zap.Int("length", length))
		return "TEXT"
	case length > 1000:
		return "VARCHAR(10000)"
	case length > 255:
		return "VARCHAR(1000)"
	case length > 100:
		return "VARCHAR(255)"
	case length > 50:
		return "VARCHAR(100)"
	default:
		return "VARCHAR(50)"
	}
}

// handleNumberType processes NUMBER type with precision/scale
func (c *TypeConverter) handleNumberType(fullType string) string {
	matches := precisionScalePattern.FindStringSubmatch(fullType)
	if len(matches) < 2 {
		return "NUMERIC"
	}

	precision, err := strconv.Atoi(matches[1])
	if err != nil {
		return "NUMERIC"
	}
	scale := 0
	if len(matches) > 2 && matches[2] != "" {
		if s, err := strconv.Atoi(matches[2]); err == nil {
			scale = s
		}
	}

	if scale > 0 {
		return fmt.Sprintf("NUMERIC(%d,%d)", precision, scale)
	}
	switch {
	case precision <= 4:
		return "SMALLINT"
	case precision <= 9:
		return "INTEGER"
	case precision <= 18:
		return "BIGINT"
	default:
		return fmt.Sprintf("NUMERIC(%d)", precision)
	}
}

// KindForDatabaseType maps a driver column type name to the cell kind used when
// reading query results into a table
func KindForDatabaseType(dbType string) model.Kind {
	switch getBaseType(strings.ToUpper(dbType)) {
	case "NUMBER", "FIXED", "DECIMAL", "NUMERIC", "FLOAT", "REAL", "DOUBLE", "INTEGER", "INT", "BIGINT", "SMALLINT":
		return model.KindNumber
	case "BOOLEAN", "BOOL":
		return model.KindBool
	case "DATE", "TIMESTAMP_NTZ", "TIMESTAMP_TZ", "TIMESTAMP_LTZ", "TIMESTAMP":
		return model.KindDate
	default:
		return model.KindText
	}
}

// DetectTimeFormat analyzes a value to determine its timestamp format
func DetectTimeFormat(value string) string {
	formats := []string{
		"02/01/2006",                // Day/month/year, as in the extract
		"02/01/2006 15:04",          // Day/month/year with time
		"2006-01-02",                // Date only
		"2006-01-02 15:04:05",       // SQL timestamp
		"2006-01-02T15:04:05Z07:00", // ISO8601
		"2006-01-02T15:04:05.999999Z07:00",
	}

	for _, format := range formats {
		if _, err := time.Parse(format, value); err == nil {
			return format
		}
	}
	return ""
}
