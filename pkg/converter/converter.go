// pkg/converter/converter.go
package converter

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/David-Botos/prtr-cleaner/pkg/model"
)

// ErrConversion marks a whole-column conversion that could not be applied
var ErrConversion = errors.New("conversion failed")

// TypeConverter handles column conversions chosen by the analyst and the mapping of
// cleaned columns to PostgreSQL types
type TypeConverter struct {
	logger *zap.Logger
	// Configuration options
	config TypeConverterConfig
}

// TypeConverterConfig provides configuration options for type conversion
type TypeConverterConfig struct {
	// Layout used when converting text to dates (day/month/year in the extract)
	DateLayout string
	// Maximum VARCHAR length before converting to TEXT
	MaxVarcharLength int
	// Whether to size VARCHAR columns from the data
	OptimizeStorage bool
	// Whether to treat empty strings as NULL on export
	EmptyStringAsNull bool
}

// DefaultConfig returns the default configuration
func DefaultConfig() TypeConverterConfig {
	return TypeConverterConfig{
		DateLayout:        "02/01/2006",
		MaxVarcharLength:  10485760, // 10MB is PostgreSQL's TEXT practical limit
		OptimizeStorage:   true,
		EmptyStringAsNull: true,
	}
}

// NewTypeConverter creates a new TypeConverter with default configuration
func NewTypeConverter(logger *zap.Logger) *TypeConverter {
	return NewTypeConverterWithConfig(logger, DefaultConfig())
}

// NewTypeConverterWithConfig creates a TypeConverter with custom configuration
func NewTypeConverterWithConfig(logger *zap.Logger, config TypeConverterConfig) *TypeConverter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.DateLayout == "" {
		config.DateLayout = DefaultConfig().DateLayout
	}
	return &TypeConverter{
		logger: logger.Named("converter"),
		config: config,
	}
}

// ConvertColumn applies the analyst's choice to a column. Conversions are all or
// nothing: on failure the column is left untouched and the error wraps ErrConversion.
func (c *TypeConverter) ConvertColumn(tbl *model.Table, col string, typ model.ColumnType) error {
	if err := tbl.MustHave(col); err != nil {
		return err
	}

	var (
		converted []model.Value
		err       error
	)
	switch typ {
	case model.ColumnUnchanged, model.ColumnCategory, model.ColumnManual:
		// values unchanged; the decision lives in the table metadata
		return nil
	case model.ColumnNumeric:
		converted, err = c.toNumeric(tbl, col)
	case model.ColumnBool:
		converted, err = c.toBool(tbl, col)
	case model.ColumnDate:
		converted, err = c.toDate(tbl, col)
	default:
		return fmt.Errorf("%w: unknown column type %q", model.ErrInvalidInput, typ)
	}
	if err != nil {
		c.logger.Debug("Column conversion failed",
			zap.String("column", col),
			zap.String("type", string(typ)),
			zap.Error(err))
		return fmt.Errorf("%w: %s cannot be converted into %s: %v", ErrConversion, col, typ, err)
	}

	return tbl.SetColumn(col, converted)
}

// MapSnowflakeTypeToPostgres converts a Snowflake data type to PostgreSQL
func (c *TypeConverter) MapSnowflakeTypeToPostgres(snowType string) (string, error) {
	// Handle NULL type
	if snowType == "" || strings.EqualFold(snowType, "NULL") {
		return "TEXT", nil
	}

	snowType = strings.ToUpper(snowType)
	switch getBaseType(snowType) {
	case "VARCHAR", "TEXT", "STRING":
		return c.handleVarcharType(snowType), nil
	case "NUMBER", "FIXED", "DECIMAL":
		return c.handleNumberType(snowType), nil
	case "DATE":
		return "DATE", nil
	case "TIMESTAMP_NTZ":
		return "TIMESTAMP", nil
	case "TIMESTAMP_TZ", "TIMESTAMP_LTZ":
		return "TIMESTAMP WITH TIME ZONE", nil
	case "BOOLEAN":
		return "BOOLEAN", nil
	case "FLOAT", "REAL", "DOUBLE":
		return "DOUBLE PRECISION", nil
	default:
		c.logger.Warn("Unknown Snowflake type encountered",
			zap.String("snowflakeType", snowType))
		return "TEXT", fmt.Errorf("unknown Snowflake type: %s (mapped to TEXT as fallback)", snowType)
	}
}

// PostgresType maps a cleaned column to a PostgreSQL type
func PostgresType(col model.Column) string {
	if col.PgType != "" {
		return col.PgType
	}
	switch col.Kind {
	case model.KindNumber:
		return "DOUBLE PRECISION"
	case model.KindBool:
		return "BOOLEAN"
	case model.KindDate:
		return "DATE"
	default:
		return "TEXT"
	}
}

// GenerateColumnDefinitions creates PostgreSQL column definitions
func (c *TypeConverter) GenerateColumnDefinitions(metadata *model.TableMetadata) ([]string, error) {
	if metadata == nil || len(metadata.Columns) == 0 {
		return nil, fmt.Errorf("%w: no columns to define", model.ErrInvalidInput)
	}

	definitions := make([]string, 0, len(metadata.Columns))
	for _, col := range metadata.Columns {
		nullability := "NULL"
		if !col.Nullable {
			nullability = "NOT NULL"
		}
		definitions = append(definitions, fmt.Sprintf("%s %s %s",
			pq.QuoteIdentifier(col.Name),
			PostgresType(col),
			nullability))
	}

	return definitions, nil
}
