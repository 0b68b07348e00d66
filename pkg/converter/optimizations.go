// pkg/converter/optimizations.go
package converter

import (
	"math"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/David-Botos/prtr-cleaner/pkg/model"
)

// OptimizeTableMetadata picks a PostgreSQL type for every column from the cleaned cells
func (c *TypeConverter) OptimizeTableMetadata(metadata *model.TableMetadata, tbl *model.Table) *model.TableMetadata {
	optimized := &model.TableMetadata{
		Dataset: metadata.Dataset,
		Table:   metadata.Table,
		Columns: make([]model.Column, len(metadata.Columns)),
	}

	for i, col := range metadata.Columns {
		optimized.Columns[i] = c.optimizeColumn(col, tbl)
	}
	return optimized
}

// optimizeColumn narrows a column's storage type
func (c *TypeConverter) optimizeColumn(col model.Column, tbl *model.Table) model.Column {
	optimized := col
	optimized.PgType = PostgresType(model.Column{Kind: col.Kind})
	if !c.config.OptimizeStorage || !tbl.HasColumn(col.Name) {
		return optimized
	}

	cells, _ := tbl.Column(col.Name)
	switch col.Kind {
	case model.KindNumber:
		if allIntegral(cells) {
			optimized.PgType = "BIGINT"
		}
	case model.KindText:
		if col.Type == model.ColumnCategory {
			break
		}
		optimized.PgType = c.varcharFor(maxTextLength(cells))
	}

	if optimized.PgType != PostgresType(model.Column{Kind: col.Kind}) {
		c.logger.Debug("Optimized column type",
			zap.String("column", col.Name),
			zap.String("to", optimized.PgType))
	}
	return optimized
}

func allIntegral(cells []model.Value) bool {
	seen := false
	for _, v := range cells {
		if v.IsMissing() {
			continue
		}
		f, ok := v.Float()
		if !ok || f != math.Trunc(f) || math.Abs(f) > math.MaxInt64/2 {
			return false
		}
		seen = true
	}
	return seen
}

func maxTextLength(cells []model.Value) int {
	longest := 0
	for _, v := range cells {
		if n := utf8.RuneCountInString(v.String()); n > longest {
			longest = n
		}
	}
	return longest
}

// AnalyzeTableForOptimization lists columns whose storage could be tightened
func (c *TypeConverter) AnalyzeTableForOptimization(metadata *model.TableMetadata) []string {
	var suggestions []string
	for _, col := range metadata.Columns {
		if col.Kind == model.KindText && col.Type == model.ColumnUnchanged {
			suggestions = append(suggestions, col.Name+": text column left unchanged, consider category or numeric")
		}
		if col.Kind == model.KindMissing {
			suggestions = append(suggestions, col.Name+": no values, consider deleting")
		}
	}
	return suggestions
}
