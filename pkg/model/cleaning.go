// pkg/model/cleaning.go
package model

import (
	"time"
)

// CleaningOperation represents a single data cleaning operation
type CleaningOperation struct {
	SchemaName        string      // Dataset name (cache name)
	TableName         string      // Table name
	ColumnName        string      // Column that was cleaned
	OriginalValue     interface{} // Original value (nil when the cell was missing)
	NewValue          string      // New value after cleaning, "" for missing
	RowIdentifier     string      // Row number in the loaded extract
	CleaningOperation string      // Type of cleaning performed (e.g., "sentinel_reconciliation")
	CleaningReason    string      // Reason for cleaning (e.g., "rule_4_too_low_in_accidents")
	CleanedAt         time.Time
}

// Cleaning operation kinds
const (
	OpSentinelReconciliation = "sentinel_reconciliation"
	OpCommaRemoval           = "comma_removal"
	OpTypeStandardization    = "type_standardization"
	OpMissingPropagation     = "missing_propagation"
	OpUnavailableToMissing   = "unavailable_to_missing"
)
