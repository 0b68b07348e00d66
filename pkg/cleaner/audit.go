// pkg/cleaner/audit.go
package cleaner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/David-Botos/prtr-cleaner/pkg/model"
)

// AuditTable is the tracking table for cleaning operations
const AuditTable = "cleaned_on_ingress"

// AuditRecorder persists cleaning operations to a SQL database
type AuditRecorder struct {
	db     *sqlx.DB
	logger *zap.Logger
	table  string
}

// NewAuditRecorder creates the recorder and ensures the tracking table exists
func NewAuditRecorder(ctx context.Context, db *sqlx.DB, logger *zap.Logger) (*AuditRecorder, error) {
	if db == nil {
		return nil, errors.New("database connection cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	r := &AuditRecorder{
		db:     db,
		logger: logger.Named("audit"),
		table:  AuditTable,
	}
	if db.DriverName() == "postgres" || db.DriverName() == "pgx" {
		r.table = "public." + AuditTable
	}

	if err := r.setupCleaningTable(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

// setupCleaningTable ensures the tracking table exists
func (r *AuditRecorder) setupCleaningTable(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	idColumn := "id SERIAL PRIMARY KEY"
	cleanedAt := "cleaned_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP"
	if r.db.DriverName() == "sqlite3" {
		idColumn = "id INTEGER PRIMARY KEY AUTOINCREMENT"
		cleanedAt = "cleaned_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP"
	}

	createTableSQL := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			%s,
			schema_name TEXT NOT NULL,
			table_name TEXT NOT NULL,
			column_name TEXT NOT NULL,
			original_value TEXT,
			new_value TEXT NOT NULL,
			row_identifier TEXT NOT NULL,
			cleaning_operation TEXT NOT NULL,
			cleaning_reason TEXT NOT NULL,
			%s
		)
	`, r.table, idColumn, cleanedAt)

	if _, err := r.db.ExecContext(ctx, createTableSQL); err != nil {
		return fmt.Errorf("failed to create tracking table: %w", err)
	}

	r.logger.Debug("Ensured tracking table exists", zap.String("table", r.table))
	return nil
}

// RecordCleaningOperations batch inserts cleaning operations in a single transaction
func (r *AuditRecorder) RecordCleaningOperations(ctx context.Context, operations []model.CleaningOperation) (err error) {
	if len(operations) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				r.logger.Error("Failed to rollback transaction",
					zap.Error(rbErr),
					zap.NamedError("cause", err))
			}
		}
	}()

	stmt, err := tx.PreparexContext(ctx, tx.Rebind(fmt.Sprintf(`
		INSERT INTO %s
		(schema_name, table_name, column_name, original_value, new_value,
		 row_identifier, cleaning_operation, cleaning_reason, cleaned_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.table)))
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, op := range operations {
		cleanedAt := op.CleanedAt
		if cleanedAt.IsZero() {
			cleanedAt = time.Now()
		}
		if _, err = stmt.ExecContext(ctx,
			op.SchemaName,
			op.TableName,
			op.ColumnName,
			toNullableString(op.OriginalValue),
			op.NewValue,
			op.RowIdentifier,
			op.CleaningOperation,
			op.CleaningReason,
			cleanedAt.UTC(),
		); err != nil {
			return fmt.Errorf("failed to insert cleaning operation: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.logger.Info("Recorded cleaning operations", zap.Int("count", len(operations)))
	return nil
}

// CountOperations returns how many operations were recorded for a table
func (r *AuditRecorder) CountOperations(ctx context.Context, schema, table string) (int, error) {
	var n int
	query := r.db.Rebind(fmt.Sprintf(
		"SELECT COUNT(*) FROM %s WHERE schema_name = ? AND table_name = ?", r.table))
	if err := r.db.GetContext(ctx, &n, query, schema, table); err != nil {
		return 0, fmt.Errorf("failed to count cleaning operations: %w", err)
	}
	return n, nil
}
