// pkg/connector/connector.go
package connector

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/David-Botos/prtr-cleaner/pkg/converter"
	"github.com/David-Botos/prtr-cleaner/pkg/model"
)

// ErrNotConfigured is returned when an optional database has no configuration
var ErrNotConfigured = errors.New("database not configured")

// DatabaseConnector defines the interface for database connectors
type DatabaseConnector interface {
	// DB returns the underlying database connection
	DB() *sql.DB

	// Validate verifies the connection and permissions
	Validate(ctx context.Context) error

	// Close closes the connection and releases resources
	Close() error

	// ExecWithTimeout executes a statement with a timeout
	ExecWithTimeout(ctx context.Context, query string, timeout time.Duration, args ...interface{}) (sql.Result, error)
}

// ConnStats contains standardized connection statistics
type ConnStats struct {
	OpenConnections int
	InUse           int
	Idle            int
	MaxOpenConns    int
	WaitCount       int64
	WaitDuration    time.Duration
}

// GetConnectionStats returns connection pool statistics for logging
func GetConnectionStats(db *sql.DB) ConnStats {
	stats := db.Stats()
	return ConnStats{
		OpenConnections: stats.OpenConnections,
		InUse:           stats.InUse,
		Idle:            stats.Idle,
		MaxOpenConns:    stats.MaxOpenConnections,
		WaitCount:       stats.WaitCount,
		WaitDuration:    stats.WaitDuration,
	}
}

// LogConnectionStats logs connection pool statistics
func LogConnectionStats(logger *zap.Logger, name string, db *sql.DB) {
	stats := GetConnectionStats(db)
	logger.Debug("Connection pool stats",
		zap.String("database", name),
		zap.Int("open_connections", stats.OpenConnections),
		zap.Int("in_use", stats.InUse),
		zap.Int("idle", stats.Idle),
		zap.Int("max_open", stats.MaxOpenConns),
		zap.Int64("wait_count", stats.WaitCount),
		zap.Duration("wait_duration", stats.WaitDuration),
	)
}

// PingWithTimeout attempts to ping a database with a timeout
func PingWithTimeout(ctx context.Context, db *sql.DB, timeout time.Duration) error {
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		if pingCtx.Err() != nil {
			return fmt.Errorf("ping timed out after %v: %w", timeout, pingCtx.Err())
		}
		return err
	}
	return nil
}

// ApplyConnectionSettings configures database connection pool settings
func ApplyConnectionSettings(db *sql.DB, maxOpen, maxIdle int, maxLifetime, maxIdleTime time.Duration) {
	if maxOpen > 0 {
		db.SetMaxOpenConns(maxOpen)
	}
	if maxIdle > 0 {
		db.SetMaxIdleConns(maxIdle)
	}
	if maxLifetime > 0 {
		db.SetConnMaxLifetime(maxLifetime)
	}
	if maxIdleTime > 0 {
		db.SetConnMaxIdleTime(maxIdleTime)
	}
}

// SourceTypes returns the driver type name of every result column
func SourceTypes(rows *sql.Rows) (map[string]string, error) {
	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("failed to read column types: %w", err)
	}
	out := make(map[string]string, len(types))
	for _, ct := range types {
		out[ct.Name()] = ct.DatabaseTypeName()
	}
	return out, nil
}

// RowsToTable reads a whole result set into a table. Cell kinds follow the
// driver's column type names; text that does not fit its column kind stays text.
func RowsToTable(rows *sql.Rows, name string) (*model.Table, error) {
	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("failed to read column types: %w", err)
	}

	columns := make([]string, len(types))
	kinds := make([]model.Kind, len(types))
	for i, ct := range types {
		columns[i] = ct.Name()
		kinds[i] = converter.KindForDatabaseType(ct.DatabaseTypeName())
	}

	tbl := model.NewTable(columns...)
	tbl.Name = name

	raw := make([]interface{}, len(columns))
	ptrs := make([]interface{}, len(columns))
	for i := range raw {
		ptrs[i] = &raw[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row %d: %w", tbl.NumRows(), err)
		}
		cells := make([]model.Value, len(raw))
		for i, v := range raw {
			cells[i] = cellFromDriver(v, kinds[i])
		}
		if err := tbl.AppendRow(cells); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return tbl, nil
}

// cellFromDriver converts a scanned driver value into a cell
func cellFromDriver(v interface{}, kind model.Kind) model.Value {
	switch val := v.(type) {
	case nil:
		return model.Missing()
	case int64:
		return model.Number(float64(val))
	case float64:
		return model.Number(val)
	case bool:
		return model.Bool(val)
	case time.Time:
		return model.Date(val)
	case []byte:
		return cellFromText(string(val), kind)
	case string:
		return cellFromText(val, kind)
	default:
		return model.Text(fmt.Sprintf("%v", val))
	}
}

func cellFromText(s string, kind model.Kind) model.Value {
	switch kind {
	case model.KindNumber:
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return model.Number(f)
		}
	case model.KindBool:
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return model.Bool(b)
		}
	}
	return model.Text(s)
}
