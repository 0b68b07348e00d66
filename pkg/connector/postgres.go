// pkg/connector/postgres.go
package connector

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v4/stdlib"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/David-Botos/prtr-cleaner/pkg/config"
	"github.com/David-Botos/prtr-cleaner/pkg/converter"
	"github.com/David-Botos/prtr-cleaner/pkg/model"
)

// PostgresConnector writes the cleaned extract to PostgreSQL
type PostgresConnector struct {
	db     *sql.DB
	logger *zap.Logger
	cfg    *config.PostgresConfig
}

// NewPostgresConnector creates and initializes a new PostgreSQL connector
func NewPostgresConnector(ctx context.Context, cfg *config.PostgresConfig) (*PostgresConnector, error) {
	if cfg == nil {
		return nil, fmt.Errorf("postgres: %w", ErrNotConfigured)
	}
	logger := zap.L().Named("postgres-connector")

	logger.Info("Connecting to PostgreSQL",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("database", cfg.Database),
		zap.String("user", cfg.User))

	db, err := sql.Open("pgx", cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize PostgreSQL connection: %w", err)
	}

	ApplyConnectionSettings(
		db,
		cfg.MaxOpenConns,
		cfg.MaxIdleConns,
		cfg.ConnMaxLifetime,
		cfg.ConnMaxIdleTime,
	)

	if err := PingWithTimeout(ctx, db, 5*time.Second); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	if cfg.StatementTimeout > 0 {
		_, err = db.ExecContext(ctx,
			fmt.Sprintf("SET statement_timeout = %d", cfg.StatementTimeout.Milliseconds()))
		if err != nil {
			logger.Warn("Failed to set statement timeout", zap.Error(err))
		}
	}

	LogConnectionStats(logger, cfg.Database, db)
	return &PostgresConnector{db: db, logger: logger, cfg: cfg}, nil
}

// DB returns the underlying database connection
func (c *PostgresConnector) DB() *sql.DB {
	return c.db
}

// Validate checks the server version and makes sure the target schema exists
func (c *PostgresConnector) Validate(ctx context.Context) error {
	var version string
	if err := c.db.QueryRowContext(ctx, "SELECT version()").Scan(&version); err != nil {
		return fmt.Errorf("failed to query PostgreSQL version: %w", err)
	}
	c.logger.Info("Connected to PostgreSQL", zap.String("version", version))

	if _, err := c.ExecWithTimeout(ctx,
		"CREATE SCHEMA IF NOT EXISTS "+pq.QuoteIdentifier(c.cfg.Schema), 30*time.Second); err != nil {
		return fmt.Errorf("failed to create/verify schema %s: %w", c.cfg.Schema, err)
	}

	c.logger.Info("PostgreSQL connection validated",
		zap.String("database", c.cfg.Database),
		zap.String("schema", c.cfg.Schema))
	return nil
}

// Close closes the database connection
func (c *PostgresConnector) Close() error {
	c.logger.Info("Closing PostgreSQL connection")
	LogConnectionStats(c.logger, c.cfg.Database, c.db)
	return c.db.Close()
}

// ExecWithTimeout executes a statement with a timeout
func (c *PostgresConnector) ExecWithTimeout(
	ctx context.Context,
	query string,
	timeout time.Duration,
	args ...interface{},
) (sql.Result, error) {
	queryCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.db.ExecContext(queryCtx, query, args...)
}

// qualified quotes schema and table
func qualified(schema, table string) string {
	return pq.QuoteIdentifier(schema) + "." + pq.QuoteIdentifier(table)
}

// insertStatement builds a multi-row INSERT with numbered placeholders
func insertStatement(schema, table string, columns []string, rowCount int) string {
	quoted := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = pq.QuoteIdentifier(col)
	}

	placeholders := make([]string, rowCount)
	for j := 0; j < rowCount; j++ {
		row := make([]string, len(columns))
		for k := range columns {
			row[k] = fmt.Sprintf("$%d", j*len(columns)+k+1)
		}
		placeholders[j] = "(" + strings.Join(row, ", ") + ")"
	}

	return fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		qualified(schema, table), strings.Join(quoted, ", "), strings.Join(placeholders, ", "))
}

// BatchInsert performs a bulk insert into a table
func (c *PostgresConnector) BatchInsert(
	ctx context.Context,
	schema string,
	table string,
	columns []string,
	valueRows [][]interface{},
	batchSize int,
) (int64, error) {
	if len(valueRows) == 0 {
		return 0, nil
	}
	if batchSize <= 0 {
		batchSize = 1000
	}
	// Postgres accepts at most 65535 bind parameters per statement
	if maxRows := 65535 / len(columns); batchSize > maxRows {
		batchSize = maxRows
	}

	var totalRowsInserted int64
	for i := 0; i < len(valueRows); i += batchSize {
		end := i + batchSize
		if end > len(valueRows) {
			end = len(valueRows)
		}
		batch := valueRows[i:end]

		args := make([]interface{}, 0, len(batch)*len(columns))
		for _, row := range batch {
			args = append(args, row...)
		}

		result, err := c.ExecWithTimeout(ctx, insertStatement(schema, table, columns, len(batch)), 30*time.Second, args...)
		if err != nil {
			return totalRowsInserted, fmt.Errorf("batch insert failed at row %d: %w", i, err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			c.logger.Warn("Couldn't get rows affected", zap.Error(err))
		} else {
			totalRowsInserted += rowsAffected
		}
	}

	return totalRowsInserted, nil
}

// CreateTableIfNotExists creates a table with the given column definitions if it doesn't exist
func (c *PostgresConnector) CreateTableIfNotExists(
	ctx context.Context,
	schema string,
	table string,
	columnDefs []string,
) error {
	var exists bool
	err := c.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT FROM information_schema.tables
			WHERE table_schema = $1 AND table_name = $2
		)`, schema, table).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check if table exists: %w", err)
	}

	fullTableName := qualified(schema, table)
	if exists {
		c.logger.Debug("Table already exists", zap.String("table", fullTableName))
		return nil
	}

	createSQL := fmt.Sprintf("CREATE TABLE %s (\n\t%s\n)", fullTableName, strings.Join(columnDefs, ",\n\t"))
	if _, err := c.ExecWithTimeout(ctx, createSQL, 30*time.Second); err != nil {
		return fmt.Errorf("failed to create table %s: %w", fullTableName, err)
	}

	c.logger.Info("Created table", zap.String("table", fullTableName))
	return nil
}

// TableRows converts every cell to the value the column's PostgreSQL type expects.
// Cells that cannot be converted, such as text left in a numeric column for manual
// inspection, are written as NULL and counted. Their columns are marked nullable.
func TableRows(tbl *model.Table, md *model.TableMetadata, conv *converter.TypeConverter) ([]string, [][]interface{}, int, error) {
	columns := make([]string, len(md.Columns))
	types := make([]string, len(md.Columns))
	for i, col := range md.Columns {
		if err := tbl.MustHave(col.Name); err != nil {
			return nil, nil, 0, err
		}
		columns[i] = col.Name
		types[i] = converter.PostgresType(col)
	}

	nulled := 0
	out := make([][]interface{}, tbl.NumRows())
	for r := range out {
		row := make([]interface{}, len(columns))
		for i, name := range columns {
			v, err := conv.ConvertValueForPostgres(tbl.Get(r, name), types[i], name)
			if err != nil {
				nulled++
				md.Columns[i].Nullable = true
				v = nil
			}
			row[i] = v
		}
		out[r] = row
	}
	return columns, out, nulled, nil
}

// WriteTable creates the configured target table from the metadata and inserts
// every row of the cleaned extract
func (c *PostgresConnector) WriteTable(ctx context.Context, tbl *model.Table, md *model.TableMetadata, conv *converter.TypeConverter) (int64, error) {
	columns, rows, nulled, err := TableRows(tbl, md, conv)
	if err != nil {
		return 0, err
	}
	if nulled > 0 {
		c.logger.Warn("Cells written as NULL after failed conversion", zap.Int("cells", nulled))
	}

	defs, err := conv.GenerateColumnDefinitions(md)
	if err != nil {
		return 0, err
	}
	if err := c.CreateTableIfNotExists(ctx, c.cfg.Schema, c.cfg.Table, defs); err != nil {
		return 0, err
	}

	n, err := c.BatchInsert(ctx, c.cfg.Schema, c.cfg.Table, columns, rows, c.cfg.BatchSize)
	if err != nil {
		return n, err
	}

	c.logger.Info("Cleaned extract written",
		zap.String("table", qualified(c.cfg.Schema, c.cfg.Table)),
		zap.Int64("rows", n))
	return n, nil
}
