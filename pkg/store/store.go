// Package store caches cleaned tables and geocoding results in a SQLite file
// inside the output directory.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/David-Botos/prtr-cleaner/pkg/model"
)

// ErrNotCached is returned when a table has not been saved yet
var ErrNotCached = errors.New("table not cached")

// FileName is the cache file created in the output directory
const FileName = "prtr_cache.db"

const schema = `
	CREATE TABLE IF NOT EXISTS cached_tables (
		name TEXT PRIMARY KEY,
		row_count INTEGER NOT NULL,
		payload BLOB NOT NULL,
		saved_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE TABLE IF NOT EXISTS city_geolocations (
		yeshuv TEXT PRIMARY KEY,
		latitude REAL,
		longitude REAL,
		altitude REAL,
		found INTEGER NOT NULL,
		fetched_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);`

// Store is the SQLite-backed cache
type Store struct {
	db     *sqlx.DB
	logger *zap.Logger
	Path   string
}

// Open creates or opens the cache in dir. An empty dir opens an in-memory cache.
func Open(ctx context.Context, dir string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	dsn := ":memory:"
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
		dsn = filepath.Join(dir, FileName)
	}

	db, err := sqlx.ConnectContext(ctx, "sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache %s: %w", dsn, err)
	}
	// one connection keeps an in-memory database alive and serializes writers
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create cache tables: %w", err)
	}

	logger.Debug("Opened cache", zap.String("path", dsn))
	return &Store{db: db, logger: logger.Named("store"), Path: dsn}, nil
}

// DB exposes the underlying handle for the cleaning audit trail
func (s *Store) DB() *sqlx.DB { return s.db }

// Close closes the cache
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Has reports whether a table is cached under name
func (s *Store) Has(ctx context.Context, name string) (bool, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM cached_tables WHERE name = ?`, name); err != nil {
		return false, fmt.Errorf("failed to query cache: %w", err)
	}
	return n > 0, nil
}

// SaveTable writes a table if it is not cached yet, or replaces it when force is set.
// Reports whether anything was written.
func (s *Store) SaveTable(ctx context.Context, name string, tbl *model.Table, force bool) (bool, error) {
	if tbl == nil {
		return false, fmt.Errorf("%w: table cannot be nil", model.ErrInvalidInput)
	}

	payload, err := json.Marshal(tbl)
	if err != nil {
		return false, fmt.Errorf("failed to serialize table %s: %w", name, err)
	}

	query := `INSERT OR IGNORE INTO cached_tables (name, row_count, payload, saved_at) VALUES (?, ?, ?, ?)`
	if force {
		query = `INSERT OR REPLACE INTO cached_tables (name, row_count, payload, saved_at) VALUES (?, ?, ?, ?)`
	}
	res, err := s.db.ExecContext(ctx, query, name, tbl.NumRows(), payload, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("failed to save table %s: %w", name, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to save table %s: %w", name, err)
	}
	written := n > 0
	s.logger.Info("Saved table to cache",
		zap.String("name", name),
		zap.Int("rows", tbl.NumRows()),
		zap.Bool("written", written))
	return written, nil
}

// LoadTable reads a cached table or returns ErrNotCached
func (s *Store) LoadTable(ctx context.Context, name string) (*model.Table, error) {
	var payload []byte
	err := s.db.GetContext(ctx, &payload, `SELECT payload FROM cached_tables WHERE name = ?`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotCached, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load table %s: %w", name, err)
	}

	tbl := &model.Table{}
	if err := json.Unmarshal(payload, tbl); err != nil {
		return nil, fmt.Errorf("failed to decode table %s: %w", name, err)
	}
	return tbl, nil
}

// VerifyRowCount checks that the cached copy of a table has as many rows as tbl
func (s *Store) VerifyRowCount(ctx context.Context, name string, tbl *model.Table) error {
	var n int64
	err := s.db.GetContext(ctx, &n, `SELECT row_count FROM cached_tables WHERE name = ?`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrNotCached, name)
	}
	if err != nil {
		return fmt.Errorf("failed to verify table %s: %w", name, err)
	}
	if n != int64(tbl.NumRows()) {
		return fmt.Errorf("row count mismatch for %s: cached %d, in memory %d", name, n, tbl.NumRows())
	}
	return nil
}
