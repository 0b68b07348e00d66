// pkg/connector/factory.go
package connector

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/David-Botos/prtr-cleaner/pkg/config"
)

// ConnectorFactory creates the optional database connectors
type ConnectorFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewConnectorFactory creates a new connector factory
func NewConnectorFactory(cfg *config.Config, logger *zap.Logger) *ConnectorFactory {
	return &ConnectorFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// HasSnowflake reports whether a Snowflake source is configured
func (f *ConnectorFactory) HasSnowflake() bool { return f.cfg.Snowflake != nil }

// HasPostgres reports whether a Postgres sink is configured
func (f *ConnectorFactory) HasPostgres() bool { return f.cfg.Postgres != nil }

// CreateSnowflakeConnector connects and validates the Snowflake source
func (f *ConnectorFactory) CreateSnowflakeConnector(ctx context.Context) (*SnowflakeConnector, error) {
	f.logger.Info("Creating Snowflake connector")

	conn, err := NewSnowflakeConnector(ctx, f.cfg.Snowflake)
	if err != nil {
		return nil, fmt.Errorf("failed to create Snowflake connector: %w", err)
	}
	if err := conn.Validate(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

// CreatePostgresConnector connects and validates the Postgres sink
func (f *ConnectorFactory) CreatePostgresConnector(ctx context.Context) (*PostgresConnector, error) {
	f.logger.Info("Creating PostgreSQL connector")

	conn, err := NewPostgresConnector(ctx, f.cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("failed to create PostgreSQL connector: %w", err)
	}
	if err := conn.Validate(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}
