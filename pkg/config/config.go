// pkg/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents the application configuration
type Config struct {
	// Input and output
	InputPath string
	OutputDir string
	CacheName string
	NAValues  []string // empty means the loader defaults

	// Cleaning
	VariabilityLow     int
	VariabilityHigh    int
	NameMaxLen         int
	CleaningAuditLimit int // 0 keeps every operation

	// Geocoding
	GeocoderURL       string
	GeocoderUserAgent string
	GeocoderCountry   string
	GeocoderTimeout   time.Duration
	GeocoderMinDelay  time.Duration

	// Charts
	ChartWidth    int
	ChartHeight   int
	ChartFontPath string
	ChartWorkers  int

	// Optional database connections; nil when not configured
	Snowflake *SnowflakeConfig
	Postgres  *PostgresConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		InputPath: getEnv("PRTR_INPUT", "MIFLAS_data.csv"),
		OutputDir: getEnv("PRTR_OUTPUT_DIR", "Output_files"),
		CacheName: getEnv("PRTR_CACHE_NAME", "cleanData"),
		NAValues:  getEnvAsStringSlice("PRTR_NA_VALUES", nil),

		VariabilityLow:     getEnvAsInt("VARIABILITY_LOW", 20),
		VariabilityHigh:    getEnvAsInt("VARIABILITY_HIGH", 200),
		NameMaxLen:         getEnvAsInt("NAME_MAX_LEN", 40),
		CleaningAuditLimit: getEnvAsInt("CLEANING_AUDIT_LIMIT", 0),

		GeocoderURL:       getEnv("GEOCODER_URL", "https://nominatim.openstreetmap.org"),
		GeocoderUserAgent: getEnv("GEOCODER_USER_AGENT", "myGeocoder"),
		GeocoderCountry:   getEnv("GEOCODER_COUNTRY", "il"),
		GeocoderTimeout:   getEnvAsDuration("GEOCODER_TIMEOUT_MS", 4000*time.Millisecond),
		GeocoderMinDelay:  getEnvAsDuration("GEOCODER_MIN_DELAY_MS", 1500*time.Millisecond),

		ChartWidth:    getEnvAsInt("CHART_WIDTH", 1600),
		ChartHeight:   getEnvAsInt("CHART_HEIGHT", 900),
		ChartFontPath: getEnv("CHART_FONT_PATH", ""),
		ChartWorkers:  getEnvAsInt("CHART_WORKERS", 4),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),
	}

	snowConfig, err := LoadSnowflakeConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load Snowflake configuration: %w", err)
	}
	cfg.Snowflake = snowConfig

	pgConfig, err := LoadPostgresConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load PostgreSQL configuration: %w", err)
	}
	cfg.Postgres = pgConfig

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures all required configuration is present and valid
func (c *Config) Validate() error {
	if c.InputPath == "" && c.Snowflake == nil {
		return errors.New("an input CSV path or a Snowflake source is required")
	}

	if c.OutputDir == "" {
		return errors.New("output directory is required")
	}

	if c.CacheName == "" {
		return errors.New("cache name is required")
	}

	if c.VariabilityLow < 0 || c.VariabilityHigh < 0 {
		return errors.New("variability cutoffs cannot be negative")
	}

	if c.NameMaxLen <= 0 {
		return errors.New("name length must be positive")
	}

	if c.CleaningAuditLimit < 0 {
		return errors.New("cleaning audit limit cannot be negative")
	}

	if c.GeocoderMinDelay <= 0 || c.GeocoderTimeout <= 0 {
		return errors.New("geocoder delay and timeout must be positive")
	}

	if c.ChartWidth <= 0 || c.ChartHeight <= 0 {
		return errors.New("chart dimensions must be positive")
	}

	if c.ChartWorkers <= 0 {
		return errors.New("chart workers must be positive")
	}

	return nil
}

// Helper functions for environment variables
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration reads a millisecond count
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	ms := getEnvAsInt(key, -1)
	if ms < 0 {
		return defaultValue
	}
	return time.Duration(ms) * time.Millisecond
}

// getEnvAsStringSlice parses a comma separated list, trimming whitespace and quotes
func getEnvAsStringSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var result []string
	for _, v := range strings.Split(value, ",") {
		v = strings.Trim(strings.TrimSpace(v), `"`)
		if v != "" {
			result = append(result, v)
		}
	}

	if len(result) == 0 {
		return defaultValue
	}
	return result
}
