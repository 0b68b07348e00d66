package config

import (
	"testing"
	"time"

	"github.com/snowflakedb/gosnowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PRTR_INPUT", "PRTR_OUTPUT_DIR", "PRTR_CACHE_NAME", "PRTR_NA_VALUES",
		"VARIABILITY_LOW", "VARIABILITY_HIGH", "NAME_MAX_LEN", "CLEANING_AUDIT_LIMIT",
		"GEOCODER_URL", "GEOCODER_TIMEOUT_MS", "GEOCODER_MIN_DELAY_MS",
		"CHART_WIDTH", "CHART_HEIGHT", "CHART_WORKERS",
		"SNOWFLAKE_ACCOUNT", "SNOWFLAKE_USER", "SNOWFLAKE_PASSWORD", "SNOWFLAKE_WAREHOUSE",
		"SNOWFLAKE_AUTHENTICATOR", "SNOWFLAKE_ROLE",
		"POSTGRES_DB", "POSTGRES_USER", "POSTGRES_PASSWORD", "POSTGRES_PORT", "TUNNEL_PORT",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "MIFLAS_data.csv", cfg.InputPath)
	assert.Equal(t, "Output_files", cfg.OutputDir)
	assert.Equal(t, "cleanData", cfg.CacheName)
	assert.Nil(t, cfg.NAValues)
	assert.Equal(t, 20, cfg.VariabilityLow)
	assert.Equal(t, 200, cfg.VariabilityHigh)
	assert.Equal(t, 40, cfg.NameMaxLen)
	assert.Equal(t, 4*time.Second, cfg.GeocoderTimeout)
	assert.Equal(t, 1500*time.Millisecond, cfg.GeocoderMinDelay)
	assert.Equal(t, 4, cfg.ChartWorkers)
	assert.Nil(t, cfg.Snowflake)
	assert.Nil(t, cfg.Postgres)
}

func TestLoadConfigOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("VARIABILITY_LOW", "5")
	t.Setenv("GEOCODER_MIN_DELAY_MS", "2000")
	t.Setenv("PRTR_NA_VALUES", `NA, "n/a" ,,-`)
	t.Setenv("CHART_WIDTH", "not a number")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.VariabilityLow)
	assert.Equal(t, 2*time.Second, cfg.GeocoderMinDelay)
	assert.Equal(t, []string{"NA", "n/a", "-"}, cfg.NAValues)
	assert.Equal(t, 1600, cfg.ChartWidth, "unparsable values fall back to the default")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			InputPath: "in.csv", OutputDir: "out", CacheName: "cleanData",
			NameMaxLen: 40, GeocoderTimeout: time.Second, GeocoderMinDelay: time.Second,
			ChartWidth: 10, ChartHeight: 10, ChartWorkers: 1,
		}
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no input", func(c *Config) { c.InputPath = "" }},
		{"no output", func(c *Config) { c.OutputDir = "" }},
		{"negative cutoff", func(c *Config) { c.VariabilityLow = -1 }},
		{"zero name length", func(c *Config) { c.NameMaxLen = 0 }},
		{"negative audit limit", func(c *Config) { c.CleaningAuditLimit = -1 }},
		{"zero delay", func(c *Config) { c.GeocoderMinDelay = 0 }},
		{"zero workers", func(c *Config) { c.ChartWorkers = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}

	t.Run("snowflake replaces the input file", func(t *testing.T) {
		c := valid()
		c.InputPath = ""
		c.Snowflake = &SnowflakeConfig{}
		assert.NoError(t, c.Validate())
	})
}

func TestOptionalDatabases(t *testing.T) {
	clearEnv(t)

	t.Run("partial snowflake config is rejected", func(t *testing.T) {
		t.Setenv("SNOWFLAKE_ACCOUNT", "acme")
		_, err := LoadSnowflakeConfig()
		assert.Error(t, err)
	})

	t.Run("snowflake", func(t *testing.T) {
		t.Setenv("SNOWFLAKE_ACCOUNT", "acme")
		t.Setenv("SNOWFLAKE_USER", "u")
		t.Setenv("SNOWFLAKE_PASSWORD", "p")
		t.Setenv("SNOWFLAKE_WAREHOUSE", "wh")
		t.Setenv("SNOWFLAKE_AUTHENTICATOR", "jwt")

		sf, err := LoadSnowflakeConfig()
		require.NoError(t, err)
		require.NotNil(t, sf)
		assert.Equal(t, gosnowflake.AuthTypeJwt, sf.Authenticator)
		assert.Contains(t, sf.ConnectionString(), "u:p@acme/PRTR/MIFLAS?warehouse=wh")
	})

	t.Run("postgres", func(t *testing.T) {
		t.Setenv("POSTGRES_DB", "prtr")
		_, err := LoadPostgresConfig()
		assert.Error(t, err)

		t.Setenv("POSTGRES_USER", "u")
		t.Setenv("POSTGRES_PASSWORD", "p")
		t.Setenv("TUNNEL_PORT", "6543")
		pg, err := LoadPostgresConfig()
		require.NoError(t, err)
		assert.Equal(t, 6543, pg.Port)
		assert.Equal(t, "miflas_clean", pg.Table)
		assert.Equal(t, "host=localhost port=6543 user=u password=p dbname=prtr sslmode=disable", pg.ConnectionString())
	})
}
