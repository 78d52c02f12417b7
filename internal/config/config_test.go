package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/okrd/internal/phase"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "localhost", cfg.Server.Host)

	table, err := cfg.PhaseTable()
	require.NoError(t, err)
	assert.Equal(t, phase.DefaultTable(), table)
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "empty host",
			mutate:  func(c *Config) { c.Server.Host = "" },
			wantErr: "server host",
		},
		{
			name:    "bad port",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: "server port",
		},
		{
			name:    "bad shutdown timeout",
			mutate:  func(c *Config) { c.Server.ShutdownTimeout = 0 },
			wantErr: "shutdown_timeout",
		},
		{
			name:    "bad log format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: "format",
		},
		{
			name:    "negative turn rate",
			mutate:  func(c *Config) { c.Coach.TurnRate = -1 },
			wantErr: "turn_rate",
		},
		{
			name: "unknown phase name",
			mutate: func(c *Config) {
				c.Phases["negotiation"] = phase.Config{QualityThreshold: 0.5}
			},
			wantErr: "unknown phase",
		},
		{
			name: "out of range threshold",
			mutate: func(c *Config) {
				cfg := c.Phases["discovery"]
				cfg.QualityThreshold = 2.0
				c.Phases["discovery"] = cfg
			},
			wantErr: "quality_threshold",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Server.Port, cfg.Server.Port)
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 9999
logging:
  level: debug
  format: console
phases:
  discovery:
    quality_threshold: 0.8
    min_data_quality: 55
    min_messages: 4
    timeout_messages: 12
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)

	table, err := cfg.PhaseTable()
	require.NoError(t, err)
	assert.Equal(t, 0.8, table[phase.Discovery].QualityThreshold)
	assert.Equal(t, 55, table[phase.Discovery].MinDataQuality)
	// Untouched phases keep their defaults.
	assert.Equal(t, phase.DefaultTable()[phase.Validation], table[phase.Validation])
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9999\n"), 0o600))

	t.Setenv("OKRD_SERVER_PORT", "7001")
	t.Setenv("OKRD_LOGGING_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7001, cfg.Server.Port)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: -5\n"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server port")
}

func TestEnvTransformer(t *testing.T) {
	assert.Equal(t, "server.port", envTransformer("OKRD_SERVER_PORT"))
	assert.Equal(t, "telemetry.service_name", envTransformer("OKRD_TELEMETRY_SERVICE_NAME"))
	assert.Equal(t, "coach.cache_max_entries", envTransformer("OKRD_COACH_CACHE_MAX_ENTRIES"))
}
