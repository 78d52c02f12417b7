// Package config loads the engine configuration from YAML and the
// environment. Precedence, highest first: environment variables, the YAML
// config file, built-in defaults.
package config

import (
	"fmt"
	"time"

	"github.com/fyrsmithlabs/okrd/internal/logging"
	"github.com/fyrsmithlabs/okrd/internal/phase"
	"github.com/fyrsmithlabs/okrd/internal/telemetry"
)

// Config is the complete okrd configuration.
type Config struct {
	Server    ServerConfig            `koanf:"server"`
	Logging   logging.Config          `koanf:"logging"`
	Telemetry telemetry.Config        `koanf:"telemetry"`
	Coach     CoachConfig             `koanf:"coach"`
	Phases    map[string]phase.Config `koanf:"phases"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// CoachConfig holds decision-engine tunables.
type CoachConfig struct {
	CacheTTL        time.Duration `koanf:"cache_ttl"`
	CacheMaxEntries int           `koanf:"cache_max_entries"`

	// TurnRate is the per-session turn rate limit in turns per second.
	// Zero disables limiting.
	TurnRate  float64 `koanf:"turn_rate"`
	TurnBurst int     `koanf:"turn_burst"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8090,
			ShutdownTimeout: 10 * time.Second,
		},
		Logging:   logging.DefaultConfig(),
		Telemetry: telemetry.DefaultConfig(),
		Coach: CoachConfig{
			CacheTTL:        5 * time.Minute,
			CacheMaxEntries: 256,
			TurnRate:        0,
			TurnBurst:       5,
		},
		Phases: phaseTableToMap(phase.DefaultTable()),
	}
}

// Validate checks the whole configuration tree.
func (c *Config) Validate() error {
	if c.Server.Host == "" {
		return fmt.Errorf("server host must not be empty")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown_timeout must be positive")
	}
	if err := c.Logging.Validate(); err != nil {
		return err
	}
	if err := c.Telemetry.Validate(); err != nil {
		return err
	}
	if c.Coach.CacheTTL < 0 {
		return fmt.Errorf("coach.cache_ttl must not be negative")
	}
	if c.Coach.TurnRate < 0 {
		return fmt.Errorf("coach.turn_rate must not be negative")
	}
	if _, err := c.PhaseTable(); err != nil {
		return err
	}
	return nil
}

// PhaseTable converts the configured phase map into a validated table.
// Phases missing from the config fall back to their defaults.
func (c *Config) PhaseTable() (phase.Table, error) {
	table := phase.DefaultTable()
	for name, cfg := range c.Phases {
		p := phase.Phase(name)
		if !p.IsValid() {
			return nil, fmt.Errorf("phases: unknown phase %q", name)
		}
		table[p] = cfg
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}
	return table, nil
}

func phaseTableToMap(table phase.Table) map[string]phase.Config {
	out := make(map[string]phase.Config, len(table))
	for p, cfg := range table {
		out[string(p)] = cfg
	}
	return out
}
