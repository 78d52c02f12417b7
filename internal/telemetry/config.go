// Package telemetry wires OpenTelemetry tracing and metrics for the
// decision engine, exporting over OTLP gRPC or HTTP.
package telemetry

import (
	"fmt"
	"strings"
	"time"
)

// Config holds telemetry configuration.
type Config struct {
	Enabled        bool    `koanf:"enabled" json:"enabled"`
	Endpoint       string  `koanf:"endpoint" json:"endpoint"`
	Protocol       string  `koanf:"protocol" json:"protocol"`
	ServiceName    string  `koanf:"service_name" json:"service_name"`
	ServiceVersion string  `koanf:"service_version" json:"service_version"`
	Insecure       bool    `koanf:"insecure" json:"insecure"`
	SampleRate     float64 `koanf:"sample_rate" json:"sample_rate"`

	MetricsEnabled bool          `koanf:"metrics_enabled" json:"metrics_enabled"`
	ExportInterval time.Duration `koanf:"export_interval" json:"export_interval"`
}

// DefaultConfig returns telemetry defaults. Disabled by default so the
// engine runs without a collector.
func DefaultConfig() Config {
	return Config{
		Enabled:        false,
		Endpoint:       "localhost:4317",
		Protocol:       "grpc",
		ServiceName:    "okrd",
		ServiceVersion: "0.1.0",
		Insecure:       true,
		SampleRate:     1.0,
		MetricsEnabled: true,
		ExportInterval: 15 * time.Second,
	}
}

// Validate checks the configuration. A disabled config is always valid.
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Endpoint == "" {
		return fmt.Errorf("endpoint is required when telemetry is enabled")
	}
	if c.ServiceName == "" {
		return fmt.Errorf("service_name is required when telemetry is enabled")
	}
	if c.Protocol != "grpc" && c.Protocol != "http/protobuf" {
		return fmt.Errorf("protocol must be 'grpc' or 'http/protobuf', got %q", c.Protocol)
	}
	if c.SampleRate < 0 || c.SampleRate > 1 {
		return fmt.Errorf("sample_rate must be in [0,1], got %v", c.SampleRate)
	}
	if c.Insecure && !c.isLocalEndpoint() {
		return fmt.Errorf("insecure connections are only allowed to local endpoints")
	}
	if c.MetricsEnabled && c.ExportInterval <= 0 {
		return fmt.Errorf("export_interval must be positive when metrics are enabled")
	}
	return nil
}

func (c Config) isLocalEndpoint() bool {
	host := strings.TrimPrefix(strings.TrimPrefix(c.Endpoint, "https://"), "http://")
	if idx := strings.LastIndex(host, ":"); idx != -1 && strings.Count(host, ":") == 1 {
		host = host[:idx]
	}
	return host == "localhost" || host == "127.0.0.1" || host == "::1" || host == "[::1]"
}
