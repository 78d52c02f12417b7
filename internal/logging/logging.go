// Package logging builds the engine's zap logger. Output goes to stdout
// and, when a provider is supplied, to OpenTelemetry through the otelzap
// bridge. Correlation fields (session, request, trace) travel in the
// context and are attached via FromContext.
package logging

import (
	"fmt"
	"os"

	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.opentelemetry.io/otel/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds logging configuration.
type Config struct {
	Level  string            `koanf:"level" json:"level"`
	Format string            `koanf:"format" json:"format"`
	Stdout bool              `koanf:"stdout" json:"stdout"`
	OTEL   bool              `koanf:"otel" json:"otel"`
	Fields map[string]string `koanf:"fields" json:"fields,omitempty"`
}

// DefaultConfig returns production-ready logging defaults.
func DefaultConfig() Config {
	return Config{
		Level:  "info",
		Format: "json",
		Stdout: true,
		Fields: map[string]string{"service": "okrd"},
	}
}

// Validate checks the config for errors.
func (c Config) Validate() error {
	if c.Format != "json" && c.Format != "console" {
		return fmt.Errorf("format must be 'json' or 'console', got %q", c.Format)
	}
	if _, err := zapcore.ParseLevel(c.Level); err != nil {
		return fmt.Errorf("invalid level %q: %w", c.Level, err)
	}
	if !c.Stdout && !c.OTEL {
		return fmt.Errorf("at least one output must be enabled (stdout or otel)")
	}
	return nil
}

// New creates a zap logger from config. provider may be nil, which
// disables the OTEL output even when configured.
func New(cfg Config, provider log.LoggerProvider) (*zap.Logger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid logging config: %w", err)
	}
	level, _ := zapcore.ParseLevel(cfg.Level)

	cores := make([]zapcore.Core, 0, 2)
	if cfg.Stdout {
		cores = append(cores, zapcore.NewCore(newEncoder(cfg.Format), zapcore.AddSync(os.Stdout), level))
	}
	if cfg.OTEL && provider != nil {
		cores = append(cores, otelzap.NewCore("okrd", otelzap.WithLoggerProvider(provider)))
	}
	if len(cores) == 0 {
		return nil, fmt.Errorf("no log output available")
	}

	core := cores[0]
	if len(cores) > 1 {
		core = zapcore.NewTee(cores...)
	}

	logger := zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	if len(cfg.Fields) > 0 {
		fields := make([]zap.Field, 0, len(cfg.Fields))
		for k, v := range cfg.Fields {
			fields = append(fields, zap.String(k, v))
		}
		logger = logger.With(fields...)
	}
	return logger, nil
}

func newEncoder(format string) zapcore.Encoder {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	if format == "console" {
		return zapcore.NewConsoleEncoder(encoderCfg)
	}
	return zapcore.NewJSONEncoder(encoderCfg)
}
