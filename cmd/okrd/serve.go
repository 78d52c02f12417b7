package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/log/global"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/fyrsmithlabs/okrd/internal/cache"
	"github.com/fyrsmithlabs/okrd/internal/coach"
	"github.com/fyrsmithlabs/okrd/internal/config"
	"github.com/fyrsmithlabs/okrd/internal/events"
	okrdhttp "github.com/fyrsmithlabs/okrd/internal/http"
	"github.com/fyrsmithlabs/okrd/internal/logging"
	"github.com/fyrsmithlabs/okrd/internal/phase"
	"github.com/fyrsmithlabs/okrd/internal/session"
	"github.com/fyrsmithlabs/okrd/internal/snapshot"
	"github.com/fyrsmithlabs/okrd/internal/telemetry"
	"github.com/fyrsmithlabs/okrd/internal/transition"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the okrd HTTP server",
		Long: `Start the coaching engine and serve its REST API. Configuration is
read from the --config YAML file and OKRD_* environment variables; the
phase gating table reloads on config file changes without a restart.`,
		RunE: runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	tel, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("telemetry setup: %w", err)
	}

	logger, err := logging.New(cfg.Logging, global.GetLoggerProvider())
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting okrd",
		zap.String("version", version),
		zap.Int("port", cfg.Server.Port),
	)

	table, err := cfg.PhaseTable()
	if err != nil {
		return err
	}
	machine, err := phase.NewMachine(table, logger.Named("phase"))
	if err != nil {
		return err
	}
	validator := transition.NewValidator(table)
	bus := events.NewBus(logger.Named("events"))

	snaps, err := snapshot.NewManager(snapshot.NewMemoryStore(), logger.Named("snapshot"))
	if err != nil {
		return err
	}

	svc, err := coach.NewService(coach.Options{
		Store:     session.NewMemoryStore(),
		Snapshots: snaps,
		Bus:       bus,
		Machine:   machine,
		Validator: validator,
		Cache:     cache.New(cfg.Coach.CacheTTL, cfg.Coach.CacheMaxEntries),
		Logger:    logger.Named("coach"),
		TurnRate:  rate.Limit(cfg.Coach.TurnRate),
		TurnBurst: cfg.Coach.TurnBurst,
	})
	if err != nil {
		return err
	}

	srv, err := okrdhttp.NewServer(svc, logger.Named("http"), &okrdhttp.Config{
		Host: cfg.Server.Host,
		Port: cfg.Server.Port,
	})
	if err != nil {
		return err
	}

	if configPath != "" {
		watcher, err := config.NewWatcher(configPath, logger.Named("config"), func(next *config.Config) {
			table, err := next.PhaseTable()
			if err != nil {
				logger.Warn("reloaded config has invalid phase table", zap.Error(err))
				return
			}
			if err := machine.SetTable(table); err != nil {
				logger.Warn("phase table swap rejected", zap.Error(err))
				return
			}
			validator.SetTable(table)
			logger.Info("phase table reloaded")
		})
		if err != nil {
			logger.Warn("config watcher unavailable, hot reload disabled", zap.Error(err))
		} else {
			defer watcher.Close()
		}
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	if err := svc.Drain(shutdownCtx); err != nil {
		logger.Warn("event bus drain", zap.Error(err))
	}
	if err := tel.Shutdown(shutdownCtx); err != nil {
		logger.Warn("telemetry shutdown", zap.Error(err))
	}

	logger.Info("shutdown complete")
	return nil
}
