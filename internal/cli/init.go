// Package cli provides common initialization shared by cmd/finsight,
// cmd/finsight-worker and cmd/finsightctl.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"finsight/internal/backend"
	"finsight/internal/config"
	"finsight/internal/forecast"
	"finsight/internal/log"
	"finsight/internal/tax"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the process logger at levelName, writing text records
// to out, and installs it as the slog default. Unknown levels fall back to
// info.
func SetupLogger(out io.Writer, levelName, component string) *log.Logger {
	level, err := log.ParseLevel(levelName)
	logger := log.New(log.Config{Level: level, Component: component, Output: out})
	log.SetDefault(logger)
	if err != nil {
		logger.Warn("Unknown log level, using info", log.FieldError, err)
	}
	return logger
}

// LoadAndValidateConfig loads .env and the environment configuration, sets
// up the logger at the configured level and exits the process when the
// configuration is invalid.
func LoadAndValidateConfig(component string) (*config.Config, *log.Logger) {
	LoadEnvFile()
	cfg := config.Load()
	logger := SetupLogger(os.Stdout, cfg.LogLevel, component)
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg, logger
}

// OpenLedger creates the ledger backend selected by cfg.
func OpenLedger(ctx context.Context, logger *log.Logger, cfg *config.Config) (*backend.BackendResult, error) {
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("ledger backend configuration: %w", err)
	}
	result, err := backend.NewFactory(logger.WithComponent(log.ComponentBackend)).CreateBackend(ctx, backendCfg)
	if err != nil {
		return nil, fmt.Errorf("initialize %s ledger: %w", backendCfg.Type, err)
	}
	return result, nil
}

// NewCoordinator builds the forecast coordinator from the forecast settings
// in cfg.
func NewCoordinator(cfg *config.Config, logger *log.Logger) *forecast.Coordinator {
	fitter := forecast.NewWeightedTrendFitter(cfg.ForecastHalfLifeMonths, cfg.ForecastIntervalWidth)
	return forecast.NewCoordinator(forecast.DefaultRegistry(fitter), forecast.Options{
		FitTimeout: cfg.ForecastFitTimeout,
		MaxPeriods: cfg.ForecastMaxPeriods,
		Logger:     logger,
	})
}

// TaxSettings returns the tax estimate settings in cfg.
func TaxSettings(cfg *config.Config) tax.Settings {
	return tax.Settings{
		Rate:                cfg.TaxRate,
		BusinessType:        cfg.TaxBusinessType,
		QuarterlyStartMonth: cfg.TaxQuarterlyStartMonth,
	}.Normalize()
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
