package bootstrap

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/shopkit/shopd/internal/storage"
	"github.com/shopkit/shopd/internal/storage/filedriver"
	"github.com/shopkit/shopd/internal/storage/memdriver"
	"github.com/shopkit/shopd/internal/storage/sqlitedriver"
	"github.com/shopkit/shopd/pkg/config"
)

// NewLogger creates a new slog.Logger instance with the specified log level.
func NewLogger(level string) *slog.Logger {
	logLevel := toLevel(level)
	loggerOpts := &slog.HandlerOptions{
		AddSource: logLevel == slog.LevelDebug,
		Level:     logLevel,
	}
	logHandler := slog.NewJSONHandler(os.Stdout, loggerOpts)
	logger := slog.New(logHandler)
	return logger
}

// OpenStorage builds the configured key-value driver, probes it for
// availability and initializes any absent collection keys. A failed probe is
// fatal: the application must not start against unusable storage.
func OpenStorage(cfg config.StorageConfig) (storage.Driver, error) {
	var (
		drv storage.Driver
		err error
	)
	switch cfg.Driver {
	case "file":
		drv, err = filedriver.Open(cfg.Path)
	case "sqlite":
		drv, err = sqlitedriver.Open(cfg.Path)
	case "memory":
		drv = memdriver.New()
	default:
		return nil, fmt.Errorf("unknown storage driver: %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s storage at %s: %w", cfg.Driver, cfg.Path, err)
	}

	if err := storage.Probe(drv); err != nil {
		_ = drv.Close()
		return nil, err
	}
	if err := storage.EnsureKeys(drv, storage.CollectionKeys...); err != nil {
		_ = drv.Close()
		return nil, fmt.Errorf("failed to initialize collections: %w", err)
	}
	return drv, nil
}

// toLevel converts a string representation of a log level to slog.Level.
func toLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
