package database

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"cartorio/pkg/config"

	"github.com/sethvargo/go-retry"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to PostgreSQL, retrying cfg.ConnectAttempts times with a
// constant cfg.ConnectDelay between attempts.
func Open(ctx context.Context, cfg config.Database, level slog.Level) (*gorm.DB, error) {
	return Connect(ctx, cfg.ConnectAttempts, cfg.ConnectDelay, func(ctx context.Context) (*gorm.DB, error) {
		return OpenDialector(ctx, postgres.Open(cfg.ConnString()), level)
	})
}

// MustOpenFromEnv loads the configuration and opens the database for the
// operator tools, exiting the process when the database cannot be reached.
func MustOpenFromEnv(ctx context.Context) (*gorm.DB, *config.Config) {
	cfg := config.Load()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})))
	gdb, err := Open(ctx, cfg.DB, cfg.LogLevel)
	if err != nil {
		slog.Error("open db", "err", err)
		os.Exit(1)
	}
	return gdb, cfg
}

// OpenDialector opens a gorm handle on d and pings it.
func OpenDialector(ctx context.Context, d gorm.Dialector, level slog.Level) (*gorm.DB, error) {
	gdb, err := gorm.Open(d, &gorm.Config{
		TranslateError: true,
		Logger:         newLogger(level),
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return gdb, nil
}

// Connect calls open until it succeeds, giving up after attempts tries.
func Connect(ctx context.Context, attempts int, delay time.Duration, open func(context.Context) (*gorm.DB, error)) (*gorm.DB, error) {
	if attempts < 1 {
		attempts = 1
	}
	if delay <= 0 {
		delay = time.Millisecond
	}
	var (
		gdb     *gorm.DB
		attempt int
	)
	backoff := retry.WithMaxRetries(uint64(attempts-1), retry.NewConstant(delay))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		slog.Info("connecting to database", "attempt", attempt, "max_attempts", attempts)
		g, err := open(ctx)
		if err != nil {
			slog.Warn("database connection failed", "attempt", attempt, "error", err)
			if attempt < attempts {
				slog.Info("retrying database connection", "delay", delay)
			}
			return retry.RetryableError(err)
		}
		gdb = g
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("database unreachable after %d attempts: %w", attempt, err)
	}
	slog.Info("database connected")
	return gdb, nil
}

// Close releases the pool behind gdb.
func Close(gdb *gorm.DB) {
	if sqlDB, err := gdb.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func newLogger(level slog.Level) logger.Interface {
	gormLevel := logger.Warn
	switch {
	case level <= slog.LevelDebug:
		gormLevel = logger.Info
	case level >= slog.LevelError:
		gormLevel = logger.Error
	}
	return logger.New(slog.NewLogLogger(slog.Default().Handler(), slog.LevelWarn), logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  gormLevel,
		IgnoreRecordNotFoundError: true,
	})
}
