package database

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"cartorio/migrations"
	"cartorio/models"

	"github.com/pressly/goose/v3"
	"gorm.io/gorm"
)

// Migrate brings the schema up to date. PostgreSQL runs the embedded goose
// migrations; any other dialect (SQLite in tests) uses gorm AutoMigrate on the models.
func Migrate(ctx context.Context, gdb *gorm.DB) error {
	if gdb.Dialector.Name() != "postgres" {
		if err := gdb.WithContext(ctx).AutoMigrate(&models.PaymentType{}, &models.Payment{}); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
		return nil
	}
	return Goose(ctx, gdb, "up")
}

// Goose runs a goose command ("up", "down" or "status") against the embedded migrations.
func Goose(ctx context.Context, gdb *gorm.DB, command string) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(gooseLogger{})
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	switch command {
	case "", "up":
		err = goose.UpContext(ctx, sqlDB, ".")
	case "down":
		err = goose.DownContext(ctx, sqlDB, ".")
	case "status":
		err = goose.StatusContext(ctx, sqlDB, ".")
	default:
		return fmt.Errorf("unknown migrate command %q (want up, down or status)", command)
	}
	if err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}

// gooseLogger routes goose output through slog.
type gooseLogger struct{}

func (gooseLogger) Printf(format string, v ...interface{}) {
	slog.Info(strings.TrimSpace(fmt.Sprintf(format, v...)), "component", "goose")
}

func (gooseLogger) Fatalf(format string, v ...interface{}) {
	slog.Error(strings.TrimSpace(fmt.Sprintf(format, v...)), "component", "goose")
	os.Exit(1)
}
