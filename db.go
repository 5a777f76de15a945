package main

import (
	"context"
	"fmt"
	"log/slog"

	"cartorio/pkg/config"
	"cartorio/pkg/database"
	"cartorio/pkg/payments"
	"cartorio/pkg/receipts"

	"gorm.io/gorm"
)

var (
	db           *gorm.DB
	paymentSvc   *payments.Service
	receiptStore *receipts.Store
)

// initDB connects, migrates, verifies and seeds according to cfg.
func initDB(ctx context.Context, cfg *config.Config) error {
	gdb, err := database.Open(ctx, cfg.DB, cfg.LogLevel)
	if err != nil {
		return err
	}
	return prepareDB(ctx, gdb, cfg)
}

// prepareDB runs the startup steps on an open handle and installs the package state.
func prepareDB(ctx context.Context, gdb *gorm.DB, cfg *config.Config) error {
	db = gdb
	if cfg.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	database.LogSchema(ctx, db)

	paymentSvc = payments.NewService(db)
	if cfg.Seed {
		if err := seedDB(ctx); err != nil {
			return err
		}
	}

	store, err := receipts.NewStore(cfg.UploadBase)
	if err != nil {
		return err
	}
	receiptStore = store
	return nil
}

func seedDB(ctx context.Context) error {
	n, err := paymentSvc.SeedPaymentTypes(ctx, payments.DefaultPaymentTypes)
	if err != nil {
		return fmt.Errorf("seed payment types: %w", err)
	}
	if n > 0 {
		slog.Info("seeded payment types", "created", n)
	}
	return nil
}
