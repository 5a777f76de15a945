package sanitize

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"cartorio/pkg/payments"

	"gorm.io/gorm"
)

// Tables are emptied children first so the foreign key never blocks a delete.
var Tables = []string{"payments", "payment_types"}

// Options mirror the command line flags of cmd_sanitize.
type Options struct {
	DryRun bool
	Yes    bool
	Reseed bool
}

// Run empties the payment tables. Nothing is changed unless DryRun is off and Yes is set.
func Run(ctx context.Context, gdb *gorm.DB, opts Options, out io.Writer) error {
	existing := make([]string, 0, len(Tables))
	for _, t := range Tables {
		if gdb.Migrator().HasTable(t) {
			existing = append(existing, t)
		} else {
			slog.Info("table not found, skipping", "table", t)
		}
	}
	if len(existing) == 0 {
		fmt.Fprintln(out, "no payment tables present in the database; nothing to do")
		return nil
	}

	fmt.Fprintln(out, "Tables considered for truncation:")
	for _, t := range existing {
		fmt.Fprintf(out, " - %s\n", t)
	}
	if opts.DryRun {
		fmt.Fprintln(out, "dry-run enabled; no changes will be made. Use -dry-run=false -yes to execute.")
		return nil
	}
	if !opts.Yes {
		fmt.Fprintln(out, "Destructive operation. Pass -yes to confirm execution. Aborting.")
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := truncate(ctx, gdb, existing); err != nil {
		return fmt.Errorf("truncate failed: %w", err)
	}
	fmt.Fprintln(out, "Truncate completed.")

	if opts.Reseed {
		n, err := payments.NewService(gdb).SeedPaymentTypes(ctx, payments.DefaultPaymentTypes)
		if err != nil {
			return fmt.Errorf("reseed failed: %w", err)
		}
		fmt.Fprintf(out, "Reseeded %d payment types.\n", n)
	}
	return nil
}

func truncate(ctx context.Context, gdb *gorm.DB, tables []string) error {
	tx := gdb.WithContext(ctx)
	if gdb.Dialector.Name() == "postgres" {
		quoted := make([]string, 0, len(tables))
		for _, t := range tables {
			quoted = append(quoted, fmt.Sprintf("%q", t))
		}
		stmt := fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", strings.Join(quoted, ", "))
		slog.Info("executing", "stmt", stmt)
		return tx.Exec(stmt).Error
	}
	return tx.Transaction(func(tx *gorm.DB) error {
		for _, t := range tables {
			if err := tx.Exec(fmt.Sprintf("DELETE FROM %q", t)).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
