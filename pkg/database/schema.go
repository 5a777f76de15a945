package database

import (
	"context"
	"log/slog"
	"slices"

	"gorm.io/gorm"
)

// TableCheck lists the columns a table is expected to have.
type TableCheck struct {
	Table   string
	Columns []string
}

// ExpectedSchema is what the service reads and writes.
var ExpectedSchema = []TableCheck{
	{Table: "payment_types", Columns: []string{"id", "name", "created_at", "updated_at"}},
	{Table: "payments", Columns: []string{"id", "date", "payment_type_id", "description", "amount", "receipt_path", "created_at", "updated_at"}},
}

// SchemaIssue describes a mismatch between ExpectedSchema and the live database.
type SchemaIssue struct {
	Table          string
	MissingTable   bool
	MissingColumns []string
	ExtraColumns   []string
}

// VerifySchema compares the live database with ExpectedSchema. It only reports;
// nothing is altered.
func VerifySchema(ctx context.Context, gdb *gorm.DB) ([]SchemaIssue, error) {
	m := gdb.WithContext(ctx).Migrator()
	var issues []SchemaIssue
	for _, check := range ExpectedSchema {
		if !m.HasTable(check.Table) {
			issues = append(issues, SchemaIssue{Table: check.Table, MissingTable: true})
			continue
		}
		cols, err := m.ColumnTypes(check.Table)
		if err != nil {
			return nil, err
		}
		existing := make([]string, 0, len(cols))
		for _, c := range cols {
			existing = append(existing, c.Name())
		}
		issue := SchemaIssue{Table: check.Table}
		for _, want := range check.Columns {
			if !slices.Contains(existing, want) {
				issue.MissingColumns = append(issue.MissingColumns, want)
			}
		}
		for _, have := range existing {
			if !slices.Contains(check.Columns, have) {
				issue.ExtraColumns = append(issue.ExtraColumns, have)
			}
		}
		if len(issue.MissingColumns) > 0 || len(issue.ExtraColumns) > 0 {
			issues = append(issues, issue)
		}
	}
	return issues, nil
}

// LogSchema runs VerifySchema and logs the outcome. Failures are never fatal.
func LogSchema(ctx context.Context, gdb *gorm.DB) {
	issues, err := VerifySchema(ctx, gdb)
	if err != nil {
		slog.Warn("schema verification failed", "error", err)
		return
	}
	if len(issues) == 0 {
		slog.Info("schema verified", "tables", len(ExpectedSchema))
		return
	}
	for _, is := range issues {
		switch {
		case is.MissingTable:
			slog.Warn("table not found", "table", is.Table)
		case len(is.MissingColumns) > 0:
			slog.Warn("columns missing", "table", is.Table, "columns", is.MissingColumns, "extra", is.ExtraColumns)
		default:
			slog.Info("additional columns found", "table", is.Table, "columns", is.ExtraColumns)
		}
	}
}
