package report

import (
	"context"
	"fmt"
	"io"
	"time"

	"cartorio/models"
	"cartorio/pkg/payments"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TypeTotal is the sum of one payment type's payments within the month.
type TypeTotal struct {
	PaymentTypeID uint
	Name          string
	Count         int64
	Total         decimal.Decimal
}

// Summary is the month-bounded report.
type Summary struct {
	Month string
	Start models.Date
	End   models.Date
	Types []TypeTotal
	Count int64
	Total decimal.Decimal
}

// MonthRange returns the first and last day of month (YYYY-MM).
func MonthRange(month string) (models.Date, models.Date, error) {
	t, err := time.Parse("2006-01", month)
	if err != nil {
		return "", "", fmt.Errorf("invalid month format, expected YYYY-MM: %w", err)
	}
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, -1)
	return models.Date(start.Format(models.DateLayout)), models.Date(end.Format(models.DateLayout)), nil
}

// Build aggregates the month's payments per payment type.
func Build(ctx context.Context, gdb *gorm.DB, month string) (*Summary, error) {
	start, end, err := MonthRange(month)
	if err != nil {
		return nil, err
	}
	var rows []TypeTotal
	err = gdb.WithContext(ctx).Model(&models.Payment{}).
		Select("payment_types.id AS payment_type_id, payment_types.name AS name, COUNT(*) AS count, COALESCE(SUM(payments.amount), 0) AS total").
		Joins("JOIN payment_types ON payment_types.id = payments.payment_type_id").
		Where("payments.date >= ? AND payments.date <= ?", start, end).
		Group("payment_types.id, payment_types.name").
		Order("payment_types.name").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("query totals: %w", err)
	}
	s := &Summary{Month: month, Start: start, End: end, Types: rows, Total: decimal.Zero}
	for _, r := range rows {
		s.Count += r.Count
		s.Total = s.Total.Add(r.Total)
	}
	return s, nil
}

// Run prints the report for month and, when list is set, every payment in it.
func Run(ctx context.Context, gdb *gorm.DB, month string, list bool, out io.Writer) error {
	s, err := Build(ctx, gdb, month)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Report for month=%s (%s..%s):\n", s.Month, s.Start, s.End)
	for _, t := range s.Types {
		fmt.Fprintf(out, "  %-24s records=%d total=%s\n", t.Name, t.Count, t.Total.StringFixed(2))
	}
	fmt.Fprintf(out, "  records=%d total_amount=%s\n", s.Count, s.Total.StringFixed(2))

	if !list {
		return nil
	}
	items, err := payments.NewService(gdb).ListPayments(ctx, payments.Filter{StartDate: s.Start.String(), EndDate: s.End.String()})
	if err != nil {
		return err
	}
	for _, p := range items {
		typeName := ""
		if p.PaymentType != nil {
			typeName = p.PaymentType.Name
		}
		receipt := ""
		if p.ReceiptPath != nil {
			receipt = *p.ReceiptPath
		}
		fmt.Fprintf(out, "%d|%s|%s|%s|%s|%s\n", p.ID, p.Date, typeName, p.Description, p.Amount, receipt)
	}
	return nil
}
