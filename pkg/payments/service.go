// Package payments holds the payment and payment type rules: type existence,
// duplicate detection and the queries behind the HTTP handlers.
package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cartorio/models"
	"cartorio/pkg/apperr"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	msgTypeNotFound     = "payment type not found"
	msgTypeExists       = "a payment type with this name already exists"
	msgPaymentNotFound  = "payment not found"
	msgDuplicatePayment = "duplicate payment: a payment with the same date, type, amount and description already exists"
)

// DefaultPaymentTypes are created at startup when missing.
var DefaultPaymentTypes = []string{
	"Payroll",
	"Fuel",
	"Refund",
	"Building maintenance",
	"Services",
	"Fees",
	"Fines",
}

// Service runs payment operations against a gorm handle.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Input is the writable part of a Payment.
type Input struct {
	Date          string
	PaymentTypeID uint
	Description   string
	Amount        models.Amount
}

// Filter narrows ListPayments. Zero values mean "no filter".
type Filter struct {
	PaymentTypeID uint
	StartDate     string
	EndDate       string
}

// ListPaymentTypes returns every payment type ordered by name.
func (s *Service) ListPaymentTypes(ctx context.Context) ([]models.PaymentType, error) {
	var types []models.PaymentType
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&types).Error; err != nil {
		return nil, apperr.Internal(fmt.Errorf("list payment types: %w", err))
	}
	if types == nil {
		types = make([]models.PaymentType, 0)
	}
	return types, nil
}

// CreatePaymentType inserts a type; the trimmed name must not exist yet.
func (s *Service) CreatePaymentType(ctx context.Context, name string) (*models.PaymentType, error) {
	name = strings.TrimSpace(name)
	pt := models.PaymentType{Name: name}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cnt int64
		if err := tx.Model(&models.PaymentType{}).Where("name = ?", name).Count(&cnt).Error; err != nil {
			return err
		}
		if cnt > 0 {
			return apperr.BusinessRule(msgTypeExists)
		}
		if err := tx.Create(&pt).Error; err != nil {
			if isUniqueViolation(err) { // lost a race with a concurrent insert
				return apperr.BusinessRule(msgTypeExists)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, wrap("create payment type", err)
	}
	return &pt, nil
}

// SeedPaymentTypes creates each name that does not exist yet and reports how many were created.
func (s *Service) SeedPaymentTypes(ctx context.Context, names []string) (int, error) {
	created := 0
	for _, n := range names {
		_, err := s.CreatePaymentType(ctx, n)
		switch {
		case err == nil:
			created++
		case apperr.Is(err, apperr.KindBusinessRule):
			// already present
		default:
			return created, err
		}
	}
	return created, nil
}

// ListPayments returns payments newest first (date, then id), each with its type.
func (s *Service) ListPayments(ctx context.Context, f Filter) ([]models.Payment, error) {
	q := s.db.WithContext(ctx).Model(&models.Payment{}).Joins("PaymentType")
	if f.PaymentTypeID != 0 {
		q = q.Where("payments.payment_type_id = ?", f.PaymentTypeID)
	}
	if f.StartDate != "" {
		q = q.Where("payments.date >= ?", models.NormalizeDate(f.StartDate))
	}
	if f.EndDate != "" {
		q = q.Where("payments.date <= ?", models.NormalizeDate(f.EndDate))
	}
	var items []models.Payment
	if err := q.Order("payments.date DESC").Order("payments.id DESC").Find(&items).Error; err != nil {
		return nil, apperr.Internal(fmt.Errorf("list payments: %w", err))
	}
	if items == nil {
		items = make([]models.Payment, 0)
	}
	return items, nil
}

// GetPayment returns a payment with its type, or a NotFound error.
func (s *Service) GetPayment(ctx context.Context, id uint) (*models.Payment, error) {
	p, err := findPayment(s.db.WithContext(ctx), id, true)
	if err != nil {
		return nil, wrap("get payment", err)
	}
	return p, nil
}

// CreatePayment validates references and uniqueness, then inserts.
func (s *Service) CreatePayment(ctx context.Context, in Input) (*models.Payment, error) {
	in = in.normalized()
	var out *models.Payment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensurePaymentTypeExists(tx, in.PaymentTypeID); err != nil {
			return err
		}
		if err := ensureNotDuplicate(tx, in, 0); err != nil {
			return err
		}
		p := models.Payment{
			Date:          models.Date(in.Date),
			PaymentTypeID: in.PaymentTypeID,
			Description:   in.Description,
			Amount:        in.Amount,
		}
		if err := tx.Omit(clause.Associations).Create(&p).Error; err != nil {
			return translateWriteError(err)
		}
		var err error
		out, err = findPayment(tx, p.ID, true)
		return err
	})
	if err != nil {
		return nil, wrap("create payment", err)
	}
	return out, nil
}

// UpdatePayment replaces the four writable fields of payment id.
func (s *Service) UpdatePayment(ctx context.Context, id uint, in Input) (*models.Payment, error) {
	in = in.normalized()
	var out *models.Payment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := findPayment(tx, id, false)
		if err != nil {
			return err
		}
		if err := ensurePaymentTypeExists(tx, in.PaymentTypeID); err != nil {
			return err
		}
		if err := ensureNotDuplicate(tx, in, id); err != nil {
			return err
		}
		p.Date = models.Date(in.Date)
		p.PaymentTypeID = in.PaymentTypeID
		p.Description = in.Description
		p.Amount = in.Amount
		if err := tx.Omit(clause.Associations).Save(p).Error; err != nil {
			return translateWriteError(err)
		}
		out, err = findPayment(tx, id, true)
		return err
	})
	if err != nil {
		return nil, wrap("update payment", err)
	}
	return out, nil
}

// DeletePayment removes payment id. The receipt file, if any, stays on disk.
func (s *Service) DeletePayment(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := findPayment(tx, id, false)
		if err != nil {
			return err
		}
		return tx.Delete(p).Error
	})
	return wrap("delete payment", err)
}

// SetReceiptPath records the relative path of the receipt attached to payment id.
func (s *Service) SetReceiptPath(ctx context.Context, id uint, rel string) (*models.Payment, error) {
	db := s.db.WithContext(ctx)
	p, err := findPayment(db, id, false)
	if err != nil {
		return nil, wrap("set receipt", err)
	}
	if err := db.Model(p).Update("receipt_path", rel).Error; err != nil {
		return nil, wrap("set receipt", err)
	}
	p.ReceiptPath = &rel
	return p, nil
}

// ReceiptPaths returns every receipt path currently referenced by a payment.
func (s *Service) ReceiptPaths(ctx context.Context) ([]string, error) {
	var paths []string
	err := s.db.WithContext(ctx).Model(&models.Payment{}).
		Where("receipt_path IS NOT NULL AND receipt_path <> ''").
		Pluck("receipt_path", &paths).Error
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("list receipt paths: %w", err))
	}
	return paths, nil
}

func (in Input) normalized() Input {
	in.Date = models.NormalizeDate(in.Date).String()
	in.Description = strings.TrimSpace(in.Description)
	in.Amount = models.NewAmount(in.Amount.Decimal)
	return in
}

func findPayment(db *gorm.DB, id uint, withType bool) (*models.Payment, error) {
	var p models.Payment
	q := db
	if withType {
		q = q.Preload("PaymentType")
	}
	if err := q.First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound(msgPaymentNotFound)
		}
		return nil, err
	}
	return &p, nil
}

func ensurePaymentTypeExists(tx *gorm.DB, id uint) error {
	var cnt int64
	if err := tx.Model(&models.PaymentType{}).Where("id = ?", id).Count(&cnt).Error; err != nil {
		return err
	}
	if cnt == 0 {
		return apperr.BusinessRule(msgTypeNotFound)
	}
	return nil
}

// ensureNotDuplicate rejects a payment whose tuple matches another row; ignoreID
// excludes the row being updated.
func ensureNotDuplicate(tx *gorm.DB, in Input, ignoreID uint) error {
	q := tx.Model(&models.Payment{}).
		Where("date = ? AND payment_type_id = ? AND description = ? AND amount = ?",
			models.Date(in.Date), in.PaymentTypeID, in.Description, in.Amount)
	if ignoreID != 0 {
		q = q.Where("id <> ?", ignoreID)
	}
	var cnt int64
	if err := q.Count(&cnt).Error; err != nil {
		return err
	}
	if cnt > 0 {
		return apperr.BusinessRule(msgDuplicatePayment)
	}
	return nil
}

func translateWriteError(err error) error {
	switch {
	case isUniqueViolation(err):
		return apperr.BusinessRule(msgDuplicatePayment)
	case isForeignKeyViolation(err):
		return apperr.BusinessRule(msgTypeNotFound)
	}
	return err
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "duplicate key") || strings.Contains(s, "unique constraint")
}

func isForeignKeyViolation(err error) bool {
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}
	return strings.Contains(strings.ToLower(err.Error()), "foreign key constraint")
}

// wrap keeps tagged errors as they are and marks everything else internal.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := apperr.As(err); ok {
		return err
	}
	return apperr.Internal(fmt.Errorf("%s: %w", op, err))
}
