package payments

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"

	"cartorio/models"
	"cartorio/pkg/apperr"
	"cartorio/pkg/database"

	"github.com/glebarez/sqlite"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "payments.db") + "?_pragma=foreign_keys(1)"
	gdb, err := database.OpenDialector(context.Background(), sqlite.Open(dsn), slog.LevelError)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { database.Close(gdb) })
	if err := database.Migrate(context.Background(), gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewService(gdb), gdb
}

func mustType(t *testing.T, s *Service, name string) *models.PaymentType {
	t.Helper()
	pt, err := s.CreatePaymentType(context.Background(), name)
	if err != nil {
		t.Fatalf("create type %q: %v", name, err)
	}
	return pt
}

func mustAmount(t *testing.T, s string) models.Amount {
	t.Helper()
	a, err := models.ParseAmount(s)
	if err != nil {
		t.Fatal(err)
	}
	return a
}

func expectKind(t *testing.T, err error, k apperr.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", k)
	}
	if !apperr.Is(err, k) {
		t.Fatalf("expected %s error, got %v", k, err)
	}
}

func countRows(t *testing.T, gdb *gorm.DB, model interface{}) int64 {
	t.Helper()
	var n int64
	if err := gdb.Model(model).Count(&n).Error; err != nil {
		t.Fatal(err)
	}
	return n
}

func TestCreatePaymentTypeRejectsDuplicateName(t *testing.T) {
	s, gdb := newTestService(t)
	ctx := context.Background()

	first, err := s.CreatePaymentType(ctx, "  Fuel ")
	if err != nil {
		t.Fatal(err)
	}
	if first.Name != "Fuel" || first.ID == 0 {
		t.Fatalf("unexpected type %+v", first)
	}
	_, err = s.CreatePaymentType(ctx, "Fuel  ")
	expectKind(t, err, apperr.KindBusinessRule)
	if n := countRows(t, gdb, &models.PaymentType{}); n != 1 {
		t.Fatalf("expected a single row, got %d", n)
	}
}

func TestListPaymentTypesSortedByName(t *testing.T) {
	s, _ := newTestService(t)
	for _, n := range []string{"Taxes", "Fuel", "Payroll", "Services"} {
		mustType(t, s, n)
	}
	types, err := s.ListPaymentTypes(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"Fuel", "Payroll", "Services", "Taxes"}
	if len(types) != len(want) {
		t.Fatalf("expected %d types got %d", len(want), len(types))
	}
	for i, w := range want {
		if types[i].Name != w {
			t.Fatalf("position %d: want %s got %s", i, w, types[i].Name)
		}
	}
}

func TestListPaymentTypesEmptyIsNotNil(t *testing.T) {
	s, _ := newTestService(t)
	types, err := s.ListPaymentTypes(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if types == nil || len(types) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", types)
	}
}

func TestSeedPaymentTypesIsIdempotent(t *testing.T) {
	s, gdb := newTestService(t)
	ctx := context.Background()
	mustType(t, s, "Fuel")

	created, err := s.SeedPaymentTypes(ctx, DefaultPaymentTypes)
	if err != nil {
		t.Fatal(err)
	}
	if created != len(DefaultPaymentTypes)-1 {
		t.Fatalf("expected %d created got %d", len(DefaultPaymentTypes)-1, created)
	}
	created, err = s.SeedPaymentTypes(ctx, DefaultPaymentTypes)
	if err != nil || created != 0 {
		t.Fatalf("second seed should create nothing, created=%d err=%v", created, err)
	}
	if n := countRows(t, gdb, &models.PaymentType{}); n != int64(len(DefaultPaymentTypes)) {
		t.Fatalf("expected %d rows got %d", len(DefaultPaymentTypes), n)
	}
}

func TestCreatePaymentUnknownType(t *testing.T) {
	s, gdb := newTestService(t)
	_, err := s.CreatePayment(context.Background(), Input{
		Date: "2024-12-01", PaymentTypeID: 999, Description: "x", Amount: mustAmount(t, "10"),
	})
	expectKind(t, err, apperr.KindBusinessRule)
	if apperr.StatusOf(err) != 400 {
		t.Fatalf("expected status 400 got %d", apperr.StatusOf(err))
	}
	if n := countRows(t, gdb, &models.Payment{}); n != 0 {
		t.Fatalf("expected no payment rows, got %d", n)
	}
}

func TestCreatePaymentRoundTrip(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	pt := mustType(t, s, "Fuel")

	created, err := s.CreatePayment(ctx, Input{
		Date: "2024-12-01T13:45:00.000Z", PaymentTypeID: pt.ID, Description: "  diesel ", Amount: mustAmount(t, "10"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if created.PaymentType == nil || created.PaymentType.ID != pt.ID {
		t.Fatalf("expected joined payment type, got %+v", created.PaymentType)
	}

	got, err := s.GetPayment(ctx, created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Date != "2024-12-01" {
		t.Fatalf("expected truncated date, got %q", got.Date)
	}
	if got.Description != "diesel" || got.Amount.String() != "10.00" || got.PaymentTypeID != pt.ID {
		t.Fatalf("unexpected payment %+v", got)
	}
	if got.ReceiptPath != nil {
		t.Fatalf("receipt path should be unset")
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Fatalf("timestamps should be set")
	}
}

func TestCreatePaymentDuplicateTuple(t *testing.T) {
	s, gdb := newTestService(t)
	ctx := context.Background()
	pt := mustType(t, s, "Fuel")
	in := Input{Date: "2024-12-01", PaymentTypeID: pt.ID, Description: "diesel", Amount: mustAmount(t, "10.00")}

	first, err := s.CreatePayment(ctx, in)
	if err != nil {
		t.Fatal(err)
	}
	// same tuple written differently: time suffix and 10 vs 10.00
	dup := Input{Date: "2024-12-01T08:00:00Z", PaymentTypeID: pt.ID, Description: "diesel", Amount: mustAmount(t, "10")}
	_, err = s.CreatePayment(ctx, dup)
	expectKind(t, err, apperr.KindBusinessRule)

	if n := countRows(t, gdb, &models.Payment{}); n != 1 {
		t.Fatalf("expected 1 row got %d", n)
	}
	if _, err := s.GetPayment(ctx, first.ID); err != nil {
		t.Fatalf("first payment should remain: %v", err)
	}

	// description comparison is exact
	other := in
	other.Description = "Diesel"
	if _, err := s.CreatePayment(ctx, other); err != nil {
		t.Fatalf("different case description should be accepted: %v", err)
	}
}

func TestUniqueIndexBacksDuplicateCheck(t *testing.T) {
	s, gdb := newTestService(t)
	pt := mustType(t, s, "Fuel")
	p := models.Payment{Date: "2024-12-01", PaymentTypeID: pt.ID, Description: "diesel", Amount: mustAmount(t, "10")}
	if err := gdb.Create(&p).Error; err != nil {
		t.Fatal(err)
	}
	dup := models.Payment{Date: "2024-12-01", PaymentTypeID: pt.ID, Description: "diesel", Amount: mustAmount(t, "10.00")}
	err := gdb.Create(&dup).Error
	if err == nil {
		t.Fatalf("expected unique index violation")
	}
	translated := translateWriteError(err)
	expectKind(t, translated, apperr.KindBusinessRule)
}

func TestViolationDetection(t *testing.T) {
	if !isUniqueViolation(&pgconn.PgError{Code: "23505"}) {
		t.Fatalf("23505 is a unique violation")
	}
	if !isForeignKeyViolation(&pgconn.PgError{Code: "23503"}) {
		t.Fatalf("23503 is a foreign key violation")
	}
	if !isUniqueViolation(gorm.ErrDuplicatedKey) {
		t.Fatalf("gorm.ErrDuplicatedKey is a unique violation")
	}
	if isUniqueViolation(errors.New("connection reset")) || isForeignKeyViolation(errors.New("connection reset")) {
		t.Fatalf("unrelated errors must not match")
	}
}

func TestUpdatePayment(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	fuel := mustType(t, s, "Fuel")
	fees := mustType(t, s, "Fees")

	a, err := s.CreatePayment(ctx, Input{Date: "2024-12-01", PaymentTypeID: fuel.ID, Description: "diesel", Amount: mustAmount(t, "10")})
	if err != nil {
		t.Fatal(err)
	}
	b, err := s.CreatePayment(ctx, Input{Date: "2024-12-02", PaymentTypeID: fuel.ID, Description: "gas", Amount: mustAmount(t, "20")})
	if err != nil {
		t.Fatal(err)
	}

	// unchanged update matches only itself
	same, err := s.UpdatePayment(ctx, a.ID, Input{Date: "2024-12-01", PaymentTypeID: fuel.ID, Description: "diesel", Amount: mustAmount(t, "10")})
	if err != nil {
		t.Fatalf("self-matching update should succeed: %v", err)
	}
	if same.ID != a.ID {
		t.Fatalf("unexpected id %d", same.ID)
	}

	// collide with b
	_, err = s.UpdatePayment(ctx, a.ID, Input{Date: "2024-12-02", PaymentTypeID: fuel.ID, Description: "gas", Amount: mustAmount(t, "20")})
	expectKind(t, err, apperr.KindBusinessRule)

	// missing type
	_, err = s.UpdatePayment(ctx, a.ID, Input{Date: "2024-12-03", PaymentTypeID: 999, Description: "x", Amount: mustAmount(t, "1")})
	expectKind(t, err, apperr.KindBusinessRule)

	// missing payment
	_, err = s.UpdatePayment(ctx, 12345, Input{Date: "2024-12-03", PaymentTypeID: fuel.ID, Description: "x", Amount: mustAmount(t, "1")})
	expectKind(t, err, apperr.KindNotFound)

	upd, err := s.UpdatePayment(ctx, b.ID, Input{Date: "2024-12-05T10:00:00Z", PaymentTypeID: fees.ID, Description: " bank fee ", Amount: mustAmount(t, "3.5")})
	if err != nil {
		t.Fatal(err)
	}
	if upd.Date != "2024-12-05" || upd.PaymentTypeID != fees.ID || upd.Description != "bank fee" || upd.Amount.String() != "3.50" {
		t.Fatalf("unexpected updated payment %+v", upd)
	}
	if upd.PaymentType == nil || upd.PaymentType.Name != "Fees" {
		t.Fatalf("expected joined Fees type got %+v", upd.PaymentType)
	}
}

func TestDeletePayment(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	pt := mustType(t, s, "Fuel")
	p, err := s.CreatePayment(ctx, Input{Date: "2024-12-01", PaymentTypeID: pt.ID, Description: "diesel", Amount: mustAmount(t, "10")})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.DeletePayment(ctx, p.ID); err != nil {
		t.Fatal(err)
	}
	_, err = s.GetPayment(ctx, p.ID)
	expectKind(t, err, apperr.KindNotFound)
	expectKind(t, s.DeletePayment(ctx, p.ID), apperr.KindNotFound)
}

func TestPaymentTypeDeleteRestricted(t *testing.T) {
	s, gdb := newTestService(t)
	ctx := context.Background()
	pt := mustType(t, s, "Fuel")
	if _, err := s.CreatePayment(ctx, Input{Date: "2024-12-01", PaymentTypeID: pt.ID, Description: "diesel", Amount: mustAmount(t, "10")}); err != nil {
		t.Fatal(err)
	}
	if err := gdb.Delete(&models.PaymentType{}, pt.ID).Error; err == nil {
		t.Fatalf("deleting a referenced payment type must fail")
	}
}

func TestListPaymentsFiltersAndOrder(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	fuel := mustType(t, s, "Fuel")
	fees := mustType(t, s, "Fees")

	seed := []Input{
		{Date: "2023-12-31", PaymentTypeID: fuel.ID, Description: "before", Amount: mustAmount(t, "1")},
		{Date: "2024-01-01", PaymentTypeID: fuel.ID, Description: "first day", Amount: mustAmount(t, "2")},
		{Date: "2024-01-15", PaymentTypeID: fees.ID, Description: "mid a", Amount: mustAmount(t, "3")},
		{Date: "2024-01-15", PaymentTypeID: fuel.ID, Description: "mid b", Amount: mustAmount(t, "4")},
		{Date: "2024-01-31", PaymentTypeID: fuel.ID, Description: "last day", Amount: mustAmount(t, "5")},
		{Date: "2024-02-01", PaymentTypeID: fees.ID, Description: "after", Amount: mustAmount(t, "6")},
	}
	ids := map[string]uint{}
	for _, in := range seed {
		p, err := s.CreatePayment(ctx, in)
		if err != nil {
			t.Fatal(err)
		}
		ids[in.Description] = p.ID
	}

	all, err := s.ListPayments(ctx, Filter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != len(seed) {
		t.Fatalf("expected %d got %d", len(seed), len(all))
	}

	jan, err := s.ListPayments(ctx, Filter{StartDate: "2024-01-01", EndDate: "2024-01-31"})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"last day", "mid b", "mid a", "first day"}
	if len(jan) != len(want) {
		t.Fatalf("expected %d january payments got %d", len(want), len(jan))
	}
	for i, w := range want {
		if jan[i].ID != ids[w] {
			t.Fatalf("position %d: want %q (id %d) got id %d", i, w, ids[w], jan[i].ID)
		}
		if jan[i].PaymentType == nil || jan[i].PaymentType.ID != jan[i].PaymentTypeID {
			t.Fatalf("payment %d missing joined type", jan[i].ID)
		}
	}

	janFuel, err := s.ListPayments(ctx, Filter{PaymentTypeID: fuel.ID, StartDate: "2024-01-01", EndDate: "2024-01-31"})
	if err != nil {
		t.Fatal(err)
	}
	if len(janFuel) != 3 {
		t.Fatalf("expected 3 fuel payments in january got %d", len(janFuel))
	}
	for _, p := range janFuel {
		if p.PaymentTypeID != fuel.ID {
			t.Fatalf("filter leaked type %d", p.PaymentTypeID)
		}
	}

	from, _ := s.ListPayments(ctx, Filter{StartDate: "2024-01-31"})
	if len(from) != 2 {
		t.Fatalf("expected 2 payments from 2024-01-31 got %d", len(from))
	}
	until, _ := s.ListPayments(ctx, Filter{EndDate: "2023-12-31"})
	if len(until) != 1 || until[0].ID != ids["before"] {
		t.Fatalf("unexpected end-date filter result %+v", until)
	}
}

func TestReceiptPaths(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	pt := mustType(t, s, "Fuel")
	p, err := s.CreatePayment(ctx, Input{Date: "2024-12-01", PaymentTypeID: pt.ID, Description: "diesel", Amount: mustAmount(t, "10")})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreatePayment(ctx, Input{Date: "2024-12-02", PaymentTypeID: pt.ID, Description: "gas", Amount: mustAmount(t, "10")}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.SetReceiptPath(ctx, p.ID, "receipts/a.pdf"); err != nil {
		t.Fatal(err)
	}
	_, err = s.SetReceiptPath(ctx, 999, "receipts/b.pdf")
	expectKind(t, err, apperr.KindNotFound)

	paths, err := s.ReceiptPaths(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 1 || paths[0] != "receipts/a.pdf" {
		t.Fatalf("unexpected paths %v", paths)
	}
	got, _ := s.GetPayment(ctx, p.ID)
	if got.ReceiptPath == nil || *got.ReceiptPath != "receipts/a.pdf" {
		t.Fatalf("receipt path not persisted")
	}
}
