package payments

import (
	"bytes"
	"testing"

	"cartorio/models"

	"github.com/xuri/excelize/v2"
)

func TestWriteXLSX(t *testing.T) {
	receipt := "receipts/fuel-1-abcd.pdf"
	items := []models.Payment{
		{ID: 2, Date: "2024-12-02", PaymentTypeID: 1, PaymentType: &models.PaymentType{ID: 1, Name: "Fuel"},
			Description: "diesel", Amount: models.NewAmount(mustAmount(t, "10.5").Decimal), ReceiptPath: &receipt},
		{ID: 1, Date: "2024-12-01", PaymentTypeID: 3, Description: "unknown type", Amount: mustAmount(t, "3")},
	}

	var buf bytes.Buffer
	if err := WriteXLSX(&buf, items); err != nil {
		t.Fatal(err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(ExportSheet)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header and 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "Date" || rows[0][4] != "Receipt" {
		t.Fatalf("unexpected header %v", rows[0])
	}
	if rows[1][0] != "2024-12-02" || rows[1][1] != "Fuel" || rows[1][2] != "diesel" || rows[1][4] != receipt {
		t.Fatalf("unexpected first row %v", rows[1])
	}
	if rows[2][1] != "" || rows[2][2] != "unknown type" {
		t.Fatalf("unexpected second row %v", rows[2])
	}

	raw, err := f.GetCellValue(ExportSheet, "D2", excelize.Options{RawCellValue: true})
	if err != nil {
		t.Fatal(err)
	}
	if raw != "10.5" {
		t.Fatalf("expected raw amount 10.5, got %q", raw)
	}
}

func TestWriteXLSXEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, nil); err != nil {
		t.Fatal(err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := f.GetRows(ExportSheet)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected only the header row, got %d", len(rows))
	}
}
