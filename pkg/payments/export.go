package payments

import (
	"fmt"
	"io"

	"cartorio/models"

	"github.com/xuri/excelize/v2"
)

// ExportSheet is the worksheet name of the XLSX export.
const ExportSheet = "Payments"

var exportHeaders = []string{"Date", "Payment type", "Description", "Amount", "Receipt"}

// WriteXLSX writes items as a single-sheet workbook to w.
func WriteXLSX(w io.Writer, items []models.Payment) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ExportSheet); err != nil {
		return err
	}
	for i, h := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(ExportSheet, cell, h); err != nil {
			return err
		}
	}
	moneyStyle, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		return err
	}

	for i, p := range items {
		row := i + 2
		typeName := ""
		if p.PaymentType != nil {
			typeName = p.PaymentType.Name
		}
		receipt := ""
		if p.ReceiptPath != nil {
			receipt = *p.ReceiptPath
		}
		values := []interface{}{p.Date.String(), typeName, p.Description, p.Amount.InexactFloat64(), receipt}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(ExportSheet, cell, v); err != nil {
				return err
			}
		}
		amountCell := fmt.Sprintf("D%d", row)
		if err := f.SetCellStyle(ExportSheet, amountCell, amountCell, moneyStyle); err != nil {
			return err
		}
	}
	_ = f.SetColWidth(ExportSheet, "A", "A", 12)
	_ = f.SetColWidth(ExportSheet, "B", "C", 30)

	return f.Write(w)
}
