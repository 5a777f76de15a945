package models

import "time"

// Payment is a single financial record. The (Date, PaymentTypeID, Description, Amount)
// tuple is unique across the table.
type Payment struct {
	ID            uint         `gorm:"primaryKey" json:"id"`
	Date          Date         `gorm:"type:date;not null;index:idx_payments_date;uniqueIndex:idx_payments_tuple,priority:1" json:"date"`
	PaymentTypeID uint         `gorm:"not null;index;uniqueIndex:idx_payments_tuple,priority:2" json:"paymentTypeId"`
	PaymentType   *PaymentType `gorm:"foreignKey:PaymentTypeID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"paymentType,omitempty"`
	Description   string       `gorm:"size:255;not null;uniqueIndex:idx_payments_tuple,priority:3" json:"description"`
	Amount        Amount       `gorm:"type:decimal(15,2);not null;uniqueIndex:idx_payments_tuple,priority:4" json:"amount"`
	// ReceiptPath is relative to the uploads base, e.g. receipts/scan-1733660000000-1a2b3c4d.pdf
	ReceiptPath *string   `gorm:"size:255" json:"receiptPath,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
