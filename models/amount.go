package models

import (
	"database/sql/driver"

	"github.com/shopspring/decimal"
)

// Amount is a monetary value with two fractional digits.
type Amount struct {
	decimal.Decimal
}

// NewAmount rounds d half-up to cents.
func NewAmount(d decimal.Decimal) Amount {
	return Amount{Decimal: d.Round(2)}
}

// ParseAmount parses a decimal string such as "10", "10.5" or "10.00".
func ParseAmount(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, err
	}
	return NewAmount(d), nil
}

func (a Amount) String() string { return a.StringFixed(2) }

// MarshalJSON renders the amount as a bare JSON number with two decimals (10.00).
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.StringFixed(2)), nil
}

func (a Amount) Value() (driver.Value, error) {
	return a.StringFixed(2), nil
}
