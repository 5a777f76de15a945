package models

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire and storage format of a Date.
const DateLayout = "2006-01-02"

// Date is a calendar day kept in a DATE column and rendered as YYYY-MM-DD.
type Date string

// NormalizeDate drops a time component (e.g. "2024-12-01T10:00:00Z") and returns the day part.
func NormalizeDate(s string) Date {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, "T "); i >= 0 {
		s = s[:i]
	}
	return Date(s)
}

func (d Date) String() string { return string(d) }

// Time parses the date as midnight UTC.
func (d Date) Time() (time.Time, error) {
	return time.Parse(DateLayout, string(d))
}

// Scan accepts the representations drivers return for DATE columns.
func (d *Date) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*d = ""
	case time.Time:
		*d = Date(v.Format(DateLayout))
	case string:
		*d = NormalizeDate(v)
	case []byte:
		*d = NormalizeDate(string(v))
	default:
		return fmt.Errorf("models: cannot scan %T into Date", value)
	}
	return nil
}

// Value stores the date as its YYYY-MM-DD text; the database casts it to DATE.
func (d Date) Value() (driver.Value, error) {
	if d == "" {
		return nil, nil
	}
	return string(d), nil
}
