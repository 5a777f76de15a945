package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"cartorio/models"
	"cartorio/pkg/apperr"
	"cartorio/pkg/payments"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

type paymentTypeRequest struct {
	Name string `json:"name" binding:"required,tmin=2,tmax=255"`
}

type paymentRequest struct {
	Date          string      `json:"date" binding:"required,isodate"`
	PaymentTypeID uint        `json:"paymentTypeId" binding:"required,gt=0"`
	Description   string      `json:"description" binding:"required,tmin=2,tmax=255"`
	Amount        json.Number `json:"amount" binding:"required,money"`
}

func (r paymentRequest) input() payments.Input {
	amt, _ := models.ParseAmount(r.Amount.String()) // checked by the money tag
	return payments.Input{
		Date:          r.Date,
		PaymentTypeID: r.PaymentTypeID,
		Description:   r.Description,
		Amount:        amt,
	}
}

type paymentQuery struct {
	PaymentTypeID *uint  `form:"paymentTypeId" binding:"omitempty,gt=0"`
	StartDate     string `form:"startDate" binding:"omitempty,ymd"`
	EndDate       string `form:"endDate" binding:"omitempty,ymd"`
}

func (q paymentQuery) filter() payments.Filter {
	f := payments.Filter{StartDate: q.StartDate, EndDate: q.EndDate}
	if q.PaymentTypeID != nil {
		f.PaymentTypeID = *q.PaymentTypeID
	}
	return f
}

var registerOnce sync.Once

// registerValidators installs the custom binding tags on gin's validator.
func registerValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			for _, tag := range []string{"json", "form"} {
				name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
				if name != "" && name != "-" {
					return name
				}
			}
			return f.Name
		})
		_ = v.RegisterValidation("isodate", validateISODate)
		_ = v.RegisterValidation("ymd", validateYMD)
		_ = v.RegisterValidation("tmin", validateTrimmedMin)
		_ = v.RegisterValidation("tmax", validateTrimmedMax)
		_ = v.RegisterValidation("money", validateMoney)
	})
}

// isodate: YYYY-MM-DD, optionally followed by a time part that gets dropped.
func validateISODate(fl validator.FieldLevel) bool {
	s := strings.TrimSpace(fl.Field().String())
	if len(s) > len(models.DateLayout) {
		if c := s[len(models.DateLayout)]; c != 'T' && c != ' ' {
			return false
		}
	}
	_, err := models.NormalizeDate(s).Time()
	return err == nil
}

func validateYMD(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if len(s) != len(models.DateLayout) {
		return false
	}
	_, err := time.Parse(models.DateLayout, s)
	return err == nil
}

func trimmedLen(fl validator.FieldLevel) (int, int, bool) {
	n, err := strconv.Atoi(fl.Param())
	if err != nil {
		return 0, 0, false
	}
	return utf8.RuneCountInString(strings.TrimSpace(fl.Field().String())), n, true
}

func validateTrimmedMin(fl validator.FieldLevel) bool {
	l, n, ok := trimmedLen(fl)
	return ok && l >= n
}

func validateTrimmedMax(fl validator.FieldLevel) bool {
	l, n, ok := trimmedLen(fl)
	return ok && l <= n
}

// money: a number that is still positive after rounding to cents.
func validateMoney(fl validator.FieldLevel) bool {
	d, err := decimal.NewFromString(fl.Field().String())
	if err != nil {
		return false
	}
	return d.Round(2).IsPositive()
}

// bindError turns a gin binding failure into a 400 with a readable message.
func bindError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return apperr.Validation(fieldMessage(verrs[0]))
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return apperr.Validation(fmt.Sprintf("%q has an invalid type", typeErr.Field))
	}
	var numErr *strconv.NumError
	if errors.As(err, &numErr) {
		return apperr.Validation("invalid query parameters")
	}
	return apperr.Validation("invalid request body")
}

func fieldMessage(fe validator.FieldError) string {
	f := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%q is required", f)
	case "isodate", "ymd":
		return fmt.Sprintf("%q must be a valid date (YYYY-MM-DD)", f)
	case "tmin":
		return fmt.Sprintf("%q must be at least %s characters long", f, fe.Param())
	case "tmax":
		return fmt.Sprintf("%q must be at most %s characters long", f, fe.Param())
	case "money":
		return fmt.Sprintf("%q must be a positive number", f)
	case "gt":
		return fmt.Sprintf("%q must be a positive integer", f)
	}
	return fmt.Sprintf("%q is invalid", f)
}
