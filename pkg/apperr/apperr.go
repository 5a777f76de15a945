// Package apperr carries an HTTP status alongside business errors so a single
// translation step can turn any returned error into a response.
package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies an Error.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindBusinessRule
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindBusinessRule:
		return "business_rule"
	case KindNotFound:
		return "not_found"
	default:
		return "internal"
	}
}

// InternalMessage is the only message a client ever sees for a 5xx.
const InternalMessage = "internal server error"

// Error is an error tagged with a kind and the status code it maps to.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		if e.Message == "" {
			return e.Err.Error()
		}
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Validation reports malformed or missing request fields (400).
func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Status: http.StatusBadRequest, Message: msg}
}

// BusinessRule reports a request that is well formed but violates a rule,
// such as a duplicate or a missing referenced record (400).
func BusinessRule(msg string) *Error {
	return &Error{Kind: KindBusinessRule, Status: http.StatusBadRequest, Message: msg}
}

// NotFound reports a missing addressed record (404).
func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Status: http.StatusNotFound, Message: msg}
}

// Internal wraps an unexpected failure (500).
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Status: http.StatusInternalServerError, Err: err}
}

// As returns the *Error in err's chain, if any.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// Is reports whether err carries the given kind.
func Is(err error, k Kind) bool {
	e, ok := As(err)
	if !ok {
		return k == KindInternal && err != nil
	}
	return e.Kind == k
}

// StatusOf returns the status attached to err, or 500 when none (or an invalid one) is attached.
func StatusOf(err error) int {
	if e, ok := As(err); ok && e.Status >= 400 {
		return e.Status
	}
	return http.StatusInternalServerError
}

// PublicMessage is the message safe to send to a client.
func PublicMessage(err error) string {
	status := StatusOf(err)
	if status >= 500 {
		return InternalMessage
	}
	e, _ := As(err)
	if e.Message == "" {
		return http.StatusText(status)
	}
	return e.Message
}
