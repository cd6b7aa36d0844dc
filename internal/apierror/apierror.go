// Package apierror provides standardized error response structures for the API.
// All errors returned to clients go through this package to ensure consistency
// and to prevent leaking internal details (stack traces, DB errors, etc.).
//
// Every domain error carries a machine-readable Kind alongside the human
// message so handlers can map it to an HTTP status without string matching.
package apierror

import (
	"errors"
	"net/http"
)

// Kind classifies a domain error.
type Kind string

const (
	KindValidation  Kind = "validation"
	KindClosedBox   Kind = "closed_box"
	KindOverpayment Kind = "overpayment"
	KindNotFound    Kind = "not_found"
	KindConflict    Kind = "conflict"
	KindInternal    Kind = "internal"
)

// Error is the canonical domain error. It doubles as the JSON envelope for
// 4xx/5xx responses.
type Error struct {
	Kind   Kind   `json:"kind"`
	Detail string `json:"detail"`
}

func (e *Error) Error() string { return e.Detail }

// HTTPStatus maps the error kind to a response status code.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusUnprocessableEntity
	case KindNotFound:
		return http.StatusNotFound
	case KindClosedBox, KindOverpayment, KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func New(msg string) *Error { return &Error{Kind: KindInternal, Detail: msg} }

func Validation(msg string) *Error  { return &Error{Kind: KindValidation, Detail: msg} }
func ClosedBox(msg string) *Error   { return &Error{Kind: KindClosedBox, Detail: msg} }
func Overpayment(msg string) *Error { return &Error{Kind: KindOverpayment, Detail: msg} }
func NotFound(msg string) *Error    { return &Error{Kind: KindNotFound, Detail: msg} }
func Conflict(msg string) *Error    { return &Error{Kind: KindConflict, Detail: msg} }

// KindOf extracts the Kind from any error; non-apierror errors are internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// ValidationError wraps multiple field errors from request binding.
type ValidationError struct {
	Kind   Kind              `json:"kind"`
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Kind: KindValidation, Detail: "Error de validacion", Fields: fields}
}
