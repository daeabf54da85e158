// Package errors defines the typed error every layer of the request pipeline
// raises. The outer Code is what the client sees; Detail stays internal
// (logs, lockout counting) and is only exposed when debug responses are on.
package errors

import (
	stderrors "errors"
	"net/http"
)

type Kind string

const (
	KindAuth          Kind = "auth"
	KindAuthorization Kind = "authorization"
	KindBusiness      Kind = "business"
	KindValidation    Kind = "validation"
	KindNotFound      Kind = "not_found"
)

// FieldError is a single per-field validation violation.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type Error struct {
	Kind       Kind
	Code       string // machine-readable, client-facing
	Detail     string // internal sub-reason, never prominent to the client
	StatusCode int
	Fields     []FieldError // only for KindValidation
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return e.Code + ": " + e.Detail
	}
	return e.Code
}

func NewAuth(code, detail string) *Error {
	return &Error{Kind: KindAuth, Code: code, Detail: detail, StatusCode: http.StatusUnauthorized}
}

func NewAuthorization(code, detail string) *Error {
	return &Error{Kind: KindAuthorization, Code: code, Detail: detail, StatusCode: http.StatusForbidden}
}

func NewBusiness(code, detail string) *Error {
	return &Error{Kind: KindBusiness, Code: code, Detail: detail, StatusCode: http.StatusBadRequest}
}

func NewNotFound(code, detail string) *Error {
	return &Error{Kind: KindNotFound, Code: code, Detail: detail, StatusCode: http.StatusNotFound}
}

func NewValidation(fields []FieldError) *Error {
	return &Error{Kind: KindValidation, Code: "VALIDATION_FAILED", StatusCode: http.StatusUnprocessableEntity, Fields: fields}
}

// WithStatus overrides the default status code for the kind, e.g. 423 for
// account lockout or 429 for rate limiting.
func (e *Error) WithStatus(status int) *Error {
	e.StatusCode = status
	return e
}

// As unwraps err into *Error if it is one.
func As(err error) (*Error, bool) {
	var e *Error
	if stderrors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsNotFound reports whether err is a typed not-found error.
func IsNotFound(err error) bool {
	e, ok := As(err)
	return ok && e.Kind == KindNotFound
}
