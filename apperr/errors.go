// Package apperr defines the error taxonomy shared by the token service, the
// policy engine, the store and the HTTP handlers.
package apperr

import (
	"errors"
	"net/http"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrInvalidToken    = errors.New("invalid token")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrValidation      = errors.New("validation error")
	ErrOperationFailed = errors.New("operation failed")
	ErrConfig          = errors.New("configuration error")
)

// Error carries a client-facing message alongside the taxonomy kind and the
// underlying cause.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Kind.Error()
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	if e == nil {
		return nil
	}
	errs := []error{e.Kind}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func New(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind error, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func Unauthenticated(message string) *Error { return New(ErrUnauthenticated, message) }
func Forbidden(message string) *Error       { return New(ErrForbidden, message) }
func NotFound(message string) *Error        { return New(ErrNotFound, message) }
func Validation(message string) *Error      { return New(ErrValidation, message) }

func OperationFailed(message string, err error) *Error {
	return Wrap(ErrOperationFailed, message, err)
}

type mapping struct {
	kind   error
	status int
	code   string
}

// Order matters: ErrInvalidToken is checked before the generic kinds so that a
// wrapped token failure still reports 401.
var mappings = []mapping{
	{ErrUnauthenticated, http.StatusUnauthorized, "UNAUTHENTICATED"},
	{ErrInvalidToken, http.StatusUnauthorized, "INVALID_TOKEN"},
	{ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
	{ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
	{ErrValidation, http.StatusBadRequest, "VALIDATION_ERROR"},
	{ErrConfig, http.StatusInternalServerError, "CONFIG_ERROR"},
	{ErrOperationFailed, http.StatusInternalServerError, "OPERATION_FAILED"},
}

// Status maps an error to its HTTP status and structured code. Unknown errors
// are treated as OperationFailed.
func Status(err error) (int, string) {
	for _, m := range mappings {
		if errors.Is(err, m.kind) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, "OPERATION_FAILED"
}

// Message returns the text safe to show a client.
func Message(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	if errors.Is(err, ErrOperationFailed) || !isKnown(err) {
		return "operation failed"
	}
	return err.Error()
}

func isKnown(err error) bool {
	for _, m := range mappings {
		if errors.Is(err, m.kind) {
			return true
		}
	}
	return false
}
