// Package autherr defines the typed errors surfaced by the auth flows. Every error carries a
// stable machine-readable code, distinct from its human message; the HTTP layer maps codes to statuses.
package autherr

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is a stable machine-readable error code.
type Code string

const (
	CodeDuplicateEmail        Code = "DUPLICATE_EMAIL"
	CodeInvalidCredentials    Code = "INVALID_CREDENTIALS"
	CodeInvalidOrExpiredCode  Code = "INVALID_OR_EXPIRED_CODE"
	CodeRateLimitExceeded     Code = "RATE_LIMIT_EXCEEDED"
	CodeInvalidProviderToken  Code = "INVALID_PROVIDER_TOKEN"
	CodeUnsupportedProvider   Code = "UNSUPPORTED_PROVIDER"
	CodeInvalidToken          Code = "INVALID_TOKEN"
	CodeExpiredToken          Code = "EXPIRED_TOKEN"
	CodeNoTokenPresent        Code = "NO_TOKEN_PRESENT"
	CodeProviderAlreadyLinked Code = "PROVIDER_ALREADY_LINKED"
	CodeProviderNotLinked     Code = "PROVIDER_NOT_LINKED"
	CodeLastCredential        Code = "LAST_CREDENTIAL"
	CodeValidation            Code = "VALIDATION_ERROR"
	CodeForbidden             Code = "FORBIDDEN"
	CodeNotFound              Code = "NOT_FOUND"
	CodeInfrastructure        Code = "INFRASTRUCTURE_ERROR"
)

// Error is a typed auth error. Two *Error values match under errors.Is when their codes are equal,
// so callers compare against the sentinels below regardless of message or wrapped cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Sentinel errors; handler maps them to HTTP statuses via Status.
var (
	ErrDuplicateEmail        = New(CodeDuplicateEmail, "email already registered")
	ErrInvalidCredentials    = New(CodeInvalidCredentials, "invalid credentials")
	ErrInvalidOrExpiredCode  = New(CodeInvalidOrExpiredCode, "invalid or expired code")
	ErrRateLimitExceeded     = New(CodeRateLimitExceeded, "too many code requests; try again later")
	ErrInvalidProviderToken  = New(CodeInvalidProviderToken, "provider token could not be verified")
	ErrUnsupportedProvider   = New(CodeUnsupportedProvider, "unsupported authentication provider")
	ErrInvalidToken          = New(CodeInvalidToken, "invalid token")
	ErrExpiredToken          = New(CodeExpiredToken, "token expired")
	ErrNoTokenPresent        = New(CodeNoTokenPresent, "no bearer token present")
	ErrProviderAlreadyLinked = New(CodeProviderAlreadyLinked, "provider already linked")
	ErrProviderNotLinked     = New(CodeProviderNotLinked, "provider not linked")
	ErrLastCredential        = New(CodeLastCredential, "cannot remove the last sign-in method")
	ErrForbidden             = New(CodeForbidden, "forbidden")
	ErrNotFound              = New(CodeNotFound, "not found")
)

// New returns an *Error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Validation returns a VALIDATION_ERROR with the given message.
func Validation(message string) *Error {
	return &Error{Code: CodeValidation, Message: message}
}

// Wrap returns a copy of sentinel carrying cause. Useful to keep provider or driver detail in logs.
func Wrap(sentinel *Error, cause error) *Error {
	return &Error{Code: sentinel.Code, Message: sentinel.Message, Err: cause}
}

// Infra wraps a persistence or transport failure as INFRASTRUCTURE_ERROR. Returns nil when err is nil.
// An err that already is an *Error is returned unchanged.
func Infra(op string, err error) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return err
	}
	return &Error{Code: CodeInfrastructure, Message: op, Err: err}
}

// CodeOf returns the code of the first *Error in err's chain, or INFRASTRUCTURE_ERROR for untyped errors.
func CodeOf(err error) Code {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return CodeInfrastructure
}

// MessageOf returns the human message for err. Untyped errors get a generic message so driver
// details never reach clients.
func MessageOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) && ae.Code != CodeInfrastructure {
		return ae.Message
	}
	return "internal error"
}

// Status maps a code to an HTTP status.
func Status(code Code) int {
	switch code {
	case CodeValidation, CodeInvalidOrExpiredCode, CodeUnsupportedProvider:
		return http.StatusBadRequest
	case CodeInvalidCredentials, CodeInvalidProviderToken, CodeInvalidToken, CodeExpiredToken, CodeNoTokenPresent:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeDuplicateEmail, CodeProviderAlreadyLinked, CodeProviderNotLinked, CodeLastCredential:
		return http.StatusConflict
	case CodeRateLimitExceeded:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
