package domain

import (
	"errors"
	"fmt"
)

// Kind groups failures by how callers must react to them.
type Kind string

const (
	KindConflict     Kind = "conflict"
	KindInvalidInput Kind = "invalid_input"
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindNotFound     Kind = "not_found"
)

// Error codes attached to categorized failures.
const (
	CodeEmailExists        = "EMAIL_EXISTS"
	CodeSlugExists         = "SLUG_EXISTS"
	CodeSlugLocked         = "SLUG_LOCKED"
	CodeInvalidSlug        = "INVALID_SLUG"
	CodeCompanyNotFound    = "COMPANY_NOT_FOUND"
	CodeUserNotFound       = "USER_NOT_FOUND"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeAccountInactive    = "ACCOUNT_INACTIVE"
	CodeCompanyInactive    = "COMPANY_INACTIVE"
	CodeInvalidToken       = "INVALID_TOKEN"
	CodeInsufficientRole   = "INSUFFICIENT_ROLE"
	CodeTenantMismatch     = "TENANT_MISMATCH"
	CodeInvalidRole        = "INVALID_ROLE"
	CodeInvalidPassword    = "INVALID_PASSWORD"
)

// Error is a categorized failure raised by the service layer.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches another *Error by kind and, when set, by code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Code == "" || t.Code == e.Code
}

func newError(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func Conflict(code, message string) *Error     { return newError(KindConflict, code, message) }
func InvalidInput(code, message string) *Error { return newError(KindInvalidInput, code, message) }
func Unauthorized(code, message string) *Error { return newError(KindUnauthorized, code, message) }
func Forbidden(code, message string) *Error    { return newError(KindForbidden, code, message) }
func NotFound(code, message string) *Error     { return newError(KindNotFound, code, message) }

// Sentinels for errors.Is comparisons on kind only.
var (
	ErrConflict     = &Error{Kind: KindConflict}
	ErrInvalidInput = &Error{Kind: KindInvalidInput}
	ErrUnauthorized = &Error{Kind: KindUnauthorized}
	ErrForbidden    = &Error{Kind: KindForbidden}
	ErrNotFound     = &Error{Kind: KindNotFound}
)

// AsError extracts a categorized error from the chain.
func AsError(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// KindOf returns the kind of a categorized error, or "" for anything else.
func KindOf(err error) Kind {
	if de, ok := AsError(err); ok {
		return de.Kind
	}
	return ""
}
