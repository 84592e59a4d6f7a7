package auth

import (
	"errors"
	"fmt"
)

// ErrorCode classifies credential and token failures. Handlers collapse
// every code to a single 401 response; the code only drives logging.
type ErrorCode string

const (
	CodeNotFound         ErrorCode = "NOT_FOUND"
	CodeDeleted          ErrorCode = "DELETED"
	CodeInvalidParameter ErrorCode = "INVALID_PARAMETER"
	CodeAuthentication   ErrorCode = "AUTHENTICATION"
)

// Error is a classified credential or token failure
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewError builds a classified error
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError wraps an existing error with a classification
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// Common failures
var (
	ErrUserNotFound    = NewError(CodeNotFound, "user not found")
	ErrUserDeleted     = NewError(CodeDeleted, "user has been deactivated")
	ErrInvalidEmail    = NewError(CodeInvalidParameter, "invalid email address")
	ErrInvalidPassword = NewError(CodeInvalidParameter, "password does not meet the policy")
	ErrMissingHash     = NewError(CodeInvalidParameter, "user has no stored password")
	ErrWrongPassword   = NewError(CodeAuthentication, "wrong password")
	ErrInvalidToken    = NewError(CodeAuthentication, "invalid token")
	ErrExpiredToken    = NewError(CodeAuthentication, "token has expired")
)

// IsCode reports whether err carries the given classification
func IsCode(err error, code ErrorCode) bool {
	var aErr *Error
	if errors.As(err, &aErr) {
		return aErr.Code == code
	}
	return false
}
