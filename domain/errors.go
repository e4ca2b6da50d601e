package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a semantic classification shared across transport layers.
type ErrorCode string

const (
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeInvalid      ErrorCode = "INVALID"
	ErrCodeConflict     ErrorCode = "CONFLICT"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeInternal     ErrorCode = "INTERNAL"

	// ErrCodeStore marks transport or permission failures reported by the
	// document store on a single operation.
	ErrCodeStore ErrorCode = "STORE"
	// ErrCodeSubscription marks a subscription attempt that could not be
	// established. It is terminal for that attempt only.
	ErrCodeSubscription ErrorCode = "SUBSCRIPTION"
)

// Error represents a domain-level error.
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

// Is matches sentinel errors by code and message so wrapped copies of
// ErrTaskNotFound still satisfy errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// NewError builds a domain error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError wraps an existing error with a domain classification.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// StoreError classifies a failed store operation. Domain errors that already
// carry a code (not found, invalid payload) pass through untouched.
func StoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	var dErr *Error
	if errors.As(err, &dErr) {
		return err
	}
	return WrapError(ErrCodeStore, op, err)
}

// SubscriptionError classifies a failed subscription setup.
func SubscriptionError(err error) error {
	if err == nil {
		return nil
	}
	return WrapError(ErrCodeSubscription, "subscribe", err)
}

// Common domain errors.
var (
	ErrTaskNotFound    = NewError(ErrCodeNotFound, "task not found")
	ErrProfileNotFound = NewError(ErrCodeNotFound, "profile not found")
	ErrUnauthorized    = NewError(ErrCodeUnauthorized, "unauthorized")
	ErrForbidden       = NewError(ErrCodeForbidden, "schedule is private")
	ErrNotOwner        = NewError(ErrCodeForbidden, "task belongs to another user")
	ErrInvalidPayload  = NewError(ErrCodeInvalid, "invalid payload")
	ErrEmptyTitle      = NewError(ErrCodeInvalid, "task title must not be empty")
	ErrInvalidHour     = NewError(ErrCodeInvalid, "scheduled hour must be one of 00:00..23:00")
	ErrInvalidDate     = NewError(ErrCodeInvalid, "scheduled date must be YYYY-MM-DD")
	ErrInvalidFilter   = NewError(ErrCodeInvalid, "invalid task filter")
)

// IsDomainError helps checking error codes.
func IsDomainError(err error, code ErrorCode) bool {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code == code
	}
	return false
}

// IsNotFound reports whether err is an absent-result state rather than a failure.
func IsNotFound(err error) bool {
	return IsDomainError(err, ErrCodeNotFound)
}
