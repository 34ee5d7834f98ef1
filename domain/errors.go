package domain

import (
	"errors"
	"fmt"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
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

// Common domain errors.
var (
	ErrUserNotFound       = NewError(ErrCodeNotFound, "User not found")
	ErrTaskNotFound       = NewError(ErrCodeNotFound, "Task not found")
	ErrCommentNotFound    = NewError(ErrCodeNotFound, "Comment not found")
	ErrProfileNotFound    = NewError(ErrCodeNotFound, "User profile not found")
	ErrSessionNotFound    = NewError(ErrCodeNotFound, "session not found")
	ErrInvalidPage        = NewError(ErrCodeNotFound, "Invalid page.")
	ErrUnauthorized       = NewError(ErrCodeUnauthorized, "unauthorized")
	ErrInvalidCredentials = NewError(ErrCodeUnauthorized, "Invalid credentials")
	ErrInvalidPayload     = NewError(ErrCodeInvalid, "invalid payload")
	ErrInvalidReaction    = NewError(ErrCodeInvalid, "Invalid reaction type")
	ErrInvalidOTP         = NewError(ErrCodeInvalid, "Invalid OTP")
	ErrEmailTaken         = NewError(ErrCodeConflict, "user with this email already exists.")
	ErrUsernameTaken      = NewError(ErrCodeConflict, "This username is already taken.")
	ErrReactionConflict   = NewError(ErrCodeConflict, "reaction changed concurrently")

	ErrCredentialsRequired = NewError(ErrCodeInvalid, "Email/Username and password are required")
	ErrAccountInactive     = NewError(ErrCodeForbidden, "Account not active. Please verify OTP.")
	ErrWrongPassword       = NewError(ErrCodeInvalid, "Current password is incorrect")
	ErrPasswordReused      = NewError(ErrCodeInvalid, "not allowed one of your past passwords")
	ErrEmailNotRegistered  = NewError(ErrCodeNotFound, "User with this email does not exist.")
	ErrResetUserNotFound   = NewError(ErrCodeInvalid, "user not found")
	ErrTokenInvalid        = NewError(ErrCodeUnauthorized, "Token is invalid or expired")
	ErrTokenBlacklisted    = NewError(ErrCodeInvalid, "Token is blacklisted")
	ErrCommentForbidden    = NewError(ErrCodeForbidden, "You do not have permission to perform this action.")
)

// IsDomainError helps checking error codes.
func IsDomainError(err error, code ErrorCode) bool {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code == code
	}
	return false
}

// NonFieldErrors is the key used for errors that do not belong to one field.
const NonFieldErrors = "non_field_errors"

// ValidationError collects per-field messages in the order they were reported.
type ValidationError struct {
	fields *orderedmap.OrderedMap[string, []string]
}

func NewValidationError() *ValidationError {
	return &ValidationError{fields: orderedmap.New[string, []string]()}
}

// Add appends a message to the given field.
func (v *ValidationError) Add(field, message string) {
	current, _ := v.fields.Get(field)
	v.fields.Set(field, append(current, message))
}

// Empty reports whether no message has been recorded.
func (v *ValidationError) Empty() bool {
	return v == nil || v.fields.Len() == 0
}

// Has reports whether the field already carries a message.
func (v *ValidationError) Has(field string) bool {
	if v == nil {
		return false
	}
	_, ok := v.fields.Get(field)
	return ok
}

// Fields exposes the messages as an ordered field -> []string mapping.
func (v *ValidationError) Fields() *orderedmap.OrderedMap[string, any] {
	out := orderedmap.New[string, any]()
	if v == nil {
		return out
	}
	for pair := v.fields.Oldest(); pair != nil; pair = pair.Next() {
		out.Set(pair.Key, pair.Value)
	}
	return out
}

// Err returns nil when nothing was recorded so callers can return it directly.
func (v *ValidationError) Err() error {
	if v.Empty() {
		return nil
	}
	return v
}

func (v *ValidationError) Error() string {
	if v.Empty() {
		return ""
	}
	parts := make([]string, 0, v.fields.Len())
	for pair := v.fields.Oldest(); pair != nil; pair = pair.Next() {
		parts = append(parts, fmt.Sprintf("%s: %s", pair.Key, strings.Join(pair.Value, ", ")))
	}
	return strings.Join(parts, "; ")
}

// AsValidationError extracts a ValidationError from err.
func AsValidationError(err error) (*ValidationError, bool) {
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return vErr, true
	}
	return nil, false
}
