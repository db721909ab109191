package apperr

import (
	"errors"
	"fmt"
)

// Error codes
const (
	// Input errors
	CodeInvalidInput = "INVALID_INPUT"
	CodeMissingField = "MISSING_FIELD"

	// Classification errors
	CodeClassificationUnavailable = "CLASSIFICATION_UNAVAILABLE"
	CodeUnknownCategoryCoerced    = "UNKNOWN_CATEGORY_COERCED"

	// External errors
	CodeDatabaseError = "DATABASE_ERROR"
	CodeExternalError = "EXTERNAL_ERROR"
	CodeTimeout       = "TIMEOUT"

	// Internal errors
	CodeInternalError = "INTERNAL_ERROR"
	CodeConfigError   = "CONFIG_ERROR"
)

// AppError represents a structured application error
type AppError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	Err     error          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

func (e *AppError) WithError(err error) *AppError {
	e.Err = err
	return e
}

// Constructor functions
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

func Wrap(err error, code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// InvalidInput marks a request rejected before any classification work.
func InvalidInput(message string) *AppError {
	if message == "" {
		message = "invalid input"
	}
	return &AppError{
		Code:    CodeInvalidInput,
		Message: message,
	}
}

// ClassificationUnavailable marks a failed external semantic classification.
// Callers recover locally via the fallback classifier; this never reaches the
// external caller as a failure.
func ClassificationUnavailable(err error) *AppError {
	return &AppError{
		Code:    CodeClassificationUnavailable,
		Message: "semantic classification unavailable",
		Err:     err,
	}
}

// UnknownCategoryCoerced is an observability-only warning: the external
// classifier returned an out-of-range value that was auto-corrected.
func UnknownCategoryCoerced(raw string) *AppError {
	return &AppError{
		Code:    CodeUnknownCategoryCoerced,
		Message: "unrecognized category coerced to general_support",
		Details: map[string]any{"raw": raw},
	}
}

func DatabaseError(err error, message string) *AppError {
	return &AppError{
		Code:    CodeDatabaseError,
		Message: message,
		Err:     err,
	}
}

func ExternalError(err error, message string) *AppError {
	return &AppError{
		Code:    CodeExternalError,
		Message: message,
		Err:     err,
	}
}

// IsCode reports whether err is an AppError with the given code.
func IsCode(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// IsInvalidInput reports whether err is an INVALID_INPUT error.
func IsInvalidInput(err error) bool {
	return IsCode(err, CodeInvalidInput)
}

// IsClassificationUnavailable reports whether err signals a failed external
// classification call.
func IsClassificationUnavailable(err error) bool {
	return IsCode(err, CodeClassificationUnavailable)
}
