package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Standard error types
var (
	ErrNotFound     = errors.New("resource not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrBadRequest   = errors.New("bad request")
	ErrConflict     = errors.New("resource conflict")
	ErrInternal     = errors.New("internal server error")
	ErrValidation   = errors.New("validation error")
	ErrLocked       = errors.New("resource locked")
)

// AppError represents an application error with context.
// Code carries the business failure code surfaced in the response
// envelope; StatusCode is only used when the failure is not a business
// outcome (infrastructure errors).
type AppError struct {
	Err        error             `json:"-"`
	Message    string            `json:"message"`
	Code       string            `json:"code"`
	StatusCode int               `json:"status_code"`
	Details    map[string]string `json:"details,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError
func New(code string, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// Wrap wraps an error with additional context
func Wrap(err error, code string, message string, statusCode int) *AppError {
	return &AppError{
		Err:        err,
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// WithDetails adds details to an AppError
func (e *AppError) WithDetails(details map[string]string) *AppError {
	e.Details = details
	return e
}

// Generic constructors

func NotFound(resource string) *AppError {
	return &AppError{
		Err:        ErrNotFound,
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		StatusCode: http.StatusNotFound,
	}
}

func BadRequest(message string) *AppError {
	return &AppError{
		Err:        ErrBadRequest,
		Code:       "VALIDATION_ERROR",
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func Conflict(message string) *AppError {
	return &AppError{
		Err:        ErrConflict,
		Code:       "ALREADY_EXISTS",
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

func Internal(message string) *AppError {
	return &AppError{
		Err:        ErrInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
	}
}

func Validation(details map[string]string) *AppError {
	return &AppError{
		Err:        ErrValidation,
		Code:       "VALIDATION_ERROR",
		Message:    "validation failed",
		StatusCode: http.StatusBadRequest,
		Details:    details,
	}
}

// Business failure constructors. Each maps to one code in the action
// response envelope; the attendance and payroll engines return these
// instead of raw errors.

func AuthRequired() *AppError {
	return &AppError{
		Err:        ErrUnauthorized,
		Code:       "AUTH_REQUIRED",
		Message:    "caller identity is required",
		StatusCode: http.StatusUnauthorized,
	}
}

func AdminRequired() *AppError {
	return &AppError{
		Err:        ErrForbidden,
		Code:       "ADMIN_REQUIRED",
		Message:    "admin privileges are required for this action",
		StatusCode: http.StatusForbidden,
	}
}

func DeviceNotRegistered() *AppError {
	return &AppError{
		Err:        ErrBadRequest,
		Code:       "DEVICE_NOT_REGISTERED",
		Message:    "no device is registered for this employee",
		StatusCode: http.StatusBadRequest,
	}
}

func InvalidSignature() *AppError {
	return &AppError{
		Err:        ErrUnauthorized,
		Code:       "INVALID_SIGNATURE",
		Message:    "signature verification failed",
		StatusCode: http.StatusUnauthorized,
	}
}

func DuplicateCheckIn() *AppError {
	return &AppError{
		Err:        ErrConflict,
		Code:       "DUPLICATE_CHECK_IN",
		Message:    "already checked in today",
		StatusCode: http.StatusConflict,
	}
}

func DuplicateCheckOut() *AppError {
	return &AppError{
		Err:        ErrConflict,
		Code:       "DUPLICATE_CHECK_OUT",
		Message:    "already checked out today",
		StatusCode: http.StatusConflict,
	}
}

func LateCheckIn() *AppError {
	return &AppError{
		Err:        ErrBadRequest,
		Code:       "LATE_CHECK_IN",
		Message:    "check-in window has closed (09:05 office time)",
		StatusCode: http.StatusBadRequest,
	}
}

func CheckoutWindowBlocked() *AppError {
	return &AppError{
		Err:        ErrBadRequest,
		Code:       "CHECKOUT_WINDOW_BLOCKED",
		Message:    "check-out is blocked between 16:00 and 17:25 office time",
		StatusCode: http.StatusBadRequest,
	}
}

func MissingCheckIn() *AppError {
	return &AppError{
		Err:        ErrBadRequest,
		Code:       "MISSING_CHECK_IN",
		Message:    "no check-in found for today",
		StatusCode: http.StatusBadRequest,
	}
}

func AttendanceLocked() *AppError {
	return &AppError{
		Err:        ErrLocked,
		Code:       "ATTENDANCE_LOCKED",
		Message:    "attendance record is locked by a generated payroll",
		StatusCode: http.StatusConflict,
	}
}

func MissingReason() *AppError {
	return &AppError{
		Err:        ErrBadRequest,
		Code:       "MISSING_REASON",
		Message:    "a reason of at least 10 characters is required",
		StatusCode: http.StatusBadRequest,
	}
}

func DuplicateHoliday() *AppError {
	return &AppError{
		Err:        ErrConflict,
		Code:       "DUPLICATE_HOLIDAY",
		Message:    "a holiday already exists on this date",
		StatusCode: http.StatusConflict,
	}
}

func LocationInvalid(message string) *AppError {
	return &AppError{
		Err:        ErrBadRequest,
		Code:       "LOCATION_INVALID",
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func AlreadyExists(message string) *AppError {
	return &AppError{
		Err:        ErrConflict,
		Code:       "ALREADY_EXISTS",
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

func InvalidAction(name string) *AppError {
	return &AppError{
		Err:        ErrBadRequest,
		Code:       "INVALID_ACTION",
		Message:    fmt.Sprintf("Unknown action: %s", name),
		StatusCode: http.StatusBadRequest,
	}
}

// Is checks if the error matches a target error
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As attempts to convert an error to a specific type
func As(err error, target any) bool {
	return errors.As(err, target)
}
