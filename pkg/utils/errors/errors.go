package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents the type of an error
type ErrorType uint

const (
	// ErrorTypeUnknown represents an unknown error
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeInvalidInput represents a non-positive or unrecognised input value
	ErrorTypeInvalidInput
	// ErrorTypeValidation represents a broken cross-field invariant, such as strike ordering
	ErrorTypeValidation
	// ErrorTypeDataQuality represents market data whose shape cannot support a calculation
	ErrorTypeDataQuality
	// ErrorTypeInternalInvariant represents a logic defect caught by a defensive check
	ErrorTypeInternalInvariant
	// ErrorTypeNotFound represents a not found error
	ErrorTypeNotFound
	// ErrorTypeUnavailable represents a collaborator that could not be reached
	ErrorTypeUnavailable
	// ErrorTypeInternal represents an internal error
	ErrorTypeInternal
)

// String returns the name of the error type
func (t ErrorType) String() string {
	switch t {
	case ErrorTypeInvalidInput:
		return "invalid_input"
	case ErrorTypeValidation:
		return "validation"
	case ErrorTypeDataQuality:
		return "data_quality"
	case ErrorTypeInternalInvariant:
		return "internal_invariant"
	case ErrorTypeNotFound:
		return "not_found"
	case ErrorTypeUnavailable:
		return "unavailable"
	case ErrorTypeInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// AppError represents an application error
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

// Error returns the error message
func (e *AppError) Error() string {
	if e.Err != nil {
		if e.Message == "" {
			return e.Err.Error()
		}
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new error with the given message
func New(message string) error {
	return &AppError{
		Type:    ErrorTypeUnknown,
		Message: message,
	}
}

// Wrap wraps an error with a message, keeping the type of the first AppError in its chain
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return &AppError{
		Type:    TypeOf(err),
		Message: message,
		Err:     err,
	}
}

// Wrapf wraps an error with a formatted message
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// WithType wraps err so that its chain reports the given type
func WithType(err error, errType ErrorType) error {
	if err == nil {
		return nil
	}
	return &AppError{
		Type: errType,
		Err:  err,
	}
}

// TypeOf returns the type of the first AppError in err's chain
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ErrorTypeUnknown
}

// Is reports whether err or any of the errors in its chain is target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

func newf(errType ErrorType, format string, args ...interface{}) error {
	return &AppError{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
	}
}

// InvalidInputf creates a new InvalidInput error
func InvalidInputf(format string, args ...interface{}) error {
	return newf(ErrorTypeInvalidInput, format, args...)
}

// Validationf creates a new Validation error
func Validationf(format string, args ...interface{}) error {
	return newf(ErrorTypeValidation, format, args...)
}

// DataQualityf creates a new DataQuality error
func DataQualityf(format string, args ...interface{}) error {
	return newf(ErrorTypeDataQuality, format, args...)
}

// InternalInvariantf creates a new InternalInvariant error
func InternalInvariantf(format string, args ...interface{}) error {
	return newf(ErrorTypeInternalInvariant, format, args...)
}

// NotFoundf creates a new NotFound error
func NotFoundf(format string, args ...interface{}) error {
	return newf(ErrorTypeNotFound, format, args...)
}

// Unavailable wraps a collaborator failure
func Unavailable(err error, message string) error {
	return &AppError{
		Type:    ErrorTypeUnavailable,
		Message: message,
		Err:     err,
	}
}

// Internal creates a new Internal error
func Internal(message string) error {
	return &AppError{
		Type:    ErrorTypeInternal,
		Message: message,
	}
}

// IsInvalidInput reports whether err carries the InvalidInput type
func IsInvalidInput(err error) bool {
	return TypeOf(err) == ErrorTypeInvalidInput
}

// IsValidation reports whether err carries the Validation type
func IsValidation(err error) bool {
	return TypeOf(err) == ErrorTypeValidation
}

// IsInternalInvariant reports whether err carries the InternalInvariant type
func IsInternalInvariant(err error) bool {
	return TypeOf(err) == ErrorTypeInternalInvariant
}
