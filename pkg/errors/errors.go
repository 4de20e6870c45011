package errors

import (
	"errors"
	"fmt"
)

// Common application errors
var (
	// Configuration errors
	ErrInvalidK           = errors.New("invalid k: must be a positive integer")
	ErrNoQuasiIdentifiers = errors.New("no quasi-identifiers declared")
	ErrMissingHierarchy   = errors.New("categorical quasi-identifier has no generalization hierarchy")
	ErrUncoveredValue     = errors.New("raw categorical value has no corresponding hierarchy leaf")
	ErrInvalidHierarchy   = errors.New("invalid generalization hierarchy")

	// Input errors
	ErrEmptyDataset   = errors.New("dataset is empty")
	ErrInvalidDataset = errors.New("invalid dataset")
	ErrMissingColumn  = errors.New("required column missing from input")
	ErrInvalidNumeric = errors.New("numeric quasi-identifier value is not an integer")

	// Privacy errors
	ErrInvalidEpsilon        = errors.New("invalid epsilon: must be positive")
	ErrInvalidDelta          = errors.New("invalid delta: must be in (0, 1)")
	ErrPrivacyBudgetExceeded = errors.New("privacy budget exceeded")
	ErrInvalidBounds         = errors.New("invalid bounds: lower must be below upper")

	// Export/storage errors
	ErrExporterNotFound  = errors.New("exporter not found")
	ErrStorageConnection = errors.New("storage connection failed")
	ErrStorageWrite      = errors.New("storage write failed")
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeConfiguration ErrorType = "configuration"
	ErrorTypeValidation    ErrorType = "validation"
	ErrorTypeDegenerate    ErrorType = "degenerate_input"
	ErrorTypePrivacy       ErrorType = "privacy"
	ErrorTypeExport        ErrorType = "export"
	ErrorTypeStorage       ErrorType = "storage"
	ErrorTypeInternal      ErrorType = "internal"
)

// AppError represents an application-specific error with additional context
type AppError struct {
	Type       ErrorType              `json:"type"`
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	Details    string                 `json:"details,omitempty"`
	Cause      error                  `json:"-"`
	Context    map[string]interface{} `json:"context,omitempty"`
	HTTPStatus int                    `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s - %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Code == t.Code
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithDetails adds details to the error
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, code, message string) *AppError {
	return &AppError{
		Type:       errType,
		Code:       code,
		Message:    message,
		HTTPStatus: getDefaultHTTPStatus(errType),
	}
}

// WrapError wraps an existing error with application context
func WrapError(err error, errType ErrorType, code, message string) *AppError {
	return &AppError{
		Type:       errType,
		Code:       code,
		Message:    message,
		Cause:      err,
		HTTPStatus: getDefaultHTTPStatus(errType),
	}
}

// NewConfigurationError creates a configuration error. Configuration defects
// must surface before partitioning begins, never during it.
func NewConfigurationError(code, message string) *AppError {
	return NewAppError(ErrorTypeConfiguration, code, message)
}

// NewValidationError creates a validation error
func NewValidationError(code, message string) *AppError {
	return NewAppError(ErrorTypeValidation, code, message)
}

// NewPrivacyError creates a privacy error
func NewPrivacyError(code, message string) *AppError {
	return NewAppError(ErrorTypePrivacy, code, message)
}

// NewExportError creates an export error
func NewExportError(code, message string) *AppError {
	return NewAppError(ErrorTypeExport, code, message)
}

// NewStorageError creates a storage error
func NewStorageError(code, message string) *AppError {
	return NewAppError(ErrorTypeStorage, code, message)
}

// NewInternalError creates an internal error
func NewInternalError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       CodeInternalError,
		Message:    message,
		HTTPStatus: 500,
	}
}

// getDefaultHTTPStatus returns the default HTTP status for an error type
func getDefaultHTTPStatus(errType ErrorType) int {
	switch errType {
	case ErrorTypeConfiguration, ErrorTypeValidation:
		return 400
	case ErrorTypePrivacy:
		return 403
	case ErrorTypeExport, ErrorTypeStorage:
		return 503
	case ErrorTypeInternal:
		return 500
	default:
		return 500
	}
}

// Error codes for different error scenarios
const (
	// Configuration error codes
	CodeInvalidK         = "INVALID_K"
	CodeMissingHierarchy = "MISSING_HIERARCHY"
	CodeUncoveredValue   = "UNCOVERED_VALUE"
	CodeInvalidHierarchy = "INVALID_HIERARCHY"
	CodeInvalidSchema    = "INVALID_SCHEMA"

	// Validation error codes
	CodeInvalidInput   = "INVALID_INPUT"
	CodeMissingField   = "MISSING_FIELD"
	CodeInvalidFormat  = "INVALID_FORMAT"
	CodeInvalidNumeric = "INVALID_NUMERIC"

	// Privacy error codes
	CodeInvalidEpsilon        = "INVALID_EPSILON"
	CodeInvalidDelta          = "INVALID_DELTA"
	CodePrivacyBudgetExceeded = "PRIVACY_BUDGET_EXCEEDED"
	CodeInvalidBounds         = "INVALID_BOUNDS"

	// Export/storage error codes
	CodeExporterNotFound = "EXPORTER_NOT_FOUND"
	CodeConnectionFailed = "CONNECTION_FAILED"
	CodeWriteFailed      = "WRITE_FAILED"

	// Internal error codes
	CodeInternalError = "INTERNAL_ERROR"
)
