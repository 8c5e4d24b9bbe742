package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeMissingColumn      ErrorType = "MISSING_COLUMN"
	ErrTypeMissingInput       ErrorType = "MISSING_INPUT"
	ErrTypeInsufficientSample ErrorType = "INSUFFICIENT_SAMPLE"
	ErrTypeEmptyResult        ErrorType = "EMPTY_RESULT"
	ErrTypeParsing            ErrorType = "PARSING"
	ErrTypeStorage            ErrorType = "STORAGE"
	ErrTypeValidation         ErrorType = "VALIDATION"
	ErrTypeConfig             ErrorType = "CONFIG"
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// MissingColumnError is fatal for a stage: a structurally required logical
// field (identifier, amount, date) could not be resolved against the input
// headers. Field names the logical field, not a physical header.
type MissingColumnError struct {
	Field string
}

// Error implements the error interface
func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("[%s] required column %q could not be resolved", ErrTypeMissingColumn, e.Field)
}

// NewMissingColumnError creates a fatal missing-column error for a logical field
func NewMissingColumnError(field string) *MissingColumnError {
	return &MissingColumnError{Field: field}
}

// IsMissingColumn reports whether err is a MissingColumnError
func IsMissingColumn(err error) bool {
	var mc *MissingColumnError
	return errors.As(err, &mc)
}

// Helper constructors for the pipeline error taxonomy

// NewMissingInputError creates an error for an absent input artifact.
// Fatal for the stage; the pipeline-level caller may skip and continue.
func NewMissingInputError(path string, cause error) *AppError {
	return NewAppError(ErrTypeMissingInput, fmt.Sprintf("input file not found: %s", path), cause)
}

// NewInsufficientSampleError signals that a statistical step fell below its
// minimum sample size. Callers are expected to fall back, not abort.
func NewInsufficientSampleError(message string) *AppError {
	return NewAppError(ErrTypeInsufficientSample, message, nil)
}

// NewEmptyResultError signals a stage produced no rows. Non-fatal: the stage
// still writes a well-formed empty artifact.
func NewEmptyResultError(message string) *AppError {
	return NewAppError(ErrTypeEmptyResult, message, nil)
}

// NewParsingError creates a parsing-related error
func NewParsingError(message string, cause error) *AppError {
	return NewAppError(ErrTypeParsing, message, cause)
}

// NewStorageError creates a storage-related error
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

// NewValidationError creates a validation error
func NewValidationError(message string) *AppError {
	return NewAppError(ErrTypeValidation, message, nil)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

// IsType checks whether err is an AppError of the given type
func IsType(err error, errType ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errType
	}
	return false
}
