package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeNotFound indicates a requested movie could not be resolved
	ErrorTypeNotFound ErrorType = "NOT_FOUND"
	// ErrorTypeAmbiguousTitle indicates a title query matched only partially
	ErrorTypeAmbiguousTitle ErrorType = "AMBIGUOUS_TITLE"
	// ErrorTypeUnavailableFeature indicates a feature space has no built matrix
	ErrorTypeUnavailableFeature ErrorType = "UNAVAILABLE_FEATURE"
	// ErrorTypeDimensionMismatch indicates a matrix disagrees with the dataset size
	ErrorTypeDimensionMismatch ErrorType = "DIMENSION_MISMATCH"
	// ErrorTypeDataIntegrity indicates a single record failed to parse
	ErrorTypeDataIntegrity ErrorType = "DATA_INTEGRITY"
	// ErrorTypeBadRequest indicates a bad request
	ErrorTypeBadRequest ErrorType = "BAD_REQUEST"
	// ErrorTypeConflict indicates a conflict
	ErrorTypeConflict ErrorType = "CONFLICT"
	// ErrorTypeInternal indicates an internal error
	ErrorTypeInternal ErrorType = "INTERNAL"
)

// AppError represents an application error
type AppError struct {
	Type    ErrorType
	Message string
	Err     error

	// Candidates holds suggested titles for an ambiguous title query.
	Candidates []string
	// Available holds the feature spaces that do have a matrix loaded.
	Available []string
	// Want and Got hold the expected and actual matrix dimensions.
	Want, Got int
}

// Error returns the error message
func (e *AppError) Error() string {
	switch {
	case e.Type == ErrorTypeAmbiguousTitle && len(e.Candidates) > 0:
		return fmt.Sprintf("%s: %s: did you mean: %s?", e.Type, e.Message, strings.Join(e.Candidates, ", "))
	case e.Type == ErrorTypeUnavailableFeature && len(e.Available) > 0:
		return fmt.Sprintf("%s: %s: available: %s", e.Type, e.Message, strings.Join(e.Available, ", "))
	case e.Type == ErrorTypeDimensionMismatch:
		return fmt.Sprintf("%s: %s: want %d rows, got %d", e.Type, e.Message, e.Want, e.Got)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Type, e.Message)
	}
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new application error
func New(errorType ErrorType, message string) error {
	return &AppError{
		Type:    errorType,
		Message: message,
	}
}

// Wrap wraps an error with an application error
func Wrap(errorType ErrorType, message string, err error) error {
	return &AppError{
		Type:    errorType,
		Message: message,
		Err:     err,
	}
}

// NotFound creates a not found error
func NotFound(message string) error {
	return New(ErrorTypeNotFound, message)
}

// AmbiguousTitle creates an ambiguous title error carrying candidate titles
func AmbiguousTitle(message string, candidates []string) error {
	return &AppError{
		Type:       ErrorTypeAmbiguousTitle,
		Message:    message,
		Candidates: candidates,
	}
}

// UnavailableFeature creates an unavailable feature error listing alternatives
func UnavailableFeature(message string, available []string) error {
	return &AppError{
		Type:      ErrorTypeUnavailableFeature,
		Message:   message,
		Available: available,
	}
}

// DimensionMismatch creates a dimension mismatch error with expected and actual sizes
func DimensionMismatch(message string, want, got int) error {
	return &AppError{
		Type:    ErrorTypeDimensionMismatch,
		Message: message,
		Want:    want,
		Got:     got,
	}
}

// DataIntegrity creates a data integrity error
func DataIntegrity(message string, err error) error {
	return Wrap(ErrorTypeDataIntegrity, message, err)
}

// BadRequest creates a bad request error
func BadRequest(message string) error {
	return New(ErrorTypeBadRequest, message)
}

// Conflict creates a conflict error
func Conflict(message string) error {
	return New(ErrorTypeConflict, message)
}

// Internal creates an internal error
func Internal(message string) error {
	return New(ErrorTypeInternal, message)
}

func isType(err error, t ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == t
	}
	return false
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return isType(err, ErrorTypeNotFound)
}

// IsAmbiguousTitle checks if an error is an ambiguous title error
func IsAmbiguousTitle(err error) bool {
	return isType(err, ErrorTypeAmbiguousTitle)
}

// IsUnavailableFeature checks if an error is an unavailable feature error
func IsUnavailableFeature(err error) bool {
	return isType(err, ErrorTypeUnavailableFeature)
}

// IsDimensionMismatch checks if an error is a dimension mismatch error
func IsDimensionMismatch(err error) bool {
	return isType(err, ErrorTypeDimensionMismatch)
}

// IsDataIntegrity checks if an error is a data integrity error
func IsDataIntegrity(err error) bool {
	return isType(err, ErrorTypeDataIntegrity)
}

// IsBadRequest checks if an error is a bad request error
func IsBadRequest(err error) bool {
	return isType(err, ErrorTypeBadRequest)
}

// IsConflict checks if an error is a conflict error
func IsConflict(err error) bool {
	return isType(err, ErrorTypeConflict)
}

// IsInternal checks if an error is an internal error
func IsInternal(err error) bool {
	return isType(err, ErrorTypeInternal)
}

// Candidates returns the candidate titles attached to an ambiguous title error.
func Candidates(err error) []string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Candidates
	}
	return nil
}

// AvailableSpaces returns the available feature spaces attached to an
// unavailable feature error.
func AvailableSpaces(err error) []string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Available
	}
	return nil
}

// IsDuplicateError checks if an error is a duplicate key error
func IsDuplicateError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "duplicate key") ||
		strings.Contains(errStr, "UNIQUE constraint") ||
		strings.Contains(errStr, "duplicate entry")
}
