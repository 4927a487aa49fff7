package spdxer

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents the category of an error
type ErrorType string

const (
	// ErrorTypeConfig represents configuration-related errors
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeFS represents file system-related errors
	ErrorTypeFS ErrorType = "filesystem"
	// ErrorTypeEncoding represents text encoding resolution errors
	ErrorTypeEncoding ErrorType = "encoding"
	// ErrorTypeHeader represents license header parsing errors
	ErrorTypeHeader ErrorType = "header"
	// ErrorTypeCatalog represents license catalog errors
	ErrorTypeCatalog ErrorType = "catalog"
	// ErrorTypeCache represents cache-related errors
	ErrorTypeCache ErrorType = "cache"
)

// AppError is a custom error type that provides context about the error
type AppError struct {
	Type    ErrorType // The category of the error
	Message string    // A human-readable error message
	Err     error     // The underlying error, if any
	File    string    // The file related to the error, if applicable
	Details string    // Additional details about the error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithFile adds file information to the error
func (e *AppError) WithFile(file string) *AppError {
	e.File = file
	return e
}

// WithDetails adds additional details to the error
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// NewConfigError creates a new configuration error
func NewConfigError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeConfig,
		Message: message,
		Err:     err,
	}
}

// NewFSError creates a new file system error
func NewFSError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeFS,
		Message: message,
		Err:     err,
	}
}

// NewCatalogError creates a new catalog error
func NewCatalogError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeCatalog,
		Message: message,
		Err:     err,
	}
}

// NewCacheError creates a new cache error
func NewCacheError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeCache,
		Message: message,
		Err:     err,
	}
}

// ErrorInfo carries the contextual fields of an AppError for callers that
// only need to log them.
type ErrorInfo struct {
	Type    ErrorType
	File    string
	Details string
}

// GetErrorInfo extracts structured context from an error, if it is an AppError
func GetErrorInfo(err error) (ErrorInfo, bool) {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return ErrorInfo{}, false
	}
	return ErrorInfo{
		Type:    appErr.Type,
		File:    appErr.File,
		Details: appErr.Details,
	}, true
}

// EncodingError reports that no decoding strategy succeeded for a file.
// Attempted lists every encoding that was tried, in order.
type EncodingError struct {
	File      string
	Attempted []string
}

// Error implements the error interface
func (e *EncodingError) Error() string {
	return fmt.Sprintf("[%s] unable to decode %q with encodings: %s",
		ErrorTypeEncoding, e.File, strings.Join(e.Attempted, ", "))
}

// InvalidHeaderError reports a header block whose marker line carries no
// parseable license identifier.
type InvalidHeaderError struct {
	File    string
	Details string
}

// Error implements the error interface
func (e *InvalidHeaderError) Error() string {
	return fmt.Sprintf("[%s] invalid SPDX header in %q: %s", ErrorTypeHeader, e.File, e.Details)
}

// LicenseNotFoundError reports a license identifier absent from the catalog,
// together with up to five ranked suggestions.
type LicenseNotFoundError struct {
	ID          string
	Suggestions []string
}

// Error implements the error interface
func (e *LicenseNotFoundError) Error() string {
	msg := fmt.Sprintf("[%s] license %q not found in the catalog", ErrorTypeCatalog, e.ID)
	if len(e.Suggestions) > 0 {
		msg += "; did you mean: " + strings.Join(e.Suggestions, ", ")
	}
	return msg
}

// contractViolation panics. Calling a transaction operation out of state is a
// bug in the caller, not a recoverable data condition, so it is not modeled
// as an error value.
func contractViolation(format string, args ...any) {
	panic(fmt.Sprintf("spdxer: contract violation: "+format, args...))
}
