package errors

import (
	"errors"
	"fmt"
	"time"
)

// Error types for the ahsmatch system
type ErrorType string

const (
	// Matching errors
	ErrorTypeInvalidInput ErrorType = "invalid_input"
	ErrorTypeMatching     ErrorType = "matching"
	ErrorTypeExpansion    ErrorType = "expansion"

	// Catalog errors
	ErrorTypeCatalog       ErrorType = "catalog"
	ErrorTypeDataNotFound  ErrorType = "data_not_found"
	ErrorTypeDataIntegrity ErrorType = "data_integrity"

	// Configuration errors
	ErrorTypeConfig ErrorType = "config"

	// Internal errors
	ErrorTypeInternal ErrorType = "internal"
)

// ErrNotFound is the sentinel for errors.Is checks across package boundaries.
var ErrNotFound = errors.New("not found")

// MatchError represents an error raised while resolving a description
// against the catalog
type MatchError struct {
	Type        ErrorType
	Description string
	Unit        string
	Operation   string
	Underlying  error
	Timestamp   time.Time
	Recoverable bool
}

// NewMatchError creates a new match error with context
func NewMatchError(op string, err error) *MatchError {
	return &MatchError{
		Type:       ErrorTypeMatching,
		Operation:  op,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// WithQuery adds the offending description and unit to the error
func (e *MatchError) WithQuery(description, unit string) *MatchError {
	e.Description = description
	e.Unit = unit
	return e
}

// WithType overrides the error classification
func (e *MatchError) WithType(t ErrorType) *MatchError {
	e.Type = t
	return e
}

// WithRecoverable marks the error as recoverable
func (e *MatchError) WithRecoverable(recoverable bool) *MatchError {
	e.Recoverable = recoverable
	return e
}

// Error implements the error interface
func (e *MatchError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("%s %s failed for %q: %v", e.Type, e.Operation, e.Description, e.Underlying)
	}
	return fmt.Sprintf("%s %s failed: %v", e.Type, e.Operation, e.Underlying)
}

// Unwrap returns the underlying error for errors.Is/As
func (e *MatchError) Unwrap() error {
	return e.Underlying
}

// IsRecoverable checks if the operation can be retried
func (e *MatchError) IsRecoverable() bool {
	return e.Recoverable
}

// CatalogError represents a catalog data-source error
type CatalogError struct {
	Type       ErrorType
	Source     string
	Operation  string
	Underlying error
	Timestamp  time.Time
}

// NewCatalogError creates a new catalog error
func NewCatalogError(op, source string, err error) *CatalogError {
	return &CatalogError{
		Type:       ErrorTypeCatalog,
		Source:     source,
		Operation:  op,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// NewIntegrityError creates a catalog error for a failed integrity check
func NewIntegrityError(source string, err error) *CatalogError {
	return &CatalogError{
		Type:       ErrorTypeDataIntegrity,
		Source:     source,
		Operation:  "verify",
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *CatalogError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("catalog %s failed for %s: %v", e.Operation, e.Source, e.Underlying)
	}
	return fmt.Sprintf("catalog %s failed: %v", e.Operation, e.Underlying)
}

// Unwrap returns the underlying error
func (e *CatalogError) Unwrap() error {
	return e.Underlying
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field      string
	Value      string
	Underlying error
	Timestamp  time.Time
}

// NewConfigError creates a new config error
func NewConfigError(field, value string, err error) *ConfigError {
	return &ConfigError{
		Field:      field,
		Value:      value,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error for field %s (value %s): %v", e.Field, e.Value, e.Underlying)
}

// Unwrap returns the underlying error
func (e *ConfigError) Unwrap() error {
	return e.Underlying
}

// MultiError represents multiple errors
type MultiError struct {
	Errors []error
}

// NewMultiError creates a new multi-error
func NewMultiError(errs []error) *MultiError {
	// Filter out nil errors
	filtered := make([]error, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	return &MultiError{Errors: filtered}
}

// Error implements the error interface
func (e *MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d errors: %v", len(e.Errors), e.Errors)
}

// Unwrap returns all errors
func (e *MultiError) Unwrap() []error {
	return e.Errors
}
