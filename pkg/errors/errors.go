// Package errors provides custom error types for the ckansync importer.
// The types split failures into the two classes the reconciliation engine
// cares about: per-entity validation conflicts that are recoverable by
// falling back to an update (or skipping the entity), and infrastructure
// failures that abort the whole run.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Common sentinel errors for the ckansync system
var (
	// ErrNotFound indicates that a requested catalog entity was not found
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates that an entity's natural key is already taken
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates that submitted entity data was rejected
	ErrInvalidInput = errors.New("invalid input")

	// ErrAPIKeyRequired indicates that an API key is required but not provided
	ErrAPIKeyRequired = errors.New("API key required")

	// ErrAPIKeyInvalid indicates that the provided API key is invalid
	ErrAPIKeyInvalid = errors.New("API key invalid")

	// ErrCatalogUnavailable indicates that the catalog service is unreachable
	ErrCatalogUnavailable = errors.New("catalog unavailable")
)

// NotFoundError represents an error when a catalog entity is not found
type NotFoundError struct {
	Kind string
	Key  string
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.Key)
}

// Is implements errors.Is support
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(kind, key string) *NotFoundError {
	return &NotFoundError{Kind: kind, Key: key}
}

// ValidationError represents a semantic rejection from the catalog.
// Detail carries the structured error dictionary the catalog returned,
// keyed by field name. A conflict (natural key taken) is distinguished
// from other rejections via the Conflict flag so the engine only retries
// with an update when the entity genuinely already exists.
type ValidationError struct {
	Kind     string
	Key      string
	Detail   map[string][]string
	Conflict bool
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if len(e.Detail) > 0 {
		return fmt.Sprintf("validation failed for %s %s: %v", e.Kind, e.Key, e.Detail)
	}
	return fmt.Sprintf("validation failed for %s %s", e.Kind, e.Key)
}

// Is implements errors.Is support
func (e *ValidationError) Is(target error) bool {
	if e.Conflict && target == ErrAlreadyExists {
		return true
	}
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(kind, key string, detail map[string][]string) *ValidationError {
	return &ValidationError{Kind: kind, Key: key, Detail: detail, Conflict: isConflictDetail(detail)}
}

// isConflictDetail reports whether a catalog error dictionary describes a
// natural-key collision rather than bad field data. CKAN phrases these as
// "already in use" / "already exists" errors on the name, id or url fields.
func isConflictDetail(detail map[string][]string) bool {
	for field, msgs := range detail {
		if field != "name" && field != "id" && field != "url" {
			continue
		}
		for _, msg := range msgs {
			if containsAny(msg, "already in use", "already exists", "not available") {
				return true
			}
		}
	}
	return false
}

// APIError represents a transport-level failure talking to the catalog.
// These are never absorbed by the reconciliation engine; they abort the run.
type APIError struct {
	StatusCode int
	Endpoint   string
	Message    string
	Err        error
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("catalog API error (status %d) at %s: %s", e.StatusCode, e.Endpoint, e.Message)
	}
	return fmt.Sprintf("catalog API error at %s: %s", e.Endpoint, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *APIError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *APIError) Is(target error) bool {
	if e.StatusCode >= 500 {
		return target == ErrCatalogUnavailable
	}
	return false
}

// NewAPIError creates a new APIError
func NewAPIError(statusCode int, endpoint, message string) *APIError {
	return &APIError{StatusCode: statusCode, Endpoint: endpoint, Message: message}
}

// AuthenticationError represents an authentication or authorization failure.
// Like APIError it is run-fatal: the session is broken, not the entity.
type AuthenticationError struct {
	Principal string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *AuthenticationError) Error() string {
	if e.Principal != "" {
		return fmt.Sprintf("authentication error for %s: %s", e.Principal, e.Message)
	}
	return fmt.Sprintf("authentication error: %s", e.Message)
}

// Unwrap implements errors.Unwrap
func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *AuthenticationError) Is(target error) bool {
	return target == ErrAPIKeyRequired || target == ErrAPIKeyInvalid
}

// ParseError represents a malformed row or file in the importer's input.
// Parsing failures poison everything downstream, so they abort the run.
type ParseError struct {
	File    string
	Line    int
	Message string
	Err     error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse error in %s at line %d: %s", e.File, e.Line, e.Message)
	}
	if e.File != "" {
		return fmt.Sprintf("parse error in %s: %s", e.File, e.Message)
	}
	return fmt.Sprintf("parse error: %s", e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError creates a new ParseError
func NewParseError(file string, line int, message string) *ParseError {
	return &ParseError{File: file, Line: line, Message: message}
}

// IOError represents an error during I/O operations
type IOError struct {
	Operation string // "read", "write", "open", "extract", "remove"
	Path      string
	Err       error
}

// Error implements the error interface
func (e *IOError) Error() string {
	return fmt.Sprintf("IO error during %s of %s: %v", e.Operation, e.Path, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *IOError) Unwrap() error {
	return e.Err
}

// NewIOError creates a new IOError
func NewIOError(operation, path string, err error) *IOError {
	return &IOError{Operation: operation, Path: path, Err: err}
}

// ConfigError represents a configuration error
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError
func NewConfigError(component, message string, err error) *ConfigError {
	return &ConfigError{Component: component, Message: message, Err: err}
}

// Helper functions for error checking

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict checks if an error is a natural-key conflict
func IsConflict(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidation checks if an error is any validation rejection
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsAuth checks if an error is related to API keys or authorization
func IsAuth(err error) bool {
	return errors.Is(err, ErrAPIKeyRequired) || errors.Is(err, ErrAPIKeyInvalid)
}

// Helper wrapping functions for common patterns

// WrapIO wraps an error as an IOError
func WrapIO(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	return NewIOError(operation, path, err)
}

// WrapParse wraps an error as a ParseError
func WrapParse(file string, err error) error {
	if err == nil {
		return nil
	}
	return &ParseError{File: file, Message: err.Error(), Err: err}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
