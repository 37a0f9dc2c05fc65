// Package errors provides custom error types for the policytool system.
// These errors enable programmatic error checking and carry enough context
// (file, entity, service) for a single actionable message at the CLI layer.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Sentinels matched by errors.Is across the taxonomy below.
var (
	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrMalformedSource indicates that a source file has the wrong shape
	ErrMalformedSource = errors.New("malformed source file")

	// ErrCatalogUnavailable indicates that the catalog or policy service
	// could not be reached or rejected the request at transport level
	ErrCatalogUnavailable = errors.New("catalog unavailable")

	// ErrSyncIncomplete indicates that a remote write was rejected,
	// possibly after some entities were already pushed
	ErrSyncIncomplete = errors.New("sync incomplete")

	// ErrUnresolvedPlaceholder indicates a template placeholder with no
	// matching context key
	ErrUnresolvedPlaceholder = errors.New("unresolved placeholder")

	// ErrAuthFailed indicates that the remote service rejected our credentials
	ErrAuthFailed = errors.New("authentication failed")

	// ErrCanceled indicates that an operation was canceled
	ErrCanceled = errors.New("operation canceled")
)

// NotFoundError reports a resource the remote service does not know.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %s not found", e.Resource, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// MalformedSourceError represents a source file whose shape cannot be used:
// missing required columns, an unparseable row, or an unknown command kind.
// Always fatal before any remote call is made.
type MalformedSourceError struct {
	File    string
	Row     int // 1-based data row, 0 when the problem is file-level
	Message string
	Err     error
}

func (e *MalformedSourceError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("malformed source file %s (row %d): %s", e.File, e.Row, e.Message)
	}
	return fmt.Sprintf("malformed source file %s: %s", e.File, e.Message)
}

func (e *MalformedSourceError) Unwrap() error { return e.Err }

func (e *MalformedSourceError) Is(target error) bool {
	return target == ErrMalformedSource || target == ErrInvalidInput
}

// NewMalformedSourceError creates a new MalformedSourceError
func NewMalformedSourceError(file string, row int, message string, err error) *MalformedSourceError {
	return &MalformedSourceError{File: file, Row: row, Message: message, Err: err}
}

// CatalogUnavailableError represents a transport or authentication failure
// against the catalog or policy service.
type CatalogUnavailableError struct {
	Service    string // "atlas", "ranger"
	Endpoint   string
	StatusCode int
	Message    string
	Err        error
}

func (e *CatalogUnavailableError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s unavailable (status %d) at %s: %s", e.Service, e.StatusCode, e.Endpoint, e.Message)
	}
	return fmt.Sprintf("%s unavailable at %s: %s", e.Service, e.Endpoint, e.Message)
}

func (e *CatalogUnavailableError) Unwrap() error { return e.Err }

// Is treats 401 and 403 responses as credential rejections on top of the
// general unavailability.
func (e *CatalogUnavailableError) Is(target error) bool {
	if e.StatusCode == 401 || e.StatusCode == 403 {
		return target == ErrAuthFailed || target == ErrCatalogUnavailable
	}
	return target == ErrCatalogUnavailable
}

// NewCatalogUnavailableError creates a new CatalogUnavailableError
func NewCatalogUnavailableError(service, endpoint string, statusCode int, err error) *CatalogUnavailableError {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &CatalogUnavailableError{
		Service:    service,
		Endpoint:   endpoint,
		StatusCode: statusCode,
		Message:    message,
		Err:        err,
	}
}

// SyncError represents a rejected remote write, possibly partial. Entities
// lists the ids that failed; entities not listed were pushed and stay pushed.
type SyncError struct {
	Scope    string // "table", "column", "policy"
	Entities []string
	Err      error
}

func (e *SyncError) Error() string {
	if len(e.Entities) > 0 {
		return fmt.Sprintf("sync error for %s scope (failed entities: %s): %v", e.Scope, strings.Join(e.Entities, ", "), e.Err)
	}
	return fmt.Sprintf("sync error for %s scope: %v", e.Scope, e.Err)
}

func (e *SyncError) Unwrap() error { return e.Err }

func (e *SyncError) Is(target error) bool {
	return target == ErrSyncIncomplete
}

// NewSyncError creates a new SyncError
func NewSyncError(scope string, entities []string, err error) *SyncError {
	return &SyncError{Scope: scope, Entities: entities, Err: err}
}

// TemplateError represents an unresolved placeholder during policy expansion.
// Expansion validates every command before producing any policy, so a
// TemplateError means nothing was applied.
type TemplateError struct {
	Command     string
	Placeholder string
	Message     string
}

func (e *TemplateError) Error() string {
	if e.Placeholder != "" {
		return fmt.Sprintf("template error in command %s: placeholder {%s} %s", e.Command, e.Placeholder, e.Message)
	}
	return fmt.Sprintf("template error in command %s: %s", e.Command, e.Message)
}

func (e *TemplateError) Is(target error) bool {
	return target == ErrUnresolvedPlaceholder || target == ErrInvalidInput
}

// NewTemplateError creates a new TemplateError
func NewTemplateError(command, placeholder, message string) *TemplateError {
	return &TemplateError{Command: command, Placeholder: placeholder, Message: message}
}

// ConfigError reports unusable configuration, named by component.
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

func (e *ConfigError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// NewConfigError creates a new ConfigError
func NewConfigError(component, message string, err error) *ConfigError {
	return &ConfigError{Component: component, Message: message, Err: err}
}

// ParseError reports undecodable data in one of the wire or file formats.
type ParseError struct {
	Format  string // "csv", "json", "yaml"
	File    string
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("parse error in %s file %s: %s", e.Format, e.File, e.Message)
	}
	return fmt.Sprintf("%s parse error: %s", e.Format, e.Message)
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewParseError creates a new ParseError
func NewParseError(format, file string, message string, err error) *ParseError {
	return &ParseError{Format: format, File: file, Message: message, Err: err}
}

// IOError reports a failed file operation on a source or output path.
type IOError struct {
	Operation string // "read", "write", "stat", "open", "close"
	Path      string
	Message   string
	Err       error
}

func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("IO error during %s of %s: %s", e.Operation, e.Path, e.Message)
	}
	return fmt.Sprintf("IO error during %s: %s", e.Operation, e.Message)
}

func (e *IOError) Unwrap() error { return e.Err }

// NewIOError creates a new IOError
func NewIOError(operation, path string, err error) *IOError {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &IOError{Operation: operation, Path: path, Message: message, Err: err}
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsMalformedSource checks if an error came from a bad source file
func IsMalformedSource(err error) bool {
	return errors.Is(err, ErrMalformedSource)
}

// IsCatalogUnavailable checks if an error indicates an unreachable service
func IsCatalogUnavailable(err error) bool {
	return errors.Is(err, ErrCatalogUnavailable)
}

// IsSyncError checks if an error is a rejected remote write
func IsSyncError(err error) bool {
	return errors.Is(err, ErrSyncIncomplete)
}

// IsTemplateError checks if an error is an unresolved placeholder
func IsTemplateError(err error) bool {
	return errors.Is(err, ErrUnresolvedPlaceholder)
}

// IsAuthFailed checks if an error is a credential rejection
func IsAuthFailed(err error) bool {
	return errors.Is(err, ErrAuthFailed)
}

// IsCanceled checks if an error is a cancellation error
func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled)
}

// WrapIO wraps an error as an IOError, passing nil through.
func WrapIO(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	return NewIOError(operation, path, err)
}

// WrapParse wraps an error as a ParseError, passing nil through.
func WrapParse(format, file string, err error) error {
	if err == nil {
		return nil
	}
	return NewParseError(format, file, err.Error(), err)
}

// WrapSync wraps an error as a SyncError, passing nil through.
func WrapSync(scope string, entities []string, err error) error {
	if err == nil {
		return nil
	}
	return NewSyncError(scope, entities, err)
}
