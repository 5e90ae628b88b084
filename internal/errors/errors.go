// Package errors provides structured error types for the log analyzer.
//
// Errors carry a machine-readable code plus a context map that is logged
// alongside the message. Sentinel values support errors.Is checks.
//
// Error code ranges:
// - 1xxx: Configuration errors
// - 2xxx: Ingestion errors
// - 3xxx: Report errors
// - 9xxx: General errors
package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a machine-readable error identifier.
type ErrorCode string

// Configuration error codes (1xxx)
const (
	ErrCodeConfigInvalid    ErrorCode = "ANALYZER_1001"
	ErrCodeConfigMissing    ErrorCode = "ANALYZER_1002"
	ErrCodeConfigValidation ErrorCode = "ANALYZER_1003"
)

// Ingestion error codes (2xxx)
const (
	ErrCodeIngestFileNotFound     ErrorCode = "ANALYZER_2001"
	ErrCodeIngestPermissionDenied ErrorCode = "ANALYZER_2002"
	ErrCodeIngestParseFailed      ErrorCode = "ANALYZER_2003"
	ErrCodeIngestReadFailed       ErrorCode = "ANALYZER_2004"
	ErrCodeIngestNoFilesMatched   ErrorCode = "ANALYZER_2005"
	ErrCodeIngestNoValidEntries   ErrorCode = "ANALYZER_2006"
)

// Report error codes (3xxx)
const (
	ErrCodeReportRenderFailed ErrorCode = "ANALYZER_3001"
	ErrCodeReportExportFailed ErrorCode = "ANALYZER_3002"
)

// General error codes (9xxx)
const (
	ErrCodeUnknown ErrorCode = "ANALYZER_9999"
)

// Sentinel errors for type checking with errors.Is()
var (
	// Configuration errors
	ErrConfigInvalid    = errors.New("invalid configuration")
	ErrConfigMissing    = errors.New("configuration not found")
	ErrConfigValidation = errors.New("configuration validation failed")

	// Ingestion errors
	ErrIngestFileNotFound     = errors.New("log file not found")
	ErrIngestPermissionDenied = errors.New("permission denied")
	ErrIngestReadFailed       = errors.New("log read failed")
	ErrIngestNoFilesMatched   = errors.New("no files matched")
	ErrIngestNoValidEntries   = errors.New("no valid log entries")

	// Report errors
	ErrReportRenderFailed = errors.New("report rendering failed")
	ErrReportExportFailed = errors.New("report export failed")
)

// AnalyzerError is the base error type with structured information.
type AnalyzerError struct {
	Code    ErrorCode
	Message string
	Context map[string]interface{}
	Cause   error
}

// Error implements the error interface.
func (e *AnalyzerError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *AnalyzerError) Unwrap() error {
	return e.Cause
}

// Is checks if the target error matches this error's cause.
func (e *AnalyzerError) Is(target error) bool {
	if e.Cause != nil {
		return errors.Is(e.Cause, target)
	}
	return false
}

// WithContext adds context information to the error.
func (e *AnalyzerError) WithContext(key string, value interface{}) *AnalyzerError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// ToMap converts the error to a map for structured logging.
func (e *AnalyzerError) ToMap() map[string]interface{} {
	m := map[string]interface{}{
		"error_code": string(e.Code),
		"message":    e.Message,
	}
	if e.Context != nil {
		m["context"] = e.Context
	}
	if e.Cause != nil {
		m["cause"] = e.Cause.Error()
	}
	return m
}

// NewAnalyzerError creates a new AnalyzerError.
func NewAnalyzerError(code ErrorCode, message string, cause error) *AnalyzerError {
	return &AnalyzerError{
		Code:    code,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// Configuration Error constructors

// NewConfigInvalidError creates a configuration invalid error.
func NewConfigInvalidError(message string, cause error) *AnalyzerError {
	return &AnalyzerError{
		Code:    ErrCodeConfigInvalid,
		Message: message,
		Cause:   joinCause(ErrConfigInvalid, cause),
		Context: make(map[string]interface{}),
	}
}

// NewConfigMissingError creates a configuration missing error.
func NewConfigMissingError(path string) *AnalyzerError {
	return &AnalyzerError{
		Code:    ErrCodeConfigMissing,
		Message: fmt.Sprintf("configuration file not found: %s", path),
		Cause:   ErrConfigMissing,
		Context: map[string]interface{}{
			"path": path,
		},
	}
}

// NewConfigValidationError creates a configuration validation error.
func NewConfigValidationError(field string, value interface{}, reason string) *AnalyzerError {
	return &AnalyzerError{
		Code:    ErrCodeConfigValidation,
		Message: fmt.Sprintf("validation failed for '%s': %s", field, reason),
		Cause:   ErrConfigValidation,
		Context: map[string]interface{}{
			"field":  field,
			"value":  fmt.Sprintf("%v", value),
			"reason": reason,
		},
	}
}

// Ingestion Error constructors

// NewIngestFileNotFoundError creates a file not found error.
func NewIngestFileNotFoundError(path string) *AnalyzerError {
	return &AnalyzerError{
		Code:    ErrCodeIngestFileNotFound,
		Message: fmt.Sprintf("log file not found: %s", path),
		Cause:   ErrIngestFileNotFound,
		Context: map[string]interface{}{
			"path": path,
		},
	}
}

// NewIngestPermissionDeniedError creates a permission denied error.
func NewIngestPermissionDeniedError(path string) *AnalyzerError {
	return &AnalyzerError{
		Code:    ErrCodeIngestPermissionDenied,
		Message: fmt.Sprintf("permission denied reading: %s", path),
		Cause:   ErrIngestPermissionDenied,
		Context: map[string]interface{}{
			"path": path,
		},
	}
}

// NewIngestReadError creates a read error for a source.
func NewIngestReadError(source string, cause error) *AnalyzerError {
	return &AnalyzerError{
		Code:    ErrCodeIngestReadFailed,
		Message: fmt.Sprintf("failed to read from %s", source),
		Cause:   joinCause(ErrIngestReadFailed, cause),
		Context: map[string]interface{}{
			"source": source,
		},
	}
}

// NewIngestNoFilesMatchedError is returned when a directory pattern selects nothing.
func NewIngestNoFilesMatchedError(dir, pattern string) *AnalyzerError {
	return &AnalyzerError{
		Code:    ErrCodeIngestNoFilesMatched,
		Message: fmt.Sprintf("no files in %s match pattern %q", dir, pattern),
		Cause:   ErrIngestNoFilesMatched,
		Context: map[string]interface{}{
			"directory": dir,
			"pattern":   pattern,
		},
	}
}

// NewIngestNoValidEntriesError is returned when a pass finishes without a single valid line.
func NewIngestNoValidEntriesError(source string, malformed int) *AnalyzerError {
	return &AnalyzerError{
		Code:    ErrCodeIngestNoValidEntries,
		Message: fmt.Sprintf("no valid log entries found in %s", source),
		Cause:   ErrIngestNoValidEntries,
		Context: map[string]interface{}{
			"source":    source,
			"malformed": malformed,
		},
	}
}

// Report Error constructors

// NewReportRenderError creates a terminal rendering error.
func NewReportRenderError(cause error) *AnalyzerError {
	return &AnalyzerError{
		Code:    ErrCodeReportRenderFailed,
		Message: "failed to render report",
		Cause:   joinCause(ErrReportRenderFailed, cause),
		Context: make(map[string]interface{}),
	}
}

// NewReportExportError creates a JSON export error.
func NewReportExportError(path string, cause error) *AnalyzerError {
	return &AnalyzerError{
		Code:    ErrCodeReportExportFailed,
		Message: fmt.Sprintf("failed to write JSON report to %s", path),
		Cause:   joinCause(ErrReportExportFailed, cause),
		Context: map[string]interface{}{
			"path": path,
		},
	}
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) ErrorCode {
	var analyzerErr *AnalyzerError
	if errors.As(err, &analyzerErr) {
		return analyzerErr.Code
	}
	return ErrCodeUnknown
}

// joinCause keeps the sentinel matchable with errors.Is while preserving the
// underlying cause in the message.
func joinCause(sentinel, cause error) error {
	if cause == nil {
		return sentinel
	}
	return fmt.Errorf("%w: %w", sentinel, cause)
}
