// Package models defines the core data structures shared by the parser,
// the aggregator and the report layer.
package models

import "fmt"

// LogLevel is the severity token found between brackets in a log line.
// Only the values below are valid; anything else makes the line malformed.
type LogLevel string

const (
	LevelInfo  LogLevel = "INFO"
	LevelWarn  LogLevel = "WARN"
	LevelError LogLevel = "ERROR"
)

// Levels lists every LogLevel in report order.
var Levels = []LogLevel{LevelInfo, LevelWarn, LevelError}

// ParseLogLevel matches s case-sensitively against the known levels.
func ParseLogLevel(s string) (LogLevel, bool) {
	switch LogLevel(s) {
	case LevelInfo, LevelWarn, LevelError:
		return LogLevel(s), true
	default:
		return "", false
	}
}

// String returns the level name.
func (l LogLevel) String() string {
	return string(l)
}

// HTTPMethod is the request method of a log line. Well-formed methods outside
// the standard set are kept verbatim rather than rejected.
type HTTPMethod string

const (
	MethodGet     HTTPMethod = "GET"
	MethodPost    HTTPMethod = "POST"
	MethodPut     HTTPMethod = "PUT"
	MethodDelete  HTTPMethod = "DELETE"
	MethodPatch   HTTPMethod = "PATCH"
	MethodHead    HTTPMethod = "HEAD"
	MethodOptions HTTPMethod = "OPTIONS"
)

// IsStandard reports whether m is one of the predefined methods.
func (m HTTPMethod) IsStandard() bool {
	switch m {
	case MethodGet, MethodPost, MethodPut, MethodDelete, MethodPatch, MethodHead, MethodOptions:
		return true
	default:
		return false
	}
}

// String returns the method token.
func (m HTTPMethod) String() string {
	return string(m)
}

// LogEntry is one successfully parsed log line.
type LogEntry struct {
	// Timestamp is kept as the raw token; it is not validated as a date.
	Timestamp string
	Level     LogLevel
	// IP is a dotted-quad address, validated for shape only.
	IP       string
	Method   HTTPMethod
	Endpoint string
	// Status is in [0, 999].
	Status int
}

// FormatStatusCode renders a status as a zero-padded three digit code.
func FormatStatusCode(status int) string {
	return fmt.Sprintf("%03d", status)
}

// RawLine is a single input line handed from a source to the parser.
type RawLine struct {
	// Source identifies where the line came from (file path or "stdin").
	Source string
	// Number is the 1-based line number within Source.
	Number int
	// Text is the line without its terminator.
	Text string
	// Truncated is set when the line was longer than the source accepts;
	// Text then holds only its first bytes.
	Truncated bool
}

// MalformedLine describes why a line did not match the log grammar.
type MalformedLine struct {
	// Field is the first field that failed validation, empty for blank lines.
	Field string
	// Reason is a human readable explanation.
	Reason string
	// Line is the original input.
	Line string
}

// Error implements the error interface.
func (m *MalformedLine) Error() string {
	return "malformed line: " + m.Reason
}

// ParseOutcome is the result of parsing one line: exactly one of Entry
// (when Malformed is nil) or Malformed is meaningful.
type ParseOutcome struct {
	Entry     LogEntry
	Malformed *MalformedLine
}

// Valid wraps a parsed entry.
func Valid(entry LogEntry) ParseOutcome {
	return ParseOutcome{Entry: entry}
}

// Malformed builds a failed outcome.
func Malformed(field, reason, line string) ParseOutcome {
	return ParseOutcome{Malformed: &MalformedLine{Field: field, Reason: reason, Line: line}}
}

// IsValid reports whether the outcome carries an entry.
func (o ParseOutcome) IsValid() bool {
	return o.Malformed == nil
}
