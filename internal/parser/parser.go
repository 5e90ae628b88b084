// Package parser turns raw web-server log lines into typed entries.
//
// Expected log format (six whitespace separated fields):
//
//	TIMESTAMP [LEVEL] IP METHOD ENDPOINT STATUS
//
// Example:
//
//	2024-01-15T10:30:00Z [INFO] 192.168.1.1 GET /api/users 200
//	2024-01-15T10:30:01Z [ERROR] 10.0.0.5 POST /login 500
package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"log-analyzer/internal/models"
)

// Field names, in the order they appear on a line.
const (
	FieldTimestamp = "timestamp"
	FieldLevel     = "level"
	FieldIP        = "ip"
	FieldMethod    = "method"
	FieldEndpoint  = "endpoint"
	FieldStatus    = "status"
	// FieldTrailing is reported when a line has more than six fields.
	FieldTrailing = "trailing"
)

var fieldOrder = []string{FieldTimestamp, FieldLevel, FieldIP, FieldMethod, FieldEndpoint, FieldStatus}

// LineParser validates lines against the six field grammar. It holds no
// per-line state and is safe to reuse.
type LineParser struct {
	ipPattern     *regexp.Regexp
	methodPattern *regexp.Regexp
	statusPattern *regexp.Regexp
}

// NewLineParser creates a parser with its patterns compiled.
func NewLineParser() *LineParser {
	return &LineParser{
		ipPattern:     regexp.MustCompile(`^\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}$`),
		methodPattern: regexp.MustCompile(`^[A-Z]+$`),
		statusPattern: regexp.MustCompile(`^\d{3}$`),
	}
}

var defaultParser = NewLineParser()

// Parse parses line with the package default parser.
func Parse(line string) models.ParseOutcome {
	return defaultParser.Parse(line)
}

// Parse validates the fields left to right and stops at the first failure.
// Every line yields exactly one outcome.
func (p *LineParser) Parse(line string) models.ParseOutcome {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return models.Malformed("", "empty line", line)
	}

	fields := strings.Fields(trimmed)
	var entry models.LogEntry

	for i, name := range fieldOrder {
		if i >= len(fields) {
			return models.Malformed(name, "missing field: "+name, line)
		}
		if reason := p.setField(&entry, name, fields[i]); reason != "" {
			return models.Malformed(name, reason, line)
		}
	}

	if len(fields) > len(fieldOrder) {
		return models.Malformed(FieldTrailing,
			fmt.Sprintf("unexpected trailing field: %q", fields[len(fieldOrder)]), line)
	}

	return models.Valid(entry)
}

// setField validates token as the named field and stores it in entry.
// It returns a non-empty reason on failure.
func (p *LineParser) setField(entry *models.LogEntry, name, token string) string {
	switch name {
	case FieldTimestamp:
		entry.Timestamp = token

	case FieldLevel:
		if len(token) < 2 || token[0] != '[' || token[len(token)-1] != ']' {
			return fmt.Sprintf("malformed level bracket: %q", token)
		}
		level, ok := models.ParseLogLevel(token[1 : len(token)-1])
		if !ok {
			return fmt.Sprintf("unknown level: %q", token[1:len(token)-1])
		}
		entry.Level = level

	case FieldIP:
		if !p.ipPattern.MatchString(token) {
			return fmt.Sprintf("invalid ip: %q", token)
		}
		entry.IP = token

	case FieldMethod:
		if !p.methodPattern.MatchString(token) {
			return fmt.Sprintf("invalid method: %q", token)
		}
		entry.Method = models.HTTPMethod(token)

	case FieldEndpoint:
		if !strings.HasPrefix(token, "/") {
			return fmt.Sprintf("invalid endpoint: %q", token)
		}
		entry.Endpoint = token

	case FieldStatus:
		if !p.statusPattern.MatchString(token) {
			return fmt.Sprintf("invalid status: %q", token)
		}
		// Three ASCII digits always fit.
		status, _ := strconv.Atoi(token)
		entry.Status = status
	}
	return ""
}
