package parser

import (
	"strings"
	"testing"

	"log-analyzer/internal/models"
)

const validLine = "2024-01-15T10:30:00Z [INFO] 192.168.1.1 GET /api/users 200"

func TestLineParser_ParseValid(t *testing.T) {
	p := NewLineParser()

	outcome := p.Parse(validLine)
	if !outcome.IsValid() {
		t.Fatalf("Parse() returned malformed: %v", outcome.Malformed)
	}

	want := models.LogEntry{
		Timestamp: "2024-01-15T10:30:00Z",
		Level:     models.LevelInfo,
		IP:        "192.168.1.1",
		Method:    models.MethodGet,
		Endpoint:  "/api/users",
		Status:    200,
	}
	if outcome.Entry != want {
		t.Errorf("Parse() entry = %+v, want %+v", outcome.Entry, want)
	}
}

func TestLineParser_ParseLevelsAndStatus(t *testing.T) {
	p := NewLineParser()

	tests := []struct {
		name       string
		line       string
		wantLevel  models.LogLevel
		wantMethod models.HTTPMethod
		wantStatus int
	}{
		{
			name:       "warn",
			line:       "2024-01-15T10:30:01Z [WARN] 10.0.0.2 POST /upload 429",
			wantLevel:  models.LevelWarn,
			wantMethod: models.MethodPost,
			wantStatus: 429,
		},
		{
			name:       "error",
			line:       "2024-01-15T10:30:02Z [ERROR] 172.16.0.1 DELETE /resource/42 500",
			wantLevel:  models.LevelError,
			wantMethod: models.MethodDelete,
			wantStatus: 500,
		},
		{
			name:       "zero padded status",
			line:       "ts [INFO] 1.2.3.4 GET / 004",
			wantLevel:  models.LevelInfo,
			wantMethod: models.MethodGet,
			wantStatus: 4,
		},
		{
			name:       "unknown uppercase method kept",
			line:       "ts [INFO] 1.2.3.4 TRACE /debug 200",
			wantLevel:  models.LevelInfo,
			wantMethod: models.HTTPMethod("TRACE"),
			wantStatus: 200,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome := p.Parse(tt.line)
			if !outcome.IsValid() {
				t.Fatalf("Parse() returned malformed: %v", outcome.Malformed)
			}
			if outcome.Entry.Level != tt.wantLevel {
				t.Errorf("level = %v, want %v", outcome.Entry.Level, tt.wantLevel)
			}
			if outcome.Entry.Method != tt.wantMethod {
				t.Errorf("method = %v, want %v", outcome.Entry.Method, tt.wantMethod)
			}
			if outcome.Entry.Status != tt.wantStatus {
				t.Errorf("status = %v, want %v", outcome.Entry.Status, tt.wantStatus)
			}
		})
	}
}

func TestLineParser_ParseAllMethods(t *testing.T) {
	p := NewLineParser()

	methods := []models.HTTPMethod{
		models.MethodGet, models.MethodPost, models.MethodPut, models.MethodDelete,
		models.MethodPatch, models.MethodHead, models.MethodOptions,
	}
	for _, m := range methods {
		line := "2024-01-15T10:30:00Z [INFO] 1.2.3.4 " + m.String() + " /path 200"
		outcome := p.Parse(line)
		if !outcome.IsValid() {
			t.Fatalf("Parse(%q) returned malformed: %v", line, outcome.Malformed)
		}
		if outcome.Entry.Method != m || !outcome.Entry.Method.IsStandard() {
			t.Errorf("method = %v, want standard %v", outcome.Entry.Method, m)
		}
	}
}

func TestLineParser_Whitespace(t *testing.T) {
	p := NewLineParser()

	lines := []string{
		validLine + "   ",
		validLine + "\n",
		validLine + "\r\n",
		"2024-01-15T10:30:00Z  [INFO]\t192.168.1.1 GET   /api/users 200",
	}
	for _, line := range lines {
		outcome := p.Parse(line)
		if !outcome.IsValid() {
			t.Errorf("Parse(%q) returned malformed: %v", line, outcome.Malformed)
			continue
		}
		if outcome.Entry.Status != 200 {
			t.Errorf("Parse(%q) status = %d, want 200", line, outcome.Entry.Status)
		}
	}
}

func TestLineParser_ParseMalformed(t *testing.T) {
	p := NewLineParser()

	tests := []struct {
		name       string
		line       string
		wantField  string
		wantReason string
	}{
		{"empty", "", "", "empty line"},
		{"whitespace only", "   \t ", "", "empty line"},
		{"missing status", "2024-01-15T10:30:00Z [INFO] 192.168.1.1 GET /api", FieldStatus, "missing field: status"},
		{"missing endpoint", "2024-01-15T10:30:00Z [INFO] 192.168.1.1 GET", FieldEndpoint, "missing field: endpoint"},
		{"only timestamp", "2024-01-15T10:30:00Z", FieldLevel, "missing field: level"},
		{"unknown level", "ts [DEBUG] 192.168.1.1 GET /path 200", FieldLevel, `unknown level: "DEBUG"`},
		{"lowercase level", "ts [info] 192.168.1.1 GET /path 200", FieldLevel, `unknown level: "info"`},
		{"missing bracket", "ts INFO 192.168.1.1 GET /path 200", FieldLevel, `malformed level bracket: "INFO"`},
		{"half bracket", "ts [INFO 192.168.1.1 GET /path 200", FieldLevel, `malformed level bracket: "[INFO"`},
		{"bad ip", "ts [INFO] not_an_ip GET /path 200", FieldIP, `invalid ip: "not_an_ip"`},
		{"three octets", "ts [INFO] 10.0.0 GET /path 200", FieldIP, `invalid ip: "10.0.0"`},
		{"long octet", "ts [INFO] 1000.0.0.1 GET /path 200", FieldIP, `invalid ip: "1000.0.0.1"`},
		{"lowercase method", "ts [INFO] 1.2.3.4 get /path 200", FieldMethod, `invalid method: "get"`},
		{"symbol method", "ts [INFO] 1.2.3.4 GET! /path 200", FieldMethod, `invalid method: "GET!"`},
		{"relative endpoint", "ts [INFO] 1.2.3.4 GET path 200", FieldEndpoint, `invalid endpoint: "path"`},
		{"alpha status", "ts [INFO] 1.2.3.4 GET /path abc", FieldStatus, `invalid status: "abc"`},
		{"four digit status", "ts [INFO] 1.2.3.4 GET /path 2000", FieldStatus, `invalid status: "2000"`},
		{"two digit status", "ts [INFO] 1.2.3.4 GET /path 20", FieldStatus, `invalid status: "20"`},
		{"extra field", "ts [INFO] 1.2.3.4 GET /path 200 extra", FieldTrailing, `unexpected trailing field: "extra"`},
		{"first failure wins", "ts [DEBUG] bad GET path abc", FieldLevel, `unknown level: "DEBUG"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome := p.Parse(tt.line)
			if outcome.IsValid() {
				t.Fatalf("Parse(%q) = valid, want malformed", tt.line)
			}
			if outcome.Malformed.Field != tt.wantField {
				t.Errorf("field = %q, want %q", outcome.Malformed.Field, tt.wantField)
			}
			if outcome.Malformed.Reason != tt.wantReason {
				t.Errorf("reason = %q, want %q", outcome.Malformed.Reason, tt.wantReason)
			}
			if outcome.Malformed.Line != tt.line {
				t.Errorf("line = %q, want %q", outcome.Malformed.Line, tt.line)
			}
		})
	}
}

func TestLineParser_SingleFieldMutations(t *testing.T) {
	p := NewLineParser()
	base := strings.Fields(validLine)
	bad := map[int]string{
		1: "[TRACE]",
		2: "192.168.1",
		3: "Get",
		4: "api/users",
		5: "2x0",
	}

	for idx, token := range bad {
		fields := append([]string(nil), base...)
		fields[idx] = token
		line := strings.Join(fields, " ")
		outcome := p.Parse(line)
		if outcome.IsValid() {
			t.Errorf("Parse(%q) = valid, want malformed", line)
			continue
		}
		if outcome.Malformed.Field != fieldOrder[idx] {
			t.Errorf("Parse(%q) field = %q, want %q", line, outcome.Malformed.Field, fieldOrder[idx])
		}
	}
}

func TestParse_DefaultParser(t *testing.T) {
	if !Parse(validLine).IsValid() {
		t.Error("Parse() should accept a valid line")
	}
	if Parse("garbage").IsValid() {
		t.Error("Parse() should reject garbage")
	}
}

func BenchmarkLineParser_Parse(b *testing.B) {
	p := NewLineParser()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = p.Parse(validLine)
	}
}
