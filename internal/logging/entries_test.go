// pattern: Functional Core

package logging

import "testing"

func TestLogEntry_String(t *testing.T) {
	e := LogEntry{
		Level:   "WARN",
		Scope:   "cache",
		Message: "cache write failed",
		Fields:  map[string]any{"path": "/p", "error": "denied"},
	}
	want := "WARN [cache] cache write failed error=denied path=/p"
	if got := e.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestLogEntry_IsProblem(t *testing.T) {
	tests := []struct {
		level string
		want  bool
	}{
		{"DEBUG", false},
		{"INFO", false},
		{"WARN", true},
		{"ERROR", true},
	}
	for _, tt := range tests {
		if got := (LogEntry{Level: tt.level}).IsProblem(); got != tt.want {
			t.Errorf("IsProblem(%s) = %v, want %v", tt.level, got, tt.want)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]string{
		"debug":   "DEBUG",
		"INFO":    "INFO",
		"warning": "WARN",
		"warn":    "WARN",
		"error":   "ERROR",
		"bogus":   "INFO",
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %q, want %q", in, got, want)
		}
	}
}
