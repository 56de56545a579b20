package log

import (
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"INFO", slog.LevelInfo},
		{"  Debug\n", slog.LevelDebug},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if err != nil {
				t.Fatalf("ParseLevel(%q): %v", tt.in, err)
			}
			if got != tt.want {
				t.Fatalf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseLevel_Invalid(t *testing.T) {
	for _, in := range []string{"", "trace", "fatal", "inf"} {
		_, err := ParseLevel(in)
		if err == nil {
			t.Fatalf("ParseLevel(%q) should fail", in)
		}
		if !strings.Contains(err.Error(), "debug|info|warn|error") {
			t.Fatalf("error should list valid levels: %v", err)
		}
	}
}

func TestNew_ReturnsLogger(t *testing.T) {
	var l Logger
	l, err := New(Options{App: "gate", Writer: &strings.Builder{}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if l == nil {
		t.Fatal("New returned nil logger")
	}
	if err := l.Sync(); err != nil {
		t.Fatalf("Sync: %v", err)
	}
}
