package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"DEBUG", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"unknown", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseLevel(tt.input); got != tt.expected {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestInitFormats(t *testing.T) {
	defer func() { _ = Close() }()

	for _, format := range []string{"console", "json"} {
		if err := Init(Config{Level: "debug", Format: format}); err != nil {
			t.Fatalf("Init(%s) failed: %v", format, err)
		}
		if Get() == nil {
			t.Fatal("Get() returned nil")
		}
	}
}

func TestInitWithFile(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "test.log")

	defer func() { _ = Close() }()

	if err := Init(Config{Level: "info", Format: "json", File: logPath}); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	Get().Info().Str("key", "value").Msg("file sink test")

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "file sink test") {
		t.Errorf("log file missing message, got: %s", data)
	}
}

func TestGetBeforeInit(t *testing.T) {
	// Must not panic and must return a usable logger.
	l := Get()
	if l == nil {
		t.Fatal("Get() returned nil before Init")
	}
	l.Debug().Msg("no-op")
}
