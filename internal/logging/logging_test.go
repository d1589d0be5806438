package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"Error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewWithWritersFansOut(t *testing.T) {
	var text, js bytes.Buffer
	logger := NewWithWriters(&text, &js, "info")

	logger.Info("execution completed", "automation_id", "a1")
	logger.Debug("hidden")

	if !strings.Contains(text.String(), "execution completed") {
		t.Errorf("expected text output, got %q", text.String())
	}
	if strings.Contains(text.String(), "hidden") {
		t.Error("debug line should be filtered at info level")
	}

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(js.Bytes()), &entry); err != nil {
		t.Fatalf("expected one JSON line, got %q: %v", js.String(), err)
	}
	if entry["automation_id"] != "a1" {
		t.Errorf("expected automation_id attribute, got %v", entry["automation_id"])
	}
}

func TestSetupWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bloggen.log")
	logger, cleanup := Setup("info", path)
	if logger == nil {
		t.Fatal("expected logger")
	}
	logger.Info("hello")
	if err := cleanup(); err != nil {
		t.Errorf("cleanup: %v", err)
	}
}
