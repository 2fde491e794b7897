package log

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNilLoggerIsSafe(t *testing.T) {
	var l *Logger
	l.Debug("dropped")
	l.Info("dropped", "n", 1)
	if l.With("k", "v") != nil || l.Component("x") != nil {
		t.Fatal("With on nil logger should stay nil")
	}
}

func TestWriterLevelAndComponent(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, "warn").Component("record")
	l.Info("hidden")
	l.Warn("kept", "n", 7)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info record written at warn level: %q", out)
	}
	if !strings.Contains(out, "msg=kept") || !strings.Contains(out, "n=7") || !strings.Contains(out, "component=record") {
		t.Fatalf("missing warn record or component: %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	} {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewWritesFile(t *testing.T) {
	dir := t.TempDir()
	var console bytes.Buffer
	l := New(Options{Level: "info", Dir: dir, Console: &console})
	l.Info("hello file")

	b, err := os.ReadFile(filepath.Join(dir, "win-voice.log"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), "hello file") || !strings.Contains(console.String(), "hello file") {
		t.Fatal("record missing from file or console")
	}
}
