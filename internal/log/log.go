package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger wraps slog with a rotating log file. A nil *Logger is valid:
// debug and info records are dropped, warnings and errors go to slog's default.
type Logger struct {
	*slog.Logger
	LogFile string
	Start   time.Time
}

// Options controls where records go.
type Options struct {
	Level   string
	Dir     string
	Console io.Writer
}

// New creates a logger writing to Console (stderr when nil) and to
// win-voice.log under Dir (the user config dir when empty).
func New(opts Options) *Logger {
	dir := opts.Dir
	if dir == "" {
		cfgDir, err := os.UserConfigDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "[log] unable to find user config dir: %v\n", err)
			cfgDir = "."
		}
		dir = filepath.Join(cfgDir, "win-voice")
	}

	lvl := ParseLevel(opts.Level)
	w := &lumberjack.Logger{
		Filename:   filepath.Join(dir, "win-voice.log"),
		MaxSize:    16, // MB
		MaxBackups: 2,
		MaxAge:     30,
	}
	if lvl == slog.LevelDebug {
		w.MaxSize = 128
	}

	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	h := slog.NewTextHandler(io.MultiWriter(console, w), &slog.HandlerOptions{Level: lvl})
	l := &Logger{
		Logger:  slog.New(h),
		LogFile: w.Filename,
		Start:   time.Now(),
	}
	l.Info("logging started",
		slog.String("file", w.Filename),
		slog.String("GOOS", runtime.GOOS),
		slog.String("GOARCH", runtime.GOARCH),
		slog.Int("NumCPUs", runtime.NumCPU()))
	return l
}

// NewWriter returns a logger that only writes to w. Used by tests and the
// one-shot command line actions.
func NewWriter(w io.Writer, level string) *Logger {
	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)})
	return &Logger{Logger: slog.New(h), Start: time.Now()}
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return NewWriter(io.Discard, "error")
}

// ParseLevel maps a level name to a slog level; unknown names mean info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (l *Logger) Debug(msg string, args ...any) {
	if l != nil {
		l.Logger.Debug(msg, args...)
	}
}

func (l *Logger) Info(msg string, args ...any) {
	if l != nil {
		l.Logger.Info(msg, args...)
	}
}

func (l *Logger) Warn(msg string, args ...any) {
	if l == nil {
		slog.Warn(msg, args...)
	} else {
		l.Logger.Warn(msg, args...)
	}
}

func (l *Logger) Error(msg string, args ...any) {
	if l == nil {
		slog.Error(msg, args...)
	} else {
		l.Logger.Error(msg, args...)
	}
}

// With returns a logger carrying the given attributes. With on a nil
// logger stays nil.
func (l *Logger) With(args ...any) *Logger {
	if l == nil {
		return nil
	}
	return &Logger{
		Logger:  l.Logger.With(args...),
		LogFile: l.LogFile,
		Start:   l.Start,
	}
}

// Component is shorthand for With("component", name).
func (l *Logger) Component(name string) *Logger {
	return l.With("component", name)
}
