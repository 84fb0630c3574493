package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// Config holds logger configuration
type Config struct {
	Level  string // DEBUG, INFO, WARN, ERROR
	Format string // text, json
	Output string // stdout, stderr, or file path
}

var (
	currentLevel  atomic.Int32
	currentFormat atomic.Value // "text" or "json"

	mu      sync.RWMutex
	output  io.Writer = os.Stderr
	closer  io.Closer
	slogger *slog.Logger
)

func init() {
	currentLevel.Store(int32(LevelInfo))
	currentFormat.Store("text")
	reconfigure()
}

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func toSlogLevel(l Level) slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// reconfigure rebuilds the slog handler from the current settings.
func reconfigure() {
	mu.Lock()
	defer mu.Unlock()

	opts := &slog.HandlerOptions{Level: toSlogLevel(Level(currentLevel.Load()))}
	if format, _ := currentFormat.Load().(string); format == "json" {
		slogger = slog.New(slog.NewJSONHandler(output, opts))
	} else {
		slogger = slog.New(slog.NewTextHandler(output, opts))
	}
}

// Init applies cfg. Output can be "stdout", "stderr", or a file path; a
// previously opened log file is closed when replaced.
func Init(cfg Config) error {
	if cfg.Output != "" {
		var (
			w io.Writer
			c io.Closer
		)
		switch strings.ToLower(cfg.Output) {
		case "stdout":
			w = os.Stdout
		case "stderr":
			w = os.Stderr
		default:
			f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
			if err != nil {
				return fmt.Errorf("failed to open log file %q: %w", cfg.Output, err)
			}
			w, c = f, f
		}
		swapOutput(w, c)
	}

	if cfg.Level != "" {
		SetLevel(cfg.Level)
	}
	if cfg.Format != "" {
		SetFormat(cfg.Format)
	}
	reconfigure()
	return nil
}

// SetOutput redirects log output to w. Mostly useful for tests.
func SetOutput(w io.Writer) {
	swapOutput(w, nil)
	reconfigure()
}

func swapOutput(w io.Writer, c io.Closer) {
	mu.Lock()
	if closer != nil {
		_ = closer.Close()
	}
	output, closer = w, c
	mu.Unlock()
}

// SetLevel sets the minimum log level. Unknown levels are ignored.
func SetLevel(level string) {
	switch strings.ToUpper(level) {
	case "DEBUG":
		currentLevel.Store(int32(LevelDebug))
	case "INFO":
		currentLevel.Store(int32(LevelInfo))
	case "WARN":
		currentLevel.Store(int32(LevelWarn))
	case "ERROR":
		currentLevel.Store(int32(LevelError))
	default:
		return
	}
	reconfigure()
}

// SetFormat sets the output format (text or json). Unknown formats are
// ignored.
func SetFormat(format string) {
	format = strings.ToLower(format)
	if format != "text" && format != "json" {
		return
	}
	currentFormat.Store(format)
	reconfigure()
}

// Enabled reports whether messages at level would be written. Callers use
// it to skip building expensive log arguments.
func Enabled(level Level) bool {
	return level >= Level(currentLevel.Load())
}

// With returns a logger with pre-bound structured fields.
func With(args ...any) *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return slogger.With(args...)
}

func log(level Level, format string, v ...any) {
	if !Enabled(level) {
		return
	}
	mu.RLock()
	l := slogger
	mu.RUnlock()

	msg := fmt.Sprintf(format, v...)
	switch level {
	case LevelDebug:
		l.Debug(msg)
	case LevelInfo:
		l.Info(msg)
	case LevelWarn:
		l.Warn(msg)
	default:
		l.Error(msg)
	}
}

func Debug(format string, v ...any) {
	log(LevelDebug, format, v...)
}

func Info(format string, v ...any) {
	log(LevelInfo, format, v...)
}

func Warn(format string, v ...any) {
	log(LevelWarn, format, v...)
}

func Error(format string, v ...any) {
	log(LevelError, format, v...)
}
