// Package logger provides structured logging for the scrapers and the read API.
//
// Log lines carry a message plus arbitrary structured fields. Output is either
// colourised text for terminals (via tint) or one JSON object per line for log
// collectors. Both are built on log/slog, so libraries that log through slog
// end up in the same stream once SetDefault has been called.
//
// Example usage:
//
//	log := logger.New(logger.LevelInfo, logger.FormatText, os.Stderr)
//	log.Info("Scraped events", logger.Fields{
//	    "source": "https://www.meetup.com/go-toronto/",
//	    "count":  4,
//	})
//
//	log.Error("Store write failed", logger.Fields{
//	    "source": src.URL,
//	}, err)
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

// Level represents log severity
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// ParseLevel accepts level names in any case; empty means info
func ParseLevel(s string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "INFO":
		return LevelInfo, nil
	case "DEBUG":
		return LevelDebug, nil
	case "WARN", "WARNING":
		return LevelWarn, nil
	case "ERROR":
		return LevelError, nil
	default:
		return "", fmt.Errorf("unknown log level %q", s)
	}
}

func (l Level) slog() slog.Level {
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

// Format selects the output encoding
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseFormat accepts "text" or "json"; empty means text
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown log format %q", s)
	}
}

// Fields represents structured log fields
type Fields map[string]interface{}

// Logger provides structured logging
type Logger struct {
	sl *slog.Logger
}

var defaultLogger = New(LevelInfo, FormatText, os.Stderr)

// New creates a logger writing to output. Messages below level are discarded.
func New(level Level, format Format, output io.Writer) *Logger {
	var h slog.Handler
	if format == FormatJSON {
		h = slog.NewJSONHandler(output, &slog.HandlerOptions{Level: level.slog()})
	} else {
		h = tint.NewHandler(output, &tint.Options{
			Level:      level.slog(),
			TimeFormat: time.RFC1123Z,
			NoColor:    !isTerminal(output),
		})
	}
	return &Logger{sl: slog.New(h)}
}

// isTerminal reports whether output is an interactive terminal; colour codes
// are only written there
func isTerminal(output io.Writer) bool {
	f, ok := output.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Discard returns a logger that drops everything
func Discard() *Logger {
	return &Logger{sl: slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))}
}

// SetDefault sets the logger returned by Default and log/slog's default logger
func SetDefault(logger *Logger) {
	defaultLogger = logger
	slog.SetDefault(logger.sl)
}

// Default returns the process-wide logger, used when none is injected
func Default() *Logger {
	return defaultLogger
}

// With returns a logger that adds fields to every line
func (l *Logger) With(fields Fields) *Logger {
	return &Logger{sl: l.sl.With(attrs(fields, nil)...)}
}

func (l *Logger) log(level slog.Level, message string, fields Fields, err error) {
	if !l.sl.Enabled(context.Background(), level) {
		return
	}
	l.sl.Log(context.Background(), level, message, attrs(fields, err)...)
}

// attrs converts fields to slog attributes in key order, with the error last
func attrs(fields Fields, err error) []any {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]any, 0, len(keys)+1)
	for _, k := range keys {
		out = append(out, slog.Any(k, fields[k]))
	}
	if err != nil {
		out = append(out, slog.String("error", err.Error()))
	}
	return out
}

// Debug logs a debug message with optional structured fields
func (l *Logger) Debug(message string, fields Fields) {
	l.log(slog.LevelDebug, message, fields, nil)
}

// Info logs an informational message with optional structured fields
func (l *Logger) Info(message string, fields Fields) {
	l.log(slog.LevelInfo, message, fields, nil)
}

// Warn logs a warning message with optional structured fields
func (l *Logger) Warn(message string, fields Fields) {
	l.log(slog.LevelWarn, message, fields, nil)
}

// Error logs an error message with optional structured fields and an error
func (l *Logger) Error(message string, fields Fields, err error) {
	l.log(slog.LevelError, message, fields, err)
}
