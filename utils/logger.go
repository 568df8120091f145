package utils

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"
)

// Level is the minimum severity a Logger emits.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLevel maps a LOG_LEVEL value to a Level. Unknown values fall back to info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Logger provides leveled logging throughout the application.
type Logger struct {
	level Level
	out   *log.Logger
	err   *log.Logger
}

// NewLogger creates an info-level Logger writing to stdout/stderr.
func NewLogger() *Logger {
	return NewLoggerTo(LevelInfo, os.Stdout, os.Stderr)
}

// NewLoggerTo creates a Logger with the given minimum level. Errors go to errOut,
// everything else to out.
func NewLoggerTo(level Level, out, errOut io.Writer) *Logger {
	return &Logger{
		level: level,
		out:   log.New(out, "", 0),
		err:   log.New(errOut, "", 0),
	}
}

// NewDiscardLogger returns a Logger that drops everything. Handy in tests.
func NewDiscardLogger() *Logger {
	return NewLoggerTo(LevelError+1, io.Discard, io.Discard)
}

func (l *Logger) timestamp() string {
	return time.Now().Format("2006-01-02 15:04:05")
}

func (l *Logger) emit(dst *log.Logger, lvl Level, tag, format string, args ...any) {
	if lvl < l.level {
		return
	}
	dst.Printf("[%s] %s %s", l.timestamp(), tag, fmt.Sprintf(format, args...))
}

func (l *Logger) Info(format string, args ...any) {
	l.emit(l.out, LevelInfo, "\033[32mINFO\033[0m ", format, args...)
}

func (l *Logger) Warn(format string, args ...any) {
	l.emit(l.out, LevelWarn, "\033[33mWARN\033[0m ", format, args...)
}

func (l *Logger) Error(format string, args ...any) {
	l.emit(l.err, LevelError, "\033[31mERROR\033[0m", format, args...)
}

func (l *Logger) Debug(format string, args ...any) {
	l.emit(l.out, LevelDebug, "\033[36mDEBUG\033[0m", format, args...)
}
