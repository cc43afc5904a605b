// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package logging wraps log/slog with the converter's conventions: a
// component-tagged logger, a process-wide default, and env-driven level
// selection.
package logging

import (
	"io"
	"log/slog"
	"os"
	"sync"
)

// Level mirrors slog levels with local names.
type Level int

const (
	LevelDebug Level = iota - 1
	LevelInfo
	LevelWarn
	LevelError
)

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

// Config controls logger construction.
type Config struct {
	Level  Level
	Output io.Writer
	JSON   bool
}

// DefaultConfig returns a text logger to stderr at info level, honoring
// PFOPN_LOG_LEVEL and DEBUG environment overrides.
func DefaultConfig() Config {
	return Config{Level: LevelFromEnv(), Output: os.Stderr}
}

// LevelFromEnv resolves the log level from PFOPN_LOG_LEVEL, falling back to
// debug when DEBUG is set, else info.
func LevelFromEnv() Level {
	switch os.Getenv("PFOPN_LOG_LEVEL") {
	case "debug":
		return LevelDebug
	case "warn":
		return LevelWarn
	case "error":
		return LevelError
	case "info":
		return LevelInfo
	}
	if os.Getenv("DEBUG") != "" {
		return LevelDebug
	}
	return LevelInfo
}

// Logger is a component-aware structured logger.
type Logger struct {
	sl *slog.Logger
}

// New builds a Logger from the config.
func New(cfg Config) *Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: cfg.Level.slog()}
	var h slog.Handler
	if cfg.JSON {
		h = slog.NewJSONHandler(out, opts)
	} else {
		h = slog.NewTextHandler(out, opts)
	}
	return &Logger{sl: slog.New(h)}
}

// WithComponent returns a child logger tagged with a component name.
func (l *Logger) WithComponent(name string) *Logger {
	return &Logger{sl: l.sl.With("component", name)}
}

// Debug logs at debug level with key-value pairs.
func (l *Logger) Debug(msg string, kv ...any) { l.sl.Debug(msg, kv...) }

// Info logs at info level with key-value pairs.
func (l *Logger) Info(msg string, kv ...any) { l.sl.Info(msg, kv...) }

// Warn logs at warn level with key-value pairs.
func (l *Logger) Warn(msg string, kv ...any) { l.sl.Warn(msg, kv...) }

// Error logs at error level with key-value pairs.
func (l *Logger) Error(msg string, kv ...any) { l.sl.Error(msg, kv...) }

var (
	defaultMu     sync.RWMutex
	defaultLogger = New(DefaultConfig())
)

// SetDefault replaces the process-wide default logger.
func SetDefault(l *Logger) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = l
}

// Default returns the process-wide default logger.
func Default() *Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// WithComponent tags the default logger with a component name.
func WithComponent(name string) *Logger {
	return Default().WithComponent(name)
}

// Debug logs on the default logger.
func Debug(msg string, kv ...any) { Default().Debug(msg, kv...) }

// Info logs on the default logger.
func Info(msg string, kv ...any) { Default().Info(msg, kv...) }

// Warn logs on the default logger.
func Warn(msg string, kv ...any) { Default().Warn(msg, kv...) }

// Error logs on the default logger.
func Error(msg string, kv ...any) { Default().Error(msg, kv...) }
