// Package logger provides structured logging on top of log/slog.
package logger

import (
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with convenience methods.
type Logger struct {
	*slog.Logger
}

// Config holds logger configuration.
type Config struct {
	Level  slog.Level
	Format string // "json" or "text"
}

// DefaultConfig returns default logger configuration.
func DefaultConfig() *Config {
	return &Config{
		Level:  slog.LevelInfo,
		Format: "json",
	}
}

// New creates a new structured logger.
func New(config *Config) *Logger {
	if config == nil {
		config = DefaultConfig()
	}

	opts := &slog.HandlerOptions{Level: config.Level}

	var handler slog.Handler
	if config.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return &Logger{Logger: slog.New(handler)}
}

// WithError returns a logger with an error field.
func (l *Logger) WithError(err error) *Logger {
	if err == nil {
		return l
	}
	return &Logger{Logger: l.Logger.With("error", err.Error())}
}

// Component returns a logger for a specific component.
func (l *Logger) Component(name string) *Logger {
	return &Logger{Logger: l.Logger.With("component", name)}
}

// Symbol returns a logger for a specific trading symbol.
func (l *Logger) Symbol(symbol string) *Logger {
	return &Logger{Logger: l.Logger.With("symbol", symbol)}
}

// Run returns a logger tagged with a backtest run id.
func (l *Logger) Run(id string) *Logger {
	return &Logger{Logger: l.Logger.With("run_id", id)}
}

// Global logger instance
var defaultLogger *Logger

func init() {
	defaultLogger = New(DefaultConfig())
}

// SetDefault sets the default global logger.
func SetDefault(l *Logger) {
	if l != nil {
		defaultLogger = l
	}
}

// Default returns the default global logger.
func Default() *Logger {
	return defaultLogger
}

// Debug logs a debug message.
func Debug(msg string, args ...any) {
	defaultLogger.Debug(msg, args...)
}

// Info logs an info message.
func Info(msg string, args ...any) {
	defaultLogger.Info(msg, args...)
}

// Warn logs a warning message.
func Warn(msg string, args ...any) {
	defaultLogger.Warn(msg, args...)
}

// Error logs an error message.
func Error(msg string, args ...any) {
	defaultLogger.Error(msg, args...)
}

// WithError returns a logger with an error.
func WithError(err error) *Logger {
	return defaultLogger.WithError(err)
}

// Component returns a component logger.
func Component(name string) *Logger {
	return defaultLogger.Component(name)
}

// Symbol returns a symbol logger.
func Symbol(symbol string) *Logger {
	return defaultLogger.Symbol(symbol)
}
