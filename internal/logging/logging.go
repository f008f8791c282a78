// Package logging provides structured logging functionality.
package logging

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogConfig holds logging configuration.
type LogConfig struct {
	Level      string
	Console    bool
	File       bool
	FilePath   string
	MaxSize    int // megabytes
	MaxBackups int
	MaxAge     int // days
}

// DefaultLogConfig returns the default logging configuration.
func DefaultLogConfig() LogConfig {
	home, _ := os.UserHomeDir()
	return LogConfig{
		Level:      "info",
		Console:    true,
		File:       true,
		FilePath:   filepath.Join(home, ".config", "chartsight", "logs", "chartsight.log"),
		MaxSize:    50,
		MaxBackups: 5,
		MaxAge:     30,
	}
}

// NewLogger creates a new logger with default configuration.
func NewLogger() zerolog.Logger {
	return NewLoggerWithConfig(DefaultLogConfig())
}

// NewLoggerWithConfig creates a new logger with the specified configuration.
func NewLoggerWithConfig(cfg LogConfig) zerolog.Logger {
	var writers []io.Writer

	if cfg.Console {
		writers = append(writers, zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		})
	}

	// File writer with rotation
	if cfg.File {
		logDir := filepath.Dir(cfg.FilePath)
		if err := os.MkdirAll(logDir, 0755); err == nil {
			writers = append(writers, &lumberjack.Logger{
				Filename:   cfg.FilePath,
				MaxSize:    cfg.MaxSize,
				MaxBackups: cfg.MaxBackups,
				MaxAge:     cfg.MaxAge,
				Compress:   true,
			})
		}
	}

	var writer io.Writer
	switch len(writers) {
	case 0:
		writer = os.Stderr
	case 1:
		writer = writers[0]
	default:
		writer = zerolog.MultiLevelWriter(writers...)
	}

	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	return zerolog.New(writer).
		With().
		Timestamp().
		Logger()
}

func parseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// SetDebugLevel sets the global log level to debug.
func SetDebugLevel() {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
}

// ContextKey is the type for context keys.
type ContextKey string

// LoggerKey is the context key for the logger.
const LoggerKey ContextKey = "logger"

// WithLogger adds a logger to the context.
func WithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// FromContext retrieves the logger from context.
func FromContext(ctx context.Context) zerolog.Logger {
	if logger, ok := ctx.Value(LoggerKey).(zerolog.Logger); ok {
		return logger
	}
	return zerolog.Nop()
}

// WithBackend adds the persistence backend name to the logger context.
func WithBackend(logger zerolog.Logger, backend string) zerolog.Logger {
	return logger.With().Str("backend", backend).Logger()
}

// LogLogin logs an authentication attempt.
func LogLogin(logger zerolog.Logger, role string, success bool) {
	logger.Info().
		Str("event", "login").
		Str("role", role).
		Bool("success", success).
		Msg("Login attempt")
}

// LogCodeIssued logs the issuance of a new access code. The code value
// is masked.
func LogCodeIssued(logger zerolog.Logger, code string, durationDays float64) {
	logger.Info().
		Str("event", "code_issued").
		Str("code", MaskCode(code)).
		Float64("duration_days", durationDays).
		Msg("Access code issued")
}

// LogCodeRevoked logs the deletion of an access code. The code value is
// masked.
func LogCodeRevoked(logger zerolog.Logger, code string) {
	logger.Info().
		Str("event", "code_revoked").
		Str("code", MaskCode(code)).
		Msg("Access code revoked")
}

// LogAnalysis logs a completed chart analysis.
func LogAnalysis(logger zerolog.Logger, pair, action string, confidence float64) {
	logger.Info().
		Str("event", "analysis").
		Str("pair", pair).
		Str("action", action).
		Float64("confidence", confidence).
		Msg("Chart analysis completed")
}

// LogStoreOp logs a persistence operation.
func LogStoreOp(logger zerolog.Logger, op, collection string, duration time.Duration, err error) {
	event := logger.Debug().
		Str("event", "store_op").
		Str("op", op).
		Str("collection", collection).
		Dur("duration", duration)

	if err != nil {
		event.Err(err).Msg("Store operation failed")
	} else {
		event.Msg("Store operation completed")
	}
}
