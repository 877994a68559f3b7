package logging

import (
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// LogFileName is the JSON log file written under Config.LogDir.
const LogFileName = "thesisherald.log"

// Field is a type alias for zap.Field
type Field = zap.Field

// Common field constructors
var (
	String   = zap.String
	Strings  = zap.Strings
	Int      = zap.Int
	Int64    = zap.Int64
	Float64  = zap.Float64
	Bool     = zap.Bool
	Any      = zap.Any
	Error    = zap.Error
	Err      = zap.NamedError
	Duration = zap.Duration
	Time     = zap.Time
)

// LevelFromString converts a string level to zapcore.Level
func LevelFromString(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Logger wraps zap.Logger with application-specific methods
type Logger struct {
	zap *zap.Logger
}

// Config holds logger configuration
type Config struct {
	LogDir         string
	FileLevel      zapcore.Level
	ConsoleLevel   zapcore.Level
	EnableCaller   bool
	ConsoleEnabled bool
	// FileDisabled skips the JSON file core entirely (console-only runs).
	FileDisabled bool
}

// DefaultConfig returns default logger configuration
func DefaultConfig() *Config {
	return &Config{
		LogDir:         ".herald/logs",
		FileLevel:      zapcore.InfoLevel,
		ConsoleLevel:   zapcore.DebugLevel,
		EnableCaller:   true,
		ConsoleEnabled: true,
	}
}

// NewLogger creates a new logger with file and optional console output
func NewLogger(cfg *Config) (*Logger, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	var cores []zapcore.Core

	if !cfg.FileDisabled {
		if err := os.MkdirAll(cfg.LogDir, 0755); err != nil {
			return nil, err
		}

		fileEncoderConfig := zap.NewProductionEncoderConfig()
		fileEncoderConfig.TimeKey = "timestamp"
		fileEncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		fileEncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

		file, err := os.OpenFile(filepath.Join(cfg.LogDir, LogFileName), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, err
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(fileEncoderConfig), zapcore.AddSync(file), cfg.FileLevel))
	}

	if cfg.ConsoleEnabled {
		consoleEncoderConfig := zap.NewDevelopmentEncoderConfig()
		consoleEncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		consoleEncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(consoleEncoderConfig), zapcore.AddSync(os.Stderr), cfg.ConsoleLevel))
	}

	core := zapcore.NewTee(cores...)

	// Create logger
	opts := []zap.Option{zap.AddStacktrace(zapcore.ErrorLevel)}
	if cfg.EnableCaller {
		opts = append(opts, zap.AddCaller())
	}
	zapLogger := zap.New(core, opts...)

	return &Logger{zap: zapLogger}, nil
}

// NewNopLogger creates a no-op logger for testing
func NewNopLogger() *Logger {
	return &Logger{zap: zap.NewNop()}
}

// NewObservedLogger returns a logger whose entries are captured in memory.
func NewObservedLogger(level zapcore.Level) (*Logger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return &Logger{zap: zap.New(core)}, logs
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *Logger) *Logger {
	if l == nil {
		return NewNopLogger()
	}
	return l
}

// Sync flushes any buffered log entries
func (l *Logger) Sync() error {
	return l.zap.Sync()
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, fields ...zap.Field) {
	l.zap.Debug(msg, fields...)
}

// Info logs an info message
func (l *Logger) Info(msg string, fields ...zap.Field) {
	l.zap.Info(msg, fields...)
}

// Warn logs a warning message
func (l *Logger) Warn(msg string, fields ...zap.Field) {
	l.zap.Warn(msg, fields...)
}

// Error logs an error message
func (l *Logger) Error(msg string, fields ...zap.Field) {
	l.zap.Error(msg, fields...)
}

// Fatal logs a fatal message and exits
func (l *Logger) Fatal(msg string, fields ...zap.Field) {
	l.zap.Fatal(msg, fields...)
}

// With creates a child logger with additional fields
func (l *Logger) With(fields ...zap.Field) *Logger {
	return &Logger{zap: l.zap.With(fields...)}
}

// Named creates a named child logger
func (l *Logger) Named(name string) *Logger {
	return &Logger{zap: l.zap.Named(name)}
}
