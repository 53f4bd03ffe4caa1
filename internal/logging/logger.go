// logger.go - Structured, leveled logging for the delay-encryption tools.
//
// Wraps zerolog (the logger gnark itself uses) behind the Debug/Info/Warn/Error/Fatal/Audit
// surface of the command-line tools. Library packages take child loggers from Component,
// which follow whatever logger the process installed with SetDefault.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"
	"time"

	gnarklogger "github.com/consensys/gnark/logger"
	"github.com/rs/zerolog"
)

// LogLevel represents the logging level
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
	FATAL
)

// ParseLevel maps a config string to a level; unknown strings mean INFO.
func ParseLevel(level string) LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return DEBUG
	case "info":
		return INFO
	case "warn", "warning":
		return WARN
	case "error":
		return ERROR
	case "fatal":
		return FATAL
	default:
		return INFO
	}
}

func (l LogLevel) zerolog() zerolog.Level {
	switch l {
	case DEBUG:
		return zerolog.DebugLevel
	case WARN:
		return zerolog.WarnLevel
	case ERROR:
		return zerolog.ErrorLevel
	case FATAL:
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}

// Logger represents a structured logger
type Logger struct {
	level    LogLevel
	file     *os.File
	audit    *os.File
	zl       zerolog.Logger
	auditLog *zerolog.Logger
}

// NewLogger creates a logger writing to the console and, when set, to logFile.
// Warnings and above, plus explicit Audit events, also go to auditFile.
func NewLogger(level string, logFile string, auditFile string) (*Logger, error) {
	logLevel := ParseLevel(level)
	logger := &Logger{level: logLevel}

	writers := []io.Writer{zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.DateTime}}
	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		logger.file = file
		writers = append(writers, file)
	}
	if auditFile != "" {
		file, err := os.OpenFile(auditFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			logger.Close()
			return nil, fmt.Errorf("failed to open audit file: %w", err)
		}
		logger.audit = file
		al := zerolog.New(file).With().Timestamp().Logger()
		logger.auditLog = &al
		writers = append(writers, &levelFilter{w: file, min: zerolog.WarnLevel})
	}

	logger.zl = zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(logLevel.zerolog()).
		With().Timestamp().Logger()
	return logger, nil
}

// Close closes the logger and its files
func (l *Logger) Close() error {
	var firstErr error
	for _, f := range []*os.File{l.file, l.audit} {
		if f == nil {
			continue
		}
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Level returns the configured level.
func (l *Logger) Level() LogLevel {
	return l.level
}

// Zerolog exposes the underlying logger.
func (l *Logger) Zerolog() zerolog.Logger {
	return l.zl
}

// Debug logs a debug message
func (l *Logger) Debug(format string, args ...interface{}) {
	l.zl.Debug().Msgf(format, args...)
}

// Info logs an info message
func (l *Logger) Info(format string, args ...interface{}) {
	l.zl.Info().Msgf(format, args...)
}

// Warn logs a warning message
func (l *Logger) Warn(format string, args ...interface{}) {
	l.zl.Warn().Msgf(format, args...)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	l.zl.Error().Msgf(format, args...)
}

// Fatal logs a fatal message and exits
func (l *Logger) Fatal(format string, args ...interface{}) {
	l.zl.WithLevel(zerolog.FatalLevel).Msgf(format, args...)
	l.Close()
	os.Exit(1)
}

// Audit logs an audit event
func (l *Logger) Audit(event string, details map[string]interface{}) {
	if l.auditLog == nil {
		return
	}
	l.auditLog.Log().Str("audit", event).Fields(details).Send()
}

// levelFilter forwards only events at or above min.
type levelFilter struct {
	w   io.Writer
	min zerolog.Level
}

func (f *levelFilter) Write(p []byte) (int, error) {
	return f.w.Write(p)
}

func (f *levelFilter) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	if level < f.min {
		return len(p), nil
	}
	return f.w.Write(p)
}

var std atomic.Pointer[zerolog.Logger]

func init() {
	l := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.DateTime}).
		Level(zerolog.InfoLevel).
		With().Timestamp().Logger()
	std.Store(&l)
}

// SetDefault installs l as the process logger, for library packages and for gnark.
func SetDefault(l *Logger) {
	zl := l.Zerolog()
	std.Store(&zl)
	gnarklogger.Set(zl)
}

// Component returns a child of the process logger tagged with the component name.
// Take it at the call site so a later SetDefault is honoured.
func Component(name string) *zerolog.Logger {
	l := std.Load().With().Str("component", name).Logger()
	return &l
}
