package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
)

// LogLevel represents the logging level
type LogLevel string

const (
	DebugLevel LogLevel = "debug"
	InfoLevel  LogLevel = "info"
	WarnLevel  LogLevel = "warn"
	ErrorLevel LogLevel = "error"
	FatalLevel LogLevel = "fatal"
)

// Logger holds the zerolog logger instance
type Logger struct {
	logger zerolog.Logger
}

// NewLogger creates a new logger instance with the specified log level
func NewLogger(logLevel LogLevel, output io.Writer) *Logger {
	if output == nil {
		output = os.Stdout
	}

	level, err := zerolog.ParseLevel(string(logLevel))
	if err != nil {
		level = zerolog.InfoLevel
	}

	logger := zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Logger()

	return &Logger{
		logger: logger,
	}
}

// Zerolog exposes the wrapped zerolog.Logger for components that hold one.
func (l *Logger) Zerolog() *zerolog.Logger {
	return &l.logger
}

func (l *Logger) Debug(msg string) {
	l.logger.Debug().Msg(msg)
}

func (l *Logger) Info(msg string) {
	l.logger.Info().Msg(msg)
}

func (l *Logger) Warn(msg string) {
	l.logger.Warn().Msg(msg)
}

func (l *Logger) Error(msg string) {
	l.logger.Error().Msg(msg)
}

func (l *Logger) Fatal(msg string) {
	l.logger.Fatal().Msg(msg)
}

func (l *Logger) Debugf(format string, args ...interface{}) {
	l.logger.Debug().Msg(fmt.Sprintf(format, args...))
}

func (l *Logger) Infof(format string, args ...interface{}) {
	l.logger.Info().Msg(fmt.Sprintf(format, args...))
}

func (l *Logger) Warnf(format string, args ...interface{}) {
	l.logger.Warn().Msg(fmt.Sprintf(format, args...))
}

func (l *Logger) Errorf(format string, args ...interface{}) {
	l.logger.Error().Msg(fmt.Sprintf(format, args...))
}

func (l *Logger) Fatalf(format string, args ...interface{}) {
	l.logger.Fatal().Msg(fmt.Sprintf(format, args...))
}

// WithField adds a single field to the logger
func (l *Logger) WithField(key string, value interface{}) *zerolog.Logger {
	logger := l.logger.With().Interface(key, value).Logger()
	return &logger
}

// WithFields adds multiple fields to the logger
func (l *Logger) WithFields(fields map[string]interface{}) *zerolog.Logger {
	logCtx := l.logger.With()

	for key, value := range fields {
		logCtx = logCtx.Interface(key, value)
	}

	logger := logCtx.Logger()
	return &logger
}

// Domain log events of the refresh engine. All are nil-safe so components
// carrying an optional logger can call them unconditionally.

// LogAlbumRefresh logs one album aggregate recompute
func LogAlbumRefresh(l *zerolog.Logger, albumID int32, subtype int32, mode string, changed bool) {
	if l == nil {
		return
	}
	l.Debug().
		Int32("album_id", albumID).
		Int32("album_subtype", subtype).
		Str("mode", mode).
		Bool("changed", changed).
		Msg("Album aggregates refreshed")
}

// LogExceedFallback logs a fallback from incremental to full-corpus recompute
func LogExceedFallback(l *zerolog.Logger, touched, threshold int) {
	if l == nil {
		return
	}
	l.Info().
		Int("touched", touched).
		Int("threshold", threshold).
		Msg("Change batch exceeds threshold, falling back to full recompute")
}

// LogTransactionRetry logs a retried transaction start
func LogTransactionRetry(l *zerolog.Logger, attempt, budget int, upgrade bool, err error) {
	if l == nil {
		return
	}
	l.Debug().
		Int("attempt", attempt).
		Int("budget", budget).
		Bool("upgrade", upgrade).
		Err(err).
		Msg("Transaction start retried")
}

// LogRecomputeSkipped logs one album left stale after a recompute failure
func LogRecomputeSkipped(l *zerolog.Logger, albumID int32, err error) {
	if l == nil {
		return
	}
	l.Warn().
		Int32("album_id", albumID).
		Err(err).
		Msg("Album recompute failed, aggregates stay stale until next refresh")
}

// LogNotificationFlush logs a post-commit notification dispatch
func LogNotificationFlush(l *zerolog.Logger, count int, recheck bool) {
	if l == nil {
		return
	}
	l.Debug().
		Int("count", count).
		Bool("recheck", recheck).
		Msg("Change notifications dispatched")
}

// SetLogLevel dynamically changes the logging level
func (l *Logger) SetLogLevel(logLevel LogLevel) error {
	level, err := zerolog.ParseLevel(string(logLevel))
	if err != nil {
		return fmt.Errorf("invalid log level: %s", logLevel)
	}

	l.logger = l.logger.Level(level)
	return nil
}
