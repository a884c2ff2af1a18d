package logx

import (
	"fmt"
	"io"
	"sync/atomic"
)

var defaultLogger atomic.Pointer[Logger]

func init() {
	defaultLogger.Store(NewLogger(LoadFromEnv()))
}

func std() *Logger { return defaultLogger.Load() }

// SetDefaultLogger replaces the package level logger
func SetDefaultLogger(logger *Logger) {
	defaultLogger.Store(logger)
}

// GetDefaultLogger returns the package level logger
func GetDefaultLogger() *Logger {
	return std()
}

// SetLevel sets the log level for the default logger
func SetLevel(level Level) {
	std().SetLevel(level)
}

// SetOutput sets the output for the default logger
func SetOutput(w io.Writer) {
	std().SetOutput(w)
}

func Debug(msg string) { std().log(LevelDebug, msg, nil, nil) }
func Info(msg string)  { std().log(LevelInfo, msg, nil, nil) }
func Warn(msg string)  { std().log(LevelWarn, msg, nil, nil) }
func Error(msg string) { std().log(LevelError, msg, nil, nil) }

func Debugf(format string, args ...any) { Debug(fmt.Sprintf(format, args...)) }
func Infof(format string, args ...any)  { Info(fmt.Sprintf(format, args...)) }
func Warnf(format string, args ...any)  { Warn(fmt.Sprintf(format, args...)) }
func Errorf(format string, args ...any) { Error(fmt.Sprintf(format, args...)) }

// Fatalf logs a formatted fatal message and exits
func Fatalf(format string, args ...any) {
	l := std()
	l.log(LevelFatal, fmt.Sprintf(format, args...), nil, nil)
	l.exitFunc(1)
}

// WithFields creates a new entry with fields on the default logger
func WithFields(fields Fields) *Entry {
	return std().WithFields(fields)
}

// WithField creates a new entry with a single field on the default logger
func WithField(key string, value any) *Entry {
	return std().WithField(key, value)
}

// WithError creates a new entry carrying err on the default logger
func WithError(err error) *Entry {
	return std().WithError(err)
}
