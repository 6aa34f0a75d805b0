/*
author: akashmaji
email: akashmaji@iisc.ac.in
file: respkv/internal/logging/logging.go
*/

// Package logging provides the leveled logger used throughout respkv: a
// thin wrapper over four standard library loggers, one per level, each
// writing to stderr with its own prefix.
package logging

import (
	"log"
	"os"
)

// Level names, matching the prefixes written to stderr.
const (
	levelInfo  = "INFO"
	levelWarn  = "WARN"
	levelError = "ERROR"
	levelDebug = "DEBUG"
)

// Logger is a custom logger with independent loggers per level.
type Logger struct {
	infoLogger  *log.Logger
	warnLogger  *log.Logger
	errorLogger *log.Logger
	debugLogger *log.Logger
}

// New initializes and returns a new Logger instance writing to stderr.
func New() *Logger {
	return &Logger{
		infoLogger:  log.New(os.Stderr, "[INFO]  ", log.Ldate|log.Ltime),
		warnLogger:  log.New(os.Stderr, "[WARN]  ", log.Ldate|log.Ltime),
		errorLogger: log.New(os.Stderr, "[ERROR] ", log.Ldate|log.Ltime),
		debugLogger: log.New(os.Stderr, "[DEBUG] ", log.Ldate|log.Ltime),
	}
}

// Info logs an informational message.
func (l *Logger) Info(format string, v ...interface{}) {
	l.printf(levelInfo, format, v...)
}

// Warn logs a warning message.
func (l *Logger) Warn(format string, v ...interface{}) {
	l.printf(levelWarn, format, v...)
}

// Error logs an error message.
func (l *Logger) Error(format string, v ...interface{}) {
	l.printf(levelError, format, v...)
}

// Debug logs a debug message.
func (l *Logger) Debug(format string, v ...interface{}) {
	l.printf(levelDebug, format, v...)
}

func (l *Logger) printf(level string, format string, v ...interface{}) {
	switch level {
	case levelInfo:
		l.infoLogger.Printf(format, v...)
	case levelWarn:
		l.warnLogger.Printf(format, v...)
	case levelError:
		l.errorLogger.Printf(format, v...)
	case levelDebug:
		l.debugLogger.Printf(format, v...)
	default:
		l.infoLogger.Printf(format, v...)
	}
}
