// Package logger is the process-wide file logger. Nothing is written until
// Init is called, so library code may log unconditionally.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Level filters what reaches the log file.
type Level int

// Levels in increasing severity.
const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = map[Level]string{
	LevelDebug: "DEBUG",
	LevelInfo:  "INFO",
	LevelWarn:  "WARN",
	LevelError: "ERROR",
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return "UNKNOWN"
}

// ParseLevel converts a level name (case-insensitive) to a Level.
func ParseLevel(s string) (Level, error) {
	for l, name := range levelNames {
		if strings.EqualFold(s, name) {
			return l, nil
		}
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", s)
}

var (
	globalLogger *log.Logger
	logFile      *os.File
	minLevel     = LevelInfo
	mu           sync.Mutex
)

// Init initializes the global logger with the specified log file path.
// Missing parent directories are created.
func Init(logPath string) error {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		logFile.Close()
	}

	if dir := filepath.Dir(logPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
	}

	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	logFile = f
	globalLogger = log.New(f, "", log.Ltime|log.Lmicroseconds)

	return nil
}

// SetLevel drops messages below l. The default is LevelInfo.
func SetLevel(l Level) {
	mu.Lock()
	defer mu.Unlock()
	minLevel = l
}

// GetLevel returns the current minimum level.
func GetLevel() Level {
	mu.Lock()
	defer mu.Unlock()
	return minLevel
}

// Close closes the log file.
func Close() {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
	globalLogger = nil
}

func logf(l Level, format string, v ...interface{}) {
	mu.Lock()
	defer mu.Unlock()

	if globalLogger != nil && l >= minLevel {
		globalLogger.Printf("["+l.String()+"] "+format, v...)
	}
}

// Info logs an info message.
func Info(format string, v ...interface{}) { logf(LevelInfo, format, v...) }

// Debug logs a debug message.
func Debug(format string, v ...interface{}) { logf(LevelDebug, format, v...) }

// Error logs an error message.
func Error(format string, v ...interface{}) { logf(LevelError, format, v...) }

// Warn logs a warning message.
func Warn(format string, v ...interface{}) { logf(LevelWarn, format, v...) }

// GetWriter returns the underlying writer, or io.Discard before Init.
func GetWriter() io.Writer {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		return logFile
	}
	return io.Discard
}
