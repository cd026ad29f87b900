// Package logger provides leveled console logging for the conversion
// pipeline.
//
// All output is prefixed with [HH:MM:SS] timestamps. Implementations are
// safe for concurrent use. Color output is enabled automatically when
// writing to a terminal and suppressed for redirected output.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Log level constants for filtering
const (
	levelTrace int = 0
	levelDebug int = 1
	levelInfo  int = 2
	levelWarn  int = 3
	levelError int = 4
)

// Logger is the logging interface the pipeline components depend on.
// Successf logs at info level with success styling.
type Logger interface {
	Tracef(format string, args ...interface{})
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Successf(format string, args ...interface{})
}

// ConsoleLogger writes timestamped, level-filtered messages to a writer.
// Valid levels: trace, debug, info, warn, error (case-insensitive); an
// empty or unknown level defaults to "info".
type ConsoleLogger struct {
	writer      io.Writer
	logLevel    string
	mutex       sync.Mutex
	colorOutput bool
}

// NewConsoleLogger creates a ConsoleLogger writing to the given writer.
// A nil writer silently discards all messages.
func NewConsoleLogger(writer io.Writer, logLevel string) *ConsoleLogger {
	return &ConsoleLogger{
		writer:      writer,
		logLevel:    normalizeLogLevel(logLevel),
		colorOutput: isTerminal(writer),
	}
}

// isTerminal reports whether the writer is a TTY that supports colors.
// Respects the color library's NO_COLOR handling.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	if color.NoColor {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// normalizeLogLevel lowercases and validates a level name, defaulting to
// "info" for empty or unknown input.
func normalizeLogLevel(level string) string {
	normalized := strings.ToLower(strings.TrimSpace(level))

	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if validLevels[normalized] {
		return normalized
	}
	return "info"
}

func logLevelToInt(level string) int {
	switch level {
	case "trace":
		return levelTrace
	case "debug":
		return levelDebug
	case "info":
		return levelInfo
	case "warn":
		return levelWarn
	case "error":
		return levelError
	default:
		return levelInfo
	}
}

func (cl *ConsoleLogger) shouldLog(messageLevel string) bool {
	return logLevelToInt(messageLevel) >= logLevelToInt(cl.logLevel)
}

// Tracef logs a trace-level message (most verbose).
// Format: "[HH:MM:SS] [TRACE] <message>"
func (cl *ConsoleLogger) Tracef(format string, args ...interface{}) {
	cl.logWithLevel("TRACE", fmt.Sprintf(format, args...))
}

// Debugf logs a debug-level message.
func (cl *ConsoleLogger) Debugf(format string, args ...interface{}) {
	cl.logWithLevel("DEBUG", fmt.Sprintf(format, args...))
}

// Infof logs an info-level message.
func (cl *ConsoleLogger) Infof(format string, args ...interface{}) {
	cl.logWithLevel("INFO", fmt.Sprintf(format, args...))
}

// Warnf logs a warning-level message.
func (cl *ConsoleLogger) Warnf(format string, args ...interface{}) {
	cl.logWithLevel("WARN", fmt.Sprintf(format, args...))
}

// Errorf logs an error-level message.
func (cl *ConsoleLogger) Errorf(format string, args ...interface{}) {
	cl.logWithLevel("ERROR", fmt.Sprintf(format, args...))
}

// Successf logs an info-level message rendered green on terminals.
// Format: "[HH:MM:SS] [OK] <message>"
func (cl *ConsoleLogger) Successf(format string, args ...interface{}) {
	if cl.writer == nil || !cl.shouldLog("info") {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	message := fmt.Sprintf(format, args...)
	if cl.colorOutput {
		message = color.New(color.FgGreen).Sprint(message)
	}
	fmt.Fprintf(cl.writer, "[%s] [OK] %s\n", timestamp(), message)
}

func (cl *ConsoleLogger) logWithLevel(level, message string) {
	if cl.writer == nil {
		return
	}
	if !cl.shouldLog(strings.ToLower(level)) {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	ts := timestamp()
	if cl.colorOutput {
		fmt.Fprint(cl.writer, cl.formatWithColor(ts, level, message))
		return
	}
	fmt.Fprintf(cl.writer, "[%s] [%s] %s\n", ts, level, message)
}

// formatWithColor formats a log message with ANSI color codes.
func (cl *ConsoleLogger) formatWithColor(ts, level, message string) string {
	var coloredLevel string

	switch level {
	case "TRACE":
		coloredLevel = color.New(color.FgHiBlack).Sprint(level)
	case "DEBUG":
		coloredLevel = color.New(color.FgCyan).Sprint(level)
	case "INFO":
		coloredLevel = color.New(color.FgBlue).Sprint(level)
	case "WARN":
		coloredLevel = color.New(color.FgYellow).Sprint(level)
	case "ERROR":
		coloredLevel = color.New(color.FgRed).Sprint(level)
	default:
		coloredLevel = level
	}

	return fmt.Sprintf("[%s] [%s] %s\n", ts, coloredLevel, message)
}

// timestamp returns the current time formatted as "15:04:05" (HH:MM:SS).
func timestamp() string {
	return time.Now().Format("15:04:05")
}

// NoOpLogger discards all log messages. Useful for tests or when logging
// is disabled.
type NoOpLogger struct{}

// NewNoOpLogger creates a NoOpLogger instance.
func NewNoOpLogger() *NoOpLogger {
	return &NoOpLogger{}
}

func (n *NoOpLogger) Tracef(format string, args ...interface{})   {}
func (n *NoOpLogger) Debugf(format string, args ...interface{})   {}
func (n *NoOpLogger) Infof(format string, args ...interface{})    {}
func (n *NoOpLogger) Warnf(format string, args ...interface{})    {}
func (n *NoOpLogger) Errorf(format string, args ...interface{})   {}
func (n *NoOpLogger) Successf(format string, args ...interface{}) {}
