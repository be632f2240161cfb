package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/fatih/color"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger defines the common logging interface used throughout the application.
// Info, Warning and Error go to the debug log file; the *ToUser, Success and
// StatusMessage variants are what the person at the terminal sees.
type Logger interface {
	// Info logs an informational message to the log file only.
	Info(format string, args ...interface{})

	// Warning logs a warning to the log file, and to stdout when verbose.
	Warning(format string, args ...interface{})

	// Error logs an error to the log file and always prints it to stderr.
	Error(format string, args ...interface{})

	// InfoToUser prints an informational message and records it in the log file.
	InfoToUser(format string, args ...interface{})

	// WarningToUser prints a warning and records it in the log file.
	WarningToUser(format string, args ...interface{})

	// Success prints a success message and records it in the log file.
	Success(format string, args ...interface{})

	// StatusMessage prints a plain status line to stdout without logging it.
	StatusMessage(format string, args ...interface{})

	// Close flushes and closes the log file.
	Close() error
}

// DefaultLogger writes structured JSON logs through zap and colored
// user-facing lines through fatih/color.
type DefaultLogger struct {
	mu      sync.Mutex
	zl      *zap.Logger
	enabled bool
	logFile string
	verbose bool
	stdout  io.Writer
	stderr  io.Writer
	file    *os.File

	info    *color.Color
	success *color.Color
	warn    *color.Color
	fail    *color.Color
}

// NewWithOutput creates a DefaultLogger with custom output writers
func NewWithOutput(enabled bool, logFile string, verbose bool, stdout, stderr io.Writer) *DefaultLogger {
	zl := zap.NewNop()
	var file *os.File

	if enabled && logFile != "" {
		logDir := filepath.Dir(logFile)
		if logDir != "." {
			if err := os.MkdirAll(logDir, 0o755); err != nil {
				_, _ = fmt.Fprintf(stderr, "⚠️ Failed to create log directory: %v\n", err)
			}
		}

		f, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err == nil {
			file = f
			zl = zap.New(zapcore.NewCore(newEncoder(), zapcore.AddSync(f), zapcore.DebugLevel))
			_, _ = fmt.Fprintf(stdout, "🔍 Debug logging enabled. Logs will be written to: %s\n", logFile)

			zl.Info("gitcheckpoint debug logging started", zap.Int("pid", os.Getpid()))
		} else {
			zl = zap.New(zapcore.NewCore(newEncoder(), zapcore.AddSync(stderr), zapcore.InfoLevel))
			_, _ = fmt.Fprintf(stderr, "⚠️ Failed to open log file: %v, using stderr instead\n", err)
		}
	}

	return &DefaultLogger{
		zl:      zl,
		enabled: enabled,
		logFile: logFile,
		verbose: verbose,
		stdout:  stdout,
		stderr:  stderr,
		file:    file,
		info:    color.New(color.FgCyan),
		success: color.New(color.FgGreen),
		warn:    color.New(color.FgYellow),
		fail:    color.New(color.FgRed),
	}
}

func newEncoder() zapcore.Encoder {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "time"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	return zapcore.NewJSONEncoder(cfg)
}

// Zap exposes the underlying structured logger for callers that attach fields.
func (l *DefaultLogger) Zap() *zap.Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.zl
}

// Info logs an informational message (file only)
func (l *DefaultLogger) Info(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.zl.Info(fmt.Sprintf(format, args...))
}

// InfoToUser logs an informational message to both file and stdout
func (l *DefaultLogger) InfoToUser(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	msg := fmt.Sprintf(format, args...)
	l.zl.Info(msg)
	_, _ = l.info.Fprintf(l.stdout, "ℹ️  %s\n", msg)
}

// Success logs a success message to both file and stdout
func (l *DefaultLogger) Success(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	msg := fmt.Sprintf(format, args...)
	l.zl.Info(msg)
	_, _ = l.success.Fprintf(l.stdout, "✅ %s\n", msg)
}

// Warning logs a warning message
func (l *DefaultLogger) Warning(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	msg := fmt.Sprintf(format, args...)
	l.zl.Warn(msg)

	if l.verbose {
		_, _ = l.warn.Fprintf(l.stdout, "⚠️  %s\n", msg)
	}
}

// WarningToUser logs a warning message to both file and stdout
func (l *DefaultLogger) WarningToUser(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	msg := fmt.Sprintf(format, args...)
	l.zl.Warn(msg)
	_, _ = l.warn.Fprintf(l.stdout, "⚠️  %s\n", msg)
}

// Error logs an error message
func (l *DefaultLogger) Error(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	msg := fmt.Sprintf(format, args...)
	l.zl.Error(msg)

	// Always show errors to the user regardless of debug status
	_, _ = l.fail.Fprintf(l.stderr, "❌ %s\n", msg)
}

// StatusMessage prints a status message to stdout only (no logging)
func (l *DefaultLogger) StatusMessage(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, _ = fmt.Fprintln(l.stdout, fmt.Sprintf(format, args...))
}

// Close flushes zap and closes the log file handle
func (l *DefaultLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	// Sync on a file-backed core only; syncing stderr fails on some terminals.
	if l.file == nil {
		return nil
	}
	if err := l.zl.Sync(); err != nil {
		return err
	}
	err := l.file.Close()
	l.file = nil
	l.zl = zap.NewNop()
	return err
}

// Nop returns a logger that discards everything. Useful for tests and for
// library callers that do not want terminal output.
func Nop() *DefaultLogger {
	return NewWithOutput(false, "", false, io.Discard, io.Discard)
}
