package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Logger defines the common logging interface used throughout the application.
// It separates internal messages, which go to the log file and are echoed to
// the console only in verbose mode, from user-facing messages that are always
// shown.
type Logger interface {
	// Info logs an informational message. It is written to the log file and
	// echoed to stdout when verbose mode is enabled.
	//
	// The format string follows fmt.Printf style formatting.
	Info(format string, args ...interface{})

	// Warning logs a warning message. It is written to the log file and
	// echoed to stdout when verbose mode is enabled.
	//
	// The format string follows fmt.Printf style formatting.
	Warning(format string, args ...interface{})

	// Error logs an error message to the log file and always prints it to stderr.
	//
	// The format string follows fmt.Printf style formatting.
	Error(format string, args ...interface{})

	// InfoToUser logs an informational message intended for users.
	// It is always shown and also written to the log file.
	InfoToUser(format string, args ...interface{})

	// WarningToUser logs a warning message intended for users.
	// It is always shown and also written to the log file.
	WarningToUser(format string, args ...interface{})

	// Success logs a success message to the user and the log file.
	Success(format string, args ...interface{})

	// StatusMessage prints a status line to the user. It is not logged.
	StatusMessage(format string, args ...interface{})

	// Close flushes and closes the log file.
	Close() error
}

// DefaultLogger provides structured logging capability and implements the Logger interface
type DefaultLogger struct {
	mu      sync.Mutex
	logger  *slog.Logger
	enabled bool
	logFile string
	verbose bool
	stdout  io.Writer
	stderr  io.Writer
	file    *os.File
	styles  styles
}

// styles are bound to the writer they render for, so output to pipes and
// buffers stays free of escape sequences.
type styles struct {
	info    lipgloss.Style
	success lipgloss.Style
	warning lipgloss.Style
	error   lipgloss.Style
}

func newStyles(stdout, stderr io.Writer) styles {
	out := lipgloss.NewRenderer(stdout)
	errOut := lipgloss.NewRenderer(stderr)
	return styles{
		info:    out.NewStyle().Faint(true),
		success: out.NewStyle().Foreground(lipgloss.Color("2")),
		warning: out.NewStyle().Foreground(lipgloss.Color("3")),
		error:   errOut.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
	}
}

// New creates a new Logger instance writing to os.Stdout and os.Stderr.
// An empty logFile disables file logging.
func New(logFile string, verbose bool) Logger {
	return NewWithOutput(logFile, verbose, os.Stdout, os.Stderr)
}

// NewWithOutput creates a DefaultLogger with custom output writers
func NewWithOutput(logFile string, verbose bool, stdout, stderr io.Writer) *DefaultLogger {
	l := &DefaultLogger{
		logFile: logFile,
		verbose: verbose,
		stdout:  stdout,
		stderr:  stderr,
		styles:  newStyles(stdout, stderr),
	}

	if logFile == "" {
		l.logger = slog.New(newLineHandler(io.Discard, slog.LevelInfo))
		return l
	}

	if logDir := filepath.Dir(logFile); logDir != "." {
		if err := os.MkdirAll(logDir, 0o755); err != nil {
			_, _ = fmt.Fprintf(stderr, "⚠️  Failed to create log directory: %v\n", err)
		}
	}

	f, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "⚠️  Failed to open log file: %v, file logging disabled\n", err)
		l.logger = slog.New(newLineHandler(io.Discard, slog.LevelInfo))
		return l
	}

	l.file = f
	l.enabled = true
	l.logger = slog.New(newLineHandler(f, slog.LevelInfo))
	if verbose {
		_, _ = fmt.Fprintf(stdout, "🔍 Logs will be written to: %s\n", logFile)
	}
	return l
}

// LogFile returns the path of the log file, or "" when file logging is off.
func (l *DefaultLogger) LogFile() string {
	if !l.enabled {
		return ""
	}
	return l.logFile
}

// Info logs an informational message
func (l *DefaultLogger) Info(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	msg := fmt.Sprintf(format, args...)
	if l.enabled {
		l.logger.Info(msg)
	}

	if l.verbose {
		_, _ = fmt.Fprintln(l.stdout, l.styles.info.Render("   "+msg))
	}
}

// InfoToUser logs an informational message to both file and stdout
func (l *DefaultLogger) InfoToUser(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	msg := fmt.Sprintf(format, args...)
	if l.enabled {
		l.logger.Info(msg)
	}

	_, _ = fmt.Fprintln(l.stdout, "ℹ️  "+msg)
}

// Success logs a success message to both file and stdout
func (l *DefaultLogger) Success(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	msg := fmt.Sprintf(format, args...)
	if l.enabled {
		l.logger.Info(msg)
	}

	_, _ = fmt.Fprintln(l.stdout, l.styles.success.Render("✅ "+msg))
}

// Warning logs a warning message
func (l *DefaultLogger) Warning(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	msg := fmt.Sprintf(format, args...)
	if l.enabled {
		l.logger.Warn(msg)
	}

	if l.verbose {
		_, _ = fmt.Fprintln(l.stdout, l.styles.warning.Render("⚠️  "+msg))
	}
}

// WarningToUser logs a warning message to both file and stdout
func (l *DefaultLogger) WarningToUser(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	msg := fmt.Sprintf(format, args...)
	if l.enabled {
		l.logger.Warn(msg)
	}

	_, _ = fmt.Fprintln(l.stdout, l.styles.warning.Render("⚠️  "+msg))
}

// Error logs an error message
func (l *DefaultLogger) Error(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	msg := fmt.Sprintf(format, args...)
	if l.enabled {
		l.logger.Error(msg)
	}

	_, _ = fmt.Fprintln(l.stderr, l.styles.error.Render("❌ "+msg))
}

// StatusMessage prints a status message to stdout only (no logging)
func (l *DefaultLogger) StatusMessage(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, _ = fmt.Fprintln(l.stdout, fmt.Sprintf(format, args...))
}

// Close ensures any buffered data is written and closes open log file handles
func (l *DefaultLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}

	f := l.file
	l.file = nil
	l.enabled = false
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
