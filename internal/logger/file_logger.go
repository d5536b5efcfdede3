package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Logger writes structured guard activity to a file or any writer
type Logger struct {
	logger  zerolog.Logger
	logFile *os.File
	logPath string
	mu      sync.Mutex
}

// LogLevel represents different types of log entries
type LogLevel string

const (
	LogLevelInfo    LogLevel = "INFO"
	LogLevelWarning LogLevel = "WARN"
	LogLevelError   LogLevel = "ERROR"
	LogLevelStatus  LogLevel = "STATUS"
)

// NewFileLogger appends JSON lines to <dir>/<strategy>_<date>.log and, when
// console is non-nil, mirrors every entry there in human-readable form
func NewFileLogger(dir, strategyID string, console io.Writer) (*Logger, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	logPath := filepath.Join(dir, fmt.Sprintf("%s_%s.log", strategyID, time.Now().Format("2006-01-02")))
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	var out io.Writer = file
	if console != nil {
		out = zerolog.MultiLevelWriter(file, consoleWriter(console))
	}

	l := &Logger{
		logFile: file,
		logPath: logPath,
		logger:  zerolog.New(out).With().Timestamp().Logger(),
	}
	l.logger.Info().Msg("guard session started")
	return l, nil
}

// New creates a logger writing JSON lines to w
func New(w io.Writer) *Logger {
	return &Logger{logger: zerolog.New(w).With().Timestamp().Logger()}
}

// NewConsole creates a human-readable logger for CLI use
func NewConsole(w io.Writer) *Logger {
	return &Logger{logger: zerolog.New(consoleWriter(w)).With().Timestamp().Logger()}
}

func consoleWriter(w io.Writer) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{Out: w, TimeFormat: "2006-01-02 15:04:05"}
}

// Nop returns a logger that discards everything
func Nop() *Logger {
	return &Logger{logger: zerolog.Nop()}
}

// OrNop returns l, or a discarding logger when l is nil
func OrNop(l *Logger) *Logger {
	if l == nil {
		return Nop()
	}
	return l
}

// With returns a child logger carrying an extra field on every entry
func (l *Logger) With(key string, value interface{}) *Logger {
	return &Logger{
		logPath: l.logPath,
		logger:  l.logger.With().Interface(key, value).Logger(),
	}
}

// Zerolog exposes the underlying logger for callers that want typed fields
func (l *Logger) Zerolog() *zerolog.Logger {
	return &l.logger
}

// Log writes a formatted log entry with the specified level
func (l *Logger) Log(level LogLevel, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var ev *zerolog.Event
	switch level {
	case LogLevelWarning:
		ev = l.logger.Warn()
	case LogLevelError:
		ev = l.logger.Error()
	case LogLevelStatus:
		ev = l.logger.Info().Str("kind", "status")
	default:
		ev = l.logger.Info()
	}
	ev.Msg(fmt.Sprintf(format, args...))
}

// Info logs an info message
func (l *Logger) Info(format string, args ...interface{}) {
	l.Log(LogLevelInfo, format, args...)
}

// Warning logs a warning message
func (l *Logger) Warning(format string, args ...interface{}) {
	l.Log(LogLevelWarning, format, args...)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	l.Log(LogLevelError, format, args...)
}

// Status logs periodic health status information
func (l *Logger) Status(format string, args ...interface{}) {
	l.Log(LogLevelStatus, format, args...)
}

// LogError logs error with context
func (l *Logger) LogError(context string, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logger.Error().Err(err).Msg(context)
}

// LogWarning logs warning with context
func (l *Logger) LogWarning(context string, message string, args ...interface{}) {
	l.Warning("%s: %s", context, fmt.Sprintf(message, args...))
}

// Close closes the log file
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.logFile != nil {
		l.logger.Info().Msg("guard session ended")
		err := l.logFile.Close()
		l.logFile = nil
		return err
	}
	return nil
}

// GetLogPath returns the log file path, empty for writer-backed loggers
func (l *Logger) GetLogPath() string {
	return l.logPath
}
