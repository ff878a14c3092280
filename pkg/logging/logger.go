package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"github.com/sirupsen/logrus"
)

// Level represents log level
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
	FATAL
)

func (l Level) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	case FATAL:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

func (l Level) logrus() logrus.Level {
	switch l {
	case DEBUG:
		return logrus.DebugLevel
	case WARN:
		return logrus.WarnLevel
	case ERROR:
		return logrus.ErrorLevel
	case FATAL:
		return logrus.FatalLevel
	default:
		return logrus.InfoLevel
	}
}

// Logger provides structured logging with optional rotating file output
type Logger struct {
	entry *logrus.Entry
	file  *rotatelogs.RotateLogs
}

// FileOptions controls rotation of a file logger
type FileOptions struct {
	// MaxAge is how long rotated files are kept
	MaxAge time.Duration
	// RotationTime is the interval between rotations
	RotationTime time.Duration
	// Console receives a copy of every entry, os.Stdout when nil
	Console io.Writer
}

// NewLogger creates a logger writing to stdout
func NewLogger(level Level, jsonFormat bool) *Logger {
	return newLogger(level, jsonFormat, os.Stdout, nil)
}

// NewFileLogger creates a logger that writes to the console and to path.
// Rotated files are named path.YYYYMMDDHHMM and path links to the current one.
func NewFileLogger(path string, level Level, jsonFormat bool, opts FileOptions) (*Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory for %s: %w", path, err)
	}

	rotateOpts := []rotatelogs.Option{rotatelogs.WithLinkName(path)}
	if opts.MaxAge > 0 {
		rotateOpts = append(rotateOpts, rotatelogs.WithMaxAge(opts.MaxAge))
	}
	if opts.RotationTime > 0 {
		rotateOpts = append(rotateOpts, rotatelogs.WithRotationTime(opts.RotationTime))
	}

	file, err := rotatelogs.New(path+".%Y%m%d%H%M", rotateOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", path, err)
	}

	console := opts.Console
	if console == nil {
		console = os.Stdout
	}

	logger := newLogger(level, jsonFormat, io.MultiWriter(file, console), file)
	logger.Info("Logger initialized", map[string]interface{}{"path": path})

	return logger, nil
}

func newLogger(level Level, jsonFormat bool, output io.Writer, file *rotatelogs.RotateLogs) *Logger {
	l := logrus.New()
	l.SetOutput(output)
	l.SetLevel(level.logrus())
	if jsonFormat {
		l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	} else {
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
			DisableColors:   true,
		})
	}

	return &Logger{entry: logrus.NewEntry(l), file: file}
}

// SetOutput sets the output writer
func (l *Logger) SetOutput(w io.Writer) {
	l.entry.Logger.SetOutput(w)
}

func (l *Logger) log(level Level, message string, fields []map[string]interface{}) {
	entry := l.entry
	if len(fields) > 0 && len(fields[0]) > 0 {
		entry = entry.WithFields(logrus.Fields(fields[0]))
	}
	entry.Log(level.logrus(), message)

	if level == FATAL {
		l.entry.Logger.Exit(1)
	}
}

// Debug logs a debug message
func (l *Logger) Debug(message string, fields ...map[string]interface{}) {
	l.log(DEBUG, message, fields)
}

// Info logs an info message
func (l *Logger) Info(message string, fields ...map[string]interface{}) {
	l.log(INFO, message, fields)
}

// Warn logs a warning message
func (l *Logger) Warn(message string, fields ...map[string]interface{}) {
	l.log(WARN, message, fields)
}

// Error logs an error message
func (l *Logger) Error(message string, fields ...map[string]interface{}) {
	l.log(ERROR, message, fields)
}

// Fatal logs a fatal message and exits
func (l *Logger) Fatal(message string, fields ...map[string]interface{}) {
	l.log(FATAL, message, fields)
}

// WithField returns a logger that adds key to every entry
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{entry: l.entry.WithField(key, value), file: l.file}
}

// WithError returns a logger that adds err to every entry
func (l *Logger) WithError(err error) *Logger {
	return &Logger{entry: l.entry.WithError(err), file: l.file}
}

// ParseLevel parses a log level string
func ParseLevel(level string) Level {
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

// Close closes the log file if opened
func (l *Logger) Close() error {
	if l.file != nil {
		l.Info("Logger closing")
		return l.file.Close()
	}
	return nil
}

// Discard returns a logger that drops everything, for tests and quiet CLIs.
// Fatal on it does not exit.
func Discard() *Logger {
	logger := newLogger(FATAL, false, io.Discard, nil)
	logger.entry.Logger.ExitFunc = func(int) {}
	return logger
}
