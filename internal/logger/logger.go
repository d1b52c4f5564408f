package logger

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// Fields are key/value pairs attached to every message of a derived logger.
type Fields = logrus.Fields

// Logger handles leveled logging with optional file output
type Logger struct {
	Verbose bool
	c       *core
	fields  Fields
}

// core is the output state shared by a logger and the loggers derived from it.
type core struct {
	mu      sync.Mutex
	console *logrus.Logger
	stderr  *logrus.Logger
	file    *logrus.Logger
	fileLog *os.File
	hasBar  bool
}

// New creates a new Logger instance
func New(verbose bool) *Logger {
	return NewWithWriters(verbose, os.Stdout, os.Stderr)
}

// NewWithWriters creates a Logger writing regular output to out and errors to errOut.
func NewWithWriters(verbose bool, out, errOut io.Writer) *Logger {
	return &Logger{
		Verbose: verbose,
		c: &core{
			console: newLogrus(out, &consoleFormatter{}),
			stderr:  newLogrus(errOut, &consoleFormatter{}),
		},
	}
}

func newLogrus(w io.Writer, f logrus.Formatter) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(f)
	l.SetLevel(logrus.DebugLevel)
	return l
}

// SetFileLog enables logging to a file
func (l *Logger) SetFileLog(path string) error {
	l.c.mu.Lock()
	defer l.c.mu.Unlock()

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	l.c.fileLog = f
	l.c.file = newLogrus(f, &logrus.TextFormatter{DisableColors: true, FullTimestamp: true})
	return nil
}

// SetProgressBar indicates that a progress bar is active
func (l *Logger) SetProgressBar(active bool) {
	l.c.mu.Lock()
	defer l.c.mu.Unlock()
	l.c.hasBar = active
}

// Close closes the log file if open
func (l *Logger) Close() error {
	l.c.mu.Lock()
	defer l.c.mu.Unlock()

	if l.c.fileLog != nil {
		err := l.c.fileLog.Close()
		l.c.fileLog = nil
		l.c.file = nil
		return err
	}
	return nil
}

// WithFields returns a logger that appends fields to every message.
// The derived logger shares outputs with l.
func (l *Logger) WithFields(fields Fields) *Logger {
	merged := make(Fields, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &Logger{Verbose: l.Verbose, c: l.c, fields: merged}
}

// Info logs informational messages
func (l *Logger) Info(format string, args ...interface{}) {
	l.log(logrus.InfoLevel, format, args...)
}

// Debug logs detailed messages only in verbose mode
func (l *Logger) Debug(format string, args ...interface{}) {
	if l.Verbose {
		l.log(logrus.DebugLevel, format, args...)
	} else {
		// Always log debug to file even in non-verbose mode
		l.logToFile(logrus.DebugLevel, format, args...)
	}
}

// Error logs error messages to stderr
func (l *Logger) Error(format string, args ...interface{}) {
	l.c.mu.Lock()
	defer l.c.mu.Unlock()

	msg := fmt.Sprintf(format, args...)
	l.c.stderr.WithFields(l.fields).Error(msg)
	if l.c.file != nil {
		l.c.file.WithFields(l.fields).Error(msg)
	}
}

// Warn logs warning messages
func (l *Logger) Warn(format string, args ...interface{}) {
	l.log(logrus.WarnLevel, format, args...)
}

// log handles the actual logging
func (l *Logger) log(level logrus.Level, format string, args ...interface{}) {
	l.c.mu.Lock()
	defer l.c.mu.Unlock()

	msg := fmt.Sprintf(format, args...)

	// Write to stdout (unless we have a progress bar and not verbose)
	if l.Verbose || !l.c.hasBar {
		l.c.console.WithFields(l.fields).Log(level, msg)
	}

	// Always write to file if available
	if l.c.file != nil {
		l.c.file.WithFields(l.fields).Log(level, msg)
	}
}

// logToFile writes only to file
func (l *Logger) logToFile(level logrus.Level, format string, args ...interface{}) {
	l.c.mu.Lock()
	defer l.c.mu.Unlock()

	if l.c.file != nil {
		l.c.file.WithFields(l.fields).Log(level, fmt.Sprintf(format, args...))
	}
}

// consoleFormatter prints info messages bare and tags every other level,
// e.g. "[WARN] message key=value".
type consoleFormatter struct{}

func (consoleFormatter) Format(e *logrus.Entry) ([]byte, error) {
	var b bytes.Buffer
	if e.Level != logrus.InfoLevel {
		b.WriteString("[" + levelName(e.Level) + "] ")
	}
	b.WriteString(e.Message)

	keys := make([]string, 0, len(e.Data))
	for k := range e.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, e.Data[k])
	}
	b.WriteByte('\n')
	return b.Bytes(), nil
}

func levelName(level logrus.Level) string {
	if level == logrus.WarnLevel {
		return "WARN"
	}
	return strings.ToUpper(level.String())
}
