package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// VerboseChecker reports whether debug and info lines should be written
type VerboseChecker interface {
	IsVerbose() bool
}

// Logger writes component-tagged lines to stderr. Debug and Info only appear
// in verbose mode; Warn and Error are always written.
type Logger struct {
	component      string
	verboseChecker VerboseChecker
	writer         io.Writer
	fields         []Field
	mu             *sync.Mutex
}

// Field is a key=value pair appended to a log line
type Field struct {
	Key   string
	Value any
}

// New creates a logger for component
func New(component string, verboseChecker VerboseChecker) *Logger {
	return &Logger{
		component:      component,
		verboseChecker: verboseChecker,
		writer:         os.Stderr,
		mu:             &sync.Mutex{},
	}
}

// NewWithCallback creates a logger whose verbosity is read from verboseCheck
func NewWithCallback(component string, verboseCheck func() bool) *Logger {
	return New(component, &callbackChecker{callback: verboseCheck})
}

// Nop returns a logger that discards everything
func Nop() *Logger {
	l := New("", nil)
	l.writer = io.Discard
	return l
}

// WithComponent returns a logger sharing output and verbosity under another component name
func (l *Logger) WithComponent(component string) *Logger {
	clone := *l
	clone.component = component
	return &clone
}

// WithFields returns a logger that appends fields to every line
func (l *Logger) WithFields(fields ...Field) *Logger {
	clone := *l
	clone.fields = append(append([]Field(nil), l.fields...), fields...)
	return &clone
}

// WithWriter returns a logger writing to w
func (l *Logger) WithWriter(w io.Writer) *Logger {
	clone := *l
	clone.writer = w
	return &clone
}

type callbackChecker struct {
	callback func() bool
}

func (c *callbackChecker) IsVerbose() bool {
	if c.callback == nil {
		return false
	}
	return c.callback()
}

func (l *Logger) verbose() bool {
	return l != nil && l.verboseChecker != nil && l.verboseChecker.IsVerbose()
}

// Debug logs debug messages (verbose only)
func (l *Logger) Debug(msg string, args ...any) {
	if l.verbose() {
		l.write("DEBUG", msg, nil, args...)
	}
}

// Info logs informational messages (verbose only)
func (l *Logger) Info(msg string, args ...any) {
	if l.verbose() {
		l.write("INFO", msg, nil, args...)
	}
}

// Warn logs warnings (always shown)
func (l *Logger) Warn(msg string, args ...any) {
	l.write("WARN", msg, nil, args...)
}

// Error logs errors (always shown)
func (l *Logger) Error(msg string, args ...any) {
	l.write("ERROR", msg, nil, args...)
}

// DebugWithFields logs a debug message with structured fields
func (l *Logger) DebugWithFields(msg string, fields []Field, args ...any) {
	if l.verbose() {
		l.write("DEBUG", msg, fields, args...)
	}
}

// InfoWithFields logs an info message with structured fields
func (l *Logger) InfoWithFields(msg string, fields []Field, args ...any) {
	if l.verbose() {
		l.write("INFO", msg, fields, args...)
	}
}

// WarnWithFields logs a warning with structured fields
func (l *Logger) WarnWithFields(msg string, fields []Field, args ...any) {
	l.write("WARN", msg, fields, args...)
}

func (l *Logger) write(level, msg string, fields []Field, args ...any) {
	if l == nil || l.writer == nil {
		return
	}

	component := l.component
	if component == "" {
		component = "main"
	}

	all := append(append([]Field(nil), l.fields...), fields...)
	var fieldsStr string
	if len(all) > 0 {
		parts := make([]string, 0, len(all))
		for _, field := range all {
			parts = append(parts, fmt.Sprintf("%s=%v", field.Key, field.Value))
		}
		fieldsStr = " [" + strings.Join(parts, " ") + "]"
	}

	line := fmt.Sprintf("[%s] %s [%s] %s%s\n",
		time.Now().Format("15:04:05.000"), level, component, fmt.Sprintf(msg, args...), fieldsStr)

	l.mu.Lock()
	defer l.mu.Unlock()
	// nothing useful to do when the log sink itself fails
	_, _ = io.WriteString(l.writer, line)
}

// F creates a field
func F(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// Count creates a count field
func Count(value int) Field {
	return Field{Key: "count", Value: value}
}

// Duration creates a duration field
func Duration(d time.Duration) Field {
	return Field{Key: "duration", Value: d}
}

// Error creates an error field
func Error(err error) Field {
	return Field{Key: "error", Value: err}
}

// RequestID creates a request id field
func RequestID(id string) Field {
	return Field{Key: "request_id", Value: id}
}
