// Package logger provides the logging interface shared by every warpreel
// component. Backends are console output, a no-op sink and a recording mock
// for tests; MultiLogger fans messages out to several of them.
package logger

import (
	"fmt"
	"log"
	"sync"
)

// Logger is the printf-style logging interface used across warpreel.
type Logger interface {
	// Info logs an informational message (e.g., "transfer 3f2a complete").
	Info(format string, args ...interface{})

	// Warning logs a condition that did not stop the current operation
	// (e.g., "failed to remove previous media file").
	Warning(format string, args ...interface{})

	// Error logs a failure that ended the current operation.
	Error(format string, args ...interface{})

	// Close releases resources held by the logger. Safe to call twice.
	Close() error
}

// StandardLogger writes to a *log.Logger, tagging every line with its level
// and, when set, the component that produced it.
type StandardLogger struct {
	logger    *log.Logger
	component string
}

// NewStandardLogger creates a logger that writes through l.
func NewStandardLogger(l *log.Logger) *StandardLogger {
	return &StandardLogger{logger: l}
}

// Named returns a copy of the logger whose lines carry the given component
// tag, e.g. "[INFO] fetch: ...".
func (s *StandardLogger) Named(component string) *StandardLogger {
	return &StandardLogger{logger: s.logger, component: component}
}

func (s *StandardLogger) print(level, format string, args []interface{}) {
	msg := fmt.Sprintf(format, args...)
	if s.component != "" {
		s.logger.Printf("[%s] %s: %s", level, s.component, msg)
		return
	}
	s.logger.Printf("[%s] %s", level, msg)
}

// Info logs with the [INFO] tag.
func (s *StandardLogger) Info(format string, args ...interface{}) {
	s.print("INFO", format, args)
}

// Warning logs with the [WARNING] tag.
func (s *StandardLogger) Warning(format string, args ...interface{}) {
	s.print("WARNING", format, args)
}

// Error logs with the [ERROR] tag.
func (s *StandardLogger) Error(format string, args ...interface{}) {
	s.print("ERROR", format, args)
}

// Close is a no-op; the underlying writer belongs to the caller.
func (s *StandardLogger) Close() error {
	return nil
}

// NopLogger discards everything.
type NopLogger struct{}

// NewNopLogger creates a logger that discards all messages.
func NewNopLogger() *NopLogger {
	return &NopLogger{}
}

func (n *NopLogger) Info(format string, args ...interface{})    {}
func (n *NopLogger) Warning(format string, args ...interface{}) {}
func (n *NopLogger) Error(format string, args ...interface{})   {}
func (n *NopLogger) Close() error                               { return nil }

// MockLogger records formatted messages per level. It is safe for use from
// the goroutines the scheduler and controller spawn.
type MockLogger struct {
	mu           sync.Mutex
	infoCalls    []string
	warningCalls []string
	errorCalls   []string
	closed       bool
}

// NewMockLogger creates an empty MockLogger.
func NewMockLogger() *MockLogger {
	return &MockLogger{}
}

func (m *MockLogger) Info(format string, args ...interface{}) {
	m.mu.Lock()
	m.infoCalls = append(m.infoCalls, fmt.Sprintf(format, args...))
	m.mu.Unlock()
}

func (m *MockLogger) Warning(format string, args ...interface{}) {
	m.mu.Lock()
	m.warningCalls = append(m.warningCalls, fmt.Sprintf(format, args...))
	m.mu.Unlock()
}

func (m *MockLogger) Error(format string, args ...interface{}) {
	m.mu.Lock()
	m.errorCalls = append(m.errorCalls, fmt.Sprintf(format, args...))
	m.mu.Unlock()
}

func (m *MockLogger) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

// InfoCalls returns a copy of the recorded info messages.
func (m *MockLogger) InfoCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.infoCalls...)
}

// WarningCalls returns a copy of the recorded warning messages.
func (m *MockLogger) WarningCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.warningCalls...)
}

// ErrorCalls returns a copy of the recorded error messages.
func (m *MockLogger) ErrorCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.errorCalls...)
}

// Closed reports whether Close was called.
func (m *MockLogger) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

var (
	_ Logger = (*StandardLogger)(nil)
	_ Logger = (*NopLogger)(nil)
	_ Logger = (*MockLogger)(nil)
)

// OrNop returns l, or a NopLogger when l is nil.
func OrNop(l Logger) Logger {
	if l == nil {
		return NewNopLogger()
	}
	return l
}
