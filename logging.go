// logging.go: pluggable logging with a logrus adapter
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package gopanels

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Logger is the pluggable logging interface of the library.
//
// Any structured logging framework can be adapted; LogrusAdapter is
// provided as the canonical implementation and NoOpLogger keeps the
// library silent when no logger is supplied. Args are alternating
// key-value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)

	// With returns a new logger carrying persistent key-value context.
	With(args ...any) Logger
}

// NoOpLogger discards all log messages.
type NoOpLogger struct{}

// NewNoOpLogger creates a new no-operation logger.
func NewNoOpLogger() *NoOpLogger { return &NoOpLogger{} }

func (n *NoOpLogger) Debug(msg string, args ...any) {}
func (n *NoOpLogger) Info(msg string, args ...any)  {}
func (n *NoOpLogger) Warn(msg string, args ...any)  {}
func (n *NoOpLogger) Error(msg string, args ...any) {}
func (n *NoOpLogger) With(args ...any) Logger       { return n }

// DefaultLogger returns the logger used when none is supplied.
func DefaultLogger() Logger { return NewNoOpLogger() }

// LogrusAdapter adapts a *logrus.Logger to the Logger interface.
type LogrusAdapter struct {
	entry *logrus.Entry
}

// NewLogrusAdapter wraps a logrus logger. A nil logger wraps
// logrus.StandardLogger.
func NewLogrusAdapter(l *logrus.Logger) *LogrusAdapter {
	if l == nil {
		l = logrus.StandardLogger()
	}
	return &LogrusAdapter{entry: logrus.NewEntry(l)}
}

// SetLevel adjusts the underlying logrus level at runtime. Used by the
// runtime configuration watcher.
func (a *LogrusAdapter) SetLevel(level string) error {
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	a.entry.Logger.SetLevel(parsed)
	return nil
}

func (a *LogrusAdapter) Debug(msg string, args ...any) { a.withFields(args).Debug(msg) }
func (a *LogrusAdapter) Info(msg string, args ...any)  { a.withFields(args).Info(msg) }
func (a *LogrusAdapter) Warn(msg string, args ...any)  { a.withFields(args).Warn(msg) }
func (a *LogrusAdapter) Error(msg string, args ...any) { a.withFields(args).Error(msg) }

func (a *LogrusAdapter) With(args ...any) Logger {
	return &LogrusAdapter{entry: a.withFields(args)}
}

// withFields converts alternating key-value args into logrus fields.
// A trailing key without a value is recorded under "arg".
func (a *LogrusAdapter) withFields(args []any) *logrus.Entry {
	if len(args) == 0 {
		return a.entry
	}
	fields := make(logrus.Fields, len(args)/2)
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			continue
		}
		fields[key] = args[i+1]
	}
	if len(args)%2 == 1 {
		fields["arg"] = args[len(args)-1]
	}
	return a.entry.WithFields(fields)
}

// TestLogger captures log messages for assertions in tests.
type TestLogger struct {
	mu       sync.RWMutex
	Messages []TestLogMessage
}

// TestLogMessage is one captured log record.
type TestLogMessage struct {
	Level   string
	Message string
	Args    []any
}

// NewTestLogger creates a capturing logger.
func NewTestLogger() *TestLogger {
	return &TestLogger{Messages: make([]TestLogMessage, 0)}
}

func (t *TestLogger) record(level, msg string, args []any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Messages = append(t.Messages, TestLogMessage{Level: level, Message: msg, Args: args})
}

func (t *TestLogger) Debug(msg string, args ...any) { t.record("DEBUG", msg, args) }
func (t *TestLogger) Info(msg string, args ...any)  { t.record("INFO", msg, args) }
func (t *TestLogger) Warn(msg string, args ...any)  { t.record("WARN", msg, args) }
func (t *TestLogger) Error(msg string, args ...any) { t.record("ERROR", msg, args) }

func (t *TestLogger) With(args ...any) Logger { return t }

// HasMessage reports whether a message with the given level and text was
// captured.
func (t *TestLogger) HasMessage(level, message string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, m := range t.Messages {
		if m.Level == level && m.Message == message {
			return true
		}
	}
	return false
}
