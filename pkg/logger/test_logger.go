package logger

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// TestLogger is a logger implementation for testing that captures all log messages
type TestLogger struct {
	mu       sync.Mutex
	messages []LogMessage
	buffer   *bytes.Buffer
	zerolog  *zerolog.Logger
}

// LogMessage represents a captured log message
type LogMessage struct {
	Level   string
	Message string
	Fields  map[string]interface{}
	Error   error
}

// NewTestLogger creates a new test logger
func NewTestLogger() *TestLogger {
	nopLogger := zerolog.Nop()
	return &TestLogger{
		messages: make([]LogMessage, 0),
		buffer:   &bytes.Buffer{},
		zerolog:  &nopLogger,
	}
}

func (l *TestLogger) Debug(msg string) { l.log("DEBUG", msg, nil, nil) }
func (l *TestLogger) Info(msg string)  { l.log("INFO", msg, nil, nil) }
func (l *TestLogger) Warn(msg string)  { l.log("WARN", msg, nil, nil) }
func (l *TestLogger) Error(msg string) { l.log("ERROR", msg, nil, nil) }
func (l *TestLogger) Fatal(msg string) { l.log("FATAL", msg, nil, nil) }

func (l *TestLogger) DebugWithFields(msg string, fields map[string]interface{}) {
	l.log("DEBUG", msg, fields, nil)
}

func (l *TestLogger) InfoWithFields(msg string, fields map[string]interface{}) {
	l.log("INFO", msg, fields, nil)
}

func (l *TestLogger) WarnWithFields(msg string, fields map[string]interface{}) {
	l.log("WARN", msg, fields, nil)
}

func (l *TestLogger) ErrorWithFields(msg string, fields map[string]interface{}) {
	l.log("ERROR", msg, fields, nil)
}

func (l *TestLogger) FatalWithFields(msg string, fields map[string]interface{}) {
	l.log("FATAL", msg, fields, nil)
}

// WithError adds an error to the logger context
func (l *TestLogger) WithError(err error) Logger {
	return &testLoggerWithContext{TestLogger: l, err: err}
}

// WithField adds a field to the logger context
func (l *TestLogger) WithField(key string, value interface{}) Logger {
	return &testLoggerWithContext{
		TestLogger: l,
		fields:     map[string]interface{}{key: value},
	}
}

// WithFields adds multiple fields to the logger context
func (l *TestLogger) WithFields(fields map[string]interface{}) Logger {
	return &testLoggerWithContext{
		TestLogger: l,
		fields:     fields,
	}
}

// WithContext is a no-op for the test logger
func (l *TestLogger) WithContext(ctx context.Context) Logger {
	return l
}

// GetZerolog returns the underlying zerolog instance
func (l *TestLogger) GetZerolog() *zerolog.Logger {
	return l.zerolog
}

// log captures a log message
func (l *TestLogger) log(level, msg string, fields map[string]interface{}, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.messages = append(l.messages, LogMessage{
		Level:   level,
		Message: msg,
		Fields:  fields,
		Error:   err,
	})

	// Also write to buffer for debugging
	fmt.Fprintf(l.buffer, "[%s] %s", level, msg)
	if len(fields) > 0 {
		fmt.Fprintf(l.buffer, " fields=%v", fields)
	}
	if err != nil {
		fmt.Fprintf(l.buffer, " error=%v", err)
	}
	fmt.Fprintln(l.buffer)
}

// GetMessages returns all captured log messages
func (l *TestLogger) GetMessages() []LogMessage {
	l.mu.Lock()
	defer l.mu.Unlock()

	messages := make([]LogMessage, len(l.messages))
	copy(messages, l.messages)
	return messages
}

// GetMessagesByLevel returns all messages of a specific level
func (l *TestLogger) GetMessagesByLevel(level string) []LogMessage {
	l.mu.Lock()
	defer l.mu.Unlock()

	var filtered []LogMessage
	for _, msg := range l.messages {
		if msg.Level == level {
			filtered = append(filtered, msg)
		}
	}
	return filtered
}

// HasMessage checks if a message with the given text was logged
func (l *TestLogger) HasMessage(text string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, msg := range l.messages {
		if msg.Message == text {
			return true
		}
	}
	return false
}

// HasError checks if an error was logged
func (l *TestLogger) HasError() bool {
	return len(l.GetMessagesByLevel("ERROR")) > 0
}

// Clear clears all captured messages
func (l *TestLogger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.messages = l.messages[:0]
	l.buffer.Reset()
}

// String returns all log messages as a string
func (l *TestLogger) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.buffer.String()
}

// testLoggerWithContext carries field and error context for a TestLogger
type testLoggerWithContext struct {
	*TestLogger
	fields map[string]interface{}
	err    error
}

func (l *testLoggerWithContext) Debug(msg string) { l.log("DEBUG", msg, l.fields, l.err) }
func (l *testLoggerWithContext) Info(msg string)  { l.log("INFO", msg, l.fields, l.err) }
func (l *testLoggerWithContext) Warn(msg string)  { l.log("WARN", msg, l.fields, l.err) }
func (l *testLoggerWithContext) Error(msg string) { l.log("ERROR", msg, l.fields, l.err) }
func (l *testLoggerWithContext) Fatal(msg string) { l.log("FATAL", msg, l.fields, l.err) }

func (l *testLoggerWithContext) DebugWithFields(msg string, fields map[string]interface{}) {
	l.log("DEBUG", msg, l.mergeFields(fields), l.err)
}

func (l *testLoggerWithContext) InfoWithFields(msg string, fields map[string]interface{}) {
	l.log("INFO", msg, l.mergeFields(fields), l.err)
}

func (l *testLoggerWithContext) WarnWithFields(msg string, fields map[string]interface{}) {
	l.log("WARN", msg, l.mergeFields(fields), l.err)
}

func (l *testLoggerWithContext) ErrorWithFields(msg string, fields map[string]interface{}) {
	l.log("ERROR", msg, l.mergeFields(fields), l.err)
}

func (l *testLoggerWithContext) FatalWithFields(msg string, fields map[string]interface{}) {
	l.log("FATAL", msg, l.mergeFields(fields), l.err)
}

func (l *testLoggerWithContext) WithError(err error) Logger {
	return &testLoggerWithContext{TestLogger: l.TestLogger, fields: l.fields, err: err}
}

func (l *testLoggerWithContext) WithField(key string, value interface{}) Logger {
	return &testLoggerWithContext{
		TestLogger: l.TestLogger,
		fields:     l.mergeFields(map[string]interface{}{key: value}),
		err:        l.err,
	}
}

func (l *testLoggerWithContext) WithFields(fields map[string]interface{}) Logger {
	return &testLoggerWithContext{
		TestLogger: l.TestLogger,
		fields:     l.mergeFields(fields),
		err:        l.err,
	}
}

func (l *testLoggerWithContext) WithContext(ctx context.Context) Logger {
	return l
}

func (l *testLoggerWithContext) GetZerolog() *zerolog.Logger {
	return l.TestLogger.zerolog
}

func (l *testLoggerWithContext) mergeFields(additional map[string]interface{}) map[string]interface{} {
	merged := make(map[string]interface{})
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range additional {
		merged[k] = v
	}
	return merged
}
