package logger

import (
	"context"

	"github.com/rs/zerolog"
)

// LogRequest logs HTTP request information
func LogRequest(method, url string, statusCode int, durationMs float64) {
	fields := map[string]interface{}{
		"method":      method,
		"url":         url,
		"status_code": statusCode,
		"duration_ms": durationMs,
	}

	switch {
	case statusCode >= 200 && statusCode < 300:
		GetLogger().DebugWithFields("HTTP request completed", fields)
	case statusCode >= 400 && statusCode < 500:
		GetLogger().WarnWithFields("HTTP request client error", fields)
	case statusCode >= 500:
		GetLogger().ErrorWithFields("HTTP request server error", fields)
	}
}

// LogRateLimit logs rate limiting events
func LogRateLimit(endpoint string, retryAfterSeconds int) {
	GetLogger().WithFields(map[string]interface{}{
		"endpoint":    endpoint,
		"retry_after": retryAfterSeconds,
		"action":      "rate_limited",
	}).Warn("Rate limit reached, backing off")
}

// LogFetchProgress logs paginated fetch progress
func LogFetchProgress(username string, page, fetched int) {
	GetLogger().WithFields(map[string]interface{}{
		"username": username,
		"page":     page,
		"fetched":  fetched,
	}).Info("Fetching friend list")
}

// LogActivity logs a detected friend-list change
func LogActivity(kind string, friendID int64, friendName string) {
	GetLogger().WithFields(map[string]interface{}{
		"kind":      kind,
		"friend_id": friendID,
		"friend":    friendName,
	}).Info("Friend list change detected")
}

// NewNopLogger creates a no-operation logger for testing
func NewNopLogger() Logger {
	return &nopLogger{}
}

// nopLogger is a logger that does nothing (useful for testing)
type nopLogger struct{}

func (n *nopLogger) Debug(msg string)                                          {}
func (n *nopLogger) Info(msg string)                                           {}
func (n *nopLogger) Warn(msg string)                                           {}
func (n *nopLogger) Error(msg string)                                          {}
func (n *nopLogger) Fatal(msg string)                                          {}
func (n *nopLogger) WithField(key string, value interface{}) Logger            { return n }
func (n *nopLogger) WithFields(fields map[string]interface{}) Logger           { return n }
func (n *nopLogger) WithError(err error) Logger                                { return n }
func (n *nopLogger) WithContext(ctx context.Context) Logger                    { return n }
func (n *nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) InfoWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) WarnWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) FatalWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) GetZerolog() *zerolog.Logger                               { return nil }
