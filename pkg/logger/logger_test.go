package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"friendtrack/pkg/config"
)

func TestNewWithLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", ""} {
		cfg := &config.LoggingConfig{Level: level}
		log, err := New(cfg)
		require.NoError(t, err, "level %q", level)
		require.NotNil(t, log)
	}
}

func TestTestLoggerCapturesMessages(t *testing.T) {
	tl := NewTestLogger()

	tl.Info("hello")
	tl.WarnWithFields("watch out", map[string]interface{}{"count": 3})
	tl.WithError(errors.New("boom")).Error("it broke")

	messages := tl.GetMessages()
	require.Len(t, messages, 3)

	assert.True(t, tl.HasMessage("hello"))
	assert.True(t, tl.HasError())

	warns := tl.GetMessagesByLevel("WARN")
	require.Len(t, warns, 1)
	assert.Equal(t, 3, warns[0].Fields["count"])

	errs := tl.GetMessagesByLevel("ERROR")
	require.Len(t, errs, 1)
	assert.EqualError(t, errs[0].Error, "boom")
}

func TestTestLoggerFieldContext(t *testing.T) {
	tl := NewTestLogger()

	tl.WithField("user", "alice").WithField("page", 2).Info("fetching")

	messages := tl.GetMessages()
	require.Len(t, messages, 1)
	assert.Equal(t, "alice", messages[0].Fields["user"])
	assert.Equal(t, 2, messages[0].Fields["page"])
}

func TestTestLoggerClear(t *testing.T) {
	tl := NewTestLogger()
	tl.Info("one")
	tl.Clear()
	assert.Empty(t, tl.GetMessages())
	assert.Empty(t, tl.String())
}

func TestNopLogger(t *testing.T) {
	log := NewNopLogger()
	// Must not panic, whatever is chained
	log.WithField("a", 1).WithFields(map[string]interface{}{"b": 2}).WithError(errors.New("x")).Info("ignored")
	log.DebugWithFields("ignored", nil)
}
