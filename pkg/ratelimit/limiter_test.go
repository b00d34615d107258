package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTokenBucketAllow(t *testing.T) {
	tb := NewTokenBucket(3, time.Hour)

	assert.True(t, tb.Allow())
	assert.True(t, tb.Allow())
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow())
}

func TestTokenBucketRefill(t *testing.T) {
	tb := NewTokenBucket(2, 20*time.Millisecond)

	assert.True(t, tb.Allow())
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow())

	time.Sleep(30 * time.Millisecond)

	assert.True(t, tb.Allow())
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow())
}

func TestTokenBucketReset(t *testing.T) {
	tb := NewTokenBucket(1, time.Hour)

	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow())

	tb.Reset()
	assert.True(t, tb.Allow())
}

func TestTokenBucketWait(t *testing.T) {
	tb := NewTokenBucket(1, 20*time.Millisecond)

	assert.True(t, tb.Allow())

	start := time.Now()
	tb.Wait()
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}
