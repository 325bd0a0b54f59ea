package data

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestNewResponseCache_DisabledForZeroTTL(t *testing.T) {
	c := NewResponseCache(0)
	assert.Nil(t, c)

	// A nil cache is a no-op.
	c.Set("k", &Response{StatusCode: 200})
	_, ok := c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
	c.Clear()
	c.Close()
}

func TestResponseCache_ExpiresAtRead(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	c := NewResponseCache(time.Minute)
	defer c.Close()

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	resp := &Response{StatusCode: 200, Body: []byte(`{"success":true}`)}
	c.Set("key", resp)

	got, ok := c.Get("key")
	require.True(t, ok)
	assert.Same(t, resp, got)

	now = now.Add(59 * time.Second)
	_, ok = c.Get("key")
	assert.True(t, ok)

	now = now.Add(2 * time.Second)
	_, ok = c.Get("key")
	assert.False(t, ok, "stale entry must not be served")

	c.sweep()
	assert.Equal(t, 0, c.Len())
}

func TestResponseCache_ClearAndClose(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	c := NewResponseCache(time.Hour)
	c.Set("a", &Response{StatusCode: 200})
	c.Set("b", &Response{StatusCode: 200})
	assert.Equal(t, 2, c.Len())

	c.Clear()
	assert.Equal(t, 0, c.Len())

	c.Close()
	c.Close()
}

func TestGenerateCacheKey(t *testing.T) {
	a := GenerateCacheKey("http://api/x?periods=12")
	b := GenerateCacheKey("http://api/x?periods=24")
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, GenerateCacheKey("http://api/x?periods=12"))
}
