package gateway

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_Allow(t *testing.T) {
	rl := newRateLimiter(3)

	for i := 0; i < 3; i++ {
		assert.True(t, rl.allow("10.0.0.1"), "request %d within budget", i+1)
	}
	assert.False(t, rl.allow("10.0.0.1"), "budget exhausted")
	assert.True(t, rl.allow("10.0.0.2"), "buckets are per IP")
}

func TestRateLimiter_EvictsOldestAtCapacity(t *testing.T) {
	rl := newRateLimiter(1)
	rl.maxBuckets = 2

	rl.allow("10.0.0.1")
	rl.allow("10.0.0.2")
	rl.allow("10.0.0.3")

	assert.Len(t, rl.requests, 2)
	assert.NotContains(t, rl.requests, "10.0.0.1")
}

func TestGetClientIP(t *testing.T) {
	t.Run("direct connection", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/", nil)
		r.RemoteAddr = "203.0.113.9:51234"
		assert.Equal(t, "203.0.113.9", getClientIP(r))
	})

	t.Run("forwarded header ignored from remote peers", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/", nil)
		r.RemoteAddr = "203.0.113.9:51234"
		r.Header.Set("X-Forwarded-For", "198.51.100.1")
		assert.Equal(t, "203.0.113.9", getClientIP(r))
	})

	t.Run("forwarded header trusted from localhost", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/", nil)
		r.RemoteAddr = "127.0.0.1:51234"
		r.Header.Set("X-Forwarded-For", "198.51.100.1, 192.0.2.2")
		assert.Equal(t, "198.51.100.1", getClientIP(r))
	})
}
